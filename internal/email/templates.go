package email

import (
	"fmt"
	"strings"
	"time"

	"agenda-clinica/pkg/models"
)

// AgendaSummaryTemplate gera o HTML do resumo diário da agenda
func AgendaSummaryTemplate(eventos []models.Evento) string {
	var linhas strings.Builder
	if len(eventos) == 0 {
		linhas.WriteString(`<p>Nenhum atendimento agendado na janela configurada.</p>`)
	} else {
		linhas.WriteString("<ul>\n")
		for _, ev := range eventos {
			linhas.WriteString(fmt.Sprintf("                <li><strong>%s</strong> — %s</li>\n", ev.Data, ev.Titulo))
		}
		linhas.WriteString("            </ul>")
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; background-color: #f4f4f4; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 8px; overflow: hidden; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .header { background-color: #0D6EFD; color: white; padding: 20px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 30px; }
        .footer { background-color: #f8f9fa; padding: 15px; text-align: center; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>📅 Próximos Atendimentos</h1>
        </div>
        <div class="content">
            <p><strong>%d</strong> atendimento(s) agendado(s):</p>
            %s
            <p><strong>Gerado em:</strong> %s</p>
        </div>
        <div class="footer">
            <p>Este é um email automático do sistema de agenda da clínica</p>
            <p>Não responda a este email</p>
        </div>
    </div>
</body>
</html>
    `, len(eventos), linhas.String(), time.Now().Format("02/01/2006 15:04"))
}
