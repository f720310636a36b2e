package api

import (
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"agenda-clinica/internal/store"
)

const maxUploadBytes = 10 << 20

// Upload recebe o credentials.json emitido pelo provedor e/ou um banco de
// pacientes exportado, protegido pela senha de admin das configurações. Os
// arquivos são gravados sob os nomes canônicos, sobrescrevendo o que existir.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Formulário multipart inválido")
		return
	}

	settings := h.Settings.Get()
	if r.FormValue("senha") != settings.SenhaAdmin {
		writeError(w, http.StatusForbidden, "Senha incorreta")
		return
	}

	saved := 0
	for campo, destino := range map[string]string{
		"credenciais": store.CredentialsFile,
		"banco":       store.PacientesFile,
	} {
		file, _, err := r.FormFile(campo)
		if err != nil {
			continue // campo opcional
		}

		if err := h.saveUpload(file, destino); err != nil {
			file.Close()
			log.Printf("❌ Erro ao gravar upload %s: %v", campo, err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		file.Close()
		saved++
		log.Printf("📁 Upload gravado: %s", destino)
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "arquivos": saved})
}

func (h *Handler) saveUpload(src multipart.File, destino string) error {
	out, err := os.Create(filepath.Join(h.DataDir, destino))
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
