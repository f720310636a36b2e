package notify

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Lembrete é o payload empurrado para os navegadores conectados quando um
// atendimento está para começar.
type Lembrete struct {
	Type   string `json:"type"`
	Titulo string `json:"titulo"`
	Data   string `json:"data"`
}

type client struct {
	conn   *websocket.Conn
	sendCh chan []byte
}

// Hub mantém os navegadores conectados em /ws e distribui lembretes para
// todos eles. Substitui o alerta popup do sistema operacional por push web.
type Hub struct {
	upgrader websocket.Upgrader
	clients  map[*client]struct{}
	mu       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*client]struct{}),
	}
}

// HandleWS faz o upgrade da conexão e mantém o cliente registrado até o
// navegador fechar a aba.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ Erro upgrade websocket: %v", err)
		return
	}

	c := &client{
		conn:   conn,
		sendCh: make(chan []byte, 16),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) readLoop(c *client) {
	defer h.cleanup(c)

	// Nada chega do navegador além de pings; o loop só detecta desconexão.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	for msg := range c.sendCh {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (h *Hub) cleanup(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()

	close(c.sendCh)
	c.conn.Close()
}

// Broadcast envia o lembrete para todos os clientes conectados. Cliente com
// buffer cheio é pulado em vez de travar o scheduler.
func (h *Hub) Broadcast(l Lembrete) {
	payload, err := json.Marshal(l)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.sendCh <- payload:
		default:
		}
	}
}

// ClientCount informa quantos navegadores estão conectados agora.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
