package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Qetrox/esp32-gps-follower/pkg/events"
	"github.com/Qetrox/esp32-gps-follower/pkg/metrics"
)

// hub pushes every accepted fix to connected websocket viewers so the map
// follows the tracker without polling.
type hub struct {
	broker *events.Broker
	logger zerolog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool

	sub    events.Subscriber
	stopCh chan struct{}
}

var upgrader = websocket.Upgrader{
	// Single-operator LAN deployment; the viewer page is served by this
	// same process, so cross-origin upgrades are fine.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func newHub(broker *events.Broker, logger zerolog.Logger) *hub {
	return &hub{
		broker:  broker,
		logger:  logger.With().Str("component", "ws-hub").Logger(),
		clients: make(map[*websocket.Conn]bool),
		stopCh:  make(chan struct{}),
	}
}

func (h *hub) start() {
	if h.broker == nil {
		return
	}
	h.sub = h.broker.Subscribe()
	go h.run()
}

func (h *hub) stop() {
	close(h.stopCh)
	if h.broker != nil && h.sub != nil {
		h.broker.Unsubscribe(h.sub)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]bool)
}

func (h *hub) run() {
	for {
		select {
		case ev, ok := <-h.sub:
			if !ok {
				return
			}
			if ev.Type == events.EventFixUpdated && ev.Fix != nil {
				h.broadcast(ev)
			}
		case <-h.stopCh:
			return
		}
	}
}

func (h *hub) broadcast(ev *events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(ev.Fix); err != nil {
			h.logger.Debug().Err(err).Msg("dropping viewer")
			conn.Close()
			delete(h.clients, conn)
			metrics.WebsocketClients.Dec()
		}
	}
}

func (h *hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	metrics.WebsocketClients.Inc()

	// Reader loop only to notice the close; viewers never send anything
	go func() {
		defer func() {
			h.mu.Lock()
			if h.clients[conn] {
				delete(h.clients, conn)
				metrics.WebsocketClients.Dec()
			}
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
