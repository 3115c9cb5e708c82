package gridsync

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// LiveHub pushes race change events to websocket spectators. Subscribers are
// read-only; anything a client sends is discarded.
type LiveHub struct {
	logger   Logger
	upgrader websocket.Upgrader

	mutex       sync.Mutex
	subscribers map[*websocket.Conn]bool
}

func NewLiveHub(logger Logger) *LiveHub {
	return &LiveHub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		subscribers: make(map[*websocket.Conn]bool),
	}
}

func (lh *LiveHub) ServeWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := lh.upgrader.Upgrade(w, r, nil)

	if err != nil {
		lh.logger.WithError(err).Error("Could not upgrade live connection")
		return
	}

	lh.mutex.Lock()
	lh.subscribers[conn] = true
	numSubscribers := len(lh.subscribers)
	lh.mutex.Unlock()

	lh.logger.Debugf("Live spectator connected from %s (%d total)", conn.RemoteAddr().String(), numSubscribers)

	go lh.discardReads(conn)
}

// discardReads keeps the connection's read side drained so pings are answered
// and closure is noticed.
func (lh *LiveHub) discardReads(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			lh.remove(conn)
			return
		}
	}
}

func (lh *LiveHub) remove(conn *websocket.Conn) {
	lh.mutex.Lock()
	defer lh.mutex.Unlock()

	if _, ok := lh.subscribers[conn]; ok {
		delete(lh.subscribers, conn)
		_ = conn.Close()
	}
}

func (lh *LiveHub) Broadcast(event Event) {
	lh.mutex.Lock()
	defer lh.mutex.Unlock()

	for conn := range lh.subscribers {
		if err := conn.WriteJSON(event); err != nil {
			lh.logger.WithError(err).Debugf("Dropping live spectator %s", conn.RemoteAddr().String())

			delete(lh.subscribers, conn)
			_ = conn.Close()
		}
	}
}

func (lh *LiveHub) Close() {
	lh.mutex.Lock()
	defer lh.mutex.Unlock()

	for conn := range lh.subscribers {
		_ = conn.Close()
		delete(lh.subscribers, conn)
	}
}
