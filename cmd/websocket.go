package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"trusthaven/internal/handlers"
	"trusthaven/internal/models"
)

const (
	readLimit     = 4 << 10
	readDeadline  = 120 * time.Second
	writeDeadline = 5 * time.Second
	pingInterval  = 15 * time.Second
)

type directMsg struct {
	userID string
	msg    models.Notification
}

type client struct {
	userID string
	conn   *websocket.Conn
}

// Hub keeps one live connection per user and pushes account events to it.
// Only Run touches the client map.
type Hub struct {
	clients    map[string]*websocket.Conn
	register   chan client
	unregister chan client
	direct     chan directMsg
	done       chan struct{}

	upgrader websocket.Upgrader
	infoLog  *log.Logger
	errorLog *log.Logger
}

func NewHub(allowedOrigins []string, infoLog, errorLog *log.Logger) *Hub {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &Hub{
		clients:    make(map[string]*websocket.Conn),
		register:   make(chan client),
		unregister: make(chan client),
		direct:     make(chan directMsg, 64),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins[origin]
			},
		},
		infoLog:  infoLog,
		errorLog: errorLog,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for id, conn := range h.clients {
			_ = writeClose(conn, websocket.CloseGoingAway, "server shutdown")
			_ = conn.Close()
			delete(h.clients, id)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			// a newer connection replaces the older one
			if old, ok := h.clients[c.userID]; ok && old != c.conn {
				_ = writeClose(old, websocket.ClosePolicyViolation, "replaced by a newer connection")
				_ = old.Close()
			}
			h.clients[c.userID] = c.conn
			h.infoLog.Printf("WS register user=%s", c.userID)

		case c := <-h.unregister:
			if cur, ok := h.clients[c.userID]; ok && cur == c.conn {
				_ = cur.Close()
				delete(h.clients, c.userID)
				h.infoLog.Printf("WS unregister user=%s", c.userID)
			}

		case dm := <-h.direct:
			conn, ok := h.clients[dm.userID]
			if !ok {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteJSON(dm.msg); err != nil {
				h.errorLog.Printf("WS send %s to=%s: %v", dm.msg.Type, dm.userID, err)
				_ = conn.Close()
				delete(h.clients, dm.userID)
			}
		}
	}
}

// Notify queues n for userID. It drops the event when the hub has stopped
// or ctx ends first.
func (h *Hub) Notify(ctx context.Context, userID string, n models.Notification) {
	select {
	case h.direct <- directMsg{userID: userID, msg: n}:
	case <-h.done:
	case <-ctx.Done():
	}
}

// ServeWS upgrades an authenticated request into the caller's event stream.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	auth, ok := handlers.UserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.errorLog.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	c := client{userID: auth.UserID, conn: conn}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	stop := make(chan struct{})
	go h.pingLoop(c, stop)
	go h.readLoop(c, stop)
}

func (h *Hub) pingLoop(c client, stop <-chan struct{}) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-h.done:
			return
		case <-t.C:
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline))
			if err != nil {
				h.drop(c)
				return
			}
		}
	}
}

// readLoop discards client frames; it exists to process pongs and notice closes.
func (h *Hub) readLoop(c client, stop chan<- struct{}) {
	defer close(stop)
	defer h.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(c client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		_ = c.conn.Close()
	}
}

func writeClose(conn *websocket.Conn, code int, reason string) error {
	return conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeDeadline),
	)
}

// websocketToken lets browsers, which cannot set headers on a websocket
// handshake, pass the bearer token as ?token=.
func websocketToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			if token := r.URL.Query().Get("token"); token != "" {
				r.Header.Set("Authorization", "Bearer "+token)
			}
		}
		next.ServeHTTP(w, r)
	})
}
