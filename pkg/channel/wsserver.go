package channel

import (
	"fmt"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"cnc-dispatch-go/pkg/event"
	"cnc-dispatch-go/pkg/log"
)

// WSServer accepts websocket connections and turns each into a
// registered channel feeding the dispatcher.
type WSServer struct {
	addr     string
	registry *Registry
	events   *event.Pump
	handler  LineHandler

	upgrader websocket.Upgrader
	listener net.Listener
	nextID   atomic.Int64
}

// NewWSServer builds a server; Start begins listening.
func NewWSServer(addr string, registry *Registry, events *event.Pump, handler LineHandler) *WSServer {
	return &WSServer{
		addr:     addr,
		registry: registry,
		events:   events,
		handler:  handler,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Local control UIs connect from arbitrary origins.
				return true
			},
		},
	}
}

// Start listens and serves until the listener closes.
func (s *WSServer) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/websocket", s.handleWebSocket)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln
	log.Info("Websocket listening on %s", ln.Addr())
	go func() {
		if err := http.Serve(ln, mux); err != nil {
			log.Debug("Websocket server stopped: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *WSServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop closes the listener. Established channels close on their own
// when the peer disconnects.
func (s *WSServer) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Websocket upgrade failed: %v", err)
		return
	}
	name := fmt.Sprintf("websocket%d", s.nextID.Add(1))
	ch := NewWSChannel(name, conn, s.events, s.handler)
	s.registry.Add(ch)
	log.Info("%s connected from %s", name, conn.RemoteAddr())
	go func() {
		ch.Run()
		s.registry.Remove(ch)
		log.Info("%s disconnected", name)
	}()
}
