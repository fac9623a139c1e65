// Package ws streams town snapshots to authenticated browser sessions.
// The stream is one-way: the server pushes a snapshot on connect and
// after every applied event; client frames are ignored apart from
// keeping the connection alive.
package ws

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"emberhollow.gg/internal/state"
	"emberhollow.gg/internal/town"
)

type Server struct {
	town    *town.Service
	store   *state.Store
	hub     *Hub
	log     *log.Logger
	cookie  string
	sendBuf int

	upgrader websocket.Upgrader
}

func NewServer(t *town.Service, store *state.Store, hub *Hub, logger *log.Logger, cookieName string, sendBuf int) *Server {
	if sendBuf <= 0 {
		sendBuf = 8
	}
	return &Server{
		town:    t,
		store:   store,
		hub:     hub,
		log:     logger,
		cookie:  cookieName,
		sendBuf: sendBuf,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		userID, ok := s.session(r)
		if !ok {
			http.Error(rw, "no session", http.StatusUnauthorized)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		out := s.hub.subscribe(userID, s.sendBuf)
		defer s.hub.unsubscribe(userID, out)

		// Initial state so the client renders without a separate fetch.
		snap, err := s.town.Snapshot(r.Context(), userID)
		if err != nil {
			s.log.Printf("ws: initial snapshot for %s: %v", userID, err)
			return
		}
		s.hub.Publish(userID, snap)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop: the client sends nothing meaningful, but reading is
		// what surfaces close frames and enforces the idle deadline.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}
}

func (s *Server) session(r *http.Request) (string, bool) {
	c, err := r.Cookie(s.cookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	exists, err := s.store.UserExists(r.Context(), c.Value)
	if err != nil || !exists {
		return "", false
	}
	return c.Value, true
}
