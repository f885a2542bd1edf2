package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/uptrixio/platformer/internal/config"
	"github.com/uptrixio/platformer/internal/protocol"
	"github.com/uptrixio/platformer/internal/storage"
)

// Server accepts websocket clients. Each connection gets its own session
// running a private world loop.
type Server struct {
	store    storage.Store
	settings config.Settings
	decoder  *protocol.Decoder
	log      *slog.Logger
	tick     time.Duration

	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
	wg       sync.WaitGroup
}

func NewServer(store storage.Store, settings config.Settings, logger *slog.Logger) (*Server, error) {
	dec, err := protocol.NewDecoder()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:    store,
		settings: settings,
		decoder:  dec,
		log:      logger,
		tick:     50 * time.Millisecond,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		sessions: make(map[string]*session),
	}, nil
}

// SessionCount returns the number of connected sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Wait blocks until every session has saved its world and exited.
func (s *Server) Wait() { s.wg.Wait() }

// CloseSessions drops every client connection. Each session saves its world
// on the way out; call Wait to block until they are done.
func (s *Server) CloseSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		_ = sess.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"), time.Now().Add(time.Second))
		_ = sess.conn.Close()
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		hello, ok := s.handshake(conn)
		if !ok {
			return
		}
		sess, err := s.openSession(r.Context(), hello)
		if err != nil {
			var pe *protocol.Error
			if !errors.As(err, &pe) {
				s.log.Error("open session", "world", hello.World, "err", err)
				pe = &protocol.Error{Code: protocol.ErrInternal, Message: "cannot open world"}
			}
			_ = writeJSON(conn, pe.Msg())
			return
		}

		sess.conn = conn
		s.mu.Lock()
		s.sessions[sess.id] = sess
		s.mu.Unlock()
		s.wg.Add(1)
		defer func() {
			s.mu.Lock()
			delete(s.sessions, sess.id)
			s.mu.Unlock()
			s.wg.Done()
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		done := make(chan struct{})
		go func() {
			defer close(done)
			sess.run(ctx, s.tick)
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, b, err := conn.ReadMessage()
			if err != nil {
				break
			}
			msg, err := s.decoder.Decode(b)
			if err != nil {
				var pe *protocol.Error
				if errors.As(err, &pe) {
					sess.send(ctx, pe.Msg())
				}
				continue
			}
			select {
			case sess.in <- msg:
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				break
			}
		}
		cancel()
		<-done
	}
}

func (s *Server) handshake(conn *websocket.Conn) (*protocol.HelloMsg, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		return nil, false
	}
	msg, err := s.decoder.Decode(b)
	hello, ok := msg.(*protocol.HelloMsg)
	if err != nil || !ok {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil, false
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil, false
	}
	return hello, true
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
