package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/panelgrid/pkg/cache"
	"github.com/matzehuels/panelgrid/pkg/errors"
	"github.com/matzehuels/panelgrid/pkg/pipeline"
	"github.com/matzehuels/panelgrid/pkg/protocol"
	"github.com/matzehuels/panelgrid/pkg/worker"
)

// SessionHeader carries the session id in the upgrade response.
const SessionHeader = "X-Panelgrid-Session"

const writeTimeout = 5 * time.Second

// handleSession upgrades to a websocket and serves one remote controller.
//
// Every text frame is a protocol.Request. Valid requests are queued on the
// session's worker; invalid ones are answered with a protocol.ErrorResponse
// right away. The optional ?scope= query parameter isolates the session's
// cache entries from other scopes.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
	if s.cfg.AllowAnyOrigin {
		upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}

	id := uuid.NewString()
	conn, err := upgrader.Upgrade(w, r, http.Header{SessionHeader: []string{id}})
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxRequestBytes)

	sess := &session{
		id:     id,
		conn:   conn,
		server: s,
		runner: s.sessionRunner(id, r.URL.Query().Get("scope")),
	}
	sess.serve(r.Context())
}

// sessionRunner shares the server's cache but scopes keys when asked to.
func (s *Server) sessionRunner(id, scope string) *pipeline.Runner {
	base := s.cfg.Runner
	keyer := base.Keyer
	if scope != "" {
		keyer = cache.NewScopedKeyer(keyer, "scope:"+scope+":")
	}
	return &pipeline.Runner{
		Cache:  base.Cache,
		Keyer:  keyer,
		Logger: s.logger.With("session", id),
		TTL:    base.TTL,
	}
}

type session struct {
	id     string
	conn   *websocket.Conn
	server *Server
	runner *pipeline.Runner

	writeMu sync.Mutex
}

func (sess *session) serve(ctx context.Context) {
	logger := sess.server.logger.With("session", sess.id)
	logger.Info("session opened")

	w := worker.New(worker.RunnerFunc(sess.runner, sess.server.cfg.Options), worker.Options{Logger: logger})
	stop := context.AfterFunc(ctx, func() { sess.conn.Close() })
	defer stop()

	written := make(chan struct{})
	go func() {
		defer close(written)
		for resp := range w.Responses() {
			if err := sess.write(resp); err != nil {
				logger.Debug("write failed", "error", err)
				sess.conn.Close()
			}
		}
	}()

	requests := 0
	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("read failed", "error", err)
			}
			break
		}
		req, err := protocol.DecodeRequest(data, protocol.FormatJSON)
		if err == nil {
			err = protocol.Validate(req)
		}
		if err != nil {
			if werr := sess.write(errorResponse(req.RequestID, err)); werr != nil {
				break
			}
			continue
		}
		if err := w.Submit(req); err != nil {
			break
		}
		requests++
	}

	w.Close()
	<-written
	sess.conn.Close()
	logger.Info("session closed", "requests", requests)
}

func (sess *session) write(v any) error {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	if err := sess.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := sess.conn.WriteJSON(v); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "session %s", sess.id)
	}
	return nil
}
