package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/history"
	"github.com/sandrolain/gocalc/pkg/session"
)

// Session socket limits.
const (
	sessionReadLimit = 4096
	sessionIdle      = 10 * time.Minute
	sessionWrite     = 10 * time.Second
)

// sessionCalculator is the catalog entry session evaluations are saved under.
const sessionCalculator = "scientific-calculator"

// keyFrame is a client message. Keys are applied in order after Key.
type keyFrame struct {
	Key  string   `json:"key"`
	Keys []string `json:"keys"`
}

// sessionFrame is a server message: the session snapshot after the frame's
// keys, plus the first rejected key, if any.
type sessionFrame struct {
	session.Snapshot
	Rejected string `json:"rejected,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// handleSession upgrades to a WebSocket owning one calculator session. The
// optional user_id query parameter saves every evaluation to history.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	set := s.settings.Load()
	mode := set.angle
	if raw := r.URL.Query().Get("angle_mode"); raw != "" {
		m, err := evaluator.ParseAngleMode(raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "BadRequest", err.Error())
			return
		}
		mode = m
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	s.trackConn(conn)
	defer func() {
		s.untrackConn(conn)
		conn.Close()
	}()

	opts := []session.Option{
		session.WithEvaluator(s.ev),
		session.WithAngleMode(mode),
		session.WithLogger(s.logger),
	}
	if user := r.URL.Query().Get("user_id"); user != "" && s.history != nil {
		opts = append(opts, session.WithObserver(s.saveEvaluation(user)))
	}
	sess := session.New(opts...)
	log := s.logger.With(zap.String("session", sess.ID()))
	log.Debug("session opened")

	conn.SetReadLimit(sessionReadLimit)
	if err := s.writeFrame(conn, sessionFrame{Snapshot: sess.Snapshot()}); err != nil {
		return
	}

	for {
		_ = conn.SetReadDeadline(time.Now().Add(sessionIdle))
		var in keyFrame
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("session read failed", zap.Error(err))
			}
			log.Debug("session closed")
			return
		}

		out := sessionFrame{}
		keys := in.Keys
		if in.Key != "" {
			keys = append([]string{in.Key}, keys...)
		}
		for _, k := range keys {
			if err := sess.Press(k); err != nil {
				out.Rejected, out.Reason = k, err.Error()
				break
			}
		}
		out.Snapshot = sess.Snapshot()
		if err := s.writeFrame(conn, out); err != nil {
			log.Debug("session write failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, f sessionFrame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(sessionWrite))
	return conn.WriteJSON(f)
}

// saveEvaluation returns a session observer persisting evaluations.
func (s *Server) saveEvaluation(user string) session.Observer {
	return func(expression string, result float64) {
		calc, err := s.catalog.Get(sessionCalculator)
		title := sessionCalculator
		if err == nil {
			title = calc.Title
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err = s.history.Save(ctx, history.Entry{
			UserID:          user,
			CalculatorSlug:  sessionCalculator,
			CalculatorTitle: title,
			Inputs:          map[string]string{"expression": expression},
			Results:         map[string]any{"result": result},
		})
		if err != nil {
			s.logger.Warn("saving session evaluation failed", zap.Error(err))
		}
	}
}
