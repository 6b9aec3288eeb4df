package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/jaminalder/tictactoe-ai/internal/app"
	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

// stateView is the JSON form of a session.
type stateView struct {
	ID         string       `json:"id"`
	Board      [9]string    `json:"board"`
	Player     string       `json:"player"`
	AI         string       `json:"ai"`
	Turn       string       `json:"turn"`
	Score      domain.Score `json:"score"`
	Result     string       `json:"result,omitempty"`
	Message    string       `json:"message,omitempty"`
	Final      *[9]string   `json:"final,omitempty"`
	LastAIMove int          `json:"last_ai_move"`
	Thinking   bool         `json:"thinking"`
}

func boardStrings(b domain.Board) [9]string {
	var out [9]string
	for i, c := range b {
		out[i] = c.String()
	}
	return out
}

func newStateView(ss app.Session) stateView {
	v := stateView{
		ID:         ss.ID,
		Board:      boardStrings(ss.Game.Board),
		Player:     ss.Game.Symbols.Player.String(),
		AI:         ss.Game.Symbols.AI.String(),
		Turn:       ss.Game.Turn.String(),
		Score:      ss.Score,
		LastAIMove: ss.LastAIMove,
		Thinking:   ss.Thinking,
	}
	if ss.Result != domain.Ongoing {
		final := boardStrings(ss.Final)
		v.Result = ss.Result.String()
		v.Message = ss.Result.Message()
		v.Final = &final
	}
	return v
}

// clientMessage is a request from a websocket client. Contents is decoded
// into a typed request according to Type.
type clientMessage struct {
	Type     string                 `json:"type"`
	Contents map[string]interface{} `json:"contents"`
}

type moveRequest struct {
	Cell *int `mapstructure:"cell"`
}

type symbolRequest struct {
	Symbol string `mapstructure:"symbol"`
}

// serverMessage is sent to websocket clients.
type serverMessage struct {
	Type     string      `json:"type"`
	Contents interface{} `json:"contents"`
}

// errorResponse is returned to the client
type errorResponse struct {
	Reason string `json:"reason"`
}

var (
	errUnknownMessage = errors.New("unknown message type")
	errBadContents    = errors.New("unable to parse contents")
)

func (h *handlers) socket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Get(id); !ok {
		http.NotFound(w, r)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", zap.String("session", id), zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	updates, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		return
	}
	defer unsub()

	replies := make(chan serverMessage, 4)
	writerDone := make(chan struct{})
	// The writer is the only goroutine writing to conn.
	go func() {
		defer close(writerDone)
		defer conn.Close()
		defer cancel()
		if !h.writeState(conn, id) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case m := <-replies:
				if err := conn.WriteJSON(m); err != nil {
					return
				}
			case _, ok := <-updates:
				if !ok || !h.writeState(conn, id) {
					return
				}
			}
		}
	}()

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Info("websocket client errored or disconnected", zap.String("session", id), zap.Error(err))
			}
			break
		}
		if err := h.handleMessage(ctx, id, msg); err != nil {
			select {
			case replies <- serverMessage{Type: "error", Contents: errorResponse{Reason: socketErrorReason(err)}}:
			case <-ctx.Done():
			}
		}
	}
	cancel()
	<-writerDone
}

func (h *handlers) writeState(conn *websocket.Conn, id string) bool {
	ss, ok := h.svc.Get(id)
	if !ok {
		return false
	}
	err := conn.WriteJSON(serverMessage{Type: "state", Contents: newStateView(*ss)})
	return err == nil
}

// handleMessage applies one client request. State changes reach the client
// through the session subscription, so only errors are returned.
func (h *handlers) handleMessage(ctx context.Context, id string, msg clientMessage) error {
	switch msg.Type {
	case "move":
		var req moveRequest
		if err := mapstructure.Decode(msg.Contents, &req); err != nil || req.Cell == nil {
			return errBadContents
		}
		_, err := h.svc.Play(ctx, id, *req.Cell)
		return err
	case "symbol":
		var req symbolRequest
		if err := mapstructure.Decode(msg.Contents, &req); err != nil {
			return errBadContents
		}
		c, err := domain.ParseCell(req.Symbol)
		if err != nil {
			return err
		}
		_, err = h.svc.ChooseSymbol(id, c)
		return err
	case "restart":
		_, err := h.svc.Restart(id)
		return err
	default:
		return errUnknownMessage
	}
}

func socketErrorReason(err error) string {
	switch {
	case errors.Is(err, errUnknownMessage), errors.Is(err, errBadContents):
		return err.Error()
	case errors.Is(err, app.ErrNotFound):
		return "Session not found"
	default:
		return errorMessage(err)
	}
}
