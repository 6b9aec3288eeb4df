package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jaminalder/tictactoe-ai/internal/app"
	"github.com/jaminalder/tictactoe-ai/internal/domain"
	"github.com/jaminalder/tictactoe-ai/internal/engine"
)

type handlers struct {
	svc       *app.Service
	tpl       *templates
	log       *zap.Logger
	heartbeat time.Duration
	upgrader  websocket.Upgrader
}

func (h *handlers) renderBoard(ss app.Session, errMsg string) []byte {
	return renderTemplate(h.tpl.board, newBoardView(ss, errMsg))
}

// errorMessage maps service and domain errors to text shown to the player.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, app.ErrAIThinking):
		return "Computer is thinking"
	case errors.Is(err, app.ErrNotYourTurn):
		return "Not your turn"
	case errors.Is(err, domain.ErrOccupied):
		return "Cell is occupied"
	case errors.Is(err, domain.ErrOutOfBounds):
		return "Out of bounds"
	case errors.Is(err, domain.ErrGameOver):
		return "Game is over"
	case errors.Is(err, domain.ErrInvalidSymbol):
		return "Pick X or O"
	default:
		return "Invalid move"
	}
}

func writeHTML(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	id := sessionFromCookie(r)
	if _, ok := h.svc.Get(id); !ok {
		id = ""
	}
	writeHTML(w, renderTemplate(h.tpl.index, id))
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	symbol := domain.Empty
	if v := r.Form.Get("symbol"); v != "" {
		c, err := domain.ParseCell(v)
		if err != nil {
			http.Error(w, errorMessage(err), http.StatusBadRequest)
			return
		}
		symbol = c
	}
	ss, err := h.svc.CreateSession(symbol)
	if err != nil {
		h.log.Error("create session", zap.Error(err))
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	rememberSession(w, ss.ID)
	http.Redirect(w, r, "/session/"+ss.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ss, ok := h.svc.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	rememberSession(w, ss.ID)
	data := newBoardView(*ss, "")
	// Render page with embedded board container
	writeHTML(w, renderTemplate(h.tpl.page, data))
}

// respond renders the board fragment after an action, or the error message
// on top of the current board.
func (h *handlers) respond(w http.ResponseWriter, r *http.Request, ss *app.Session, err error) {
	id := chi.URLParam(r, "id")
	var errMsg string
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if errors.Is(err, engine.ErrNoMoves) || errors.Is(err, engine.ErrDecided) {
			h.log.Error("computer move failed", zap.String("session", id), zap.Error(err))
		}
		errMsg = errorMessage(err)
		if cur, ok := h.svc.Get(id); ok {
			ss = cur
		}
	}
	if ss == nil {
		http.NotFound(w, r)
		return
	}
	writeHTML(w, h.renderBoard(*ss, errMsg))
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_ = r.ParseForm()
	idx, err := strconv.Atoi(r.Form.Get("cell"))
	if err != nil {
		h.respond(w, r, nil, domain.ErrOutOfBounds)
		return
	}
	ss, err := h.svc.Play(r.Context(), id, idx)
	h.respond(w, r, ss, err)
}

func (h *handlers) symbol(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_ = r.ParseForm()
	c, err := domain.ParseCell(r.Form.Get("symbol"))
	if err != nil {
		h.respond(w, r, nil, err)
		return
	}
	ss, err := h.svc.ChooseSymbol(id, c)
	h.respond(w, r, ss, err)
}

func (h *handlers) restart(w http.ResponseWriter, r *http.Request) {
	ss, err := h.svc.Restart(chi.URLParam(r, "id"))
	h.respond(w, r, ss, err)
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	ss, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(newStateView(*ss)); err != nil {
		h.log.Warn("encode state", zap.Error(err))
	}
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Get(id); !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// In tests or non-EventSource requests, just acknowledge headers and return
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	defer unsub()
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	// Initial flush of headers
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, "board", b)
			flusher.Flush()
		}
	}
}

// writeEvent emits one SSE event; every line of data gets its own prefix.
func writeEvent(w io.Writer, name string, data []byte) {
	_, _ = fmt.Fprintf(w, "event: %s\n", name)
	for _, line := range strings.Split(string(data), "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = io.WriteString(w, "\n")
}
