// Package tui is a terminal front end for a single game session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/jaminalder/tictactoe-ai/internal/app"
	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

const help = "1-9 or arrows+enter: play  x/o: symbol  r: restart  q: quit"

var (
	styleText   = tcell.StyleDefault
	styleTitle  = tcell.StyleDefault.Bold(true)
	styleHint   = tcell.StyleDefault.Dim(true)
	styleCursor = tcell.StyleDefault.Reverse(true)
	styleLast   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleResult = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleError  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

// statusEvent carries an error message from a background move to the event loop.
type statusEvent struct {
	tcell.EventTime
	msg string
}

type redrawEvent struct{ tcell.EventTime }

type quitEvent struct{ tcell.EventTime }

// UI draws one session on a tcell screen and turns key presses into service
// calls.
type UI struct {
	screen tcell.Screen
	svc    *app.Service
	log    *zap.Logger
	id     string

	cursor int
	status string

	moves sync.WaitGroup
}

// New starts a session for player on svc. The screen must already be
// initialised.
func New(screen tcell.Screen, svc *app.Service, player domain.Cell, log *zap.Logger) (*UI, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ss, err := svc.CreateSession(player)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &UI{screen: screen, svc: svc, log: log, id: ss.ID, cursor: 4}, nil
}

// SessionID identifies the session this UI plays.
func (u *UI) SessionID() string { return u.id }

// Run processes events until the player quits, ctx is done or the screen is
// finalised.
func (u *UI) Run(ctx context.Context) error {
	defer u.moves.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates, unsub, err := u.svc.Subscribe(ctx, u.id)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer unsub()

	go func() {
		for range updates {
			u.post(&redrawEvent{})
		}
	}()
	go func() {
		<-ctx.Done()
		u.post(&quitEvent{})
	}()

	u.draw()
	for {
		ev := u.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if !u.handle(ctx, ev) {
			return nil
		}
		u.draw()
	}
}

// Wait blocks until moves started by key presses have finished.
func (u *UI) Wait() { u.moves.Wait() }

func (u *UI) post(ev interface {
	tcell.Event
	SetEventNow()
}) {
	ev.SetEventNow()
	_ = u.screen.PostEvent(ev)
}

// handle applies one event and reports whether the loop should continue.
func (u *UI) handle(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		u.screen.Sync()
	case *tcell.EventKey:
		return u.handleKey(ctx, ev)
	case *statusEvent:
		u.status = ev.msg
	case *quitEvent:
		return false
	}
	return true
}

func (u *UI) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		u.moveCursor(-1, 0)
	case tcell.KeyDown:
		u.moveCursor(1, 0)
	case tcell.KeyLeft:
		u.moveCursor(0, -1)
	case tcell.KeyRight:
		u.moveCursor(0, 1)
	case tcell.KeyEnter:
		u.play(ctx, u.cursor)
	case tcell.KeyRune:
		switch r := ev.Rune(); {
		case r >= '1' && r <= '9':
			u.cursor = int(r - '1')
			u.play(ctx, u.cursor)
		case r == ' ':
			u.play(ctx, u.cursor)
		case r == 'x' || r == 'X':
			u.apply(u.svc.ChooseSymbol(u.id, domain.X))
		case r == 'o' || r == 'O':
			u.apply(u.svc.ChooseSymbol(u.id, domain.O))
		case r == 'r' || r == 'R':
			u.apply(u.svc.Restart(u.id))
		case r == 'q' || r == 'Q':
			return false
		}
	}
	return true
}

func (u *UI) moveCursor(dr, dc int) {
	r, c := u.cursor/3+dr, u.cursor%3+dc
	if r < 0 || r > 2 || c < 0 || c > 2 {
		return
	}
	u.cursor = r*3 + c
}

// play runs the move off the event loop so the board keeps redrawing while
// the computer thinks.
func (u *UI) play(ctx context.Context, idx int) {
	u.status = ""
	u.moves.Add(1)
	go func() {
		defer u.moves.Done()
		_, err := u.svc.Play(ctx, u.id, idx)
		if err != nil {
			u.log.Debug("move rejected", zap.Int("cell", idx), zap.Error(err))
			u.post(&statusEvent{msg: statusMessage(err)})
			return
		}
		u.post(&redrawEvent{})
	}()
}

func (u *UI) apply(_ *app.Session, err error) {
	u.status = ""
	if err != nil {
		u.status = statusMessage(err)
	}
}

func statusMessage(err error) string {
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
	default:
		return err.Error()
	}
}

func (u *UI) draw() {
	u.screen.Clear()
	ss, ok := u.svc.Get(u.id)
	if !ok {
		drawText(u.screen, 1, 1, styleError, "session is gone")
		u.screen.Show()
		return
	}
	sym := ss.Game.Symbols
	drawText(u.screen, 1, 0, styleTitle, fmt.Sprintf("Tic-Tac-Toe  you: %s  computer: %s", sym.Player, sym.AI))
	drawText(u.screen, 1, 1, styleText, ss.Score.String())

	board := ss.Shown()
	for r := 0; r < 3; r++ {
		y := 3 + r*2
		for c := 0; c < 3; c++ {
			idx := r*3 + c
			x := 2 + c*4
			label, style := board[idx].String(), styleText
			if board[idx] == domain.Empty {
				label, style = fmt.Sprint(idx+1), styleHint
			}
			if idx == ss.LastAIMove {
				style = styleLast
			}
			if idx == u.cursor {
				style = styleCursor
			}
			drawText(u.screen, x, y, style, " "+label+" ")
			if c < 2 {
				drawText(u.screen, x+3, y, styleText, "│")
			}
		}
		if r < 2 {
			drawText(u.screen, 2, y+1, styleText, "───┼───┼───")
		}
	}

	switch {
	case u.status != "":
		drawText(u.screen, 1, 9, styleError, u.status)
	case ss.Thinking:
		drawText(u.screen, 1, 9, styleHint, "Computer is thinking...")
	case ss.Result != domain.Ongoing:
		drawText(u.screen, 1, 9, styleResult, ss.Result.Message())
	}
	drawText(u.screen, 1, 11, styleHint, help)
	u.screen.Show()
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
