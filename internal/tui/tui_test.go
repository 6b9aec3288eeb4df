package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jaminalder/tictactoe-ai/internal/app"
	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

func newTestUI(t *testing.T) (*UI, tcell.SimulationScreen, *app.Service) {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	s.SetSize(80, 14)
	t.Cleanup(s.Fini)

	svc := app.NewService(app.Config{}, zaptest.NewLogger(t))
	u, err := New(s, svc, domain.X, zaptest.NewLogger(t))
	require.NoError(t, err)
	return u, s, svc
}

func row(s tcell.SimulationScreen, y int) string {
	cells, w, _ := s.GetContents()
	var b strings.Builder
	for _, c := range cells[y*w : (y+1)*w] {
		if len(c.Runes) == 0 {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(c.Runes[0])
	}
	return strings.TrimRight(b.String(), " ")
}

func key(r rune) *tcell.EventKey { return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone) }

func press(t *testing.T, u *UI, ev *tcell.EventKey) {
	t.Helper()
	require.True(t, u.handle(context.Background(), ev))
	u.Wait()
}

func board(t *testing.T, svc *app.Service, id string) domain.Board {
	t.Helper()
	ss, ok := svc.Get(id)
	require.True(t, ok)
	return ss.Game.Board
}

func TestDrawEmptyBoard(t *testing.T) {
	u, s, _ := newTestUI(t)
	u.draw()

	assert.Contains(t, row(s, 0), "you: X  computer: O")
	assert.Contains(t, row(s, 1), "Player: 0  |  AI: 0  |  Draw: 0")
	assert.Contains(t, row(s, 3), "1 │ 2 │ 3")
	assert.Contains(t, row(s, 4), "───┼───┼───")
	assert.Contains(t, row(s, 5), "4 │ 5 │ 6")
	assert.Contains(t, row(s, 7), "7 │ 8 │ 9")
	assert.Empty(t, row(s, 9))
	assert.Equal(t, " "+help, row(s, 11))
}

func TestDigitKeyPlaysAndComputerAnswers(t *testing.T) {
	u, s, svc := newTestUI(t)
	press(t, u, key('5'))

	b := board(t, svc, u.SessionID())
	assert.Equal(t, domain.X, b[4])
	assert.Equal(t, domain.O, b[0])

	u.draw()
	assert.Contains(t, row(s, 3), "O │ 2 │ 3")
	assert.Contains(t, row(s, 5), "4 │ X │ 6")
}

func TestArrowKeysAndEnter(t *testing.T) {
	u, _, svc := newTestUI(t)
	require.Equal(t, 4, u.cursor)

	press(t, u, tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone))
	press(t, u, tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone))
	assert.Equal(t, 0, u.cursor)
	// the cursor stays on the board
	press(t, u, tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone))
	press(t, u, tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone))
	assert.Equal(t, 0, u.cursor)

	press(t, u, tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
	b := board(t, svc, u.SessionID())
	assert.Equal(t, domain.X, b[0])
	assert.Equal(t, domain.O, b[4])

	press(t, u, tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone))
	press(t, u, tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone))
	assert.Equal(t, 4, u.cursor)
	press(t, u, tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone))
	press(t, u, key(' '))
	assert.Equal(t, domain.X, board(t, svc, u.SessionID())[5])
}

func TestRejectedMoveShowsStatus(t *testing.T) {
	u, s, _ := newTestUI(t)
	press(t, u, key('5'))
	press(t, u, key('1'))

	for i := 0; i < 5 && u.status == ""; i++ {
		u.handle(context.Background(), s.PollEvent())
	}
	require.Equal(t, "Cell is occupied", u.status)

	u.draw()
	assert.Contains(t, row(s, 9), "Cell is occupied")

	// a new move clears the message
	press(t, u, key('9'))
	assert.Empty(t, u.status)
}

func TestSymbolAndRestartKeys(t *testing.T) {
	u, s, svc := newTestUI(t)
	press(t, u, key('o'))
	u.draw()
	assert.Contains(t, row(s, 0), "you: O  computer: X")

	press(t, u, key('5'))
	ss, _ := svc.Get(u.SessionID())
	require.Equal(t, 2, ss.Game.Moves)

	press(t, u, key('r'))
	ss, _ = svc.Get(u.SessionID())
	assert.Zero(t, ss.Game.Moves)
	assert.Equal(t, domain.O, ss.Game.Symbols.Player)

	press(t, u, key('X'))
	ss, _ = svc.Get(u.SessionID())
	assert.Equal(t, domain.X, ss.Game.Symbols.Player)
}

func TestFinishedGameShowsResult(t *testing.T) {
	u, s, _ := newTestUI(t)
	for _, r := range "124" {
		press(t, u, key(r))
	}
	u.draw()

	assert.Contains(t, row(s, 1), "Player: 0  |  AI: 1  |  Draw: 0")
	assert.Contains(t, row(s, 3), "X │ X │ O")
	assert.Contains(t, row(s, 5), "X │ O │ 6")
	assert.Contains(t, row(s, 7), "O │ 8 │ 9")
	assert.Contains(t, row(s, 9), "AI Wins!")
}

func TestQuitKeys(t *testing.T) {
	u, _, _ := newTestUI(t)
	ctx := context.Background()
	assert.False(t, u.handle(ctx, key('q')))
	assert.False(t, u.handle(ctx, tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
	assert.False(t, u.handle(ctx, tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModNone)))
	assert.True(t, u.handle(ctx, key('z')))
}

func TestRunStopsOnQuitKey(t *testing.T) {
	u, s, _ := newTestUI(t)
	done := make(chan error, 1)
	go func() { done <- u.Run(context.Background()) }()

	s.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after q")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	u, _, _ := newTestUI(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- u.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
