package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

const (
	x = domain.X
	o = domain.O
	e = domain.Empty
)

// aiAsO is the default assignment: the human plays X.
var aiAsO = domain.DefaultSymbols

func TestEvaluateTerminalScores(t *testing.T) {
	aiWon := domain.Board{o, o, o, x, x, e, x, e, e}
	assert.Equal(t, 10, Evaluate(&aiWon, aiAsO, true, 0))
	assert.Equal(t, 7, Evaluate(&aiWon, aiAsO, false, 3))

	playerWon := domain.Board{x, x, x, o, o, e, e, e, e}
	assert.Equal(t, -10, Evaluate(&playerWon, aiAsO, true, 0))
	assert.Equal(t, -6, Evaluate(&playerWon, aiAsO, true, 4))

	drawn := domain.Board{x, o, x, x, o, o, o, x, x}
	assert.Equal(t, 0, Evaluate(&drawn, aiAsO, true, 5))
}

func TestEvaluateEmptyBoardIsDraw(t *testing.T) {
	var b domain.Board
	assert.Equal(t, 0, Evaluate(&b, aiAsO, true, 0))
	assert.Equal(t, 0, Evaluate(&b, aiAsO, false, 0))
	assert.Equal(t, domain.Board{}, b)
}

func TestChooseMoveTakesImmediateWin(t *testing.T) {
	// X threatens 2, but O completes its own middle row at 5 first.
	b := domain.Board{x, x, e, o, o, e, e, e, e}
	move, err := ChooseMove(&b, aiAsO)
	require.NoError(t, err)
	assert.Equal(t, 5, move)

	b = domain.Board{o, x, x, e, o, e, e, e, e}
	move, err = ChooseMove(&b, aiAsO)
	require.NoError(t, err)
	assert.Equal(t, 8, move)
}

func TestChooseMoveBlocksPlayerThreat(t *testing.T) {
	b := domain.Board{x, x, e, o, e, e, e, e, e}
	res, err := Search(&b, aiAsO)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Move)
	// X forks after the block and wins two plies later.
	assert.Equal(t, -7, res.Score)
}

func TestChooseMoveEmptyBoardPicksFirstCell(t *testing.T) {
	var b domain.Board
	res, err := Search(&b, aiAsO)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Move)
	assert.Equal(t, 0, res.Score)
	assert.Positive(t, res.Nodes)
}

func TestChooseMoveAnswersOpenings(t *testing.T) {
	corner := domain.Board{x}
	move, err := ChooseMove(&corner, aiAsO)
	require.NoError(t, err)
	assert.Equal(t, 4, move, "a corner opening must be answered in the centre")

	centre := domain.Board{4: x}
	move, err = ChooseMove(&centre, aiAsO)
	require.NoError(t, err)
	assert.Equal(t, 0, move)
}

func TestChooseMoveRestoresBoard(t *testing.T) {
	boards := []domain.Board{
		{},
		{x, x, e, o, o, e, e, e, e},
		{x, e, e, e, o, e, e, e, x},
		{x, o, x, e, o, e, e, x, e},
	}
	for _, b := range boards {
		before := b
		move, err := ChooseMove(&b, aiAsO)
		require.NoError(t, err)
		assert.Equal(t, before, b)
		assert.Equal(t, domain.Empty, before[move], "move %d is occupied on %v", move, before)

		Evaluate(&b, aiAsO, true, 0)
		assert.Equal(t, before, b)
	}
}

func TestChooseMoveContractViolations(t *testing.T) {
	full := domain.Board{x, o, x, x, o, o, o, x, x}
	_, err := ChooseMove(&full, aiAsO)
	assert.ErrorIs(t, err, ErrNoMoves)

	decided := domain.Board{x, x, x, o, o, e, e, e, e}
	_, err = ChooseMove(&decided, aiAsO)
	assert.ErrorIs(t, err, ErrDecided)

	var b domain.Board
	_, err = ChooseMove(&b, domain.Symbols{Player: x, AI: x})
	assert.ErrorIs(t, err, ErrInvalidSymbols)

	bad := domain.Board{domain.Cell(9)}
	move, err := ChooseMove(&bad, aiAsO)
	assert.ErrorIs(t, err, domain.ErrInvalidCell)
	assert.Equal(t, -1, move)
}

type tally struct{ player, ai, draw int }

// playOut explores every player reply while the AI always answers with
// ChooseMove, counting the finished games by outcome.
func playOut(t *testing.T, b *domain.Board, sym domain.Symbols, aiToMove bool, got *tally) {
	t.Helper()
	switch domain.Classify(*b, sym) {
	case domain.PlayerWin:
		got.player++
		t.Fatalf("player won against the engine: %v", *b)
		return
	case domain.AIWin:
		got.ai++
		return
	case domain.Draw:
		got.draw++
		return
	}
	if aiToMove {
		move, err := ChooseMove(b, sym)
		require.NoError(t, err)
		require.Equal(t, domain.Empty, b[move])
		b[move] = sym.AI
		playOut(t, b, sym, false, got)
		b[move] = domain.Empty
		return
	}
	for _, i := range b.EmptyCells() {
		b[i] = sym.Player
		playOut(t, b, sym, true, got)
		b[i] = domain.Empty
	}
}

func TestEngineIsUnbeatable(t *testing.T) {
	cases := []struct {
		sym     domain.Symbols
		aiFirst bool
	}{
		{domain.Symbols{Player: x, AI: o}, false},
		{domain.Symbols{Player: o, AI: x}, false},
		{domain.Symbols{Player: x, AI: o}, true},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("ai=%v first=%v", tc.sym.AI, tc.aiFirst), func(t *testing.T) {
			var b domain.Board
			var got tally
			playOut(t, &b, tc.sym, tc.aiFirst, &got)
			assert.Zero(t, got.player)
			assert.Positive(t, got.ai+got.draw)
			assert.Equal(t, domain.Board{}, b)
		})
	}
}
