package domain

import "errors"

// Game holds the current state of one match against the AI.
type Game struct {
	Board   Board
	Symbols Symbols
	Turn    Cell
	Outcome Outcome
	Moves   int
}

// Errors returned by domain operations.
var (
	ErrOutOfBounds = errors.New("out of bounds")
	ErrOccupied    = errors.New("cell occupied")
	ErrGameOver    = errors.New("game over")
)

// New returns a new game with the player to move.
func New(s Symbols) Game {
	return Game{Symbols: s, Turn: s.Player}
}

// Over reports whether the game has finished.
func (g *Game) Over() bool { return g.Outcome != Ongoing }

// PlayerTurn reports whether the human is to move.
func (g *Game) PlayerTurn() bool { return !g.Over() && g.Turn == g.Symbols.Player }

// PlayAt plays the current turn at row r, column c (0..2).
func (g *Game) PlayAt(r, c int) error {
	if r < 0 || r > 2 || c < 0 || c > 2 {
		return ErrOutOfBounds
	}
	return g.Play(r*3 + c)
}

// Play places the mark of the side to move at idx (0..8).
func (g *Game) Play(idx int) error {
	if g.Over() {
		return ErrGameOver
	}
	if idx < 0 || idx >= len(g.Board) {
		return ErrOutOfBounds
	}
	if g.Board[idx] != Empty {
		return ErrOccupied
	}

	g.Board[idx] = g.Turn
	g.Moves++

	if g.Outcome = Classify(g.Board, g.Symbols); g.Over() {
		return nil
	}
	g.Turn = g.Turn.Opponent()
	return nil
}
