package domain

import (
	"errors"
	"strings"
)

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

// ErrInvalidSymbol is returned when a symbol is not X or O.
var ErrInvalidSymbol = errors.New("invalid symbol")

// ErrInvalidCell is returned for a board holding a value outside Empty, X, O.
var ErrInvalidCell = errors.New("invalid cell value")

func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// Opponent returns the other mark. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// ParseCell parses "X" or "O" (any case).
func ParseCell(s string) (Cell, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return X, nil
	case "O":
		return O, nil
	}
	return Empty, ErrInvalidSymbol
}

// Board is a fixed 3x3 board stored row-major.
type Board [9]Cell

// WinLines are the rows, columns and diagonals of the board.
var WinLines = [8][3]int{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// HasWon reports whether side holds all three cells of any win line.
func (b *Board) HasWon(side Cell) bool {
	if side == Empty {
		return false
	}
	for _, ln := range WinLines {
		if b[ln[0]] == side && b[ln[1]] == side && b[ln[2]] == side {
			return true
		}
	}
	return false
}

// IsFull reports whether no cell is Empty.
func (b *Board) IsFull() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

// EmptyCells returns the indices of empty cells in ascending order.
func (b *Board) EmptyCells() []int {
	out := make([]int, 0, len(b))
	for i, c := range b {
		if c == Empty {
			out = append(out, i)
		}
	}
	return out
}

// Validate checks that every cell holds Empty, X or O.
func (b *Board) Validate() error {
	for _, c := range b {
		if c > O {
			return ErrInvalidCell
		}
	}
	return nil
}

// Symbols is the mark assignment for one game.
type Symbols struct {
	Player Cell
	AI     Cell
}

// DefaultSymbols gives the player X.
var DefaultSymbols = Symbols{Player: X, AI: O}

// NewSymbols assigns player and gives the AI the other mark.
func NewSymbols(player Cell) (Symbols, error) {
	if player != X && player != O {
		return Symbols{}, ErrInvalidSymbol
	}
	return Symbols{Player: player, AI: player.Opponent()}, nil
}

// Valid reports whether the pair is X/O in some order.
func (s Symbols) Valid() bool {
	return (s.Player == X || s.Player == O) && s.AI == s.Player.Opponent()
}

// Outcome classifies a board from the player's point of view.
type Outcome uint8

const (
	Ongoing Outcome = iota
	PlayerWin
	AIWin
	Draw
)

func (o Outcome) String() string {
	switch o {
	case PlayerWin:
		return "player_win"
	case AIWin:
		return "ai_win"
	case Draw:
		return "draw"
	default:
		return "ongoing"
	}
}

// Message is the end-of-game text shown to the player.
func (o Outcome) Message() string {
	switch o {
	case PlayerWin:
		return "You Win!"
	case AIWin:
		return "AI Wins!"
	case Draw:
		return "Draw!"
	default:
		return ""
	}
}

// Classify returns the outcome of b. Wins are checked before the draw.
func Classify(b Board, s Symbols) Outcome {
	switch {
	case b.HasWon(s.AI):
		return AIWin
	case b.HasWon(s.Player):
		return PlayerWin
	case b.IsFull():
		return Draw
	default:
		return Ongoing
	}
}
