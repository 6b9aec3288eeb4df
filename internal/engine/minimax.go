// Package engine picks moves for the computer player by exhaustive minimax
// over the remaining game tree.
//
// Scores are depth adjusted: a win found at depth d is worth 10-d and a loss
// d-10, so among moves with the same result the engine takes the fastest win
// and the slowest loss. Candidates are tried in ascending cell order and only
// a strictly better score replaces the current best, so ties go to the lowest
// index.
package engine

import (
	"errors"
	"math"

	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

const winScore = 10

// Errors returned for boards the engine must not be asked about.
var (
	ErrInvalidSymbols = errors.New("symbols must be X and O")
	ErrNoMoves        = errors.New("no empty cell")
	ErrDecided        = errors.New("game already decided")
)

// Result describes a completed search.
type Result struct {
	Move  int
	Score int
	Nodes int
}

type searcher struct {
	sym   domain.Symbols
	nodes int
}

// Evaluate returns the minimax value of b for the AI. maximizing is true when
// the AI moves next. b is used as scratch space and restored before return.
func Evaluate(b *domain.Board, sym domain.Symbols, maximizing bool, depth int) int {
	s := searcher{sym: sym}
	return s.evaluate(b, maximizing, depth)
}

func (s *searcher) evaluate(b *domain.Board, maximizing bool, depth int) int {
	s.nodes++
	if b.HasWon(s.sym.AI) {
		return winScore - depth
	}
	if b.HasWon(s.sym.Player) {
		return depth - winScore
	}
	if b.IsFull() {
		return 0
	}

	if maximizing {
		best := math.MinInt
		for i := range b {
			if b[i] != domain.Empty {
				continue
			}
			b[i] = s.sym.AI
			score := s.evaluate(b, false, depth+1)
			b[i] = domain.Empty
			if score > best {
				best = score
			}
		}
		return best
	}

	best := math.MaxInt
	for i := range b {
		if b[i] != domain.Empty {
			continue
		}
		b[i] = s.sym.Player
		score := s.evaluate(b, true, depth+1)
		b[i] = domain.Empty
		if score < best {
			best = score
		}
	}
	return best
}

// ChooseMove returns the optimal cell for the AI on b.
func ChooseMove(b *domain.Board, sym domain.Symbols) (int, error) {
	res, err := Search(b, sym)
	if err != nil {
		return -1, err
	}
	return res.Move, nil
}

// Search is ChooseMove that also reports the best score and the number of
// positions visited. It fails fast on boards that have no legal AI move.
func Search(b *domain.Board, sym domain.Symbols) (Result, error) {
	if !sym.Valid() {
		return Result{Move: -1}, ErrInvalidSymbols
	}
	if err := b.Validate(); err != nil {
		return Result{Move: -1}, err
	}
	if b.HasWon(sym.AI) || b.HasWon(sym.Player) {
		return Result{Move: -1}, ErrDecided
	}
	if b.IsFull() {
		return Result{Move: -1}, ErrNoMoves
	}

	s := searcher{sym: sym}
	res := Result{Move: -1, Score: math.MinInt}
	for i := range b {
		if b[i] != domain.Empty {
			continue
		}
		b[i] = sym.AI
		score := s.evaluate(b, false, 0)
		b[i] = domain.Empty
		if score > res.Score {
			res.Score = score
			res.Move = i
		}
	}
	res.Nodes = s.nodes
	return res, nil
}
