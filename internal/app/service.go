package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaminalder/tictactoe-ai/internal/domain"
	"github.com/jaminalder/tictactoe-ai/internal/engine"
)

// Errors exposed by the service layer.
var (
	ErrNotFound    = errors.New("session not found")
	ErrAIThinking  = errors.New("computer is thinking")
	ErrNotYourTurn = errors.New("not your turn")
)

// Config tunes session behaviour.
type Config struct {
	// AIDelay is how long the computer waits before answering a move.
	AIDelay time.Duration
	// Symbol is the player's mark for new sessions (X when unset).
	Symbol domain.Cell
}

// Session is one player's table against the computer: the game in progress
// and the tally of finished games.
type Session struct {
	ID    string
	Game  domain.Game
	Score domain.Score
	// Result and Final describe the most recently finished game. The board
	// itself is reset as soon as a game ends.
	Result     domain.Outcome
	Final      domain.Board
	LastAIMove int
	Thinking   bool
	Created    time.Time
	Updated    time.Time

	round int
}

// Shown returns the board to display: the final position of the last game
// until the player moves again, otherwise the live board.
func (ss Session) Shown() domain.Board {
	if ss.Result != domain.Ongoing && ss.Game.Moves == 0 {
		return ss.Final
	}
	return ss.Game.Board
}

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service manages sessions and subscribers.
type Service struct {
	mu       sync.Mutex
	cfg      Config
	log      *zap.Logger
	sessions map[string]*Session
	subs     map[string]map[*subscriber]struct{}
	render   func(Session) []byte
}

// subscriberBuffer holds one player move and the computer reply.
const subscriberBuffer = 2

func noRender(Session) []byte { return nil }

// NewService creates a service. A nil logger disables logging.
func NewService(cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Symbol == domain.Empty {
		cfg.Symbol = domain.X
	}
	return &Service{
		cfg:      cfg,
		log:      log,
		sessions: make(map[string]*Session),
		subs:     make(map[string]map[*subscriber]struct{}),
		render:   noRender,
	}
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(Session) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		renderer = noRender
	}
	s.render = renderer
}

// CreateSession registers a new session. Empty selects the configured symbol.
func (s *Service) CreateSession(player domain.Cell) (*Session, error) {
	if player == domain.Empty {
		player = s.cfg.Symbol
	}
	sym, err := domain.NewSymbols(player)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	ss := &Session{
		ID:         uuid.NewString(),
		Game:       domain.New(sym),
		LastAIMove: -1,
		Created:    now,
		Updated:    now,
	}

	s.mu.Lock()
	s.sessions[ss.ID] = ss
	cp := *ss
	s.mu.Unlock()

	s.log.Info("session created", zap.String("session", ss.ID), zap.Stringer("player", sym.Player))
	return &cp, nil
}

// Get returns a copy of the session if present.
func (s *Service) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	cp := *ss
	return &cp, true
}

// Play applies the player's move at idx and, unless that ends the game, lets
// the computer answer after the configured delay. A cancelled ctx cuts the
// delay short; the computer still moves.
func (s *Service) Play(ctx context.Context, id string, idx int) (*Session, error) {
	s.mu.Lock()
	ss, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	if ss.Thinking {
		s.mu.Unlock()
		return nil, ErrAIThinking
	}
	if !ss.Game.PlayerTurn() {
		s.mu.Unlock()
		return nil, ErrNotYourTurn
	}
	if err := ss.Game.Play(idx); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	ss.LastAIMove = -1
	ss.Result = domain.Ongoing
	finished := s.finishLocked(ss)
	if !finished {
		ss.Thinking = true
	}
	round := ss.round
	cp := s.publishLocked(ss)
	s.mu.Unlock()

	if finished {
		return &cp, nil
	}

	if s.cfg.AIDelay > 0 {
		t := time.NewTimer(s.cfg.AIDelay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}
	return s.aiTurn(id, round)
}

func (s *Service) aiTurn(id string, round int) (*Session, error) {
	s.mu.Lock()
	ss, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	if ss.round != round {
		// restarted while the computer was waiting
		cp := *ss
		s.mu.Unlock()
		return &cp, nil
	}
	ss.Thinking = false

	res, err := engine.Search(&ss.Game.Board, ss.Game.Symbols)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("computer move: %w", err)
	}
	if err := ss.Game.Play(res.Move); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("computer move %d: %w", res.Move, err)
	}
	ss.LastAIMove = res.Move
	s.log.Debug("computer moved",
		zap.String("session", id),
		zap.Int("cell", res.Move),
		zap.Int("score", res.Score),
		zap.Int("nodes", res.Nodes),
	)
	s.finishLocked(ss)
	cp := s.publishLocked(ss)
	s.mu.Unlock()
	return &cp, nil
}

// ChooseSymbol switches the player's mark. The symbols are fixed for a game,
// so the current game is abandoned; the score is kept.
func (s *Service) ChooseSymbol(id string, player domain.Cell) (*Session, error) {
	sym, err := domain.NewSymbols(player)
	if err != nil {
		return nil, err
	}
	return s.reset(id, sym)
}

// Restart clears the board. The score is kept.
func (s *Service) Restart(id string) (*Session, error) {
	return s.reset(id, domain.Symbols{})
}

func (s *Service) reset(id string, sym domain.Symbols) (*Session, error) {
	s.mu.Lock()
	ss, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	if !sym.Valid() {
		sym = ss.Game.Symbols
	}
	s.newRoundLocked(ss, sym)
	ss.Result = domain.Ongoing
	ss.Final = domain.Board{}
	cp := s.publishLocked(ss)
	s.mu.Unlock()
	return &cp, nil
}

func (s *Service) newRoundLocked(ss *Session, sym domain.Symbols) {
	ss.Game = domain.New(sym)
	ss.Thinking = false
	ss.LastAIMove = -1
	ss.round++
}

// finishLocked records a finished game and starts the next one.
func (s *Service) finishLocked(ss *Session) bool {
	if !ss.Game.Over() {
		return false
	}
	out := ss.Game.Outcome
	ss.Score.Record(out)
	ss.Result = out
	ss.Final = ss.Game.Board
	last := ss.LastAIMove
	s.log.Info("game finished",
		zap.String("session", ss.ID),
		zap.Stringer("outcome", out),
		zap.Int("moves", ss.Game.Moves),
		zap.Stringer("score", ss.Score),
	)
	s.newRoundLocked(ss, ss.Game.Symbols)
	ss.LastAIMove = last
	return true
}

// publishLocked stamps the session and delivers the rendered copy to its
// subscribers. Sends never block; slow subscribers are closed and dropped.
func (s *Service) publishLocked(ss *Session) Session {
	ss.Updated = time.Now()
	cp := *ss
	set := s.subs[ss.ID]
	if len(set) == 0 {
		return cp
	}
	payload := s.render(cp)
	for sub := range set {
		select {
		case sub.ch <- payload:
		default:
			sub.close()
			delete(set, sub)
			s.log.Debug("dropped slow subscriber", zap.String("session", ss.ID))
		}
	}
	return cp
}

// Subscribe registers a subscriber for a session. Returns a channel and an
// unsubscribe func; the subscription also ends with ctx.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return nil, nil, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, subscriberBuffer)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}
