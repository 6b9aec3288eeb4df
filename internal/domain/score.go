package domain

import "fmt"

// Score is the running tally of finished games.
type Score struct {
	PlayerWins int `json:"player"`
	AIWins     int `json:"ai"`
	Draws      int `json:"draw"`
}

// Record counts a finished game. Ongoing is ignored.
func (s *Score) Record(o Outcome) {
	switch o {
	case PlayerWin:
		s.PlayerWins++
	case AIWin:
		s.AIWins++
	case Draw:
		s.Draws++
	}
}

// Games returns the number of finished games.
func (s Score) Games() int { return s.PlayerWins + s.AIWins + s.Draws }

func (s Score) String() string {
	return fmt.Sprintf("Player: %d  |  AI: %d  |  Draw: %d", s.PlayerWins, s.AIWins, s.Draws)
}
