package teammsg

import (
	"time"

	"github.com/bft-labs/bifrost/pkg/broadcast"
)

const (
	// MinimalBudget is kept in reserve so lag never overshoots the budget.
	MinimalBudget = 5

	// SecsPerHalf is the length of one half of a match.
	SecsPerHalf = 10 * 60
)

// Budget is the part of the game controller state that bounds how many
// messages a team may still send.
type Budget struct {
	Playing        bool
	FirstHalf      bool
	MessageBudget  uint16
	PlayersPerTeam uint8
	SecsRemaining  int16
}

// Interval returns the spacing between messages of one player that spends
// the remaining budget evenly over the rest of the match. It reports false
// outside of play or when nothing is left to spend.
func (b Budget) Interval() (time.Duration, bool) {
	if !b.Playing || b.PlayersPerTeam == 0 || b.MessageBudget <= MinimalBudget {
		return 0, false
	}

	secs := int(b.SecsRemaining)
	if b.FirstHalf {
		secs += SecsPerHalf
	}
	if secs < 0 {
		secs = 0
	}

	perPlayer := float64(b.MessageBudget-MinimalBudget) / float64(b.PlayersPerTeam)
	return time.Duration(float64(secs) / perPlayer * float64(time.Second)), true
}

// Calibrate adjusts r so messages are never sent faster than the budget
// can sustain. The early threshold is left alone.
func Calibrate(r broadcast.Rate, b Budget) (broadcast.Rate, bool) {
	interval, ok := b.Interval()
	if !ok {
		return r, false
	}
	r.LateThreshold = interval
	r.AutomaticDeadline = interval
	return r, true
}
