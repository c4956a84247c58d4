package budgetpacer

import (
	"time"

	"github.com/bft-labs/bifrost/internal/teammsg"
	"github.com/bft-labs/bifrost/pkg/node"
)

// FixedBudget returns a Source for a match that started at start with the
// given team budget. Every packet this player sent is assumed to be matched
// by each teammate, so the remaining budget shrinks by players per packet.
func FixedBudget(start time.Time, budget uint16, players uint8, now func() time.Time) Source {
	if now == nil {
		now = time.Now
	}

	return func(stats node.Stats) (teammsg.Budget, bool) {
		elapsed := int(now().Sub(start) / time.Second)
		if elapsed >= 2*teammsg.SecsPerHalf {
			return teammsg.Budget{}, false
		}

		spent := stats.PacketsSent * uint64(players)
		remaining := uint16(0)
		if spent < uint64(budget) {
			remaining = budget - uint16(spent)
		}

		b := teammsg.Budget{
			Playing:        true,
			FirstHalf:      elapsed < teammsg.SecsPerHalf,
			MessageBudget:  remaining,
			PlayersPerTeam: players,
			SecsRemaining:  int16(teammsg.SecsPerHalf - elapsed%teammsg.SecsPerHalf),
		}
		return b, true
	}
}
