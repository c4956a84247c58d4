package teammsg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/bifrost/pkg/broadcast"
)

func TestBudget_Interval(t *testing.T) {
	tests := []struct {
		name   string
		budget Budget
		want   time.Duration
		ok     bool
	}{
		{
			name:   "first half counts the second",
			budget: Budget{Playing: true, FirstHalf: true, MessageBudget: 1205, PlayersPerTeam: 5, SecsRemaining: 300},
			want:   3750 * time.Millisecond,
			ok:     true,
		},
		{
			name:   "second half",
			budget: Budget{Playing: true, MessageBudget: 1205, PlayersPerTeam: 5, SecsRemaining: 300},
			want:   1250 * time.Millisecond,
			ok:     true,
		},
		{
			name:   "overtime clamps to zero",
			budget: Budget{Playing: true, MessageBudget: 105, PlayersPerTeam: 5, SecsRemaining: -20},
			want:   0,
			ok:     true,
		},
		{name: "not playing", budget: Budget{MessageBudget: 1205, PlayersPerTeam: 5, SecsRemaining: 300}},
		{name: "budget spent", budget: Budget{Playing: true, MessageBudget: 5, PlayersPerTeam: 5, SecsRemaining: 300}},
		{name: "no players", budget: Budget{Playing: true, MessageBudget: 1205, SecsRemaining: 300}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.budget.Interval()
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCalibrate(t *testing.T) {
	r := broadcast.DefaultRate()

	got, ok := Calibrate(r, Budget{Playing: true, MessageBudget: 1205, PlayersPerTeam: 5, SecsRemaining: 300})
	require.True(t, ok)
	require.Equal(t, 1250*time.Millisecond, got.LateThreshold)
	require.Equal(t, 1250*time.Millisecond, got.AutomaticDeadline)
	require.Equal(t, r.EarlyThreshold, got.EarlyThreshold)

	got, ok = Calibrate(r, Budget{})
	require.False(t, ok)
	require.Equal(t, r, got)
}
