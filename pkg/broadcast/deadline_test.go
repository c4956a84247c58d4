package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeadline_Resolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		deadline Deadline
		want     time.Time
	}{
		{"zero value is automatic", Deadline{}, at(5)},
		{"automatic", Automatic(), at(5)},
		{"within", Within(2 * time.Second), at(2)},
		{"asap", ASAP, at(0)},
		{"whenever", Whenever, epoch.Add(24 * time.Hour)},
		{"before", Before(at(-3)), at(-3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.deadline.Resolve(at(0), 5*time.Second))
		})
	}
}

func TestDeadline_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "automatic", Automatic().String())
	require.Equal(t, "within 1.5s", Within(1500*time.Millisecond).String())
	require.Equal(t, "before 2024-07-15T12:00:00Z", Before(epoch).String())
	require.True(t, Deadline{}.IsAutomatic())
	require.False(t, ASAP.IsAutomatic())
}

func TestRate_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultRate().Validate())
	require.NoError(t, Rate{}.Validate())
	require.Error(t, Rate{LateThreshold: -1}.Validate())
	require.Error(t, Rate{AutomaticDeadline: -1}.Validate())
	require.Error(t, Rate{EarlyThreshold: -1}.Validate())
}

func TestLimits_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, dummy(0).Limits().Validate())
	require.Error(t, Limits{}.Validate())
	require.Error(t, Limits{MaxPacketSize: 8, ExpectedSize: -1}.Validate())
	require.Error(t, Limits{MaxPacketSize: 8, DeadSpace: 8}.Validate())
	require.Error(t, Limits{MaxPacketSize: 8, DeadSpace: -1}.Validate())
}
