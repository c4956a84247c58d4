package teammsg

import "fmt"

// RefereePose is a gesture of the human referee recognized by vision.
type RefereePose uint8

const (
	PoseIdle RefereePose = iota
	PosePlayerExchangeBlue
	PoseGoalKickRed
	PoseGoalBlue
	PoseGoalKickBlue
	PosePushingFreeKickBlue
	PoseCornerKickBlue
	PosePushingFreeKickRed
	PoseKickInBlue
	PosePlayerExchangeRed
	PoseGoalRed
	PoseKickInRed
	PoseCornerKickRed
	PoseFullTime

	numPoses
)

var poseNames = [numPoses]string{
	"Idle",
	"PlayerExchangeBlue",
	"GoalKickRed",
	"GoalBlue",
	"GoalKickBlue",
	"PushingFreeKickBlue",
	"CornerKickBlue",
	"PushingFreeKickRed",
	"KickInBlue",
	"PlayerExchangeRed",
	"GoalRed",
	"KickInRed",
	"CornerKickRed",
	"FullTime",
}

func (p RefereePose) Valid() bool {
	return p < numPoses
}

func (p RefereePose) String() string {
	if !p.Valid() {
		return fmt.Sprintf("RefereePose(%d)", uint8(p))
	}
	return poseNames[p]
}

// ParsePose looks a pose up by name.
func ParsePose(s string) (RefereePose, error) {
	for i, name := range poseNames {
		if name == s {
			return RefereePose(i), nil
		}
	}
	return 0, fmt.Errorf("teammsg: unknown referee pose %q", s)
}
