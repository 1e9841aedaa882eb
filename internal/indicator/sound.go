package indicator

import (
	"time"

	"github.com/rbright/voxboard/internal/tone"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueError
)

var (
	startCuePCM = tone.Sequence(
		tone.Spec{FrequencyHz: 880, Duration: 70 * time.Millisecond, Volume: 0.18},
		tone.Spec{FrequencyHz: 1175, Duration: 70 * time.Millisecond, Volume: 0.18},
	)
	stopCuePCM = tone.Sequence(
		tone.Spec{FrequencyHz: 620, Duration: 120 * time.Millisecond, Volume: 0.18},
	)
	errorCuePCM = tone.Sequence(
		tone.Spec{FrequencyHz: 480, Duration: 75 * time.Millisecond, Volume: 0.18},
		tone.Spec{FrequencyHz: 360, Duration: 90 * time.Millisecond, Volume: 0.18},
	)
)

func cueSamples(kind cueKind) []int16 {
	switch kind {
	case cueStart:
		return startCuePCM
	case cueStop:
		return stopCuePCM
	case cueError:
		return errorCuePCM
	default:
		return nil
	}
}
