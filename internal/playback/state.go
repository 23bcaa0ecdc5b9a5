package playback

import "fmt"

// State is the transport state of a playback session.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// ControlLabel is what the single transport toggle offers in this state.
func (s State) ControlLabel() string {
	if s == StatePlaying {
		return "stop"
	}
	return "start"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = StateIdle
	case "playing":
		*s = StatePlaying
	case "paused":
		*s = StatePaused
	case "finished":
		*s = StateFinished
	default:
		return fmt.Errorf("unknown playback state %q", text)
	}
	return nil
}
