package subscriber

import (
	"context"

	"supmap-playback/internal/playback"
)

// CommandMessage is a transport command received on the pub/sub channel.
type CommandMessage struct {
	Command Command `json:"command"`
}

type Command string

const (
	Toggle Command = "toggle"
	Play   Command = "play"
	Pause  Command = "pause"
)

func (c Command) IsValid() bool {
	switch c {
	case Toggle, Play, Pause:
		return true
	}
	return false
}

// Controller is the part of the playback player commands are applied to.
type Controller interface {
	Play(ctx context.Context) (playback.Snapshot, error)
	Pause(ctx context.Context) (playback.Snapshot, error)
	Toggle(ctx context.Context) (playback.Snapshot, error)
}
