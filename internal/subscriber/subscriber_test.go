package subscriber

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"supmap-playback/internal/playback"
)

type recordingController struct {
	mu       sync.Mutex
	commands []Command
}

func (r *recordingController) record(c Command) (playback.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, c)
	return playback.Snapshot{}, nil
}

func (r *recordingController) Play(context.Context) (playback.Snapshot, error)   { return r.record(Play) }
func (r *recordingController) Pause(context.Context) (playback.Snapshot, error)  { return r.record(Pause) }
func (r *recordingController) Toggle(context.Context) (playback.Snapshot, error) { return r.record(Toggle) }

func (r *recordingController) received() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...)
}

func TestHandleMessage(t *testing.T) {
	controller := &recordingController{}
	s := NewSubscriber(slog.New(slog.DiscardHandler), nil, "playback:commands", controller)

	tests := []struct {
		payload string
		wantErr bool
	}{
		{payload: `{"command":"toggle"}`},
		{payload: `{"command":"play"}`},
		{payload: `{"command":"pause"}`},
		{payload: `{"command":"rewind"}`, wantErr: true},
		{payload: `not json`, wantErr: true},
	}

	for _, tt := range tests {
		err := s.handleMessage(context.Background(), tt.payload)
		if (err != nil) != tt.wantErr {
			t.Errorf("handleMessage(%s) err = %v, wantErr %v", tt.payload, err, tt.wantErr)
		}
	}

	got := controller.received()
	want := []Command{Toggle, Play, Pause}
	if len(got) != len(want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("commands = %v, want %v", got, want)
		}
	}
}

func TestStartConsumesPublishedCommands(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	controller := &recordingController{}
	s := NewSubscriber(slog.New(slog.DiscardHandler), client, "playback:commands", controller)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for len(controller.received()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("command was not consumed")
		}
		if err := client.Publish(context.Background(), "playback:commands", `{"command":"toggle"}`).Err(); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}

	if got := controller.received(); got[0] != Toggle {
		t.Fatalf("first command = %v, want toggle", got[0])
	}
}
