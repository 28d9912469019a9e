package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPublishDropsWhenQueueFull(t *testing.T) {
	t.Parallel()

	p := New(Config{Address: "127.0.0.1:0", Table: "runs"}, nil, 1)
	ctx := context.Background()

	p.Publish(ctx, "run-1", "Ok")
	p.Publish(ctx, "run-2", "Ok")

	require.Len(t, p.events, 1)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	p := New(Config{Address: "127.0.0.1:1", Table: "runs"}, nil, 4)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
