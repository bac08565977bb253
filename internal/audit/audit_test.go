package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPublisherStampsTimestamp(t *testing.T) {
	sink := NewMemorySink()
	pub := NewPublisher(sink)

	require.NoError(t, pub.Emit(context.Background(), Event{
		Actor:  "วิชัย",
		Role:   "ADMIN",
		Action: ActionSubmissionApproved,
	}))

	events := sink.Events()
	require.Len(t, events, 1)
	require.False(t, events[0].Timestamp.IsZero())
	require.Equal(t, ActionSubmissionApproved, events[0].Action)
}

func TestWorkerForwardsToSink(t *testing.T) {
	inbox := make(chan Event, 8)
	sink := NewMemorySink()
	worker := NewWorker(sink, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	channelSink := NewChannelSink(inbox)
	require.NoError(t, channelSink.Append(ctx, Event{Action: ActionCitizenLogin}))
	require.NoError(t, channelSink.Append(ctx, Event{Action: ActionSubmissionCreated}))

	require.Eventually(t, func() bool {
		return len(sink.Events()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestChannelSinkDropsWhenFull(t *testing.T) {
	inbox := make(chan Event, 1)
	sink := NewChannelSink(inbox)

	require.NoError(t, sink.Append(context.Background(), Event{Action: ActionCitizenLogin}))
	// No consumer: the second append drops instead of blocking.
	require.NoError(t, sink.Append(context.Background(), Event{Action: ActionCitizenLogin}))
	require.Len(t, inbox, 1)
}
