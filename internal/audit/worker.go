package audit

import "context"

// Worker consumes audit events from a channel and forwards them to a sink.
// It keeps emission off the request path without wiring queue infrastructure
// into every service.
type Worker struct {
	sink  Sink
	inbox <-chan Event
}

func NewWorker(sink Sink, inbox <-chan Event) *Worker {
	return &Worker{sink: sink, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}

// ChannelSink bridges Publisher to a Worker inbox. Appends drop events when
// the inbox is full rather than blocking a user action.
type ChannelSink struct {
	inbox chan<- Event
}

func NewChannelSink(inbox chan<- Event) *ChannelSink {
	return &ChannelSink{inbox: inbox}
}

func (s *ChannelSink) Append(_ context.Context, event Event) error {
	select {
	case s.inbox <- event:
	default:
	}
	return nil
}
