package session

import "context"

// Events emitted to the host.
const (
	// EventChanged carries the persisted form of the new document as
	// json.RawMessage.
	EventChanged = "document:changed"
	// EventLoadFailed carries the load error message.
	EventLoadFailed = "document:load-failed"
)

// EventEmitter delivers session events to the host. Emit is called
// with the session locked and must not call back into the session.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, string, any) {}

// MockEmitter is an EventEmitter that records all calls.
type MockEmitter struct {
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Named returns the recorded events with the given name.
func (m *MockEmitter) Named(event string) []EmittedEvent {
	var result []EmittedEvent
	for _, e := range m.Events {
		if e.Event == event {
			result = append(result, e)
		}
	}
	return result
}
