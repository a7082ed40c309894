package broadcast

// EventKind names an outward event. The values match the host-facing handler
// names.
type EventKind string

const (
	EventError                   EventKind = "onError"
	EventIsBroadcastReady        EventKind = "onIsBroadcastReady"
	EventAudioSessionInterrupted EventKind = "onAudioSessionInterrupted"
	EventAudioSessionResumed     EventKind = "onAudioSessionResumed"
	EventMediaServicesLost       EventKind = "onMediaServicesWereLost"
	EventMediaServicesReset      EventKind = "onMediaServicesWereReset"

	// Pass-through kinds forwarded from EngineHandlers.
	EventBroadcastError          EventKind = "onBroadcastError"
	EventBroadcastAudioStats     EventKind = "onBroadcastAudioStats"
	EventBroadcastStateChanged   EventKind = "onBroadcastStateChanged"
	EventBroadcastQualityChanged EventKind = "onBroadcastQualityChanged"
	EventNetworkHealthChanged    EventKind = "onNetworkHealthChanged"
)

// EventKinds lists every kind the controller emits.
var EventKinds = []EventKind{
	EventError,
	EventIsBroadcastReady,
	EventAudioSessionInterrupted,
	EventAudioSessionResumed,
	EventMediaServicesLost,
	EventMediaServicesReset,
	EventBroadcastError,
	EventBroadcastAudioStats,
	EventBroadcastStateChanged,
	EventBroadcastQualityChanged,
	EventNetworkHealthChanged,
}

// Event is a single outward event.
type Event struct {
	Kind    EventKind `json:"kind"`
	Message string    `json:"message,omitempty"`
	IsReady *bool     `json:"isReady,omitempty"`
	Payload any       `json:"payload,omitempty"`

	// Err is the error behind an EventError.
	Err error `json:"-"`
}

// Handler receives events of one kind.
type Handler func(Event)

// EventSink dispatches events to at most one handler per kind. Registering a
// handler replaces the previous one; events without a handler are dropped.
type EventSink struct {
	handlers map[EventKind]Handler
}

// NewEventSink returns a sink with no handlers.
func NewEventSink() *EventSink {
	return &EventSink{handlers: make(map[EventKind]Handler)}
}

// On registers h for kind, replacing any previous handler.
func (s *EventSink) On(kind EventKind, h Handler) {
	if h == nil {
		delete(s.handlers, kind)
		return
	}
	s.handlers[kind] = h
}

// Off removes the handler for kind.
func (s *EventSink) Off(kind EventKind) {
	delete(s.handlers, kind)
}

// Has reports whether a handler is registered for kind.
func (s *EventSink) Has(kind EventKind) bool {
	_, ok := s.handlers[kind]
	return ok
}

// Emit delivers e to the handler registered for e.Kind, if any.
func (s *EventSink) Emit(e Event) {
	if h, ok := s.handlers[e.Kind]; ok {
		h(e)
	}
}
