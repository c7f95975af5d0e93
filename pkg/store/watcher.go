package store

import "time"

type StoreEventType int

const (
	CreateEvent StoreEventType = 1 << iota
	UpdateEvent
	DeleteEvent
)

func (s StoreEventType) String() string {
	switch s {
	case CreateEvent:
		return "CreateEvent"
	case UpdateEvent:
		return "UpdateEvent"
	case DeleteEvent:
		return "DeleteEvent"
	}
	return "Unknown event"
}

const DefaultWatchChannelSize = 64

// WatchEvent is the message passed through a watcher whenever one of the
// requested events occurs on a record of the requested kind. Object is a
// json encoded copy of the record envelope at the time of the event.
type WatchEvent struct {
	Kind      string
	Name      string
	Event     StoreEventType
	Object    []byte
	Timestamp int64
}

func NewWatchEvent(kind string, name string, event StoreEventType, object []byte) WatchEvent {
	return WatchEvent{
		Kind:      kind,
		Name:      name,
		Event:     event,
		Object:    append([]byte(nil), object...),
		Timestamp: time.Now().Unix(),
	}
}

// Watcher keeps a record of parties interested in events happening in a
// store. A watcher can filter to a single record kind (or all kinds with the
// empty string) and to any combination of create, update and delete events.
type Watcher struct {
	kind        string         // the record kind being watched, "" for all
	events      StoreEventType // a bitmask of events being watched
	channelSize int
	channel     chan WatchEvent
}

func NewWatcher(kind string, events StoreEventType) *Watcher {
	return &Watcher{
		kind:        kind,
		events:      events,
		channelSize: DefaultWatchChannelSize,
		channel:     make(chan WatchEvent, DefaultWatchChannelSize),
	}
}

func (w *Watcher) IsWatchingKind(kind string) bool {
	return w.kind == "" || w.kind == kind
}

func (w *Watcher) IsWatchingEvent(event StoreEventType) bool {
	return w.events&event > 0
}

func (w *Watcher) Channel() chan WatchEvent {
	return w.channel
}

// WriteEvent delivers an event to the watcher. If allowBlock is false and
// the channel is currently full the event is dropped and false is returned.
// Stores deliver without blocking so that a stalled consumer can never
// freeze a writer holding the store lock.
func (w *Watcher) WriteEvent(kind string, name string, event StoreEventType, object []byte, allowBlock bool) bool {
	if len(w.channel) == w.channelSize && !allowBlock {
		return false
	}

	w.channel <- NewWatchEvent(kind, name, event, object)
	return true
}

func (w *Watcher) Close() {
	close(w.channel)
}
