package transfer

// Progress describes one completed chunk.
type Progress struct {
	ChunkIndex int // 1-based
	ChunkCount int
	BytesSent  int
}

// Observer receives session lifecycle callbacks from the session
// goroutine. Implementations must not block: a slow observer stalls
// chunk pacing.
type Observer interface {
	OnProgress(p Progress)
	OnComplete()
	OnFailed(err error)
}

// NopObserver discards all callbacks.
type NopObserver struct{}

func (NopObserver) OnProgress(Progress) {}
func (NopObserver) OnComplete()         {}
func (NopObserver) OnFailed(error)      {}

// EventKind tags entries on a ChannelObserver stream.
type EventKind int

const (
	EventProgress EventKind = iota
	EventComplete
	EventFailed
)

// Event is one observer callback reified for channel consumption.
type Event struct {
	Kind     EventKind
	Progress Progress
	Err      error
}

// ChannelObserver adapts the callback interface to a buffered event
// channel for control surfaces that poll. Progress events are dropped
// rather than blocking the session when the consumer falls behind;
// terminal events are always retained.
type ChannelObserver struct {
	events chan Event
}

func NewChannelObserver(buffer int) *ChannelObserver {
	if buffer < 2 {
		buffer = 2
	}
	return &ChannelObserver{events: make(chan Event, buffer)}
}

// Events yields the observed stream. The channel closes after a
// terminal event.
func (c *ChannelObserver) Events() <-chan Event { return c.events }

func (c *ChannelObserver) OnProgress(p Progress) {
	select {
	case c.events <- Event{Kind: EventProgress, Progress: p}:
	default:
	}
}

func (c *ChannelObserver) OnComplete() {
	c.terminal(Event{Kind: EventComplete})
}

func (c *ChannelObserver) OnFailed(err error) {
	c.terminal(Event{Kind: EventFailed, Err: err})
}

// terminal drops stale progress entries until the terminal event fits,
// then closes the stream.
func (c *ChannelObserver) terminal(ev Event) {
	for {
		select {
		case c.events <- ev:
			close(c.events)
			return
		default:
			select {
			case <-c.events:
			default:
			}
		}
	}
}
