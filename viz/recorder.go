package viz

import (
	"encoding/json"
	"os"
)

// Observer is implemented by anything that wants to receive trace events as
// the simulation runs: the network, transports, and the collective
// scheduler all hold one and call Emit at every state transition that
// matters for debugging or statistics (spec §3 "every state transition...
// is emitted as a structured event").
type Observer interface {
	Emit(e Event)
}

// NopObserver discards every event. Useful for unit tests of lower layers
// that don't care about tracing.
type NopObserver struct{}

func (NopObserver) Emit(Event) {}

// Recorder accumulates events in memory and optionally fans them out to a
// live subscriber (see Socket) as they arrive. It implements Observer.
type Recorder struct {
	events []Event
	live   *Socket // optional, nil if no --viz-socket was requested
}

// NewRecorder creates an empty Recorder. Attach(live) turns on live
// streaming to socket subscribers.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Attach wires a live Socket broadcaster; every subsequent Emit is also
// published to it.
func (r *Recorder) Attach(live *Socket) {
	r.live = live
}

// Emit implements Observer.
func (r *Recorder) Emit(e Event) {
	r.events = append(r.events, e)
	if r.live != nil {
		r.live.Publish(e)
	}
}

// Events returns the events recorded so far, in emission order.
func (r *Recorder) Events() []Event { return r.events }

// WriteJSON writes the Meta record followed by every recorded Event as a
// single JSON array to path, matching spec §6's visualization event
// stream format.
func (r *Recorder) WriteJSON(path string, meta Meta) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	// Build the array manually via json.RawMessage-free streaming: a trace
	// can be tens of millions of events, so we avoid holding two copies of
	// it in memory by writing the brackets ourselves.
	if _, err := f.WriteString("[\n"); err != nil {
		return err
	}
	if err := enc.Encode(meta); err != nil {
		return err
	}
	for _, e := range r.events {
		if _, err := f.WriteString(","); err != nil {
			return err
		}
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	if _, err := f.WriteString("]\n"); err != nil {
		return err
	}
	return nil
}
