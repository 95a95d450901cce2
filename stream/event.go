package stream

// Event is one item delivered by a Source: either a data tuple or an
// end-of-window marker carrying a reset context.
type Event struct {
	Tuple Tuple
	Reset bool
}

// Data wraps tup in a data event.
func Data(tup Tuple) Event {
	return Event{Tuple: tup}
}

// ResetEvent wraps ctx in an end-of-window event.
func ResetEvent(ctx Tuple) Event {
	return Event{Tuple: ctx, Reset: true}
}

// Deliver hands ev to op.
func (ev Event) Deliver(op Operator) error {
	if ev.Reset {
		return op.Reset(ev.Tuple)
	}
	return op.Next(ev.Tuple)
}
