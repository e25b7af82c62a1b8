package notify

import "github.com/bthost-project/bthost-go/pkg/engine"

// Func adapts a plain function to the engine.Notifier interface.
type Func func(t engine.Transition)

var _ engine.Notifier = (Func)(nil)

// OnTransition implements engine.Notifier.
func (f Func) OnTransition(t engine.Transition) {
	f(t)
}

// Multi fans a transition out to several notifiers in order.
type Multi struct {
	notifiers []engine.Notifier
}

var _ engine.Notifier = (*Multi)(nil)

// NewMulti creates a notifier broadcasting to all given notifiers.
// Nil entries are skipped.
func NewMulti(notifiers ...engine.Notifier) *Multi {
	m := &Multi{}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// OnTransition implements engine.Notifier.
func (m *Multi) OnTransition(t engine.Transition) {
	for _, n := range m.notifiers {
		n.OnTransition(t)
	}
}
