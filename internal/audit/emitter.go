package audit

import "context"

// Emitter is what domain services depend on; Publisher is the production
// implementation.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// NopEmitter discards events. Useful in tests that do not assert on audit.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, Event) {}
