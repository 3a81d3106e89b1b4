package pipeline

import "context"

// Gate runs a one-time initialization in the background and lets callers block on it
type Gate struct {
	done chan struct{}
	err  error
}

// StartGate launches init and returns immediately
func StartGate(ctx context.Context, init func(ctx context.Context) error) *Gate {
	g := &Gate{done: make(chan struct{})}
	go g.run(ctx, init)
	return g
}

func (g *Gate) run(ctx context.Context, init func(ctx context.Context) error) {
	defer close(g.done)
	g.err = init(ctx)
}

// Wait blocks until initialization finished and returns its error.
// It returns ctx.Err() if ctx is done first.
func (g *Gate) Wait(ctx context.Context) error {
	if g.Ready() {
		return g.err
	}
	select {
	case <-g.done:
		return g.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether initialization has finished, successfully or not
func (g *Gate) Ready() bool {
	select {
	case <-g.done:
		return true
	default:
		return false
	}
}
