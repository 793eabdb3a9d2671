package loader

import (
	"context"
	"sync"

	"github.com/binzume/pokeview/scene"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type State int

const (
	StateNormal State = iota
	StateFailed
)

func (s State) String() string {
	if s == StateFailed {
		return "failed"
	}
	return "normal"
}

// Boundary runs a model pipeline and substitutes the fallback model once it
// fails. A failed boundary stays failed.
type Boundary struct {
	mu       sync.Mutex
	state    State
	err      error
	fallback func() *scene.Node
	logger   *zap.Logger
}

// NewBoundary returns a boundary in StateNormal. A nil fallback means
// FallbackModel and a nil logger discards warnings.
func NewBoundary(logger *zap.Logger, fallback func() *scene.Node) *Boundary {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fallback == nil {
		fallback = FallbackModel
	}
	return &Boundary{logger: logger, fallback: fallback}
}

func (b *Boundary) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Err returns the error that moved the boundary to StateFailed.
func (b *Boundary) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Render returns the result of child, or the fallback model if child fails,
// panics, or has failed before.
func (b *Boundary) Render(ctx context.Context, child func(ctx context.Context) (*scene.Node, error)) *scene.Node {
	if b.State() == StateFailed {
		return b.fallback()
	}
	root, err := runChild(ctx, child)
	if err == nil {
		return root
	}

	b.mu.Lock()
	if b.state == StateNormal {
		b.state = StateFailed
		b.err = err
	}
	b.mu.Unlock()
	b.logger.Warn("model load failed, showing fallback", zap.Error(err))
	return b.fallback()
}

func runChild(ctx context.Context, child func(ctx context.Context) (*scene.Node, error)) (root *scene.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			root, err = nil, errors.Errorf("panic: %v", r)
		}
	}()
	root, err = child(ctx)
	if err == nil && root == nil {
		err = errors.New("empty scene")
	}
	return
}
