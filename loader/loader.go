package loader

import (
	"context"
	"io/fs"

	"github.com/binzume/pokeview/scene"
	"go.uber.org/zap"
)

type options struct {
	normalize NormalizeOptions
	fallback  func() *scene.Node
	logger    *zap.Logger
	batchSize int
}

type Option func(*options)

func WithTargetSize(size float32) Option {
	return func(o *options) { o.normalize.TargetSize = size }
}

func WithYOffset(offset float32) Option {
	return func(o *options) { o.normalize.YOffset = offset }
}

// WithFallback replaces the placeholder model rendered on failure.
func WithFallback(fallback func() *scene.Node) Option {
	return func(o *options) { o.fallback = fallback }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithBatchSize sets how many paths Preload fetches at once.
func WithBatchSize(n int) Option {
	return func(o *options) { o.batchSize = n }
}

// ModelLoader is the full model pipeline over one asset root. Parsed models
// are cached per adapter and cloned for every load.
type ModelLoader struct {
	opts     options
	adapters map[Format]Adapter
}

func NewModelLoader(source fs.FS, opts ...Option) (*ModelLoader, error) {
	o := options{fallback: FallbackModel, logger: zap.NewNop(), batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(&o)
	}
	l := &ModelLoader{opts: o, adapters: map[Format]Adapter{}}
	for _, f := range Formats {
		a, err := NewAdapter(f, source, o.logger)
		if err != nil {
			return nil, err
		}
		l.adapters[f] = a
	}
	return l, nil
}

// Adapter returns the adapter used for format f.
func (l *ModelLoader) Adapter(f Format) (Adapter, error) {
	a, ok := l.adapters[f]
	if !ok {
		return nil, ErrUnknownFormat
	}
	return a, nil
}

// LoadResult runs the pipeline without the fallback boundary.
func (l *ModelLoader) LoadResult(ctx context.Context, modelPath string) (*scene.Node, error) {
	a, err := l.Adapter(DetectFormat(modelPath))
	if err != nil {
		return nil, err
	}
	root, err := a.Load(ctx, modelPath)
	if err != nil {
		return nil, err
	}
	FlattenMaterials(root)
	Normalize(root, l.opts.normalize)
	return root, nil
}

// Load runs the pipeline inside a fresh Boundary and never fails.
func (l *ModelLoader) Load(ctx context.Context, modelPath string) *scene.Node {
	root, _ := l.LoadState(ctx, modelPath)
	return root
}

// LoadState is Load that also reports whether the fallback was rendered.
func (l *ModelLoader) LoadState(ctx context.Context, modelPath string) (*scene.Node, State) {
	b := NewBoundary(l.opts.logger.With(zap.String("path", modelPath)), l.opts.fallback)
	root := b.Render(ctx, func(ctx context.Context) (*scene.Node, error) {
		return l.LoadResult(ctx, modelPath)
	})
	return root, b.State()
}
