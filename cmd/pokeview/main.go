package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/binzume/pokeview/assets"
	"github.com/binzume/pokeview/catalog"
	"github.com/binzume/pokeview/config"
	"github.com/binzume/pokeview/loader"
	"github.com/binzume/pokeview/logger"
	"go.uber.org/zap"
)

type app struct {
	cfg     *config.Config
	log     *zap.Logger
	catalog *catalog.Catalog
	loader  *loader.ModelLoader
}

func newApp(cfg *config.Config) (*app, error) {
	log := logger.New(cfg.Logging.Level, cfg.Logging.File)

	cat := catalog.New()
	if cfg.Catalog.File != "" {
		var err error
		if cat, err = catalog.LoadFile(cfg.Catalog.File); err != nil {
			return nil, err
		}
	}

	l, err := loader.NewModelLoader(assets.Open(cfg.Assets.Root, cfg.Assets.Timeout),
		loader.WithTargetSize(cfg.Pipeline.TargetSize),
		loader.WithYOffset(cfg.Pipeline.YOffset),
		loader.WithBatchSize(cfg.Pipeline.BatchSize),
		loader.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, catalog: cat, loader: l}, nil
}

// modelPath accepts a pokédex id or a path below the asset root.
func (a *app) modelPath(arg string) string {
	if id, ok := catalog.ParseID(arg); ok && arg != "" {
		return a.catalog.ModelPath(id)
	}
	return arg
}

var commands = map[string]func(ctx context.Context, a *app, args []string) error{
	"convert": convertCommand,
	"inspect": inspectCommand,
	"serve":   serveCommand,
	"preload": preloadCommand,
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] convert <model> [output.glb]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s [options] inspect [-raw] <model>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s [options] serve\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s [options] preload [ids...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flags := config.RegisterFlags(flag.CommandLine)
	flag.Parse()

	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(flags.Config, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	a, err := newApp(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer a.log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cmd(ctx, a, flag.Args()[1:]); err != nil {
		a.log.Fatal(flag.Arg(0)+" failed", zap.Error(err))
	}
}
