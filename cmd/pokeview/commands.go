package main

import (
	"context"
	"flag"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/binzume/pokeview/assets"
	"github.com/binzume/pokeview/converter"
	"github.com/binzume/pokeview/loader"
	"github.com/binzume/pokeview/scene"
	"github.com/binzume/pokeview/web"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func defaultOutputFile(modelPath string) string {
	base := path.Base(modelPath)
	return strings.TrimSuffix(base, path.Ext(base)) + ".glb"
}

func convertCommand(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errors.New("model is required")
	}
	modelPath := a.modelPath(args[0])
	output := defaultOutputFile(modelPath)
	if len(args) > 1 {
		output = args[1]
	}

	root, err := a.loader.LoadResult(ctx, modelPath)
	if err != nil {
		return err
	}
	w, err := os.Create(output)
	if err != nil {
		return err
	}
	defer w.Close()

	err = converter.WriteGLB(w, root, &converter.SceneToGLTFOption{
		TextureSource:          assets.Open(a.cfg.Assets.Root, a.cfg.Assets.Timeout),
		TextureDir:             loader.ModelDir(modelPath),
		TextureResolutionLimit: a.cfg.Pipeline.TextureLimit,
		Logger:                 a.log,
	})
	if err != nil {
		return errors.Wrapf(err, "writing %s", output)
	}
	a.log.Info("converted", zap.String("model", modelPath), zap.String("out", filepath.Clean(output)))
	return nil
}

func inspectCommand(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	raw := fs.Bool("raw", false, "dump the scene graph structs")
	fs.Parse(args)
	if fs.NArg() == 0 {
		return errors.New("model is required")
	}

	root, err := a.loader.LoadResult(ctx, a.modelPath(fs.Arg(0)))
	if err != nil {
		return err
	}
	if *raw {
		cfg := spew.ConfigState{Indent: "  ", MaxDepth: 8, DisablePointerAddresses: true, SortKeys: true}
		cfg.Fdump(os.Stdout, root)
		return nil
	}
	scene.Dump(os.Stdout, root)
	return nil
}

func serveCommand(ctx context.Context, a *app, args []string) error {
	s := &web.Server{
		Loader:       a.loader,
		Catalog:      a.catalog,
		Assets:       assets.Open(a.cfg.Assets.Root, a.cfg.Assets.Timeout),
		TextureLimit: a.cfg.Pipeline.TextureLimit,
		Logger:       a.log,
	}
	return s.ListenAndServe(a.cfg.Server.Addr)
}

func preloadCommand(ctx context.Context, a *app, args []string) error {
	ids := a.catalog.IDs()
	if len(args) > 0 {
		ids = ids[:0]
		for _, s := range args {
			id, err := strconv.Atoi(s)
			if err != nil {
				return errors.Wrapf(err, "invalid id %q", s)
			}
			ids = append(ids, id)
		}
	}
	paths := make([]string, len(ids))
	for i, id := range ids {
		paths[i] = a.catalog.ModelPath(id)
	}

	results, err := a.loader.Preload(ctx, paths)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			a.log.Warn("preload failed", zap.String("path", r.Path), zap.Error(r.Err))
			continue
		}
		a.log.Info("preloaded", zap.String("path", r.Path), zap.Int("vertices", vertexCount(r.Root)))
	}
	if err != nil {
		return errors.Wrapf(err, "%d of %d models failed", failed, len(paths))
	}
	return nil
}

func vertexCount(root *scene.Node) int {
	n := 0
	root.Traverse(func(node *scene.Node) {
		if node.Mesh != nil && node.Mesh.Geometry != nil {
			n += node.Mesh.Geometry.VertexCount()
		}
	})
	return n
}
