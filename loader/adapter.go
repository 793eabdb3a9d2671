package loader

import (
	"context"
	"io/fs"
	"path"
	"strings"

	"github.com/binzume/pokeview/collada"
	"github.com/binzume/pokeview/converter"
	"github.com/binzume/pokeview/fbx"
	"github.com/binzume/pokeview/gltfutil"
	"github.com/binzume/pokeview/scene"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Adapter loads one model format. Every call returns a fresh clone that the
// caller may mutate.
type Adapter interface {
	Format() Format
	Load(ctx context.Context, modelPath string) (*scene.Node, error)
}

// Asset is a parsed model as held by an adapter cache.
type Asset struct {
	Path   string
	Format Format
	Root   *scene.Node
}

// fsPath converts a model path such as "/pokemon/5/a.dae" to an fs.FS name.
func fsPath(p string) string {
	p = strings.TrimLeft(path.Clean("/"+strings.ReplaceAll(p, "\\", "/")), "/")
	if p == "" {
		return "."
	}
	return p
}

// ModelDir is the directory of modelPath inside the asset root, where
// relative texture sources are resolved.
func ModelDir(modelPath string) string {
	return path.Dir(fsPath(modelPath))
}

type baseAdapter struct {
	format Format
	cache  *parseCache
}

func (a *baseAdapter) Format() Format {
	return a.format
}

func (a *baseAdapter) asset(ctx context.Context, modelPath string) (*Asset, error) {
	root, err := a.cache.get(ctx, modelPath)
	if err != nil {
		return nil, err
	}
	return &Asset{Path: modelPath, Format: a.format, Root: root}, nil
}

func (a *baseAdapter) Load(ctx context.Context, modelPath string) (*scene.Node, error) {
	asset, err := a.asset(ctx, modelPath)
	if err != nil {
		return nil, err
	}
	return scene.Clone(asset.Root), nil
}

type colladaAdapter struct {
	baseAdapter
}

func newColladaAdapter(fsys fs.FS, logger *zap.Logger) *colladaAdapter {
	return &colladaAdapter{baseAdapter{format: FormatCollada, cache: newParseCache(func(p string) (*scene.Node, error) {
		f, err := fsys.Open(fsPath(p))
		if err != nil {
			return nil, errors.Wrapf(err, "collada: %s", p)
		}
		defer f.Close()
		doc, err := collada.Parse(f)
		if err != nil {
			return nil, errors.Wrapf(err, "collada: %s", p)
		}
		return converter.NewDAEToSceneConverter(&converter.DAEToSceneOption{Logger: logger}).Convert(doc)
	})}}
}

// Load also rewrites relative texture sources to sit next to the model.
func (a *colladaAdapter) Load(ctx context.Context, modelPath string) (*scene.Node, error) {
	root, err := a.baseAdapter.Load(ctx, modelPath)
	if err != nil {
		return nil, err
	}
	RewriteTexturePaths(root, modelPath)
	return root, nil
}

type fbxAdapter struct {
	baseAdapter
}

func newFBXAdapter(fsys fs.FS, logger *zap.Logger) *fbxAdapter {
	return &fbxAdapter{baseAdapter{format: FormatFBX, cache: newParseCache(func(p string) (*scene.Node, error) {
		f, err := fsys.Open(fsPath(p))
		if err != nil {
			return nil, errors.Wrapf(err, "fbx: %s", p)
		}
		defer f.Close()
		doc, err := fbx.Parse(f)
		if err != nil {
			return nil, errors.Wrapf(err, "fbx: %s", p)
		}
		return converter.NewFBXToSceneConverter(&converter.FBXToSceneOption{Logger: logger}).Convert(doc)
	})}}
}

type gltfAdapter struct {
	baseAdapter
}

func newGLTFAdapter(fsys fs.FS, logger *zap.Logger) *gltfAdapter {
	return &gltfAdapter{baseAdapter{format: FormatGLTF, cache: newParseCache(func(p string) (*scene.Node, error) {
		doc, err := gltfutil.Decode(fsys, fsPath(p))
		if err != nil {
			return nil, errors.Wrapf(err, "gltf: %s", p)
		}
		return converter.NewGLTFToSceneConverter(&converter.GLTFToSceneOption{Logger: logger}).Convert(doc)
	})}}
}

// NewAdapter returns the adapter for format f reading from fsys.
// Converter diagnostics go to logger, which may be nil.
func NewAdapter(f Format, fsys fs.FS, logger *zap.Logger) (Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch f {
	case FormatGLTF:
		return newGLTFAdapter(fsys, logger), nil
	case FormatFBX:
		return newFBXAdapter(fsys, logger), nil
	case FormatCollada:
		return newColladaAdapter(fsys, logger), nil
	}
	return nil, errors.Wrapf(ErrUnknownFormat, "format %d", int(f))
}
