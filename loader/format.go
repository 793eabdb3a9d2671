// Package loader turns a model path into a normalized scene graph.
//
// The pipeline is dispatcher, format adapter, material flattening and
// geometry normalization, wrapped in a boundary that substitutes a
// placeholder model when any stage fails.
package loader

import (
	"strings"

	"github.com/pkg/errors"
)

var ErrUnknownFormat = errors.New("loader: unknown format")

// Format is the loader selected for a model path.
type Format int

const (
	FormatGLTF Format = iota
	FormatFBX
	FormatCollada
)

// Formats lists every declared format.
var Formats = []Format{FormatGLTF, FormatFBX, FormatCollada}

func (f Format) String() string {
	switch f {
	case FormatGLTF:
		return "gltf"
	case FormatFBX:
		return "fbx"
	case FormatCollada:
		return "collada"
	}
	return "unknown"
}

func (f Format) Valid() bool {
	return f >= FormatGLTF && f <= FormatCollada
}

// DetectFormat picks a format from the text after the last '.' of path.
// Anything that is not fbx or dae is treated as glTF.
func DetectFormat(path string) Format {
	ext := strings.ToLower(path[strings.LastIndex(path, ".")+1:])
	switch ext {
	case "fbx":
		return FormatFBX
	case "dae":
		return FormatCollada
	}
	return FormatGLTF
}
