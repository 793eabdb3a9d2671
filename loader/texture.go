package loader

import (
	"strings"

	"github.com/binzume/pokeview/scene"
)

// TexturePath resolves a texture source found in a model file. Absolute
// paths and http(s) URLs are kept. Anything else is replaced by its base
// name in the directory of modelPath.
func TexturePath(modelPath, src string) string {
	if strings.HasPrefix(src, "http") || strings.HasPrefix(src, "/") {
		return src
	}
	dir := "/"
	if i := strings.LastIndex(modelPath, "/"); i >= 0 {
		dir = modelPath[:i+1]
	}
	return dir + baseName(src)
}

// baseName takes the last '/' segment, or the last backslash segment when the
// former is empty.
func baseName(src string) string {
	if name := src[strings.LastIndex(src, "/")+1:]; name != "" {
		return name
	}
	return src[strings.LastIndex(src, "\\")+1:]
}

// RewriteTexturePaths applies TexturePath to every texture image in the subtree.
func RewriteTexturePaths(root *scene.Node, modelPath string) {
	scene.EachTexture(root, func(t *scene.Texture) {
		if t.Image != nil && t.Image.Src != "" {
			t.Image.Src = TexturePath(modelPath, t.Image.Src)
		}
	})
}
