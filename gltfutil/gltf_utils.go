package gltfutil

import (
	"encoding/base64"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// unescapeFS opens buffer URIs, which the decoder passes still percent-encoded.
type unescapeFS struct {
	fsys fs.FS
}

func (u unescapeFS) Open(name string) (fs.File, error) {
	if n, err := url.PathUnescape(name); err == nil {
		name = n
	}
	return u.fsys.Open(name)
}

// Decode reads a .gltf or .glb file from fsys. External buffers are read
// relative to name.
func Decode(fsys fs.FS, name string) (*gltf.Document, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dir, err := fs.Sub(fsys, path.Dir(name))
	if err != nil {
		return nil, errors.Wrapf(err, "gltf: %s", name)
	}
	doc := new(gltf.Document)
	if err := gltf.NewDecoderFS(f, unescapeFS{dir}).Decode(doc); err != nil {
		return nil, errors.Wrapf(err, "gltf: %s", name)
	}
	return doc, nil
}

// EncodeBinary writes doc as a single GLB. All buffers must be in memory.
func EncodeBinary(w io.Writer, doc *gltf.Document) error {
	for _, b := range doc.Buffers {
		b.URI = ""
		b.ByteLength = uint32(len(b.Data))
	}
	e := gltf.NewEncoder(w)
	e.AsBinary = true
	return e.Encode(doc)
}

// ImageData returns the bytes of an image stored in a buffer view or a data URI.
// External images return nil.
func ImageData(doc *gltf.Document, img *gltf.Image) ([]byte, error) {
	if img.BufferView != nil {
		if int(*img.BufferView) >= len(doc.BufferViews) {
			return nil, errors.Errorf("gltf: image buffer view %d out of range", *img.BufferView)
		}
		bv := doc.BufferViews[*img.BufferView]
		if int(bv.Buffer) >= len(doc.Buffers) {
			return nil, errors.Errorf("gltf: buffer %d out of range", bv.Buffer)
		}
		data := doc.Buffers[bv.Buffer].Data
		end := bv.ByteOffset + bv.ByteLength
		if int(end) > len(data) {
			return nil, errors.Errorf("gltf: buffer view %d exceeds buffer", *img.BufferView)
		}
		return data[bv.ByteOffset:end], nil
	}
	if strings.HasPrefix(img.URI, "data:") {
		i := strings.Index(img.URI, ";base64,")
		if i < 0 {
			return nil, errors.New("gltf: unsupported data uri")
		}
		return base64.StdEncoding.DecodeString(img.URI[i+len(";base64,"):])
	}
	return nil, nil
}

// MimeType guesses an image MIME type from its file name.
func MimeType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".bmp":
		return "image/bmp"
	case ".gif":
		return "image/gif"
	case ".tga":
		return "image/x-tga"
	case ".psd":
		return "image/vnd.adobe.photoshop"
	}
	return "application/octet-stream"
}
