// Package fbx reads Autodesk FBX files, both binary and ASCII.
package fbx

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
)

var ErrUnknownFormat = errors.New("unknown fbx format")

const binaryMagic = "Kaydara FBX Binary  "

func Load(path string) (*Document, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Parse(r)
}

// Parse reads a binary or ASCII FBX stream and builds its object document.
func Parse(r io.Reader) (*Document, error) {
	root, err := ParseNodes(r)
	if err != nil {
		return nil, err
	}
	return BuildDocument(root)
}

// ParseNodes reads the raw node tree without interpreting it.
func ParseNodes(r io.Reader) (*Node, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(binaryMagic))
	if err != nil && err != io.EOF {
		return nil, err
	}
	if bytes.Equal(head, []byte(binaryMagic)) {
		p := binaryParser{r: &positionReader{r: br}}
		return p.Parse()
	}
	if !looksLikeText(head) {
		return nil, ErrUnknownFormat
	}
	p := textParser{r: br}
	return p.Parse()
}

func looksLikeText(head []byte) bool {
	if len(head) == 0 {
		return false
	}
	for _, c := range head {
		if c < 0x09 || (c > 0x0d && c < 0x20) {
			return false
		}
	}
	return true
}
