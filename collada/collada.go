// Package collada reads COLLADA 1.4/1.5 (.dae) documents.
package collada

import (
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

var ErrNoScene = errors.New("collada: no visual scene")

func Load(path string) (*Document, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Parse(r)
}

func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "collada")
	}
	doc.index()
	return &doc, nil
}

// charsetReader accepts any encoding label known to browsers, e.g. Shift_JIS.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, errors.Wrapf(err, "collada: charset %q", label)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

// ParseFloats parses whitespace separated numbers.
func ParseFloats(s string) []float32 {
	fields := strings.Fields(s)
	v := make([]float32, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseFloat(f, 32)
		if err != nil {
			n = 0
		}
		v = append(v, float32(n))
	}
	return v
}

func ParseInts(s string) []int {
	fields := strings.Fields(s)
	v := make([]int, 0, len(fields))
	for _, f := range fields {
		n, _ := strconv.Atoi(f)
		v = append(v, n)
	}
	return v
}

// fragment strips the leading '#' of a local URL.
func fragment(url string) string {
	return strings.TrimPrefix(url, "#")
}
