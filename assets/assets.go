// Package assets provides the static roots models and textures are read from.
package assets

import (
	"bytes"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Dir serves files below a local directory.
func Dir(root string) fs.FS {
	return os.DirFS(root)
}

// Open returns an HTTP root for http(s) URLs and a directory root otherwise.
func Open(root string, timeout time.Duration) fs.FS {
	if strings.HasPrefix(root, "http://") || strings.HasPrefix(root, "https://") {
		return HTTP(root, &http.Client{Timeout: timeout})
	}
	return Dir(root)
}

type httpFS struct {
	base   string
	client *http.Client
}

// HTTP serves files from baseURL. Each Open performs a GET and buffers the
// body. Non-2xx responses fail with an error wrapping fs.ErrNotExist.
func HTTP(baseURL string, client *http.Client) fs.FS {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpFS{base: strings.TrimRight(baseURL, "/"), client: client}
}

func (h *httpFS) url(name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return h.base + "/" + strings.Join(segments, "/")
}

func (h *httpFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	res, err := h.client.Get(h.url(name))
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &fs.PathError{Op: "open", Path: name, Err: errors.Wrapf(fs.ErrNotExist, "http status %d", res.StatusCode)}
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	modTime, _ := http.ParseTime(res.Header.Get("Last-Modified"))
	return &httpFile{Reader: bytes.NewReader(data), info: fileInfo{name: path.Base(name), size: int64(len(data)), modTime: modTime}}, nil
}

type httpFile struct {
	*bytes.Reader
	info fileInfo
}

func (f *httpFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *httpFile) Close() error               { return nil }

type fileInfo struct {
	name    string
	size    int64
	modTime time.Time
}

func (i fileInfo) Name() string       { return i.name }
func (i fileInfo) Size() int64        { return i.size }
func (i fileInfo) Mode() fs.FileMode  { return 0444 }
func (i fileInfo) ModTime() time.Time { return i.modTime }
func (i fileInfo) IsDir() bool        { return false }
func (i fileInfo) Sys() interface{}   { return nil }
