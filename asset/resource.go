// Package asset loads the source files that lighting scenes are compiled from.
package asset

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Client used for fetching remote resources.
var httpClient = &http.Client{Timeout: 30 * time.Second}

// A Resource is a readable scene source stored either on the local
// filesystem or on an http(s) server. Resources whose name ends in ".gz" are
// transparently decompressed.
type Resource struct {
	io.Reader

	closers []io.Closer
	url     *url.URL
}

// Get the path or URL this resource was loaded from.
func (r *Resource) Path() string {
	return r.url.String()
}

// Get the base name of the resource with any ".gz" suffix removed.
func (r *Resource) Name() string {
	return strings.TrimSuffix(path.Base(r.url.Path), ".gz")
}

// Returns true if the resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Release the resource streams.
func (r *Resource) Close() error {
	var firstErr error
	for idx := len(r.closers) - 1; idx >= 0; idx-- {
		if err := r.closers[idx].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.closers = nil
	return firstErr
}

// Open a resource. Paths without a scheme that are not absolute are
// resolved against the directory of relTo when it is not nil; this is how
// material libraries and included files are located.
func NewResource(location string, relTo *Resource) (*Resource, error) {
	loc, err := url.Parse(filepath.ToSlash(location))
	if err != nil {
		return nil, fmt.Errorf("resource: invalid location %q: %w", location, err)
	}

	if loc.Scheme == "" && relTo != nil && !filepath.IsAbs(location) {
		loc = resolveRelative(relTo.url, loc.Path)
	}

	res := &Resource{url: loc}
	switch loc.Scheme {
	case "":
		f, err := os.Open(filepath.Clean(filepath.FromSlash(loc.Path)))
		if err != nil {
			return nil, fmt.Errorf("resource: %w", err)
		}
		res.Reader = f
		res.closers = append(res.closers, f)
	case "http", "https":
		resp, err := httpClient.Get(loc.String())
		if err != nil {
			return nil, fmt.Errorf("resource: could not fetch '%s': %w", loc, err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("resource: could not fetch '%s': status %d", loc, resp.StatusCode)
		}
		res.Reader = resp.Body
		res.closers = append(res.closers, resp.Body)
	default:
		return nil, fmt.Errorf("resource: unsupported scheme '%s'", loc.Scheme)
	}

	if strings.HasSuffix(loc.Path, ".gz") {
		zr, err := gzip.NewReader(res.Reader)
		if err != nil {
			res.Close()
			return nil, fmt.Errorf("resource: could not decompress '%s': %w", loc, err)
		}
		res.Reader = zr
		res.closers = append(res.closers, zr)
	}

	return res, nil
}

// Wrap an in-memory stream as a resource with the given name. Relative
// resources opened against it are resolved against the working directory.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	loc, err := url.Parse(filepath.ToSlash(name))
	if err != nil {
		loc = &url.URL{Path: name}
	}
	return &Resource{Reader: source, url: loc}
}

func resolveRelative(parent *url.URL, rel string) *url.URL {
	resolved := *parent
	dir := path.Dir(parent.Path)
	if parent.Scheme == "" {
		if abs, err := filepath.Abs(filepath.FromSlash(parent.Path)); err == nil {
			dir = path.Dir(filepath.ToSlash(abs))
		}
	}
	resolved.Path = path.Join(dir, rel)
	resolved.RawPath = ""
	return &resolved
}
