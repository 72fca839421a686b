// Package asset opens scene resources from the local filesystem or over
// http(s).
package asset

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedScheme = errors.New("asset: unsupported scheme")
	ErrFetchFailed       = errors.New("asset: could not fetch resource")
)

// A Resource wraps a streamable local file or remote document.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Returns the path or URL of this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Returns true if the resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Open a resource. If relTo is not nil and location is a relative path, the
// location is resolved against the directory containing relTo. The caller
// must close the returned resource.
func Open(location string, relTo *Resource) (*Resource, error) {
	loc, err := url.Parse(strings.ReplaceAll(location, `\`, `/`))
	if err != nil {
		return nil, err
	}
	if loc.Scheme == "" && relTo != nil && !filepath.IsAbs(loc.Path) {
		loc = relTo.resolve(loc.Path)
	}

	var reader io.ReadCloser
	switch loc.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(loc.Path))
		if err != nil {
			return nil, err
		}
	case "http", "https":
		resp, err := http.Get(loc.String())
		if err != nil {
			return nil, fmt.Errorf("%w %q: %s", ErrFetchFailed, loc.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w %q: status %d", ErrFetchFailed, loc.String(), resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedScheme, loc.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        loc,
	}, nil
}

// Wrap a reader into a resource. Relative resources opened against it are
// resolved using name.
func FromStream(name string, source io.Reader) *Resource {
	loc, err := url.Parse(strings.ReplaceAll(name, `\`, `/`))
	if err != nil {
		loc = &url.URL{Path: name}
	}
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        loc,
	}
}

// Resolve a relative path against the directory containing this resource.
func (r *Resource) resolve(rel string) *url.URL {
	resolved := *r.url
	if r.IsRemote() {
		resolved.Path = path.Join(path.Dir(r.url.Path), rel)
	} else {
		resolved.Path = filepath.Join(filepath.Dir(r.url.Path), rel)
	}
	resolved.RawQuery = ""
	resolved.Fragment = ""
	return &resolved
}
