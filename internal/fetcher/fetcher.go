// Package fetcher opens firm data from local files, HTTP(S) and FTP, and
// parses CSV, JSON, XLSX and XML payloads.
package fetcher

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Downloader retrieves a remote resource.
type Downloader interface {
	// Download fetches the URL and returns the body. The caller closes it.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// Options configures an Opener.
type Options struct {
	UserAgent         string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
}

// Opener resolves a location to a reader. Locations are local paths,
// file:// URLs, http(s):// URLs or ftp:// URLs.
type Opener struct {
	downloaders map[string]Downloader
}

// NewOpener creates an Opener with HTTP and FTP downloaders built from opts.
func NewOpener(opts Options) *Opener {
	h := NewHTTPFetcher(HTTPOptions{
		UserAgent:         opts.UserAgent,
		Timeout:           opts.Timeout,
		MaxRetries:        opts.MaxRetries,
		RequestsPerSecond: opts.RequestsPerSecond,
	})
	return &Opener{downloaders: map[string]Downloader{
		"http":  h,
		"https": h,
		"ftp":   NewFTPFetcher(FTPOptions{Timeout: opts.Timeout}),
	}}
}

// WithDownloader registers d for a URL scheme, replacing any existing one.
func (o *Opener) WithDownloader(scheme string, d Downloader) *Opener {
	o.downloaders[strings.ToLower(scheme)] = d
	return o
}

// Open returns a reader for location.
func (o *Opener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	scheme, target := splitLocation(location)
	if scheme == "" || scheme == "file" {
		f, err := os.Open(target)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", target)
		}
		return f, nil
	}

	d, ok := o.downloaders[scheme]
	if !ok {
		return nil, eris.Errorf("fetcher: unsupported scheme %q in %s", scheme, location)
	}

	zap.L().Debug("fetcher: downloading", zap.String("scheme", scheme), zap.String("location", location))
	rc, err := d.Download(ctx, location)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: download %s", location)
	}
	return rc, nil
}

// ReadAll reads the whole payload at location.
func (o *Opener) ReadAll(ctx context.Context, location string) ([]byte, error) {
	rc, err := o.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, eris.Wrapf(err, "fetcher: read %s", location)
	}
	return buf.Bytes(), nil
}

// Ext returns the lower-cased file extension of location without the dot,
// ignoring any URL query or fragment.
func Ext(location string) string {
	_, target := splitLocation(location)
	if u, err := url.Parse(location); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		target = u.Path
	}
	i := strings.LastIndexByte(target, '.')
	if i < 0 || strings.ContainsAny(target[i:], "/\\") {
		return ""
	}
	return strings.ToLower(target[i+1:])
}

// splitLocation returns the lower-cased URL scheme and, for file locations,
// the local path. Single-letter schemes are treated as Windows drive letters.
func splitLocation(location string) (scheme, target string) {
	u, err := url.Parse(location)
	if err != nil || len(u.Scheme) <= 1 {
		return "", location
	}
	scheme = strings.ToLower(u.Scheme)
	if scheme == "file" {
		return scheme, u.Path
	}
	return scheme, location
}

// Collect drains a pair of streaming channels into a slice.
func Collect[T any](items <-chan T, errs <-chan error) ([]T, error) {
	var out []T
	for item := range items {
		out = append(out, item)
	}
	if err := <-errs; err != nil {
		return out, err
	}
	return out, nil
}
