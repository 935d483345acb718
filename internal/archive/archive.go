// Package archive downloads a user's source images and packs them into a
// single in-memory ZIP archive for bulk transfer to the training provider.
//
// The build is strictly ordered and all-or-nothing: images are fetched in
// input-list order (entry numbering depends on it), and any failed fetch
// aborts the whole build; a partial archive is never produced. The archive
// is transient, so entries are compressed with the default deflate level
// rather than maximum compression.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// defaultExtension is used when a source URL's path carries no suffix.
const defaultExtension = "jpg"

// Archive is a built ZIP container ready for upload.
type Archive struct {
	// Data is the complete ZIP byte stream.
	Data []byte
	// Entries is the number of files packed, equal to the input URL count.
	Entries int
}

// FetchError reports which source image could not be retrieved. Index is
// 1-based and matches the archive entry that would have been written. The
// offending URL is reported without its query string so that signed-URL
// credentials never reach logs or API responses.
type FetchError struct {
	Index  int
	URL    string // scheme://host/path only
	Status int    // HTTP status, 0 on transport errors
	Err    error  // underlying transport error, nil on bad status
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch image %d (%s): %v", e.Index, e.URL, e.Err)
	}
	return fmt.Sprintf("fetch image %d (%s): unexpected status %d", e.Index, e.URL, e.Status)
}

// Unwrap exposes the underlying transport error for errors.Is/As.
func (e *FetchError) Unwrap() error { return e.Err }

// Builder fetches source images over HTTP and assembles archives.
// It is safe for concurrent use; each Build call is independent.
type Builder struct {
	client *resty.Client
}

// NewBuilder constructs a Builder whose image fetches are bounded by the
// given per-request timeout.
func NewBuilder(fetchTimeout time.Duration) *Builder {
	return &Builder{
		client: resty.New().SetTimeout(fetchTimeout),
	}
}

// Build downloads every URL in input order and returns a ZIP archive with
// one entry per URL, named image_<n>.<ext> with n starting at 1. The
// extension is taken from the URL path's last "." suffix, defaulting to
// "jpg". The first failed fetch aborts the build and is returned as a
// *FetchError identifying the offending index.
func (b *Builder) Build(ctx context.Context, urls []string) (*Archive, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for i, src := range urls {
		index := i + 1

		res, err := b.client.R().SetContext(ctx).Get(src)
		if err != nil {
			return nil, &FetchError{Index: index, URL: RedactURL(src), Err: err}
		}
		if !res.IsSuccess() {
			return nil, &FetchError{Index: index, URL: RedactURL(src), Status: res.StatusCode()}
		}

		name := fmt.Sprintf("image_%d.%s", index, extensionOf(src))
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("create archive entry %s: %w", name, err)
		}
		if _, err := w.Write(res.Body()); err != nil {
			return nil, fmt.Errorf("write archive entry %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}

	return &Archive{Data: buf.Bytes(), Entries: len(urls)}, nil
}

// extensionOf infers a file extension from the URL path's last "." suffix,
// preserving its case. Unparseable URLs and suffix-less paths fall back to
// the default.
func extensionOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return defaultExtension
	}
	ext := strings.TrimPrefix(path.Ext(u.Path), ".")
	if ext == "" {
		return defaultExtension
	}
	return ext
}

// RedactURL strips the query string (where signed-URL credentials live) and
// returns scheme://host/path, suitable for logs and error messages.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[unparseable-url]"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
