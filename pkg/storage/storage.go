// Package storage hosts uploaded images behind a provider-neutral interface.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrDisabled is returned by the no-op store when no provider is configured.
var ErrDisabled = errors.New("image storage is not configured")

// ImageStore uploads images and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ObjectName builds a collision-free object name for an upload. The kind
// becomes part of the name, not a folder, so the last URL segment is always
// enough to locate the object again.
func ObjectName(kind, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.Trim(unsafeName.ReplaceAllString(base, "-"), "-.")
	if base == "" {
		base = "image"
	}
	if kind == "" {
		return fmt.Sprintf("%s-%s", uuid.NewString(), base)
	}
	return fmt.Sprintf("%s-%s-%s", kind, uuid.NewString(), base)
}

// NameFromURL returns the last path segment of a public URL.
func NameFromURL(publicURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(publicURL))
	if err != nil {
		return "", fmt.Errorf("parse image url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("image url %q has no object name", publicURL)
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return name, nil
}

// JoinKey prefixes name with the configured object folder.
func JoinKey(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Noop is used when STOREFRONT_STORAGE_DRIVER=none.
type Noop struct{}

func (Noop) Upload(context.Context, string, string, io.Reader) (string, error) {
	return "", ErrDisabled
}

func (Noop) Delete(context.Context, string) error {
	return nil
}
