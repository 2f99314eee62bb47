// internal/app/system/storage/storage.go

// Package storage holds uploaded binary blobs (event images and photos)
// and maps them to public URLs.
//
// The backend is selected by config. Only the local-disk backend exists
// today; the interface leaves room for an object-store backend without
// touching the handlers.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Store saves blobs and reports the URL they will be served from.
type Store interface {
	// Save writes the blob at the given key (e.g. "events/<id>/image.jpg")
	// and returns its public URL.
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	// Remove deletes the blob at key. Missing blobs are not an error.
	Remove(ctx context.Context, key string) error
}

// Local stores blobs under a directory on disk, served by the app's file
// server under urlPrefix.
type Local struct {
	root      string
	urlPrefix string
	log       *zap.Logger
}

// NewLocal builds a Local store rooted at dir with URLs under urlPrefix
// (e.g. "/files"). The directory is created if missing.
func NewLocal(dir, urlPrefix string, logger *zap.Logger) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root %s: %w", dir, err)
	}
	return &Local{
		root:      dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		log:       logger,
	}, nil
}

// Save implements Store.
func (l *Local) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	clean, err := l.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir for %s: %w", key, err)
	}

	f, err := os.Create(clean)
	if err != nil {
		return "", fmt.Errorf("storage: create %s: %w", key, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		// Half-written blobs are useless; clean up before reporting.
		_ = os.Remove(clean)
		return "", fmt.Errorf("storage: write %s: %w", key, err)
	}

	url := l.urlPrefix + "/" + strings.TrimLeft(key, "/")
	l.log.Debug("blob stored", zap.String("key", key), zap.String("url", url))
	return url, nil
}

// Remove implements Store.
func (l *Local) Remove(ctx context.Context, key string) error {
	clean, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(clean); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove %s: %w", key, err)
	}
	return nil
}

// path resolves key under root, refusing escapes like "../".
func (l *Local) path(key string) (string, error) {
	clean := filepath.Join(l.root, filepath.FromSlash(key))
	if !strings.HasPrefix(clean, filepath.Clean(l.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return clean, nil
}
