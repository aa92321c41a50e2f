// Package objectstore provides access to the bucket that holds index
// artifacts and cleaned document text.
package objectstore

import "context"

// Store fetches objects by key from a single bucket. The resource loader
// uses it to pull index artifacts; the extraction client uses it to pull a
// document's cleaned text.
type Store interface {
	// DownloadToFile streams the object at key into a local file at dst,
	// creating parent directories as needed.
	DownloadToFile(ctx context.Context, key, dst string) error

	// GetObject returns the full contents of the object at key.
	GetObject(ctx context.Context, key string) ([]byte, error)

	// ListKeys returns every object key under prefix.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}
