package domain

import "context"

// Fetcher resolves a named portal document to its raw JSON bytes.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Sink receives a serialized portal document.
type Sink interface {
	Write(ctx context.Context, name string, data []byte) error
}

// KeyValueStore is the persistent string map behind the portal configuration.
type KeyValueStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}
