// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/borshkit/pkg/codec"
	"github.com/ssargent/borshkit/pkg/storage"
)

// SchemaSource resolves schemas by name.
type SchemaSource interface {
	Lookup(name string) (*codec.Schema, error)
	Names() []string
}

// PayloadStore persists encoded payloads per schema.
type PayloadStore interface {
	Put(ctx context.Context, schema string, payload []byte) (ksuid.KSUID, error)
	Get(ctx context.Context, schema string, id ksuid.KSUID) (*storage.Entry, error)
	Delete(ctx context.Context, schema string, id ksuid.KSUID) error
	List(ctx context.Context, schema string) ([]ksuid.KSUID, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves the API until ctx is canceled.
	StartServer(ctx context.Context, schemas SchemaSource, store PayloadStore, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
