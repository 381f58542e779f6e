// Package di provides dependency injection container
package di

import (
	"github.com/ssargent/borshkit/pkg/api"
	"github.com/ssargent/borshkit/pkg/registry"
	"github.com/ssargent/borshkit/pkg/storage"
)

// StoreFactory opens the payload store of a data directory.
type StoreFactory interface {
	OpenStore(dataDir string, reg *registry.Registry) (*storage.PayloadStore, error)
}

// StoreFactoryFunc adapts a function to StoreFactory.
type StoreFactoryFunc func(dataDir string, reg *registry.Registry) (*storage.PayloadStore, error)

// OpenStore calls f.
func (f StoreFactoryFunc) OpenStore(dataDir string, reg *registry.Registry) (*storage.PayloadStore, error) {
	return f(dataDir, reg)
}

// Container holds all the dependencies for the application
type Container struct {
	serverFactory api.ServerFactory
	storeFactory  StoreFactory
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		serverFactory: api.NewServerFactory(),
		storeFactory:  StoreFactoryFunc(storage.Open),
	}
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// GetStoreFactory returns the store factory
func (c *Container) GetStoreFactory() StoreFactory {
	return c.storeFactory
}

// SetStoreFactory allows overriding the store factory (for testing)
func (c *Container) SetStoreFactory(factory StoreFactory) {
	c.storeFactory = factory
}
