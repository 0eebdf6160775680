// ABOUTME: Store interfaces and data types for tcg-agent persistence
// ABOUTME: Defines Parameter, Connection structs and the storage interfaces

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Parameter is a named configuration value resolved at bootstrap time.
// Secret parameters are only returned when the caller asks for decryption.
type Parameter struct {
	Name      string
	Value     string
	Secret    bool
	UpdatedAt time.Time
}

// Connection represents one open WebSocket channel.
// Records are created on connect and deleted on disconnect or expiry.
type Connection struct {
	ID          string
	SessionID   string
	ConnectedAt time.Time
	ExpiresAt   time.Time
}

// ParameterStore resolves named parameters for the configuration bootstrap.
type ParameterStore interface {
	// GetParameter returns the value for name. Secret parameters return
	// ErrNotFound unless decrypt is set.
	GetParameter(ctx context.Context, name string, decrypt bool) (string, error)
	PutParameter(ctx context.Context, p *Parameter) error
}

// ConnectionRegistry tracks open WebSocket connections.
type ConnectionRegistry interface {
	PutConnection(ctx context.Context, conn *Connection) error
	// GetConnection returns ErrNotFound for unknown or expired connections.
	GetConnection(ctx context.Context, id string) (*Connection, error)
	DeleteConnection(ctx context.Context, id string) error
	PurgeExpiredConnections(ctx context.Context) (int, error)
}

// Store combines all storage capabilities.
type Store interface {
	ParameterStore
	ConnectionRegistry
	Close() error
}
