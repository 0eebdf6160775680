// Package store provides persistent storage for the gateway using SQLite.
//
// # Architecture
//
// Two focused interfaces cover the gateway's storage needs:
//
//   - ParameterStore: named configuration values, some marked secret
//   - ConnectionRegistry: live WebSocket connection records with expiry
//
// Store combines both. SQLiteStore implements Store on a single database;
// MemStore implements it in memory for tests.
//
// # Data Models
//
//   - Parameter: a named configuration value resolved at bootstrap time.
//     Secret parameters are only returned when the caller asks for
//     decryption.
//   - Connection: one open WebSocket channel. Records are created on
//     connect and deleted on disconnect; expired records are treated as
//     absent and purged lazily.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//
// Use NewSQLiteStore(":memory:") in tests that need real SQL behavior,
// NewMemStore() everywhere else.
//
// # Error Handling
//
// ErrNotFound is returned for missing or expired entities. All methods
// accept context.Context for cancellation.
package store
