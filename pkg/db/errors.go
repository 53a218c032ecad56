package db

import "errors"

var (
	ErrFailedToParseDBConfig    = errors.New("db: failed to parse database configuration")
	ErrFailedToOpenDBConnection = errors.New("db: failed to open database connection")
	ErrUnsupportedDriver        = errors.New("db: unsupported database driver")
	ErrHealthcheckFailed        = errors.New("db: healthcheck failed")
	ErrSetDialect               = errors.New("db migrator: failed to set dialect")
	ErrApplyMigrations          = errors.New("db migrator: failed to apply migrations")

	// ErrNotConnected is returned by every engine operation issued before Connect.
	ErrNotConnected = errors.New("db: not connected")

	// ErrAlreadyConnected is returned when Connect is called on a connected engine.
	ErrAlreadyConnected = errors.New("db: already connected")

	// ErrInvalidOperation marks a query that cannot be built from the given input.
	ErrInvalidOperation = errors.New("db: invalid operation")

	// ErrStoreUnavailable wraps timeouts and connection failures reported by the store.
	ErrStoreUnavailable = errors.New("db: store unavailable")

	// ErrUnknownColumn is returned when an entity is asked for a column it does not carry.
	ErrUnknownColumn = errors.New("db: unknown column")
)
