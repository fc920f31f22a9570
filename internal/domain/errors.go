package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrGameNotCached is returned when a game is absent from the offline cache or has expired.
	ErrGameNotCached = errors.New("game not cached")
	// ErrGameNotFound indicates the game content could not be loaded from the catalog.
	ErrGameNotFound = errors.New("game not found")
	// ErrOffline is returned by operations that need connectivity.
	ErrOffline = errors.New("offline")
	// ErrInvalidDifficulty rejects difficulties other than easy, medium and hard.
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	// ErrInvalidGameType rejects game types outside the reward table.
	ErrInvalidGameType = errors.New("invalid game type")
	// ErrMissingUser indicates a request without a user id.
	ErrMissingUser = errors.New("user id is required")
	// ErrMissingGameID indicates a game or progress record without an id.
	ErrMissingGameID = errors.New("game id is required")
)

// StorageError reports a failed read, write or (de)serialization of a collection.
type StorageError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
