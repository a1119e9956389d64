package memstore

import (
	"errors"
	"fmt"
)

// ErrCapabilityUnsupported is returned when a proximity query or vault
// operation is requested on a backend that does not support it. The caller
// gets a typed error, never an approximated result.
var ErrCapabilityUnsupported = errors.New("capability unsupported by this backend")

// ErrInvalidImportance is returned when an importance value falls outside
// [0, 2].
var ErrInvalidImportance = errors.New("importance must be in [0, 2]")

// NotFoundError is returned when no item exists for an (owner, item) identity.
type NotFoundError struct {
	OwnerID string
	ItemID  string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("memory item not found: owner=%s item=%s", e.OwnerID, e.ItemID)
}

// VaultedError is returned when an operation would read through a vaulted
// item, such as correlating from it.
type VaultedError struct {
	OwnerID string
	ItemID  string
	Level   VaultLevel
}

func (e VaultedError) Error() string {
	return fmt.Sprintf("memory item is vaulted: owner=%s item=%s level=%s", e.OwnerID, e.ItemID, e.Level)
}

// StorageError wraps a backend write or read failure with the operation that
// produced it.
type StorageError struct {
	Op  string
	Err error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e StorageError) Unwrap() error {
	return e.Err
}
