package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials covers both unknown usernames and bad secrets.
	// Callers never learn which half of the pair failed.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrPermissionDenied   = errors.New("auth: permission denied")
	ErrDuplicateUsername  = errors.New("auth: duplicate username")
	ErrNotFound           = errors.New("auth: not found")
	ErrInvalidInput       = errors.New("auth: invalid input")
	// ErrStorageUnavailable wraps persistence failures. The core does not
	// retry; retry policy belongs to the storage collaborator.
	ErrStorageUnavailable = errors.New("auth: storage unavailable")
)

func storageError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
