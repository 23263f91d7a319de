package internal

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func TestStorageErrorUnwrap(t *testing.T) {
	err := &StorageError{Path: "/tmp/x", Op: "read", Err: os.ErrNotExist}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("StorageError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "/tmp/x") {
		t.Errorf("Error string missing path: %q", err.Error())
	}
}

func TestSessionNotFoundError(t *testing.T) {
	err := &SessionNotFoundError{ID: "abc12345"}
	if !strings.Contains(err.Error(), "abc12345") {
		t.Errorf("Error string missing session ID: %q", err.Error())
	}
}
