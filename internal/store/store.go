// Package store keeps imported captures as their encoded atom lists.
package store

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/danmuck/gfxtrace/internal/binary"
)

var (
	ErrCaptureNotFound = errors.New("store: capture not found")
	ErrEmptyCapture    = errors.New("store: capture has no data")
	ErrInvalidName     = errors.New("store: capture name is required")
)

// Info describes a stored capture.
type Info struct {
	ID        binary.ID
	Name      string
	Size      int
	CreatedAt time.Time
}

// Capture is a stored capture with its encoded atom list.
type Capture struct {
	Info
	Data []byte
}

// Store holds captures by content identity.
type Store interface {
	// Captures lists stored captures ordered by name, then id.
	Captures(ctx context.Context) ([]Info, error)
	Capture(ctx context.Context, id binary.ID) (*Capture, error)
	// Import stores data under its content identity. Importing the same data
	// again returns the existing capture.
	Import(ctx context.Context, name string, data []byte) (Info, error)
	Close() error
}

// CaptureID is the identity of a capture's encoded atom list.
func CaptureID(data []byte) binary.ID {
	return binary.NewID(data)
}

func validateImport(name string, data []byte) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	if len(data) == 0 {
		return "", ErrEmptyCapture
	}
	return name, nil
}

func sortInfos(list []Info) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return bytes.Compare(list[i].ID[:], list[j].ID[:]) < 0
	})
}
