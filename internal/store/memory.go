package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/danmuck/gfxtrace/internal/binary"
)

// MemoryStore keeps captures in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	captures map[binary.ID]*Capture
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		captures: make(map[binary.ID]*Capture),
		now:      time.Now,
	}
}

func (s *MemoryStore) Captures(ctx context.Context) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	list := make([]Info, 0, len(s.captures))
	for _, c := range s.captures {
		list = append(list, c.Info)
	}
	s.mu.RUnlock()
	sortInfos(list)
	return list, nil
}

func (s *MemoryStore) Capture(ctx context.Context, id binary.ID) (*Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	c, ok := s.captures[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCaptureNotFound, id)
	}
	out := *c
	return &out, nil
}

func (s *MemoryStore) Import(ctx context.Context, name string, data []byte) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	name, err := validateImport(name, data)
	if err != nil {
		return Info{}, err
	}
	id := CaptureID(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.captures[id]; ok {
		return existing.Info, nil
	}
	c := &Capture{
		Info: Info{ID: id, Name: name, Size: len(data), CreatedAt: s.now().UTC()},
		Data: append([]byte(nil), data...),
	}
	s.captures[id] = c
	return c.Info, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
