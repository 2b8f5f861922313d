package service

import (
	"sort"
	"sync"
	"time"
)

// pendingCall tracks one stream request awaiting its result frame.
type pendingCall struct {
	ID       uint64
	QueuedAt time.Time
	reply    chan streamReply
}

type streamReply struct {
	payload []byte
	err     error
}

// pendingCalls stores in-flight stream requests by message id.
type pendingCalls struct {
	mu    sync.RWMutex
	items map[uint64]pendingCall
}

func newPendingCalls() *pendingCalls {
	return &pendingCalls{items: make(map[uint64]pendingCall)}
}

func (p *pendingCalls) Add(id uint64, at time.Time) <-chan streamReply {
	ch := make(chan streamReply, 1)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[id] = pendingCall{ID: id, QueuedAt: at, reply: ch}
	return ch
}

// Resolve delivers a reply and forgets the call. It reports false for ids
// that are not pending, such as calls whose caller gave up.
func (p *pendingCalls) Resolve(id uint64, reply streamReply) bool {
	p.mu.Lock()
	item, ok := p.items[id]
	delete(p.items, id)
	p.mu.Unlock()
	if ok {
		item.reply <- reply
	}
	return ok
}

func (p *pendingCalls) Remove(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.items, id)
}

// FailAll resolves every pending call with err.
func (p *pendingCalls) FailAll(err error) {
	p.mu.Lock()
	items := p.items
	p.items = make(map[uint64]pendingCall)
	p.mu.Unlock()
	for _, item := range items {
		item.reply <- streamReply{err: err}
	}
}

// List returns pending calls ordered by id.
func (p *pendingCalls) List() []pendingCall {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]pendingCall, 0, len(p.items))
	for _, item := range p.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}
