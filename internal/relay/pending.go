package relay

import (
	"sync"

	"strello/internal/intent"

	"github.com/google/uuid"
)

// PendingSet holds the intents whose remote confirmation has not returned.
type PendingSet struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]intent.Intent
	byKind map[intent.Kind]int
}

func NewPendingSet() *PendingSet {
	return &PendingSet{
		byID:   make(map[uuid.UUID]intent.Intent),
		byKind: make(map[intent.Kind]int),
	}
}

// Add records in as pending. Adding the same intent twice is a no-op.
func (p *PendingSet) Add(in intent.Intent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byID[in.IntentID()]; ok {
		return
	}
	p.byID[in.IntentID()] = in
	p.byKind[in.Kind()]++
}

// Remove clears in and reports whether it was pending.
func (p *PendingSet) Remove(in intent.Intent) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byID[in.IntentID()]; !ok {
		return false
	}
	delete(p.byID, in.IntentID())
	p.byKind[in.Kind()]--
	return true
}

func (p *PendingSet) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byID)
}

func (p *PendingSet) LenKind(kind intent.Kind) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.byKind[kind]
}

func (p *PendingSet) Has(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.byID[id]
	return ok
}

// List returns the pending intents in no particular order.
func (p *PendingSet) List() []intent.Intent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]intent.Intent, 0, len(p.byID))
	for _, in := range p.byID {
		out = append(out, in)
	}
	return out
}
