package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
)

// MemoryTagStore is an in-memory ports.NotifiedTagStore for multi-cycle tests.
type MemoryTagStore struct {
	mu   sync.Mutex
	tags map[domain.NotifiedTag]bool
}

var _ ports.NotifiedTagStore = (*MemoryTagStore)(nil)

func NewMemoryTagStore(tags ...domain.NotifiedTag) *MemoryTagStore {
	s := &MemoryTagStore{tags: make(map[domain.NotifiedTag]bool)}
	for _, t := range tags {
		s.tags[t] = true
	}
	return s
}

func (s *MemoryTagStore) Contains(_ context.Context, tag domain.NotifiedTag) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tags[tag], nil
}

func (s *MemoryTagStore) Add(_ context.Context, tag domain.NotifiedTag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[tag] = true
	return nil
}

func (s *MemoryTagStore) Ping(context.Context) error { return nil }
func (s *MemoryTagStore) Close() error { return nil }

// Len returns the number of recorded tags.
func (s *MemoryTagStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tags)
}

// MirrorCall is one write recorded by FakeTicketMirror.
type MirrorCall struct {
	Op     string
	PageID string
	Record domain.MirrorRecord
}

// FakeTicketMirror is a stateful in-memory ports.TicketMirror. Created pages
// show up in the next ListTicketIndex; archived pages drop out of it.
type FakeTicketMirror struct {
	mu       sync.Mutex
	pages    map[string]string // page id -> ticket id
	archived map[string]bool
	next     int
	Calls    []MirrorCall
}

var _ ports.TicketMirror = (*FakeTicketMirror)(nil)

// NewFakeTicketMirror seeds the mirror with the given ticket id -> page id
// pairs.
func NewFakeTicketMirror(seed domain.MirrorIndex) *FakeTicketMirror {
	f := &FakeTicketMirror{pages: make(map[string]string), archived: make(map[string]bool)}
	for ticketID, pageID := range seed {
		f.pages[pageID] = ticketID
	}
	return f
}

func (f *FakeTicketMirror) ListTicketIndex(context.Context) (domain.MirrorIndex, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	index := make(domain.MirrorIndex)
	for pageID, ticketID := range f.pages {
		if !f.archived[pageID] {
			index[ticketID] = pageID
		}
	}
	return index, nil
}

func (f *FakeTicketMirror) Create(_ context.Context, rec domain.MirrorRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	pageID := fmt.Sprintf("page-%d", f.next)
	f.pages[pageID] = rec.TicketID
	f.Calls = append(f.Calls, MirrorCall{Op: domain.MirrorOpCreate, PageID: pageID, Record: rec})
	return pageID, nil
}

func (f *FakeTicketMirror) Update(_ context.Context, pageID string, rec domain.MirrorRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, MirrorCall{Op: domain.MirrorOpUpdate, PageID: pageID, Record: rec})
	return nil
}

func (f *FakeTicketMirror) Archive(_ context.Context, pageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived[pageID] = true
	f.Calls = append(f.Calls, MirrorCall{Op: domain.MirrorOpArchive, PageID: pageID})
	return nil
}

// Reset forgets recorded calls, keeping the pages.
func (f *FakeTicketMirror) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = nil
}

// CallsOf returns the recorded calls with the given op.
func (f *FakeTicketMirror) CallsOf(op string) []MirrorCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []MirrorCall
	for _, c := range f.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// RecordingNotifier is a ports.Notifier that remembers what it sent.
type RecordingNotifier struct {
	mu       sync.Mutex
	Sent     []domain.Alert
	Attempts int
	Err      error
}

var _ ports.Notifier = (*RecordingNotifier)(nil)

func (n *RecordingNotifier) Notify(_ context.Context, alert domain.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Attempts++
	if n.Err != nil {
		return n.Err
	}
	n.Sent = append(n.Sent, alert)
	return nil
}

// Tags returns the tags of the alerts sent so far.
func (n *RecordingNotifier) Tags() []domain.NotifiedTag {
	n.mu.Lock()
	defer n.mu.Unlock()
	tags := make([]domain.NotifiedTag, 0, len(n.Sent))
	for _, a := range n.Sent {
		tags = append(tags, a.Tag())
	}
	return tags
}
