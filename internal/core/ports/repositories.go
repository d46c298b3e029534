package ports

import (
	"context"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
)

// TicketSource fetches tickets from the helpdesk.
type TicketSource interface {
	// ListActiveTickets returns every ticket whose status is in the valid
	// set. On a failed page it returns what was accumulated plus the error.
	// A partial set must never drive archiving: a ticket missing from it may
	// still be active.
	ListActiveTickets(ctx context.Context) ([]domain.Ticket, error)
}

// TicketMirror reads and writes mirror records for tickets.
type TicketMirror interface {
	// ListTicketIndex scans the mirror once and maps ticket id to page id.
	ListTicketIndex(ctx context.Context) (domain.MirrorIndex, error)
	// Create writes a new record, including the body, and returns its page id.
	Create(ctx context.Context, rec domain.MirrorRecord) (string, error)
	// Update patches the record's properties. The body is never touched.
	Update(ctx context.Context, pageID string, rec domain.MirrorRecord) error
	// Archive soft-deletes the record. Archiving twice is not an error.
	Archive(ctx context.Context, pageID string) error
}

// EquipmentMirror reads and patches equipment records.
type EquipmentMirror interface {
	ListEquipment(ctx context.Context) ([]domain.EquipmentRecord, error)
	SetOccupancy(ctx context.Context, update domain.EquipmentUpdate) error
}

// NotifiedTagStore persists the tags of alerts already sent.
type NotifiedTagStore interface {
	Contains(ctx context.Context, tag domain.NotifiedTag) (bool, error)
	Add(ctx context.Context, tag domain.NotifiedTag) error
	Ping(ctx context.Context) error
	Close() error
}
