package notion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-bridge/internal/core/errors"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
)

// TicketSchema names the properties of the ticket database.
type TicketSchema struct {
	Title       string
	TicketID    string
	Requester   string
	Responsible string
	Assets      string
	Status      string
	Created     string // optional
}

// DefaultTicketSchema returns the property names of the production workspace.
func DefaultTicketSchema() TicketSchema {
	return TicketSchema{
		Title:       "Titulo",
		TicketID:    "Chamado",
		Requester:   "Solicitante",
		Responsible: "Responsavel",
		Assets:      "Ativo",
		Status:      "Status",
	}
}

// TicketMirror keeps one page per mirrored ticket in a Notion database.
type TicketMirror struct {
	client     *Client
	databaseID string
	schema     TicketSchema
	logger     *slog.Logger
}

var _ ports.TicketMirror = (*TicketMirror)(nil)

// NewTicketMirror creates a ticket mirror over databaseID.
func NewTicketMirror(client *Client, databaseID string, schema TicketSchema) *TicketMirror {
	return &TicketMirror{
		client:     client,
		databaseID: databaseID,
		schema:     schema,
		logger:     client.logger.With("database", "tickets"),
	}
}

// ListTicketIndex maps every mirrored ticket id to its page. When two pages
// claim the same ticket the first one returned is kept.
func (m *TicketMirror) ListTicketIndex(ctx context.Context) (domain.MirrorIndex, error) {
	index := make(domain.MirrorIndex)
	err := m.client.QueryDatabase(ctx, m.databaseID, func(p Page) error {
		if p.Archived {
			return nil
		}
		ticketID := strings.TrimSpace(p.Properties[m.schema.TicketID].PlainText())
		if ticketID == "" {
			return nil
		}
		if existing, ok := index[ticketID]; ok {
			m.logger.WarnContext(ctx, "ticket mirrored more than once",
				"ticket_id", ticketID,
				"page_id", existing,
				"duplicate_page_id", p.ID,
			)
			return nil
		}
		index[ticketID] = p.ID
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list ticket index: %w", err)
	}
	return index, nil
}

// Create adds a page for rec, with the description as its body.
func (m *TicketMirror) Create(ctx context.Context, rec domain.MirrorRecord) (string, error) {
	req := CreatePageRequest{
		Parent:     Parent{DatabaseID: m.databaseID},
		Properties: m.properties(rec),
		Children:   []Block{Paragraph(rec.Body)},
	}
	pageID, err := m.client.CreatePage(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create page for ticket %s: %w", rec.TicketID, err)
	}
	return pageID, nil
}

// Update rewrites the page properties. The body is never touched.
func (m *TicketMirror) Update(ctx context.Context, pageID string, rec domain.MirrorRecord) error {
	if err := m.client.UpdatePage(ctx, pageID, UpdatePageRequest{Properties: m.properties(rec)}); err != nil {
		return fmt.Errorf("update page %s: %w", pageID, err)
	}
	return nil
}

// Archive soft-deletes the page. A page that is already archived or gone
// counts as archived.
func (m *TicketMirror) Archive(ctx context.Context, pageID string) error {
	archived := true
	err := m.client.UpdatePage(ctx, pageID, UpdatePageRequest{Archived: &archived})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperrors.ErrNotFound), isArchivedError(err):
		m.logger.InfoContext(ctx, "page already archived or missing", "page_id", pageID)
		return nil
	default:
		return fmt.Errorf("archive page %s: %w", pageID, err)
	}
}

func (m *TicketMirror) properties(rec domain.MirrorRecord) Properties {
	props := Properties{
		m.schema.Title:       TitleValue(rec.Title),
		m.schema.TicketID:    RichTextValue(rec.TicketID),
		m.schema.Requester:   RichTextValue(rec.Requester),
		m.schema.Responsible: RichTextValue(rec.Responsible),
		m.schema.Assets:      RichTextValue(rec.Assets),
		m.schema.Status:      StatusValue(rec.Status),
	}
	if m.schema.Created != "" && rec.CreatedDate != "" && rec.CreatedDate != domain.NoDateLabel {
		props[m.schema.Created] = DateValue(rec.CreatedDate)
	}
	return props
}
