package notion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
)

// EquipmentSchema names the properties of the equipment database and the
// status labels it uses.
type EquipmentSchema struct {
	Name           string
	Status         string
	Holder         string
	OccupiedLabel  string
	AvailableLabel string
}

// DefaultEquipmentSchema returns the property names of the production
// workspace.
func DefaultEquipmentSchema() EquipmentSchema {
	return EquipmentSchema{
		Name:           "Nome",
		Status:         "Status",
		Holder:         "Utilizado por",
		OccupiedLabel:  "Ocupado",
		AvailableLabel: "Disponível",
	}
}

// EquipmentMirror reads and patches the pre-existing equipment pages.
type EquipmentMirror struct {
	client     *Client
	databaseID string
	schema     EquipmentSchema
	logger     *slog.Logger
}

var _ ports.EquipmentMirror = (*EquipmentMirror)(nil)

// NewEquipmentMirror creates an equipment mirror over databaseID.
func NewEquipmentMirror(client *Client, databaseID string, schema EquipmentSchema) *EquipmentMirror {
	return &EquipmentMirror{
		client:     client,
		databaseID: databaseID,
		schema:     schema,
		logger:     client.logger.With("database", "equipment"),
	}
}

// ListEquipment returns every named equipment record.
func (m *EquipmentMirror) ListEquipment(ctx context.Context) ([]domain.EquipmentRecord, error) {
	var records []domain.EquipmentRecord
	err := m.client.QueryDatabase(ctx, m.databaseID, func(p Page) error {
		if p.Archived {
			return nil
		}
		name := strings.TrimSpace(p.Properties[m.schema.Name].PlainText())
		if name == "" {
			return nil
		}
		records = append(records, domain.EquipmentRecord{
			PageID: p.ID,
			Name:   name,
			Status: m.status(p.Properties[m.schema.Status].PlainText()),
			Holder: p.Properties[m.schema.Holder].PlainText(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	m.logger.DebugContext(ctx, "equipment loaded", "count", len(records))
	return records, nil
}

// SetOccupancy writes status and holder. A free record gets an empty holder.
func (m *EquipmentMirror) SetOccupancy(ctx context.Context, u domain.EquipmentUpdate) error {
	label := m.schema.AvailableLabel
	holder := ""
	if u.Status == domain.EquipmentOccupied {
		label = m.schema.OccupiedLabel
		holder = u.Holder
	}

	req := UpdatePageRequest{Properties: Properties{
		m.schema.Status: StatusValue(label),
		m.schema.Holder: RichTextValue(holder),
	}}
	if err := m.client.UpdatePage(ctx, u.PageID, req); err != nil {
		return fmt.Errorf("update equipment %s: %w", u.Name, err)
	}
	return nil
}

func (m *EquipmentMirror) status(label string) domain.EquipmentStatus {
	switch label {
	case m.schema.OccupiedLabel:
		return domain.EquipmentOccupied
	case m.schema.AvailableLabel:
		return domain.EquipmentAvailable
	}
	return ""
}
