package domain

import (
	"fmt"
	"strings"
)

// AlertKind identifies the business condition an alert reports.
type AlertKind string

const (
	AlertNoOwner       AlertKind = "no-owner"
	AlertFullyAssigned AlertKind = "fully-assigned"
)

// NotifiedTag is the deduplication key of an alert: one per ticket and kind.
type NotifiedTag string

// TagFor returns the tag for ticketID and kind, formatted {id}_{kind}.
func TagFor(ticketID string, kind AlertKind) NotifiedTag {
	return NotifiedTag(ticketID + "_" + string(kind))
}

func (t NotifiedTag) String() string { return string(t) }

// Alert is a chat notification about a single ticket.
type Alert struct {
	Kind   AlertKind
	Ticket *Ticket
	Text   string
}

// Tag returns the deduplication tag for the alert.
func (a Alert) Tag() NotifiedTag {
	return TagFor(a.Ticket.ID, a.Kind)
}

// NewNoOwnerAlert formats the alert for an unassigned ticket that matched a
// keyword.
func NewNoOwnerAlert(t *Ticket) Alert {
	var b strings.Builder
	b.WriteString("🚨 Chamado sem atribuição com palavra-chave!\n\n")
	fmt.Fprintf(&b, "🔖 Título: %s\n", t.Title())
	fmt.Fprintf(&b, "🆔 Número: `%s`\n", t.ID)
	fmt.Fprintf(&b, "👤 Solicitante: %s\n", t.Requester())
	fmt.Fprintf(&b, "🗓️ Data: `%s`\n", t.Created())
	return Alert{Kind: AlertNoOwner, Ticket: t, Text: b.String()}
}

// NewFullyAssignedAlert formats the alert for a ticket that gained an owner
// and equipment and is being mirrored.
func NewFullyAssignedAlert(t *Ticket, rec MirrorRecord) Alert {
	var b strings.Builder
	b.WriteString("📢 Chamado Atribuído e registrado no Notion!\n\n")
	fmt.Fprintf(&b, "🔖 Título: %s\n", rec.Title)
	fmt.Fprintf(&b, "🆔 Número: `%s`\n", rec.TicketID)
	fmt.Fprintf(&b, "👤 Solicitante: %s\n", rec.Requester)
	fmt.Fprintf(&b, "👨‍💻 Responsável: %s\n", rec.Responsible)
	fmt.Fprintf(&b, "💻 Equipamento: %s\n", rec.Assets)
	fmt.Fprintf(&b, "🗓️ Data: `%s`\n", rec.CreatedDate)
	return Alert{Kind: AlertFullyAssigned, Ticket: t, Text: b.String()}
}
