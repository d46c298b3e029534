package domain

import (
	"strings"
)

// Fallback labels used when the helpdesk omits a field.
const (
	NoClientLabel      = "Sem cliente"
	NoDescriptionLabel = "Sem descrição"
	NoSubjectLabel     = "Sem título"
	NoDateLabel        = "No data Created"
)

// Person is a helpdesk party reference (owner or client).
type Person struct {
	ID           string
	BusinessName string
}

// Asset is an equipment reference attached to a ticket.
type Asset struct {
	ID   string
	Name string
}

// Action is one interaction recorded on a ticket. Only the description is
// mirrored.
type Action struct {
	ID          string
	Description string
}

// Ticket is a helpdesk ticket as fetched from the ticket source. It is
// read-only to the bridge.
type Ticket struct {
	ID            string
	Subject       string
	Status        string
	Owner         *Person
	Clients       []Person
	Assets        []Asset
	Actions       []Action
	Justification string
	CreatedDate   string
}

// HasOwner reports whether a responsible party is set.
func (t *Ticket) HasOwner() bool {
	return t.Owner != nil
}

// HasAssets reports whether at least one equipment reference is attached.
func (t *Ticket) HasAssets() bool {
	return len(t.Assets) > 0
}

// HasClient reports whether the ticket names at least one client.
func (t *Ticket) HasClient() bool {
	return len(t.Clients) > 0
}

// IsFullyAssigned reports whether the ticket qualifies for mirroring:
// an owner and at least one asset.
func (t *Ticket) IsFullyAssigned() bool {
	return t.HasOwner() && t.HasAssets()
}

// IsUnassigned reports whether the ticket has neither owner nor assets.
func (t *Ticket) IsUnassigned() bool {
	return !t.HasOwner() && !t.HasAssets()
}

// Title returns the subject, or a placeholder when empty.
func (t *Ticket) Title() string {
	if t.Subject == "" {
		return NoSubjectLabel
	}
	return t.Subject
}

// Requester returns the display name of the first client.
func (t *Ticket) Requester() string {
	if !t.HasClient() {
		return NoClientLabel
	}
	return t.Clients[0].BusinessName
}

// Responsible returns the owner's display name, empty when unowned.
func (t *Ticket) Responsible() string {
	if t.Owner == nil {
		return ""
	}
	return t.Owner.BusinessName
}

// AssetNames returns the names of the attached assets in source order.
func (t *Ticket) AssetNames() []string {
	names := make([]string, 0, len(t.Assets))
	for _, a := range t.Assets {
		names = append(names, a.Name)
	}
	return names
}

// AssetList returns the asset names joined for display.
func (t *Ticket) AssetList() string {
	return strings.Join(t.AssetNames(), ", ")
}

// Created returns the creation timestamp as received, or a placeholder.
func (t *Ticket) Created() string {
	if t.CreatedDate == "" {
		return NoDateLabel
	}
	return t.CreatedDate
}

// Description resolves the body text: first action's description, then the
// justification field, then a placeholder.
func (t *Ticket) Description() string {
	if len(t.Actions) > 0 && t.Actions[0].Description != "" {
		return t.Actions[0].Description
	}
	if t.Justification != "" {
		return t.Justification
	}
	return NoDescriptionLabel
}

// MatchesKeyword reports whether the subject contains any keyword,
// case-insensitively.
func (t *Ticket) MatchesKeyword(keywords []string) bool {
	subject := strings.ToLower(t.Subject)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(subject, kw) {
			return true
		}
	}
	return false
}
