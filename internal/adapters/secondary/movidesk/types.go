package movidesk

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
)

// flexID decodes an identifier sent either as a JSON number or a string.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type personDTO struct {
	ID           flexID `json:"id"`
	BusinessName string `json:"businessName"`
}

type assetDTO struct {
	ID   flexID `json:"id"`
	Name string `json:"name"`
}

type actionDTO struct {
	ID          flexID `json:"id"`
	Description string `json:"description"`
}

type ticketDTO struct {
	ID            flexID      `json:"id"`
	Subject       string      `json:"subject"`
	Status        string      `json:"status"`
	Owner         *personDTO  `json:"owner"`
	Clients       []personDTO `json:"clients"`
	Assets        []assetDTO  `json:"assets"`
	Actions       []actionDTO `json:"actions"`
	Justification string      `json:"justification"`
	CreatedDate   string      `json:"createdDate"`
}

func (d ticketDTO) toDomain() domain.Ticket {
	t := domain.Ticket{
		ID:            string(d.ID),
		Subject:       d.Subject,
		Status:        d.Status,
		Justification: d.Justification,
		CreatedDate:   d.CreatedDate,
	}
	// The API sends an empty object for unowned tickets on some tenants.
	if d.Owner != nil && (d.Owner.ID != "" || d.Owner.BusinessName != "") {
		t.Owner = &domain.Person{ID: string(d.Owner.ID), BusinessName: d.Owner.BusinessName}
	}
	for _, c := range d.Clients {
		t.Clients = append(t.Clients, domain.Person{ID: string(c.ID), BusinessName: c.BusinessName})
	}
	for _, a := range d.Assets {
		t.Assets = append(t.Assets, domain.Asset{ID: string(a.ID), Name: a.Name})
	}
	for _, a := range d.Actions {
		t.Actions = append(t.Actions, domain.Action{ID: string(a.ID), Description: a.Description})
	}
	return t
}
