package services_test

import (
	"testing"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/lorrc/helpdesk-bridge/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func owned(id, subject string, assets ...string) domain.Ticket {
	t := domain.Ticket{
		ID:          id,
		Subject:     subject,
		Status:      "Em atendimento",
		Owner:       &domain.Person{ID: "o-1", BusinessName: "Ana"},
		Clients:     []domain.Person{{ID: "c-1", BusinessName: "ACME"}},
		Actions:     []domain.Action{{ID: "1", Description: "Reservar notebook"}},
		CreatedDate: "2024-05-02T10:00:00",
	}
	for i, name := range assets {
		t.Assets = append(t.Assets, domain.Asset{ID: string(rune('a' + i)), Name: name})
	}
	return t
}

func unowned(id, subject string) domain.Ticket {
	return domain.Ticket{
		ID:          id,
		Subject:     subject,
		Status:      "Novo",
		Clients:     []domain.Person{{ID: "c-2", BusinessName: "Globex"}},
		CreatedDate: "2024-05-01T09:00:00",
	}
}

func TestPlanTicketSync(t *testing.T) {
	rules := domain.DefaultSyncRules()

	closed := owned("7", "Troca de teclado", "KB-1")
	closed.Status = "Fechado"

	shouting := owned("8", "Projetor", "PJ-1")
	shouting.Status = "NOVO"

	ownerOnly := owned("9", "Reunião de alinhamento")

	tests := []struct {
		name       string
		ticket     domain.Ticket
		index      domain.MirrorIndex
		wantKind   services.ActionKind
		wantPage   string
		wantAlerts []domain.AlertKind
	}{
		{
			name:       "unassigned with keyword alerts without writing",
			ticket:     unowned("100", "Preciso de um notebook"),
			wantKind:   services.ActionSkip,
			wantAlerts: []domain.AlertKind{domain.AlertNoOwner},
		},
		{
			name:     "unassigned without keyword is ignored",
			ticket:   unowned("1", "Senha expirada"),
			wantKind: services.ActionSkip,
		},
		{
			name:     "owner without assets is ignored",
			ticket:   ownerOnly,
			wantKind: services.ActionSkip,
		},
		{
			name:       "fully assigned and not mirrored is created",
			ticket:     owned("101", "Notebook para viagem", "NB-07"),
			wantKind:   services.ActionCreate,
			wantAlerts: []domain.AlertKind{domain.AlertFullyAssigned},
		},
		{
			name:       "fully assigned and mirrored is updated",
			ticket:     owned("101", "Notebook para viagem", "NB-07"),
			index:      domain.MirrorIndex{"101": "page-101"},
			wantKind:   services.ActionUpdate,
			wantPage:   "page-101",
			wantAlerts: []domain.AlertKind{domain.AlertFullyAssigned},
		},
		{
			name:     "invalid status and mirrored is archived",
			ticket:   closed,
			index:    domain.MirrorIndex{"7": "page-7"},
			wantKind: services.ActionArchive,
			wantPage: "page-7",
		},
		{
			name:     "invalid status and not mirrored is ignored",
			ticket:   closed,
			wantKind: services.ActionSkip,
		},
		{
			name:       "status match ignores case",
			ticket:     shouting,
			wantKind:   services.ActionCreate,
			wantAlerts: []domain.AlertKind{domain.AlertFullyAssigned},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := tt.index
			if index == nil {
				index = domain.MirrorIndex{}
			}
			plan := services.PlanTicketSync([]domain.Ticket{tt.ticket}, index, rules)

			require.Len(t, plan.Actions, 1)
			assert.Empty(t, plan.Vanished)

			action := plan.Actions[0]
			assert.Equal(t, tt.wantKind, action.Kind)
			assert.Equal(t, tt.wantPage, action.PageID)

			var kinds []domain.AlertKind
			for _, a := range action.Alerts {
				kinds = append(kinds, a.Kind)
			}
			assert.Equal(t, tt.wantAlerts, kinds)
		})
	}
}

func TestPlanTicketSync_Record(t *testing.T) {
	ticket := owned("8", "Projetor", "PJ-1", "HDMI")
	ticket.Status = "novo"

	plan := services.PlanTicketSync([]domain.Ticket{ticket}, domain.MirrorIndex{}, domain.DefaultSyncRules())

	require.Len(t, plan.Actions, 1)
	rec := plan.Actions[0].Record
	assert.Equal(t, "8", rec.TicketID)
	assert.Equal(t, "Novo", rec.Status)
	assert.Equal(t, "PJ-1, HDMI", rec.Assets)
	assert.Equal(t, "Ana", rec.Responsible)
	assert.Equal(t, "ACME", rec.Requester)
	assert.Equal(t, "Reservar notebook", rec.Body)
}

func TestPlanTicketSync_Vanished(t *testing.T) {
	index := domain.MirrorIndex{
		"101": "page-101",
		"300": "page-300",
		"102": "page-102",
	}

	plan := services.PlanTicketSync([]domain.Ticket{owned("101", "Notebook", "NB-07")}, index, domain.DefaultSyncRules())

	assert.Equal(t, []services.VanishedRecord{
		{TicketID: "102", PageID: "page-102"},
		{TicketID: "300", PageID: "page-300"},
	}, plan.Vanished)
	assert.Equal(t, 2, plan.Count(services.ActionArchive))
	assert.Equal(t, 1, plan.Count(services.ActionUpdate))
	assert.Equal(t, 0, plan.Count(services.ActionCreate))
}

func TestPlanTicketSync_DuplicateIDs(t *testing.T) {
	first := owned("5", "Notebook", "NB-01")
	second := owned("5", "Notebook", "NB-99")
	blank := owned("", "Sem id", "NB-02")

	plan := services.PlanTicketSync([]domain.Ticket{first, second, blank}, domain.MirrorIndex{}, domain.DefaultSyncRules())

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, "NB-01", plan.Actions[0].Record.Assets)
}

func TestPlanTicketSync_EmptyInputs(t *testing.T) {
	plan := services.PlanTicketSync(nil, domain.MirrorIndex{"1": "page-1"}, domain.DefaultSyncRules())

	assert.Empty(t, plan.Actions)
	assert.Equal(t, []services.VanishedRecord{{TicketID: "1", PageID: "page-1"}}, plan.Vanished)
}
