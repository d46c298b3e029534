package services

import (
	"sort"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
)

// ActionKind is the mirror write decided for a live ticket.
type ActionKind string

const (
	ActionSkip    ActionKind = "skip"
	ActionCreate  ActionKind = "create"
	ActionUpdate  ActionKind = "update"
	ActionArchive ActionKind = "archive"
)

// TicketAction is the decision for one live ticket: the mirror write to
// perform and the alerts that may fire before it. Alerts are candidates; the
// notified-tag store decides whether they are actually sent.
type TicketAction struct {
	Kind   ActionKind
	Ticket *domain.Ticket
	PageID string
	Record domain.MirrorRecord
	Alerts []domain.Alert
}

// VanishedRecord is a mirror record whose ticket is no longer active.
type VanishedRecord struct {
	TicketID string
	PageID   string
}

// TicketPlan is the full reconciliation of one snapshot pair.
type TicketPlan struct {
	Actions  []TicketAction
	Vanished []VanishedRecord
}

// Count returns how many actions of kind the plan holds, vanished records
// included for ActionArchive.
func (p TicketPlan) Count(kind ActionKind) int {
	n := 0
	for _, a := range p.Actions {
		if a.Kind == kind {
			n++
		}
	}
	if kind == ActionArchive {
		n += len(p.Vanished)
	}
	return n
}

// PlanTicketSync diffs the live tickets against the mirror index.
//
// A live ticket outside the valid statuses is archived if mirrored. A ticket
// with an owner and assets is created or updated, preceded by a
// fully-assigned alert. A ticket with neither whose subject matches a keyword
// yields a no-owner alert and no write. Mirror entries whose ticket is absent
// from the live set are archived. Repeated ticket ids keep the first
// occurrence.
func PlanTicketSync(tickets []domain.Ticket, index domain.MirrorIndex, rules domain.SyncRules) TicketPlan {
	var plan TicketPlan
	seen := make(map[string]bool, len(tickets))

	for i := range tickets {
		t := &tickets[i]
		if t.ID == "" || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		plan.Actions = append(plan.Actions, planTicket(t, index, rules))
	}

	for ticketID, pageID := range index {
		if !seen[ticketID] {
			plan.Vanished = append(plan.Vanished, VanishedRecord{TicketID: ticketID, PageID: pageID})
		}
	}
	sort.Slice(plan.Vanished, func(i, j int) bool {
		return plan.Vanished[i].TicketID < plan.Vanished[j].TicketID
	})

	return plan
}

func planTicket(t *domain.Ticket, index domain.MirrorIndex, rules domain.SyncRules) TicketAction {
	action := TicketAction{Kind: ActionSkip, Ticket: t}
	pageID, mirrored := index.PageID(t.ID)

	label, active := rules.Statuses.Resolve(t.Status)
	if !active {
		if mirrored {
			action.Kind = ActionArchive
			action.PageID = pageID
		}
		return action
	}

	if t.IsUnassigned() && t.MatchesKeyword(rules.Keywords) {
		action.Alerts = append(action.Alerts, domain.NewNoOwnerAlert(t))
	}

	if !t.IsFullyAssigned() {
		return action
	}

	action.Record = domain.NewMirrorRecord(t, label)
	action.Alerts = append(action.Alerts, domain.NewFullyAssignedAlert(t, action.Record))
	if mirrored {
		action.Kind = ActionUpdate
		action.PageID = pageID
	} else {
		action.Kind = ActionCreate
	}
	return action
}
