package domain

import (
	"sort"
	"strings"
)

// EquipmentStatus is the occupancy state of a piece of equipment.
type EquipmentStatus string

const (
	EquipmentAvailable EquipmentStatus = "Available"
	EquipmentOccupied  EquipmentStatus = "Occupied"
)

// IsValid reports whether s is a known status.
func (s EquipmentStatus) IsValid() bool {
	return s == EquipmentAvailable || s == EquipmentOccupied
}

// EquipmentRecord is an equipment entry in the mirror, keyed by name.
type EquipmentRecord struct {
	PageID string
	Name   string
	Status EquipmentStatus
	Holder string
}

// OccupancyMap maps an equipment name to the label of whoever holds it.
type OccupancyMap map[string]string

// OccupancyConflict records an asset claimed by more than one active ticket.
type OccupancyConflict struct {
	Asset    string
	Previous string
	Winner   string
	TicketID string
}

// BuildOccupancy derives the occupancy map from tickets. Only active tickets
// with a named client and at least one asset contribute; each asset maps to the
// ticket's first client. When an asset appears on several tickets the last
// one in iteration order wins and the clash is returned.
func BuildOccupancy(tickets []Ticket, statuses StatusSet) (OccupancyMap, []OccupancyConflict) {
	occ := make(OccupancyMap)
	var conflicts []OccupancyConflict
	for i := range tickets {
		t := &tickets[i]
		if !statuses.IsActive(t.Status) || !t.HasClient() || !t.HasAssets() {
			continue
		}
		// A nameless client cannot hold equipment.
		holder := strings.TrimSpace(t.Clients[0].BusinessName)
		if holder == "" {
			continue
		}
		for _, a := range t.Assets {
			if a.Name == "" {
				continue
			}
			if prev, ok := occ[a.Name]; ok && prev != holder {
				conflicts = append(conflicts, OccupancyConflict{
					Asset:    a.Name,
					Previous: prev,
					Winner:   holder,
					TicketID: t.ID,
				})
			}
			occ[a.Name] = holder
		}
	}
	return occ, conflicts
}

// EquipmentUpdate is the desired state of one equipment record.
type EquipmentUpdate struct {
	PageID string
	Name   string
	Status EquipmentStatus
	Holder string
}

// Changed reports whether applying u alters rec.
func (u EquipmentUpdate) Changed(rec EquipmentRecord) bool {
	return u.Status != rec.Status || u.Holder != rec.Holder
}

// PlanOccupancy computes the desired state of every known record. Records are
// returned sorted by name so runs are deterministic.
func PlanOccupancy(records []EquipmentRecord, occ OccupancyMap) []EquipmentUpdate {
	updates := make([]EquipmentUpdate, 0, len(records))
	for _, rec := range records {
		u := EquipmentUpdate{PageID: rec.PageID, Name: rec.Name, Status: EquipmentAvailable}
		if holder, ok := occ[rec.Name]; ok {
			u.Status = EquipmentOccupied
			u.Holder = holder
		}
		updates = append(updates, u)
	}
	sort.SliceStable(updates, func(i, j int) bool { return updates[i].Name < updates[j].Name })
	return updates
}
