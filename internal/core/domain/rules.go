package domain

import (
	"sort"
	"strings"
)

// DefaultKeywords is the curated list of office, equipment and meeting terms
// that flags an unassigned ticket for attention.
var DefaultKeywords = []string{
	"notebook", "notebooks", "caixa de som", "som", "caixinha de som",
	"régua", "régua de energia", "filtro de luz", "extensão",
	"caixa", "reunião", "zoom", "meet", "microfone", "treinamento",
	"reserva", "reservas", "representante", "representantes", "home office", "home", "office",
}

// DefaultStatuses maps the lowercased helpdesk status to the label written to
// the mirror.
var DefaultStatuses = map[string]string{
	"novo":           "Novo",
	"em atendimento": "Em atendimento",
}

// StatusSet is the set of statuses that make a ticket active, keyed by the
// lowercased helpdesk status.
type StatusSet map[string]string

// NewStatusSet normalises the keys of m to lowercase.
func NewStatusSet(m map[string]string) StatusSet {
	set := make(StatusSet, len(m))
	for k, v := range m {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		if v == "" {
			v = k
		}
		set[key] = v
	}
	return set
}

// Resolve returns the mirror label for status and whether it is active.
func (s StatusSet) Resolve(status string) (string, bool) {
	label, ok := s[strings.ToLower(strings.TrimSpace(status))]
	return label, ok
}

// IsActive reports whether status belongs to the set.
func (s StatusSet) IsActive(status string) bool {
	_, ok := s.Resolve(status)
	return ok
}

// Labels returns the mirror labels in a stable order.
func (s StatusSet) Labels() []string {
	labels := make([]string, 0, len(s))
	for _, v := range s {
		labels = append(labels, v)
	}
	sort.Strings(labels)
	return labels
}

// SyncRules carries the business heuristics shared by both sync engines.
type SyncRules struct {
	Keywords []string
	Statuses StatusSet
}

// DefaultSyncRules returns the production keyword list and status map.
func DefaultSyncRules() SyncRules {
	kw := make([]string, len(DefaultKeywords))
	copy(kw, DefaultKeywords)
	return SyncRules{
		Keywords: kw,
		Statuses: NewStatusSet(DefaultStatuses),
	}
}
