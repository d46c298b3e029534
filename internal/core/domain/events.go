package domain

import "time"

// CycleKind names one of the independent sync cycles.
type CycleKind string

const (
	CycleTickets   CycleKind = "tickets"
	CycleEquipment CycleKind = "equipment"
)

// IsValid reports whether k names a known cycle.
func (k CycleKind) IsValid() bool {
	return k == CycleTickets || k == CycleEquipment
}

// CycleReport summarises the outcome of one sync cycle.
type CycleReport struct {
	ID         string    `json:"id"`
	Kind       CycleKind `json:"kind"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Fetched    int       `json:"fetched"`
	Created    int       `json:"created"`
	Updated    int       `json:"updated"`
	Archived   int       `json:"archived"`
	Notified   int       `json:"notified"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
}

// Duration returns how long the cycle ran.
func (r *CycleReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the cycle completed without aborting.
func (r *CycleReport) Succeeded() bool {
	return r.Error == ""
}

// EventType defines the type of real-time event.
type EventType string

const (
	EventCycleFinished EventType = "CYCLE_FINISHED"
)

// Event is the payload sent over WebSocket.
type Event struct {
	Type    EventType    `json:"type"`
	Payload *CycleReport `json:"payload"`
}
