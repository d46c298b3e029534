package domain

// MirrorRecord is the denormalised copy of a ticket kept in the mirror
// workspace. Body is only written when the record is created.
type MirrorRecord struct {
	TicketID    string
	Title       string
	Requester   string
	Responsible string
	Assets      string
	Status      string
	CreatedDate string
	Body        string
}

// NewMirrorRecord builds the mirror payload for t using the given status
// label.
func NewMirrorRecord(t *Ticket, statusLabel string) MirrorRecord {
	return MirrorRecord{
		TicketID:    t.ID,
		Title:       t.Title(),
		Requester:   t.Requester(),
		Responsible: t.Responsible(),
		Assets:      t.AssetList(),
		Status:      statusLabel,
		CreatedDate: t.Created(),
		Body:        t.Description(),
	}
}

// MirrorIndex maps a ticket id to the mirror page that holds it.
type MirrorIndex map[string]string

// PageID returns the page id mirroring ticketID, if any.
func (m MirrorIndex) PageID(ticketID string) (string, bool) {
	id, ok := m[ticketID]
	return id, ok
}

// Mirror write operations, used as metric labels.
const (
	MirrorOpCreate  = "create"
	MirrorOpUpdate  = "update"
	MirrorOpArchive = "archive"
)
