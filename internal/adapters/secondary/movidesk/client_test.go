package movidesk

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	apperrors "github.com/lorrc/helpdesk-bridge/internal/core/errors"
	"github.com/lorrc/helpdesk-bridge/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, server *httptest.Server, pageSize int) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:    server.URL,
		Token:      "secret-token",
		PageSize:   pageSize,
		Statuses:   []string{"Novo", "Em atendimento"},
		HTTPClient: server.Client(),
		Logger:     logging.Discard(),
	})
	require.NoError(t, err)
	return client
}

func ticketsJSON(from, to int) string {
	items := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		items = append(items, fmt.Sprintf(`{"id": %d, "subject": "t%d", "status": "Novo"}`, i, i))
	}
	return "[" + strings.Join(items, ",") + "]"
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestStatusFilter(t *testing.T) {
	assert.Equal(t, "(status eq 'Em atendimento' or status eq 'Novo')", StatusFilter([]string{"Novo", "Em atendimento", " "}))
	assert.Equal(t, "(status eq 'D''Ávila')", StatusFilter([]string{"D'Ávila"}))
	assert.Empty(t, StatusFilter(nil))
}

func TestClient_ListActiveTickets_Query(t *testing.T) {
	var got http.Header
	var query map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tickets", r.URL.Path)
		got = r.Header
		query = r.URL.Query()
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	_, err := newTestClient(t, server, 85).ListActiveTickets(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, []string{"secret-token"}, query["token"])
	assert.Equal(t, []string{"createdDate desc"}, query["$orderby"])
	assert.Equal(t, []string{"85"}, query["$top"])
	assert.Equal(t, []string{"0"}, query["$skip"])
	assert.Equal(t, []string{selectFields}, query["$select"])
	assert.Equal(t, []string{expandFields}, query["$expand"])
	assert.Equal(t, []string{"(status eq 'Em atendimento' or status eq 'Novo')"}, query["$filter"])
}

func TestClient_ListActiveTickets_Pagination(t *testing.T) {
	var skips []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		skip, _ := strconv.Atoi(r.URL.Query().Get("$skip"))
		skips = append(skips, skip)
		switch skip {
		case 0:
			fmt.Fprint(w, ticketsJSON(0, 3))
		case 3:
			// Overlaps the previous page, as happens when tickets arrive mid-fetch.
			fmt.Fprint(w, ticketsJSON(2, 5))
		default:
			fmt.Fprint(w, ticketsJSON(5, 6))
		}
	}))
	defer server.Close()

	tickets, err := newTestClient(t, server, 3).ListActiveTickets(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{0, 3, 6}, skips)
	ids := make([]string, 0, len(tickets))
	for _, tk := range tickets {
		ids = append(ids, tk.ID)
	}
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5"}, ids)
}

func TestClient_ListActiveTickets_PartialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("$skip") == "0" {
			fmt.Fprint(w, ticketsJSON(0, 2))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"message":"upstream down"}`)
	}))
	defer server.Close()

	tickets, err := newTestClient(t, server, 2).ListActiveTickets(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
	assert.True(t, apperrors.IsStatus(err, http.StatusBadGateway))
	assert.Len(t, tickets, 2, "tickets gathered before the failure are returned")
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestClient_ListActiveTickets_TransportErrorRedactsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(t, server, 85)
	server.Close()

	_, err := client.ListActiveTickets(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
	assert.NotContains(t, err.Error(), "secret-token")
	assert.Contains(t, err.Error(), "REDACTED")
}

func TestClient_ListActiveTickets_Decoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{
				"id": "4512",
				"subject": "Notebook para evento",
				"status": "Em atendimento",
				"owner": {"id": "77", "businessName": "Ana"},
				"clients": [{"id": 9, "businessName": "ACME"}, {"id": 10, "businessName": "Globex"}],
				"assets": [{"id": 1, "name": "NB-07"}, {"id": "2", "name": "MOUSE-1"}],
				"actions": [{"id": 1, "description": "Preciso para sexta"}],
				"justification": "",
				"createdDate": "2024-05-02T10:00:00"
			},
			{"id": 4511, "subject": "Zoom", "status": "Novo", "owner": {}, "clients": [], "assets": null}
		]`)
	}))
	defer server.Close()

	tickets, err := newTestClient(t, server, 85).ListActiveTickets(context.Background())
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	first := tickets[0]
	assert.Equal(t, "4512", first.ID)
	require.NotNil(t, first.Owner)
	assert.Equal(t, "Ana", first.Responsible())
	assert.Equal(t, "ACME", first.Requester())
	assert.Equal(t, "NB-07, MOUSE-1", first.AssetList())
	assert.Equal(t, "2", first.Assets[1].ID)
	assert.Equal(t, "Preciso para sexta", first.Description())
	assert.True(t, first.IsFullyAssigned())

	second := tickets[1]
	assert.Equal(t, "4511", second.ID)
	assert.Nil(t, second.Owner)
	assert.True(t, second.IsUnassigned())
}

func TestClient_ListActiveTickets_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"not": "a list"}`)
	}))
	defer server.Close()

	_, err := newTestClient(t, server, 85).ListActiveTickets(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}
