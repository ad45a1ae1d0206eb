package zendesk

import (
	"encoding/json"
	"strconv"
	"time"
)

// Ticket types understood by the helpdesk.
const (
	TypeProblem  = "problem"
	TypeIncident = "incident"
)

// NewTicket is the payload sent to the create endpoint.
type NewTicket struct {
	Type      string `json:"type"`
	Subject   string `json:"subject"`
	Comment   string `json:"comment"`
	ProblemID string `json:"problem_id,omitempty"`
}

type createRequest struct {
	Ticket NewTicket `json:"ticket"`
}

type createResponse struct {
	Ticket Ticket `json:"ticket"`
}

// Ticket is a helpdesk ticket as returned by the API. Only the fields the
// bridge reads or displays are decoded.
type Ticket struct {
	ID           int64     `json:"id"`
	URL          string    `json:"url"`
	Type         string    `json:"type"`
	Subject      string    `json:"subject"`
	RawSubject   string    `json:"raw_subject"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	Priority     string    `json:"priority"`
	ProblemID    *int64    `json:"problem_id"`
	HasIncidents bool      `json:"has_incidents"`
	Tags         []string  `json:"tags"`
	ResultType   string    `json:"result_type"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IDString returns the ticket id in the form stored as an issue link.
func (t Ticket) IDString() string {
	return strconv.FormatInt(t.ID, 10)
}

// SearchResponse is the body of the search endpoint.
type SearchResponse struct {
	Results      []Ticket        `json:"results"`
	Count        int             `json:"count"`
	NextPage     *string         `json:"next_page"`
	PreviousPage *string         `json:"previous_page"`
	Facets       json.RawMessage `json:"facets"`
}
