package plugin

import "fmt"

// Group is an issue group on the monitoring platform.
type Group struct {
	ID        string `json:"id"`
	ProjectID string `json:"project,omitempty"`
	Title     string `json:"title"`
	// URL is the canonical, absolute link to the group.
	URL string `json:"url"`
}

// scope is the metadata store scope for the group's values.
func (g Group) scope() string {
	project := g.ProjectID
	if project == "" {
		project = "default"
	}
	return fmt.Sprintf("%s/%s", project, g.ID)
}

// Event is a single occurrence within a group.
type Event struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}

// Choice is one autocomplete suggestion.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// LinkForm is submitted when a user links a group to an existing ticket.
type LinkForm struct {
	IssueID string `json:"issue_id"`
	Comment string `json:"comment,omitempty"`
}

// Field describes one input of a form rendered by the host.
type Field struct {
	Name            string      `json:"name"`
	Label           string      `json:"label"`
	Type            string      `json:"type"`
	Default         interface{} `json:"default"`
	Placeholder     string      `json:"placeholder,omitempty"`
	Help            string      `json:"help,omitempty"`
	Required        bool        `json:"required"`
	HasAutocomplete bool        `json:"has_autocomplete,omitempty"`
	HasSavedValue   bool        `json:"has_saved_value,omitempty"`
}

// TicketEvent is passed to observers after a ticket was auto-created.
type TicketEvent struct {
	ProjectID  string
	Group      Group
	Event      Event
	TicketID   string
	TicketType string
	// ProblemID is set for incidents.
	ProblemID string
	TicketURL string
}
