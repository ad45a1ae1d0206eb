package zendesk

import "context"

// TicketAPI defines the helpdesk calls the issue handler depends on.
type TicketAPI interface {
	CreateTicket(ctx context.Context, title, comment, ticketType, problemID string) (string, error)
	SearchTickets(ctx context.Context, query string) (*SearchResponse, error)
}

var _ TicketAPI = (*Client)(nil)
