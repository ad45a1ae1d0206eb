package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"deskbridge/internal/config"
	"deskbridge/internal/db"
	apierrors "deskbridge/internal/errors"
	"deskbridge/internal/telemetry"
	"deskbridge/internal/zendesk"
)

// LinkKey is the metadata key holding the problem ticket linked to a group.
const LinkKey = "deskbridge:tid"

// Notification kinds and outcomes reported to the Recorder.
const (
	KindNew    = "new"
	KindRepeat = "repeat"

	OutcomeDisabled      = "disabled"
	OutcomeSkipped       = "skipped"
	OutcomeAlreadyLinked = "already_linked"
	OutcomeNoProblem     = "no_problem"
	OutcomeCreated       = "created"
	OutcomeError         = "error"
)

var (
	// ErrNotConfigured is returned by UI-facing calls when the project has
	// no helpdesk URL.
	ErrNotConfigured = errors.New("helpdesk integration is not configured")
	// ErrNotImplemented is returned by CreateAndLink.
	ErrNotImplemented = errors.New("this feature is not implemented yet")
)

// Plugin is the contract between the host platform and the integration.
type Plugin interface {
	OnNewIssue(ctx context.Context, group Group, event Event) error
	OnRepeatIssue(ctx context.Context, group Group, event Event) error
	PostProcess(ctx context.Context, group Group, event Event, isNew, isSample bool) error

	SearchTickets(ctx context.Context, group Group, query, field string) (map[string][]Choice, error)
	LinkExisting(ctx context.Context, group Group, form LinkForm) (map[string]string, error)
	CreateAndLink(ctx context.Context, group Group, form LinkForm) (map[string]string, error)
	IssueURL(group Group, ticketID string) (string, error)
	IssueLabel(ticketID string) string
	Unlink(ctx context.Context, group Group) error

	IsConfigured(projectID string) (bool, error)
	LinkExistingFields(group Group) []Field
	ConfigFields(projectID string) ([]Field, error)
}

// ClientFactory builds a helpdesk client for a project.
type ClientFactory func(p config.Project, logger *slog.Logger) zendesk.TicketAPI

// DefaultClientFactory returns a *zendesk.Client for the project.
func DefaultClientFactory(p config.Project, logger *slog.Logger) zendesk.TicketAPI {
	opts := []zendesk.Option{zendesk.WithLogger(logger)}
	if p.InsecureSkipVerify {
		opts = append(opts, zendesk.WithInsecureSkipVerify())
	}
	return zendesk.NewClient(p.ZendeskURL, p.Username, p.Password, opts...)
}

// Recorder receives counters for ticket operations. *metrics.Metrics
// satisfies it.
type Recorder interface {
	TicketCreated(ticketType string)
	APIError(operation string, status int)
	Notification(kind, outcome string)
}

// TicketObserver is told about every auto-created ticket.
type TicketObserver interface {
	OnTicketCreated(ctx context.Context, ev TicketEvent) error
}

type nopRecorder struct{}

func (nopRecorder) TicketCreated(string) {}

func (nopRecorder) APIError(string, int) {}

func (nopRecorder) Notification(string, string) {}

// Handler implements Plugin on top of a config source and a metadata store.
type Handler struct {
	source    config.Source
	store     db.MetadataStore
	newClient ClientFactory
	logger    *slog.Logger
	recorder  Recorder
	observers []TicketObserver
}

var _ Plugin = (*Handler)(nil)

// Option customises a Handler.
type Option func(*Handler)

// WithClientFactory replaces DefaultClientFactory.
func WithClientFactory(f ClientFactory) Option {
	return func(h *Handler) { h.newClient = f }
}

// WithLogger sets the handler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(h *Handler) { h.recorder = r }
}

// WithObserver adds a ticket observer.
func WithObserver(o TicketObserver) Option {
	return func(h *Handler) { h.observers = append(h.observers, o) }
}

// New creates a Handler.
func New(source config.Source, store db.MetadataStore, opts ...Option) *Handler {
	h := &Handler{
		source:    source,
		store:     store,
		newClient: DefaultClientFactory,
		logger:    slog.Default(),
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = telemetry.Component(h.logger, "plugin")
	return h
}

// IsConfigured reports whether the project has a helpdesk URL.
func (h *Handler) IsConfigured(projectID string) (bool, error) {
	p, err := h.source.Project(projectID)
	if err != nil {
		return false, err
	}
	return p.Configured(), nil
}

// PostProcess is called for every event the host receives.
func (h *Handler) PostProcess(ctx context.Context, group Group, event Event, isNew, isSample bool) error {
	h.logger.Info("event received", "event_id", event.ID, "group_id", group.ID, "is_new", isNew, "is_sample", isSample)
	if isNew {
		return h.OnNewIssue(ctx, group, event)
	}
	return h.OnRepeatIssue(ctx, group, event)
}

// OnNewIssue creates a problem ticket for a group seen for the first time
// and links it to the group.
func (h *Handler) OnNewIssue(ctx context.Context, group Group, event Event) error {
	p, err := h.source.Project(group.ProjectID)
	if err != nil {
		h.recorder.Notification(KindNew, OutcomeError)
		return fmt.Errorf("failed to load project config: %w", err)
	}
	if !p.Configured() {
		h.recorder.Notification(KindNew, OutcomeDisabled)
		return nil
	}
	if !p.AutoCreateProblems {
		h.recorder.Notification(KindNew, OutcomeSkipped)
		return nil
	}

	logger := h.logger.With("group_id", group.ID, "project", p.ID)
	logger.Info("new problem")

	problemID, found, err := h.linkedTicket(ctx, group)
	if err != nil {
		h.recorder.Notification(KindNew, OutcomeError)
		return err
	}
	if found {
		logger.Error("there is already a problem linked to this group", "ticket_id", problemID)
		h.recorder.Notification(KindNew, OutcomeAlreadyLinked)
		return nil
	}

	logger.Info("creating new problem")
	ticketID, err := h.createTicket(ctx, p, group, event, zendesk.TypeProblem, "")
	if err != nil {
		h.recorder.Notification(KindNew, OutcomeError)
		return err
	}

	if err := h.store.Set(ctx, group.scope(), LinkKey, ticketID); err != nil {
		h.recorder.Notification(KindNew, OutcomeError)
		return fmt.Errorf("failed to store ticket link: %w", err)
	}

	h.recorder.Notification(KindNew, OutcomeCreated)
	h.notifyObservers(ctx, p, group, event, ticketID, zendesk.TypeProblem, "")
	return nil
}

// OnRepeatIssue creates an incident ticket pointing at the group's problem.
// The stored link is left untouched.
func (h *Handler) OnRepeatIssue(ctx context.Context, group Group, event Event) error {
	p, err := h.source.Project(group.ProjectID)
	if err != nil {
		h.recorder.Notification(KindRepeat, OutcomeError)
		return fmt.Errorf("failed to load project config: %w", err)
	}
	if !p.Configured() {
		h.recorder.Notification(KindRepeat, OutcomeDisabled)
		return nil
	}
	if !p.AutoCreateIncidents {
		h.recorder.Notification(KindRepeat, OutcomeSkipped)
		return nil
	}

	logger := h.logger.With("group_id", group.ID, "project", p.ID)

	problemID, found, err := h.linkedTicket(ctx, group)
	if err != nil {
		h.recorder.Notification(KindRepeat, OutcomeError)
		return err
	}
	if !found || problemID == "" {
		logger.Info("cannot create incident because there is no linked problem")
		h.recorder.Notification(KindRepeat, OutcomeNoProblem)
		return nil
	}

	logger.Info("creating new incident", "problem_id", problemID)
	ticketID, err := h.createTicket(ctx, p, group, event, zendesk.TypeIncident, problemID)
	if err != nil {
		h.recorder.Notification(KindRepeat, OutcomeError)
		return err
	}

	h.recorder.Notification(KindRepeat, OutcomeCreated)
	h.notifyObservers(ctx, p, group, event, ticketID, zendesk.TypeIncident, problemID)
	return nil
}

// SearchTickets powers the ticket autocomplete. Results keep the helpdesk's
// order and are keyed by the requesting field name.
func (h *Handler) SearchTickets(ctx context.Context, group Group, query, field string) (map[string][]Choice, error) {
	p, err := h.configuredProject(group.ProjectID)
	if err != nil {
		return nil, err
	}

	result, err := h.newClient(p, h.logger).SearchTickets(ctx, query)
	if err != nil {
		h.recordAPIError("search_tickets", err)
		return nil, fmt.Errorf("failed to search tickets: %w", err)
	}

	choices := make([]Choice, 0, len(result.Results))
	for _, t := range result.Results {
		id := t.IDString()
		choices = append(choices, Choice{
			ID:   id,
			Text: fmt.Sprintf("(%s) %s", id, t.Subject),
		})
	}
	return map[string][]Choice{field: choices}, nil
}

// LinkExisting associates the group with an existing ticket. The link is only
// written when the group has none, so an auto-created problem is never
// replaced.
func (h *Handler) LinkExisting(ctx context.Context, group Group, form LinkForm) (map[string]string, error) {
	if _, err := h.configuredProject(group.ProjectID); err != nil {
		return nil, err
	}
	if form.IssueID == "" {
		return nil, errors.New("issue_id is required")
	}

	current, found, err := h.linkedTicket(ctx, group)
	if err != nil {
		return nil, err
	}
	if found {
		h.logger.Info("group already linked, keeping existing link",
			"group_id", group.ID, "ticket_id", current, "requested", form.IssueID)
	} else if err := h.store.Set(ctx, group.scope(), LinkKey, form.IssueID); err != nil {
		return nil, fmt.Errorf("failed to store ticket link: %w", err)
	}

	// TODO: post form.Comment to the ticket once the client supports updates.
	return map[string]string{"title": form.IssueID}, nil
}

// CreateAndLink is not supported.
func (h *Handler) CreateAndLink(ctx context.Context, group Group, form LinkForm) (map[string]string, error) {
	return nil, ErrNotImplemented
}

// IssueURL returns the helpdesk page of a ticket.
func (h *Handler) IssueURL(group Group, ticketID string) (string, error) {
	p, err := h.configuredProject(group.ProjectID)
	if err != nil {
		return "", err
	}
	return zendesk.TicketURL(p.ZendeskURL, ticketID), nil
}

// IssueLabel is the short text shown for a linked ticket.
func (h *Handler) IssueLabel(ticketID string) string {
	return "#" + ticketID
}

// Unlink removes the group's ticket link. The next new-issue notification
// for the group creates a fresh problem.
func (h *Handler) Unlink(ctx context.Context, group Group) error {
	if _, err := h.configuredProject(group.ProjectID); err != nil {
		return err
	}
	if err := h.store.Delete(ctx, group.scope(), LinkKey); err != nil {
		return fmt.Errorf("failed to remove ticket link: %w", err)
	}
	h.logger.Info("unlinked group", "group_id", group.ID, "project", group.ProjectID)
	return nil
}

// LinkedTicket returns the ticket linked to the group, if any.
func (h *Handler) LinkedTicket(ctx context.Context, group Group) (string, bool, error) {
	return h.linkedTicket(ctx, group)
}

func (h *Handler) linkedTicket(ctx context.Context, group Group) (string, bool, error) {
	id, found, err := h.store.Get(ctx, group.scope(), LinkKey)
	if err != nil {
		return "", false, fmt.Errorf("failed to read ticket link: %w", err)
	}
	// An empty value is a cleared link, not a ticket.
	return id, found && id != "", nil
}

func (h *Handler) configuredProject(projectID string) (config.Project, error) {
	p, err := h.source.Project(projectID)
	if err != nil {
		return config.Project{}, err
	}
	if !p.Configured() {
		return config.Project{}, ErrNotConfigured
	}
	return p, nil
}

func (h *Handler) createTicket(ctx context.Context, p config.Project, group Group, event Event, ticketType, problemID string) (string, error) {
	title := event.Title
	if title == "" {
		title = group.Title
	}
	comment := fmt.Sprintf("[%[1]s](%[1]s)", group.URL)

	ticketID, err := h.newClient(p, h.logger).CreateTicket(ctx, title, comment, ticketType, problemID)
	if err != nil {
		h.recordAPIError("create_ticket", err)
		return "", fmt.Errorf("failed to create %s ticket: %w", ticketType, err)
	}
	h.recorder.TicketCreated(ticketType)
	return ticketID, nil
}

func (h *Handler) recordAPIError(operation string, err error) {
	status := 0
	temporary := false
	if apiErr, ok := apierrors.AsAPIError(err); ok {
		status = apiErr.StatusCode
		temporary = apiErr.Temporary()
	}
	h.recorder.APIError(operation, status)
	h.logger.Warn("helpdesk call failed", "operation", operation, "status", status, "temporary", temporary, "error", err)
}

func (h *Handler) notifyObservers(ctx context.Context, p config.Project, group Group, event Event, ticketID, ticketType, problemID string) {
	if len(h.observers) == 0 {
		return
	}
	ev := TicketEvent{
		ProjectID:  p.ID,
		Group:      group,
		Event:      event,
		TicketID:   ticketID,
		TicketType: ticketType,
		ProblemID:  problemID,
		TicketURL:  zendesk.TicketURL(p.ZendeskURL, ticketID),
	}
	for _, o := range h.observers {
		if err := o.OnTicketCreated(ctx, ev); err != nil {
			h.logger.Warn("ticket observer failed", "ticket_id", ticketID, "error", err)
		}
	}
}
