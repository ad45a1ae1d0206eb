package plugin

import "deskbridge/internal/config"

// LinkExistingFields describes the form shown when linking a group to an
// existing ticket.
func (h *Handler) LinkExistingFields(group Group) []Field {
	return []Field{
		{
			Name:            "issue_id",
			Label:           "Ticket",
			Type:            "select",
			Default:         "",
			Required:        true,
			HasAutocomplete: true,
		},
		{
			Name:    "comment",
			Label:   "Comment",
			Type:    "textarea",
			Default: group.URL,
			Help:    "Leave blank if you don't want to add a comment to the Zendesk ticket.",
		},
	}
}

// ConfigFields describes the per-project settings form. The stored password
// is never echoed back.
func (h *Handler) ConfigFields(projectID string) ([]Field, error) {
	p, err := h.source.Project(projectID)
	if err != nil {
		return nil, err
	}
	return configFields(p), nil
}

func configFields(p config.Project) []Field {
	password := Field{
		Name:     "password",
		Label:    "Password",
		Type:     "secret",
		Default:  "",
		Required: p.Password == "",
	}
	if p.Password != "" {
		password.HasSavedValue = true
		password.Help = "Only enter a new password if you wish to update the stored value"
	}

	return []Field{
		{
			Name:        "zendesk_url",
			Label:       "Zendesk URL",
			Type:        "text",
			Default:     p.ZendeskURL,
			Placeholder: `e.g. "https://mycompany.zendesk.com"`,
			Help:        "It must be visible to the deskbridge server",
			Required:    true,
		},
		{
			Name:     "username",
			Label:    "Username",
			Type:     "text",
			Default:  p.Username,
			Help:     "Ensure the Zendesk user has admin permissions on the project",
			Required: true,
		},
		password,
		{
			Name:    "auto_create_problems",
			Label:   "Automatically create Zendesk problems",
			Type:    "bool",
			Default: p.AutoCreateProblems,
			Help:    "Automatically create a Zendesk ticket of type problem for EVERY new issue",
		},
		{
			Name:    "auto_create_incidents",
			Label:   "Automatically create Zendesk incidents",
			Type:    "bool",
			Default: p.AutoCreateIncidents,
			Help: "Automatically create a Zendesk ticket of type incident for EVERY event " +
				"after the first one, linking it to the previously created problem.",
		},
	}
}
