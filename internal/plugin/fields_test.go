package plugin

import (
	"testing"

	"deskbridge/internal/config"
	"deskbridge/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkExistingFields(t *testing.T) {
	h := newHandler(newProject(false, false), db.NewMemoryStore(), new(MockTicketAPI))
	fields := h.LinkExistingFields(testGroup)

	require.Len(t, fields, 2)
	assert.Equal(t, "issue_id", fields[0].Name)
	assert.True(t, fields[0].HasAutocomplete)
	assert.Equal(t, "comment", fields[1].Name)
	assert.Equal(t, testGroup.URL, fields[1].Default)
	assert.False(t, fields[1].Required)
}

func TestConfigFields(t *testing.T) {
	t.Run("password never echoed", func(t *testing.T) {
		h := newHandler(newProject(true, false), db.NewMemoryStore(), new(MockTicketAPI))
		fields, err := h.ConfigFields("default")
		require.NoError(t, err)
		require.Len(t, fields, 5)

		byName := map[string]Field{}
		for _, f := range fields {
			byName[f.Name] = f
		}
		assert.Equal(t, "https://acme.zendesk.com", byName["zendesk_url"].Default)
		assert.Equal(t, "", byName["password"].Default)
		assert.True(t, byName["password"].HasSavedValue)
		assert.False(t, byName["password"].Required)
		assert.Equal(t, true, byName["auto_create_problems"].Default)
		assert.Equal(t, false, byName["auto_create_incidents"].Default)
	})

	t.Run("fresh project requires password", func(t *testing.T) {
		fields := configFields(config.Project{ID: "new"})
		assert.True(t, fields[2].Required)
		assert.False(t, fields[2].HasSavedValue)
	})
}
