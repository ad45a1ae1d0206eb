package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()

	assert.NotNil(t, m.TicketsCreated)
	assert.NotNil(t, m.APIErrors)
	assert.NotNil(t, m.Notifications)
	assert.NotNil(t, m.Registry())

	// Independent registries: constructing twice must not panic
	assert.NotPanics(t, func() { NewMetrics() })
}

func TestRecorders(t *testing.T) {
	m := NewMetrics()

	m.TicketCreated("problem")
	m.TicketCreated("problem")
	m.TicketCreated("incident")
	m.APIError("create_ticket", 500)
	m.Notification("new", "created")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TicketsCreated.WithLabelValues("problem")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TicketsCreated.WithLabelValues("incident")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIErrors.WithLabelValues("create_ticket", "500")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("new", "created")))
}

func TestRequestTrackingMiddleware(t *testing.T) {
	m := NewMetrics()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/groups/{project}/{group}/issue-url", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	ts := httptest.NewServer(m.RequestTrackingMiddleware(mux))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/groups/default/42/issue-url")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	route := "GET /api/groups/{project}/{group}/issue-url"
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", route, "418")))

	resp, err = http.Get(ts.URL + "/nowhere")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}
