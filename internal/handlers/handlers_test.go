package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"imet-backend/internal/domain"
	"imet-backend/internal/infrastructure/observability"
	"imet-backend/internal/repository/mocks"
	"imet-backend/internal/service/connection"
	"imet-backend/internal/service/llm"
	"imet-backend/internal/service/nudge"
	"imet-backend/internal/service/summary"
	"imet-backend/pkg/api"
	appErrors "imet-backend/pkg/errors"

	"github.com/go-chi/cors"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router   http.Handler
	repo     *mocks.MockRepository
	provider *llm.MockProvider
	now      time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		repo:     mocks.NewMockRepository(),
		provider: llm.NewMockProvider(),
		now:      time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return ts.now }

	conns := connection.NewService(ts.repo, nil, nil, nil,
		connection.WithClock(clock),
		connection.WithRetry(connection.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond}),
	)
	nudges := nudge.NewService(conns, nil, nudge.WithClock(clock))
	summaries := summary.NewService(ts.provider, summary.DefaultOptions(), nil)

	ts.router = NewRouter(Handlers{
		Connections: NewConnectionHandler(conns, nil, 0),
		Nudges:      NewNudgeHandler(nudges, nil),
		Summaries:   NewSummaryHandler(summaries, nil, 0),
		Health:      NewHealthHandler(ts.repo, nil),
	}, RouterConfig{
		RequestTimeout: 5 * time.Second,
		MetricsPath:    "/metrics",
		CORS:           &cors.Options{AllowedOrigins: []string{"*"}},
	}, observability.NewCollector("test"), nil)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (ts *testServer) create(t *testing.T, body string) *domain.Connection {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/connections", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[api.ConnectionResponse](t, w).Connection
}

func TestConnectionRoutes(t *testing.T) {
	t.Run("Should create and fetch a connection", func(t *testing.T) {
		ts := newTestServer(t)

		w := ts.do(t, http.MethodPost, "/api/connections", `{"name":"Jane","interests":["NBA"]}`)
		require.Equal(t, http.StatusCreated, w.Code)
		created := decode[api.ConnectionResponse](t, w)
		assert.Equal(t, "Connection created successfully", created.Message)
		assert.NotEmpty(t, created.Connection.ID)
		assert.Equal(t, `"1"`, w.Header().Get("ETag"))

		w = ts.do(t, http.MethodGet, "/api/connections/"+created.Connection.ID, "")
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[api.ConnectionResponse](t, w)
		assert.Equal(t, "Jane", *got.Connection.Name)
		assert.Equal(t, []string{"NBA"}, got.Connection.Interests)
	})

	t.Run("Should list connections oldest first", func(t *testing.T) {
		ts := newTestServer(t)
		first := ts.create(t, `{"name":"A"}`)
		ts.now = ts.now.Add(time.Minute)
		second := ts.create(t, `{"name":"B"}`)

		w := ts.do(t, http.MethodGet, "/api/connections", "")
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[api.ListConnectionsResponse](t, w)
		require.Len(t, list.Connections, 2)
		assert.Equal(t, first.ID, list.Connections[0].ID)
		assert.Equal(t, second.ID, list.Connections[1].ID)
	})

	t.Run("Should return an empty array when there are no connections", func(t *testing.T) {
		ts := newTestServer(t)
		w := ts.do(t, http.MethodGet, "/api/connections", "")
		assert.JSONEq(t, `{"connections":[]}`, w.Body.String())
	})

	t.Run("Should update and honour If-Match", func(t *testing.T) {
		ts := newTestServer(t)
		conn := ts.create(t, `{"name":"Jane"}`)
		path := "/api/connections/" + conn.ID

		w := ts.do(t, http.MethodPut, path, `{"name":"Jane Doe"}`, "If-Match", `"1"`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		updated := decode[api.ConnectionResponse](t, w)
		assert.Equal(t, "Connection updated successfully", updated.Message)
		assert.Equal(t, 2, updated.Connection.Version)
		assert.Equal(t, conn.CreatedAt, updated.Connection.CreatedAt)

		w = ts.do(t, http.MethodPut, path, `{"name":"Stale"}`, "If-Match", `"1"`)
		assert.Equal(t, http.StatusConflict, w.Code)

		w = ts.do(t, http.MethodPut, path, `{}`, "If-Match", "abc")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Should delete a connection", func(t *testing.T) {
		ts := newTestServer(t)
		conn := ts.create(t, `{}`)

		w := ts.do(t, http.MethodDelete, "/api/connections/"+conn.ID, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Connection deleted successfully"}`, w.Body.String())

		w = ts.do(t, http.MethodGet, "/api/connections/"+conn.ID, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	errorCases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"missing record on get", http.MethodGet, "/api/connections/nope", "", http.StatusNotFound},
		{"missing record on update", http.MethodPut, "/api/connections/nope", `{}`, http.StatusNotFound},
		{"missing record on delete", http.MethodDelete, "/api/connections/nope", "", http.StatusNotFound},
		{"array body", http.MethodPost, "/api/connections", `[]`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/connections", `{"name":`, http.StatusBadRequest},
		{"wrong field type", http.MethodPost, "/api/connections", `{"interests":"NBA"}`, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/unknown", "", http.StatusNotFound},
	}
	for _, tc := range errorCases {
		t.Run("Should answer "+tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			w := ts.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, w.Code)
			assert.NotEmpty(t, decode[api.ErrorResponse](t, w).Error)
		})
	}

	t.Run("Should hide storage failure details", func(t *testing.T) {
		ts := newTestServer(t)
		ts.repo.SetError("List", appErrors.NewStorage("failed to list connections", errors.New("secret detail")))

		w := ts.do(t, http.MethodGet, "/api/connections", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "secret detail")
	})
}

func TestNudgeRoutes(t *testing.T) {
	t.Run("Should list ranked nudges", func(t *testing.T) {
		ts := newTestServer(t)
		conn := ts.create(t, `{"name":"Ann","interests":["NBA"]}`)
		ts.now = ts.now.Add(15 * 24 * time.Hour)

		w := ts.do(t, http.MethodGet, "/api/nudges", "")
		require.Equal(t, http.StatusOK, w.Code)
		nudges := decode[api.ListNudgesResponse](t, w).Nudges
		require.Len(t, nudges, 2)
		assert.Equal(t, "followup-"+conn.ID, nudges[0].ID)
		assert.Equal(t, "Ann", nudges[0].ConnectionName)
		assert.Equal(t, "basketball-"+conn.ID, nudges[1].ID)
	})

	t.Run("Should return an empty array without connections", func(t *testing.T) {
		ts := newTestServer(t)
		w := ts.do(t, http.MethodGet, "/api/nudges", "")
		assert.JSONEq(t, `{"nudges":[]}`, w.Body.String())
	})

	t.Run("Should acknowledge dismissal", func(t *testing.T) {
		ts := newTestServer(t)
		for _, path := range []string{"/api/nudges", "/api/nudges/followup-1"} {
			w := ts.do(t, http.MethodDelete, path, "")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"message":"Nudge dismissed successfully"}`, w.Body.String())
		}
	})
}

func TestSummaryRoutes(t *testing.T) {
	t.Run("Should summarize and parse", func(t *testing.T) {
		ts := newTestServer(t)
		ts.provider.QueueResponse("Name: Jane Doe\nInterests: Hiking, Reading\n\nLocation: Cafe")

		w := ts.do(t, http.MethodPost, "/api/summaries", `{"text":"met Jane at a cafe"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		res := decode[api.SummarizeResponse](t, w)
		assert.Contains(t, res.Summary, "Jane Doe")
		assert.Equal(t, "Jane Doe", *res.Connection.Name)
		assert.Equal(t, []string{"Hiking", "Reading"}, res.Connection.Interests)
		assert.Equal(t, "met Jane at a cafe", *res.Connection.RawInput)
		assert.Equal(t, 0, ts.repo.Calls("Insert"))
	})

	t.Run("Should prefer the audio transcript", func(t *testing.T) {
		ts := newTestServer(t)

		w := ts.do(t, http.MethodPost, "/api/summaries", `{"text":"typed","audioTranscript":"spoken"}`)
		require.Equal(t, http.StatusOK, w.Code)
		prompts := ts.provider.Prompts()
		require.Len(t, prompts, 1)
		assert.Contains(t, prompts[0], "spoken")
		assert.NotContains(t, prompts[0], "typed")
	})

	t.Run("Should reject blank input", func(t *testing.T) {
		ts := newTestServer(t)
		w := ts.do(t, http.MethodPost, "/api/summaries", `{"text":"  ","audioTranscript":""}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"No input text provided"}`, w.Body.String())
	})

	t.Run("Should map provider failures to bad gateway", func(t *testing.T) {
		ts := newTestServer(t)
		ts.provider.QueueError(errors.New("provider exploded"))

		w := ts.do(t, http.MethodPost, "/api/summaries", `{"text":"met Jane"}`)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.NotContains(t, w.Body.String(), "exploded")
	})

	t.Run("Should parse a summary without storing it", func(t *testing.T) {
		ts := newTestServer(t)
		w := ts.do(t, http.MethodPost, "/api/summaries/parse", `{"summary":"Name: Jane Doe\nLocation: Cafe"}`)
		require.Equal(t, http.StatusOK, w.Code)
		res := decode[api.ParseSummaryResponse](t, w)
		assert.Equal(t, "Jane Doe", *res.Connection.Name)
		assert.Equal(t, "Cafe", *res.Connection.MeetingLocation)
		assert.Equal(t, 0, ts.repo.Calls("Insert"))
	})
}

func TestHealthRoutes(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/ready", "").Code)

	ts.repo.SetError("Ping", errors.New("down"))
	assert.Equal(t, http.StatusServiceUnavailable, ts.do(t, http.MethodGet, "/ready", "").Code)

	w := ts.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
}

func TestParseIfMatch(t *testing.T) {
	tests := []struct {
		header  string
		want    *int
		wantErr bool
	}{
		{header: ""},
		{header: "*"},
		{header: "3", want: intPtr(3)},
		{header: `"3"`, want: intPtr(3)},
		{header: `W/"3"`, want: intPtr(3)},
		{header: "0", wantErr: true},
		{header: "three", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := parseIfMatch(tt.header)
			if tt.wantErr {
				assert.True(t, appErrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func intPtr(i int) *int { return &i }

type fixedBreaker gobreaker.State

func (b *fixedBreaker) State() gobreaker.State { return gobreaker.State(*b) }

func TestHealthReadyBreaker(t *testing.T) {
	repo := mocks.NewMockRepository()
	state := fixedBreaker(gobreaker.StateClosed)
	h := NewHealthHandler(repo, nil).WithBreaker("llm", &state)

	ready := func() int {
		w := httptest.NewRecorder()
		h.Ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		return w.Code
	}

	t.Run("Should be ready while the breaker is closed", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, ready())
	})

	t.Run("Should be unavailable while the breaker is open", func(t *testing.T) {
		state = fixedBreaker(gobreaker.StateOpen)
		assert.Equal(t, http.StatusServiceUnavailable, ready())
	})

	t.Run("Should recover once the breaker half-opens", func(t *testing.T) {
		state = fixedBreaker(gobreaker.StateHalfOpen)
		assert.Equal(t, http.StatusOK, ready())
	})

	t.Run("Should ignore a nil breaker", func(t *testing.T) {
		h := NewHealthHandler(repo, nil).WithBreaker("llm", nil)
		w := httptest.NewRecorder()
		h.Ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
