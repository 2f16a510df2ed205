package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/spamguard/internal/spamguard/domain"
	"github.com/haukened/spamguard/internal/spamguard/metrics"
	"github.com/haukened/spamguard/internal/spamguard/repos/blocklist"
	"github.com/haukened/spamguard/internal/spamguard/services/scorer"
)

// priorityOnly consults the curated list and reports the remote list as unavailable.
type priorityOnly struct{}

func (priorityOnly) IsPriorityDisposable(d string) bool { return blocklist.IsPriorityDisposable(d) }
func (priorityOnly) FetchExpanded(context.Context) (blocklist.DomainSet, bool) {
	return nil, false
}

// recordingScorer remembers what it was asked to score.
type recordingScorer struct {
	mu    sync.Mutex
	seen  []string
	inner Scorer
}

func (s *recordingScorer) Score(ctx context.Context, email string) domain.Verdict {
	s.mu.Lock()
	s.seen = append(s.seen, email)
	s.mu.Unlock()
	return s.inner.Score(ctx, email)
}

func (s *recordingScorer) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.seen) == 0 {
		return ""
	}
	return s.seen[len(s.seen)-1]
}

type panicScorer struct{}

func (panicScorer) Score(context.Context, string) domain.Verdict { panic("boom") }

func newTestRouter(t *testing.T) (http.Handler, *recordingScorer) {
	t.Helper()
	rec := &recordingScorer{inner: scorer.NewScorer(scorer.Options{Blocklist: priorityOnly{}})}
	return NewRouter(Options{Scorer: rec}), rec
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCheck_CleanAddress(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/check?email=anna@gmail.com", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp CheckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "anna@gmail.com", resp.Email)
	assert.True(t, resp.IsValidFormat)
	assert.False(t, resp.IsDisposable)
	assert.Equal(t, 0, resp.RiskScore)
	assert.Equal(t, domain.ActionAllow, resp.RecommendedAction)
	assert.Equal(t, 1.0, resp.Details.Entropy)
	assert.Equal(t, 0.0, resp.Details.DigitRatio)
	assert.Equal(t, 0.5, resp.Details.VowelRatio)
	assert.Equal(t, []string{scorer.FlagClean}, resp.Details.Flags)
}

func TestCheck_WireFieldNames(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/check?email=test@tempmail.com", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "test@tempmail.com", body["email"])
	assert.Equal(t, true, body["is_valid_format"])
	assert.Equal(t, true, body["is_disposable"])
	assert.Equal(t, float64(100), body["risk_score"])
	assert.Equal(t, "block", body["recommended_action"])
	details := body["details"].(map[string]any)
	assert.Equal(t, []any{scorer.FlagPriorityBlocklist}, details["flags"])
	assert.Contains(t, details, "entropy")
	assert.Contains(t, details, "digit_ratio")
	assert.Contains(t, details, "vowel_ratio")
}

func TestCheck_Normalization(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"plus preserved", "email=user+tag@gmail.com", "user+tag@gmail.com"},
		{"percent decoded", "email=Anna%40Gmail.COM", "anna@gmail.com"},
		{"encoded plus", "email=a%2Bb@example.com", "a+b@example.com"},
		{"first value wins", "email=one@example.com&email=two@example.com", "one@example.com"},
		{"other params ignored", "x=1&email=bob@example.com", "bob@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, rs := newTestRouter(t)
			rec := do(h, httptest.NewRequest(http.MethodGet, "/api/check?"+tt.query, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rs.last())
		})
	}
}

func TestCheck_MissingEmail(t *testing.T) {
	h, rs := newTestRouter(t)

	for _, target := range []string{"/api/check", "/api/check?email=", "/check?other=1"} {
		rec := do(h, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, map[string]any{
			"error": "Missing required parameter: email",
			"usage": "GET /api/check?email=user@example.com",
		}, decode(t, rec))
	}
	assert.Empty(t, rs.seen)
}

func TestCheck_InvalidFormat(t *testing.T) {
	tests := []struct {
		query string
		email string
	}{
		{"email=notanemail", "notanemail"},
		{"email=a@b", "a@b"},
		{"email=a%20b@example.com", "a b@example.com"},
		{"email=a@@example.com", "a@@example.com"},
		{"email=%zz@example.com", "%zz@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			h, rs := newTestRouter(t)
			rec := do(h, httptest.NewRequest(http.MethodGet, "/api/check?"+tt.query, nil))
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, map[string]any{
				"error": "Invalid email format",
				"email": tt.email,
			}, decode(t, rec))
			assert.Empty(t, rs.seen)
		})
	}
}

func TestCheck_PostBodies(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		h, rs := newTestRouter(t)
		req := httptest.NewRequest(http.MethodPost, "/api/check", strings.NewReader(`{"email":"Bob@Example.com"}`))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		rec := do(h, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "bob@example.com", rs.last())
	})

	t.Run("form", func(t *testing.T) {
		h, rs := newTestRouter(t)
		form := url.Values{"email": {"carol+x@example.com"}}
		req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := do(h, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "carol+x@example.com", rs.last())
	})

	t.Run("query beats body", func(t *testing.T) {
		h, rs := newTestRouter(t)
		req := httptest.NewRequest(http.MethodPost, "/api/check?email=q@example.com", strings.NewReader(`{"email":"b@example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := do(h, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "q@example.com", rs.last())
	})

	t.Run("empty json body", func(t *testing.T) {
		h, _ := newTestRouter(t)
		req := httptest.NewRequest(http.MethodPost, "/api/check", strings.NewReader(""))
		req.Header.Set("Content-Type", "application/json")
		rec := do(h, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing required parameter: email", decode(t, rec)["error"])
	})

	t.Run("malformed json", func(t *testing.T) {
		h, _ := newTestRouter(t)
		req := httptest.NewRequest(http.MethodPost, "/api/check", strings.NewReader(`{"email":`))
		req.Header.Set("Content-Type", "application/json")
		rec := do(h, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request body", decode(t, rec)["error"])
	})
}

func TestCheck_Options(t *testing.T) {
	h, rs := newTestRouter(t)

	rec := do(h, httptest.NewRequest(http.MethodOptions, "/api/check", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, rs.seen)
}

func TestCheck_CORS(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/check?email=anna@gmail.com", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := do(h, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	pre := httptest.NewRequest(http.MethodOptions, "/api/check", nil)
	pre.Header.Set("Origin", "https://app.example.com")
	pre.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = do(h, pre)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCheck_RestrictedCORS(t *testing.T) {
	h := NewRouter(Options{
		Scorer:      scorer.NewScorer(scorer.Options{}),
		CORSOrigins: []string{"https://allowed.example"},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/check?email=anna@gmail.com", nil)
	req.Header.Set("Origin", "https://other.example")
	rec := do(h, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCheck_PanicBecomes500(t *testing.T) {
	h := NewRouter(Options{Scorer: panicScorer{}})

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/check?email=anna@gmail.com", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{
		"error":   "Internal server error",
		"message": "Failed to validate email",
	}, decode(t, rec))
}

func TestRouter_AuxiliaryRoutes(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "ok"}, decode(t, rec))

	rec = do(h, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode(t, rec)["error"])

	rec = do(h, httptest.NewRequest(http.MethodPut, "/api/check", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method_not_allowed", decode(t, rec)["error"])

	rec = do(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_MetricsMounted(t *testing.T) {
	m := metrics.New()
	s := scorer.NewScorer(scorer.Options{Blocklist: priorityOnly{}, Observer: m})
	h := NewRouter(Options{Scorer: s, Metrics: m})

	do(h, httptest.NewRequest(http.MethodGet, "/api/check?email=x@mailinator.com", nil))
	rec := do(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `spamguard_verdicts_total{action="block"} 1`)
	assert.Contains(t, body, `spamguard_http_request_duration_seconds_count{method="GET",path="/api/check",status="200"} 1`)
}

func TestRawQueryValue(t *testing.T) {
	v, ok := rawQueryValue("a=1&email=x%2By&b", "email")
	assert.True(t, ok)
	assert.Equal(t, "x%2By", v)

	_, ok = rawQueryValue("a=1&b=2", "email")
	assert.False(t, ok)

	v, ok = rawQueryValue("email", "email")
	assert.True(t, ok)
	assert.Empty(t, v)
}
