package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/haukened/spamguard/internal/spamguard/common/log"
)

// emailPattern is the shim's coarse pre-check; the scorer applies its own
// format stage afterwards.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	errNoEmail  = errors.New("email not provided")
	errBadQuery = errors.New("malformed email parameter")
)

type checkHandler struct {
	scorer       Scorer
	logger       log.Logger
	maxBodyBytes int64
}

type checkRequest struct {
	Email string `json:"email"`
}

func (h *checkHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	email, raw, err := h.extractEmail(w, r)
	switch {
	case errors.Is(err, errNoEmail):
		writeJSON(w, h.logger, http.StatusBadRequest, missingResponse{Error: errMissingEmail, Usage: usageHint})
		return
	case errors.Is(err, errBadQuery):
		writeJSON(w, h.logger, http.StatusBadRequest, invalidFormatResponse{Error: errInvalidFormat, Email: raw})
		return
	case err != nil:
		writeJSON(w, h.logger, http.StatusBadRequest, errorResponse{Error: errInvalidBody, Message: err.Error()})
		return
	}

	if !emailPattern.MatchString(email) {
		writeJSON(w, h.logger, http.StatusBadRequest, invalidFormatResponse{Error: errInvalidFormat, Email: email})
		return
	}

	verdict := h.scorer.Score(r.Context(), strings.TrimSpace(strings.ToLower(email)))
	writeJSON(w, h.logger, http.StatusOK, NewCheckResponse(verdict))
}

// extractEmail looks at the query string first, then a JSON or form body.
// The returned raw value is the undecoded parameter, for error reporting.
func (h *checkHandler) extractEmail(w http.ResponseWriter, r *http.Request) (email, raw string, err error) {
	if raw, found := rawQueryValue(r.URL.RawQuery, "email"); found && raw != "" {
		// PathUnescape leaves '+' alone, so plus-addressed emails survive.
		email, err := url.PathUnescape(raw)
		if err != nil {
			return "", raw, errBadQuery
		}
		if email == "" {
			return "", raw, errNoEmail
		}
		return email, raw, nil
	}

	if r.Method != http.MethodPost || r.Body == nil {
		return "", "", errNoEmail
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var req checkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return "", "", errNoEmail
			}
			return "", "", err
		}
		email = req.Email
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return "", "", err
		}
		email = r.PostForm.Get("email")
	}
	if email == "" {
		return "", "", errNoEmail
	}
	return email, email, nil
}

// rawQueryValue returns the first undecoded value for key.
func rawQueryValue(rawQuery, key string) (string, bool) {
	for rawQuery != "" {
		var pair string
		pair, rawQuery, _ = strings.Cut(rawQuery, "&")
		k, v, _ := strings.Cut(pair, "=")
		if name, err := url.QueryUnescape(k); err == nil && name == key {
			return v, true
		}
	}
	return "", false
}
