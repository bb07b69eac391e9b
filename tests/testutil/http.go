package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope mirrors the API response wrapper with a typed payload
type Envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Request describes one call made with Do
type Request struct {
	Method  string
	Path    string
	Body    any
	Headers map[string]string
}

// Do serves req on handler and returns the recorded response. A non-nil Body
// is sent as JSON.
func Do(t *testing.T, handler http.Handler, req Request) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		require.NoError(t, err, "Failed to marshal request body")
		body = bytes.NewReader(data)
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	r := httptest.NewRequest(method, req.Path, body)
	if req.Body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

// Decode parses the response envelope
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) Envelope[T] {
	t.Helper()

	var env Envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "Failed to parse JSON response: %s", w.Body.String())
	return env
}

// AssertErrorCode asserts w is an error envelope with status and code
func AssertErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	assert.Equal(t, status, w.Code, "Unexpected status code: %s", w.Body.String())
	env := Decode[json.RawMessage](t, w)
	assert.False(t, env.Success, "Expected success to be false")
	require.NotNil(t, env.Error, "Expected error object in response")
	assert.Equal(t, code, env.Error.Code, "Unexpected error code")
}
