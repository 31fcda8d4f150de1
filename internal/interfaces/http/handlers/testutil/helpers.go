// Package testutil builds gin contexts for handler tests and decodes the
// response envelope the handlers write.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// NewTestContext returns a context for method and path. A non-nil body is
// sent as JSON.
func NewTestContext(method, path string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	if body == nil {
		return NewRawContext(method, path, nil)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	c, w := NewRawContext(method, path, bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

// NewRawContext returns a context whose request body is passed through as is.
func NewRawContext(method, path string, body io.Reader) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, body)
	return c, w
}

// NewMailContext returns a POST context carrying a raw RFC 5322 message, as
// an MTA pipe would deliver it.
func NewMailContext(path, rawMail string, header http.Header) (*gin.Context, *httptest.ResponseRecorder) {
	c, w := NewRawContext(http.MethodPost, path, strings.NewReader(rawMail))
	c.Request.Header.Set("Content-Type", "message/rfc822")
	for k, vs := range header {
		for _, v := range vs {
			c.Request.Header.Add(k, v)
		}
	}
	return c, w
}

func SetURLParam(c *gin.Context, key, value string) {
	c.Params = append(c.Params, gin.Param{Key: key, Value: value})
}

func SetQueryParams(c *gin.Context, params map[string]string) {
	q := make(url.Values, len(params))
	for k, v := range params {
		q.Set(k, v)
	}
	c.Request.URL.RawQuery = q.Encode()
}

// Envelope is the decoded form of utils.APIResponse, with Data left raw so
// a test can decode it into the DTO it expects.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *EnvelopeError  `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

type EnvelopeError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Decode parses the recorded body as an envelope, failing the test when it
// is not one.
func Decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return env
}

// DecodeData parses the envelope and unmarshals its data field into target.
func DecodeData(t *testing.T, w *httptest.ResponseRecorder, target any) Envelope {
	t.Helper()
	env := Decode(t, w)
	require.NotEmpty(t, env.Data, "response carries no data: %s", w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, target))
	return env
}

// RequireErrorType asserts the response failed with the given error type.
func RequireErrorType(t *testing.T, w *httptest.ResponseRecorder, errType string) {
	t.Helper()
	env := Decode(t, w)
	require.False(t, env.Success, "expected failure, got: %s", w.Body.String())
	require.NotNil(t, env.Error)
	require.Equal(t, errType, env.Error.Type)
}
