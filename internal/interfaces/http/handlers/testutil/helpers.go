// Package testutil builds gin contexts for handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"github.com/abengolea/heartlink-sub000/internal/shared/constants"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// NewTestContext JSON-encodes body (when non-nil) into a request for path.
func NewTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	if body == nil {
		return NewRawTestContext(method, path, nil)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return NewRawTestContext(method, path, raw)
}

// NewRawTestContext sends body unchanged, which the signature tests need.
func NewRawTestContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, path, reader)
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, rec
}

// SetAuthContext stores what the JWT middleware would.
func SetAuthContext(c *gin.Context, userID, role string) {
	c.Set(constants.ContextKeyUserID, userID)
	c.Set(constants.ContextKeyUserRole, role)
}

func SetURLParam(c *gin.Context, key, value string) {
	c.Params = append(c.Params, gin.Param{Key: key, Value: value})
}

func ParseResponse(rec *httptest.ResponseRecorder, target interface{}) error {
	return json.Unmarshal(rec.Body.Bytes(), target)
}

// APIResponse is the decoded envelope; Data stays raw for a second decode.
type APIResponse struct {
	Success             bool            `json:"success"`
	Data                json.RawMessage `json:"data,omitempty"`
	Message             string          `json:"message,omitempty"`
	SubscriptionWarning json.RawMessage `json:"subscription_warning,omitempty"`
	Error               *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Details string `json:"details,omitempty"`
	} `json:"error,omitempty"`
}

func NewMockLogger() logger.Interface {
	return logger.NewNopLogger()
}
