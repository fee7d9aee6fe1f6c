package util

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const ginContextKey = "util.gin-context"

// ErrHTTP represents an error returned from an HTTP request
type ErrHTTP struct {
	URL    string
	Status int
	Err    error
}

func (h ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP Error Status - %d | URL - %s | Error: %s", h.Status, h.URL, h.Err)
}

// GetErrFromResp returns an error generated from an HTTP response body
func GetErrFromResp(res *http.Response) error {
	errResp := map[string]interface{}{}
	if err := json.NewDecoder(res.Body).Decode(&errResp); err != nil {
		body, _ := io.ReadAll(res.Body)
		return ErrHTTP{URL: res.Request.URL.String(), Status: res.StatusCode, Err: fmt.Errorf("%s", body)}
	}
	return ErrHTTP{URL: res.Request.URL.String(), Status: res.StatusCode, Err: fmt.Errorf("%v", errResp)}
}

// GinContextToContext copies a gin context into a plain context under a well-known key so
// downstream code that only sees a context.Context can find it again.
func GinContextToContext(c *gin.Context) {
	ctx := context.WithValue(c.Request.Context(), ginContextKey, c) //nolint:staticcheck
	c.Request = c.Request.WithContext(ctx)
}

// GinContextFromContext retrieves a gin.Context previously stored in the request context,
// or panics if no gin.Context is available.
func GinContextFromContext(ctx context.Context) *gin.Context {
	gc, ok := ctx.Value(ginContextKey).(*gin.Context)
	if !ok {
		panic("gin.Context not found in context")
	}
	return gc
}

// ErrorResponse is a response with a single error message
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse is a response with a success boolean
type SuccessResponse struct {
	Success bool `json:"success"`
}

// HealthCheckHandler returns a handler for health check requests
func HealthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, SuccessResponse{Success: true})
	}
}

// Contains reports whether s is present in slice.
func Contains[T comparable](slice []T, s T) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

// MapKeys returns the keys of a map in unspecified order.
func MapKeys[K comparable, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
