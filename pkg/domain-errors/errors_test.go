package derrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesChain(t *testing.T) {
	root := errors.New("connection refused")
	wrapped := Wrap(root, CodeUnavailable, "store unreachable")

	assert.True(t, errors.Is(wrapped, root))
	assert.True(t, HasCode(wrapped, CodeUnavailable))
	assert.Contains(t, wrapped.Error(), "store unreachable")
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestHasCode(t *testing.T) {
	err := New(CodeNotFound, "donation not found")

	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(nil, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))

	// The outermost code wins when errors are re-coded across layers.
	recoded := Wrap(err, CodeInternal, "lookup failed")
	assert.True(t, HasCode(recoded, CodeInternal))
	assert.False(t, HasCode(recoded, CodeNotFound))

	// fmt wrapping does not hide the code.
	hidden := fmt.Errorf("handler: %w", err)
	assert.True(t, HasCode(hidden, CodeNotFound))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeConflict, CodeOf(New(CodeConflict, "dup")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("uncoded")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidInput: http.StatusBadRequest,
		CodeBadRequest:   http.StatusBadRequest,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeForbidden:    http.StatusForbidden,
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeInvalidState: http.StatusConflict,
		CodeTimeout:      http.StatusGatewayTimeout,
		CodeUnavailable:  http.StatusServiceUnavailable,
		CodeInternal:     http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(code), string(code))
	}
}
