package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesByKind(t *testing.T) {
	err := fmt.Errorf("loading product: %w", NotFound("product %d not found", 7))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestPersistence_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Persistence("failed to create order", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.Equal(t, "failed to create order: connection reset", err.Error())
}

func TestKindOf_UnknownIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestHTTPStatus(t *testing.T) {
	tests := map[Kind]int{
		KindNotFound:        http.StatusNotFound,
		KindInvalidArgument: http.StatusBadRequest,
		KindEmptyCart:       http.StatusBadRequest,
		KindUnauthorized:    http.StatusUnauthorized,
		KindConflict:        http.StatusConflict,
		KindPersistence:     http.StatusInternalServerError,
		KindInternal:        http.StatusInternalServerError,
	}
	for kind, want := range tests {
		assert.Equal(t, want, HTTPStatus(kind), string(kind))
	}
}
