package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := NotFound("pack not found")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))
}

func TestSpecificErrorsDoNotMatchEachOther(t *testing.T) {
	taken := Conflict("room code already in use")
	slug := Conflict("slug already in use")

	assert.False(t, errors.Is(slug, taken))
	assert.True(t, errors.Is(fmt.Errorf("insert: %w", taken), taken))
	assert.True(t, errors.Is(slug, ErrConflict))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("load pack: %w", Forbidden("not your pack"))

	assert.Equal(t, KindForbidden, KindOf(err))
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		Validation("bad"):        http.StatusBadRequest,
		NotFound("missing"):      http.StatusNotFound,
		Forbidden("nope"):        http.StatusForbidden,
		Conflict("taken"):        http.StatusConflict,
		errors.New("db is down"): http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Wrap(KindConflict, "room code taken", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "room code taken", err.Error())
}
