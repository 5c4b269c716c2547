package response_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warekit/warekit/pkg/response"
)

func TestJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	response.JSON(w, http.StatusCreated, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Nil(t, env.Error)
}

func TestError(t *testing.T) {
	t.Parallel()

	t.Run("http error carries its status and code", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		response.Error(w, response.ErrNotFound)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var env response.Envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		require.NotNil(t, env.Error)
		assert.Equal(t, "not_found", env.Error.Code)
	})

	t.Run("wrapped http error is unwrapped", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		response.Error(w, errors.Join(response.ErrConflict, errors.New("duplicate name")))

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("validation error maps to 422 with fields", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		response.Error(w, response.ValidationError{"name": {"is required"}})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var env response.Envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		require.NotNil(t, env.Error)
		assert.Equal(t, []string{"is required"}, env.Error.Fields["name"])
	})

	t.Run("unknown error is an opaque 500", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		response.Error(w, errors.New("pool exhausted: mongodb://secret@host"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "secret")
	})
}
