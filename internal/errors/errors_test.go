package errors_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrs "github.com/jdholdren/porch/internal/errors"
)

func TestEConstructor(t *testing.T) {
	got := perrs.E(
		"something went wrong",
		perrs.Detail{Field: "displayName", Error: "was bad"},
		http.StatusBadRequest,
		perrs.KindInvalid,
	)
	want := &perrs.Error{
		Err: errors.New("something went wrong"),
		Details: []perrs.Detail{
			{Field: "displayName", Error: "was bad"},
		},
		Status: http.StatusBadRequest,
		Kind:   perrs.KindInvalid,
	}

	assert.Equal(t, want, got)
}

func TestEDefaults(t *testing.T) {
	got := perrs.E("boom")

	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Equal(t, perrs.KindUnknown, got.Kind)
}

func TestIsKind(t *testing.T) {
	base := perrs.E(perrs.KindSave, http.StatusBadGateway, "save failed")
	wrapped := fmt.Errorf("saving profile: %w", base)

	assert.True(t, perrs.IsKind(wrapped, perrs.KindSave))
	assert.False(t, perrs.IsKind(wrapped, perrs.KindNetwork))
	assert.False(t, perrs.IsKind(errors.New("plain"), perrs.KindSave))
}

func TestUnwrap(t *testing.T) {
	sentinel := errors.New("connection refused")
	err := perrs.E(perrs.KindNetwork, sentinel)

	assert.ErrorIs(t, err, sentinel)
}

func TestMarshalJSON(t *testing.T) {
	err := perrs.E(perrs.KindInvalid, http.StatusBadRequest, "bad mount",
		perrs.Detail{Field: "mount", Error: "expired"})

	byts, mErr := json.Marshal(err)
	require.NoError(t, mErr)

	assert.JSONEq(t, `{
		"message": "bad mount",
		"kind": "invalid",
		"status": 400,
		"details": [{"field": "mount", "error": "expired"}]
	}`, string(byts))
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *perrs.Error
		want string
	}{
		{
			name: "wrapped",
			err:  perrs.E(http.StatusBadRequest, perrs.KindInvalid, "bad mount"),
			want: "400 (invalid): bad mount",
		},
		{
			name: "nothing wrapped",
			err:  &perrs.Error{Status: http.StatusGone, Kind: perrs.KindInvalid},
			want: "410 (invalid): Gone",
		},
		{
			name: "details",
			err:  &perrs.Error{Status: http.StatusBadRequest, Details: []perrs.Detail{{Field: "mount", Error: "required"}}},
			want: "400 (unknown): Bad Request, details: [{mount required}]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.NotContains(t, tt.err.Error(), "%!")
		})
	}
}
