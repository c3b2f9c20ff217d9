package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/core/internal/domain/entities"
)

func TestUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "valid", input: "alice", want: "alice"},
		{name: "trimmed", input: "  alice  ", want: "alice"},
		{name: "with separators", input: "alice_the-2nd", want: "alice_the-2nd"},
		{name: "empty", input: "", wantErr: true},
		{name: "too short", input: "ab", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 51), wantErr: true},
		{name: "leading underscore", input: "_alice", wantErr: true},
		{name: "spaces inside", input: "alice smith", wantErr: true},
		{name: "unicode", input: "алиса", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Username(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, entities.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: "secret1"},
		{name: "minimum length", input: "abc123"},
		{name: "too short", input: "ab1", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 128) + "1", wantErr: true},
		{name: "no digit", input: "abcdefgh", wantErr: true},
		{name: "no letter", input: "12345678", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Password(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, entities.ErrWeakPassword)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEmail(t *testing.T) {
	got, err := Email("  Alice@Example.COM ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice@example.com", *got)

	got, err = Email("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = Email("not-an-email")
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestTaskTitle(t *testing.T) {
	got, err := TaskTitle("  buy milk  ")
	require.NoError(t, err)
	assert.Equal(t, "buy milk", got)

	_, err = TaskTitle("   ")
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = TaskTitle(strings.Repeat("x", 201))
	assert.ErrorIs(t, err, entities.ErrValidation)
}
