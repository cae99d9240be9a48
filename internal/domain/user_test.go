package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	tests := []struct {
		name    string
		id      UserID
		display string
		wantErr error
	}{
		{name: "valid", id: "u1", display: "Alice"},
		{name: "empty id", id: "", display: "Alice", wantErr: ErrUserIDEmpty},
		{name: "empty display name", id: "u1", display: "", wantErr: ErrDisplayNameEmpty},
		{name: "id too long", id: UserID(strings.Repeat("x", MaxUserIDLen+1)), display: "Alice", wantErr: ErrUserIDTooLong},
		{name: "display name too long", id: "u1", display: strings.Repeat("x", MaxDisplayNameLen+1), wantErr: ErrDisplayNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewUser(tt.id, tt.display)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, u.ID)
			assert.Equal(t, tt.display, u.DisplayName)
			assert.True(t, u.VideoEnabled)
			assert.True(t, u.AudioEnabled)
			assert.Empty(t, u.CurrentRoom)
		})
	}
}
