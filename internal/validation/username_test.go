package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		errMsg   string
		wantErr  bool
	}{
		{name: "valid lowercase", username: "alice_bot"},
		{name: "valid mixed case", username: "AliceSmith"},
		{name: "valid with digits", username: "user2024"},
		{name: "valid max length", username: "a2345678901234567890123456789012"},
		{name: "empty", username: "", wantErr: true, errMsg: "cannot be empty"},
		{name: "too short", username: "abcd", wantErr: true, errMsg: "at least 5"},
		{name: "too long", username: "a23456789012345678901234567890123", wantErr: true, errMsg: "must not exceed 32"},
		{name: "starts with digit", username: "1alice", wantErr: true, errMsg: "start with a letter"},
		{name: "has dash", username: "alice-smith", wantErr: true, errMsg: "can only contain"},
		{name: "cyrillic", username: "алиса_бот", wantErr: true, errMsg: "start with a letter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice_bot", NormalizeUsername("@Alice_Bot"))
	assert.Equal(t, "alice", NormalizeUsername("  alice "))
	assert.Equal(t, "", NormalizeUsername("@"))
}
