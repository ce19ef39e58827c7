package http

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/vadimbarashkov/vortex/internal/entity"
)

func TestParseOwnerToken(t *testing.T) {
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name    string
		token   string
		want    uuid.UUID
		wantErr bool
	}{
		{
			name:  "valid",
			token: signToken(t, jwt.SigningMethodHS256, testSecret, testOwner.String(), future),
			want:  testOwner,
		},
		{
			name:    "expired",
			token:   signToken(t, jwt.SigningMethodHS256, testSecret, testOwner.String(), time.Now().Add(-time.Minute)),
			wantErr: true,
		},
		{
			name:    "wrong secret",
			token:   signToken(t, jwt.SigningMethodHS256, []byte("other"), testOwner.String(), future),
			wantErr: true,
		},
		{
			name:    "unexpected method",
			token:   signToken(t, jwt.SigningMethodHS384, testSecret, testOwner.String(), future),
			wantErr: true,
		},
		{
			name:    "subject is not a uuid",
			token:   signToken(t, jwt.SigningMethodHS256, testSecret, "alice", future),
			wantErr: true,
		},
		{
			name:    "nil subject",
			token:   signToken(t, jwt.SigningMethodHS256, testSecret, uuid.Nil.String(), future),
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   "not.a.token",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOwnerToken(testSecret, tt.token)

			if tt.wantErr {
				assert.ErrorIs(t, err, entity.ErrInvalidCredentials)
				assert.Equal(t, uuid.Nil, got)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
