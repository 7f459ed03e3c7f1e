package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventario-lotes/internal/domain"
)

func TestMapPgError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		concurrent bool
	}{
		{"deadlock", &pgconn.PgError{Code: codeDeadlockDetected}, true},
		{"serialización", &pgconn.PgError{Code: codeSerializationFailure}, true},
		{"lock_timeout", fmt.Errorf("lock: %w", &pgconn.PgError{Code: codeLockNotAvailable}), true},
		{"check violation", &pgconn.PgError{Code: "23514"}, false},
		{"otro error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapPgError(tt.err)
			assert.Equal(t, tt.concurrent, errors.Is(got, domain.ErrConcurrentModification))
		})
	}
	assert.NoError(t, mapPgError(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: codeUniqueViolation}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: codeDeadlockDetected}))
}

func TestValidID(t *testing.T) {
	assert.True(t, validID("7f1c2a52-95a4-4d37-9a53-3f0d5a0f3c11"))
	assert.False(t, validID("lote-1"))
	assert.False(t, validID(""))
}
