package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUniqueConstraintDetection(t *testing.T) {
	require.False(t, isUniqueConstraintError(nil))
	require.True(t, isUniqueConstraintError(gorm.ErrDuplicatedKey))
	require.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: nodes.name")))
	require.True(t, isUniqueConstraintError(fmt.Errorf("insert: %w", errors.New("Duplicate entry 'a' for key"))))

	// Other constraint classes must not be mistaken for name conflicts.
	require.False(t, isUniqueConstraintError(errors.New("FOREIGN KEY constraint failed")))
	require.False(t, isUniqueConstraintError(errors.New("CHECK constraint failed: depth")))
	require.False(t, isUniqueConstraintError(errors.New("connection refused")))
}
