package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserContextRoundTrip(t *testing.T) {
	ctx := SetUserContext(context.Background(), 7, "kasir@kantin.id", RoleStaff)

	id, ok := GetUserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, uint(7), id)
	assert.Equal(t, "kasir@kantin.id", GetUserEmailFromContext(ctx))
	assert.Equal(t, RoleStaff, GetUserRoleFromContext(ctx))
}

func TestUserContextEmpty(t *testing.T) {
	ctx := context.Background()

	_, ok := GetUserIDFromContext(ctx)
	assert.False(t, ok)
	assert.Empty(t, GetUserEmailFromContext(ctx))
	assert.Empty(t, GetUserRoleFromContext(ctx))
}
