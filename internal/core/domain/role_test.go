package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
)

func TestParseRole(t *testing.T) {
	t.Run("known roles pass through", func(t *testing.T) {
		assert.Equal(t, domain.RoleUser, domain.ParseRole("user"))
		assert.Equal(t, domain.RoleTechnician, domain.ParseRole("technician"))
		assert.Equal(t, domain.RoleAdmin, domain.ParseRole("admin"))
	})

	t.Run("unknown values fail closed to user", func(t *testing.T) {
		assert.Equal(t, domain.RoleUser, domain.ParseRole(""))
		assert.Equal(t, domain.RoleUser, domain.ParseRole("ADMIN"))
		assert.Equal(t, domain.RoleUser, domain.ParseRole("superuser"))
		assert.Equal(t, domain.RoleUser, domain.ParseRole("Technician"))
	})
}

func TestRole_IsStaff(t *testing.T) {
	assert.False(t, domain.RoleUser.IsStaff())
	assert.True(t, domain.RoleTechnician.IsStaff())
	assert.True(t, domain.RoleAdmin.IsStaff())
}
