package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ironingOrderManagement/models"
)

func TestTableMatchesRoles(t *testing.T) {
	tests := []struct {
		role    models.Role
		granted []Capability
		denied  []Capability
	}{
		{
			role:    models.RoleAdmin,
			granted: []Capability{ViewPartners, ManagePartners, ManageRates, AccessAuditLogs, ViewAllActivities, UpdateOrder},
			denied:  []Capability{CreateOrder, ViewOwnActivities},
		},
		{
			role:    models.RoleCustomer,
			granted: []Capability{ViewOrders, CreateOrder, UpdateOrder, ViewRates, ViewOwnActivities, Export},
			denied:  []Capability{ViewPartners, ManagePartners, ManageRates, AccessAuditLogs, InlineEdit},
		},
		{
			role:    models.RoleServiceProvider,
			granted: []Capability{ViewOrders, UpdateOrder, InlineEdit, ViewRates},
			denied:  []Capability{CreateOrder, ManageRates, AccessAuditLogs, ViewPartners},
		},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			for _, c := range tt.granted {
				assert.True(t, Has(tt.role, c), "%s should have %s", tt.role, c)
			}
			for _, c := range tt.denied {
				assert.False(t, Has(tt.role, c), "%s should not have %s", tt.role, c)
			}
		})
	}
}

func TestLookupFailsClosed(t *testing.T) {
	assert.False(t, Has(models.Role("Guest"), ViewOrders))
	assert.False(t, Has(models.RoleAdmin, numCapabilities))
	assert.False(t, Has(models.RoleAdmin, Capability(200)))
	assert.False(t, HasNamed(models.RoleAdmin, "canLaunchRockets"))
	assert.False(t, HasNamed("", "canViewOrders"))
	assert.True(t, HasNamed(models.RoleAdmin, "canAccessAuditLogs"))
}

func TestEveryCapabilityHasAName(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range All() {
		name := c.String()
		assert.NotEmpty(t, name)
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true

		parsed, ok := Parse(name)
		assert.True(t, ok)
		assert.Equal(t, c, parsed)
	}
	assert.Len(t, seen, int(numCapabilities))
}

func TestSetList(t *testing.T) {
	assert.Equal(t, []Capability{ViewDashboard, ViewOrders, ViewRates, ViewOwnActivities, Export, CreateOrder, UpdateOrder},
		For(models.RoleCustomer).List())
	assert.Empty(t, For("nobody").List())
}
