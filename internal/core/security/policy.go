package security

import (
	"context"

	"erpcore/internal/core/apperror"
	appctx "erpcore/internal/core/context"
)

// Role is a named set of capabilities.
type Role string

const (
	RoleAdmin            Role = "admin"
	RoleStoreManager     Role = "store_manager"
	RoleWarehouseManager Role = "warehouse_manager"
	RoleReceptionist     Role = "receptionist"
)

// Policy decides whether a principal may perform an operation.
type Policy interface {
	Authorize(ctx context.Context, user *appctx.UserContext, op Operation) error
}

// RolePolicy grants capabilities by role. Admins (IsAdmin or RoleAdmin) pass every check.
type RolePolicy struct {
	grants map[Role]map[Capability]struct{}
}

// NewRolePolicy builds a policy from a role -> capabilities table.
func NewRolePolicy(table map[Role][]Capability) *RolePolicy {
	grants := make(map[Role]map[Capability]struct{}, len(table))
	for role, caps := range table {
		set := make(map[Capability]struct{}, len(caps))
		for _, c := range caps {
			set[c] = struct{}{}
		}
		grants[role] = set
	}
	return &RolePolicy{grants: grants}
}

// DefaultRolePolicy mirrors the stock role definitions.
func DefaultRolePolicy() *RolePolicy {
	return NewRolePolicy(map[Role][]Capability{
		RoleStoreManager: {
			CapSalesView, CapSalesManage,
			CapInvoicesView, CapInvoicesManage, CapPaymentsRecord,
			CapQuotesManage,
			CapStockView, CapStockMovementsManage,
			CapPurchaseOrdersManage, CapPurchaseOrdersReceive,
			CapCustomersView, CapCustomersManage,
			CapProductsView, CapProductsManage,
		},
		RoleWarehouseManager: {
			CapStockView, CapStockMovementsManage,
			CapPurchaseOrdersManage, CapPurchaseOrdersReceive,
			CapProductsView, CapProductsManage,
			CapSalesView,
		},
		RoleReceptionist: {
			CapSalesView, CapInvoicesView, CapStockView,
			CapCustomersView, CapCustomersManage, CapProductsView,
		},
	})
}

// Can reports whether any of roles grants capability c.
func (p *RolePolicy) Can(roles []string, c Capability) bool {
	for _, r := range roles {
		if Role(r) == RoleAdmin {
			return true
		}
		if _, ok := p.grants[Role(r)][c]; ok {
			return true
		}
	}
	return false
}

// Authorize implements Policy.
func (p *RolePolicy) Authorize(ctx context.Context, user *appctx.UserContext, op Operation) error {
	if user == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	required, ok := RequiredCapability(op)
	if !ok {
		return apperror.NewForbidden("operation is not mapped to a capability").
			WithDetail("operation", string(op))
	}
	if user.IsAdmin || p.Can(user.Roles, required) {
		return nil
	}
	return apperror.NewForbidden("insufficient permissions").
		WithDetail("operation", string(op)).
		WithDetail("required_capability", string(required))
}

// AllowAll is a Policy for tools and tests that run without RBAC.
type AllowAll struct{}

func (AllowAll) Authorize(context.Context, *appctx.UserContext, Operation) error { return nil }

var (
	_ Policy = (*RolePolicy)(nil)
	_ Policy = AllowAll{}
)
