package security

import (
	"context"

	appctx "erpcore/internal/core/context"
)

// AuthorizeContext evaluates op for the user carried by ctx.
func AuthorizeContext(ctx context.Context, p Policy, op Operation) error {
	return p.Authorize(ctx, appctx.GetUser(ctx), op)
}
