package product

import (
	"context"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/domain/lineitem"
)

// Reader is the read side of the catalog used by document services.
type Reader interface {
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
}

// BuildLines resolves products, applies their defaults and validates each
// line. Lines referencing an inactive product are rejected.
func BuildLines(ctx context.Context, products Reader, inputs []lineitem.Input) ([]lineitem.Line, error) {
	lines := make([]lineitem.Line, 0, len(inputs))
	for i, in := range inputs {
		var defaults *lineitem.Defaults
		if in.ProductID != nil {
			p, err := products.GetByID(ctx, *in.ProductID)
			if err != nil {
				if apperror.IsNotFound(err) {
					return nil, apperror.NewValidation("unknown product").
						WithDetail("field", "productId").
						WithDetail("line", i)
				}
				return nil, err
			}
			if !p.IsActive {
				return nil, apperror.NewBusinessRule(apperror.CodeInactiveProduct, "product is inactive").
					WithDetail("productId", p.ID.String()).
					WithDetail("line", i)
			}
			defaults = p.LineDefaults()
		}

		l := lineitem.ApplyDefaults(in, defaults)
		if err := l.Validate(ctx, i); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, nil
}
