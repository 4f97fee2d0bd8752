package dto

import (
	"github.com/shopspring/decimal"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/catalogs/customer"
	"erpcore/internal/domain/catalogs/product"
)

// --- Product ---

// CreateProductRequest for creating products.
type CreateProductRequest struct {
	Name       string           `json:"name" binding:"required"`
	Reference  string           `json:"reference" binding:"required"`
	Kind       product.Kind     `json:"kind"`
	TrackStock *bool            `json:"trackStock"`
	Unit       string           `json:"unit"`
	UnitPrice  types.Money      `json:"unitPrice"`
	TaxRate    *decimal.Decimal `json:"taxRate"`
	MinStock   types.Quantity   `json:"minStock"`
}

// ToProduct maps the request to a new product. Stock starts at zero and only
// moves through stock movements.
func (r CreateProductRequest) ToProduct(defaultTaxRate decimal.Decimal) *product.Product {
	p := product.NewProduct(r.Name, r.Reference)
	if r.Kind != "" {
		p.Kind = r.Kind
	}
	p.TrackStock = p.Kind == product.KindGood
	if r.TrackStock != nil {
		p.TrackStock = *r.TrackStock
	}
	if r.Unit != "" {
		p.Unit = r.Unit
	}
	p.UnitPrice = types.RoundMoney(r.UnitPrice)
	p.TaxRate = defaultTaxRate
	if r.TaxRate != nil {
		p.TaxRate = *r.TaxRate
	}
	p.MinStock = types.RoundQuantity(r.MinStock)
	return p
}

// UpdateProductRequest for updating products. Nil fields keep their value.
type UpdateProductRequest struct {
	Name       *string          `json:"name"`
	Reference  *string          `json:"reference"`
	Kind       *product.Kind    `json:"kind"`
	TrackStock *bool            `json:"trackStock"`
	Unit       *string          `json:"unit"`
	UnitPrice  *types.Money     `json:"unitPrice"`
	TaxRate    *decimal.Decimal `json:"taxRate"`
	MinStock   *types.Quantity  `json:"minStock"`
	IsActive   *bool            `json:"isActive"`
	Version    int              `json:"version" binding:"required,min=1"`
}

// ApplyProduct applies the request onto existing.
func ApplyProduct(r UpdateProductRequest, existing *product.Product) (*product.Product, error) {
	if err := checkVersion("product", existing.ID, r.Version, existing.Version); err != nil {
		return nil, err
	}
	p := *existing
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Reference != nil {
		p.Reference = *r.Reference
	}
	if r.Kind != nil {
		p.Kind = *r.Kind
	}
	if r.TrackStock != nil {
		p.TrackStock = *r.TrackStock
	}
	if r.Unit != nil {
		p.Unit = *r.Unit
	}
	if r.UnitPrice != nil {
		p.UnitPrice = types.RoundMoney(*r.UnitPrice)
	}
	if r.TaxRate != nil {
		p.TaxRate = *r.TaxRate
	}
	if r.MinStock != nil {
		p.MinStock = types.RoundQuantity(*r.MinStock)
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	return &p, nil
}

// --- Customer ---

// CreateCustomerRequest for creating customers. The code is generated.
type CreateCustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	TaxID   string `json:"taxId"`
	Notes   string `json:"notes"`
}

// ToCustomer maps the request to a new customer.
func (r CreateCustomerRequest) ToCustomer() *customer.Customer {
	c := customer.NewCustomer(r.Name)
	c.Email = r.Email
	c.Phone = r.Phone
	c.Address = r.Address
	c.TaxID = r.TaxID
	c.Notes = r.Notes
	return c
}

// UpdateCustomerRequest for updating customers. Nil fields keep their value.
type UpdateCustomerRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	TaxID    *string `json:"taxId"`
	Notes    *string `json:"notes"`
	IsActive *bool   `json:"isActive"`
	Version  int     `json:"version" binding:"required,min=1"`
}

// ApplyCustomer applies the request onto existing.
func ApplyCustomer(r UpdateCustomerRequest, existing *customer.Customer) (*customer.Customer, error) {
	if err := checkVersion("customer", existing.ID, r.Version, existing.Version); err != nil {
		return nil, err
	}
	c := *existing
	setString(&c.Name, r.Name)
	setString(&c.Email, r.Email)
	setString(&c.Phone, r.Phone)
	setString(&c.Address, r.Address)
	setString(&c.TaxID, r.TaxID)
	setString(&c.Notes, r.Notes)
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
	return &c, nil
}

// ContactRequest adds a contact to a customer.
type ContactRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	IsPrimary bool   `json:"isPrimary"`
}

// MergeCustomersRequest folds the path customer (source) into TargetID.
type MergeCustomersRequest struct {
	TargetID string                            `json:"targetId" binding:"required"`
	Fields   map[string]customer.MergeStrategy `json:"fields"`
}

func checkVersion(entity string, entityID id.ID, requested, current int) error {
	if requested != current {
		return apperror.NewConcurrentModification(entity, entityID.String()).
			WithDetail("expected_version", requested).
			WithDetail("current_version", current)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
