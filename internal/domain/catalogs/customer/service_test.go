package customer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/app/apptest"
	"erpcore/internal/core/apperror"
	"erpcore/internal/domain/catalogs/customer"
	"erpcore/internal/domain/documents/order"
	"erpcore/internal/domain/lineitem"
)

func TestCreate_AssignsCode(t *testing.T) {
	env := apptest.New(t)

	first := env.Customer(t, "Atlas Furniture")
	second := env.Customer(t, "Sahara Offices")
	assert.Equal(t, "CUS000001", first.Code)
	assert.Equal(t, "CUS000002", second.Code)

	bad := customer.NewCustomer("Bad Mail")
	bad.Email = "not-an-email"
	err := env.Customers.Create(env.Ctx, bad)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestAddContact_SinglePrimary(t *testing.T) {
	env := apptest.New(t)
	c := env.Customer(t, "Atlas Furniture")

	primary := customer.NewContact(c.ID, "Nadia")
	primary.IsPrimary = true
	require.NoError(t, env.Customers.AddContact(env.Ctx, primary))

	another := customer.NewContact(c.ID, "Karim")
	another.IsPrimary = true
	err := env.Customers.AddContact(env.Ctx, another)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	another.IsPrimary = false
	require.NoError(t, env.Customers.AddContact(env.Ctx, another))

	contacts, err := env.Customers.ListContacts(env.Ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, contacts, 2)
}

func TestMerge(t *testing.T) {
	env := apptest.New(t)

	target := customer.NewCustomer("Atlas Furniture")
	target.Address = "12 Rue Didouche"
	require.NoError(t, env.Customers.Create(env.Ctx, target))

	source := customer.NewCustomer("Atlas Furniture SARL")
	source.Email = "billing@atlas.example"
	source.Address = "Zone industrielle"
	source.TaxID = "000216001234567"
	require.NoError(t, env.Customers.Create(env.Ctx, source))

	for _, name := range []string{"Nadia", "Karim"} {
		ct := customer.NewContact(source.ID, name)
		ct.IsPrimary = name == "Nadia"
		require.NoError(t, env.Customers.AddContact(env.Ctx, ct))
	}
	tp := customer.NewContact(target.ID, "Yacine")
	tp.IsPrimary = true
	require.NoError(t, env.Customers.AddContact(env.Ctx, tp))

	merged, err := env.Customers.Merge(env.Ctx, customer.MergeRequest{
		SourceID: source.ID,
		TargetID: target.ID,
		Fields:   customer.FieldPolicy{"tax_id": customer.KeepSource},
	})
	require.NoError(t, err)

	assert.Equal(t, target.ID, merged.ID)
	assert.Equal(t, "billing@atlas.example", merged.Email)
	assert.Equal(t, "000216001234567", merged.TaxID)
	assert.Equal(t, "12 Rue Didouche | Zone industrielle", merged.Address)

	_, err = env.Customers.GetByID(env.Ctx, source.ID)
	assert.True(t, apperror.IsNotFound(err))

	contacts, err := env.Customers.ListContacts(env.Ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 3)
	primaries := 0
	for _, ct := range contacts {
		if ct.IsPrimary {
			primaries++
			assert.Equal(t, "Yacine", ct.Name)
		}
	}
	assert.Equal(t, 1, primaries)
}

func TestMerge_Rejections(t *testing.T) {
	env := apptest.New(t)
	a := env.Customer(t, "A")
	b := env.Customer(t, "B")

	_, err := env.Customers.Merge(env.Ctx, customer.MergeRequest{SourceID: a.ID, TargetID: a.ID})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = env.Customers.Merge(env.Ctx, customer.MergeRequest{
		SourceID: a.ID,
		TargetID: b.ID,
		Fields:   customer.FieldPolicy{"name": customer.KeepSource},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	p := env.Product(t, "CHAIR", "100", "19", "0")
	_, err = env.Orders.Create(env.Ctx, order.CreateInput{CustomerID: a.ID, Lines: []lineitem.Input{apptest.Line(p, "1")}})
	require.NoError(t, err)

	_, err = env.Customers.Merge(env.Ctx, customer.MergeRequest{SourceID: a.ID, TargetID: b.ID})
	assert.True(t, apperror.HasCode(err, apperror.CodeCustomerReferenced))

	err = env.Customers.Delete(env.Ctx, a.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeReferenced))

	// the reverse direction is fine: b has no documents
	_, err = env.Customers.Merge(env.Ctx, customer.MergeRequest{SourceID: b.ID, TargetID: a.ID})
	assert.NoError(t, err)
}
