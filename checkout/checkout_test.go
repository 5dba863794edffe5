package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/model"
)

func addr() model.Address {
	return model.Address{
		PostalCode:   "01001-000",
		Street:       "Praça da Sé",
		Number:       "100",
		Neighborhood: "Sé",
		City:         "São Paulo",
		State:        "SP",
	}
}

func TestCatalogFreeShippingThreshold(t *testing.T) {
	tests := []struct {
		name     string
		subtotal decimal.Decimal
		wantFree bool
		wantLen  int
	}{
		{"below threshold", decimal.NewFromInt(150), false, 3},
		{"exactly threshold", decimal.NewFromInt(200), false, 3},
		{"above threshold", decimal.NewFromFloat(200.01), true, 4},
		{"well above", decimal.NewFromInt(220), true, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := CatalogFor(tt.subtotal)
			require.Len(t, cat, tt.wantLen)
			hasFree := false
			for _, o := range cat {
				if o.Free() {
					hasFree = true
				}
			}
			assert.Equal(t, tt.wantFree, hasFree)
			if tt.wantFree {
				assert.True(t, cat[0].Free(), "free option should be first")
			}
		})
	}
}

func TestSubmitAddressValidation(t *testing.T) {
	blank := func(mutate func(*model.Address)) model.Address {
		a := addr()
		mutate(&a)
		return a
	}
	tests := []struct {
		name string
		addr model.Address
	}{
		{"blank postal code", blank(func(a *model.Address) { a.PostalCode = "" })},
		{"blank street", blank(func(a *model.Address) { a.Street = "" })},
		{"blank number", blank(func(a *model.Address) { a.Number = "  " })},
		{"blank neighborhood", blank(func(a *model.Address) { a.Neighborhood = "" })},
		{"blank city", blank(func(a *model.Address) { a.City = "" })},
		{"blank state", blank(func(a *model.Address) { a.State = "" })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFlow()
			err := f.SubmitAddress(tt.addr, decimal.NewFromInt(100))
			assert.ErrorIs(t, err, ErrIncompleteAddress)
			assert.Equal(t, StepAddress, f.Step)
			assert.Nil(t, f.Draft.Address)
		})
	}
}

func TestSubmitAddressBlankComplementAllowed(t *testing.T) {
	f := NewFlow()
	a := addr()
	a.Complement = ""
	require.NoError(t, f.SubmitAddress(a, decimal.NewFromInt(100)))
	assert.Equal(t, StepShipping, f.Step)
	require.NotNil(t, f.Draft.Address)
	assert.Equal(t, a, *f.Draft.Address)
}

func TestSubmitAddressDefaultsSecondOption(t *testing.T) {
	f := NewFlow()
	require.NoError(t, f.SubmitAddress(addr(), decimal.NewFromInt(250)))
	assert.Equal(t, DefaultOptionIndex, f.Selected)
	assert.Len(t, f.Catalog, 4)
	// second entry of the displayed list, which here is Econômica
	// because the free option was prepended
	assert.Equal(t, "Entrega Econômica", f.Catalog[f.Selected].Label)
}

func TestSelectShipping(t *testing.T) {
	f := NewFlow()
	require.NoError(t, f.SubmitAddress(addr(), decimal.NewFromInt(100)))

	assert.ErrorIs(t, f.SelectShipping(-1), ErrUnknownShippingOption)
	assert.ErrorIs(t, f.SelectShipping(3), ErrUnknownShippingOption)

	require.NoError(t, f.SelectShipping(2))
	assert.Equal(t, 2, f.Selected)
	// tentative only: nothing committed yet
	assert.Nil(t, f.Draft.Shipping)
}

func TestConfirmShippingCommits(t *testing.T) {
	f := NewFlow()
	require.NoError(t, f.SubmitAddress(addr(), decimal.NewFromInt(100)))
	require.NoError(t, f.SelectShipping(0))
	require.NoError(t, f.ConfirmShipping())

	assert.Equal(t, StepPayment, f.Step)
	require.NotNil(t, f.Draft.Shipping)
	assert.Equal(t, "Entrega Econômica", f.Draft.Shipping.Label)
	assert.True(t, price(1590).Equal(f.ShippingPrice()))
}

func TestConfirmShippingWithoutSelection(t *testing.T) {
	f := NewFlow()
	require.NoError(t, f.SubmitAddress(addr(), decimal.NewFromInt(100)))
	f.Selected = noSelection
	assert.ErrorIs(t, f.ConfirmShipping(), ErrNoShippingSelected)
	assert.Equal(t, StepShipping, f.Step)
}

func TestFinalizePaymentValidation(t *testing.T) {
	f := NewFlow()
	require.NoError(t, f.SubmitAddress(addr(), decimal.NewFromInt(100)))
	require.NoError(t, f.ConfirmShipping())

	assert.ErrorIs(t, f.Finalize(""), ErrNoPaymentMethod)
	assert.ErrorIs(t, f.Finalize("cheque"), ErrUnknownPaymentMethod)
	assert.Equal(t, StepPayment, f.Step)

	require.NoError(t, f.Finalize("pix"))
	assert.Equal(t, StepConfirmation, f.Step)
	assert.Equal(t, "pix", f.Draft.Payment)
}

func TestForwardTransitionsGuardStep(t *testing.T) {
	f := NewFlow()
	assert.ErrorIs(t, f.SelectShipping(0), ErrWrongStep)
	assert.ErrorIs(t, f.ConfirmShipping(), ErrWrongStep)
	assert.ErrorIs(t, f.Finalize("pix"), ErrWrongStep)

	require.NoError(t, f.SubmitAddress(addr(), decimal.NewFromInt(100)))
	assert.ErrorIs(t, f.SubmitAddress(addr(), decimal.NewFromInt(100)), ErrWrongStep)
}

func TestBackIsUnconditional(t *testing.T) {
	f := NewFlow()
	require.NoError(t, f.SubmitAddress(addr(), decimal.NewFromInt(100)))
	require.NoError(t, f.ConfirmShipping())
	assert.Equal(t, StepPayment, f.Step)

	f.Back()
	assert.Equal(t, StepShipping, f.Step)
	f.Back()
	assert.Equal(t, StepAddress, f.Step)
	f.Back()
	assert.Equal(t, StepAddress, f.Step, "never goes below step 1")
}

func TestResetClearsDraftAndSelection(t *testing.T) {
	f := NewFlow()
	require.NoError(t, f.SubmitAddress(addr(), decimal.NewFromInt(250)))
	require.NoError(t, f.SelectShipping(0))
	require.NoError(t, f.ConfirmShipping())

	f.Reset()
	assert.Equal(t, StepAddress, f.Step)
	assert.Equal(t, Draft{}, f.Draft)
	assert.Nil(t, f.Catalog)
	assert.Equal(t, noSelection, f.Selected)
	assert.True(t, f.ShippingPrice().IsZero())
}
