// Package checkout implements the checkout state machine as pure state
// transitions. It knows nothing about HTTP or persistence; the service
// layer owns the side effects (persisting the cart, emitting the order).
package checkout

import (
	"errors"

	"github.com/shopspring/decimal"

	"storefront/model"
)

// Step is the current checkout screen.
type Step int

const (
	StepAddress Step = iota + 1
	StepShipping
	StepPayment
	StepConfirmation
)

var (
	ErrIncompleteAddress     = errors.New("all address fields except complement are required")
	ErrNoShippingSelected    = errors.New("no shipping option selected")
	ErrUnknownShippingOption = errors.New("unknown shipping option")
	ErrNoPaymentMethod       = errors.New("no payment method selected")
	ErrUnknownPaymentMethod  = errors.New("unknown payment method")
	ErrWrongStep             = errors.New("operation not valid at current checkout step")
)

// PaymentMethods is the fixed set of accepted payment methods.
var PaymentMethods = []string{"credit", "debit", "pix", "boleto"}

// ValidPayment reports whether m is one of PaymentMethods.
func ValidPayment(m string) bool {
	for _, p := range PaymentMethods {
		if p == m {
			return true
		}
	}
	return false
}

// Draft accumulates the checkout answers. It is transient: reset whenever
// the flow (re)opens and discarded after confirmation.
type Draft struct {
	Address  *model.Address
	Shipping *model.ShippingOption
	Payment  string
}

// noSelection marks the tentative shipping index as unset.
const noSelection = -1

// Flow is one checkout in progress.
type Flow struct {
	Step    Step
	Draft   Draft
	Catalog []model.ShippingOption

	// Selected is the tentative index into Catalog. It becomes binding
	// only when ConfirmShipping commits it into the draft.
	Selected int
}

// NewFlow returns a flow positioned at the address step with an empty draft.
func NewFlow() *Flow {
	f := &Flow{}
	f.Reset()
	return f
}

// Reset clears the draft and any shipping selection and returns to step 1.
func (f *Flow) Reset() {
	f.Step = StepAddress
	f.Draft = Draft{}
	f.Catalog = nil
	f.Selected = noSelection
}

// SubmitAddress validates and snapshots the address, builds the shipping
// catalog for the given subtotal and advances to the shipping step with
// the default option selected.
func (f *Flow) SubmitAddress(addr model.Address, subtotal decimal.Decimal) error {
	if f.Step != StepAddress {
		return ErrWrongStep
	}
	if !addr.Complete() {
		return ErrIncompleteAddress
	}
	f.Draft.Address = &addr
	f.Catalog = CatalogFor(subtotal)
	f.Selected = DefaultOptionIndex
	f.Step = StepShipping
	return nil
}

// SelectShipping updates the tentative selection. It does not commit
// anything into the draft.
func (f *Flow) SelectShipping(index int) error {
	if f.Step != StepShipping {
		return ErrWrongStep
	}
	if index < 0 || index >= len(f.Catalog) {
		return ErrUnknownShippingOption
	}
	f.Selected = index
	return nil
}

// ConfirmShipping commits the selected option into the draft and advances
// to the payment step.
func (f *Flow) ConfirmShipping() error {
	if f.Step != StepShipping {
		return ErrWrongStep
	}
	if f.Selected == noSelection || f.Selected >= len(f.Catalog) {
		return ErrNoShippingSelected
	}
	opt := f.Catalog[f.Selected]
	f.Draft.Shipping = &opt
	f.Step = StepPayment
	return nil
}

// Finalize commits the payment method and advances to confirmation.
// The caller generates the order record and clears the cart.
func (f *Flow) Finalize(payment string) error {
	if f.Step != StepPayment {
		return ErrWrongStep
	}
	if payment == "" {
		return ErrNoPaymentMethod
	}
	if !ValidPayment(payment) {
		return ErrUnknownPaymentMethod
	}
	f.Draft.Payment = payment
	f.Step = StepConfirmation
	return nil
}

// Back moves one step backward. Unconditional: no validation, display
// change only.
func (f *Flow) Back() {
	if f.Step > StepAddress {
		f.Step--
	}
}

// ShippingPrice is the price of the committed shipping option, or of the
// tentative selection while still on the shipping step, or zero.
func (f *Flow) ShippingPrice() decimal.Decimal {
	if f.Draft.Shipping != nil {
		return f.Draft.Shipping.Price
	}
	if f.Selected != noSelection && f.Selected < len(f.Catalog) {
		return f.Catalog[f.Selected].Price
	}
	return decimal.Zero
}
