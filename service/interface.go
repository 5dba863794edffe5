package service

import (
	"github.com/shopspring/decimal"

	"storefront/model"
)

type ServiceInterface interface {
	GetCart() CartView
	AddItem(id, name string, price decimal.Decimal) (CartView, string, error)
	RemoveItem(id string) (CartView, error)
	ChangeQuantity(id string, delta int) (CartView, error)

	Login(email, password string) (UIState, string, error)
	Logout() (UIState, string, error)
	SessionState() UIState

	StartCheckout() (CheckoutView, error)
	SubmitAddress(addr model.Address) (CheckoutView, error)
	SelectShipping(index int) (CheckoutView, error)
	ConfirmShipping() (CheckoutView, error)
	FinalizeOrder(payment string) (model.Order, error)
	PrevStep() CheckoutView
	ResetCheckout() CheckoutView
	CheckoutState() CheckoutView
	PrefillAddress(code string)
}
