package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CartItem is one line of the cart. Unique by ID within a cart.
type CartItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Cart is an insertion-ordered list of line items.
type Cart []CartItem

// Subtotal is sum(price * quantity) over all items. Always derived from
// the items, never cached.
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// Count is the sum of quantities, i.e. what the cart badge shows.
func (c Cart) Count() int {
	n := 0
	for _, it := range c {
		n += it.Quantity
	}
	return n
}

// UserSession is the mock logged-in identity. Absence means guest.
type UserSession struct {
	DisplayName   string `json:"name"`
	Email         string `json:"email"`
	AvatarInitial string `json:"avatar"`
}

// SessionForEmail derives a session deterministically from the email:
// display name is the local part before "@", avatar is the uppercased
// first character.
func SessionForEmail(email string) UserSession {
	name := email
	if i := strings.Index(email, "@"); i >= 0 {
		name = email[:i]
	}
	avatar := ""
	for _, r := range email {
		avatar = strings.ToUpper(string(r))
		break
	}
	return UserSession{DisplayName: name, Email: email, AvatarInitial: avatar}
}

// Address is a delivery address. Complement is the only optional field.
type Address struct {
	PostalCode   string `json:"cep"`
	Street       string `json:"logradouro"`
	Number       string `json:"numero"`
	Complement   string `json:"complemento,omitempty"`
	Neighborhood string `json:"bairro"`
	City         string `json:"cidade"`
	State        string `json:"estado"`
}

// Complete reports whether every required field is non-blank.
func (a Address) Complete() bool {
	required := []string{
		a.PostalCode, a.Street, a.Number, a.Neighborhood, a.City, a.State,
	}
	for _, f := range required {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// ShippingOption is one entry of the shipping catalog.
type ShippingOption struct {
	Label       string          `json:"label"`
	Price       decimal.Decimal `json:"price"`
	ETADays     string          `json:"eta_days"`
	Description string          `json:"description"`
}

// Free reports whether the option costs nothing.
func (o ShippingOption) Free() bool {
	return o.Price.IsZero()
}

// Order is the confirmation record produced by a finished checkout.
// It is returned to the client and never stored.
type Order struct {
	ID       string          `json:"id"`
	Number   string          `json:"number"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
	ETADays  string          `json:"eta_days"`
	Payment  string          `json:"payment"`
}
