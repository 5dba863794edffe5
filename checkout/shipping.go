package checkout

import (
	"github.com/shopspring/decimal"

	"storefront/model"
)

// FreeShippingThreshold is the subtotal above which the free option is
// offered.
var FreeShippingThreshold = decimal.NewFromInt(200)

// DefaultOptionIndex is the catalog entry preselected when the shipping
// step opens (the standard delivery).
const DefaultOptionIndex = 1

func price(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

var baseCatalog = []model.ShippingOption{
	{
		Label:       "Entrega Econômica",
		Price:       price(1590),
		ETADays:     "7-10",
		Description: "Entrega em até 10 dias úteis",
	},
	{
		Label:       "Entrega Padrão",
		Price:       price(2490),
		ETADays:     "3-5",
		Description: "Entrega em até 5 dias úteis",
	},
	{
		Label:       "Entrega Expressa",
		Price:       price(3990),
		ETADays:     "1-2",
		Description: "Entrega em até 2 dias úteis",
	},
}

var freeOption = model.ShippingOption{
	Label:       "Entrega Grátis",
	Price:       decimal.Zero,
	ETADays:     "5-7",
	Description: "Frete grátis - entrega em até 7 dias úteis",
}

// CatalogFor is the single source of truth for the shipping catalog
// presented at the shipping step. The free option is prepended when the
// subtotal exceeds FreeShippingThreshold; selection indices refer to the
// returned slice.
func CatalogFor(subtotal decimal.Decimal) []model.ShippingOption {
	out := make([]model.ShippingOption, 0, len(baseCatalog)+1)
	if subtotal.GreaterThan(FreeShippingThreshold) {
		out = append(out, freeOption)
	}
	return append(out, baseCatalog...)
}
