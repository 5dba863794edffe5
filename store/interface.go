package store

import "storefront/model"

// Store is the persistence boundary for the storefront state. Two keys
// exist: the cart and the current user session, both JSON-encoded.
type Store interface {
	LoadCart() (model.Cart, error)
	SaveCart(model.Cart) error

	LoadSession() (*model.UserSession, error)
	SaveSession(model.UserSession) error
	ClearSession() error

	Close() error
}
