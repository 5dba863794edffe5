package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/cep"
	"storefront/checkout"
	"storefront/model"
	"storefront/store"
)

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrLoginRequired      = errors.New("login required")
	ErrCheckoutNotStarted = errors.New("checkout has not been started")
)

// Service owns the storefront state: the cart, the optional session and
// the checkout flow in progress. State is loaded from the store once at
// construction and persisted after every committed mutation. A single
// mutex serializes all operations, standing in for the event-loop
// serialization the original client relied on.
type Service struct {
	mu       sync.Mutex
	store    store.Store
	logger   *slog.Logger
	autofill *cep.Autofill

	cart    model.Cart
	session *model.UserSession
	flow    *checkout.Flow
	prefill *model.Address
}

// NewService loads persisted state and returns a ready Service. The
// lookup client may be nil, in which case address prefill is disabled.
func NewService(st store.Store, lookup *cep.Client, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cart, err := st.LoadCart()
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	sess, err := st.LoadSession()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	s := &Service{
		store:   st,
		logger:  logger,
		cart:    cart,
		session: sess,
	}
	if lookup != nil {
		s.autofill = cep.NewAutofill(lookup)
	}
	logger.Info("storefront state loaded",
		slog.Int("cart_items", len(cart)),
		slog.Bool("logged_in", sess != nil))
	return s, nil
}

// --- views ---

// CartView is the rendered cart: items plus the derived counter and total.
type CartView struct {
	Items []model.CartItem `json:"items"`
	Count int              `json:"count"`
	Total decimal.Decimal  `json:"total"`
}

// UIState is a pure function of session presence: the greeting and which
// menu entries are visible.
type UIState struct {
	LoggedIn      bool   `json:"logged_in"`
	Name          string `json:"name"`
	Avatar        string `json:"avatar"`
	Greeting      string `json:"greeting"`
	ShowLogin     bool   `json:"show_login"`
	ShowLogout    bool   `json:"show_logout"`
	ShowOrders    bool   `json:"show_orders"`
	ShowAddresses bool   `json:"show_addresses"`
}

// CheckoutView renders the flow in progress: current step, the data
// relevant to it and the order summary (subtotal + shipping).
type CheckoutView struct {
	Started        bool                   `json:"started"`
	Step           int                    `json:"step"`
	Address        *model.Address         `json:"address,omitempty"`
	AddressPrefill *model.Address         `json:"address_prefill,omitempty"`
	Options        []model.ShippingOption `json:"shipping_options,omitempty"`
	Selected       int                    `json:"selected_shipping"`
	PaymentMethods []string               `json:"payment_methods,omitempty"`
	Payment        string                 `json:"payment,omitempty"`
	Subtotal       decimal.Decimal        `json:"subtotal"`
	Shipping       decimal.Decimal        `json:"shipping"`
	Total          decimal.Decimal        `json:"total"`
}

func (s *Service) cartView() CartView {
	items := make([]model.CartItem, len(s.cart))
	copy(items, s.cart)
	return CartView{Items: items, Count: s.cart.Count(), Total: s.cart.Subtotal()}
}

func (s *Service) uiState() UIState {
	if s.session == nil {
		return UIState{
			Name:      "Visitante",
			Avatar:    "V",
			Greeting:  "Olá, Visitante!",
			ShowLogin: true,
		}
	}
	return UIState{
		LoggedIn:      true,
		Name:          s.session.DisplayName,
		Avatar:        s.session.AvatarInitial,
		Greeting:      fmt.Sprintf("Olá, %s!", s.session.DisplayName),
		ShowLogout:    true,
		ShowOrders:    true,
		ShowAddresses: true,
	}
}

func (s *Service) checkoutView() CheckoutView {
	subtotal := s.cart.Subtotal()
	if s.flow == nil {
		return CheckoutView{
			Step:     int(checkout.StepAddress),
			Selected: -1,
			Subtotal: subtotal,
			Shipping: decimal.Zero,
			Total:    subtotal,
		}
	}
	shipping := s.flow.ShippingPrice()
	v := CheckoutView{
		Started:  true,
		Step:     int(s.flow.Step),
		Address:  s.flow.Draft.Address,
		Selected: s.flow.Selected,
		Payment:  s.flow.Draft.Payment,
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal.Add(shipping),
	}
	switch s.flow.Step {
	case checkout.StepAddress:
		v.AddressPrefill = s.prefill
	case checkout.StepShipping:
		v.Options = s.flow.Catalog
	case checkout.StepPayment:
		v.PaymentMethods = checkout.PaymentMethods
	}
	return v
}

// --- cart operations ---

// AddItem appends a new line or bumps the quantity of an existing one,
// persists, and returns the fresh view with a confirmation notice.
func (s *Service) AddItem(id, name string, price decimal.Decimal) (CartView, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.cart {
		if s.cart[i].ID == id {
			s.cart[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		s.cart = append(s.cart, model.CartItem{ID: id, Name: name, UnitPrice: price, Quantity: 1})
	}
	if err := s.store.SaveCart(s.cart); err != nil {
		return CartView{}, "", fmt.Errorf("persist cart: %w", err)
	}
	s.logger.Debug("item added", slog.String("id", id), slog.Int("count", s.cart.Count()))
	return s.cartView(), fmt.Sprintf("%s adicionado ao carrinho!", name), nil
}

// RemoveItem deletes the matching line entirely. Unknown ids are a silent
// no-op with no state change.
func (s *Service) RemoveItem(id string) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(id)
}

func (s *Service) removeLocked(id string) (CartView, error) {
	idx := -1
	for i := range s.cart {
		if s.cart[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return s.cartView(), nil
	}
	s.cart = append(s.cart[:idx], s.cart[idx+1:]...)
	if err := s.store.SaveCart(s.cart); err != nil {
		return CartView{}, fmt.Errorf("persist cart: %w", err)
	}
	return s.cartView(), nil
}

// ChangeQuantity adds delta to the line's quantity; a result of zero or
// below removes the line. Unknown ids are a silent no-op.
func (s *Service) ChangeQuantity(id string, delta int) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.cart {
		if s.cart[i].ID != id {
			continue
		}
		if s.cart[i].Quantity+delta <= 0 {
			return s.removeLocked(id)
		}
		s.cart[i].Quantity += delta
		if err := s.store.SaveCart(s.cart); err != nil {
			return CartView{}, fmt.Errorf("persist cart: %w", err)
		}
		return s.cartView(), nil
	}
	return s.cartView(), nil
}

// GetCart returns the current cart view.
func (s *Service) GetCart() CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartView()
}

// --- session operations ---

// Login derives a session from the email and persists it. Both fields
// must be non-empty; the password is otherwise not checked (mock login).
func (s *Service) Login(email, password string) (UIState, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if email == "" || password == "" {
		return s.uiState(), "", ErrMissingCredentials
	}
	sess := model.SessionForEmail(email)
	if err := s.store.SaveSession(sess); err != nil {
		return s.uiState(), "", fmt.Errorf("persist session: %w", err)
	}
	s.session = &sess
	s.logger.Info("user logged in", slog.String("user", sess.DisplayName))
	return s.uiState(), "Login realizado com sucesso!", nil
}

// Logout clears the session. Idempotent.
func (s *Service) Logout() (UIState, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.ClearSession(); err != nil {
		return s.uiState(), "", fmt.Errorf("clear session: %w", err)
	}
	s.session = nil
	s.logger.Info("user logged out")
	return s.uiState(), "Logout realizado com sucesso!", nil
}

// SessionState returns the UI state derived from session presence.
func (s *Service) SessionState() UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uiState()
}

// --- checkout flow ---

// StartCheckout opens the flow at step 1 with a fresh draft. It refuses
// to start with an empty cart or without a session.
func (s *Service) StartCheckout() (CheckoutView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cart) == 0 {
		return s.checkoutView(), ErrEmptyCart
	}
	if s.session == nil {
		return s.checkoutView(), ErrLoginRequired
	}
	s.flow = checkout.NewFlow()
	s.prefill = nil
	return s.checkoutView(), nil
}

// SubmitAddress validates the address and advances to the shipping step.
func (s *Service) SubmitAddress(addr model.Address) (CheckoutView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.flow == nil {
		return s.checkoutView(), ErrCheckoutNotStarted
	}
	if err := s.flow.SubmitAddress(addr, s.cart.Subtotal()); err != nil {
		return s.checkoutView(), err
	}
	s.prefill = nil
	return s.checkoutView(), nil
}

// SelectShipping updates the tentative shipping choice on step 2.
func (s *Service) SelectShipping(index int) (CheckoutView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.flow == nil {
		return s.checkoutView(), ErrCheckoutNotStarted
	}
	if err := s.flow.SelectShipping(index); err != nil {
		return s.checkoutView(), err
	}
	return s.checkoutView(), nil
}

// ConfirmShipping commits the selection and advances to the payment step.
func (s *Service) ConfirmShipping() (CheckoutView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.flow == nil {
		return s.checkoutView(), ErrCheckoutNotStarted
	}
	if err := s.flow.ConfirmShipping(); err != nil {
		return s.checkoutView(), err
	}
	return s.checkoutView(), nil
}

// FinalizeOrder commits the payment method, produces the order record and
// clears the cart. The draft itself is never persisted.
func (s *Service) FinalizeOrder(payment string) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.flow == nil {
		return model.Order{}, ErrCheckoutNotStarted
	}
	if err := s.flow.Finalize(payment); err != nil {
		return model.Order{}, err
	}

	shipping := s.flow.Draft.Shipping
	subtotal := s.cart.Subtotal()
	order := model.Order{
		ID:       uuid.NewString(),
		Number:   orderNumber(),
		Subtotal: subtotal,
		Shipping: shipping.Price,
		Total:    subtotal.Add(shipping.Price),
		ETADays:  shipping.ETADays,
		Payment:  payment,
	}

	s.cart = model.Cart{}
	if err := s.store.SaveCart(s.cart); err != nil {
		return model.Order{}, fmt.Errorf("persist cleared cart: %w", err)
	}
	s.logger.Info("order confirmed",
		slog.String("number", order.Number),
		slog.String("total", order.Total.StringFixed(2)))
	return order, nil
}

// PrevStep moves the flow one step back, unconditionally.
func (s *Service) PrevStep() CheckoutView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.flow != nil {
		s.flow.Back()
	}
	return s.checkoutView()
}

// ResetCheckout clears the draft and selection and returns to step 1.
func (s *Service) ResetCheckout() CheckoutView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.flow != nil {
		s.flow.Reset()
	}
	s.prefill = nil
	return s.checkoutView()
}

// CheckoutState returns the current flow view without changing anything.
func (s *Service) CheckoutState() CheckoutView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkoutView()
}

// PrefillAddress fires a background postal lookup. When the newest
// response arrives it lands in the address prefill of the checkout view;
// failures and superseded responses leave the state untouched.
func (s *Service) PrefillAddress(code string) {
	if s.autofill == nil {
		return
	}
	masked := cep.Normalize(code)
	if !cep.Complete(masked) {
		return
	}
	s.autofill.Fill(context.Background(), masked, func(res cep.Result) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.prefill = &model.Address{
			PostalCode:   masked,
			Street:       res.Street,
			Neighborhood: res.Neighborhood,
			City:         res.City,
			State:        res.State,
		}
	})
}

const orderAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// orderNumber builds the display reference shown on the confirmation
// screen: "#" followed by nine base36 characters.
func orderNumber() string {
	b := make([]byte, 9)
	for i := range b {
		b[i] = orderAlphabet[rand.IntN(len(orderAlphabet))]
	}
	return "#" + string(b)
}
