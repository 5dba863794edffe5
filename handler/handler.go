package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"storefront/cep"
	"storefront/checkout"
	"storefront/model"
	"storefront/service"
)

// Handler is the HTTP layer that talks to service.Service
type Handler struct {
	svc    service.ServiceInterface
	lookup *cep.Client
}

// NewHandler returns a Handler instance. lookup may be nil to disable the
// postal endpoints.
func NewHandler(s service.ServiceInterface, lookup *cep.Client) *Handler {
	return &Handler{svc: s, lookup: lookup}
}

// RegisterRoutes registers all routes on the provided router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Cart
	r.HandleFunc("/cart", h.GetCart).Methods("GET")
	r.HandleFunc("/cart/add", h.AddToCart).Methods("POST")
	r.HandleFunc("/cart/remove", h.RemoveFromCart).Methods("POST")
	r.HandleFunc("/cart/quantity", h.ChangeQuantity).Methods("POST")

	// Session
	r.HandleFunc("/session", h.SessionState).Methods("GET")
	r.HandleFunc("/session/login", h.Login).Methods("POST")
	r.HandleFunc("/session/logout", h.Logout).Methods("POST")

	// Checkout
	r.HandleFunc("/checkout", h.CheckoutState).Methods("GET")
	r.HandleFunc("/checkout/start", h.StartCheckout).Methods("POST")
	r.HandleFunc("/checkout/address", h.SubmitAddress).Methods("POST")
	r.HandleFunc("/checkout/shipping/select", h.SelectShipping).Methods("POST")
	r.HandleFunc("/checkout/shipping/confirm", h.ConfirmShipping).Methods("POST")
	r.HandleFunc("/checkout/finalize", h.FinalizeOrder).Methods("POST")
	r.HandleFunc("/checkout/back", h.PrevStep).Methods("POST")
	r.HandleFunc("/checkout/reset", h.ResetCheckout).Methods("POST")

	// Postal lookup
	if h.lookup != nil {
		r.HandleFunc("/cep/{code}", h.LookupCEP).Methods("GET")
		r.HandleFunc("/checkout/cep", h.PrefillAddress).Methods("POST")
	}
}

// --- request / response shapes ---

type addItemReq struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type itemIDReq struct {
	ID string `json:"id"`
}

type quantityReq struct {
	ID    string `json:"id"`
	Delta int    `json:"delta"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type selectShippingReq struct {
	Index int `json:"index"`
}

type finalizeReq struct {
	Payment string `json:"payment"`
}

type cepReq struct {
	Code string `json:"code"`
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeCheckoutErr maps flow errors onto status codes. Prerequisite
// failures get 409 plus an action hint so the client can route the user
// to the cart warning or the login prompt.
func writeCheckoutErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error(), "action": "cart"})
	case errors.Is(err, service.ErrLoginRequired):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error(), "action": "login"})
	case errors.Is(err, service.ErrCheckoutNotStarted),
		errors.Is(err, checkout.ErrWrongStep),
		errors.Is(err, checkout.ErrIncompleteAddress),
		errors.Is(err, checkout.ErrNoShippingSelected),
		errors.Is(err, checkout.ErrUnknownShippingOption),
		errors.Is(err, checkout.ErrNoPaymentMethod),
		errors.Is(err, checkout.ErrUnknownPaymentMethod):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

// --- cart ---

// GetCart handles GET /cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GetCart())
}

// AddToCart handles POST /cart/add
// body: { "id": "a", "name": "Ração", "price": 50 }
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ID == "" {
		writeErr(w, http.StatusBadRequest, "id is required")
		return
	}
	if req.Price.IsNegative() {
		writeErr(w, http.StatusBadRequest, "price must be >= 0")
		return
	}
	view, notice, err := h.svc.AddItem(req.ID, req.Name, req.Price)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"cart": view, "notice": notice})
}

// RemoveFromCart handles POST /cart/remove
// body: { "id": "a" }
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var req itemIDReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ID == "" {
		writeErr(w, http.StatusBadRequest, "id is required")
		return
	}
	view, err := h.svc.RemoveItem(req.ID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ChangeQuantity handles POST /cart/quantity
// body: { "id": "a", "delta": -1 }
func (h *Handler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ID == "" {
		writeErr(w, http.StatusBadRequest, "id is required")
		return
	}
	view, err := h.svc.ChangeQuantity(req.ID, req.Delta)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// --- session ---

// SessionState handles GET /session
func (h *Handler) SessionState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.SessionState())
}

// Login handles POST /session/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	state, notice, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrMissingCredentials) {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": state, "notice": notice})
}

// Logout handles POST /session/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	state, notice, err := h.svc.Logout()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": state, "notice": notice})
}

// --- checkout ---

// CheckoutState handles GET /checkout
func (h *Handler) CheckoutState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.CheckoutState())
}

// StartCheckout handles POST /checkout/start
func (h *Handler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.StartCheckout()
	if err != nil {
		writeCheckoutErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SubmitAddress handles POST /checkout/address with the address fields as
// the body.
func (h *Handler) SubmitAddress(w http.ResponseWriter, r *http.Request) {
	var addr model.Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	view, err := h.svc.SubmitAddress(addr)
	if err != nil {
		writeCheckoutErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SelectShipping handles POST /checkout/shipping/select
// body: { "index": 0 }
func (h *Handler) SelectShipping(w http.ResponseWriter, r *http.Request) {
	var req selectShippingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	view, err := h.svc.SelectShipping(req.Index)
	if err != nil {
		writeCheckoutErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ConfirmShipping handles POST /checkout/shipping/confirm
func (h *Handler) ConfirmShipping(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.ConfirmShipping()
	if err != nil {
		writeCheckoutErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// FinalizeOrder handles POST /checkout/finalize
// body: { "payment": "pix" }
func (h *Handler) FinalizeOrder(w http.ResponseWriter, r *http.Request) {
	var req finalizeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	order, err := h.svc.FinalizeOrder(req.Payment)
	if err != nil {
		writeCheckoutErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"order":             order,
		"delivery_estimate": order.ETADays + " dias úteis",
	})
}

// PrevStep handles POST /checkout/back
func (h *Handler) PrevStep(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.PrevStep())
}

// ResetCheckout handles POST /checkout/reset
func (h *Handler) ResetCheckout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ResetCheckout())
}

// --- postal lookup ---

// LookupCEP handles GET /cep/{code}. The code may be raw digits or masked.
func (h *Handler) LookupCEP(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	res, err := h.lookup.Lookup(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, cep.ErrIncompleteCode):
			writeErr(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, cep.ErrNoMatch):
			writeErr(w, http.StatusNotFound, err.Error())
		default:
			writeErr(w, http.StatusBadGateway, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cep":     cep.Normalize(code),
		"address": res,
	})
}

// PrefillAddress handles POST /checkout/cep
// body: { "code": "01001000" }. Fire-and-forget: the prefill shows up in
// a later GET /checkout once the lookup resolves.
func (h *Handler) PrefillAddress(w http.ResponseWriter, r *http.Request) {
	var req cepReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	h.svc.PrefillAddress(req.Code)
	writeJSON(w, http.StatusAccepted, map[string]string{"cep": cep.Normalize(req.Code)})
}
