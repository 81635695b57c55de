package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/Lolobw32/ecom-oslan/internal/auth"
	"github.com/Lolobw32/ecom-oslan/internal/checkout"
	"github.com/Lolobw32/ecom-oslan/internal/customer"
)

type checkoutResponse struct {
	checkout.State
	// Token is returned after sign-in so the client can call /api/me.
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) writeState(w http.ResponseWriter, r *http.Request, st checkout.State, err error) {
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{State: st})
}

func (h *Handler) CheckoutState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, checkoutResponse{State: h.session(r).Checkout().State()})
}

// OpenCheckout starts at IDENTITY for a signed-in user, LOGIN otherwise.
func (h *Handler) OpenCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	st, err := h.session(r).OpenCheckout(ctx)
	h.writeState(w, r, st, err)
}

func (h *Handler) CloseCheckout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, checkoutResponse{State: h.session(r).CloseCheckout()})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) CheckoutSignIn(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, (*checkout.Controller).SignIn)
}

func (h *Handler) CheckoutSignUp(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, (*checkout.Controller).SignUp)
}

type authStep func(c *checkout.Controller, ctx context.Context, email, password string) (checkout.State, error)

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request, step authStep) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	s := h.session(r)
	st, err := step(s.Checkout(), ctx, req.Email, req.Password)
	if errors.Is(err, auth.ErrConfirmationRequired) {
		writeJSON(w, http.StatusAccepted, checkoutResponse{State: st, Message: err.Error()})
		return
	}
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{State: st, Token: s.Auth().Token(ctx)})
}

func (h *Handler) SetIdentity(w http.ResponseWriter, r *http.Request) {
	var req customer.Identity
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{State: h.session(r).Checkout().SetIdentity(req)})
}

func (h *Handler) SetAddress(w http.ResponseWriter, r *http.Request) {
	var req customer.Address
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{State: h.session(r).Checkout().SetAddress(req)})
}

type paymentRequest struct {
	Method customer.PaymentMethod `json:"method"`
}

func (h *Handler) SetPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := h.session(r).Checkout().SetPaymentMethod(req.Method)
	h.writeState(w, r, st, err)
}

// AdvanceCheckout answers 422 with the failing fields when the current step
// does not validate.
func (h *Handler) AdvanceCheckout(w http.ResponseWriter, r *http.Request) {
	st, err := h.session(r).Checkout().Advance()
	h.writeState(w, r, st, err)
}

func (h *Handler) BackCheckout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, checkoutResponse{State: h.session(r).Checkout().Back()})
}

// ConfirmCheckout places the order. On failure the checkout stays at PAYMENT
// so the customer can retry.
func (h *Handler) ConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	s := h.session(r)
	res, err := s.Confirm(ctx)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
