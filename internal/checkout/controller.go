// Package checkout drives the four-step checkout: login, identity, address,
// payment. Field values survive close and reopen; the step does not.
package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Lolobw32/ecom-oslan/internal/auth"
	"github.com/Lolobw32/ecom-oslan/internal/customer"
	"github.com/Lolobw32/ecom-oslan/internal/orderflow"
)

var (
	ErrClosed             = errors.New("checkout is not open")
	ErrWrongStep          = errors.New("action not available at this step")
	ErrInvalidPayment     = errors.New("unknown payment method")
	ErrSubmissionInFlight = errors.New("order submission already running")
)

type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (auth.User, error)
	SignUp(ctx context.Context, email, password string) (auth.User, error)
	CurrentUser(ctx context.Context) (*auth.User, error)
}

type ProfileStore interface {
	Load(ctx context.Context, userID string) (*customer.Info, error)
	Save(ctx context.Context, userID string, info customer.Info) error
}

// SubmitFunc runs the order workflow for a customer snapshot.
type SubmitFunc func(ctx context.Context, info customer.Info, userID string) (orderflow.Result, error)

type State struct {
	Open bool          `json:"open"`
	Step Step          `json:"step"`
	Info customer.Info `json:"info"`
	User *auth.User    `json:"user,omitempty"`
}

const profileSaveTimeout = 5 * time.Second

type Controller struct {
	auth     Authenticator
	profiles ProfileStore
	logger   *zap.Logger

	mu         sync.Mutex
	open       bool
	step       Step
	info       customer.Info
	user       *auth.User
	submitting bool
}

func NewController(a Authenticator, profiles ProfileStore, logger *zap.Logger) *Controller {
	return &Controller{
		auth:     a,
		profiles: profiles,
		logger:   logger.Named("checkout"),
		info:     customer.Info{PaymentMethod: customer.PaymentCard},
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Submitting reports whether a Confirm is running.
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

func (c *Controller) stateLocked() State {
	s := State{Open: c.open, Step: c.step, Info: c.info}
	if c.user != nil {
		u := *c.user
		s.User = &u
	}
	return s
}

// Open starts at IDENTITY when a user is signed in, else at LOGIN.
func (c *Controller) Open(ctx context.Context) (State, error) {
	user, err := c.auth.CurrentUser(ctx)
	if err != nil {
		c.logger.Warn("current user lookup failed, opening at login", zap.Error(err))
		user = nil
	}

	var stored *customer.Info
	if user != nil {
		stored = c.loadProfile(ctx, user.ID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	c.user = user
	c.step = StepLogin
	if user != nil {
		c.step = StepIdentity
		c.prefillLocked(stored, user.Email)
	}
	return c.stateLocked(), nil
}

func (c *Controller) loadProfile(ctx context.Context, userID string) *customer.Info {
	if c.profiles == nil {
		return nil
	}
	p, err := c.profiles.Load(ctx, userID)
	if err != nil {
		c.logger.Warn("profile load failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return p
}

func (c *Controller) prefillLocked(stored *customer.Info, email string) {
	if stored != nil {
		c.info.Prefill(*stored)
	}
	c.info.Prefill(customer.Info{Email: email})
}

func (c *Controller) SignIn(ctx context.Context, email, password string) (State, error) {
	return c.authenticate(ctx, func() (auth.User, error) {
		return c.auth.SignIn(ctx, email, password)
	})
}

// SignUp stays at LOGIN with auth.ErrConfirmationRequired when the account
// must be confirmed by email first.
func (c *Controller) SignUp(ctx context.Context, email, password string) (State, error) {
	return c.authenticate(ctx, func() (auth.User, error) {
		return c.auth.SignUp(ctx, email, password)
	})
}

func (c *Controller) authenticate(ctx context.Context, call func() (auth.User, error)) (State, error) {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return State{}, ErrClosed
	}
	if c.step != StepLogin {
		s := c.stateLocked()
		c.mu.Unlock()
		return s, ErrWrongStep
	}
	c.mu.Unlock()

	user, err := call()
	if err != nil {
		return c.State(), err
	}
	stored := c.loadProfile(ctx, user.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = &user
	if c.open && c.step == StepLogin {
		c.step = StepIdentity
	}
	c.prefillLocked(stored, user.Email)
	return c.stateLocked(), nil
}

func (c *Controller) SetIdentity(id customer.Identity) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info.SetIdentity(id)
	return c.stateLocked()
}

func (c *Controller) SetAddress(a customer.Address) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info.SetAddress(a)
	return c.stateLocked()
}

func (c *Controller) SetPaymentMethod(m customer.PaymentMethod) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch m {
	case customer.PaymentCard, customer.PaymentPayPal:
		c.info.PaymentMethod = m
		return c.stateLocked(), nil
	default:
		return c.stateLocked(), ErrInvalidPayment
	}
}

// Advance validates the current step's fields and moves forward. A failed
// validation returns a *customer.ValidationError and keeps the step.
func (c *Controller) Advance() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return c.stateLocked(), ErrClosed
	}

	var err error
	switch c.step {
	case StepIdentity:
		if err = c.info.ValidateIdentity(); err == nil {
			c.step = StepAddress
		}
	case StepAddress:
		if err = c.info.ValidateAddress(); err == nil {
			c.step = StepPayment
		}
	default:
		err = ErrWrongStep
	}
	return c.stateLocked(), err
}

// Back never re-validates and never returns to LOGIN.
func (c *Controller) Back() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open && c.step > StepIdentity {
		c.step--
	}
	return c.stateLocked()
}

// Confirm submits the order from PAYMENT. On success the checkout closes and
// the entered fields are saved to the user's profile in the background. On
// failure the checkout stays open at PAYMENT.
func (c *Controller) Confirm(ctx context.Context, submit SubmitFunc) (orderflow.Result, error) {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return orderflow.Result{}, ErrClosed
	}
	if c.step != StepPayment {
		c.mu.Unlock()
		return orderflow.Result{}, ErrWrongStep
	}
	if c.submitting {
		c.mu.Unlock()
		return orderflow.Result{}, ErrSubmissionInFlight
	}
	c.submitting = true
	info := c.info
	var userID string
	if c.user != nil {
		userID = c.user.ID
	}
	c.mu.Unlock()

	res, err := submit(ctx, info, userID)

	c.mu.Lock()
	c.submitting = false
	if err == nil {
		c.open = false
		c.step = StepLogin
	}
	c.mu.Unlock()

	if err != nil {
		return res, err
	}
	if userID != "" && c.profiles != nil {
		go c.saveProfile(context.WithoutCancel(ctx), userID, info)
	}
	return res, nil
}

func (c *Controller) saveProfile(ctx context.Context, userID string, info customer.Info) {
	ctx, cancel := context.WithTimeout(ctx, profileSaveTimeout)
	defer cancel()
	if err := c.profiles.Save(ctx, userID, info); err != nil {
		c.logger.Error("profile save failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// Close abandons the in-progress checkout. Entered fields are kept for the
// next Open.
func (c *Controller) Close() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	c.step = StepLogin
	return c.stateLocked()
}
