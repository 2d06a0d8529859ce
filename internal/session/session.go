// Package session holds per-user console state. A session is created at
// login, looked up by a signed bearer token and destroyed at logout.
package session

import (
	"context"
	"errors"
	"time"

	"rentawheel/pkg/model"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	// ErrStaleCheckout is returned when a checkout save does not carry a
	// newer version than the stored one.
	ErrStaleCheckout = errors.New("checkout state is stale")
)

type Session struct {
	ID        string                 `json:"id" bson:"_id"`
	Role      Role                   `json:"role" bson:"role"`
	Customer  *model.Customer        `json:"customer,omitempty" bson:"customer,omitempty"`
	Employee  *model.Employee        `json:"employee,omitempty" bson:"employee,omitempty"`
	Checkout  *model.CheckoutSession `json:"checkout,omitempty" bson:"checkout,omitempty"`
	Edit      *model.EditSession     `json:"edit,omitempty" bson:"edit,omitempty"`
	CreatedAt time.Time              `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time              `json:"expires_at" bson:"expires_at"`
}

// CustomerID returns the logged-in customer's id, or 0 for employees.
func (s *Session) CustomerID() int64 {
	if s.Customer == nil {
		return 0
	}
	return s.Customer.ID
}

func (s *Session) EmployeeID() int64 {
	if s.Employee == nil {
		return 0
	}
	return s.Employee.ID
}

func (s *Session) clone() *Session {
	out := *s
	if s.Customer != nil {
		c := *s.Customer
		out.Customer = &c
	}
	if s.Employee != nil {
		e := *s.Employee
		out.Employee = &e
	}
	if s.Checkout != nil {
		c := *s.Checkout
		out.Checkout = &c
	}
	if s.Edit != nil {
		e := *s.Edit
		out.Edit = &e
	}
	return &out
}

type contextKey string

const sessionContextKey contextKey = "session"

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(*Session)
	return s, ok && s != nil
}
