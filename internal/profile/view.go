package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lolobw32/ecom-oslan/internal/customer"
	"github.com/Lolobw32/ecom-oslan/internal/order"
)

const defaultLocation = "France"

// DisplayName is "first last" when either is set, else the part of the email
// before "@".
func DisplayName(info customer.Info, email string) string {
	if name := strings.TrimSpace(info.FirstName + " " + info.LastName); name != "" {
		return name
	}
	if email == "" {
		email = info.Email
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

func Location(info customer.Info) string {
	if info.City != "" {
		return info.City
	}
	return defaultLocation
}

type OrderLister interface {
	ListByUser(ctx context.Context, userID string) ([]order.Order, error)
}

type Overview struct {
	DisplayName string        `json:"displayName"`
	Location    string        `json:"location"`
	Info        customer.Info `json:"info"`
	Orders      []order.Order `json:"orders"`
}

type Service struct {
	repo   Repository
	orders OrderLister
}

func NewService(repo Repository, orders OrderLister) *Service {
	return &Service{repo: repo, orders: orders}
}

func (s *Service) Load(ctx context.Context, userID string) (*customer.Info, error) {
	return s.repo.Load(ctx, userID)
}

func (s *Service) Save(ctx context.Context, userID string, info customer.Info) error {
	return s.repo.Save(ctx, userID, info)
}

// Overview backs the profile page. Orders come newest first.
func (s *Service) Overview(ctx context.Context, userID, email string) (Overview, error) {
	info, err := s.repo.Load(ctx, userID)
	if err != nil {
		return Overview{}, err
	}
	var ov Overview
	if info != nil {
		ov.Info = *info
	}
	if ov.Info.Email == "" {
		ov.Info.Email = email
	}
	ov.DisplayName = DisplayName(ov.Info, email)
	ov.Location = Location(ov.Info)

	ov.Orders, err = s.orders.ListByUser(ctx, userID)
	if err != nil {
		return Overview{}, fmt.Errorf("list orders: %w", err)
	}
	if ov.Orders == nil {
		ov.Orders = []order.Order{}
	}
	return ov, nil
}
