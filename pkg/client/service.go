package client

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var ErrClientDataInvalid = errors.New("invalid client data")

type Service interface {
	Create(ctx context.Context, client Client) (Client, error)
	Get(ctx context.Context, id int) (Client, error)
	List(ctx context.Context, filter Filter) ([]Client, error)
	Update(ctx context.Context, client Client) (Client, error)
	Delete(ctx context.Context, id int) error
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) Create(ctx context.Context, client Client) (Client, error) {
	if client.Status == "" {
		client.Status = StatusActive
	}
	client = normalize(client)
	if err := validate(client); err != nil {
		return Client{}, err
	}
	return s.repo.Create(ctx, client)
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) List(ctx context.Context, filter Filter) ([]Client, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrClientDataInvalid, filter.Status)
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

func (s *ServiceImpl) Update(ctx context.Context, client Client) (Client, error) {
	if client.Status == "" {
		existing, err := s.repo.Get(ctx, client.Id)
		if err != nil {
			return Client{}, err
		}
		client.Status = existing.Status
	}
	client = normalize(client)
	if err := validate(client); err != nil {
		return Client{}, err
	}
	return s.repo.Update(ctx, client)
}

func (s *ServiceImpl) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func normalize(c Client) Client {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = strings.TrimSpace(c.Email)
	c.ExternalId = strings.TrimSpace(c.ExternalId)
	c.TaxCode = strings.ToUpper(strings.TrimSpace(c.TaxCode))
	c.MonthlyBudget = c.MonthlyBudget.Round(2)
	return c
}

func validate(c Client) error {
	if c.FirstName == "" || c.LastName == "" {
		return fmt.Errorf("%w: first and last name are required", ErrClientDataInvalid)
	}
	if !c.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrClientDataInvalid, c.Status)
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return fmt.Errorf("%w: email is not valid", ErrClientDataInvalid)
		}
	}
	if c.MonthlyBudget.IsNegative() {
		return fmt.Errorf("%w: monthly budget cannot be negative", ErrClientDataInvalid)
	}
	return nil
}
