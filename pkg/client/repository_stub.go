package client

import (
	"context"
	"sort"
	"strings"
	"time"
)

type RepositoryStub struct {
	nextId  int
	clients map[int]Client
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{clients: map[int]Client{}}
}

func (s *RepositoryStub) Create(ctx context.Context, client Client) (Client, error) {
	if client.ExternalId != "" {
		if _, err := s.FindByExternalId(ctx, client.ExternalId); err == nil {
			return Client{}, ErrDuplicateExternalId
		}
	}
	s.nextId++
	client.Id = s.nextId
	client.CreatedAt = time.Now()
	s.clients[client.Id] = client
	return client, nil
}

func (s *RepositoryStub) Get(ctx context.Context, id int) (Client, error) {
	c, ok := s.clients[id]
	if !ok {
		return Client{}, ErrClientNotFound
	}
	return c, nil
}

func (s *RepositoryStub) List(ctx context.Context, filter Filter) ([]Client, error) {
	result := make([]Client, 0)
	search := strings.ToLower(filter.Search)
	for _, c := range s.clients {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.FirstName+" "+c.LastName+" "+c.ExternalId+" "+c.TaxCode), search) {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id < result[j].Id })
	return result, nil
}

func (s *RepositoryStub) Update(ctx context.Context, client Client) (Client, error) {
	existing, ok := s.clients[client.Id]
	if !ok {
		return Client{}, ErrClientNotFound
	}
	client.CreatedAt = existing.CreatedAt
	s.clients[client.Id] = client
	return client, nil
}

func (s *RepositoryStub) Delete(ctx context.Context, id int) error {
	if _, ok := s.clients[id]; !ok {
		return ErrClientNotFound
	}
	delete(s.clients, id)
	return nil
}

func (s *RepositoryStub) FindByExternalId(ctx context.Context, externalId string) (Client, error) {
	for _, c := range s.clients {
		if c.ExternalId == externalId {
			return c, nil
		}
	}
	return Client{}, ErrClientNotFound
}

func (s *RepositoryStub) FindByTaxCode(ctx context.Context, taxCode string) (Client, error) {
	for _, c := range s.clients {
		if c.TaxCode != "" && strings.EqualFold(c.TaxCode, taxCode) {
			return c, nil
		}
	}
	return Client{}, ErrClientNotFound
}

func (s *RepositoryStub) CountByStatus(ctx context.Context, status Status) (int, error) {
	count := 0
	for _, c := range s.clients {
		if c.Status == status {
			count++
		}
	}
	return count, nil
}

func (s *RepositoryStub) Cleanup() {
	s.nextId = 0
	s.clients = map[int]Client{}
}
