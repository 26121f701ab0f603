package profile

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Store is the persistence the profile service needs.
type Store interface {
	GetByUserID(ctx context.Context, userID int64) (*Profile, error)
	GetByUserIDs(ctx context.Context, userIDs []int64) (map[int64]*Profile, error)
	Create(ctx context.Context, p *Profile) error
	Update(ctx context.Context, p *Profile) error
}

// Service handles profile business logic
type Service struct {
	repo Store
}

// NewService creates profile service
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// EnsureProfile creates an empty profile for a new account if none exists.
func (s *Service) EnsureProfile(ctx context.Context, userID int64, fullName, email string) (*Profile, error) {
	existing, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	p := &Profile{
		UserID:    userID,
		FullName:  strings.TrimSpace(fullName),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, ErrProfileAlreadyExists) {
			return s.repo.GetByUserID(ctx, userID)
		}
		return nil, err
	}
	return p, nil
}

// GetByUserID returns ErrProfileNotFound when the user has no profile.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Profile, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

// Update applies a partial update to the caller's own profile.
func (s *Service) Update(ctx context.Context, userID int64, req *UpdateProfileRequest) (*Profile, error) {
	p, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		p.FullName = strings.TrimSpace(*req.FullName)
	}
	applyString(&p.Phone, req.Phone)
	applyString(&p.CompanyName, req.CompanyName)
	applyString(&p.City, req.City)
	applyString(&p.Address, req.Address)
	applyString(&p.TaxNumber, req.TaxNumber)
	applyString(&p.TaxOffice, req.TaxOffice)
	p.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Summaries returns owner summaries for every distinct user in ids using a
// single lookup. Users without a profile are absent from the map.
func (s *Service) Summaries(ctx context.Context, ids []int64) (map[int64]*Summary, error) {
	profiles, err := s.repo.GetByUserIDs(ctx, distinct(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*Summary, len(profiles))
	for id, p := range profiles {
		out[id] = p.Summary()
	}
	return out, nil
}

// CarrierSummaries is Summaries with the reduced carrier projection.
func (s *Service) CarrierSummaries(ctx context.Context, ids []int64) (map[int64]*CarrierSummary, error) {
	profiles, err := s.repo.GetByUserIDs(ctx, distinct(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*CarrierSummary, len(profiles))
	for id, p := range profiles {
		out[id] = p.CarrierSummary()
	}
	return out, nil
}

func distinct(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
