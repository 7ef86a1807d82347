package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"ballotbet/internal/model"
	"ballotbet/internal/repository"
)

const electionListKey = "__all__"

// ElectionService serves election and candidate reference data. Reads
// go through a short-TTL cache because the catalogue changes rarely but
// is fetched on every betting screen; any write purges the cache.
type ElectionService struct {
	electionRepo *repository.ElectionRepository
	cache        *expirable.LRU[string, []*model.Election]
}

// NewElectionService creates a new ElectionService instance.
func NewElectionService(electionRepo *repository.ElectionRepository, cacheSize int, cacheTTL time.Duration) *ElectionService {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	return &ElectionService{
		electionRepo: electionRepo,
		cache:        expirable.NewLRU[string, []*model.Election](cacheSize, nil, cacheTTL),
	}
}

// ListElections retrieves all elections with their candidates.
func (s *ElectionService) ListElections(ctx context.Context) ([]*model.Election, error) {
	if cached, ok := s.cache.Get(electionListKey); ok {
		return cached, nil
	}

	elections, err := s.electionRepo.ListElections(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.Add(electionListKey, elections)
	return elections, nil
}

// GetElection retrieves one election with its candidates.
func (s *ElectionService) GetElection(ctx context.Context, id string) (*model.Election, error) {
	if cached, ok := s.cache.Get(id); ok && len(cached) == 1 {
		return cached[0], nil
	}

	election, err := s.electionRepo.GetElection(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrElectionNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.cache.Add(id, []*model.Election{election})
	return election, nil
}

// CreateElection adds an election to the catalogue.
func (s *ElectionService) CreateElection(ctx context.Context, e *model.Election) error {
	if e.ID == "" || e.Title == "" {
		return fmt.Errorf("%w: election id and title are required", ErrInvalidInput)
	}

	if err := s.electionRepo.CreateElection(ctx, e); err != nil {
		return err
	}

	s.cache.Purge()
	log.Info().Str("election_id", e.ID).Msg("Election created")
	return nil
}

// UpdateElection updates an election's mutable fields.
func (s *ElectionService) UpdateElection(ctx context.Context, e *model.Election) error {
	if e.ID == "" {
		return fmt.Errorf("%w: election id is required", ErrInvalidInput)
	}

	if err := s.electionRepo.UpdateElection(ctx, e); err != nil {
		if errors.Is(err, repository.ErrElectionNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.cache.Purge()
	return nil
}

// DeleteElection removes an election and its candidates.
func (s *ElectionService) DeleteElection(ctx context.Context, id string) error {
	if err := s.electionRepo.DeleteElection(ctx, id); err != nil {
		if errors.Is(err, repository.ErrElectionNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.cache.Purge()
	log.Info().Str("election_id", id).Msg("Election deleted")
	return nil
}

// CreateCandidate adds a candidate to an election. Odds must parse as a
// decimal greater than 1.
func (s *ElectionService) CreateCandidate(ctx context.Context, c *model.Candidate) (*model.Candidate, error) {
	if err := validateCandidate(c); err != nil {
		return nil, err
	}

	if _, err := s.electionRepo.GetElection(ctx, c.ElectionID); err != nil {
		if errors.Is(err, repository.ErrElectionNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	created, err := s.electionRepo.CreateCandidate(ctx, c)
	if err != nil {
		return nil, err
	}

	s.cache.Purge()
	return created, nil
}

// GetCandidate retrieves one candidate.
func (s *ElectionService) GetCandidate(ctx context.Context, id int64) (*model.Candidate, error) {
	candidate, err := s.electionRepo.GetCandidate(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCandidateNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return candidate, nil
}

// UpdateCandidate updates a candidate's fields.
func (s *ElectionService) UpdateCandidate(ctx context.Context, c *model.Candidate) error {
	if err := validateCandidate(c); err != nil {
		return err
	}

	if err := s.electionRepo.UpdateCandidate(ctx, c); err != nil {
		if errors.Is(err, repository.ErrCandidateNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.cache.Purge()
	return nil
}

// DeleteCandidate removes a candidate.
func (s *ElectionService) DeleteCandidate(ctx context.Context, id int64) error {
	if err := s.electionRepo.DeleteCandidate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCandidateNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.cache.Purge()
	return nil
}

func validateCandidate(c *model.Candidate) error {
	if c.Name == "" {
		return fmt.Errorf("%w: candidate name is required", ErrInvalidInput)
	}

	odds, err := decimal.NewFromString(c.Odds)
	if err != nil {
		return fmt.Errorf("%w: odds must be a decimal number", ErrInvalidInput)
	}
	if odds.LessThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: odds must be greater than 1", ErrInvalidInput)
	}

	return nil
}
