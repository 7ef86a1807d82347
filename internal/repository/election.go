package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ballotbet/internal/model"
)

// Reference data errors.
var (
	ErrElectionNotFound  = errors.New("election not found")
	ErrElectionExists    = errors.New("election already exists")
	ErrCandidateNotFound = errors.New("candidate not found")
)

// ElectionRepository handles election and candidate reference data.
type ElectionRepository struct {
	pool *pgxpool.Pool
}

// NewElectionRepository creates a new ElectionRepository instance.
func NewElectionRepository(pool *pgxpool.Pool) *ElectionRepository {
	return &ElectionRepository{pool: pool}
}

// CreateElection inserts a new election.
func (r *ElectionRepository) CreateElection(ctx context.Context, e *model.Election) error {
	const query = `
		INSERT INTO elections (id, title, constituency, type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query, e.ID, e.Title, e.Constituency, e.Type)
	if err != nil {
		return fmt.Errorf("failed to create election: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrElectionExists
	}

	return nil
}

// GetElection retrieves an election with its candidates.
func (r *ElectionRepository) GetElection(ctx context.Context, id string) (*model.Election, error) {
	const query = `SELECT id, title, constituency, type FROM elections WHERE id = $1`

	var e model.Election
	err := r.pool.QueryRow(ctx, query, id).Scan(&e.ID, &e.Title, &e.Constituency, &e.Type)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrElectionNotFound
		}
		return nil, fmt.Errorf("failed to get election: %w", err)
	}

	candidates, err := r.listCandidates(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Candidates = candidates

	return &e, nil
}

// ListElections retrieves all elections with their candidates.
func (r *ElectionRepository) ListElections(ctx context.Context) ([]*model.Election, error) {
	const query = `SELECT id, title, constituency, type FROM elections ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list elections: %w", err)
	}
	defer rows.Close()

	var elections []*model.Election
	for rows.Next() {
		var e model.Election
		if err := rows.Scan(&e.ID, &e.Title, &e.Constituency, &e.Type); err != nil {
			return nil, fmt.Errorf("failed to scan election: %w", err)
		}
		elections = append(elections, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating elections: %w", err)
	}

	for _, e := range elections {
		candidates, err := r.listCandidates(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		e.Candidates = candidates
	}

	return elections, nil
}

// UpdateElection updates an election's mutable fields.
func (r *ElectionRepository) UpdateElection(ctx context.Context, e *model.Election) error {
	const query = `
		UPDATE elections SET title = $2, constituency = $3, type = $4
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, e.ID, e.Title, e.Constituency, e.Type)
	if err != nil {
		return fmt.Errorf("failed to update election: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrElectionNotFound
	}

	return nil
}

// DeleteElection deletes an election; candidates go with it via the
// foreign key cascade.
func (r *ElectionRepository) DeleteElection(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM elections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete election: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrElectionNotFound
	}

	return nil
}

func (r *ElectionRepository) listCandidates(ctx context.Context, electionID string) ([]model.Candidate, error) {
	const query = `
		SELECT id, election_id, name, party, odds::text, image
		FROM candidates
		WHERE election_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []model.Candidate
	for rows.Next() {
		var c model.Candidate
		if err := rows.Scan(&c.ID, &c.ElectionID, &c.Name, &c.Party, &c.Odds, &c.Image); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}

	return candidates, nil
}

// CreateCandidate inserts a candidate for an election.
func (r *ElectionRepository) CreateCandidate(ctx context.Context, c *model.Candidate) (*model.Candidate, error) {
	const query = `
		INSERT INTO candidates (election_id, name, party, odds, image)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, odds::text
	`

	created := *c
	err := r.pool.QueryRow(ctx, query, c.ElectionID, c.Name, c.Party, c.Odds, c.Image).Scan(&created.ID, &created.Odds)
	if err != nil {
		return nil, fmt.Errorf("failed to create candidate: %w", err)
	}

	return &created, nil
}

// GetCandidate retrieves a candidate by ID.
func (r *ElectionRepository) GetCandidate(ctx context.Context, id int64) (*model.Candidate, error) {
	const query = `
		SELECT id, election_id, name, party, odds::text, image
		FROM candidates
		WHERE id = $1
	`

	var c model.Candidate
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.ElectionID, &c.Name, &c.Party, &c.Odds, &c.Image)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCandidateNotFound
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}

	return &c, nil
}

// UpdateCandidate updates a candidate's fields.
func (r *ElectionRepository) UpdateCandidate(ctx context.Context, c *model.Candidate) error {
	const query = `
		UPDATE candidates SET name = $2, party = $3, odds = $4, image = $5
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, c.ID, c.Name, c.Party, c.Odds, c.Image)
	if err != nil {
		return fmt.Errorf("failed to update candidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCandidateNotFound
	}

	return nil
}

// DeleteCandidate deletes a candidate.
func (r *ElectionRepository) DeleteCandidate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM candidates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCandidateNotFound
	}

	return nil
}
