package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ballotbet/internal/model"
)

// ErrWagerNotFound is returned when a wager lookup misses.
var ErrWagerNotFound = errors.New("wager not found")

// WagerRepository handles wager and selection persistence.
type WagerRepository struct {
	pool *pgxpool.Pool
}

// NewWagerRepository creates a new WagerRepository instance.
func NewWagerRepository(pool *pgxpool.Pool) *WagerRepository {
	return &WagerRepository{pool: pool}
}

// Create persists a wager and its selections inside the placement
// transaction. The split is fixed at creation and never recomputed.
func (r *WagerRepository) Create(ctx context.Context, tx pgx.Tx, wager *model.Wager) (*model.Wager, error) {
	const query = `
		INSERT INTO wagers (account_id, stake, total_odds, possible_win,
			real_money_used, bonus_used, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, total_odds::text, status, created_at
	`

	created := *wager
	err := tx.QueryRow(ctx, query,
		wager.AccountID,
		wager.Stake,
		wager.TotalOdds,
		wager.PossibleWin,
		wager.RealMoneyUsed,
		wager.BonusUsed,
		model.WagerStatusPending,
	).Scan(&created.ID, &created.TotalOdds, &created.Status, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create wager: %w", err)
	}

	const selQuery = `
		INSERT INTO wager_selections (wager_id, candidate_name, odds)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	created.Selections = make([]model.WagerSelection, len(wager.Selections))
	for i, s := range wager.Selections {
		sel := model.WagerSelection{
			WagerID:       created.ID,
			CandidateName: s.CandidateName,
			Odds:          s.Odds,
		}
		if err := tx.QueryRow(ctx, selQuery, created.ID, s.CandidateName, s.Odds).Scan(&sel.ID); err != nil {
			return nil, fmt.Errorf("failed to create wager selection: %w", err)
		}
		created.Selections[i] = sel
	}

	return &created, nil
}

// ListByAccount retrieves an account's wagers newest first, with their
// selections attached.
func (r *WagerRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]*model.Wager, error) {
	const query = `
		SELECT id, account_id, stake, total_odds::text, possible_win,
			real_money_used, bonus_used, status, created_at
		FROM wagers
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list wagers: %w", err)
	}
	defer rows.Close()

	var wagers []*model.Wager
	byID := make(map[int64]*model.Wager)
	var ids []int64
	for rows.Next() {
		var w model.Wager
		err := rows.Scan(
			&w.ID,
			&w.AccountID,
			&w.Stake,
			&w.TotalOdds,
			&w.PossibleWin,
			&w.RealMoneyUsed,
			&w.BonusUsed,
			&w.Status,
			&w.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, &w)
		byID[w.ID] = &w
		ids = append(ids, w.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wagers: %w", err)
	}

	if len(ids) == 0 {
		return wagers, nil
	}

	const selQuery = `
		SELECT id, wager_id, candidate_name, odds::text
		FROM wager_selections
		WHERE wager_id = ANY($1)
		ORDER BY id
	`

	selRows, err := r.pool.Query(ctx, selQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list wager selections: %w", err)
	}
	defer selRows.Close()

	for selRows.Next() {
		var s model.WagerSelection
		if err := selRows.Scan(&s.ID, &s.WagerID, &s.CandidateName, &s.Odds); err != nil {
			return nil, fmt.Errorf("failed to scan wager selection: %w", err)
		}
		if w, ok := byID[s.WagerID]; ok {
			w.Selections = append(w.Selections, s)
		}
	}
	if err := selRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wager selections: %w", err)
	}

	return wagers, nil
}

// GetByID retrieves a single wager without its selections.
func (r *WagerRepository) GetByID(ctx context.Context, id int64) (*model.Wager, error) {
	const query = `
		SELECT id, account_id, stake, total_odds::text, possible_win,
			real_money_used, bonus_used, status, created_at
		FROM wagers
		WHERE id = $1
	`

	var w model.Wager
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&w.ID,
		&w.AccountID,
		&w.Stake,
		&w.TotalOdds,
		&w.PossibleWin,
		&w.RealMoneyUsed,
		&w.BonusUsed,
		&w.Status,
		&w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWagerNotFound
		}
		return nil, fmt.Errorf("failed to get wager: %w", err)
	}

	return &w, nil
}
