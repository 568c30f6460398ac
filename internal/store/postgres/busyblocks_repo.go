package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"github.com/Soham7126/CloseSync-sub001/internal/domain"
	"github.com/Soham7126/CloseSync-sub001/internal/store"
)

type BusyBlockRepo struct {
	db *bun.DB
}

func NewBusyBlockRepo(db *bun.DB) *BusyBlockRepo {
	return &BusyBlockRepo{db: db}
}

func (r *BusyBlockRepo) Create(ctx context.Context, block domain.BusyBlock) (domain.BusyBlock, error) {
	m := block

	_, err := r.db.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			var existing domain.BusyBlock
			selectErr := r.db.NewSelect().
				Model(&existing).
				Where("id = ?", m.ID).
				Limit(1).
				Scan(ctx)
			if selectErr != nil {
				return domain.BusyBlock{}, err
			}

			if existing.UserID != block.UserID ||
				existing.Start != block.Start ||
				existing.End != block.End ||
				existing.Label != block.Label ||
				existing.Source != block.Source {
				return domain.BusyBlock{}, store.ErrIdempotencyConflict
			}

			return existing, nil
		}
		return domain.BusyBlock{}, err
	}

	return m, nil
}

func (r *BusyBlockRepo) ListForUser(ctx context.Context, userID string) ([]domain.BusyBlock, error) {
	var rows []domain.BusyBlock
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BusyBlockRepo) ListForUsers(ctx context.Context, userIDs []string) (map[string][]domain.BusyBlock, error) {
	if len(userIDs) == 0 {
		return map[string][]domain.BusyBlock{}, nil
	}

	var rows []domain.BusyBlock
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id IN (?)", bun.In(userIDs)).
		OrderExpr("user_id ASC, created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return groupBlocksByUser(userIDs, rows), nil
}

func (r *BusyBlockRepo) Delete(ctx context.Context, userID string, blockID uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.BusyBlock)(nil)).
		Where("user_id = ?", userID).
		Where("id = ?", blockID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *BusyBlockRepo) ReplaceSource(ctx context.Context, userID string, source domain.BlockSource, blocks []domain.BusyBlock) ([]domain.BusyBlock, error) {
	var out []domain.BusyBlock
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockUserSchedule(ctx, tx, userID); err != nil {
			return err
		}

		_, err := tx.NewDelete().
			Model((*domain.BusyBlock)(nil)).
			Where("user_id = ?", userID).
			Where("source = ?", source).
			Exec(ctx)
		if err != nil {
			return err
		}

		if len(blocks) == 0 {
			out = []domain.BusyBlock{}
			return nil
		}

		ms := make([]domain.BusyBlock, len(blocks))
		copy(ms, blocks)
		for i := range ms {
			ms[i].UserID = userID
			ms[i].Source = source
		}

		if _, err := tx.NewInsert().Model(&ms).Exec(ctx); err != nil {
			return err
		}
		out = ms
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func lockUserSchedule(ctx context.Context, tx bun.Tx, userID string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", userID).Exec(ctx)
	return err
}

func groupBlocksByUser(userIDs []string, rows []domain.BusyBlock) map[string][]domain.BusyBlock {
	out := make(map[string][]domain.BusyBlock, len(userIDs))
	for _, id := range userIDs {
		out[id] = []domain.BusyBlock{}
	}
	for _, b := range rows {
		if _, ok := out[b.UserID]; !ok {
			continue
		}
		out[b.UserID] = append(out[b.UserID], b)
	}
	return out
}
