package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/Soham7126/CloseSync-sub001/internal/domain"
)

type BusyBlockRepository interface {
	Create(ctx context.Context, block domain.BusyBlock) (domain.BusyBlock, error)
	ListForUser(ctx context.Context, userID string) ([]domain.BusyBlock, error)

	// ListForUsers fetches every listed user's blocks in one query. The
	// result has an entry for every requested id; a user with no blocks
	// maps to an empty slice.
	ListForUsers(ctx context.Context, userIDs []string) (map[string][]domain.BusyBlock, error)

	Delete(ctx context.Context, userID string, blockID uuid.UUID) error

	// ReplaceSource atomically swaps all of one user's blocks from one
	// source for the given set. Used by calendar sync.
	ReplaceSource(ctx context.Context, userID string, source domain.BlockSource, blocks []domain.BusyBlock) ([]domain.BusyBlock, error)
}
