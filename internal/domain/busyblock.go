package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type BlockSource string

const (
	BlockSourceVoice    BlockSource = "voice"
	BlockSourceCalendar BlockSource = "calendar"
)

// BusyBlock is one reported stretch of unavailability for one user. Start and
// End keep the caller's raw form: either a bare 24-hour "HH:MM" wall-clock
// pair or a full ISO-8601 timestamp pair. Wall-clock blocks are resolved
// against a reference date at query time; see NormalizeBusyBlock.
type BusyBlock struct {
	bun.BaseModel `bun:"table:busy_blocks"`

	ID        uuid.UUID   `bun:"id,pk,type:uuid"`
	UserID    string      `bun:"user_id,notnull"`
	Start     string      `bun:"start_raw,notnull"`
	End       string      `bun:"end_raw,notnull"`
	Label     string      `bun:"label"`
	Source    BlockSource `bun:"source,notnull"`
	CreatedAt time.Time   `bun:"created_at,notnull"`
	UpdatedAt time.Time   `bun:"updated_at,notnull"`
}

func (b *BusyBlock) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if b.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			b.ID = id
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		b.UpdatedAt = now
	}
	return nil
}
