package storage

import (
	"context"

	"github.com/tjharb909/FutureButNotNow/internal/models"
)

// Repository defines the interface for the append-only post log
type Repository interface {
	// Post record operations
	CreatePostRecord(ctx context.Context, rec *models.PostRecord) error
	GetPostRecordByID(ctx context.Context, id uint) (*models.PostRecord, error)
	ListPostRecords(ctx context.Context, filter PostRecordFilter) ([]*models.PostRecord, error)
	RecentSuccesses(ctx context.Context, bot string, limit int) ([]*models.PostRecord, error)
	MarkHarvested(ctx context.Context, ids []uint) error

	// Engagement operations
	CreateEngagementRecords(ctx context.Context, recs []*models.EngagementRecord) error
	ListEngagementForPost(ctx context.Context, postID string) ([]*models.EngagementRecord, error)

	// Maintenance
	Close() error
	Migrate() error
}

// PostRecordFilter defines filtering options for post records
type PostRecordFilter struct {
	Bot       *string
	Mode      *string
	Status    *models.PostStatus
	Limit     int
	Offset    int
	OrderDesc bool
}

// DefaultPostRecordFilter returns a filter with sensible defaults
func DefaultPostRecordFilter() PostRecordFilter {
	return PostRecordFilter{
		Limit:     50,
		OrderDesc: true,
	}
}
