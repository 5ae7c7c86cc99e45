package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tjharb909/FutureButNotNow/internal/models"
	"github.com/tjharb909/FutureButNotNow/internal/storage"
)

// Repository implements storage.Repository using SQLite
type Repository struct {
	db *gorm.DB
}

// New creates a new SQLite repository
func New(dsn string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Migrate runs database migrations
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(
		&models.PostRecord{},
		&models.EngagementRecord{},
	)
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Post record operations

func (r *Repository) CreatePostRecord(ctx context.Context, rec *models.PostRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *Repository) GetPostRecordByID(ctx context.Context, id uint) (*models.PostRecord, error) {
	var rec models.PostRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Repository) ListPostRecords(ctx context.Context, filter storage.PostRecordFilter) ([]*models.PostRecord, error) {
	var recs []*models.PostRecord
	query := r.db.WithContext(ctx).Model(&models.PostRecord{})

	if filter.Bot != nil {
		query = query.Where("bot = ?", *filter.Bot)
	}
	if filter.Mode != nil {
		query = query.Where("mode = ?", *filter.Mode)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.OrderDesc {
		query = query.Order("created_at DESC")
	} else {
		query = query.Order("created_at ASC")
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if err := query.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *Repository) RecentSuccesses(ctx context.Context, bot string, limit int) ([]*models.PostRecord, error) {
	var recs []*models.PostRecord
	query := r.db.WithContext(ctx).
		Where("bot = ? AND status = ? AND harvested = ?", bot, models.PostStatusSuccess, false).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *Repository) MarkHarvested(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.PostRecord{}).
		Where("id IN ?", ids).
		Update("harvested", true).Error
}

// Engagement operations

func (r *Repository) CreateEngagementRecords(ctx context.Context, recs []*models.EngagementRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(recs).Error
}

func (r *Repository) ListEngagementForPost(ctx context.Context, postID string) ([]*models.EngagementRecord, error) {
	var recs []*models.EngagementRecord
	if err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("harvested_at ASC").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// Ensure Repository implements storage.Repository
var _ storage.Repository = (*Repository)(nil)
