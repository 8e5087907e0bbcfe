package repository

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"copytrader/src/database"
	"copytrader/src/model"
)

// CopyTradeRepository persists copy execution outcomes.
type CopyTradeRepository struct {
	db *gorm.DB
}

// NewCopyTradeRepository creates a repository instance using the main
// database.
func NewCopyTradeRepository() *CopyTradeRepository {
	logger.WithField("component", "CopyTradeRepository").
		Info("Creating new CopyTradeRepository with MainDB")

	return &CopyTradeRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *CopyTradeRepository) WithDB(db *gorm.DB) *CopyTradeRepository {
	return &CopyTradeRepository{db: db}
}

// Create inserts one copy trade log entry.
func (r *CopyTradeRepository) Create(ctx context.Context, entry *model.CopyTradeLog) error {
	logger.WithFields(map[string]interface{}{
		"repo":   "CopyTradeRepository",
		"op":     "Create",
		"trader": entry.TraderAddress,
		"side":   entry.Side,
		"status": entry.Status,
	}).Debug("Creating copy trade log")

	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "CopyTradeRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to create copy trade log")
		return err
	}
	return nil
}

// SearchOptions filters FindRecent results. Zero values mean "no filter".
type SearchOptions struct {
	TraderAddress string
	Status        string
	Since         *time.Time
	Limit         int
}

// FindRecent returns log entries newest first, filtered by the options.
func (r *CopyTradeRepository) FindRecent(ctx context.Context, opts SearchOptions) ([]model.CopyTradeLog, error) {
	query := r.db.WithContext(ctx).Model(&model.CopyTradeLog{})

	if opts.TraderAddress != "" {
		query = query.Where("trader_address = ?", opts.TraderAddress)
	}
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}
	if opts.Since != nil {
		query = query.Where("created_at >= ?", *opts.Since)
	}

	query = query.Order("created_at DESC, id DESC")
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	var entries []model.CopyTradeLog
	if err := query.Find(&entries).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "CopyTradeRepository",
			"op":   "FindRecent",
		}).WithError(err).Error("Failed to search copy trade logs")
		return nil, err
	}
	return entries, nil
}

// CountByStatus returns how many entries exist per terminal status.
func (r *CopyTradeRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Total  int64
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.CopyTradeLog{}).
		Select("status, count(*) as total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}
