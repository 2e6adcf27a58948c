// Package journal keeps a local record of transactions submitted through the
// SDK so that their receipts can be awaited and inspected later.
package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Status tracks a journaled transaction.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusMined   Status = "MINED"
	StatusFailed  Status = "FAILED"
)

// ErrNotFound is returned when no entry exists for a hash.
var ErrNotFound = errors.New("journal: entry not found")

// Entry is one submitted transaction.
type Entry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Hash        string    `gorm:"uniqueIndex;size:66"`
	Kind        string    `gorm:"index"`
	Contract    string    `gorm:"index;size:42"`
	Method      string
	Sender      string `gorm:"index;size:42"`
	Status      Status `gorm:"index"`
	BlockNumber uint64
	GasUsed     uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Status   Status
	Contract string
	Limit    int
}

// Journal persists entries through gorm.
type Journal struct {
	db  *gorm.DB
	now func() time.Time
}

// Open connects to dsn. Values starting with postgres:// or postgresql:// use
// the Postgres driver; anything else is treated as a SQLite path or DSN.
func Open(dsn string) (*Journal, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("journal: dsn required")
	}
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB) (*Journal, error) {
	if db == nil {
		return nil, errors.New("journal: nil db")
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

// Close releases the underlying connection pool.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record stores a pending entry for a freshly submitted transaction. Recording
// the same hash twice keeps the first entry.
func (j *Journal) Record(ctx context.Context, entry Entry) (*Entry, error) {
	if strings.TrimSpace(entry.Hash) == "" {
		return nil, errors.New("journal: hash required")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Status == "" {
		entry.Status = StatusPending
	}
	now := j.now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	err := j.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "hash"}}, DoNothing: true}).
		Create(&entry).Error
	if err != nil {
		return nil, fmt.Errorf("journal: record %s: %w", entry.Hash, err)
	}
	return j.Get(ctx, entry.Hash)
}

// Get returns the entry for hash.
func (j *Journal) Get(ctx context.Context, hash string) (*Entry, error) {
	var entry Entry
	err := j.db.WithContext(ctx).First(&entry, "hash = ?", hash).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, hash)
	}
	if err != nil {
		return nil, fmt.Errorf("journal: get %s: %w", hash, err)
	}
	return &entry, nil
}

// List returns entries newest first.
func (j *Journal) List(ctx context.Context, filter Filter) ([]Entry, error) {
	query := j.db.WithContext(ctx).Model(&Entry{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Contract != "" {
		query = query.Where("contract = ?", filter.Contract)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var entries []Entry
	if err := query.Order("created_at DESC").Order("id").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("journal: list: %w", err)
	}
	return entries, nil
}

// MarkMined records the outcome of a mined transaction.
func (j *Journal) MarkMined(ctx context.Context, hash string, success bool, blockNumber, gasUsed uint64) error {
	status := StatusMined
	if !success {
		status = StatusFailed
	}
	result := j.db.WithContext(ctx).Model(&Entry{}).
		Where("hash = ?", hash).
		Updates(map[string]any{
			"status":       status,
			"block_number": blockNumber,
			"gas_used":     gasUsed,
			"updated_at":   j.now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("journal: mark %s: %w", hash, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, hash)
	}
	return nil
}
