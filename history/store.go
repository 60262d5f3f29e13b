package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Outcomes recorded for each proxy fetch.
const (
	OutcomeOK              = "ok"
	OutcomeConfigError     = "config_error"
	OutcomeUpstreamStatus  = "upstream_status"
	OutcomeInvalidResponse = "invalid_response"
	OutcomeFailed          = "failed"
)

const errStoreNil = "history store is nil"

// Fetch is one proxy request against the upstream store.
type Fetch struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StartedAt      time.Time `gorm:"index:idx_fetch_started" json:"started_at"`
	DurationMs     int64     `json:"duration_ms"`
	Outcome        string    `gorm:"type:varchar(32);index:idx_fetch_outcome" json:"outcome"`
	UpstreamStatus int       `json:"upstream_status,omitempty"`
	CueCount       int       `json:"cue_count"`
	Dropped        int       `json:"dropped"`
	Error          string    `json:"error,omitempty"`
}

func (Fetch) TableName() string { return "cue_fetches" }

// Store persists fetch history in SQLite.
type Store struct {
	DB *gorm.DB
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	// single writer
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Fetch{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Store{DB: db, db: sqlDB}, nil
}

// Record stores f, assigning an ID when it has none.
func (s *Store) Record(ctx context.Context, f Fetch) error {
	if s == nil || s.DB == nil {
		return errors.New(errStoreNil)
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.StartedAt.IsZero() {
		f.StartedAt = time.Now()
	}
	f.StartedAt = f.StartedAt.UTC()
	if err := s.DB.WithContext(ctx).Create(&f).Error; err != nil {
		return fmt.Errorf("record fetch: %w", err)
	}
	return nil
}

// Recent returns up to limit fetches, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Fetch, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New(errStoreNil)
	}
	if limit <= 0 {
		return []Fetch{}, nil
	}
	var out []Fetch
	err := s.DB.WithContext(ctx).
		Order("started_at desc").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list fetches: %w", err)
	}
	if out == nil {
		out = []Fetch{}
	}
	return out, nil
}

// CountByOutcome tallies stored fetches per outcome.
func (s *Store) CountByOutcome(ctx context.Context) (map[string]int64, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New(errStoreNil)
	}
	var rows []struct {
		Outcome string
		Total   int64
	}
	err := s.DB.WithContext(ctx).
		Model(&Fetch{}).
		Select("outcome, count(*) as total").
		Group("outcome").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count fetches: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Outcome] = r.Total
	}
	return counts, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
