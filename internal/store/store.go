// Package store persists routing decisions to sqlite as an audit trail.
// Every accepted route is written with its full rejection context so an
// operator can answer "why did this payment go through provider X" later.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"paybridge/internal/engine"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// RouteDecisionModel is the persisted form of a routing decision.
type RouteDecisionModel struct {
	ID         string  `gorm:"primaryKey;size:36"`
	Amount     string  `gorm:"size:64;not null"`
	Currency   string  `gorm:"size:16;not null;index"`
	Provider   string  `gorm:"size:64;not null;index"`
	Confidence float64 `gorm:"not null"`
	// Alternatives holds the rejected providers and their reasons as JSON.
	Alternatives datatypes.JSON
	DecidedAt    time.Time `gorm:"not null;index"`
	CreatedAt    time.Time
}

func (RouteDecisionModel) TableName() string { return "route_decisions" }

type Store struct {
	db *gorm.DB
}

// Open opens or creates the sqlite database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return NewFromDB(db)
}

// NewFromDB wraps an existing gorm handle; tests use this with an
// in-memory database.
func NewFromDB(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db cannot be nil")
	}
	if err := db.AutoMigrate(&RouteDecisionModel{}); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &Store{db: db}, nil
}

// SaveDecision records an accepted route.
func (s *Store) SaveDecision(ctx context.Context, d engine.RouteDecision) error {
	alts, err := json.Marshal(d.Alternatives)
	if err != nil {
		return fmt.Errorf("encoding alternatives: %w", err)
	}
	model := RouteDecisionModel{
		ID:           d.ID,
		Amount:       d.Amount.String(),
		Currency:     d.Currency,
		Provider:     d.Provider,
		Confidence:   d.Confidence,
		Alternatives: datatypes.JSON(alts),
		DecidedAt:    d.DecidedAt,
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// ListDecisions returns the newest decisions first, capped at limit.
func (s *Store) ListDecisions(ctx context.Context, limit int) ([]RouteDecisionModel, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []RouteDecisionModel
	err := s.db.WithContext(ctx).
		Order("decided_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetDecision loads a single decision by id.
func (s *Store) GetDecision(ctx context.Context, id string) (*RouteDecisionModel, error) {
	var model RouteDecisionModel
	err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// Rejections decodes the stored alternatives column.
func (m *RouteDecisionModel) Rejections() ([]engine.RejectedRoute, error) {
	if len(m.Alternatives) == 0 {
		return nil, nil
	}
	var out []engine.RejectedRoute
	if err := json.Unmarshal(m.Alternatives, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
