package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Fact is one durable piece of knowledge distilled from a conversation.
// Facts outlive the session that produced them.
type Fact struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID string `gorm:"index"`
	Content   string
	CreatedAt time.Time
}

// LongTermStore persists facts in SQLite through GORM.
type LongTermStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// OpenLongTermStore opens (creating if needed) the SQLite database at
// path and migrates the schema. Use ":memory:" for an ephemeral store.
func OpenLongTermStore(path string, logger *zap.Logger) (*LongTermStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open long-term store %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Fact{}); err != nil {
		return nil, fmt.Errorf("migrate long-term store: %w", err)
	}
	return &LongTermStore{
		db:     db,
		logger: logger.With(zap.String("component", "long_term_memory")),
	}, nil
}

// Save records one fact.
func (s *LongTermStore) Save(ctx context.Context, sessionID, content string) error {
	fact := Fact{SessionID: sessionID, Content: content}
	if err := s.db.WithContext(ctx).Create(&fact).Error; err != nil {
		return fmt.Errorf("save fact: %w", err)
	}
	return nil
}

// Recent returns the most recent facts for a session, newest first.
func (s *LongTermStore) Recent(ctx context.Context, sessionID string, limit int) ([]Fact, error) {
	var facts []Fact
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&facts).Error
	if err != nil {
		return nil, fmt.Errorf("load recent facts: %w", err)
	}
	return facts, nil
}

// Ping verifies the underlying database is reachable.
func (s *LongTermStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("long-term store handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Search returns facts across all sessions whose content matches the
// query substring, newest first.
func (s *LongTermStore) Search(ctx context.Context, query string, limit int) ([]Fact, error) {
	var facts []Fact
	err := s.db.WithContext(ctx).
		Where("content LIKE ?", "%"+query+"%").
		Order("created_at DESC").
		Limit(limit).
		Find(&facts).Error
	if err != nil {
		return nil, fmt.Errorf("search facts: %w", err)
	}
	return facts, nil
}
