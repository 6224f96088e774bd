// Package history archives finalized session metadata in a local SQLite
// database so past sessions survive workspace header rewrites.
package history

import (
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/baton-project/baton/pkg/errclass"
	"github.com/baton-project/baton/pkg/model"
)

// DBFileName is the archive database under the baton directory.
const DBFileName = "history.db"

// DBPath returns the archive path for a workspace rooted at baseDir.
func DBPath(baseDir string) string {
	return filepath.Join(baseDir, ".baton", DBFileName)
}

// SessionRecord is one archived session.
type SessionRecord struct {
	ID            uint `gorm:"primarykey"`
	CreatedAt     time.Time
	SessionID     string `gorm:"uniqueIndex;not null"`
	AgentID       string `gorm:"index;not null"`
	StartedAt     time.Time
	FinishedAt    *time.Time
	TotalMinutes  int
	ActiveMinutes int
	ToolCalls     int

	Tasks []TaskRecord `gorm:"constraint:OnDelete:CASCADE"`
}

// TaskRecord is one task carried by an archived session.
type TaskRecord struct {
	ID              uint `gorm:"primarykey"`
	SessionRecordID uint `gorm:"index;not null"`
	Title           string
	Status          string
	DurationMinutes int
}

// Store wraps the archive database.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the archive at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errclass.ErrStorageIO.WithMessagef("open history db: %v", err)
	}
	if err := db.AutoMigrate(&SessionRecord{}, &TaskRecord{}); err != nil {
		return nil, errclass.ErrStorageIO.WithMessagef("migrate history db: %v", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Archive stores a finalized session. Archiving the same session ID twice
// replaces the earlier row, so retried shutdowns stay idempotent.
func (s *Store) Archive(meta *model.SessionMetadata) error {
	record := SessionRecord{
		SessionID:     meta.Session.SessionID,
		AgentID:       meta.Session.AgentID,
		StartedAt:     meta.Session.Start,
		FinishedAt:    meta.Session.End,
		TotalMinutes:  meta.Timing.TotalMinutes,
		ActiveMinutes: meta.Timing.ActiveMinutes,
		ToolCalls:     meta.ToolCallTotal(),
	}
	for _, task := range meta.Tasks {
		record.Tasks = append(record.Tasks, TaskRecord{
			Title:           task.Title,
			Status:          string(task.Status),
			DurationMinutes: task.DurationMinutes,
		})
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing SessionRecord
		err := tx.Where("session_id = ?", record.SessionID).First(&existing).Error
		if err == nil {
			if err := tx.Where("session_record_id = ?", existing.ID).Delete(&TaskRecord{}).Error; err != nil {
				return errclass.ErrStorageIO.WithMessagef("clear archived tasks: %v", err)
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return errclass.ErrStorageIO.WithMessagef("clear archived session: %v", err)
			}
		}
		if err := tx.Create(&record).Error; err != nil {
			return errclass.ErrStorageIO.WithMessagef("archive session: %v", err)
		}
		return nil
	})
}

// Recent returns up to limit archived sessions, newest first.
func (s *Store) Recent(limit int) ([]SessionRecord, error) {
	var records []SessionRecord
	err := s.db.Preload("Tasks").
		Order("started_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, errclass.ErrStorageIO.WithMessagef("list sessions: %v", err)
	}
	return records, nil
}

// AgentTotals summarizes one agent's archived activity.
type AgentTotals struct {
	AgentID       string
	Sessions      int
	TotalMinutes  int
	ActiveMinutes int
	ToolCalls     int
}

// TotalsByAgent aggregates archived sessions per agent.
func (s *Store) TotalsByAgent() ([]AgentTotals, error) {
	var totals []AgentTotals
	err := s.db.Model(&SessionRecord{}).
		Select("agent_id, COUNT(*) AS sessions, SUM(total_minutes) AS total_minutes, SUM(active_minutes) AS active_minutes, SUM(tool_calls) AS tool_calls").
		Group("agent_id").
		Order("agent_id").
		Scan(&totals).Error
	if err != nil {
		return nil, errclass.ErrStorageIO.WithMessagef("aggregate sessions: %v", err)
	}
	return totals, nil
}
