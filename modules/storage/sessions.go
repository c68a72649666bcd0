package storage

import (
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Compile-time interface checks.
var (
	_ fiber.Storage = (*memorySessions)(nil)
	_ fiber.Storage = (*dbSessions)(nil)
)

type sessionEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e sessionEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// memorySessions keeps sessions in a map. Expired entries are dropped on read
// and by purgeExpired.
type memorySessions struct {
	mu      sync.Mutex
	entries map[string]sessionEntry
	now     func() time.Time
}

func newMemorySessions() *memorySessions {
	return &memorySessions{
		entries: make(map[string]sessionEntry),
		now:     time.Now,
	}
}

func (s *memorySessions) Get(key string) ([]byte, error) {
	if len(key) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if e.expired(s.now()) {
		delete(s.entries, key)
		return nil, nil
	}
	return append([]byte(nil), e.data...), nil
}

func (s *memorySessions) Set(key string, val []byte, exp time.Duration) error {
	if len(key) == 0 || len(val) == 0 {
		return nil
	}
	e := sessionEntry{data: append([]byte(nil), val...)}
	if exp > 0 {
		e.expiresAt = s.now().Add(exp)
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

func (s *memorySessions) Delete(key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *memorySessions) Reset() error {
	s.mu.Lock()
	s.entries = make(map[string]sessionEntry)
	s.mu.Unlock()
	return nil
}

func (s *memorySessions) Close() error {
	return nil
}

// purgeExpired removes every expired entry and returns how many were removed.
func (s *memorySessions) purgeExpired() int64 {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
			n++
		}
	}
	return n
}

// sessionRecord is a persisted session. ExpiresAt is a unix timestamp; 0 never expires.
type sessionRecord struct {
	ID        string `gorm:"primaryKey;size:128"`
	Data      []byte `gorm:"not null"`
	ExpiresAt int64  `gorm:"index;not null"`
}

// TableName returns the table name for persisted sessions.
func (sessionRecord) TableName() string {
	return "sessions"
}

// dbSessions persists sessions in the sessions table.
type dbSessions struct {
	db  *gorm.DB
	now func() time.Time
}

func newDBSessions(db *gorm.DB) *dbSessions {
	return &dbSessions{db: db, now: time.Now}
}

func (s *dbSessions) Get(key string) ([]byte, error) {
	if len(key) == 0 {
		return nil, nil
	}
	var rec sessionRecord
	if err := s.db.First(&rec, "id = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if rec.ExpiresAt != 0 && rec.ExpiresAt <= s.now().Unix() {
		if err := s.Delete(key); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return rec.Data, nil
}

func (s *dbSessions) Set(key string, val []byte, exp time.Duration) error {
	if len(key) == 0 || len(val) == 0 {
		return nil
	}
	rec := sessionRecord{ID: key, Data: val}
	if exp > 0 {
		rec.ExpiresAt = s.now().Add(exp).Unix()
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at"}),
	}).Create(&rec).Error
}

func (s *dbSessions) Delete(key string) error {
	if len(key) == 0 {
		return nil
	}
	return s.db.Delete(&sessionRecord{}, "id = ?", key).Error
}

func (s *dbSessions) Reset() error {
	return s.db.Where("1 = 1").Delete(&sessionRecord{}).Error
}

// Close is a no-op; the connection is owned by DBStorage.
func (s *dbSessions) Close() error {
	return nil
}

// purgeExpired removes sessions that have expired.
func (s *dbSessions) purgeExpired() (int64, error) {
	res := s.db.Where("expires_at <> 0 AND expires_at <= ?", s.now().Unix()).Delete(&sessionRecord{})
	return res.RowsAffected, res.Error
}
