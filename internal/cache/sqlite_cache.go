package cache

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"finresolve/internal/logger"
	"finresolve/internal/models"
)

// entry is one cached profile, stored as a JSON blob keyed by cache key.
type entry struct {
	Key       string    `gorm:"primaryKey"`
	Value     []byte    `gorm:"not null"`
	UpdatedAt time.Time
}

func (entry) TableName() string { return "profile_cache" }

// sqliteCache implements Cache on a local SQLite file.
type sqliteCache struct {
	db *gorm.DB
}

// NewSQLiteCache opens (or creates) the cache database at path. Use
// ":memory:" for an ephemeral cache.
func NewSQLiteCache(path string) (Cache, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, err
	}
	return &sqliteCache{db: db}, nil
}

func (c *sqliteCache) Get(key string) (models.Profile, bool) {
	var e entry
	if err := c.db.Where("key = ?", key).First(&e).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Get().Warnw("profile cache read failed", "key", key, "error", err)
		}
		return models.Profile{}, false
	}

	var profile models.Profile
	if err := json.Unmarshal(e.Value, &profile); err != nil {
		// A corrupt entry behaves as a miss.
		logger.Get().Warnw("profile cache entry corrupt", "key", key, "error", err)
		return models.Profile{}, false
	}
	return profile, true
}

func (c *sqliteCache) Set(key string, profile models.Profile) error {
	value, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return c.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(&entry{Key: key, Value: value, UpdatedAt: time.Now()}).Error
}

func (c *sqliteCache) Remove(key string) error {
	return c.db.Where("key = ?", key).Delete(&entry{}).Error
}
