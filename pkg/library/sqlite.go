package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/herlein/piflip/pkg/timing"
)

// DefaultDBFile is the database name used when no path is configured
const DefaultDBFile = "piflip.sqlite3"

// signalRecord is the signals table row
type signalRecord struct {
	ID           string          `gorm:"primaryKey;type:varchar(36)"`
	Name         string          `gorm:"column:name;uniqueIndex:idx_signal_name;not null"`
	FrequencyMHz float64         `gorm:"column:frequency_mhz;index:idx_signal_freq"`
	Timings      timing.Sequence `gorm:"column:timings;serializer:json;type:text"`
	RSSI         float64         `gorm:"column:rssi"`
	DurationS    float64         `gorm:"column:duration_s"`
	SampleCount  int             `gorm:"column:sample_count"`
	Modulation   string          `gorm:"column:modulation"`
	CreatedAt    time.Time       `gorm:"column:created_at;index:idx_signal_created"`
}

func (signalRecord) TableName() string { return "signals" }

func (r *signalRecord) signal() *Signal {
	return &Signal{
		Name:         r.Name,
		FrequencyMHz: r.FrequencyMHz,
		Timings:      r.Timings,
		RSSI:         r.RSSI,
		DurationS:    r.DurationS,
		SampleCount:  r.SampleCount,
		Modulation:   r.Modulation,
		CreatedAt:    r.CreatedAt,
	}
}

// SQLiteStore keeps signals in a single SQLite database through gorm
type SQLiteStore struct {
	DB *gorm.DB
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultDBFile
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&signalRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &SQLiteStore{DB: db, db: sqlDB}, nil
}

// Save upserts by name; the row id of an existing name is kept
func (s *SQLiteStore) Save(sig *Signal) error {
	if err := sig.Validate(); err != nil {
		return err
	}
	rec := signalRecord{
		ID:           uuid.NewString(),
		Name:         sig.Name,
		FrequencyMHz: sig.FrequencyMHz,
		Timings:      sig.Timings,
		RSSI:         sig.RSSI,
		DurationS:    sig.DurationS,
		SampleCount:  sig.SampleCount,
		Modulation:   sig.Modulation,
		CreatedAt:    sig.CreatedAt,
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"frequency_mhz", "timings", "rssi", "duration_s", "sample_count", "modulation", "created_at",
		}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("saving signal %q: %w", sig.Name, err)
	}
	return nil
}

func (s *SQLiteStore) Load(name string) (*Signal, error) {
	var rec signalRecord
	err := s.DB.Where("name = ?", name).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("signal %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying signal %q: %w", name, err)
	}
	return rec.signal(), nil
}

func (s *SQLiteStore) List() ([]Summary, error) {
	var recs []signalRecord
	if err := s.DB.Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing signals: %w", err)
	}
	out := make([]Summary, len(recs))
	for i := range recs {
		out[i] = recs[i].signal().Summary()
	}
	return out, nil
}

func (s *SQLiteStore) Delete(name string) error {
	res := s.DB.Where("name = ?", name).Delete(&signalRecord{})
	if res.Error != nil {
		return fmt.Errorf("deleting signal %q: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("signal %q: %w", name, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
