// Package store persists the engine's per-sensor results table: one row
// per XYZ sensor joined against its XY sensor, edge, and building, plus
// the sensor's annual hourly irradiance series (§4.6, supplemented output
// persistence).
package store

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SensorRow is the flattened join row written for every XYZ sensor:
// XYZSensor joined to its XY sensor, parent edge, and parent building.
type SensorRow struct {
	gorm.Model

	BuildingIndex int `gorm:"index"`
	Archetype     int16
	Height        float64
	NFloors       int

	EdgeIndex    int `gorm:"index"`
	Orientation  string
	EdgeWeight   float64

	XYIndex  int
	X, Y     float64
	Floor    int
	Z        float64

	// AnnualKWhM2 is the sensor's total annual direct-sky irradiation,
	// the sum of its hourly series divided by 1000 (Wh -> kWh per m^2).
	AnnualKWhM2 float64

	// Hourly is the 8760-length hourly series, gob-encoded by the
	// caller before assignment (sqlite has no native array column).
	Hourly []byte
}

// Store wraps a gorm DB opened against a sqlite file.
type Store struct {
	DB *gorm.DB
}

// Open opens (or creates) a sqlite database at path and migrates the
// sensor result schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&SensorRow{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{DB: db}, nil
}

// InsertBatch writes rows in a single transaction, batching to keep the
// sqlite write path efficient for the scale of a city's worth of sensors.
func (s *Store) InsertBatch(rows []SensorRow) error {
	if len(rows) == 0 {
		return nil
	}
	return s.DB.CreateInBatches(rows, 500).Error
}

// Close releases the underlying sqlite connection.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
