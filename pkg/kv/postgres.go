package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type record struct {
	Key   string         `gorm:"column:key;primaryKey"`
	Value datatypes.JSON `gorm:"column:value"`
}

func (record) TableName() string {
	return "kv_store"
}

// PostgresStore persists records in a single relational table with a JSON
// value column, matching the layout used by the hosted deployment.
type PostgresStore struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewPostgres constructs a table-backed store and ensures the table exists.
func NewPostgres(db *gorm.DB, logger zerolog.Logger) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("kv: database handle must be provided")
	}

	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("kv: migrate kv_store table: %w", err)
	}

	return &PostgresStore{
		db:     db,
		logger: logger.With().Str("component", "kv_postgres").Logger(),
	}, nil
}

// Set upserts a single record.
func (s *PostgresStore) Set(ctx context.Context, key string, value interface{}) error {
	payload, err := marshalValue("set", value)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&record{Key: key, Value: datatypes.JSON(payload)})

	return storageErr("set", result.Error)
}

// Get returns the value stored at key, if any.
func (s *PostgresStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var row record
	result := s.db.WithContext(ctx).Where("key = ?", key).Take(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, storageErr("get", result.Error)
	}

	return json.RawMessage(row.Value), true, nil
}

// Delete removes the record at key, if present.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	result := s.db.WithContext(ctx).Where("key = ?", key).Delete(&record{})
	return storageErr("delete", result.Error)
}

// SetMany upserts all pairs in one batch.
func (s *PostgresStore) SetMany(ctx context.Context, keys []string, values []interface{}) error {
	if len(keys) != len(values) {
		return storageErr("mset", fmt.Errorf("got %d keys for %d values", len(keys), len(values)))
	}
	if len(keys) == 0 {
		return nil
	}

	rows := make([]record, 0, len(keys))
	for i, key := range keys {
		payload, err := marshalValue("mset", values[i])
		if err != nil {
			return err
		}
		rows = append(rows, record{Key: key, Value: datatypes.JSON(payload)})
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&rows)

	return storageErr("mset", result.Error)
}

// GetMany returns the values found among keys.
func (s *PostgresStore) GetMany(ctx context.Context, keys []string) ([]json.RawMessage, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	var rows []record
	result := s.db.WithContext(ctx).Where("key IN ?", keys).Find(&rows)
	if result.Error != nil {
		return nil, storageErr("mget", result.Error)
	}

	values := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		values = append(values, json.RawMessage(row.Value))
	}
	return values, nil
}

// DeleteMany removes every record whose key is in keys.
func (s *PostgresStore) DeleteMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	result := s.db.WithContext(ctx).Where("key IN ?", keys).Delete(&record{})
	return storageErr("mdel", result.Error)
}

// GetByPrefix returns all values whose key starts with prefix.
func (s *PostgresStore) GetByPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error) {
	var rows []record
	result := s.db.WithContext(ctx).Where(`key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").Find(&rows)
	if result.Error != nil {
		return nil, storageErr("prefix", result.Error)
	}

	values := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		values = append(values, json.RawMessage(row.Value))
	}
	return values, nil
}

// escapeLike neutralises LIKE wildcards so the prefix matches literally.
func escapeLike(prefix string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(prefix)
}
