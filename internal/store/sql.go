package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Rusal42/floofwebsite/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sqlStore keeps the record as a JSON payload in a single keyed row
type sqlStore struct {
	db   *gorm.DB
	key  string
	name string
}

func NewSQL(db *gorm.DB, key, name string) Durable {
	return &sqlStore{db: db, key: key, name: name}
}

func (s *sqlStore) TryGet(ctx context.Context) (model.StatsRecord, bool) {
	var row model.StoredStats

	err := s.db.
		WithContext(ctx).
		Where("key = ?", s.key).
		First(&row).
		Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			absorb(s.name, "get", err)
		}

		return model.StatsRecord{}, false
	}

	rec, err := decodeRecord(row.Payload)
	if err != nil {
		absorb(s.name, "decode", err)
		return model.StatsRecord{}, false
	}

	return rec, true
}

func (s *sqlStore) TrySet(ctx context.Context, rec model.StatsRecord) {
	b, err := json.Marshal(rec)
	if err != nil {
		absorb(s.name, "encode", err)
		return
	}

	err = s.db.
		WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&model.StoredStats{Key: s.key, Payload: b}).
		Error
	if err != nil {
		absorb(s.name, "set", err)
	}
}

func (s *sqlStore) Name() string { return s.name }

func (s *sqlStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
