package models

import (
	"context"

	"github.com/kilo/kilo_backend/config"
	"github.com/kilo/kilo_backend/reconcile"
	"gorm.io/gorm"
)

// GormValidationStore is the MySQL-backed store used by the validation workflow.
type GormValidationStore struct {
	DB *gorm.DB
}

func NewGormValidationStore(db *gorm.DB) *GormValidationStore {
	return &GormValidationStore{DB: db}
}

func (s *GormValidationStore) db(ctx context.Context) *gorm.DB {
	db := s.DB
	if db == nil {
		db = config.GetDB()
	}
	return db.WithContext(ctx)
}

func (s *GormValidationStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	return getDocument(s.db(ctx), id)
}

func (s *GormValidationStore) GetOrder(ctx context.Context, id string) (*Order, error) {
	return getOrder(s.db(ctx), id)
}

func (s *GormValidationStore) SaveValidationResult(ctx context.Context, id string, res reconcile.ValidationResult) error {
	return SaveValidationResult(ctx, s.db(ctx), id, res)
}

func (s *GormValidationStore) RecordActivity(ctx context.Context, entry *ActivityLog) error {
	return s.db(ctx).Create(entry).Error
}

func (s *GormValidationStore) Notify(ctx context.Context, n *Notification) error {
	return s.db(ctx).Create(n).Error
}

func (s *GormValidationStore) ApplyExtraction(ctx context.Context, id string, out ExtractionOutcome) (*Document, bool, error) {
	return ApplyExtraction(ctx, s.db(ctx), id, out)
}
