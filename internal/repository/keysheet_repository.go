package repository

import (
	"context"

	"github.com/examgrid/gradeflow/internal/domain"
	"gorm.io/gorm"
)

// KeySheetRepository reads and removes key sheet rows in the auxiliary
// store. Writes happen out-of-band via backend-triggered updates.
type KeySheetRepository struct {
	db *gorm.DB
}

func NewKeySheetRepository(db *gorm.DB) *KeySheetRepository {
	return &KeySheetRepository{db: db}
}

// List returns all key sheets with their metadata, newest upload first
func (r *KeySheetRepository) List(ctx context.Context) ([]domain.KeySheetRecord, error) {
	var sheets []domain.KeySheetRecord
	err := r.db.WithContext(ctx).
		Preload("Metadata").
		Order("uploaded_at DESC").
		Find(&sheets).Error
	return sheets, err
}

// GetByID returns one key sheet with its metadata
func (r *KeySheetRepository) GetByID(ctx context.Context, id string) (*domain.KeySheetRecord, error) {
	var sheet domain.KeySheetRecord
	err := r.db.WithContext(ctx).
		Preload("Metadata").
		First(&sheet, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sheet, nil
}

// Delete removes a key sheet row by id. Dependent metadata and script rows
// are removed by the store's own cascade configuration, not by this layer.
func (r *KeySheetRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.KeySheetRecord{}, "id = ?", id).Error
}
