package postgres

import (
	internal "github.com/PacificEMIS/pacific-emis-teacher-registration/internal"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/lookup"
	"gorm.io/gorm"
)

// LookupRepository implements lookup.RepositoryAPI using GORM
type LookupRepository struct {
	db *gorm.DB
}

func NewLookupRepository(db *gorm.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

func (r *LookupRepository) ByType(lookupType string) ([]*lookup.Lookup, error) {
	var rows []*lookup.Lookup
	err := r.db.Where("lookup_type = ?", lookupType).
		Order("sort_order ASC, label ASC").
		Find(&rows).Error
	return rows, err
}

func (r *LookupRepository) Schools() ([]*lookup.School, error) {
	var schools []*lookup.School
	err := r.db.Order("name ASC").Find(&schools).Error
	return schools, err
}

func (r *LookupRepository) GetSchool(id int64) (*lookup.School, error) {
	var school lookup.School
	err := r.db.Where("id = ?", id).First(&school).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.NewNotFoundError("School not found", internal.ErrCodeInvalidLookup)
		}
		return nil, err
	}
	return &school, nil
}
