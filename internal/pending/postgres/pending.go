package postgres

import (
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/pending"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/registration"
	"gorm.io/gorm"
)

// PendingRepository implements pending.RepositoryAPI using GORM
type PendingRepository struct {
	db *gorm.DB
}

func NewPendingRepository(db *gorm.DB) *PendingRepository {
	return &PendingRepository{db: db}
}

// ListPending reconciles the pending set on read: active non-superuser
// accounts that hold neither profile and have no registration in flight.
// A rejected registration still counts as in flight because the
// applicant may be re-reviewed.
func (r *PendingRepository) ListPending(search string, limit, offset int) ([]*pending.PendingUser, error) {
	q := r.db.Table("users u").
		Select("u.id, u.username, u.email, u.first_name, u.last_name, u.created_at").
		Where("u.is_active = ?", true).
		Where("u.is_superuser = ?", false).
		Where("NOT EXISTS (SELECT 1 FROM school_staff s WHERE s.user_id = u.id)").
		Where("NOT EXISTS (SELECT 1 FROM system_users su WHERE su.user_id = u.id)").
		Where("NOT EXISTS (SELECT 1 FROM teacher_registrations tr WHERE tr.user_id = u.id AND tr.status IN (?))",
			registration.ActiveStatuses)

	if search != "" {
		like := "%" + search + "%"
		q = q.Where("u.first_name LIKE ? OR u.last_name LIKE ? OR u.email LIKE ? OR u.username LIKE ?",
			like, like, like, like)
	}

	var users []*pending.PendingUser
	err := q.Order("u.id ASC").Limit(limit).Offset(offset).Find(&users).Error
	return users, err
}
