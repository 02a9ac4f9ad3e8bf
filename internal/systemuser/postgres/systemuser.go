package postgres

import (
	internal "github.com/PacificEMIS/pacific-emis-teacher-registration/internal"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/systemuser"
	"gorm.io/gorm"
)

// SystemUserRepository implements systemuser.RepositoryAPI using GORM
type SystemUserRepository struct {
	db *gorm.DB
}

func NewSystemUserRepository(db *gorm.DB) *SystemUserRepository {
	return &SystemUserRepository{db: db}
}

func (r *SystemUserRepository) Create(su *systemuser.SystemUser) error {
	return r.db.Create(su).Error
}

func (r *SystemUserRepository) GetByID(id int64) (*systemuser.SystemUser, error) {
	var su systemuser.SystemUser
	err := r.db.Where("id = ?", id).First(&su).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrSystemUserNotFound
		}
		return nil, err
	}
	return &su, nil
}

func (r *SystemUserRepository) GetByUserID(userID int64) (*systemuser.SystemUser, error) {
	var su systemuser.SystemUser
	err := r.db.Where("user_id = ?", userID).First(&su).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrSystemUserNotFound
		}
		return nil, err
	}
	return &su, nil
}

func (r *SystemUserRepository) Update(su *systemuser.SystemUser) error {
	return r.db.Save(su).Error
}

func (r *SystemUserRepository) Delete(id int64) error {
	res := r.db.Where("id = ?", id).Delete(&systemuser.SystemUser{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrSystemUserNotFound
	}
	return nil
}

// List searches by the linked account's name or email.
func (r *SystemUserRepository) List(search string, limit, offset int) ([]*systemuser.SystemUser, error) {
	q := r.db.Model(&systemuser.SystemUser{})

	if search != "" {
		like := "%" + search + "%"
		q = q.Where(`user_id IN (
			SELECT id FROM users
			WHERE first_name LIKE ? OR last_name LIKE ? OR email LIKE ?
		)`, like, like, like)
	}

	var result []*systemuser.SystemUser
	err := q.Order("id ASC").Limit(limit).Offset(offset).Find(&result).Error
	return result, err
}
