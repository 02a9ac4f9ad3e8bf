package postgres

import (
	internal "github.com/PacificEMIS/pacific-emis-teacher-registration/internal"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/staff"
	"gorm.io/gorm"
)

// StaffRepository implements staff.RepositoryAPI using GORM
type StaffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

func (r *StaffRepository) Create(s *staff.SchoolStaff) error {
	return r.db.Create(s).Error
}

func (r *StaffRepository) GetByID(id int64) (*staff.SchoolStaff, error) {
	var s staff.SchoolStaff
	err := r.db.Preload("Assignments").Where("id = ?", id).First(&s).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrStaffNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *StaffRepository) GetByUserID(userID int64) (*staff.SchoolStaff, error) {
	var s staff.SchoolStaff
	err := r.db.Preload("Assignments").Where("user_id = ?", userID).First(&s).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrStaffNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *StaffRepository) Update(s *staff.SchoolStaff) error {
	return r.db.Omit("Assignments").Save(s).Error
}

// Delete removes the profile and everything hanging off it. The approval
// link on any registration pointing here is cleared first so the
// registration survives as history. Documents owned by the profile are
// deleted rather than detached; a document must always have exactly one
// owner.
func (r *StaffRepository) Delete(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`UPDATE teacher_registrations SET approved_staff_profile_id = NULL WHERE approved_staff_profile_id = ?`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM registration_documents WHERE school_staff_id = ?`, id).Error; err != nil {
			return err
		}
		if err := tx.Where("school_staff_id = ?", id).Delete(&staff.Assignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("school_staff_id = ?", id).Delete(&staff.EducationRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("school_staff_id = ?", id).Delete(&staff.TrainingRecord{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&staff.SchoolStaff{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrStaffNotFound
		}
		return nil
	})
}

// DocumentStorageKeys returns the blob keys of documents owned by the
// profile, so the caller can clean up storage after deleting the rows.
func (r *StaffRepository) DocumentStorageKeys(staffID int64) ([]string, error) {
	var keys []string
	err := r.db.Raw(`SELECT storage_key FROM registration_documents WHERE school_staff_id = ?`, staffID).
		Scan(&keys).Error
	return keys, err
}

// ListVisible filters the directory by the school of each staff member's
// most recent assignment, defined as the assignment with the highest id.
func (r *StaffRepository) ListVisible(schoolIDs []int64, staffType, search string, limit, offset int) ([]*staff.SchoolStaff, error) {
	q := r.db.Model(&staff.SchoolStaff{}).Preload("Assignments")

	if staffType != "" {
		q = q.Where("staff_type = ?", staffType)
	}

	if schoolIDs != nil {
		q = q.Where(`id IN (
			SELECT a.school_staff_id FROM school_staff_assignments a
			WHERE a.id = (
				SELECT MAX(a2.id) FROM school_staff_assignments a2
				WHERE a2.school_staff_id = a.school_staff_id
			)
			AND a.school_id IN (?)
		)`, schoolIDs)
	}

	if search != "" {
		like := "%" + search + "%"
		q = q.Where("first_name LIKE ? OR last_name LIKE ? OR national_id_number LIKE ?", like, like, like)
	}

	var result []*staff.SchoolStaff
	err := q.Order("id ASC").Limit(limit).Offset(offset).Find(&result).Error
	return result, err
}

func (r *StaffRepository) CreateAssignment(a *staff.Assignment) error {
	return r.db.Create(a).Error
}

func (r *StaffRepository) GetAssignment(id int64) (*staff.Assignment, error) {
	var a staff.Assignment
	err := r.db.Where("id = ?", id).First(&a).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrStaffNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *StaffRepository) UpdateAssignment(a *staff.Assignment) error {
	return r.db.Save(a).Error
}

func (r *StaffRepository) DeleteAssignment(id int64) error {
	res := r.db.Where("id = ?", id).Delete(&staff.Assignment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrStaffNotFound
	}
	return nil
}

// ActiveSchoolIDs returns the schools where the user's staff profile has
// an assignment with no end date. Users without a profile get an empty set.
func (r *StaffRepository) ActiveSchoolIDs(userID int64) ([]int64, error) {
	query := `SELECT DISTINCT a.school_id
	          FROM school_staff_assignments a
	          JOIN school_staff s ON s.id = a.school_staff_id
	          WHERE s.user_id = ? AND a.end_date IS NULL`

	rows, err := r.db.Raw(query, userID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *StaffRepository) EducationRecords(staffID int64) ([]*staff.EducationRecord, error) {
	var records []*staff.EducationRecord
	err := r.db.Where("school_staff_id = ?", staffID).Order("id ASC").Find(&records).Error
	return records, err
}

func (r *StaffRepository) TrainingRecords(staffID int64) ([]*staff.TrainingRecord, error) {
	var records []*staff.TrainingRecord
	err := r.db.Where("school_staff_id = ?", staffID).Order("id ASC").Find(&records).Error
	return records, err
}
