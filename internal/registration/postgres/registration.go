package postgres

import (
	"fmt"
	"strings"
	"time"

	internal "github.com/PacificEMIS/pacific-emis-teacher-registration/internal"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/identity"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/registration"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/staff"
	"gorm.io/gorm"
)

// RegistrationRepository implements registration.RepositoryAPI using GORM
type RegistrationRepository struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func (r *RegistrationRepository) Create(reg *registration.Registration) error {
	return r.db.Create(reg).Error
}

func (r *RegistrationRepository) GetByID(id int64) (*registration.Registration, error) {
	var reg registration.Registration
	err := r.db.
		Preload("EducationRecords").
		Preload("TrainingRecords").
		Preload("ClaimedAppointments").
		Preload("ClaimedAppointments.Duties").
		Preload("Documents").
		Where("id = ?", id).First(&reg).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrRegistrationNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// GetActiveByUserID finds the user's in-flight registration, if any.
// Approved registrations are history and never block a new one.
func (r *RegistrationRepository) GetActiveByUserID(userID int64) (*registration.Registration, error) {
	var reg registration.Registration
	err := r.db.
		Where("user_id = ? AND status IN (?)", userID, registration.ActiveStatuses).
		Order("id DESC").
		First(&reg).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrRegistrationNotFound
		}
		return nil, err
	}
	return &reg, nil
}

func (r *RegistrationRepository) ListByUserID(userID int64) ([]*registration.Registration, error) {
	var regs []*registration.Registration
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&regs).Error
	return regs, err
}

// List orders the review queue by actionability: waiting submissions
// first, then ones already in review, then rejected, drafts and finally
// approved history.
func (r *RegistrationRepository) List(status, search string, limit, offset int) ([]*registration.Registration, error) {
	q := r.db.Model(&registration.Registration{})

	if status != "" {
		q = q.Where("status = ?", status)
	}
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("first_name LIKE ? OR last_name LIKE ? OR national_id_number LIKE ?", like, like, like)
	}

	var regs []*registration.Registration
	err := q.Order(`CASE status
			WHEN 'submitted' THEN 0
			WHEN 'under_review' THEN 1
			WHEN 'rejected' THEN 2
			WHEN 'draft' THEN 3
			ELSE 4
		END, submitted_at ASC, id ASC`).
		Limit(limit).Offset(offset).Find(&regs).Error
	return regs, err
}

func (r *RegistrationRepository) Update(reg *registration.Registration) error {
	return r.db.
		Omit("EducationRecords", "TrainingRecords", "ClaimedAppointments", "Documents").
		Save(reg).Error
}

// Delete removes the registration with everything hanging off it. Runs
// in one transaction so a failure leaves the aggregate intact.
func (r *RegistrationRepository) Delete(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var appointmentIDs []int64
		if err := tx.Model(&registration.ClaimedAppointment{}).
			Where("registration_id = ?", id).
			Pluck("id", &appointmentIDs).Error; err != nil {
			return err
		}
		if len(appointmentIDs) > 0 {
			if err := tx.Where("claimed_appointment_id IN (?)", appointmentIDs).
				Delete(&registration.ClaimedDuty{}).Error; err != nil {
				return err
			}
		}

		for _, model := range []interface{}{
			&registration.ClaimedAppointment{},
			&registration.EducationRecord{},
			&registration.TrainingRecord{},
			&registration.Document{},
			&registration.ChangeLog{},
		} {
			if err := tx.Where("registration_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}

		res := tx.Where("id = ?", id).Delete(&registration.Registration{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrRegistrationNotFound
		}
		return nil
	})
}

// UpdateStatusFrom is the compare-and-set used by every transition. The
// WHERE clause is the guard; zero rows means a concurrent writer won.
func (r *RegistrationRepository) UpdateStatusFrom(id int64, from []string, updates map[string]interface{}) (bool, error) {
	res := r.db.Model(&registration.Registration{}).
		Where("id = ? AND status IN (?)", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Approve is the approval transducer. One transaction claims the
// registration, materializes the staff profile, audit-copies the claim
// records, derives live assignments and flips document ownership. Either
// everything commits or the registration stays decidable.
func (r *RegistrationRepository) Approve(reg *registration.Registration, reviewer *identity.User, comments string) (*staff.SchoolStaff, error) {
	var profile *staff.SchoolStaff

	err := r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		// Claim the registration first. Losing the race here means
		// another reviewer already decided it.
		res := tx.Model(&registration.Registration{}).
			Where("id = ? AND status IN (?)", reg.ID, []string{registration.StatusSubmitted, registration.StatusUnderReview}).
			Updates(map[string]interface{}{
				"status":            registration.StatusApproved,
				"reviewed_by_id":    reviewer.ID,
				"reviewed_at":       now,
				"reviewer_comments": comments,
				"updated_at":        now,
				"updated_by":        reviewer.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrApprovalConflict
		}

		registrationStatus := staff.RegistrationValid
		validUntil := now.AddDate(3, 0, 0)
		profile = &staff.SchoolStaff{
			UserID:                 reg.UserID,
			StaffType:              staff.TeachingStaff,
			Title:                  reg.Title,
			FirstName:              reg.FirstName,
			LastName:               reg.LastName,
			DateOfBirth:            reg.DateOfBirth,
			GenderCode:             reg.GenderCode,
			MaritalStatusCode:      reg.MaritalStatusCode,
			NationalityCode:        reg.NationalityCode,
			NationalIDNumber:       reg.NationalIDNumber,
			HomeIslandCode:         reg.HomeIslandCode,
			PhoneNumber:            reg.PhoneNumber,
			PhoneHome:              reg.PhoneHome,
			ResidentialAddress:     reg.ResidentialAddress,
			NearbySchoolID:         reg.NearbySchoolID,
			BusinessAddress:        reg.BusinessAddress,
			TeacherPayrollNumber:   reg.TeacherPayrollNumber,
			HighestQualification:   reg.HighestQualification,
			YearsOfExperience:      reg.YearsOfExperience,
			RegistrationStatus:     &registrationStatus,
			RegistrationValidUntil: &validUntil,
			CreatedAt:              now,
			CreatedBy:              reviewer.ID,
			UpdatedAt:              now,
			UpdatedBy:              reviewer.ID,
		}

		// The unique user_id index rejects a second profile even if a
		// concurrent path slipped past the status guard.
		if err := tx.Create(profile).Error; err != nil {
			if isUniqueViolation(err) {
				return internal.ErrProfileExists
			}
			return err
		}

		// Education and training claims are copied, not moved. The
		// registration keeps its originals as the record of what was
		// claimed at approval time.
		for _, rec := range reg.EducationRecords {
			auditCopy := staff.EducationRecord{
				SchoolStaffID:      profile.ID,
				InstitutionName:    rec.InstitutionName,
				QualificationCode:  rec.QualificationCode,
				ProgramName:        rec.ProgramName,
				MajorSubjectCode:   rec.MajorSubjectCode,
				MinorSubjectCode:   rec.MinorSubjectCode,
				CompletionYear:     rec.CompletionYear,
				Duration:           rec.Duration,
				DurationUnit:       rec.DurationUnit,
				Completed:          rec.Completed,
				PercentageProgress: rec.PercentageProgress,
				Comment:            rec.Comment,
				CreatedAt:          now,
				CreatedBy:          reviewer.ID,
			}
			if err := tx.Create(&auditCopy).Error; err != nil {
				return err
			}
		}
		for _, rec := range reg.TrainingRecords {
			auditCopy := staff.TrainingRecord{
				SchoolStaffID:       profile.ID,
				ProviderInstitution: rec.ProviderInstitution,
				Title:               rec.Title,
				FocusCode:           rec.FocusCode,
				FormatCode:          rec.FormatCode,
				CompletionYear:      rec.CompletionYear,
				Duration:            rec.Duration,
				DurationUnit:        rec.DurationUnit,
				EffectiveDate:       rec.EffectiveDate,
				ExpirationDate:      rec.ExpirationDate,
				CreatedAt:           now,
				CreatedBy:           reviewer.ID,
			}
			if err := tx.Create(&auditCopy).Error; err != nil {
				return err
			}
		}

		// Claimed appointments become live assignments with no end date.
		for _, app := range reg.ClaimedAppointments {
			assignment := staff.Assignment{
				SchoolStaffID: profile.ID,
				SchoolID:      app.SchoolID,
				JobTitleCode:  app.JobTitleCode,
				StartDate:     app.StartDate,
				EndDate:       nil,
				CreatedAt:     now,
				CreatedBy:     reviewer.ID,
				UpdatedAt:     now,
				UpdatedBy:     reviewer.ID,
			}
			if err := tx.Create(&assignment).Error; err != nil {
				if isUniqueViolation(err) {
					return internal.ErrDuplicateAssignment
				}
				return err
			}
		}

		// Documents move, not copy. A single UPDATE flips ownership so no
		// document is ever owned by both sides.
		if err := tx.Exec(`UPDATE registration_documents
			SET school_staff_id = ?, registration_id = NULL
			WHERE registration_id = ?`, profile.ID, reg.ID).Error; err != nil {
			return err
		}

		if err := tx.Model(&registration.Registration{}).
			Where("id = ?", reg.ID).
			Update("approved_staff_profile_id", profile.ID).Error; err != nil {
			return err
		}

		entry := registration.ChangeLog{
			RegistrationID: reg.ID,
			FieldName:      "status",
			OldValue:       reg.Status,
			NewValue:       registration.StatusApproved,
			ChangedAt:      now,
			ChangedByID:    reviewer.ID,
			Notes:          fmt.Sprintf("Approved; staff profile %d created", profile.ID),
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *RegistrationRepository) AppendChangeLog(entry *registration.ChangeLog) error {
	return r.db.Create(entry).Error
}

func (r *RegistrationRepository) ChangeLogs(registrationID int64) ([]registration.ChangeLog, error) {
	var logs []registration.ChangeLog
	err := r.db.Where("registration_id = ?", registrationID).Order("id ASC").Find(&logs).Error
	return logs, err
}

func (r *RegistrationRepository) CreateEducationRecord(rec *registration.EducationRecord) error {
	return r.db.Create(rec).Error
}

func (r *RegistrationRepository) DeleteEducationRecord(registrationID, recordID int64) error {
	res := r.db.Where("id = ? AND registration_id = ?", recordID, registrationID).
		Delete(&registration.EducationRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrRegistrationNotFound
	}
	return nil
}

func (r *RegistrationRepository) CreateTrainingRecord(rec *registration.TrainingRecord) error {
	return r.db.Create(rec).Error
}

func (r *RegistrationRepository) DeleteTrainingRecord(registrationID, recordID int64) error {
	res := r.db.Where("id = ? AND registration_id = ?", recordID, registrationID).
		Delete(&registration.TrainingRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrRegistrationNotFound
	}
	return nil
}

func (r *RegistrationRepository) CreateClaimedAppointment(app *registration.ClaimedAppointment) error {
	return r.db.Create(app).Error
}

func (r *RegistrationRepository) DeleteClaimedAppointment(registrationID, appointmentID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("claimed_appointment_id = ?", appointmentID).
			Delete(&registration.ClaimedDuty{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND registration_id = ?", appointmentID, registrationID).
			Delete(&registration.ClaimedAppointment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrRegistrationNotFound
		}
		return nil
	})
}

func (r *RegistrationRepository) CreateDocument(doc *registration.Document) error {
	return r.db.Create(doc).Error
}

func (r *RegistrationRepository) GetDocument(id int64) (*registration.Document, error) {
	var doc registration.Document
	err := r.db.Where("id = ?", id).First(&doc).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (r *RegistrationRepository) DeleteDocument(id int64) error {
	res := r.db.Where("id = ?", id).Delete(&registration.Document{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrDocumentNotFound
	}
	return nil
}

func (r *RegistrationRepository) DocumentsForRegistration(registrationID int64) ([]registration.Document, error) {
	var docs []registration.Document
	err := r.db.Where("registration_id = ?", registrationID).Order("id ASC").Find(&docs).Error
	return docs, err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
