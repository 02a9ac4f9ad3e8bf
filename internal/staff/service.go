package staff

import (
	"context"
	"log/slog"
	"strings"
	"time"

	internal "github.com/PacificEMIS/pacific-emis-teacher-registration/internal"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/identity"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/storage"
)

// PermissionEvaluator is the slice of the auth evaluator this service
// needs. Defined here so the service can be tested with a fake.
type PermissionEvaluator interface {
	IsAdmin(u *identity.User) bool
	HasSchoolAccessToStaff(caller *identity.User, staffUserID int64) (bool, error)
	CanEditStaff(caller *identity.User, staffUserID int64) (bool, error)
	CanDeleteStaff(caller *identity.User, staffUserID int64) (bool, error)
	CanCreateStaffAssignment(caller *identity.User, schoolID int64) (bool, error)
	ActiveSchools(u *identity.User) ([]int64, error)
}

// RepositoryAPI defines the data access methods for staff profiles.
type RepositoryAPI interface {
	Create(s *SchoolStaff) error
	GetByID(id int64) (*SchoolStaff, error)
	GetByUserID(userID int64) (*SchoolStaff, error)
	Update(s *SchoolStaff) error
	Delete(id int64) error

	// ListVisible applies the row-level filter: admins pass schoolIDs=nil
	// and see everything; school-scoped callers see only staff whose
	// most recent assignment (highest id) is at one of their schools.
	// staffType narrows to teaching or non_teaching when non-empty.
	ListVisible(schoolIDs []int64, staffType, search string, limit, offset int) ([]*SchoolStaff, error)

	CreateAssignment(a *Assignment) error
	GetAssignment(id int64) (*Assignment, error)
	UpdateAssignment(a *Assignment) error
	DeleteAssignment(id int64) error

	ActiveSchoolIDs(userID int64) ([]int64, error)

	EducationRecords(staffID int64) ([]*EducationRecord, error)
	TrainingRecords(staffID int64) ([]*TrainingRecord, error)

	DocumentStorageKeys(staffID int64) ([]string, error)
}

type Service struct {
	repo   RepositoryAPI
	perms  PermissionEvaluator
	store  storage.Storage
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, perms PermissionEvaluator, store storage.Storage, logger *slog.Logger) *Service {
	return &Service{repo: repo, perms: perms, store: store, logger: logger}
}

// GetStaff returns a profile after the layer-2 school-overlap check.
func (s *Service) GetStaff(caller *identity.User, staffID int64) (*SchoolStaff, error) {
	profile, err := s.repo.GetByID(staffID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.perms.HasSchoolAccessToStaff(caller, profile.UserID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.logger.Warn("staff access denied", "caller_id", caller.ID, "staff_id", staffID)
		return nil, internal.ErrUnauthorizedAccess
	}

	return profile, nil
}

// ListStaff returns the caller's visible slice of the staff directory.
// staffType "teaching" turns it into the teacher directory.
func (s *Service) ListStaff(caller *identity.User, staffType, search string, limit, offset int) ([]*SchoolStaff, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if staffType != "" && staffType != TeachingStaff && staffType != NonTeachingStaff {
		return nil, internal.NewValidationError("unknown staff type", internal.ErrCodeInvalidLookup)
	}

	if s.perms.IsAdmin(caller) {
		return s.repo.ListVisible(nil, staffType, search, limit, offset)
	}

	if !caller.HasAnyRole(identity.RoleSchoolAdmins, identity.RoleTeachers) {
		return []*SchoolStaff{}, nil
	}

	schools, err := s.perms.ActiveSchools(caller)
	if err != nil {
		return nil, err
	}
	if len(schools) == 0 {
		return []*SchoolStaff{}, nil
	}
	return s.repo.ListVisible(schools, staffType, search, limit, offset)
}

func (s *Service) UpdateStaff(caller *identity.User, staffID int64, dto UpdateStaffDTO) (*SchoolStaff, error) {
	profile, err := s.repo.GetByID(staffID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.perms.CanEditStaff(caller, profile.UserID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, internal.ErrUnauthorizedAccess
	}

	dto.apply(profile)
	profile.UpdatedAt = time.Now()
	profile.UpdatedBy = caller.ID

	if err := s.repo.Update(profile); err != nil {
		s.logger.Error("failed to update staff profile", "error", err, "staff_id", staffID)
		return nil, err
	}
	return profile, nil
}

// DeleteStaff removes the profile with its documents and their blobs;
// the underlying user account survives and reverts to pending.
func (s *Service) DeleteStaff(ctx context.Context, caller *identity.User, staffID int64) error {
	profile, err := s.repo.GetByID(staffID)
	if err != nil {
		return err
	}

	allowed, err := s.perms.CanDeleteStaff(caller, profile.UserID)
	if err != nil {
		return err
	}
	if !allowed {
		return internal.ErrUnauthorizedAccess
	}

	keys, err := s.repo.DocumentStorageKeys(staffID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(staffID); err != nil {
		s.logger.Error("failed to delete staff profile", "error", err, "staff_id", staffID)
		return err
	}

	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Error("failed to delete blob", "error", err, "key", key)
		}
	}

	s.logger.Info("staff profile deleted", "staff_id", staffID, "user_id", profile.UserID, "deleted_by", caller.ID)
	return nil
}

func (s *Service) CreateAssignment(caller *identity.User, staffID int64, dto AssignmentDTO) (*Assignment, error) {
	if _, err := s.repo.GetByID(staffID); err != nil {
		return nil, err
	}

	allowed, err := s.perms.CanCreateStaffAssignment(caller, dto.SchoolID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.logger.Warn("assignment creation denied", "caller_id", caller.ID, "school_id", dto.SchoolID)
		return nil, internal.ErrForbiddenSchool
	}

	now := time.Now()
	assignment := &Assignment{
		SchoolStaffID: staffID,
		SchoolID:      dto.SchoolID,
		JobTitleCode:  dto.JobTitleCode,
		StartDate:     dto.StartDate,
		EndDate:       dto.EndDate,
		CreatedAt:     now,
		CreatedBy:     caller.ID,
		UpdatedAt:     now,
		UpdatedBy:     caller.ID,
	}

	if err := s.repo.CreateAssignment(assignment); err != nil {
		if isUniqueViolation(err) {
			return nil, internal.ErrDuplicateAssignment
		}
		s.logger.Error("failed to create assignment", "error", err, "staff_id", staffID)
		return nil, err
	}
	return assignment, nil
}

func (s *Service) UpdateAssignment(caller *identity.User, staffID, assignmentID int64, dto AssignmentDTO) (*Assignment, error) {
	assignment, err := s.repo.GetAssignment(assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.SchoolStaffID != staffID {
		return nil, internal.ErrStaffNotFound
	}

	// The caller needs access to both the current and the target school.
	for _, schoolID := range []int64{assignment.SchoolID, dto.SchoolID} {
		allowed, err := s.perms.CanCreateStaffAssignment(caller, schoolID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, internal.ErrForbiddenSchool
		}
	}

	assignment.SchoolID = dto.SchoolID
	assignment.JobTitleCode = dto.JobTitleCode
	assignment.StartDate = dto.StartDate
	assignment.EndDate = dto.EndDate
	assignment.UpdatedAt = time.Now()
	assignment.UpdatedBy = caller.ID

	if err := s.repo.UpdateAssignment(assignment); err != nil {
		if isUniqueViolation(err) {
			return nil, internal.ErrDuplicateAssignment
		}
		return nil, err
	}
	return assignment, nil
}

func (s *Service) DeleteAssignment(caller *identity.User, staffID, assignmentID int64) error {
	assignment, err := s.repo.GetAssignment(assignmentID)
	if err != nil {
		return err
	}
	if assignment.SchoolStaffID != staffID {
		return internal.ErrStaffNotFound
	}

	allowed, err := s.perms.CanCreateStaffAssignment(caller, assignment.SchoolID)
	if err != nil {
		return err
	}
	if !allowed {
		return internal.ErrForbiddenSchool
	}

	return s.repo.DeleteAssignment(assignmentID)
}

// ActiveSchoolIDs implements the auth package's SchoolDirectory.
func (s *Service) ActiveSchoolIDs(userID int64) ([]int64, error) {
	return s.repo.ActiveSchoolIDs(userID)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
