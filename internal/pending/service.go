package pending

import (
	"log/slog"
	"strings"
	"time"

	internal "github.com/PacificEMIS/pacific-emis-teacher-registration/internal"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/identity"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/staff"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/systemuser"
)

// PermissionEvaluator is the slice of the auth evaluator this service
// needs.
type PermissionEvaluator interface {
	CanManagePendingUsers(u *identity.User) bool
	CanDeleteUser(caller, target *identity.User) bool
}

// RepositoryAPI lists accounts the reconciler considers pending: active,
// not superuser, no profile on either side and no registration in
// flight.
type RepositoryAPI interface {
	ListPending(search string, limit, offset int) ([]*PendingUser, error)
}

type UserRepository interface {
	GetByID(userID int64) (*identity.User, error)
	Deactivate(userID int64) error
}

type StaffCreator interface {
	Create(s *staff.SchoolStaff) error
}

type SystemUserCreator interface {
	Create(su *systemuser.SystemUser) error
}

type Service struct {
	repo        RepositoryAPI
	users       UserRepository
	staff       StaffCreator
	systemUsers SystemUserCreator
	perms       PermissionEvaluator
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, users UserRepository, staffCreator StaffCreator, systemUserCreator SystemUserCreator, perms PermissionEvaluator, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		users:       users,
		staff:       staffCreator,
		systemUsers: systemUserCreator,
		perms:       perms,
		logger:      logger,
	}
}

// ListPending returns accounts waiting for a profile decision.
func (s *Service) ListPending(caller *identity.User, search string, limit, offset int) ([]*PendingUser, error) {
	if !s.perms.CanManagePendingUsers(caller) {
		return nil, internal.ErrUnauthorizedAccess
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListPending(search, limit, offset)
}

// AssignAsStaff gives a pending user a school staff profile. A user who
// already holds either profile kind is rejected; the unique user_id
// index backs the check under concurrency.
func (s *Service) AssignAsStaff(caller *identity.User, userID int64, dto AssignStaffDTO) (*staff.SchoolStaff, error) {
	if !s.perms.CanManagePendingUsers(caller) {
		return nil, internal.ErrUnauthorizedAccess
	}

	target, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if target.HasProfile() {
		return nil, internal.ErrProfileExists
	}

	staffType := dto.StaffType
	if staffType == "" {
		staffType = staff.NonTeachingStaff
	}

	now := time.Now()
	profile := &staff.SchoolStaff{
		UserID:    userID,
		StaffType: staffType,
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
		CreatedAt: now,
		CreatedBy: caller.ID,
		UpdatedAt: now,
		UpdatedBy: caller.ID,
	}

	if err := s.staff.Create(profile); err != nil {
		if isUniqueViolation(err) {
			return nil, internal.ErrProfileExists
		}
		s.logger.Error("failed to create staff profile", "error", err, "user_id", userID)
		return nil, err
	}

	s.logger.Info("pending user assigned as staff", "user_id", userID, "staff_id", profile.ID, "assigned_by", caller.ID)
	return profile, nil
}

// AssignAsSystemUser gives a pending user a ministry profile.
func (s *Service) AssignAsSystemUser(caller *identity.User, userID int64, dto AssignSystemUserDTO) (*systemuser.SystemUser, error) {
	if !s.perms.CanManagePendingUsers(caller) {
		return nil, internal.ErrUnauthorizedAccess
	}

	target, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if target.HasProfile() {
		return nil, internal.ErrProfileExists
	}

	now := time.Now()
	profile := &systemuser.SystemUser{
		UserID:        userID,
		Organization:  dto.Organization,
		PositionTitle: dto.PositionTitle,
		CreatedAt:     now,
		CreatedBy:     caller.ID,
		UpdatedAt:     now,
		UpdatedBy:     caller.ID,
	}

	if err := s.systemUsers.Create(profile); err != nil {
		if isUniqueViolation(err) {
			return nil, internal.ErrProfileExists
		}
		s.logger.Error("failed to create system user profile", "error", err, "user_id", userID)
		return nil, err
	}

	s.logger.Info("pending user assigned as system user", "user_id", userID, "system_user_id", profile.ID, "assigned_by", caller.ID)
	return profile, nil
}

// DeleteUser deactivates a pending account. Superusers, profiled users
// and the caller themself are never deletable.
func (s *Service) DeleteUser(caller *identity.User, userID int64) error {
	target, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if !s.perms.CanDeleteUser(caller, target) {
		return internal.ErrUnauthorizedAccess
	}

	if err := s.users.Deactivate(userID); err != nil {
		s.logger.Error("failed to deactivate user", "error", err, "user_id", userID)
		return err
	}

	s.logger.Info("pending user deactivated", "user_id", userID, "deleted_by", caller.ID)
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
