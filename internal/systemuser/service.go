package systemuser

import (
	"log/slog"
	"time"

	internal "github.com/PacificEMIS/pacific-emis-teacher-registration/internal"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/identity"
)

// PermissionEvaluator is the slice of the auth evaluator this service
// needs.
type PermissionEvaluator interface {
	CanEditSystemUser(u *identity.User) bool
}

type RepositoryAPI interface {
	Create(su *SystemUser) error
	GetByID(id int64) (*SystemUser, error)
	GetByUserID(userID int64) (*SystemUser, error)
	Update(su *SystemUser) error
	Delete(id int64) error
	List(search string, limit, offset int) ([]*SystemUser, error)
}

type Service struct {
	repo   RepositoryAPI
	perms  PermissionEvaluator
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, perms PermissionEvaluator, logger *slog.Logger) *Service {
	return &Service{repo: repo, perms: perms, logger: logger}
}

// GetSystemUser returns a ministry profile. Visibility is gated at the
// route, so any caller reaching here may read.
func (s *Service) GetSystemUser(caller *identity.User, id int64) (*SystemUser, error) {
	return s.repo.GetByID(id)
}

func (s *Service) ListSystemUsers(caller *identity.User, search string, limit, offset int) ([]*SystemUser, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.List(search, limit, offset)
}

func (s *Service) UpdateSystemUser(caller *identity.User, id int64, dto UpdateSystemUserDTO) (*SystemUser, error) {
	if !s.perms.CanEditSystemUser(caller) {
		return nil, internal.ErrUnauthorizedAccess
	}

	profile, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	dto.apply(profile)
	profile.UpdatedAt = time.Now()
	profile.UpdatedBy = caller.ID

	if err := s.repo.Update(profile); err != nil {
		s.logger.Error("failed to update system user", "error", err, "system_user_id", id)
		return nil, err
	}
	return profile, nil
}

// DeleteSystemUser removes the profile; the user account survives and
// reverts to pending.
func (s *Service) DeleteSystemUser(caller *identity.User, id int64) error {
	if !s.perms.CanEditSystemUser(caller) {
		return internal.ErrUnauthorizedAccess
	}

	profile, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete system user", "error", err, "system_user_id", id)
		return err
	}

	s.logger.Info("system user profile deleted", "system_user_id", id, "user_id", profile.UserID, "deleted_by", caller.ID)
	return nil
}
