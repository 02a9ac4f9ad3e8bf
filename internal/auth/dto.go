package auth

import (
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/identity"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d LoginDTO) Validate() error {
	if d.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	if d.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

func (d RefreshTokenDTO) Validate() error {
	if d.RefreshToken == "" {
		return ValidationError{Msg: "refresh_token is required"}
	}
	return nil
}

// MeDTO reports the caller's identity plus the evaluated access flags the
// frontend needs to decide which sections to show.
type MeDTO struct {
	ID                    int64           `json:"id"`
	Username              string          `json:"username"`
	Email                 string          `json:"email"`
	FirstName             string          `json:"first_name"`
	LastName              string          `json:"last_name"`
	IsSuperuser           bool            `json:"is_superuser"`
	Roles                 []identity.Role `json:"roles"`
	ProfileKind           string          `json:"profile_kind"`
	HasAppAccess          bool            `json:"has_app_access"`
	IsAdmin               bool            `json:"is_admin"`
	CanAccessSystemUsers  bool            `json:"can_access_system_users"`
	CanManagePendingUsers bool            `json:"can_manage_pending_users"`
	ActiveSchoolIDs       []int64         `json:"active_school_ids"`
}

func NewMeDTO(u *identity.User, eval *Evaluator) (MeDTO, error) {
	schools, err := eval.ActiveSchools(u)
	if err != nil {
		return MeDTO{}, err
	}
	return MeDTO{
		ID:                    u.ID,
		Username:              u.Username,
		Email:                 u.Email,
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		IsSuperuser:           u.IsSuperuser,
		Roles:                 u.Roles,
		ProfileKind:           string(u.ProfileKind()),
		HasAppAccess:          eval.HasAppAccess(u),
		IsAdmin:               eval.IsAdmin(u),
		CanAccessSystemUsers:  eval.CanAccessSystemUsers(u),
		CanManagePendingUsers: eval.CanManagePendingUsers(u),
		ActiveSchoolIDs:       schools,
	}, nil
}
