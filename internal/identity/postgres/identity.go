package postgres

import (
	"database/sql"

	internal "github.com/PacificEMIS/pacific-emis-teacher-registration/internal"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/identity"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(userID int64) (*identity.User, error) {
	return r.getUser(`WHERE u.id = ?`, userID)
}

func (r *Repository) GetByEmail(email string) (*identity.User, error) {
	return r.getUser(`WHERE u.email = ?`, email)
}

func (r *Repository) getUser(where string, arg interface{}) (*identity.User, error) {
	var user identity.User

	query := `SELECT u.id, u.username, u.email, u.first_name, u.last_name,
	                 u.is_superuser, u.is_active, u.created_at,
	                 ss.id AS staff_id, su.id AS system_user_id
	          FROM users u
	          LEFT JOIN school_staff ss ON ss.user_id = u.id
	          LEFT JOIN system_users su ON su.user_id = u.id ` + where

	var staffID, systemID sql.NullInt64
	row := r.db.Raw(query, arg).Row()
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FirstName,
		&user.LastName, &user.IsSuperuser, &user.IsActive, &user.CreatedAt,
		&staffID, &systemID); err != nil {
		if err == sql.ErrNoRows {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	if staffID.Valid {
		user.StaffID = &staffID.Int64
	}
	if systemID.Valid {
		user.SystemID = &systemID.Int64
	}

	roles, err := r.RolesFor(user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles

	return &user, nil
}

func (r *Repository) GetPasswordForEmail(email string) (string, int64, error) {
	var passwordHash string
	var userID int64
	query := `SELECT id, password_hash FROM users WHERE email = ? AND is_active = true`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if err == sql.ErrNoRows {
			return "", 0, internal.ErrUserNotFound
		}
		return "", 0, err
	}
	return passwordHash, userID, nil
}

func (r *Repository) RolesFor(userID int64) ([]identity.Role, error) {
	query := `SELECT g.name
	          FROM groups g
	          JOIN user_groups ug ON g.id = ug.group_id
	          WHERE ug.user_id = ?`

	rows, err := r.db.Raw(query, userID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []identity.Role
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		role := identity.Role(name)
		if role.Valid() {
			roles = append(roles, role)
		}
	}
	return roles, rows.Err()
}

// SetRoles replaces the user's group memberships in one transaction.
func (r *Repository) SetRoles(userID int64, roles []identity.Role) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM user_groups WHERE user_id = ?`, userID).Error; err != nil {
			return err
		}
		for _, role := range roles {
			err := tx.Exec(`INSERT INTO user_groups (user_id, group_id)
			                SELECT ?, id FROM groups WHERE name = ?`, userID, string(role)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) Deactivate(userID int64) error {
	res := r.db.Exec(`UPDATE users SET is_active = false WHERE id = ?`, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}
