package identity

// RepositoryAPI is the read/write surface the application needs from the
// identity store. Login credentials, group membership and the profile
// foreign keys all live here; profile contents live in their own packages.
type RepositoryAPI interface {
	GetByID(userID int64) (*User, error)
	GetByEmail(email string) (*User, error)
	GetPasswordForEmail(email string) (passwordHash string, userID int64, err error)

	SetRoles(userID int64, roles []Role) error
	RolesFor(userID int64) ([]Role, error)

	Deactivate(userID int64) error
}
