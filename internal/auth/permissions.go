package auth

import (
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/identity"
)

// SchoolDirectory resolves the schools a user is currently attached to.
// Implemented by the staff repository; an assignment counts as active
// while its end_date is null.
type SchoolDirectory interface {
	ActiveSchoolIDs(userID int64) ([]int64, error)
}

// Evaluator holds the permission predicates gating every view. Predicates
// are pure over the in-memory user except for the school-overlap checks,
// which read the assignment table through SchoolDirectory.
//
// Denials are boolean results, never errors: callers translate false into
// a forbidden response or a redirect.
type Evaluator struct {
	schools SchoolDirectory
}

func NewEvaluator(schools SchoolDirectory) *Evaluator {
	return &Evaluator{schools: schools}
}

// HasAppAccess is the coarse layer-1 gate: superusers always pass,
// everyone else needs both a profile and at least one group.
func (e *Evaluator) HasAppAccess(u *identity.User) bool {
	if u == nil {
		return false
	}
	if u.IsSuperuser {
		return true
	}
	return u.HasProfile() && len(u.Roles) > 0
}

// IsAdmin is the system-wide-access predicate.
func (e *Evaluator) IsAdmin(u *identity.User) bool {
	if u == nil {
		return false
	}
	return u.IsSuperuser || u.HasAnyRole(identity.RoleAdmins, identity.RoleSystemAdmins)
}

// IsAdminsGroup is strictly Admins membership. It separates "full admin,
// may hand out the Admins group" from System Admins, who may not.
func (e *Evaluator) IsAdminsGroup(u *identity.User) bool {
	if u == nil {
		return false
	}
	return u.IsSuperuser || u.HasRole(identity.RoleAdmins)
}

// CanAssignAdminsGroup decides whether the Admins group may appear in a
// group-assignment form. System Admins are excluded on purpose.
func (e *Evaluator) CanAssignAdminsGroup(u *identity.User) bool {
	return e.IsAdminsGroup(u)
}

// CanAccessSystemUsers gates the ministry-level user directory. School
// scoped roles never pass.
func (e *Evaluator) CanAccessSystemUsers(u *identity.User) bool {
	if u == nil {
		return false
	}
	return e.IsAdmin(u) || u.HasRole(identity.RoleSystemStaff)
}

// CanManagePendingUsers gates pending-user triage and every registration
// review action. Narrower than CanAccessSystemUsers: System Staff is out.
func (e *Evaluator) CanManagePendingUsers(u *identity.User) bool {
	if u == nil {
		return false
	}
	return u.IsSuperuser || u.HasAnyRole(identity.RoleAdmins, identity.RoleSystemAdmins)
}

// AssignableRoles returns the set of groups the caller may grant to
// another user. Only Admins (or superusers) may grant Admins.
func (e *Evaluator) AssignableRoles(u *identity.User) []identity.Role {
	if e.CanAssignAdminsGroup(u) {
		return identity.AllRoles()
	}
	if e.IsAdmin(u) {
		var roles []identity.Role
		for _, r := range identity.AllRoles() {
			if r != identity.RoleAdmins {
				roles = append(roles, r)
			}
		}
		return roles
	}
	return nil
}

// ActiveSchools returns the ids of schools where the user holds an
// assignment with no end date.
func (e *Evaluator) ActiveSchools(u *identity.User) ([]int64, error) {
	if u == nil || u.StaffID == nil {
		return nil, nil
	}
	return e.schools.ActiveSchoolIDs(u.ID)
}

// HasSchoolAccessToStaff is the layer-2 row filter for staff records:
// admins see everything, School Admins and Teachers see a staff member
// only when their active-school sets intersect.
func (e *Evaluator) HasSchoolAccessToStaff(caller *identity.User, staffUserID int64) (bool, error) {
	if caller == nil {
		return false, nil
	}
	if e.IsAdmin(caller) {
		return true, nil
	}
	if !caller.HasAnyRole(identity.RoleSchoolAdmins, identity.RoleTeachers) {
		return false, nil
	}
	return e.schoolsOverlap(caller, staffUserID)
}

// CanEditStaff: superusers, Admins and System Admins unconditionally;
// School Admins only on school overlap.
func (e *Evaluator) CanEditStaff(caller *identity.User, staffUserID int64) (bool, error) {
	if caller == nil {
		return false, nil
	}
	if e.IsAdmin(caller) {
		return true, nil
	}
	if !caller.HasRole(identity.RoleSchoolAdmins) {
		return false, nil
	}
	return e.schoolsOverlap(caller, staffUserID)
}

// CanDeleteStaff follows the same shape as CanEditStaff.
func (e *Evaluator) CanDeleteStaff(caller *identity.User, staffUserID int64) (bool, error) {
	return e.CanEditStaff(caller, staffUserID)
}

// CanManageStaffRoles allows editing a staff member's group memberships.
// The candidate groups themselves come from AssignableRoles.
func (e *Evaluator) CanManageStaffRoles(caller *identity.User, staffUserID int64) (bool, error) {
	return e.CanEditStaff(caller, staffUserID)
}

// CanEditSystemUser: school-scoped roles never reach system users, and
// row-level scoping does not apply (system users are system-wide).
func (e *Evaluator) CanEditSystemUser(caller *identity.User) bool {
	return e.IsAdmin(caller)
}

// CanCreateStaffAssignment scopes assignment creation to the caller's own
// active schools unless the caller is an admin.
func (e *Evaluator) CanCreateStaffAssignment(caller *identity.User, schoolID int64) (bool, error) {
	if caller == nil {
		return false, nil
	}
	if e.IsAdmin(caller) {
		return true, nil
	}
	if !caller.HasRole(identity.RoleSchoolAdmins) {
		return false, nil
	}
	schools, err := e.ActiveSchools(caller)
	if err != nil {
		return false, err
	}
	for _, id := range schools {
		if id == schoolID {
			return true, nil
		}
	}
	return false, nil
}

// CanDeleteUser guards the pending-user delete action: never self, never
// a superuser, never a user who still owns a profile.
func (e *Evaluator) CanDeleteUser(caller, target *identity.User) bool {
	if caller == nil || target == nil {
		return false
	}
	if !e.CanManagePendingUsers(caller) {
		return false
	}
	if caller.ID == target.ID || target.IsSuperuser || target.HasProfile() {
		return false
	}
	return true
}

func (e *Evaluator) schoolsOverlap(caller *identity.User, staffUserID int64) (bool, error) {
	mine, err := e.ActiveSchools(caller)
	if err != nil {
		return false, err
	}
	if len(mine) == 0 {
		return false, nil
	}
	theirs, err := e.schools.ActiveSchoolIDs(staffUserID)
	if err != nil {
		return false, err
	}
	set := make(map[int64]struct{}, len(mine))
	for _, id := range mine {
		set[id] = struct{}{}
	}
	for _, id := range theirs {
		if _, ok := set[id]; ok {
			return true, nil
		}
	}
	return false, nil
}
