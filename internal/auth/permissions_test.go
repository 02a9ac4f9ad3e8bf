package auth_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/auth"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/identity"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

// Fake school directory for overlap checks
type fakeSchoolDirectory struct {
	schoolsByUser map[int64][]int64
}

func (f *fakeSchoolDirectory) ActiveSchoolIDs(userID int64) ([]int64, error) {
	return f.schoolsByUser[userID], nil
}

func userWith(id int64, roles ...identity.Role) *identity.User {
	staffID := id + 1000
	return &identity.User{
		ID:       id,
		Username: "user",
		IsActive: true,
		Roles:    roles,
		StaffID:  &staffID,
	}
}

var _ = Describe("Evaluator", func() {
	var (
		directory *fakeSchoolDirectory
		evaluator *auth.Evaluator
	)

	BeforeEach(func() {
		directory = &fakeSchoolDirectory{schoolsByUser: map[int64][]int64{}}
		evaluator = auth.NewEvaluator(directory)
	})

	Describe("HasAppAccess", func() {
		It("should deny a nil user", func() {
			Expect(evaluator.HasAppAccess(nil)).To(BeFalse())
		})

		It("should always allow superusers, even without a profile", func() {
			u := &identity.User{ID: 1, IsSuperuser: true}
			Expect(evaluator.HasAppAccess(u)).To(BeTrue())
		})

		It("should deny a user with roles but no profile", func() {
			u := &identity.User{ID: 2, Roles: []identity.Role{identity.RoleTeachers}}
			Expect(evaluator.HasAppAccess(u)).To(BeFalse())
		})

		It("should deny a user with a profile but no roles", func() {
			staffID := int64(10)
			u := &identity.User{ID: 3, StaffID: &staffID}
			Expect(evaluator.HasAppAccess(u)).To(BeFalse())
		})

		It("should allow a user with both a profile and a role", func() {
			u := userWith(4, identity.RoleTeachers)
			Expect(evaluator.HasAppAccess(u)).To(BeTrue())
		})

		It("should allow a system user with a role", func() {
			systemID := int64(20)
			u := &identity.User{ID: 5, SystemID: &systemID, Roles: []identity.Role{identity.RoleSystemStaff}}
			Expect(evaluator.HasAppAccess(u)).To(BeTrue())
		})
	})

	Describe("IsAdmin", func() {
		It("should recognize Admins and System Admins", func() {
			Expect(evaluator.IsAdmin(userWith(1, identity.RoleAdmins))).To(BeTrue())
			Expect(evaluator.IsAdmin(userWith(2, identity.RoleSystemAdmins))).To(BeTrue())
		})

		It("should deny school-scoped roles", func() {
			Expect(evaluator.IsAdmin(userWith(3, identity.RoleSchoolAdmins))).To(BeFalse())
			Expect(evaluator.IsAdmin(userWith(4, identity.RoleTeachers))).To(BeFalse())
			Expect(evaluator.IsAdmin(userWith(5, identity.RoleSystemStaff))).To(BeFalse())
		})
	})

	Describe("CanManagePendingUsers", func() {
		It("should allow superusers, Admins and System Admins", func() {
			Expect(evaluator.CanManagePendingUsers(&identity.User{ID: 1, IsSuperuser: true})).To(BeTrue())
			Expect(evaluator.CanManagePendingUsers(userWith(2, identity.RoleAdmins))).To(BeTrue())
			Expect(evaluator.CanManagePendingUsers(userWith(3, identity.RoleSystemAdmins))).To(BeTrue())
		})

		It("should deny System Staff, who only read system users", func() {
			Expect(evaluator.CanManagePendingUsers(userWith(4, identity.RoleSystemStaff))).To(BeFalse())
		})

		It("should deny school-scoped roles", func() {
			Expect(evaluator.CanManagePendingUsers(userWith(5, identity.RoleSchoolAdmins))).To(BeFalse())
		})
	})

	Describe("CanAccessSystemUsers", func() {
		It("should include System Staff", func() {
			Expect(evaluator.CanAccessSystemUsers(userWith(1, identity.RoleSystemStaff))).To(BeTrue())
		})

		It("should exclude school-scoped roles", func() {
			Expect(evaluator.CanAccessSystemUsers(userWith(2, identity.RoleSchoolAdmins))).To(BeFalse())
			Expect(evaluator.CanAccessSystemUsers(userWith(3, identity.RoleTeachers))).To(BeFalse())
		})
	})

	Describe("AssignableRoles", func() {
		It("should give Admins every group", func() {
			roles := evaluator.AssignableRoles(userWith(1, identity.RoleAdmins))
			Expect(roles).To(ContainElement(identity.RoleAdmins))
			Expect(roles).To(HaveLen(len(identity.AllRoles())))
		})

		It("should never let System Admins hand out the Admins group", func() {
			roles := evaluator.AssignableRoles(userWith(2, identity.RoleSystemAdmins))
			Expect(roles).NotTo(BeEmpty())
			Expect(roles).NotTo(ContainElement(identity.RoleAdmins))
		})

		It("should give non-admins nothing", func() {
			Expect(evaluator.AssignableRoles(userWith(3, identity.RoleTeachers))).To(BeEmpty())
		})
	})

	Describe("HasSchoolAccessToStaff", func() {
		It("should allow admins regardless of schools", func() {
			allowed, err := evaluator.HasSchoolAccessToStaff(userWith(1, identity.RoleAdmins), 99)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})

		It("should allow a School Admin when active schools overlap", func() {
			caller := userWith(1, identity.RoleSchoolAdmins)
			directory.schoolsByUser[1] = []int64{10, 11}
			directory.schoolsByUser[2] = []int64{11}

			allowed, err := evaluator.HasSchoolAccessToStaff(caller, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})

		It("should deny a School Admin with no overlapping school", func() {
			caller := userWith(1, identity.RoleSchoolAdmins)
			directory.schoolsByUser[1] = []int64{10}
			directory.schoolsByUser[2] = []int64{11}

			allowed, err := evaluator.HasSchoolAccessToStaff(caller, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})

		It("should deny a caller with no active assignments", func() {
			caller := userWith(1, identity.RoleTeachers)
			directory.schoolsByUser[2] = []int64{11}

			allowed, err := evaluator.HasSchoolAccessToStaff(caller, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})

		It("should deny system-scoped non-admin roles", func() {
			caller := userWith(1, identity.RoleSystemStaff)
			directory.schoolsByUser[1] = []int64{10}
			directory.schoolsByUser[2] = []int64{10}

			allowed, err := evaluator.HasSchoolAccessToStaff(caller, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})
	})

	Describe("CanEditStaff", func() {
		It("should deny Teachers even with school overlap", func() {
			caller := userWith(1, identity.RoleTeachers)
			directory.schoolsByUser[1] = []int64{10}
			directory.schoolsByUser[2] = []int64{10}

			allowed, err := evaluator.CanEditStaff(caller, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})

		It("should allow School Admins on overlap", func() {
			caller := userWith(1, identity.RoleSchoolAdmins)
			directory.schoolsByUser[1] = []int64{10}
			directory.schoolsByUser[2] = []int64{10}

			allowed, err := evaluator.CanEditStaff(caller, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})
	})

	Describe("CanCreateStaffAssignment", func() {
		It("should scope School Admins to their own schools", func() {
			caller := userWith(1, identity.RoleSchoolAdmins)
			directory.schoolsByUser[1] = []int64{10}

			allowed, err := evaluator.CanCreateStaffAssignment(caller, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())

			allowed, err = evaluator.CanCreateStaffAssignment(caller, 11)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})
	})

	Describe("CanDeleteUser", func() {
		var admin *identity.User

		BeforeEach(func() {
			admin = userWith(1, identity.RoleAdmins)
		})

		It("should allow deleting a plain pending user", func() {
			target := &identity.User{ID: 2, IsActive: true}
			Expect(evaluator.CanDeleteUser(admin, target)).To(BeTrue())
		})

		It("should never allow self-deletion", func() {
			Expect(evaluator.CanDeleteUser(admin, admin)).To(BeFalse())
		})

		It("should never allow deleting a superuser", func() {
			target := &identity.User{ID: 2, IsSuperuser: true}
			Expect(evaluator.CanDeleteUser(admin, target)).To(BeFalse())
		})

		It("should never allow deleting a user who still holds a profile", func() {
			staffID := int64(5)
			target := &identity.User{ID: 2, StaffID: &staffID}
			Expect(evaluator.CanDeleteUser(admin, target)).To(BeFalse())
		})

		It("should deny callers who cannot manage pending users", func() {
			caller := userWith(3, identity.RoleSystemStaff)
			target := &identity.User{ID: 2}
			Expect(evaluator.CanDeleteUser(caller, target)).To(BeFalse())
		})
	})
})
