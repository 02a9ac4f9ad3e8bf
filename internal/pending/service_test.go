package pending_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/PacificEMIS/pacific-emis-teacher-registration/internal"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/identity"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/pending"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/staff"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/systemuser"
)

func TestPendingService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PendingService Suite")
}

type mockPendingRepository struct {
	pendingUsers []*pending.PendingUser
	listError    error
}

func (m *mockPendingRepository) ListPending(search string, limit, offset int) ([]*pending.PendingUser, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	return m.pendingUsers, nil
}

type mockUserRepository struct {
	users       map[int64]*identity.User
	deactivated []int64
}

func (m *mockUserRepository) GetByID(userID int64) (*identity.User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepository) Deactivate(userID int64) error {
	m.deactivated = append(m.deactivated, userID)
	return nil
}

type mockStaffCreator struct {
	created     []*staff.SchoolStaff
	createError error
}

func (m *mockStaffCreator) Create(s *staff.SchoolStaff) error {
	if m.createError != nil {
		return m.createError
	}
	s.ID = int64(len(m.created) + 1)
	m.created = append(m.created, s)
	return nil
}

type mockSystemUserCreator struct {
	created     []*systemuser.SystemUser
	createError error
}

func (m *mockSystemUserCreator) Create(su *systemuser.SystemUser) error {
	if m.createError != nil {
		return m.createError
	}
	su.ID = int64(len(m.created) + 1)
	m.created = append(m.created, su)
	return nil
}

type fakePerms struct {
	managers map[int64]bool
}

func (f *fakePerms) CanManagePendingUsers(u *identity.User) bool {
	return u != nil && f.managers[u.ID]
}

func (f *fakePerms) CanDeleteUser(caller, target *identity.User) bool {
	if caller == nil || target == nil || !f.managers[caller.ID] {
		return false
	}
	return caller.ID != target.ID && !target.IsSuperuser && !target.HasProfile()
}

var _ = Describe("PendingService", func() {
	var (
		svc         *pending.Service
		repo        *mockPendingRepository
		users       *mockUserRepository
		staffRepo   *mockStaffCreator
		systemUsers *mockSystemUserCreator
		perms       *fakePerms
		admin       *identity.User
		target      *identity.User
	)

	BeforeEach(func() {
		repo = &mockPendingRepository{}
		users = &mockUserRepository{users: map[int64]*identity.User{}}
		staffRepo = &mockStaffCreator{}
		systemUsers = &mockSystemUserCreator{}
		perms = &fakePerms{managers: map[int64]bool{}}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc = pending.NewService(repo, users, staffRepo, systemUsers, perms, logger)

		admin = &identity.User{ID: 1, Roles: []identity.Role{identity.RoleAdmins}}
		perms.managers[admin.ID] = true

		target = &identity.User{ID: 2, Username: "newteacher", IsActive: true}
		users.users[target.ID] = target
	})

	Describe("ListPending", func() {
		It("should return the pending queue for managers", func() {
			repo.pendingUsers = []*pending.PendingUser{{ID: 2, Username: "newteacher"}}
			result, err := svc.ListPending(admin, "", 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(HaveLen(1))
		})

		It("should refuse non-managers", func() {
			other := &identity.User{ID: 9}
			_, err := svc.ListPending(other, "", 50, 0)
			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})
	})

	Describe("AssignAsStaff", func() {
		It("should create a staff profile for a pending user", func() {
			profile, err := svc.AssignAsStaff(admin, target.ID, pending.AssignStaffDTO{
				StaffType: staff.TeachingStaff,
				FirstName: "Kata",
				LastName:  "Jelkan",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.UserID).To(Equal(target.ID))
			Expect(profile.StaffType).To(Equal(staff.TeachingStaff))
			Expect(profile.CreatedBy).To(Equal(admin.ID))
		})

		It("should default to non-teaching when no type is given", func() {
			profile, err := svc.AssignAsStaff(admin, target.ID, pending.AssignStaffDTO{
				FirstName: "Kata",
				LastName:  "Jelkan",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.StaffType).To(Equal(staff.NonTeachingStaff))
		})

		It("should refuse a user who already holds a profile", func() {
			staffID := int64(10)
			target.StaffID = &staffID

			_, err := svc.AssignAsStaff(admin, target.ID, pending.AssignStaffDTO{FirstName: "K", LastName: "J"})
			Expect(err).To(Equal(internal.ErrProfileExists))
		})

		It("should refuse a user who holds a system user profile", func() {
			systemID := int64(20)
			target.SystemID = &systemID

			_, err := svc.AssignAsStaff(admin, target.ID, pending.AssignStaffDTO{FirstName: "K", LastName: "J"})
			Expect(err).To(Equal(internal.ErrProfileExists))
		})

		It("should map a storage-level unique violation to the same conflict", func() {
			staffRepo.createError = errors.New(`pq: duplicate key value violates unique constraint "school_staff_user_id_key"`)

			_, err := svc.AssignAsStaff(admin, target.ID, pending.AssignStaffDTO{FirstName: "K", LastName: "J"})
			Expect(err).To(Equal(internal.ErrProfileExists))
		})

		It("should refuse non-managers", func() {
			other := &identity.User{ID: 9}
			_, err := svc.AssignAsStaff(other, target.ID, pending.AssignStaffDTO{FirstName: "K", LastName: "J"})
			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})
	})

	Describe("AssignAsSystemUser", func() {
		It("should create a system user profile", func() {
			profile, err := svc.AssignAsSystemUser(admin, target.ID, pending.AssignSystemUserDTO{
				Organization:  "Ministry of Education",
				PositionTitle: "Registrar",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.UserID).To(Equal(target.ID))
			Expect(profile.Organization).To(Equal("Ministry of Education"))
		})

		It("should refuse a user who already holds a staff profile", func() {
			staffID := int64(10)
			target.StaffID = &staffID

			_, err := svc.AssignAsSystemUser(admin, target.ID, pending.AssignSystemUserDTO{})
			Expect(err).To(Equal(internal.ErrProfileExists))
		})
	})

	Describe("DeleteUser", func() {
		It("should deactivate a plain pending user", func() {
			Expect(svc.DeleteUser(admin, target.ID)).To(Succeed())
			Expect(users.deactivated).To(ContainElement(target.ID))
		})

		It("should refuse to delete a superuser", func() {
			target.IsSuperuser = true
			err := svc.DeleteUser(admin, target.ID)
			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
			Expect(users.deactivated).To(BeEmpty())
		})

		It("should refuse self-deletion", func() {
			users.users[admin.ID] = admin
			err := svc.DeleteUser(admin, admin.ID)
			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})

		It("should refuse to delete a user who holds a profile", func() {
			staffID := int64(10)
			target.StaffID = &staffID
			err := svc.DeleteUser(admin, target.ID)
			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})
	})
})
