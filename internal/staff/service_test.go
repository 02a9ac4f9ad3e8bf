package staff_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/PacificEMIS/pacific-emis-teacher-registration/internal"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/identity"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/staff"
)

func TestStaffService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "StaffService Suite")
}

type mockStaffRepository struct {
	profiles    map[int64]*staff.SchoolStaff
	assignments map[int64]*staff.Assignment
	docKeys     map[int64][]string
	nextID      int64
	listCalls   [][]int64
	listTypes   []string
}

func newMockStaffRepository() *mockStaffRepository {
	return &mockStaffRepository{
		profiles:    make(map[int64]*staff.SchoolStaff),
		assignments: make(map[int64]*staff.Assignment),
		docKeys:     make(map[int64][]string),
		nextID:      1,
	}
}

func (m *mockStaffRepository) Create(s *staff.SchoolStaff) error {
	s.ID = m.nextID
	m.nextID++
	m.profiles[s.ID] = s
	return nil
}

func (m *mockStaffRepository) GetByID(id int64) (*staff.SchoolStaff, error) {
	s, ok := m.profiles[id]
	if !ok {
		return nil, internal.ErrStaffNotFound
	}
	return s, nil
}

func (m *mockStaffRepository) GetByUserID(userID int64) (*staff.SchoolStaff, error) {
	for _, s := range m.profiles {
		if s.UserID == userID {
			return s, nil
		}
	}
	return nil, internal.ErrStaffNotFound
}

func (m *mockStaffRepository) Update(s *staff.SchoolStaff) error {
	m.profiles[s.ID] = s
	return nil
}

func (m *mockStaffRepository) Delete(id int64) error {
	if _, ok := m.profiles[id]; !ok {
		return internal.ErrStaffNotFound
	}
	delete(m.profiles, id)
	delete(m.docKeys, id)
	return nil
}

func (m *mockStaffRepository) ListVisible(schoolIDs []int64, staffType, search string, limit, offset int) ([]*staff.SchoolStaff, error) {
	m.listCalls = append(m.listCalls, schoolIDs)
	m.listTypes = append(m.listTypes, staffType)
	var result []*staff.SchoolStaff
	for _, s := range m.profiles {
		if staffType != "" && s.StaffType != staffType {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

func (m *mockStaffRepository) CreateAssignment(a *staff.Assignment) error {
	a.ID = m.nextID
	m.nextID++
	m.assignments[a.ID] = a
	return nil
}

func (m *mockStaffRepository) GetAssignment(id int64) (*staff.Assignment, error) {
	a, ok := m.assignments[id]
	if !ok {
		return nil, internal.ErrStaffNotFound
	}
	return a, nil
}

func (m *mockStaffRepository) UpdateAssignment(a *staff.Assignment) error {
	m.assignments[a.ID] = a
	return nil
}

func (m *mockStaffRepository) DeleteAssignment(id int64) error {
	delete(m.assignments, id)
	return nil
}

func (m *mockStaffRepository) ActiveSchoolIDs(userID int64) ([]int64, error) {
	return nil, nil
}

func (m *mockStaffRepository) EducationRecords(staffID int64) ([]*staff.EducationRecord, error) {
	return nil, nil
}

func (m *mockStaffRepository) TrainingRecords(staffID int64) ([]*staff.TrainingRecord, error) {
	return nil, nil
}

func (m *mockStaffRepository) DocumentStorageKeys(staffID int64) ([]string, error) {
	return m.docKeys[staffID], nil
}

// fakeBlobStore records deletions so tests can assert blob cleanup.
type fakeBlobStore struct {
	deletedKeys []string
}

func (f *fakeBlobStore) Store(ctx context.Context, userID int64, filename, contentType string, size int64, content io.Reader) (string, error) {
	return filename, nil
}

func (f *fakeBlobStore) Retrieve(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	f.deletedKeys = append(f.deletedKeys, key)
	return nil
}

func (f *fakeBlobStore) GetURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	return "", nil
}

func (f *fakeBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	return false, nil
}

type fakeStaffPerms struct {
	admin         bool
	schoolAccess  bool
	editAllowed   bool
	schools       []int64
	allowedSchool int64
}

func (f *fakeStaffPerms) IsAdmin(u *identity.User) bool { return f.admin }

func (f *fakeStaffPerms) HasSchoolAccessToStaff(caller *identity.User, staffUserID int64) (bool, error) {
	return f.admin || f.schoolAccess, nil
}

func (f *fakeStaffPerms) CanEditStaff(caller *identity.User, staffUserID int64) (bool, error) {
	return f.admin || f.editAllowed, nil
}

func (f *fakeStaffPerms) CanDeleteStaff(caller *identity.User, staffUserID int64) (bool, error) {
	return f.admin || f.editAllowed, nil
}

func (f *fakeStaffPerms) CanCreateStaffAssignment(caller *identity.User, schoolID int64) (bool, error) {
	return f.admin || schoolID == f.allowedSchool, nil
}

func (f *fakeStaffPerms) ActiveSchools(u *identity.User) ([]int64, error) {
	return f.schools, nil
}

var _ = Describe("StaffService", func() {
	var (
		svc    *staff.Service
		repo   *mockStaffRepository
		perms  *fakeStaffPerms
		store  *fakeBlobStore
		caller *identity.User
		ctx    context.Context
	)

	BeforeEach(func() {
		repo = newMockStaffRepository()
		perms = &fakeStaffPerms{}
		store = &fakeBlobStore{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc = staff.NewService(repo, perms, store, logger)
		caller = &identity.User{ID: 1, Roles: []identity.Role{identity.RoleSchoolAdmins}}
		ctx = context.Background()
	})

	profile := func(userID int64) *staff.SchoolStaff {
		s := &staff.SchoolStaff{UserID: userID, StaffType: staff.TeachingStaff, FirstName: "Kata"}
		Expect(repo.Create(s)).To(Succeed())
		return s
	}

	Describe("GetStaff", func() {
		It("should return the profile when school access passes", func() {
			s := profile(5)
			perms.schoolAccess = true

			got, err := svc.GetStaff(caller, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(s.ID))
		})

		It("should deny without school access", func() {
			s := profile(5)
			_, err := svc.GetStaff(caller, s.ID)
			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})
	})

	Describe("ListStaff", func() {
		It("should pass nil school filter for admins", func() {
			perms.admin = true
			profile(5)

			_, err := svc.ListStaff(caller, "", "", 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.listCalls).To(HaveLen(1))
			Expect(repo.listCalls[0]).To(BeNil())
		})

		It("should scope school admins to their active schools", func() {
			perms.schools = []int64{10, 11}
			profile(5)

			_, err := svc.ListStaff(caller, "", "", 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.listCalls[0]).To(Equal([]int64{10, 11}))
		})

		It("should pass the teaching filter through for the teacher directory", func() {
			perms.admin = true

			_, err := svc.ListStaff(caller, staff.TeachingStaff, "", 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.listTypes).To(Equal([]string{staff.TeachingStaff}))
		})

		It("should reject an unknown staff type", func() {
			perms.admin = true

			_, err := svc.ListStaff(caller, "contractor", "", 50, 0)
			Expect(err).To(HaveOccurred())
			Expect(repo.listCalls).To(BeEmpty())
		})

		It("should return an empty list for callers with no active schools", func() {
			result, err := svc.ListStaff(caller, "", "", 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(BeEmpty())
			Expect(repo.listCalls).To(BeEmpty())
		})

		It("should return an empty list for roles outside the staff directory", func() {
			caller.Roles = []identity.Role{identity.RoleSystemStaff}
			result, err := svc.ListStaff(caller, "", "", 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(BeEmpty())
		})
	})

	Describe("UpdateStaff", func() {
		It("should apply the partial update", func() {
			s := profile(5)
			perms.editAllowed = true
			phone := "692-5555"

			updated, err := svc.UpdateStaff(caller, s.ID, staff.UpdateStaffDTO{PhoneNumber: &phone})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.PhoneNumber).To(Equal("692-5555"))
			Expect(updated.FirstName).To(Equal("Kata"))
		})

		It("should deny without edit permission", func() {
			s := profile(5)
			phone := "692-5555"
			_, err := svc.UpdateStaff(caller, s.ID, staff.UpdateStaffDTO{PhoneNumber: &phone})
			Expect(err).To(Equal(internal.ErrUnauthorizedAccess))
		})
	})

	Describe("CreateAssignment", func() {
		It("should create an assignment at an allowed school", func() {
			s := profile(5)
			perms.allowedSchool = 10

			a, err := svc.CreateAssignment(caller, s.ID, staff.AssignmentDTO{SchoolID: 10, JobTitleCode: "CT"})
			Expect(err).NotTo(HaveOccurred())
			Expect(a.SchoolStaffID).To(Equal(s.ID))
			Expect(a.EndDate).To(BeNil())
		})

		It("should refuse a school outside the caller's scope", func() {
			s := profile(5)
			perms.allowedSchool = 10

			_, err := svc.CreateAssignment(caller, s.ID, staff.AssignmentDTO{SchoolID: 99, JobTitleCode: "CT"})
			Expect(err).To(Equal(internal.ErrForbiddenSchool))
		})
	})

	Describe("UpdateAssignment", func() {
		It("should require access to both the current and the target school", func() {
			s := profile(5)
			perms.allowedSchool = 10
			a, err := svc.CreateAssignment(caller, s.ID, staff.AssignmentDTO{SchoolID: 10, JobTitleCode: "CT"})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.UpdateAssignment(caller, s.ID, a.ID, staff.AssignmentDTO{SchoolID: 99, JobTitleCode: "CT"})
			Expect(err).To(Equal(internal.ErrForbiddenSchool))
		})

		It("should refuse an assignment belonging to another staff member", func() {
			s := profile(5)
			other := profile(6)
			perms.admin = true
			a, err := svc.CreateAssignment(caller, other.ID, staff.AssignmentDTO{SchoolID: 10, JobTitleCode: "CT"})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.UpdateAssignment(caller, s.ID, a.ID, staff.AssignmentDTO{SchoolID: 10, JobTitleCode: "PR"})
			Expect(err).To(Equal(internal.ErrStaffNotFound))
		})

		It("should close an assignment by setting its end date", func() {
			s := profile(5)
			perms.admin = true
			a, err := svc.CreateAssignment(caller, s.ID, staff.AssignmentDTO{SchoolID: 10, JobTitleCode: "CT"})
			Expect(err).NotTo(HaveOccurred())

			end := time.Now()
			updated, err := svc.UpdateAssignment(caller, s.ID, a.ID, staff.AssignmentDTO{SchoolID: 10, JobTitleCode: "CT", EndDate: &end})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.EndDate).NotTo(BeNil())
			Expect(updated.IsActive()).To(BeFalse())
		})
	})

	Describe("DeleteStaff", func() {
		It("should delete with permission", func() {
			s := profile(5)
			perms.editAllowed = true
			Expect(svc.DeleteStaff(ctx, caller, s.ID)).To(Succeed())
			Expect(repo.profiles).To(BeEmpty())
		})

		It("should remove the blobs of documents owned by the profile", func() {
			s := profile(5)
			perms.editAllowed = true
			repo.docKeys[s.ID] = []string{"5/certificate.pdf", "5/transcript.pdf"}

			Expect(svc.DeleteStaff(ctx, caller, s.ID)).To(Succeed())
			Expect(store.deletedKeys).To(ConsistOf("5/certificate.pdf", "5/transcript.pdf"))
		})

		It("should deny without permission", func() {
			s := profile(5)
			Expect(svc.DeleteStaff(ctx, caller, s.ID)).To(Equal(internal.ErrUnauthorizedAccess))
			Expect(store.deletedKeys).To(BeEmpty())
		})
	})
})
