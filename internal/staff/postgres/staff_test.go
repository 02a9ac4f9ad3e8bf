package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	internal "github.com/PacificEMIS/pacific-emis-teacher-registration/internal"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/registration"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/staff"
)

func TestStaffRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "StaffRepository Suite")
}

var _ = Describe("StaffRepository", func() {
	var (
		db   *gorm.DB
		repo *StaffRepository
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&staff.SchoolStaff{},
			&staff.Assignment{},
			&staff.EducationRecord{},
			&staff.TrainingRecord{},
			&registration.Registration{},
			&registration.Document{},
		)
		Expect(err).NotTo(HaveOccurred())

		repo = NewStaffRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	createStaff := func(userID int64, name string) *staff.SchoolStaff {
		s := &staff.SchoolStaff{
			UserID:    userID,
			StaffType: staff.TeachingStaff,
			FirstName: name,
			LastName:  "Test",
		}
		Expect(repo.Create(s)).To(Succeed())
		return s
	}

	assign := func(staffID, schoolID int64, endDate *time.Time) *staff.Assignment {
		a := &staff.Assignment{
			SchoolStaffID: staffID,
			SchoolID:      schoolID,
			JobTitleCode:  "CT",
			EndDate:       endDate,
		}
		Expect(repo.CreateAssignment(a)).To(Succeed())
		return a
	}

	Describe("Create", func() {
		It("should reject a second profile for the same user", func() {
			createStaff(1, "First")
			err := repo.Create(&staff.SchoolStaff{UserID: 1, StaffType: staff.NonTeachingStaff})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ListVisible", func() {
		It("should return everything when schoolIDs is nil", func() {
			createStaff(1, "A")
			createStaff(2, "B")

			result, err := repo.ListVisible(nil, "", "", 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(HaveLen(2))
		})

		It("should narrow to teaching staff for the teacher directory", func() {
			teacher := createStaff(1, "Teacher")
			clerk := &staff.SchoolStaff{UserID: 2, StaffType: staff.NonTeachingStaff, FirstName: "Clerk"}
			Expect(repo.Create(clerk)).To(Succeed())

			result, err := repo.ListVisible(nil, staff.TeachingStaff, "", 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(HaveLen(1))
			Expect(result[0].ID).To(Equal(teacher.ID))
		})

		It("should filter by the most recent assignment's school", func() {
			moved := createStaff(1, "Moved")
			assign(moved.ID, 10, nil)
			assign(moved.ID, 20, nil)

			stayed := createStaff(2, "Stayed")
			assign(stayed.ID, 10, nil)

			// School 10 only sees the staff member whose latest assignment
			// is there; the one who moved to school 20 is filtered out.
			result, err := repo.ListVisible([]int64{10}, "", "", 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(HaveLen(1))
			Expect(result[0].ID).To(Equal(stayed.ID))

			result, err = repo.ListVisible([]int64{20}, "", "", 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(HaveLen(1))
			Expect(result[0].ID).To(Equal(moved.ID))
		})

		It("should hide staff with no assignments from school-scoped callers", func() {
			createStaff(1, "Unassigned")

			result, err := repo.ListVisible([]int64{10}, "", "", 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(BeEmpty())
		})
	})

	Describe("ActiveSchoolIDs", func() {
		It("should count only assignments with no end date", func() {
			s := createStaff(1, "Teacher")
			ended := time.Now().AddDate(-1, 0, 0)
			assign(s.ID, 10, &ended)
			assign(s.ID, 20, nil)

			ids, err := repo.ActiveSchoolIDs(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]int64{20}))
		})

		It("should return nothing for a user with no profile", func() {
			ids, err := repo.ActiveSchoolIDs(999)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(BeEmpty())
		})
	})

	Describe("Delete", func() {
		It("should remove the profile with its assignments and records", func() {
			s := createStaff(1, "Leaving")
			assign(s.ID, 10, nil)
			Expect(db.Create(&staff.EducationRecord{SchoolStaffID: s.ID, InstitutionName: "CMI"}).Error).To(Succeed())

			Expect(repo.Delete(s.ID)).To(Succeed())

			_, err := repo.GetByID(s.ID)
			Expect(err).To(Equal(internal.ErrStaffNotFound))

			var assignments []staff.Assignment
			Expect(db.Find(&assignments).Error).To(Succeed())
			Expect(assignments).To(BeEmpty())
		})

		It("should clear the approval link on the source registration", func() {
			s := createStaff(1, "Approved")
			reg := &registration.Registration{
				UserID:                 1,
				Status:                 registration.StatusApproved,
				ApprovedStaffProfileID: &s.ID,
			}
			Expect(db.Create(reg).Error).To(Succeed())

			Expect(repo.Delete(s.ID)).To(Succeed())

			var got registration.Registration
			Expect(db.First(&got, reg.ID).Error).To(Succeed())
			Expect(got.ApprovedStaffProfileID).To(BeNil())
			Expect(got.Status).To(Equal(registration.StatusApproved))
		})

		It("should delete documents owned by the profile rather than orphan them", func() {
			s := createStaff(1, "Approved")
			doc := &registration.Document{
				SchoolStaffID:    &s.ID,
				StorageKey:       "1/certificate.pdf",
				OriginalFilename: "certificate.pdf",
			}
			Expect(db.Create(doc).Error).To(Succeed())

			Expect(repo.Delete(s.ID)).To(Succeed())

			// A document row must always keep exactly one owner, so the
			// rows go with the profile instead of being detached.
			var docs []registration.Document
			Expect(db.Find(&docs).Error).To(Succeed())
			Expect(docs).To(BeEmpty())

			var orphans int64
			Expect(db.Model(&registration.Document{}).
				Where("registration_id IS NULL AND school_staff_id IS NULL").
				Count(&orphans).Error).To(Succeed())
			Expect(orphans).To(BeZero())
		})

		It("should report the storage keys of owned documents", func() {
			s := createStaff(1, "Approved")
			Expect(db.Create(&registration.Document{
				SchoolStaffID:    &s.ID,
				StorageKey:       "1/certificate.pdf",
				OriginalFilename: "certificate.pdf",
			}).Error).To(Succeed())
			Expect(db.Create(&registration.Document{
				SchoolStaffID:    &s.ID,
				StorageKey:       "1/transcript.pdf",
				OriginalFilename: "transcript.pdf",
			}).Error).To(Succeed())

			keys, err := repo.DocumentStorageKeys(s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(keys).To(ConsistOf("1/certificate.pdf", "1/transcript.pdf"))
		})

		It("should return ErrStaffNotFound for a missing profile", func() {
			Expect(repo.Delete(12345)).To(Equal(internal.ErrStaffNotFound))
		})
	})

	Describe("Assignments", func() {
		It("should reject a duplicate assignment window", func() {
			s := createStaff(1, "Teacher")
			start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
			end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
			a := &staff.Assignment{SchoolStaffID: s.ID, SchoolID: 10, JobTitleCode: "CT", StartDate: &start, EndDate: &end}
			Expect(repo.CreateAssignment(a)).To(Succeed())

			dup := &staff.Assignment{SchoolStaffID: s.ID, SchoolID: 10, JobTitleCode: "PR", StartDate: &start, EndDate: &end}
			Expect(repo.CreateAssignment(dup)).To(HaveOccurred())
		})

		It("should reject a duplicate open-ended assignment", func() {
			// ux_assignment_window is declared NULLS NOT DISTINCT in
			// Postgres. SQLite keeps NULLs distinct in unique indexes,
			// so the test recreates the constraint with coalesced dates.
			Expect(db.Exec(`DROP INDEX ux_assignment_window`).Error).To(Succeed())
			Expect(db.Exec(`CREATE UNIQUE INDEX ux_assignment_window
				ON school_staff_assignments (school_staff_id, school_id, ifnull(start_date, ''), ifnull(end_date, ''))`).Error).To(Succeed())

			s := createStaff(1, "Teacher")
			Expect(repo.CreateAssignment(&staff.Assignment{SchoolStaffID: s.ID, SchoolID: 10, JobTitleCode: "CT"})).To(Succeed())

			dup := &staff.Assignment{SchoolStaffID: s.ID, SchoolID: 10, JobTitleCode: "PR"}
			Expect(repo.CreateAssignment(dup)).To(HaveOccurred())
		})
	})
})
