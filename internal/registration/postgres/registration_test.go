package postgres

import (
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	internal "github.com/PacificEMIS/pacific-emis-teacher-registration/internal"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/identity"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/registration"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/staff"
)

func TestRegistrationRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RegistrationRepository Suite")
}

var _ = Describe("RegistrationRepository", func() {
	var (
		db       *gorm.DB
		repo     *RegistrationRepository
		reviewer *identity.User
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&registration.Registration{},
			&registration.EducationRecord{},
			&registration.TrainingRecord{},
			&registration.ClaimedAppointment{},
			&registration.ClaimedDuty{},
			&registration.Document{},
			&registration.ChangeLog{},
			&staff.SchoolStaff{},
			&staff.Assignment{},
			&staff.EducationRecord{},
			&staff.TrainingRecord{},
		)
		Expect(err).NotTo(HaveOccurred())

		repo = NewRegistrationRepository(db)
		reviewer = &identity.User{ID: 500, Email: "reviewer@example.com"}
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	submittedRegistration := func(userID int64) *registration.Registration {
		now := time.Now()
		reg := &registration.Registration{
			UserID:      userID,
			Status:      registration.StatusSubmitted,
			FirstName:   "Kata",
			LastName:    "Jelkan",
			SubmittedAt: &now,
		}
		Expect(repo.Create(reg)).To(Succeed())
		return reg
	}

	Describe("Create and GetByID", func() {
		It("should round-trip a registration with its child records", func() {
			reg := submittedRegistration(1)

			Expect(repo.CreateEducationRecord(&registration.EducationRecord{
				RegistrationID:  reg.ID,
				InstitutionName: "College of the Marshall Islands",
			})).To(Succeed())
			Expect(repo.CreateClaimedAppointment(&registration.ClaimedAppointment{
				RegistrationID: reg.ID,
				SchoolID:       1,
				JobTitleCode:   "CT",
				Duties:         []registration.ClaimedDuty{{SubjectCode: "MAT"}},
			})).To(Succeed())

			got, err := repo.GetByID(reg.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.EducationRecords).To(HaveLen(1))
			Expect(got.ClaimedAppointments).To(HaveLen(1))
			Expect(got.ClaimedAppointments[0].Duties).To(HaveLen(1))
		})

		It("should return ErrRegistrationNotFound for a missing id", func() {
			_, err := repo.GetByID(99999)
			Expect(err).To(Equal(internal.ErrRegistrationNotFound))
		})
	})

	Describe("GetActiveByUserID", func() {
		It("should find an in-flight registration", func() {
			reg := submittedRegistration(1)
			got, err := repo.GetActiveByUserID(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(reg.ID))
		})

		It("should treat rejected as still in flight", func() {
			reg := submittedRegistration(1)
			ok, err := repo.UpdateStatusFrom(reg.ID, []string{registration.StatusSubmitted}, map[string]interface{}{
				"status": registration.StatusRejected,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			_, err = repo.GetActiveByUserID(1)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should ignore approved history", func() {
			reg := submittedRegistration(1)
			_, err := repo.Approve(reg, reviewer, "")
			Expect(err).NotTo(HaveOccurred())

			_, err = repo.GetActiveByUserID(1)
			Expect(err).To(Equal(internal.ErrRegistrationNotFound))
		})
	})

	Describe("UpdateStatusFrom", func() {
		It("should apply updates while the status matches", func() {
			reg := submittedRegistration(1)
			ok, err := repo.UpdateStatusFrom(reg.ID, []string{registration.StatusSubmitted}, map[string]interface{}{
				"status": registration.StatusUnderReview,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			got, err := repo.GetByID(reg.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(registration.StatusUnderReview))
		})

		It("should report zero rows when the status has moved on", func() {
			reg := submittedRegistration(1)
			ok, err := repo.UpdateStatusFrom(reg.ID, []string{registration.StatusDraft}, map[string]interface{}{
				"status": registration.StatusSubmitted,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("List", func() {
		It("should order the queue by actionability", func() {
			now := time.Now()
			statuses := []string{
				registration.StatusApproved,
				registration.StatusDraft,
				registration.StatusUnderReview,
				registration.StatusSubmitted,
			}
			for i, status := range statuses {
				reg := &registration.Registration{
					UserID:      int64(i + 1),
					Status:      status,
					FirstName:   "User",
					LastName:    "Test",
					SubmittedAt: &now,
				}
				Expect(repo.Create(reg)).To(Succeed())
			}

			regs, err := repo.List("", "", 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(regs).To(HaveLen(4))
			Expect(regs[0].Status).To(Equal(registration.StatusSubmitted))
			Expect(regs[1].Status).To(Equal(registration.StatusUnderReview))
			Expect(regs[2].Status).To(Equal(registration.StatusDraft))
			Expect(regs[3].Status).To(Equal(registration.StatusApproved))
		})

		It("should filter by status and search", func() {
			reg := submittedRegistration(1)
			regs, err := repo.List(registration.StatusSubmitted, "Jelk", 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(regs).To(HaveLen(1))
			Expect(regs[0].ID).To(Equal(reg.ID))

			regs, err = repo.List(registration.StatusDraft, "", 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(regs).To(BeEmpty())
		})
	})

	Describe("Approve", func() {
		var reg *registration.Registration

		BeforeEach(func() {
			reg = submittedRegistration(1)

			Expect(repo.CreateEducationRecord(&registration.EducationRecord{
				RegistrationID:  reg.ID,
				InstitutionName: "College of the Marshall Islands",
			})).To(Succeed())
			Expect(repo.CreateTrainingRecord(&registration.TrainingRecord{
				RegistrationID:      reg.ID,
				ProviderInstitution: "Ministry of Education",
				Title:               "Classroom Management",
			})).To(Succeed())
			Expect(repo.CreateClaimedAppointment(&registration.ClaimedAppointment{
				RegistrationID: reg.ID,
				SchoolID:       7,
				JobTitleCode:   "CT",
			})).To(Succeed())

			regID := reg.ID
			Expect(repo.CreateDocument(&registration.Document{
				RegistrationID:   &regID,
				StorageKey:       "1/2026/01/abc_clearance.pdf",
				OriginalFilename: "clearance.pdf",
				LinkTypeCode:     "POLCLEAR",
			})).To(Succeed())

			var err error
			reg, err = repo.GetByID(reg.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should create a teaching staff profile with a three year registration window", func() {
			profile, err := repo.Approve(reg, reviewer, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.ID).To(BeNumerically(">", 0))
			Expect(profile.UserID).To(Equal(reg.UserID))
			Expect(profile.StaffType).To(Equal(staff.TeachingStaff))
			Expect(profile.RegistrationStatus).NotTo(BeNil())
			Expect(*profile.RegistrationStatus).To(Equal(staff.RegistrationValid))
			Expect(profile.RegistrationValidUntil).NotTo(BeNil())
			Expect(profile.RegistrationValidUntil.Year()).To(Equal(time.Now().Year() + 3))
		})

		It("should flip the registration to approved and link the profile", func() {
			profile, err := repo.Approve(reg, reviewer, "All documents verified")
			Expect(err).NotTo(HaveOccurred())

			got, err := repo.GetByID(reg.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(registration.StatusApproved))
			Expect(got.ApprovedStaffProfileID).NotTo(BeNil())
			Expect(*got.ApprovedStaffProfileID).To(Equal(profile.ID))
			Expect(got.ReviewedByID).NotTo(BeNil())
			Expect(*got.ReviewedByID).To(Equal(reviewer.ID))
			Expect(got.ReviewerComments).To(Equal("All documents verified"))
		})

		It("should copy education and training claims, keeping the originals", func() {
			profile, err := repo.Approve(reg, reviewer, "")
			Expect(err).NotTo(HaveOccurred())

			var staffEducation []staff.EducationRecord
			Expect(db.Where("school_staff_id = ?", profile.ID).Find(&staffEducation).Error).To(Succeed())
			Expect(staffEducation).To(HaveLen(1))
			Expect(staffEducation[0].InstitutionName).To(Equal("College of the Marshall Islands"))

			var staffTraining []staff.TrainingRecord
			Expect(db.Where("school_staff_id = ?", profile.ID).Find(&staffTraining).Error).To(Succeed())
			Expect(staffTraining).To(HaveLen(1))

			got, err := repo.GetByID(reg.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.EducationRecords).To(HaveLen(1))
			Expect(got.TrainingRecords).To(HaveLen(1))
		})

		It("should derive live assignments from claimed appointments", func() {
			profile, err := repo.Approve(reg, reviewer, "")
			Expect(err).NotTo(HaveOccurred())

			var assignments []staff.Assignment
			Expect(db.Where("school_staff_id = ?", profile.ID).Find(&assignments).Error).To(Succeed())
			Expect(assignments).To(HaveLen(1))
			Expect(assignments[0].SchoolID).To(Equal(int64(7)))
			Expect(assignments[0].JobTitleCode).To(Equal("CT"))
			Expect(assignments[0].EndDate).To(BeNil())
		})

		It("should move documents to the staff profile, not copy them", func() {
			profile, err := repo.Approve(reg, reviewer, "")
			Expect(err).NotTo(HaveOccurred())

			var docs []registration.Document
			Expect(db.Find(&docs).Error).To(Succeed())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].RegistrationID).To(BeNil())
			Expect(docs[0].SchoolStaffID).NotTo(BeNil())
			Expect(*docs[0].SchoolStaffID).To(Equal(profile.ID))
		})

		It("should write the approval change log entry in the same transaction", func() {
			profile, err := repo.Approve(reg, reviewer, "")
			Expect(err).NotTo(HaveOccurred())

			logs, err := repo.ChangeLogs(reg.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(HaveLen(1))
			Expect(logs[0].NewValue).To(Equal(registration.StatusApproved))
			Expect(logs[0].Notes).To(Equal(fmt.Sprintf("Approved; staff profile %d created", profile.ID)))
		})

		It("should refuse a second approval and leave a single profile", func() {
			_, err := repo.Approve(reg, reviewer, "")
			Expect(err).NotTo(HaveOccurred())

			_, err = repo.Approve(reg, reviewer, "")
			Expect(err).To(Equal(internal.ErrApprovalConflict))

			var count int64
			Expect(db.Model(&staff.SchoolStaff{}).Count(&count).Error).To(Succeed())
			Expect(count).To(Equal(int64(1)))
		})

		It("should roll back when the user already holds a staff profile", func() {
			existing := &staff.SchoolStaff{UserID: reg.UserID, StaffType: staff.NonTeachingStaff}
			Expect(db.Create(existing).Error).To(Succeed())

			_, err := repo.Approve(reg, reviewer, "")
			Expect(err).To(Equal(internal.ErrProfileExists))

			// The status flip must not survive the failed transaction.
			got, err := repo.GetByID(reg.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(registration.StatusSubmitted))
		})
	})

	Describe("DeleteClaimedAppointment", func() {
		It("should delete the appointment together with its duties", func() {
			reg := submittedRegistration(1)
			app := &registration.ClaimedAppointment{
				RegistrationID: reg.ID,
				SchoolID:       1,
				JobTitleCode:   "CT",
				Duties:         []registration.ClaimedDuty{{SubjectCode: "MAT"}, {SubjectCode: "SCI"}},
			}
			Expect(repo.CreateClaimedAppointment(app)).To(Succeed())

			Expect(repo.DeleteClaimedAppointment(reg.ID, app.ID)).To(Succeed())

			var duties []registration.ClaimedDuty
			Expect(db.Find(&duties).Error).To(Succeed())
			Expect(duties).To(BeEmpty())
		})

		It("should not delete an appointment of another registration", func() {
			reg := submittedRegistration(1)
			other := submittedRegistration(2)
			app := &registration.ClaimedAppointment{RegistrationID: other.ID, SchoolID: 1, JobTitleCode: "CT"}
			Expect(repo.CreateClaimedAppointment(app)).To(Succeed())

			err := repo.DeleteClaimedAppointment(reg.ID, app.ID)
			Expect(err).To(Equal(internal.ErrRegistrationNotFound))
		})
	})

	Describe("Delete", func() {
		It("should remove the registration with its claim records, documents and log", func() {
			reg := submittedRegistration(1)
			Expect(db.Create(&registration.EducationRecord{RegistrationID: reg.ID, InstitutionName: "CMI"}).Error).To(Succeed())
			app := &registration.ClaimedAppointment{
				RegistrationID: reg.ID,
				SchoolID:       1,
				JobTitleCode:   "CT",
				Duties:         []registration.ClaimedDuty{{SubjectCode: "MAT"}},
			}
			Expect(repo.CreateClaimedAppointment(app)).To(Succeed())
			Expect(db.Create(&registration.Document{RegistrationID: &reg.ID, StorageKey: "k", OriginalFilename: "doc.pdf"}).Error).To(Succeed())
			Expect(repo.AppendChangeLog(&registration.ChangeLog{RegistrationID: reg.ID, FieldName: "status", ChangedAt: time.Now()})).To(Succeed())

			Expect(repo.Delete(reg.ID)).To(Succeed())

			_, err := repo.GetByID(reg.ID)
			Expect(err).To(Equal(internal.ErrRegistrationNotFound))

			var duties []registration.ClaimedDuty
			Expect(db.Find(&duties).Error).To(Succeed())
			Expect(duties).To(BeEmpty())
			var docs []registration.Document
			Expect(db.Find(&docs).Error).To(Succeed())
			Expect(docs).To(BeEmpty())
			var logs []registration.ChangeLog
			Expect(db.Find(&logs).Error).To(Succeed())
			Expect(logs).To(BeEmpty())
		})

		It("should return ErrRegistrationNotFound for a missing row", func() {
			Expect(repo.Delete(4242)).To(Equal(internal.ErrRegistrationNotFound))
		})
	})

	Describe("ChangeLogs", func() {
		It("should return entries oldest first", func() {
			reg := submittedRegistration(1)
			for _, note := range []string{"first", "second", "third"} {
				Expect(repo.AppendChangeLog(&registration.ChangeLog{
					RegistrationID: reg.ID,
					FieldName:      "status",
					Notes:          note,
					ChangedAt:      time.Now(),
				})).To(Succeed())
			}

			logs, err := repo.ChangeLogs(reg.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(HaveLen(3))
			Expect(logs[0].Notes).To(Equal("first"))
			Expect(logs[2].Notes).To(Equal("third"))
		})
	})
})
