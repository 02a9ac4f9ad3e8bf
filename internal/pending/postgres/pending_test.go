package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/registration"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/staff"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/systemuser"
)

func TestPendingRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PendingRepository Suite")
}

// Minimal users table for the reconciler query.
type testUser struct {
	ID          int64  `gorm:"primaryKey"`
	Username    string `gorm:"column:username"`
	Email       string `gorm:"column:email"`
	FirstName   string `gorm:"column:first_name"`
	LastName    string `gorm:"column:last_name"`
	IsSuperuser bool   `gorm:"column:is_superuser"`
	IsActive    bool   `gorm:"column:is_active"`
	CreatedAt   time.Time
}

func (testUser) TableName() string { return "users" }

var _ = Describe("PendingRepository", func() {
	var (
		db   *gorm.DB
		repo *PendingRepository
	)

	createUser := func(id int64, username string) *testUser {
		u := &testUser{
			ID:       id,
			Username: username,
			Email:    username + "@example.com",
			IsActive: true,
		}
		Expect(db.Create(u).Error).To(Succeed())
		return u
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&testUser{},
			&staff.SchoolStaff{},
			&systemuser.SystemUser{},
			&registration.Registration{},
		)
		Expect(err).NotTo(HaveOccurred())

		repo = NewPendingRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("should list an active account with no profile and no registration", func() {
		createUser(1, "newteacher")

		result, err := repo.ListPending("", 50, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(HaveLen(1))
		Expect(result[0].Username).To(Equal("newteacher"))
	})

	It("should exclude inactive accounts", func() {
		u := createUser(1, "gone")
		Expect(db.Model(u).Update("is_active", false).Error).To(Succeed())

		result, err := repo.ListPending("", 50, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(BeEmpty())
	})

	It("should exclude superusers", func() {
		u := createUser(1, "root")
		Expect(db.Model(u).Update("is_superuser", true).Error).To(Succeed())

		result, err := repo.ListPending("", 50, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(BeEmpty())
	})

	It("should exclude accounts holding a staff profile", func() {
		createUser(1, "placed")
		Expect(db.Create(&staff.SchoolStaff{UserID: 1, StaffType: staff.NonTeachingStaff}).Error).To(Succeed())

		result, err := repo.ListPending("", 50, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(BeEmpty())
	})

	It("should exclude accounts holding a system user profile", func() {
		createUser(1, "ministry")
		Expect(db.Create(&systemuser.SystemUser{UserID: 1}).Error).To(Succeed())

		result, err := repo.ListPending("", 50, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(BeEmpty())
	})

	It("should exclude accounts with a registration in flight, rejected included", func() {
		createUser(1, "applicant")
		reg := &registration.Registration{UserID: 1, Status: registration.StatusRejected}
		Expect(db.Create(reg).Error).To(Succeed())

		result, err := repo.ListPending("", 50, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(BeEmpty())
	})

	It("should list accounts whose only registration is approved", func() {
		createUser(1, "renewal")
		reg := &registration.Registration{UserID: 1, Status: registration.StatusApproved}
		Expect(db.Create(reg).Error).To(Succeed())
		Expect(db.Create(&staff.SchoolStaff{UserID: 1, StaffType: staff.TeachingStaff}).Error).To(Succeed())
		// The staff profile keeps them out; drop it to simulate a deleted
		// profile reverting the user to pending.
		Expect(db.Where("user_id = ?", 1).Delete(&staff.SchoolStaff{}).Error).To(Succeed())

		result, err := repo.ListPending("", 50, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(HaveLen(1))
	})

	It("should filter by search across name, email and username", func() {
		createUser(1, "kata")
		createUser(2, "other")

		result, err := repo.ListPending("kata", 50, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(HaveLen(1))
		Expect(result[0].ID).To(Equal(int64(1)))
	})
})
