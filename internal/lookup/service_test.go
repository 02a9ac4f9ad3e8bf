package lookup_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/lookup"
)

func TestLookupService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "LookupService Suite")
}

type mockLookupRepository struct {
	rows    map[string][]*lookup.Lookup
	schools []*lookup.School
	err     error
}

func (m *mockLookupRepository) ByType(lookupType string) ([]*lookup.Lookup, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows[lookupType], nil
}

func (m *mockLookupRepository) Schools() ([]*lookup.School, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.schools, nil
}

func (m *mockLookupRepository) GetSchool(id int64) (*lookup.School, error) {
	for _, s := range m.schools {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, errors.New("not found")
}

var _ = Describe("LookupService", func() {
	var (
		svc  *lookup.Service
		repo *mockLookupRepository
	)

	BeforeEach(func() {
		repo = &mockLookupRepository{rows: map[string][]*lookup.Lookup{}}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc = lookup.NewService(repo, logger)
	})

	Describe("ByType", func() {
		It("should drop inactive rows", func() {
			repo.rows[lookup.TypeGender] = []*lookup.Lookup{
				{Code: "M", Label: "Male", IsActive: true},
				{Code: "X", Label: "Retired code", IsActive: false},
			}

			rows, err := svc.ByType(lookup.TypeGender)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].Code).To(Equal("M"))
		})

		It("should return an empty slice for an unseeded type", func() {
			rows, err := svc.ByType(lookup.TypeJobTitle)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(BeEmpty())
		})
	})

	Describe("Schools", func() {
		It("should drop inactive schools", func() {
			repo.schools = []*lookup.School{
				{ID: 1, Name: "Majuro Middle School", IsActive: true},
				{ID: 2, Name: "Closed School", IsActive: false},
			}

			schools, err := svc.Schools()
			Expect(err).NotTo(HaveOccurred())
			Expect(schools).To(HaveLen(1))
			Expect(schools[0].ID).To(Equal(int64(1)))
		})
	})

	Describe("IsValidCode", func() {
		BeforeEach(func() {
			repo.rows[lookup.TypeJobTitle] = []*lookup.Lookup{
				{Code: "CT", Label: "Classroom Teacher", IsActive: true},
				{Code: "OLD", Label: "Retired title", IsActive: false},
			}
		})

		It("should accept an active code", func() {
			Expect(svc.IsValidCode(lookup.TypeJobTitle, "CT")).To(BeTrue())
		})

		It("should reject an inactive code", func() {
			Expect(svc.IsValidCode(lookup.TypeJobTitle, "OLD")).To(BeFalse())
		})

		It("should reject an unknown code", func() {
			Expect(svc.IsValidCode(lookup.TypeJobTitle, "NOPE")).To(BeFalse())
		})

		It("should report false when the repository fails", func() {
			repo.err = errors.New("db down")
			Expect(svc.IsValidCode(lookup.TypeJobTitle, "CT")).To(BeFalse())
		})
	})
})
