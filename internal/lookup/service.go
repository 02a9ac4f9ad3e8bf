package lookup

import (
	"log/slog"
)

type RepositoryAPI interface {
	ByType(lookupType string) ([]*Lookup, error)
	Schools() ([]*School, error)
	GetSchool(id int64) (*School, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// ByType returns the active rows of one code list.
func (s *Service) ByType(lookupType string) ([]*Lookup, error) {
	rows, err := s.repo.ByType(lookupType)
	if err != nil {
		s.logger.Error("failed to load lookups", "error", err, "type", lookupType)
		return nil, err
	}

	active := make([]*Lookup, 0, len(rows))
	for _, row := range rows {
		if row.IsActive {
			active = append(active, row)
		}
	}
	return active, nil
}

// Schools returns the active school register.
func (s *Service) Schools() ([]*School, error) {
	schools, err := s.repo.Schools()
	if err != nil {
		s.logger.Error("failed to load schools", "error", err)
		return nil, err
	}

	active := make([]*School, 0, len(schools))
	for _, school := range schools {
		if school.IsActive {
			active = append(active, school)
		}
	}
	return active, nil
}

// IsValidCode reports whether a code exists and is active in a type.
func (s *Service) IsValidCode(lookupType, code string) bool {
	rows, err := s.ByType(lookupType)
	if err != nil {
		s.logger.Warn("error checking lookup code", "type", lookupType, "code", code, "error", err)
		return false
	}
	for _, row := range rows {
		if row.Code == code {
			return true
		}
	}
	return false
}
