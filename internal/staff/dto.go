package staff

import (
	"time"
)

// UpdateStaffDTO carries admin-editable profile fields. Nil pointers mean
// "leave unchanged".
type UpdateStaffDTO struct {
	StaffType            *string    `json:"staff_type,omitempty" validate:"omitempty,oneof=teaching non_teaching"`
	Title                *string    `json:"title,omitempty" validate:"omitempty,oneof=Mr Mrs Miss Ms Dr"`
	FirstName            *string    `json:"first_name,omitempty"`
	LastName             *string    `json:"last_name,omitempty"`
	DateOfBirth          *time.Time `json:"date_of_birth,omitempty"`
	GenderCode           *string    `json:"gender_code,omitempty"`
	MaritalStatusCode    *string    `json:"marital_status_code,omitempty"`
	NationalityCode      *string    `json:"nationality_code,omitempty"`
	NationalIDNumber     *string    `json:"national_id_number,omitempty"`
	HomeIslandCode       *string    `json:"home_island_code,omitempty"`
	PhoneNumber          *string    `json:"phone_number,omitempty"`
	PhoneHome            *string    `json:"phone_home,omitempty"`
	ResidentialAddress   *string    `json:"residential_address,omitempty"`
	BusinessAddress      *string    `json:"business_address,omitempty"`
	TeacherPayrollNumber *string    `json:"teacher_payroll_number,omitempty"`
	HighestQualification *string    `json:"highest_qualification,omitempty"`
	YearsOfExperience    *int       `json:"years_of_experience,omitempty" validate:"omitempty,min=0,max=60"`
	RegistrationStatus   *string    `json:"registration_status,omitempty" validate:"omitempty,oneof=valid expired"`
}

func (d UpdateStaffDTO) apply(s *SchoolStaff) {
	if d.StaffType != nil {
		s.StaffType = *d.StaffType
	}
	if d.Title != nil {
		s.Title = *d.Title
	}
	if d.FirstName != nil {
		s.FirstName = *d.FirstName
	}
	if d.LastName != nil {
		s.LastName = *d.LastName
	}
	if d.DateOfBirth != nil {
		s.DateOfBirth = d.DateOfBirth
	}
	if d.GenderCode != nil {
		s.GenderCode = *d.GenderCode
	}
	if d.MaritalStatusCode != nil {
		s.MaritalStatusCode = *d.MaritalStatusCode
	}
	if d.NationalityCode != nil {
		s.NationalityCode = *d.NationalityCode
	}
	if d.NationalIDNumber != nil {
		s.NationalIDNumber = *d.NationalIDNumber
	}
	if d.HomeIslandCode != nil {
		s.HomeIslandCode = *d.HomeIslandCode
	}
	if d.PhoneNumber != nil {
		s.PhoneNumber = *d.PhoneNumber
	}
	if d.PhoneHome != nil {
		s.PhoneHome = *d.PhoneHome
	}
	if d.ResidentialAddress != nil {
		s.ResidentialAddress = *d.ResidentialAddress
	}
	if d.BusinessAddress != nil {
		s.BusinessAddress = *d.BusinessAddress
	}
	if d.TeacherPayrollNumber != nil {
		s.TeacherPayrollNumber = *d.TeacherPayrollNumber
	}
	if d.HighestQualification != nil {
		s.HighestQualification = *d.HighestQualification
	}
	if d.YearsOfExperience != nil {
		s.YearsOfExperience = d.YearsOfExperience
	}
	if d.RegistrationStatus != nil {
		s.RegistrationStatus = d.RegistrationStatus
	}
}

// AssignmentDTO is used for both create and update of school assignments.
type AssignmentDTO struct {
	SchoolID     int64      `json:"school_id" validate:"required"`
	JobTitleCode string     `json:"job_title_code" validate:"required"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
}
