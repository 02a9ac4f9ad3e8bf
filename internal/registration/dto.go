package registration

import (
	"time"
)

// CreateRegistrationDTO opens a new draft. ForUserID is only honored for
// callers who manage pending users; everyone else registers themselves.
type CreateRegistrationDTO struct {
	ForUserID *int64 `json:"for_user_id,omitempty"`

	Title             string     `json:"title,omitempty" validate:"omitempty,oneof=Mr Mrs Miss Ms Dr"`
	FirstName         string     `json:"first_name,omitempty"`
	LastName          string     `json:"last_name,omitempty"`
	DateOfBirth       *time.Time `json:"date_of_birth,omitempty"`
	GenderCode        string     `json:"gender_code,omitempty"`
	PreferredSchoolID *int64     `json:"preferred_school_id,omitempty"`
	PreferredJobTitle string     `json:"preferred_job_title,omitempty"`
}

// UpdateRegistrationDTO edits a draft. Nil pointers leave fields alone.
type UpdateRegistrationDTO struct {
	Title              *string    `json:"title,omitempty" validate:"omitempty,oneof=Mr Mrs Miss Ms Dr"`
	FirstName          *string    `json:"first_name,omitempty"`
	LastName           *string    `json:"last_name,omitempty"`
	DateOfBirth        *time.Time `json:"date_of_birth,omitempty"`
	GenderCode         *string    `json:"gender_code,omitempty"`
	MaritalStatusCode  *string    `json:"marital_status_code,omitempty"`
	NationalityCode    *string    `json:"nationality_code,omitempty"`
	NationalIDNumber   *string    `json:"national_id_number,omitempty"`
	HomeIslandCode     *string    `json:"home_island_code,omitempty"`
	PhoneNumber        *string    `json:"phone_number,omitempty"`
	PhoneHome          *string    `json:"phone_home,omitempty"`
	ResidentialAddress *string    `json:"residential_address,omitempty"`
	NearbySchoolID     *int64     `json:"nearby_school_id,omitempty"`
	BusinessAddress    *string    `json:"business_address,omitempty"`

	TeacherPayrollNumber *string `json:"teacher_payroll_number,omitempty"`
	HighestQualification *string `json:"highest_qualification,omitempty"`
	YearsOfExperience    *int    `json:"years_of_experience,omitempty" validate:"omitempty,min=0,max=60"`

	PreferredSchoolID *int64  `json:"preferred_school_id,omitempty"`
	PreferredJobTitle *string `json:"preferred_job_title,omitempty"`
}

func (d UpdateRegistrationDTO) apply(r *Registration) {
	if d.Title != nil {
		r.Title = *d.Title
	}
	if d.FirstName != nil {
		r.FirstName = *d.FirstName
	}
	if d.LastName != nil {
		r.LastName = *d.LastName
	}
	if d.DateOfBirth != nil {
		r.DateOfBirth = d.DateOfBirth
	}
	if d.GenderCode != nil {
		r.GenderCode = *d.GenderCode
	}
	if d.MaritalStatusCode != nil {
		r.MaritalStatusCode = *d.MaritalStatusCode
	}
	if d.NationalityCode != nil {
		r.NationalityCode = *d.NationalityCode
	}
	if d.NationalIDNumber != nil {
		r.NationalIDNumber = *d.NationalIDNumber
	}
	if d.HomeIslandCode != nil {
		r.HomeIslandCode = *d.HomeIslandCode
	}
	if d.PhoneNumber != nil {
		r.PhoneNumber = *d.PhoneNumber
	}
	if d.PhoneHome != nil {
		r.PhoneHome = *d.PhoneHome
	}
	if d.ResidentialAddress != nil {
		r.ResidentialAddress = *d.ResidentialAddress
	}
	if d.NearbySchoolID != nil {
		r.NearbySchoolID = d.NearbySchoolID
	}
	if d.BusinessAddress != nil {
		r.BusinessAddress = *d.BusinessAddress
	}
	if d.TeacherPayrollNumber != nil {
		r.TeacherPayrollNumber = *d.TeacherPayrollNumber
	}
	if d.HighestQualification != nil {
		r.HighestQualification = *d.HighestQualification
	}
	if d.YearsOfExperience != nil {
		r.YearsOfExperience = d.YearsOfExperience
	}
	if d.PreferredSchoolID != nil {
		r.PreferredSchoolID = d.PreferredSchoolID
	}
	if d.PreferredJobTitle != nil {
		r.PreferredJobTitle = *d.PreferredJobTitle
	}
}

type EducationRecordDTO struct {
	InstitutionName    string `json:"institution_name" validate:"required"`
	QualificationCode  string `json:"qualification_code,omitempty"`
	ProgramName        string `json:"program_name,omitempty"`
	MajorSubjectCode   string `json:"major_subject_code,omitempty"`
	MinorSubjectCode   string `json:"minor_subject_code,omitempty"`
	CompletionYear     *int   `json:"completion_year,omitempty" validate:"omitempty,min=1950,max=2100"`
	Duration           *int   `json:"duration,omitempty" validate:"omitempty,min=1"`
	DurationUnit       string `json:"duration_unit,omitempty" validate:"omitempty,oneof=years months weeks"`
	Completed          bool   `json:"completed"`
	PercentageProgress *int   `json:"percentage_progress,omitempty" validate:"omitempty,min=0,max=100"`
	Comment            string `json:"comment,omitempty"`
}

type TrainingRecordDTO struct {
	ProviderInstitution string     `json:"provider_institution" validate:"required"`
	Title               string     `json:"title" validate:"required"`
	FocusCode           string     `json:"focus_code,omitempty"`
	FormatCode          string     `json:"format_code,omitempty"`
	CompletionYear      *int       `json:"completion_year,omitempty" validate:"omitempty,min=1950,max=2100"`
	Duration            *int       `json:"duration,omitempty" validate:"omitempty,min=1"`
	DurationUnit        string     `json:"duration_unit,omitempty" validate:"omitempty,oneof=years months weeks days hours"`
	EffectiveDate       *time.Time `json:"effective_date,omitempty"`
	ExpirationDate      *time.Time `json:"expiration_date,omitempty"`
}

type ClaimedDutyDTO struct {
	SubjectCode  string `json:"subject_code" validate:"required"`
	HoursPerWeek *int   `json:"hours_per_week,omitempty" validate:"omitempty,min=1,max=60"`
}

type ClaimedAppointmentDTO struct {
	SchoolID     int64            `json:"school_id" validate:"required"`
	JobTitleCode string           `json:"job_title_code" validate:"required"`
	StartDate    *time.Time       `json:"start_date,omitempty"`
	Duties       []ClaimedDutyDTO `json:"duties,omitempty" validate:"omitempty,dive"`
}

// ApproveDTO carries optional reviewer comments recorded with the
// approval.
type ApproveDTO struct {
	Comments string `json:"comments,omitempty"`
}

// RejectDTO carries the mandatory reviewer comments.
type RejectDTO struct {
	Comments string `json:"comments" validate:"required"`
}

// ReviewViewDTO is the reviewer's working view of one registration.
type ReviewViewDTO struct {
	Registration *Registration            `json:"registration"`
	Checklist    []DocumentChecklistEntry `json:"checklist"`
	ChangeLog    []ChangeLog              `json:"change_log"`
}
