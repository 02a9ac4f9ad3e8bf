package staff

import (
	"time"
)

const (
	TeachingStaff    = "teaching"
	NonTeachingStaff = "non_teaching"

	RegistrationValid   = "valid"
	RegistrationExpired = "expired"
)

// SchoolStaff is the school-level profile, one-to-one with a user. The
// user_id uniqueness is the storage-level guard against the double-profile
// race.
type SchoolStaff struct {
	ID     int64 `json:"id" gorm:"primaryKey"`
	UserID int64 `json:"user_id" gorm:"column:user_id;uniqueIndex;not null"`

	StaffType string `json:"staff_type" gorm:"column:staff_type;not null;default:'non_teaching'"`

	// Personal information, populated from a registration on approval or
	// entered by an admin for directly assigned staff.
	Title              string     `json:"title,omitempty" gorm:"column:title"`
	FirstName          string     `json:"first_name" gorm:"column:first_name"`
	LastName           string     `json:"last_name" gorm:"column:last_name"`
	DateOfBirth        *time.Time `json:"date_of_birth,omitempty" gorm:"column:date_of_birth"`
	GenderCode         string     `json:"gender_code,omitempty" gorm:"column:gender_code"`
	MaritalStatusCode  string     `json:"marital_status_code,omitempty" gorm:"column:marital_status_code"`
	NationalityCode    string     `json:"nationality_code,omitempty" gorm:"column:nationality_code"`
	NationalIDNumber   string     `json:"national_id_number,omitempty" gorm:"column:national_id_number"`
	HomeIslandCode     string     `json:"home_island_code,omitempty" gorm:"column:home_island_code"`
	PhoneNumber        string     `json:"phone_number,omitempty" gorm:"column:phone_number"`
	PhoneHome          string     `json:"phone_home,omitempty" gorm:"column:phone_home"`
	ResidentialAddress string     `json:"residential_address,omitempty" gorm:"column:residential_address"`
	NearbySchoolID     *int64     `json:"nearby_school_id,omitempty" gorm:"column:nearby_school_id"`
	BusinessAddress    string     `json:"business_address,omitempty" gorm:"column:business_address"`

	// Professional information.
	TeacherPayrollNumber string `json:"teacher_payroll_number,omitempty" gorm:"column:teacher_payroll_number"`
	HighestQualification string `json:"highest_qualification,omitempty" gorm:"column:highest_qualification"`
	YearsOfExperience    *int   `json:"years_of_experience,omitempty" gorm:"column:years_of_experience"`

	// Registration status, teaching staff only.
	RegistrationStatus     *string    `json:"registration_status,omitempty" gorm:"column:registration_status"`
	RegistrationValidUntil *time.Time `json:"registration_valid_until,omitempty" gorm:"column:registration_valid_until"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	CreatedBy int64     `json:"created_by" gorm:"column:created_by"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
	UpdatedBy int64     `json:"updated_by" gorm:"column:updated_by"`

	Assignments []Assignment `json:"assignments,omitempty" gorm:"foreignKey:SchoolStaffID"`
}

func (SchoolStaff) TableName() string { return "school_staff" }

func (s *SchoolStaff) IsTeaching() bool { return s.StaffType == TeachingStaff }

// Assignment links a staff member to one school with a job title and an
// optional date window. An assignment is active while end_date is null.
// The composite uniqueness is enforced by the database so concurrent
// duplicate creation fails at commit, not merely at validation.
type Assignment struct {
	ID            int64      `json:"id" gorm:"primaryKey"`
	SchoolStaffID int64      `json:"school_staff_id" gorm:"column:school_staff_id;not null;uniqueIndex:ux_assignment_window"`
	SchoolID      int64      `json:"school_id" gorm:"column:school_id;not null;uniqueIndex:ux_assignment_window"`
	JobTitleCode  string     `json:"job_title_code" gorm:"column:job_title_code;not null"`
	StartDate     *time.Time `json:"start_date,omitempty" gorm:"column:start_date;uniqueIndex:ux_assignment_window"`
	EndDate       *time.Time `json:"end_date,omitempty" gorm:"column:end_date;uniqueIndex:ux_assignment_window"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	CreatedBy int64     `json:"created_by" gorm:"column:created_by"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
	UpdatedBy int64     `json:"updated_by" gorm:"column:updated_by"`
}

func (Assignment) TableName() string { return "school_staff_assignments" }

func (a *Assignment) IsActive() bool { return a.EndDate == nil }

// EducationRecord is the audit copy of a claimed education record, created
// at approval time and never edited by the applicant afterward.
type EducationRecord struct {
	ID            int64 `json:"id" gorm:"primaryKey"`
	SchoolStaffID int64 `json:"school_staff_id" gorm:"column:school_staff_id;not null"`

	InstitutionName    string `json:"institution_name" gorm:"column:institution_name;not null"`
	QualificationCode  string `json:"qualification_code,omitempty" gorm:"column:qualification_code"`
	ProgramName        string `json:"program_name,omitempty" gorm:"column:program_name"`
	MajorSubjectCode   string `json:"major_subject_code,omitempty" gorm:"column:major_subject_code"`
	MinorSubjectCode   string `json:"minor_subject_code,omitempty" gorm:"column:minor_subject_code"`
	CompletionYear     *int   `json:"completion_year,omitempty" gorm:"column:completion_year"`
	Duration           *int   `json:"duration,omitempty" gorm:"column:duration"`
	DurationUnit       string `json:"duration_unit,omitempty" gorm:"column:duration_unit"`
	Completed          bool   `json:"completed" gorm:"column:completed"`
	PercentageProgress *int   `json:"percentage_progress,omitempty" gorm:"column:percentage_progress"`
	Comment            string `json:"comment,omitempty" gorm:"column:comment"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	CreatedBy int64     `json:"created_by" gorm:"column:created_by"`
}

func (EducationRecord) TableName() string { return "staff_education_records" }

// TrainingRecord is the audit copy of a claimed training record.
type TrainingRecord struct {
	ID            int64 `json:"id" gorm:"primaryKey"`
	SchoolStaffID int64 `json:"school_staff_id" gorm:"column:school_staff_id;not null"`

	ProviderInstitution string     `json:"provider_institution" gorm:"column:provider_institution;not null"`
	Title               string     `json:"title" gorm:"column:title;not null"`
	FocusCode           string     `json:"focus_code,omitempty" gorm:"column:focus_code"`
	FormatCode          string     `json:"format_code,omitempty" gorm:"column:format_code"`
	CompletionYear      *int       `json:"completion_year,omitempty" gorm:"column:completion_year"`
	Duration            *int       `json:"duration,omitempty" gorm:"column:duration"`
	DurationUnit        string     `json:"duration_unit,omitempty" gorm:"column:duration_unit"`
	EffectiveDate       *time.Time `json:"effective_date,omitempty" gorm:"column:effective_date"`
	ExpirationDate      *time.Time `json:"expiration_date,omitempty" gorm:"column:expiration_date"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	CreatedBy int64     `json:"created_by" gorm:"column:created_by"`
}

func (TrainingRecord) TableName() string { return "staff_training_records" }
