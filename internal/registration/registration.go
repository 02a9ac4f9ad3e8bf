package registration

import (
	"strings"
	"time"
)

// Registration lifecycle statuses. Approved is terminal; rejected may
// re-enter review.
const (
	StatusDraft       = "draft"
	StatusSubmitted   = "submitted"
	StatusUnderReview = "under_review"
	StatusApproved    = "approved"
	StatusRejected    = "rejected"
)

// Statuses that count as an in-flight registration for the pending-user
// reconciler.
var ActiveStatuses = []string{StatusDraft, StatusSubmitted, StatusUnderReview, StatusRejected}

// Registration is one teacher-registration application. A user may own
// several over time (renewals, rejected attempts); at most one is ever
// in flight.
type Registration struct {
	ID     int64  `json:"id" gorm:"primaryKey"`
	UserID int64  `json:"user_id" gorm:"column:user_id;not null;index"`
	Status string `json:"status" gorm:"column:status;not null;default:'draft'"`

	// Personal information claimed by the applicant.
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

	// School preference, initial registrations only.
	PreferredSchoolID    *int64 `json:"preferred_school_id,omitempty" gorm:"column:preferred_school_id"`
	PreferredJobTitle    string `json:"preferred_job_title,omitempty" gorm:"column:preferred_job_title"`

	// Review metadata.
	SubmittedAt            *time.Time `json:"submitted_at,omitempty" gorm:"column:submitted_at"`
	ReviewedByID           *int64     `json:"reviewed_by_id,omitempty" gorm:"column:reviewed_by_id"`
	ReviewedAt             *time.Time `json:"reviewed_at,omitempty" gorm:"column:reviewed_at"`
	ReviewerComments       string     `json:"reviewer_comments,omitempty" gorm:"column:reviewer_comments"`
	ApprovedStaffProfileID *int64     `json:"approved_staff_profile_id,omitempty" gorm:"column:approved_staff_profile_id"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	CreatedBy int64     `json:"created_by" gorm:"column:created_by"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
	UpdatedBy int64     `json:"updated_by" gorm:"column:updated_by"`

	EducationRecords    []EducationRecord    `json:"education_records,omitempty" gorm:"foreignKey:RegistrationID"`
	TrainingRecords     []TrainingRecord     `json:"training_records,omitempty" gorm:"foreignKey:RegistrationID"`
	ClaimedAppointments []ClaimedAppointment `json:"claimed_appointments,omitempty" gorm:"foreignKey:RegistrationID"`
	Documents           []Document           `json:"documents,omitempty" gorm:"foreignKey:RegistrationID"`
}

func (Registration) TableName() string { return "teacher_registrations" }

// IsEditable: only a draft may be changed by its owner. Everything after
// submission is review territory.
func (r *Registration) IsEditable() bool { return r.Status == StatusDraft }

func (r *Registration) CanSubmit() bool { return r.Status == StatusDraft }

func (r *Registration) CanStartReview() bool {
	return r.Status == StatusSubmitted || r.Status == StatusRejected
}

// CanDecide guards both approve and reject.
func (r *Registration) CanDecide() bool {
	return r.Status == StatusSubmitted || r.Status == StatusUnderReview
}

// EducationRecord is an applicant claim, preserved on the registration
// after approval as the audit trail of what was originally stated.
type EducationRecord struct {
	ID             int64 `json:"id" gorm:"primaryKey"`
	RegistrationID int64 `json:"registration_id" gorm:"column:registration_id;not null;index"`

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
}

func (EducationRecord) TableName() string { return "registration_education_records" }

// TrainingRecord is an applicant claim for professional development.
type TrainingRecord struct {
	ID             int64 `json:"id" gorm:"primaryKey"`
	RegistrationID int64 `json:"registration_id" gorm:"column:registration_id;not null;index"`

	ProviderInstitution string     `json:"provider_institution" gorm:"column:provider_institution;not null"`
	Title               string     `json:"title" gorm:"column:title;not null"`
	FocusCode           string     `json:"focus_code,omitempty" gorm:"column:focus_code"`
	FormatCode          string     `json:"format_code,omitempty" gorm:"column:format_code"`
	CompletionYear      *int       `json:"completion_year,omitempty" gorm:"column:completion_year"`
	Duration            *int       `json:"duration,omitempty" gorm:"column:duration"`
	DurationUnit        string     `json:"duration_unit,omitempty" gorm:"column:duration_unit"`
	EffectiveDate       *time.Time `json:"effective_date,omitempty" gorm:"column:effective_date"`
	ExpirationDate      *time.Time `json:"expiration_date,omitempty" gorm:"column:expiration_date"`
}

func (TrainingRecord) TableName() string { return "registration_training_records" }

// ClaimedAppointment is the applicant's asserted current or intended
// school appointment. At approval it is derived into a live assignment,
// not audit-copied.
type ClaimedAppointment struct {
	ID             int64 `json:"id" gorm:"primaryKey"`
	RegistrationID int64 `json:"registration_id" gorm:"column:registration_id;not null;index"`

	SchoolID     int64      `json:"school_id" gorm:"column:school_id;not null"`
	JobTitleCode string     `json:"job_title_code" gorm:"column:job_title_code;not null"`
	StartDate    *time.Time `json:"start_date,omitempty" gorm:"column:start_date"`

	Duties []ClaimedDuty `json:"duties,omitempty" gorm:"foreignKey:ClaimedAppointmentID"`
}

func (ClaimedAppointment) TableName() string { return "registration_claimed_appointments" }

// ClaimedDuty is a subject/hours line under a claimed appointment.
type ClaimedDuty struct {
	ID                   int64  `json:"id" gorm:"primaryKey"`
	ClaimedAppointmentID int64  `json:"claimed_appointment_id" gorm:"column:claimed_appointment_id;not null;index"`
	SubjectCode          string `json:"subject_code" gorm:"column:subject_code;not null"`
	HoursPerWeek         *int   `json:"hours_per_week,omitempty" gorm:"column:hours_per_week"`
}

func (ClaimedDuty) TableName() string { return "registration_claimed_duties" }

// Document carries blob metadata. Exactly one of RegistrationID and
// SchoolStaffID is set at any time; the owner flips from registration to
// staff profile at approval.
type Document struct {
	ID             int64  `json:"id" gorm:"primaryKey"`
	RegistrationID *int64 `json:"registration_id,omitempty" gorm:"column:registration_id;index"`
	SchoolStaffID  *int64 `json:"school_staff_id,omitempty" gorm:"column:school_staff_id;index"`

	StorageKey       string     `json:"-" gorm:"column:storage_key;not null"`
	OriginalFilename string     `json:"original_filename" gorm:"column:original_filename;not null"`
	ByteSize         int64      `json:"byte_size" gorm:"column:byte_size"`
	LinkTypeCode     string     `json:"link_type_code,omitempty" gorm:"column:link_type_code"`
	Title            string     `json:"title,omitempty" gorm:"column:title"`
	Description      string     `json:"description,omitempty" gorm:"column:description"`
	DocumentDate     *time.Time `json:"document_date,omitempty" gorm:"column:document_date"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	CreatedBy int64     `json:"created_by" gorm:"column:created_by"`
}

func (Document) TableName() string { return "registration_documents" }

// ChangeLog is the append-only audit trail written alongside every state
// transition. Rows are never updated or deleted by application flow.
type ChangeLog struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	RegistrationID int64     `json:"registration_id" gorm:"column:registration_id;not null;index"`
	FieldName      string    `json:"field_name" gorm:"column:field_name;not null"`
	OldValue       string    `json:"old_value" gorm:"column:old_value"`
	NewValue       string    `json:"new_value" gorm:"column:new_value"`
	ChangedAt      time.Time `json:"changed_at" gorm:"column:changed_at"`
	ChangedByID    int64     `json:"changed_by_id" gorm:"column:changed_by_id"`
	Notes          string    `json:"notes,omitempty" gorm:"column:notes"`
}

func (ChangeLog) TableName() string { return "registration_change_logs" }

// RequiredDocument maps one checklist row to the link-type codes that
// satisfy it.
type RequiredDocument struct {
	Label string
	Codes []string
}

// RequiredDocuments is the reviewer checklist. Multiple codes per row
// allow alternatives (birth certificate or passport).
var RequiredDocuments = []RequiredDocument{
	{"Birth Certificate or Passport", []string{"BIRTHCERT", "PASSPORT"}},
	{"National ID Card", []string{"NATIONID"}},
	{"Academic Certificate", []string{"ACACERT"}},
	{"Academic Transcript", []string{"ACATRANS", "STATERES"}},
	{"Teaching Certificate", []string{"TEACHCERT", "TEACHINGQUAL"}},
	{"Teaching Transcript", []string{"TEACHTRANS"}},
	{"Training/Workshop Certificates", []string{"TRAINCERT"}},
	{"Police Clearance", []string{"POLCLEAR"}},
	{"Medical Clearance", []string{"MEDCLEAR"}},
	{"Passport Photo", []string{"PHOTO", "PORTRAIT"}},
	{"Church Character Reference", []string{"CHURCHREF"}},
	{"School Leader/Supervisor Reference", []string{"SCHREF"}},
	{"Registration Fee Receipt", []string{"REGRECEIPT"}},
}

// DocumentChecklistEntry reports one checklist row against the uploaded
// documents.
type DocumentChecklistEntry struct {
	Label    string `json:"label"`
	Uploaded bool   `json:"uploaded"`
}

// DocumentChecklist evaluates the required-documents checklist over the
// given documents.
func DocumentChecklist(documents []Document) []DocumentChecklistEntry {
	uploaded := make(map[string]struct{}, len(documents))
	for _, doc := range documents {
		if doc.LinkTypeCode != "" {
			uploaded[strings.ToUpper(doc.LinkTypeCode)] = struct{}{}
		}
	}

	result := make([]DocumentChecklistEntry, 0, len(RequiredDocuments))
	for _, req := range RequiredDocuments {
		entry := DocumentChecklistEntry{Label: req.Label}
		for _, code := range req.Codes {
			if _, ok := uploaded[strings.ToUpper(code)]; ok {
				entry.Uploaded = true
				break
			}
		}
		result = append(result, entry)
	}
	return result
}
