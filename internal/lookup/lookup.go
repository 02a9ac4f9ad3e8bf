package lookup

import (
	"time"
)

// Lookup types served by the code list endpoints. Codes within a type
// are unique and referenced across staff and registration records.
const (
	TypeGender        = "gender"
	TypeMaritalStatus = "marital_status"
	TypeNationality   = "nationality"
	TypeHomeIsland    = "home_island"
	TypeJobTitle      = "job_title"
	TypeQualification = "qualification"
	TypeSubject       = "subject"
	TypePDFocus       = "pd_focus"
	TypePDFormat      = "pd_format"
	TypeDocLinkType   = "doc_link_type"
	TypeInstitution   = "institution"
)

// KnownTypes lists the types the handler accepts in the URL.
var KnownTypes = map[string]bool{
	TypeGender:        true,
	TypeMaritalStatus: true,
	TypeNationality:   true,
	TypeHomeIsland:    true,
	TypeJobTitle:      true,
	TypeQualification: true,
	TypeSubject:       true,
	TypePDFocus:       true,
	TypePDFormat:      true,
	TypeDocLinkType:   true,
	TypeInstitution:   true,
}

// Lookup is one code/label row in a typed code list. Inactive rows stay
// in the table so historical records keep resolving, but new input no
// longer offers them.
type Lookup struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Type      string    `json:"type" gorm:"column:lookup_type;not null;uniqueIndex:ux_lookup_code"`
	Code      string    `json:"code" gorm:"column:code;not null;uniqueIndex:ux_lookup_code"`
	Label     string    `json:"label" gorm:"column:label;not null"`
	SortOrder int       `json:"sort_order" gorm:"column:sort_order;default:0"`
	IsActive  bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Lookup) TableName() string { return "lookups" }

// School is the school register. Schools are a first-class list rather
// than a code list because assignments reference them by id.
type School struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"column:name;not null"`
	IslandCode string    `json:"island_code,omitempty" gorm:"column:island_code"`
	IsActive   bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (School) TableName() string { return "schools" }
