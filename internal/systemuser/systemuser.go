package systemuser

import (
	"time"
)

// SystemUser is the ministry-level profile, one-to-one with a user and
// mutually exclusive with a school staff profile. The unique user_id
// index backs that exclusivity at the storage level.
type SystemUser struct {
	ID     int64 `json:"id" gorm:"primaryKey"`
	UserID int64 `json:"user_id" gorm:"column:user_id;uniqueIndex;not null"`

	Organization  string `json:"organization,omitempty" gorm:"column:organization"`
	PositionTitle string `json:"position_title,omitempty" gorm:"column:position_title"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	CreatedBy int64     `json:"created_by" gorm:"column:created_by"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
	UpdatedBy int64     `json:"updated_by" gorm:"column:updated_by"`
}

func (SystemUser) TableName() string { return "system_users" }
