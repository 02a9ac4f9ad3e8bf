package systemuser

// UpdateSystemUserDTO edits the ministry profile. Nil pointers leave
// fields alone.
type UpdateSystemUserDTO struct {
	Organization  *string `json:"organization,omitempty"`
	PositionTitle *string `json:"position_title,omitempty"`
}

func (d UpdateSystemUserDTO) apply(su *SystemUser) {
	if d.Organization != nil {
		su.Organization = *d.Organization
	}
	if d.PositionTitle != nil {
		su.PositionTitle = *d.PositionTitle
	}
}
