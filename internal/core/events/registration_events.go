package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRegistrationSubmitted = "registration.submitted"
	EventTypeRegistrationApproved  = "registration.approved"
	EventTypeRegistrationRejected  = "registration.rejected"
)

type RegistrationSubmittedEvent struct {
	BaseEvent
	RegistrationID int64  `json:"registration_id"`
	UserID         int64  `json:"user_id"`
	ApplicantName  string `json:"applicant_name"`
	ApplicantEmail string `json:"applicant_email"`
}

func NewRegistrationSubmittedEvent(registrationID, userID int64, applicantName, applicantEmail string) *RegistrationSubmittedEvent {
	return &RegistrationSubmittedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRegistrationSubmitted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"registration_id": registrationID,
				"user_id":         userID,
				"applicant_name":  applicantName,
				"applicant_email": applicantEmail,
			},
		},
		RegistrationID: registrationID,
		UserID:         userID,
		ApplicantName:  applicantName,
		ApplicantEmail: applicantEmail,
	}
}

type RegistrationApprovedEvent struct {
	BaseEvent
	RegistrationID int64  `json:"registration_id"`
	UserID         int64  `json:"user_id"`
	StaffProfileID int64  `json:"staff_profile_id"`
	ApplicantName  string `json:"applicant_name"`
	ApplicantEmail string `json:"applicant_email"`
}

func NewRegistrationApprovedEvent(registrationID, userID, staffProfileID int64, applicantName, applicantEmail string) *RegistrationApprovedEvent {
	return &RegistrationApprovedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRegistrationApproved,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"registration_id":  registrationID,
				"user_id":          userID,
				"staff_profile_id": staffProfileID,
				"applicant_name":   applicantName,
				"applicant_email":  applicantEmail,
			},
		},
		RegistrationID: registrationID,
		UserID:         userID,
		StaffProfileID: staffProfileID,
		ApplicantName:  applicantName,
		ApplicantEmail: applicantEmail,
	}
}

type RegistrationRejectedEvent struct {
	BaseEvent
	RegistrationID int64  `json:"registration_id"`
	UserID         int64  `json:"user_id"`
	ApplicantName  string `json:"applicant_name"`
	ApplicantEmail string `json:"applicant_email"`
	Comments       string `json:"comments"`
}

func NewRegistrationRejectedEvent(registrationID, userID int64, applicantName, applicantEmail, comments string) *RegistrationRejectedEvent {
	return &RegistrationRejectedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRegistrationRejected,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"registration_id": registrationID,
				"user_id":         userID,
				"applicant_name":  applicantName,
				"applicant_email": applicantEmail,
				"comments":        comments,
			},
		},
		RegistrationID: registrationID,
		UserID:         userID,
		ApplicantName:  applicantName,
		ApplicantEmail: applicantEmail,
		Comments:       comments,
	}
}
