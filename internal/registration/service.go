package registration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	internal "github.com/PacificEMIS/pacific-emis-teacher-registration/internal"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/core/events"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/identity"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/staff"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/storage"
)

// PermissionEvaluator is the slice of the auth evaluator this service
// needs.
type PermissionEvaluator interface {
	CanManagePendingUsers(u *identity.User) bool
}

// RepositoryAPI defines data access for registrations and their claim
// records. Approve is the single transaction that turns claims into a
// live staff profile.
type RepositoryAPI interface {
	Create(r *Registration) error
	GetByID(id int64) (*Registration, error)
	GetActiveByUserID(userID int64) (*Registration, error)
	ListByUserID(userID int64) ([]*Registration, error)
	List(status, search string, limit, offset int) ([]*Registration, error)
	Update(r *Registration) error
	Delete(id int64) error

	// UpdateStatusFrom applies updates only while the row is still in one
	// of the given statuses. Returns false when another writer got there
	// first.
	UpdateStatusFrom(id int64, from []string, updates map[string]interface{}) (bool, error)

	Approve(reg *Registration, reviewer *identity.User, comments string) (*staff.SchoolStaff, error)

	AppendChangeLog(entry *ChangeLog) error
	ChangeLogs(registrationID int64) ([]ChangeLog, error)

	CreateEducationRecord(rec *EducationRecord) error
	DeleteEducationRecord(registrationID, recordID int64) error
	CreateTrainingRecord(rec *TrainingRecord) error
	DeleteTrainingRecord(registrationID, recordID int64) error
	CreateClaimedAppointment(app *ClaimedAppointment) error
	DeleteClaimedAppointment(registrationID, appointmentID int64) error

	CreateDocument(doc *Document) error
	GetDocument(id int64) (*Document, error)
	DeleteDocument(id int64) error
	DocumentsForRegistration(registrationID int64) ([]Document, error)
}

// EventPublisher decouples the service from the bus implementation.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// TransitionRecorder counts status transitions for observability.
type TransitionRecorder interface {
	RecordTransition(from, to string)
}

// UserLookup resolves applicant accounts when an admin registers on
// someone's behalf and when notifications need an email address.
type UserLookup interface {
	GetByID(id int64) (*identity.User, error)
}

type Service struct {
	repo    RepositoryAPI
	perms   PermissionEvaluator
	users   UserLookup
	store   storage.Storage
	bus     EventPublisher
	metrics TransitionRecorder
	logger  *slog.Logger
}

func NewService(repo RepositoryAPI, perms PermissionEvaluator, users UserLookup, store storage.Storage, bus EventPublisher, metrics TransitionRecorder, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		perms:   perms,
		users:   users,
		store:   store,
		bus:     bus,
		metrics: metrics,
		logger:  logger,
	}
}

// CreateRegistration opens a draft for the caller, or for another user
// when an admin registers on their behalf.
func (s *Service) CreateRegistration(caller *identity.User, dto CreateRegistrationDTO) (*Registration, error) {
	ownerID := caller.ID
	note := "Registration created (self-registration)"

	if dto.ForUserID != nil && *dto.ForUserID != caller.ID {
		if !s.perms.CanManagePendingUsers(caller) {
			return nil, internal.ErrUnauthorizedAccess
		}
		target, err := s.users.GetByID(*dto.ForUserID)
		if err != nil {
			return nil, err
		}
		ownerID = target.ID
		note = fmt.Sprintf("Registration created by admin for %s %s", dto.FirstName, dto.LastName)
	}

	if existing, err := s.repo.GetActiveByUserID(ownerID); err == nil && existing != nil {
		return nil, internal.NewConflictError("user already has a registration in progress", internal.ErrCodeRegistrationActive)
	}

	now := time.Now()
	reg := &Registration{
		UserID:            ownerID,
		Status:            StatusDraft,
		Title:             dto.Title,
		FirstName:         dto.FirstName,
		LastName:          dto.LastName,
		DateOfBirth:       dto.DateOfBirth,
		GenderCode:        dto.GenderCode,
		PreferredSchoolID: dto.PreferredSchoolID,
		PreferredJobTitle: dto.PreferredJobTitle,
		CreatedAt:         now,
		CreatedBy:         caller.ID,
		UpdatedAt:         now,
		UpdatedBy:         caller.ID,
	}

	if err := s.repo.Create(reg); err != nil {
		s.logger.Error("failed to create registration", "error", err, "user_id", ownerID)
		return nil, err
	}

	s.appendLog(reg.ID, caller.ID, "status", "", StatusDraft, note)
	return reg, nil
}

// GetRegistration returns a registration visible to the caller: its
// owner, or anyone who manages pending users.
func (s *Service) GetRegistration(caller *identity.User, id int64) (*Registration, error) {
	reg, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if reg.UserID != caller.ID && !s.perms.CanManagePendingUsers(caller) {
		return nil, internal.ErrUnauthorizedAccess
	}
	return reg, nil
}

// ListMine returns the caller's registration history, newest first.
func (s *Service) ListMine(caller *identity.User) ([]*Registration, error) {
	return s.repo.ListByUserID(caller.ID)
}

// ListRegistrations is the review queue. Callers are gated at the route
// level; ordering puts actionable statuses first.
func (s *Service) ListRegistrations(caller *identity.User, status, search string, limit, offset int) ([]*Registration, error) {
	if !s.perms.CanManagePendingUsers(caller) {
		return nil, internal.ErrUnauthorizedAccess
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.List(status, search, limit, offset)
}

func (s *Service) UpdateRegistration(caller *identity.User, id int64, dto UpdateRegistrationDTO) (*Registration, error) {
	reg, err := s.ownedEditable(caller, id)
	if err != nil {
		return nil, err
	}

	dto.apply(reg)
	reg.UpdatedAt = time.Now()
	reg.UpdatedBy = caller.ID

	if err := s.repo.Update(reg); err != nil {
		s.logger.Error("failed to update registration", "error", err, "registration_id", id)
		return nil, err
	}
	return reg, nil
}

// Submit moves a draft into the review queue. First and last name are
// the minimum a reviewer needs to act on.
func (s *Service) Submit(ctx context.Context, caller *identity.User, id int64) (*Registration, error) {
	reg, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if reg.UserID != caller.ID {
		return nil, internal.ErrUnauthorizedAccess
	}
	if !reg.CanSubmit() {
		return nil, internal.ErrInvalidTransition
	}
	if strings.TrimSpace(reg.FirstName) == "" || strings.TrimSpace(reg.LastName) == "" {
		return nil, internal.NewValidationError("first and last name are required before submitting", internal.ErrCodeMissingName)
	}

	now := time.Now()
	ok, err := s.repo.UpdateStatusFrom(id, []string{StatusDraft}, map[string]interface{}{
		"status":       StatusSubmitted,
		"submitted_at": now,
		"updated_at":   now,
		"updated_by":   caller.ID,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, internal.ErrInvalidTransition
	}

	s.appendLog(id, caller.ID, "status", StatusDraft, StatusSubmitted, "Registration submitted")
	s.metrics.RecordTransition(StatusDraft, StatusSubmitted)
	s.bus.Publish(ctx, events.NewRegistrationSubmittedEvent(id, reg.UserID, reg.FirstName+" "+reg.LastName, caller.Email))

	return s.repo.GetByID(id)
}

// OpenReview returns the reviewer's view of a registration and starts
// the review on first open of a submitted or re-submittable rejected one.
func (s *Service) OpenReview(caller *identity.User, id int64) (*ReviewViewDTO, error) {
	if !s.perms.CanManagePendingUsers(caller) {
		return nil, internal.ErrUnauthorizedAccess
	}

	reg, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if reg.CanStartReview() {
		if reg, err = s.startReview(caller, reg); err != nil {
			return nil, err
		}
	}

	logs, err := s.repo.ChangeLogs(id)
	if err != nil {
		return nil, err
	}

	return &ReviewViewDTO{
		Registration: reg,
		Checklist:    DocumentChecklist(reg.Documents),
		ChangeLog:    logs,
	}, nil
}

// StartReview moves submitted or rejected into under_review.
func (s *Service) StartReview(caller *identity.User, id int64) (*Registration, error) {
	if !s.perms.CanManagePendingUsers(caller) {
		return nil, internal.ErrUnauthorizedAccess
	}
	reg, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !reg.CanStartReview() {
		return nil, internal.ErrInvalidTransition
	}
	return s.startReview(caller, reg)
}

func (s *Service) startReview(caller *identity.User, reg *Registration) (*Registration, error) {
	from := reg.Status
	note := "Review started"
	if from == StatusRejected {
		note = "Re-review started"
	}

	now := time.Now()
	ok, err := s.repo.UpdateStatusFrom(reg.ID, []string{StatusSubmitted, StatusRejected}, map[string]interface{}{
		"status":         StatusUnderReview,
		"reviewed_by_id": caller.ID,
		"updated_at":     now,
		"updated_by":     caller.ID,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, internal.ErrInvalidTransition
	}

	s.appendLog(reg.ID, caller.ID, "status", from, StatusUnderReview, note)
	s.metrics.RecordTransition(from, StatusUnderReview)
	return s.repo.GetByID(reg.ID)
}

// Approve runs the approval transaction: the registration flips to
// approved and a staff profile is materialized from its claims. A
// concurrent decision surfaces as a conflict, not a second profile.
func (s *Service) Approve(ctx context.Context, caller *identity.User, id int64, dto ApproveDTO) (*staff.SchoolStaff, error) {
	if !s.perms.CanManagePendingUsers(caller) {
		return nil, internal.ErrUnauthorizedAccess
	}

	reg, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !reg.CanDecide() {
		return nil, internal.ErrInvalidTransition
	}

	from := reg.Status
	profile, err := s.repo.Approve(reg, caller, dto.Comments)
	if err != nil {
		s.logger.Error("approval failed", "error", err, "registration_id", id, "reviewer_id", caller.ID)
		return nil, err
	}

	s.metrics.RecordTransition(from, StatusApproved)

	applicantEmail := ""
	if owner, lookupErr := s.users.GetByID(reg.UserID); lookupErr == nil {
		applicantEmail = owner.Email
	}
	s.bus.Publish(ctx, events.NewRegistrationApprovedEvent(id, reg.UserID, profile.ID, reg.FirstName+" "+reg.LastName, applicantEmail))

	s.logger.Info("registration approved",
		"registration_id", id,
		"staff_profile_id", profile.ID,
		"reviewer_id", caller.ID)
	return profile, nil
}

// Reject closes the review with mandatory comments. The registration may
// later re-enter review.
func (s *Service) Reject(ctx context.Context, caller *identity.User, id int64, dto RejectDTO) (*Registration, error) {
	if !s.perms.CanManagePendingUsers(caller) {
		return nil, internal.ErrUnauthorizedAccess
	}
	if strings.TrimSpace(dto.Comments) == "" {
		return nil, internal.NewValidationError("reviewer comments are required when rejecting", internal.ErrCodeMissingComments)
	}

	reg, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !reg.CanDecide() {
		return nil, internal.ErrInvalidTransition
	}

	from := reg.Status
	now := time.Now()
	ok, err := s.repo.UpdateStatusFrom(id, []string{StatusSubmitted, StatusUnderReview}, map[string]interface{}{
		"status":            StatusRejected,
		"reviewed_by_id":    caller.ID,
		"reviewed_at":       now,
		"reviewer_comments": dto.Comments,
		"updated_at":        now,
		"updated_by":        caller.ID,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, internal.ErrApprovalConflict
	}

	s.appendLog(id, caller.ID, "status", from, StatusRejected, "Rejected: "+truncate(dto.Comments, 100))
	s.metrics.RecordTransition(from, StatusRejected)

	applicantEmail := ""
	if owner, lookupErr := s.users.GetByID(reg.UserID); lookupErr == nil {
		applicantEmail = owner.Email
	}
	s.bus.Publish(ctx, events.NewRegistrationRejectedEvent(id, reg.UserID, reg.FirstName+" "+reg.LastName, applicantEmail, dto.Comments))

	return s.repo.GetByID(id)
}

// DeleteRegistration removes a registration with its claim records,
// change log and document blobs. Documents already moved to a staff
// profile at approval stay where they are.
func (s *Service) DeleteRegistration(ctx context.Context, caller *identity.User, id int64) error {
	if !s.perms.CanManagePendingUsers(caller) {
		return internal.ErrUnauthorizedAccess
	}

	reg, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	docs, err := s.repo.DocumentsForRegistration(id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete registration", "error", err, "registration_id", id)
		return err
	}

	for _, doc := range docs {
		if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
			s.logger.Error("failed to delete blob", "error", err, "key", doc.StorageKey)
		}
	}

	s.logger.Info("registration deleted",
		"registration_id", id,
		"user_id", reg.UserID,
		"deleted_by", caller.ID)
	return nil
}

// ChangeLogHistory returns the audit trail, visible to the owner and
// reviewers.
func (s *Service) ChangeLogHistory(caller *identity.User, id int64) ([]ChangeLog, error) {
	if _, err := s.GetRegistration(caller, id); err != nil {
		return nil, err
	}
	return s.repo.ChangeLogs(id)
}

func (s *Service) AddEducationRecord(caller *identity.User, id int64, dto EducationRecordDTO) (*EducationRecord, error) {
	if _, err := s.ownedEditable(caller, id); err != nil {
		return nil, err
	}
	rec := &EducationRecord{
		RegistrationID:     id,
		InstitutionName:    dto.InstitutionName,
		QualificationCode:  dto.QualificationCode,
		ProgramName:        dto.ProgramName,
		MajorSubjectCode:   dto.MajorSubjectCode,
		MinorSubjectCode:   dto.MinorSubjectCode,
		CompletionYear:     dto.CompletionYear,
		Duration:           dto.Duration,
		DurationUnit:       dto.DurationUnit,
		Completed:          dto.Completed,
		PercentageProgress: dto.PercentageProgress,
		Comment:            dto.Comment,
	}
	if err := s.repo.CreateEducationRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) DeleteEducationRecord(caller *identity.User, id, recordID int64) error {
	if _, err := s.ownedEditable(caller, id); err != nil {
		return err
	}
	return s.repo.DeleteEducationRecord(id, recordID)
}

func (s *Service) AddTrainingRecord(caller *identity.User, id int64, dto TrainingRecordDTO) (*TrainingRecord, error) {
	if _, err := s.ownedEditable(caller, id); err != nil {
		return nil, err
	}
	rec := &TrainingRecord{
		RegistrationID:      id,
		ProviderInstitution: dto.ProviderInstitution,
		Title:               dto.Title,
		FocusCode:           dto.FocusCode,
		FormatCode:          dto.FormatCode,
		CompletionYear:      dto.CompletionYear,
		Duration:            dto.Duration,
		DurationUnit:        dto.DurationUnit,
		EffectiveDate:       dto.EffectiveDate,
		ExpirationDate:      dto.ExpirationDate,
	}
	if err := s.repo.CreateTrainingRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) DeleteTrainingRecord(caller *identity.User, id, recordID int64) error {
	if _, err := s.ownedEditable(caller, id); err != nil {
		return err
	}
	return s.repo.DeleteTrainingRecord(id, recordID)
}

func (s *Service) AddClaimedAppointment(caller *identity.User, id int64, dto ClaimedAppointmentDTO) (*ClaimedAppointment, error) {
	if _, err := s.ownedEditable(caller, id); err != nil {
		return nil, err
	}
	app := &ClaimedAppointment{
		RegistrationID: id,
		SchoolID:       dto.SchoolID,
		JobTitleCode:   dto.JobTitleCode,
		StartDate:      dto.StartDate,
	}
	for _, duty := range dto.Duties {
		app.Duties = append(app.Duties, ClaimedDuty{
			SubjectCode:  duty.SubjectCode,
			HoursPerWeek: duty.HoursPerWeek,
		})
	}
	if err := s.repo.CreateClaimedAppointment(app); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *Service) DeleteClaimedAppointment(caller *identity.User, id, appointmentID int64) error {
	if _, err := s.ownedEditable(caller, id); err != nil {
		return err
	}
	return s.repo.DeleteClaimedAppointment(id, appointmentID)
}

// UploadDocument stores the blob then records its metadata against the
// registration.
func (s *Service) UploadDocument(ctx context.Context, caller *identity.User, id int64, content io.Reader, filename, contentType string, size int64, linkTypeCode, title, description string) (*Document, error) {
	reg, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if reg.UserID != caller.ID && !s.perms.CanManagePendingUsers(caller) {
		return nil, internal.ErrUnauthorizedAccess
	}
	if reg.Status == StatusApproved {
		return nil, internal.ErrNotEditable
	}

	key, err := s.store.Store(ctx, reg.UserID, filename, contentType, size, content)
	if err != nil {
		s.logger.Error("document upload failed", "error", err, "registration_id", id)
		return nil, internal.NewInternalError("failed to store document", err)
	}

	doc := &Document{
		RegistrationID:   &id,
		StorageKey:       key,
		OriginalFilename: filename,
		ByteSize:         size,
		LinkTypeCode:     strings.ToUpper(linkTypeCode),
		Title:            title,
		Description:      description,
		CreatedAt:        time.Now(),
		CreatedBy:        caller.ID,
	}
	if err := s.repo.CreateDocument(doc); err != nil {
		// Orphan cleanup keeps storage and metadata consistent.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Error("failed to clean up orphaned blob", "error", delErr, "key", key)
		}
		return nil, err
	}
	return doc, nil
}

func (s *Service) DeleteDocument(ctx context.Context, caller *identity.User, id, documentID int64) error {
	reg, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if reg.UserID != caller.ID && !s.perms.CanManagePendingUsers(caller) {
		return internal.ErrUnauthorizedAccess
	}
	if reg.Status == StatusApproved {
		return internal.ErrNotEditable
	}

	doc, err := s.repo.GetDocument(documentID)
	if err != nil {
		return err
	}
	if doc.RegistrationID == nil || *doc.RegistrationID != id {
		return internal.ErrDocumentNotFound
	}

	if err := s.repo.DeleteDocument(documentID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
		s.logger.Error("failed to delete blob", "error", err, "key", doc.StorageKey)
	}
	return nil
}

// DocumentContent streams a stored document back to an authorized caller.
func (s *Service) DocumentContent(ctx context.Context, caller *identity.User, id, documentID int64) (*Document, io.ReadCloser, error) {
	reg, err := s.repo.GetByID(id)
	if err != nil {
		return nil, nil, err
	}
	if reg.UserID != caller.ID && !s.perms.CanManagePendingUsers(caller) {
		return nil, nil, internal.ErrUnauthorizedAccess
	}

	doc, err := s.repo.GetDocument(documentID)
	if err != nil {
		return nil, nil, err
	}
	if doc.RegistrationID == nil || *doc.RegistrationID != id {
		return nil, nil, internal.ErrDocumentNotFound
	}

	rc, err := s.store.Retrieve(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, internal.NewInternalError("failed to retrieve document", err)
	}
	return doc, rc, nil
}

func (s *Service) ownedEditable(caller *identity.User, id int64) (*Registration, error) {
	reg, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if reg.UserID != caller.ID && !s.perms.CanManagePendingUsers(caller) {
		return nil, internal.ErrUnauthorizedAccess
	}
	if !reg.IsEditable() {
		return nil, internal.ErrNotEditable
	}
	return reg, nil
}

func (s *Service) appendLog(registrationID, changedBy int64, field, oldValue, newValue, note string) {
	entry := &ChangeLog{
		RegistrationID: registrationID,
		FieldName:      field,
		OldValue:       oldValue,
		NewValue:       newValue,
		ChangedAt:      time.Now(),
		ChangedByID:    changedBy,
		Notes:          note,
	}
	if err := s.repo.AppendChangeLog(entry); err != nil {
		s.logger.Error("failed to append change log", "error", err, "registration_id", registrationID)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
