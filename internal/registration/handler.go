package registration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	internal "github.com/PacificEMIS/pacific-emis-teacher-registration/internal"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/auth"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/core/common/validation"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/identity"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/staff"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/transport"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/pkg/logger"
	"github.com/go-chi/chi"
)

// maxDocumentSize caps a single uploaded document at 20 MiB.
const maxDocumentSize = 20 << 20

type ServiceAPI interface {
	CreateRegistration(caller *identity.User, dto CreateRegistrationDTO) (*Registration, error)
	GetRegistration(caller *identity.User, id int64) (*Registration, error)
	ListMine(caller *identity.User) ([]*Registration, error)
	ListRegistrations(caller *identity.User, status, search string, limit, offset int) ([]*Registration, error)
	UpdateRegistration(caller *identity.User, id int64, dto UpdateRegistrationDTO) (*Registration, error)
	DeleteRegistration(ctx context.Context, caller *identity.User, id int64) error
	Submit(ctx context.Context, caller *identity.User, id int64) (*Registration, error)
	OpenReview(caller *identity.User, id int64) (*ReviewViewDTO, error)
	StartReview(caller *identity.User, id int64) (*Registration, error)
	Approve(ctx context.Context, caller *identity.User, id int64, dto ApproveDTO) (*staff.SchoolStaff, error)
	Reject(ctx context.Context, caller *identity.User, id int64, dto RejectDTO) (*Registration, error)
	ChangeLogHistory(caller *identity.User, id int64) ([]ChangeLog, error)

	AddEducationRecord(caller *identity.User, id int64, dto EducationRecordDTO) (*EducationRecord, error)
	DeleteEducationRecord(caller *identity.User, id, recordID int64) error
	AddTrainingRecord(caller *identity.User, id int64, dto TrainingRecordDTO) (*TrainingRecord, error)
	DeleteTrainingRecord(caller *identity.User, id, recordID int64) error
	AddClaimedAppointment(caller *identity.User, id int64, dto ClaimedAppointmentDTO) (*ClaimedAppointment, error)
	DeleteClaimedAppointment(caller *identity.User, id, appointmentID int64) error

	UploadDocument(ctx context.Context, caller *identity.User, id int64, content io.Reader, filename, contentType string, size int64, linkTypeCode, title, description string) (*Document, error)
	DeleteDocument(ctx context.Context, caller *identity.User, id, documentID int64) error
	DocumentContent(ctx context.Context, caller *identity.User, id, documentID int64) (*Document, io.ReadCloser, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var dto CreateRegistrationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.writeServiceError(w, err)
		return
	}

	reg, err := h.Service.CreateRegistration(caller, dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, reg)
}

func (h *Handler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	list, err := h.Service.ListRegistrations(caller, r.URL.Query().Get("status"), r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"registrations": list})
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	list, err := h.Service.ListMine(caller)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"registrations": list})
}

func (h *Handler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	caller, regID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	reg, err := h.Service.GetRegistration(caller, regID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) UpdateRegistration(w http.ResponseWriter, r *http.Request) {
	caller, regID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	var dto UpdateRegistrationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.writeServiceError(w, err)
		return
	}

	reg, err := h.Service.UpdateRegistration(caller, regID, dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	caller, regID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	reg, err := h.Service.Submit(r.Context(), caller, regID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, reg)
}

// OpenReview is the reviewer's entry point. Opening a submitted or
// rejected registration moves it into under_review as a side effect.
func (h *Handler) OpenReview(w http.ResponseWriter, r *http.Request) {
	caller, regID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	view, err := h.Service.OpenReview(caller, regID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) StartReview(w http.ResponseWriter, r *http.Request) {
	caller, regID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	reg, err := h.Service.StartReview(caller, regID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	caller, regID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	// Comments are optional on approval, so an empty body is fine.
	var dto ApproveDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil && err != io.EOF {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.Service.Approve(r.Context(), caller, regID, dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"staff_profile": profile})
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	caller, regID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	var dto RejectDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.writeServiceError(w, err)
		return
	}

	reg, err := h.Service.Reject(r.Context(), caller, regID, dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	caller, regID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteRegistration(r.Context(), caller, regID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ChangeLog(w http.ResponseWriter, r *http.Request) {
	caller, regID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	logs, err := h.Service.ChangeLogHistory(caller, regID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"change_log": logs})
}

func (h *Handler) AddEducationRecord(w http.ResponseWriter, r *http.Request) {
	caller, regID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	var dto EducationRecordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.writeServiceError(w, err)
		return
	}

	rec, err := h.Service.AddEducationRecord(caller, regID, dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) DeleteEducationRecord(w http.ResponseWriter, r *http.Request) {
	caller, regID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}
	recordID, err := h.pathID(r, "rid")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	if err := h.Service.DeleteEducationRecord(caller, regID, recordID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddTrainingRecord(w http.ResponseWriter, r *http.Request) {
	caller, regID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	var dto TrainingRecordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.writeServiceError(w, err)
		return
	}

	rec, err := h.Service.AddTrainingRecord(caller, regID, dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) DeleteTrainingRecord(w http.ResponseWriter, r *http.Request) {
	caller, regID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}
	recordID, err := h.pathID(r, "rid")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	if err := h.Service.DeleteTrainingRecord(caller, regID, recordID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddClaimedAppointment(w http.ResponseWriter, r *http.Request) {
	caller, regID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	var dto ClaimedAppointmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.writeServiceError(w, err)
		return
	}

	app, err := h.Service.AddClaimedAppointment(caller, regID, dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, app)
}

func (h *Handler) DeleteClaimedAppointment(w http.ResponseWriter, r *http.Request) {
	caller, regID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}
	appointmentID, err := h.pathID(r, "aid")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}

	if err := h.Service.DeleteClaimedAppointment(caller, regID, appointmentID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	caller, regID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc, err := h.Service.UploadDocument(
		r.Context(), caller, regID,
		file, header.Filename, contentType, header.Size,
		r.FormValue("link_type_code"),
		r.FormValue("title"),
		r.FormValue("description"),
	)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, doc)
}

func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	caller, regID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}
	documentID, err := h.pathID(r, "did")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, content, err := h.Service.DocumentContent(r.Context(), caller, regID, documentID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.OriginalFilename+`"`)
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, content); err != nil {
		h.Logger.Error("failed to stream document", "error", err, "document_id", documentID)
	}
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	caller, regID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}
	documentID, err := h.pathID(r, "did")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	if err := h.Service.DeleteDocument(r.Context(), caller, regID, documentID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) callerAndID(w http.ResponseWriter, r *http.Request) (*identity.User, int64, bool) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing user context")
		return nil, 0, false
	}
	regID, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid registration id")
		return nil, 0, false
	}
	return caller, regID, true
}

func (h *Handler) pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		h.WriteError(w, appErr.StatusCode, appErr.GetDetailedMessage())
		return
	}
	h.Logger.Error("registration handler error", "error", err)
	h.WriteError(w, http.StatusInternalServerError, "internal server error")
}
