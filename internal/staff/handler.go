package staff

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	internal "github.com/PacificEMIS/pacific-emis-teacher-registration/internal"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/auth"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/core/common/validation"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/identity"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/transport"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	GetStaff(caller *identity.User, staffID int64) (*SchoolStaff, error)
	ListStaff(caller *identity.User, staffType, search string, limit, offset int) ([]*SchoolStaff, error)
	UpdateStaff(caller *identity.User, staffID int64, dto UpdateStaffDTO) (*SchoolStaff, error)
	DeleteStaff(ctx context.Context, caller *identity.User, staffID int64) error
	CreateAssignment(caller *identity.User, staffID int64, dto AssignmentDTO) (*Assignment, error)
	UpdateAssignment(caller *identity.User, staffID, assignmentID int64, dto AssignmentDTO) (*Assignment, error)
	DeleteAssignment(caller *identity.User, staffID, assignmentID int64) error
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

func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	search := r.URL.Query().Get("search")
	staffType := r.URL.Query().Get("type")

	list, err := h.Service.ListStaff(caller, staffType, search, limit, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"staff": list})
}

func (h *Handler) GetStaff(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	staffID, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid staff id")
		return
	}

	profile, err := h.Service.GetStaff(caller, staffID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	staffID, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid staff id")
		return
	}

	var dto UpdateStaffDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.writeServiceError(w, err)
		return
	}

	profile, err := h.Service.UpdateStaff(caller, staffID, dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	staffID, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid staff id")
		return
	}

	if err := h.Service.DeleteStaff(r.Context(), caller, staffID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	staffID, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid staff id")
		return
	}

	var dto AssignmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.writeServiceError(w, err)
		return
	}

	assignment, err := h.Service.CreateAssignment(caller, staffID, dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, assignment)
}

func (h *Handler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	staffID, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid staff id")
		return
	}
	assignmentID, err := h.pathID(r, "aid")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}

	var dto AssignmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.writeServiceError(w, err)
		return
	}

	assignment, err := h.Service.UpdateAssignment(caller, staffID, assignmentID, dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, assignment)
}

func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	staffID, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid staff id")
		return
	}
	assignmentID, err := h.pathID(r, "aid")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}

	if err := h.Service.DeleteAssignment(caller, staffID, assignmentID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		h.WriteError(w, appErr.StatusCode, appErr.GetDetailedMessage())
		return
	}
	h.Logger.Error("staff handler error", "error", err)
	h.WriteError(w, http.StatusInternalServerError, "internal server error")
}
