package pending

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	internal "github.com/PacificEMIS/pacific-emis-teacher-registration/internal"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/auth"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/core/common/validation"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/identity"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/staff"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/systemuser"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/transport"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	ListPending(caller *identity.User, search string, limit, offset int) ([]*PendingUser, error)
	AssignAsStaff(caller *identity.User, userID int64, dto AssignStaffDTO) (*staff.SchoolStaff, error)
	AssignAsSystemUser(caller *identity.User, userID int64, dto AssignSystemUserDTO) (*systemuser.SystemUser, error)
	DeleteUser(caller *identity.User, userID int64) error
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

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := h.Service.ListPending(caller, r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"pending_users": users})
}

func (h *Handler) AssignAsStaff(w http.ResponseWriter, r *http.Request) {
	caller, userID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	var dto AssignStaffDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.writeServiceError(w, err)
		return
	}

	profile, err := h.Service.AssignAsStaff(caller, userID, dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, profile)
}

func (h *Handler) AssignAsSystemUser(w http.ResponseWriter, r *http.Request) {
	caller, userID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	var dto AssignSystemUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.Service.AssignAsSystemUser(caller, userID, dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, profile)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, userID, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteUser(caller, userID); err != nil {
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
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return nil, 0, false
	}
	return caller, userID, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		h.WriteError(w, appErr.StatusCode, appErr.GetDetailedMessage())
		return
	}
	h.Logger.Error("pending handler error", "error", err)
	h.WriteError(w, http.StatusInternalServerError, "internal server error")
}
