package lookup

import (
	"net/http"

	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	ByType(lookupType string) ([]*Lookup, error)
	Schools() ([]*School, error)
	IsValidCode(lookupType, code string) bool
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) GetLookups(w http.ResponseWriter, r *http.Request) {
	lookupType := chi.URLParam(r, "type")
	if !KnownTypes[lookupType] {
		h.WriteError(w, http.StatusNotFound, "unknown lookup type")
		return
	}

	rows, err := h.Service.ByType(lookupType)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, "failed to load lookups")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"lookups": rows})
}

func (h *Handler) GetSchools(w http.ResponseWriter, r *http.Request) {
	schools, err := h.Service.Schools()
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, "failed to load schools")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"schools": schools})
}
