package admin

import (
	"encoding/json"
	"net/http"

	"rentawheel/internal/session"
	apperrors "rentawheel/pkg/errors"
	httputil "rentawheel/pkg/http"
	"rentawheel/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type Authenticator interface {
	Require(role session.Role, next httprouter.Handle) httprouter.Handle
}

type Handler struct {
	service *Service
	auth    Authenticator
	log     *logger.Logger
}

func NewHandler(service *Service, auth Authenticator, log *logger.Logger) *Handler {
	return &Handler{service: service, auth: auth, log: log}
}

func (h *Handler) Cars(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cars, err := h.service.Fleet(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, cars)
}

func (h *Handler) Bookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bookings, err := h.service.RecentBookings(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, bookings)
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, overview)
}

func (h *Handler) LogMaintenance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, _ := session.FromContext(r.Context())

	var req MaintenanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Warn("Invalid maintenance request body", "error", err)
		httputil.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	entry, err := h.service.LogMaintenance(r.Context(), s, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, entry)
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	employee := func(next httprouter.Handle) httprouter.Handle {
		return h.auth.Require(session.RoleEmployee, next)
	}
	router.GET("/api/admin/overview", employee(h.Overview))
	router.GET("/api/admin/cars", employee(h.Cars))
	router.GET("/api/admin/bookings", employee(h.Bookings))
	router.POST("/api/admin/maintenance", employee(h.LogMaintenance))
}
