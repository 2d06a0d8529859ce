package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"rentawheel/internal/bookings/service"
	"rentawheel/internal/session"
	apperrors "rentawheel/pkg/errors"
	httputil "rentawheel/pkg/http"
	"rentawheel/pkg/logger"
	"rentawheel/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// Authenticator wraps handlers that need a logged-in session.
type Authenticator interface {
	Require(role session.Role, next httprouter.Handle) httprouter.Handle
}

type CancelRequest struct {
	Confirm bool `json:"confirm"`
}

type BookingHandler struct {
	service service.BookingService
	auth    Authenticator
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, auth Authenticator, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *BookingHandler) Dashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, _ := session.FromContext(r.Context())

	dashboard, err := h.service.Dashboard(r.Context(), s)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, dashboard)
}

func (h *BookingHandler) StartEdit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, _ := session.FromContext(r.Context())
	id, ok := bookingID(w, ps)
	if !ok {
		return
	}

	edit, err := h.service.StartEdit(r.Context(), s, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, edit)
}

func (h *BookingHandler) GetEdit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, _ := session.FromContext(r.Context())
	if s.Edit == nil {
		httputil.WriteError(w, apperrors.NotFound("Edit"))
		return
	}
	httputil.WriteSuccess(w, s.Edit)
}

func (h *BookingHandler) UpdateForm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, _ := session.FromContext(r.Context())

	var form model.EditForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	edit, err := h.service.UpdateForm(r.Context(), s, form)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, edit)
}

func (h *BookingHandler) DiscardEdit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, _ := session.FromContext(r.Context())

	if err := h.service.DiscardEdit(r.Context(), s); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *BookingHandler) Save(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, _ := session.FromContext(r.Context())

	dashboard, err := h.service.Save(r.Context(), s)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, dashboard)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, _ := session.FromContext(r.Context())
	id, ok := bookingID(w, ps)
	if !ok {
		return
	}

	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	dashboard, err := h.service.Cancel(r.Context(), s, id, req.Confirm)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, dashboard)
}

func bookingID(w http.ResponseWriter, ps httprouter.Params) (int64, bool) {
	raw := ps.ByName("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, apperrors.InvalidInput(fmt.Sprintf("invalid booking id: %s", raw)))
		return 0, false
	}
	return id, true
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	customer := func(next httprouter.Handle) httprouter.Handle {
		return h.auth.Require(session.RoleCustomer, next)
	}
	router.GET("/api/bookings", customer(h.Dashboard))
	router.POST("/api/bookings/:id/edit", customer(h.StartEdit))
	router.POST("/api/bookings/:id/cancel", customer(h.Cancel))
	router.GET("/api/booking-edit", customer(h.GetEdit))
	router.PUT("/api/booking-edit", customer(h.UpdateForm))
	router.DELETE("/api/booking-edit", customer(h.DiscardEdit))
	router.POST("/api/booking-edit/save", customer(h.Save))
}
