package checkout

import (
	"context"
	"encoding/json"
	"net/http"

	"rentawheel/internal/session"
	apperrors "rentawheel/pkg/errors"
	httputil "rentawheel/pkg/http"
	"rentawheel/pkg/logger"
	"rentawheel/pkg/model"
	"rentawheel/pkg/sanitizer"
	"rentawheel/pkg/validation"
	"rentawheel/pkg/wiretime"

	"github.com/julienschmidt/httprouter"
)

// Sessions is the part of the session manager the checkout endpoints use.
type Sessions interface {
	Require(role session.Role, next httprouter.Handle) httprouter.Handle
	SaveCheckout(ctx context.Context, sessionID string, checkout *model.CheckoutSession) error
}

// View is what every checkout endpoint returns: the current state and, from
// Configure on, the quote for it.
type View struct {
	Checkout model.CheckoutSession `json:"checkout"`
	Quote    *model.Quote          `json:"quote,omitempty"`
}

type SelectVehicleRequest struct {
	CarID int64 `json:"car_id" validate:"required,gt=0"`
}

type Handler struct {
	registry  *Registry
	sessions  Sessions
	validator *validation.Validator
	log       *logger.Logger
}

func NewHandler(registry *Registry, sessions Sessions, validator *validation.Validator, log *logger.Logger) *Handler {
	return &Handler{
		registry:  registry,
		sessions:  sessions,
		validator: validator,
		log:       log,
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, m := h.machine(r)
	h.respond(w, r, s, m, m.Snapshot().Version, nil)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, m := h.machine(r)
	version := m.Snapshot().Version

	var req model.SearchRequest
	if !h.decode(w, r, &req) {
		return
	}
	criteria, err := toCriteria(req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.respond(w, r, s, m, version, m.Search(r.Context(), criteria))
}

func toCriteria(req model.SearchRequest) (model.SearchCriteria, error) {
	start, err := wiretime.FromInput(req.StartDatetime)
	if err != nil {
		return model.SearchCriteria{}, apperrors.Validation("Invalid start date", map[string]any{"start_datetime": err.Error()})
	}
	end, err := wiretime.FromInput(req.EndDatetime)
	if err != nil {
		return model.SearchCriteria{}, apperrors.Validation("Invalid end date", map[string]any{"end_datetime": err.Error()})
	}
	return model.SearchCriteria{
		PickupBranchID:  req.PickupBranchID,
		DropoffBranchID: req.DropoffBranchID,
		Start:           start,
		End:             end,
	}, nil
}

func (h *Handler) Back(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, m := h.machine(r)
	version := m.Snapshot().Version
	h.respond(w, r, s, m, version, m.Back())
}

func (h *Handler) SelectVehicle(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, m := h.machine(r)
	version := m.Snapshot().Version

	var req SelectVehicleRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respond(w, r, s, m, version, m.SelectVehicle(r.Context(), req.CarID))
}

func (h *Handler) Configure(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, m := h.machine(r)
	version := m.Snapshot().Version

	var req model.ConfigureRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respond(w, r, s, m, version, m.Configure(r.Context(), req.InsurancePolicyID, sanitizer.NormalizePromoCode(req.PromoCode)))
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, m := h.machine(r)
	version := m.Snapshot().Version
	_, err := m.Confirm(r.Context(), s.CustomerID())
	h.respond(w, r, s, m, version, err)
}

func (h *Handler) Pay(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, m := h.machine(r)
	version := m.Snapshot().Version
	_, err := m.Pay(r.Context())
	h.respond(w, r, s, m, version, err)
}

// Discard abandons the checkout and starts a fresh one.
func (h *Handler) Discard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, _ := session.FromContext(r.Context())
	fresh := h.registry.Reset(s.ID, s.Checkout).Snapshot()
	if err := h.sessions.SaveCheckout(r.Context(), s.ID, &fresh); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.log.Info("Checkout discarded", "session_id", s.ID)
	httputil.WriteNoContent(w)
}

func (h *Handler) machine(r *http.Request) (*session.Session, *Machine) {
	s, _ := session.FromContext(r.Context())
	return s, h.registry.Machine(s.ID, s.Checkout)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		httputil.WriteError(w, validation.AsAppError("Please correct the highlighted fields", err))
		return false
	}
	return true
}

// respond persists the machine state when the action changed it and writes
// either the action error or the current view. A rejected action changes
// nothing, so a request turned away while another is loading never saves.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, s *session.Session, m *Machine, version int64, actionErr error) {
	snapshot := m.Snapshot()
	if snapshot.Version > version {
		if err := h.sessions.SaveCheckout(r.Context(), s.ID, &snapshot); err != nil {
			h.log.Warn("Checkout state not persisted", "session_id", s.ID, "error", err)
		}
	}
	if actionErr != nil {
		httputil.WriteError(w, actionErr)
		return
	}

	view := View{Checkout: snapshot}
	if snapshot.SelectedVehicle != nil {
		quote, err := m.Quote(r.Context())
		if err != nil {
			h.log.Warn("Quote unavailable", "session_id", s.ID, "error", err)
		} else {
			view.Quote = &quote
		}
	}
	httputil.WriteSuccess(w, view)
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	customer := func(next httprouter.Handle) httprouter.Handle {
		return h.sessions.Require(session.RoleCustomer, next)
	}
	router.GET("/api/checkout", customer(h.Get))
	router.DELETE("/api/checkout", customer(h.Discard))
	router.POST("/api/checkout/search", customer(h.Search))
	router.POST("/api/checkout/back", customer(h.Back))
	router.POST("/api/checkout/vehicle", customer(h.SelectVehicle))
	router.PUT("/api/checkout/options", customer(h.Configure))
	router.POST("/api/checkout/confirm", customer(h.Confirm))
	router.POST("/api/checkout/pay", customer(h.Pay))
}
