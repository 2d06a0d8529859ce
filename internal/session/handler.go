package session

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	apperrors "rentawheel/pkg/errors"
	httputil "rentawheel/pkg/http"
	"rentawheel/pkg/logger"
	"rentawheel/pkg/middleware"
	"rentawheel/pkg/model"
	"rentawheel/pkg/sanitizer"
	"rentawheel/pkg/validation"

	"github.com/julienschmidt/httprouter"
)

// AccountAPI is the part of the rental API used for accounts.
type AccountAPI interface {
	Login(ctx context.Context, email string) (model.Customer, error)
	EmployeeLogin(ctx context.Context, email string) (model.Employee, error)
	Signup(ctx context.Context, req model.SignupRequest) (int64, error)
}

type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Role      Role            `json:"role"`
	Customer  *model.Customer `json:"customer,omitempty"`
	Employee  *model.Employee `json:"employee,omitempty"`
}

type SignupResponse struct {
	CustomerID int64 `json:"cust_id"`
}

type Handler struct {
	api       AccountAPI
	manager   *Manager
	validator *validation.Validator
	log       *logger.Logger
}

func NewHandler(api AccountAPI, manager *Manager, validator *validation.Validator, log *logger.Logger) *Handler {
	return &Handler{
		api:       api,
		manager:   manager,
		validator: validator,
		log:       log,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req, ok := h.decodeLogin(w, r)
	if !ok {
		return
	}

	customer, err := h.api.Login(r.Context(), req.Email)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	s, token, err := h.manager.StartCustomer(r.Context(), customer)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, LoginResponse{
		Token:     token,
		ExpiresAt: s.ExpiresAt,
		Role:      s.Role,
		Customer:  s.Customer,
	})
}

func (h *Handler) EmployeeLogin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req, ok := h.decodeLogin(w, r)
	if !ok {
		return
	}

	employee, err := h.api.EmployeeLogin(r.Context(), req.Email)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	s, token, err := h.manager.StartEmployee(r.Context(), employee)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, LoginResponse{
		Token:     token,
		ExpiresAt: s.ExpiresAt,
		Role:      s.Role,
		Employee:  s.Employee,
	})
}

func (h *Handler) decodeLogin(w http.ResponseWriter, r *http.Request) (model.LoginRequest, bool) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return req, false
	}
	req.Email = sanitizer.NormalizeEmail(req.Email)
	if err := h.validator.Struct(req); err != nil {
		httputil.WriteError(w, validation.AsAppError("Please enter a valid email address", err))
		return req, false
	}
	return req, true
}

// Signup creates a customer account. The contact number is normalised to
// E.164 before validation.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	req.FirstName = sanitizer.NormalizeName(req.FirstName)
	req.LastName = sanitizer.NormalizeName(req.LastName)
	req.Email = sanitizer.NormalizeEmail(req.Email)
	req.LicenseNo = sanitizer.NormalizeLicense(req.LicenseNo)
	if phone := sanitizer.NormalizePhone(req.ContactNo); phone != "" {
		req.ContactNo = phone
	}

	if err := h.validator.Struct(req); err != nil {
		h.log.Warn("Signup validation failed", "request_id", middleware.GetRequestID(r.Context()), "error", err)
		httputil.WriteError(w, validation.AsAppError("Please correct the highlighted fields", err))
		return
	}

	customerID, err := h.api.Signup(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.log.Info("Customer signed up", "cust_id", customerID)
	httputil.WriteCreated(w, SignupResponse{CustomerID: customerID})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, _ := FromContext(r.Context())
	if err := h.manager.End(r.Context(), s.ID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, _ := FromContext(r.Context())
	httputil.WriteSuccess(w, s)
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/login", h.Login)
	router.POST("/api/signup", h.Signup)
	router.POST("/api/admin/login", h.EmployeeLogin)
	router.POST("/api/logout", h.manager.Require("", h.Logout))
	router.GET("/api/me", h.manager.Require("", h.Me))
}
