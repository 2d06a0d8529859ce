package admin

import (
	"context"
	"errors"
	"strings"

	"rentawheel/internal/events"
	"rentawheel/internal/session"
	apperrors "rentawheel/pkg/errors"
	"rentawheel/pkg/logger"
	"rentawheel/pkg/model"
	"rentawheel/pkg/validation"
	"rentawheel/pkg/wiretime"

	"golang.org/x/sync/errgroup"
)

var (
	ErrCarNotServiceable = errors.New("car is already in maintenance or retired")
	ErrUnknownCar        = errors.New("car not in fleet")
)

type RentalAPI interface {
	FleetCars(ctx context.Context) ([]model.Vehicle, error)
	RecentBookings(ctx context.Context) ([]model.Booking, error)
	LogMaintenance(ctx context.Context, entry model.MaintenanceLog) error
}

type ReferenceProvider interface {
	Load(ctx context.Context) (*model.ReferenceData, error)
}

// MaintenanceRequest is the maintenance form. Dates use the form layout.
type MaintenanceRequest struct {
	CarID       int64         `json:"car_id" validate:"required,gt=0"`
	DateIn      string        `json:"date_in" validate:"required"`
	DateOut     string        `json:"date_out"`
	Description string        `json:"description" validate:"required,max=500"`
	Cost        model.Decimal `json:"cost" validate:"gte=0"`
}

type Overview struct {
	Cars     []model.Vehicle `json:"cars"`
	Bookings []model.Booking `json:"bookings"`
}

type Service struct {
	api       RentalAPI
	reference ReferenceProvider
	validate  *validation.Validator
	events    events.Publisher
	log       *logger.Logger
}

func NewService(api RentalAPI, reference ReferenceProvider, validate *validation.Validator, publisher events.Publisher, log *logger.Logger) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		api:       api,
		reference: reference,
		validate:  validate,
		events:    publisher,
		log:       log,
	}
}

// Fleet lists every car. Branch names missing from the API response are
// filled from the reference catalog when it is available.
func (s *Service) Fleet(ctx context.Context) ([]model.Vehicle, error) {
	cars, err := s.api.FleetCars(ctx)
	if err != nil {
		s.log.Error("Failed to load fleet", "error", err)
		return nil, err
	}
	if cars == nil {
		return []model.Vehicle{}, nil
	}

	ref, err := s.reference.Load(ctx)
	if err != nil {
		s.log.Warn("Reference data unavailable, branch names not filled", "error", err)
		return cars, nil
	}
	for i := range cars {
		if cars[i].BranchName != "" {
			continue
		}
		if b, ok := ref.Branch(cars[i].BranchID); ok {
			cars[i].BranchName = b.Name
		}
	}
	return cars, nil
}

func (s *Service) RecentBookings(ctx context.Context) ([]model.Booking, error) {
	bookings, err := s.api.RecentBookings(ctx)
	if err != nil {
		s.log.Error("Failed to load recent bookings", "error", err)
		return nil, err
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	return bookings, nil
}

// Overview loads the fleet and recent bookings concurrently.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.Cars, err = s.Fleet(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.Bookings, err = s.RecentBookings(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// LogMaintenance records a maintenance entry on behalf of the logged-in
// employee. Only cars that are not already in maintenance or retired are
// accepted.
func (s *Service) LogMaintenance(ctx context.Context, sess *session.Session, req MaintenanceRequest) (*model.MaintenanceLog, error) {
	req.DateIn = strings.TrimSpace(req.DateIn)
	req.DateOut = strings.TrimSpace(req.DateOut)
	req.Description = strings.TrimSpace(req.Description)

	entry, err := s.buildEntry(sess, req)
	if err != nil {
		return nil, err
	}

	cars, err := s.api.FleetCars(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkServiceable(cars, req.CarID); err != nil {
		return nil, err
	}

	if err := s.api.LogMaintenance(ctx, *entry); err != nil {
		s.log.Warn("Maintenance log rejected", "car_id", req.CarID, "error", err)
		return nil, err
	}
	s.log.Info("Maintenance logged", "car_id", req.CarID, "emp_id", entry.EmployeeID)

	if err := s.events.Publish(ctx, events.Event{
		Type:       events.MaintenanceLogged,
		SessionID:  sess.ID,
		EmployeeID: entry.EmployeeID,
		CarID:      entry.CarID,
		Amount:     entry.Cost,
	}); err != nil {
		s.log.Error("Failed to publish maintenance event", "car_id", entry.CarID, "error", err)
	}
	return entry, nil
}

func (s *Service) buildEntry(sess *session.Session, req MaintenanceRequest) (*model.MaintenanceLog, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validation.AsAppError("Please correct the highlighted fields", err)
	}

	var errs validation.ValidationErrors
	dateIn, err := wiretime.FromInput(req.DateIn)
	if err != nil {
		errs = append(errs, validation.ValidationError{Field: "date_in", Message: err.Error()})
	}
	var dateOut *string
	if req.DateOut != "" {
		out, err := wiretime.FromInput(req.DateOut)
		switch {
		case err != nil:
			errs = append(errs, validation.ValidationError{Field: "date_out", Message: err.Error()})
		case len(errs) == 0 && out.Before(dateIn):
			errs = append(errs, validation.ValidationError{Field: "date_out", Message: "must not be before date_in"})
		default:
			wire := wiretime.Format(out)
			dateOut = &wire
		}
	}
	if len(errs) > 0 {
		return nil, validation.AsAppError("Please correct the highlighted fields", errs)
	}

	return &model.MaintenanceLog{
		CarID:       req.CarID,
		EmployeeID:  sess.EmployeeID(),
		DateIn:      wiretime.Format(dateIn),
		DateOut:     dateOut,
		Description: req.Description,
		Cost:        req.Cost.Round(),
	}, nil
}

func checkServiceable(cars []model.Vehicle, carID int64) error {
	for _, c := range cars {
		if c.ID != carID {
			continue
		}
		if !c.Serviceable() {
			appErr := apperrors.Conflict("Car is already in maintenance or retired")
			appErr.Err = ErrCarNotServiceable
			return appErr
		}
		return nil
	}
	appErr := apperrors.NotFound("Car")
	appErr.Err = ErrUnknownCar
	return appErr
}
