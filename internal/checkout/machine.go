// Package checkout drives the multi-step booking flow for one console
// session: Search -> SelectVehicle -> Configure -> Pay -> Done.
//
// Each session owns one Machine. Actions are serialised: while a call to the
// rental API is in flight the machine is marked loading and any other action
// is rejected. Failed actions record a user-facing message in LastError and
// leave the step unchanged.
package checkout

import (
	"context"
	"strconv"
	"strings"
	"sync"

	checkouterrors "rentawheel/internal/checkout/errors"
	"rentawheel/internal/events"
	"rentawheel/internal/pricing"
	apperrors "rentawheel/pkg/errors"
	"rentawheel/pkg/logger"
	"rentawheel/pkg/model"
	"rentawheel/pkg/wiretime"

	"github.com/google/uuid"
)

// RentalAPI is the part of the rental API the checkout calls.
type RentalAPI interface {
	SearchCars(ctx context.Context, criteria model.SearchCriteria) ([]model.Vehicle, error)
	CreateBooking(ctx context.Context, req model.CreateBookingRequest, idempotencyKey string) (int64, error)
	SubmitPayment(ctx context.Context, req model.PaymentRequest, idempotencyKey string) (int64, error)
}

type ReferenceProvider interface {
	Load(ctx context.Context) (*model.ReferenceData, error)
}

type Deps struct {
	API       RentalAPI
	Reference ReferenceProvider
	Events    events.Publisher
	Log       *logger.Logger
}

var keyNamespace = uuid.MustParse("6f1c2b8e-4d0a-4c55-9a3e-2b7f0d9c1e42")

type Machine struct {
	mu        sync.Mutex
	sessionID string
	state     model.CheckoutSession
	retired   bool
	deps      Deps
}

func NewMachine(sessionID string, deps Deps) *Machine {
	if deps.Events == nil {
		deps.Events = events.NoopPublisher{}
	}
	if deps.Log == nil {
		deps.Log = logger.Discard()
	}
	return &Machine{
		sessionID: sessionID,
		state:     freshState(),
		deps:      deps,
	}
}

// RestoreMachine rebuilds a machine from a persisted snapshot. An in-flight
// action cannot survive a restart, so the loading flag is cleared. Snapshots
// that claim to be past Configure without a booking are discarded.
func RestoreMachine(sessionID string, snapshot model.CheckoutSession, deps Deps) *Machine {
	m := NewMachine(sessionID, deps)
	m.state = m.restoredState(snapshot)
	return m
}

// restoredState keeps the snapshot version even when the snapshot itself is
// discarded, so later saves still supersede it.
func (m *Machine) restoredState(snapshot model.CheckoutSession) model.CheckoutSession {
	fresh := freshState()
	fresh.Version = snapshot.Version
	if !snapshot.Step.Valid() || snapshot.ID == "" {
		return fresh
	}
	if snapshot.Step.AtLeast(model.StepPay) && snapshot.BookingID == 0 {
		m.deps.Log.Warn("Discarding checkout snapshot without booking", "session_id", m.sessionID, "step", snapshot.Step)
		return fresh
	}
	snapshot.Loading = false
	return copyState(snapshot)
}

// adopt takes over a snapshot saved by another process when it is newer
// than the local state. An action in flight here always wins.
func (m *Machine) adopt(snapshot model.CheckoutSession) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Loading || snapshot.Version <= m.state.Version {
		return false
	}
	m.state = m.restoredState(snapshot)
	return true
}

// retire makes every later action on the machine fail. An action already in
// flight still completes.
func (m *Machine) retire() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retired = true
}

func freshState() model.CheckoutSession {
	return model.CheckoutSession{
		ID:   uuid.NewString(),
		Step: model.StepSearch,
	}
}

func (m *Machine) Snapshot() model.CheckoutSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyState(m.state)
}

// Search queries availability. It starts over from the Search step, so any
// listed vehicles and selections are dropped even if the query then fails.
// Once a booking has been created a new search is rejected until payment
// completes.
func (m *Machine) Search(ctx context.Context, criteria model.SearchCriteria) error {
	snap, err := m.begin(func(s *model.CheckoutSession) error {
		if s.Step.AtLeast(model.StepPay) && s.Step != model.StepDone {
			return bookingExists()
		}
		if err := validateCriteria(criteria); err != nil {
			return err
		}
		if s.Step == model.StepDone {
			version := s.Version
			*s = freshState()
			s.Version = version
		}
		c := criteria
		s.Step = model.StepSearch
		s.Criteria = &c
		s.Vehicles = nil
		s.SelectedVehicle = nil
		s.InsuranceID = 0
		s.PromoCode = ""
		return nil
	})
	if err != nil {
		return err
	}

	vehicles, err := m.deps.API.SearchCars(ctx, *snap.Criteria)
	m.finish(err, func(s *model.CheckoutSession) {
		if vehicles == nil {
			vehicles = []model.Vehicle{}
		}
		s.Vehicles = vehicles
		s.Step = model.StepSelectVehicle
	})
	if err != nil {
		m.deps.Log.Warn("Availability search failed", "session_id", m.sessionID, "error", err)
		return err
	}
	m.deps.Log.Debug("Availability search completed", "session_id", m.sessionID, "count", len(vehicles))
	return nil
}

func validateCriteria(c model.SearchCriteria) error {
	details := map[string]any{}
	if c.PickupBranchID <= 0 {
		details["pickup_branch_id"] = "pickup branch is required"
	}
	if c.DropoffBranchID <= 0 {
		details["dropoff_branch_id"] = "dropoff branch is required"
	}
	if c.Start.IsZero() {
		details["start_datetime"] = "start date is required"
	}
	if c.End.IsZero() {
		details["end_datetime"] = "end date is required"
	}
	if len(details) > 0 {
		return apperrors.Validation("Please fill in all search fields", details)
	}
	if !c.End.After(c.Start) {
		appErr := apperrors.Validation("End date must be after start date", map[string]any{
			"end_datetime": checkouterrors.ErrInvalidRange.Error(),
		})
		appErr.Err = checkouterrors.ErrInvalidRange
		return appErr
	}
	return nil
}

// Back returns to the previous selection step. It is not available once a
// booking exists.
func (m *Machine) Back() error {
	return m.local(func(s *model.CheckoutSession) error {
		switch s.Step {
		case model.StepSelectVehicle:
			s.Step = model.StepSearch
			s.Vehicles = nil
			s.SelectedVehicle = nil
		case model.StepConfigure:
			s.Step = model.StepSelectVehicle
			s.SelectedVehicle = nil
			s.InsuranceID = 0
			s.PromoCode = ""
		case model.StepPay:
			return bookingExists()
		default:
			return invalidStep(s.Step)
		}
		return nil
	})
}

// SelectVehicle picks one of the listed vehicles and pre-selects the default
// insurance package when the catalog has one.
func (m *Machine) SelectVehicle(ctx context.Context, carID int64) error {
	var defaultInsurance int64
	if ref, err := m.deps.Reference.Load(ctx); err != nil {
		m.deps.Log.Warn("Reference data unavailable, no insurance pre-selected", "session_id", m.sessionID, "error", err)
	} else if policy, ok := ref.DefaultInsurance(); ok {
		defaultInsurance = policy.ID
	}

	return m.local(func(s *model.CheckoutSession) error {
		if s.Step != model.StepSelectVehicle {
			return invalidStep(s.Step)
		}
		for _, v := range s.Vehicles {
			if v.ID == carID {
				selected := v
				s.SelectedVehicle = &selected
				s.InsuranceID = defaultInsurance
				s.PromoCode = ""
				s.Step = model.StepConfigure
				return nil
			}
		}
		return wrap(checkouterrors.ErrVehicleNotListed, apperrors.InvalidInput("Please select a vehicle from the search results"))
	})
}

// Configure sets the insurance package and promo code. The promo code is not
// checked here; unknown codes simply do not discount the quote.
func (m *Machine) Configure(ctx context.Context, insuranceID int64, promoCode string) error {
	if insuranceID <= 0 {
		return m.local(func(*model.CheckoutSession) error { return insuranceRequired() })
	}
	ref, err := m.deps.Reference.Load(ctx)
	if err != nil {
		return m.local(func(*model.CheckoutSession) error { return err })
	}
	_, known := ref.InsuranceByID(insuranceID)

	return m.local(func(s *model.CheckoutSession) error {
		if s.Step != model.StepConfigure {
			return invalidStep(s.Step)
		}
		if !known {
			return unknownInsurance()
		}
		s.InsuranceID = insuranceID
		s.PromoCode = strings.TrimSpace(promoCode)
		return nil
	})
}

// Quote prices the current selection. It is always recomputed from state.
func (m *Machine) Quote(ctx context.Context) (model.Quote, error) {
	snap := m.Snapshot()
	if snap.SelectedVehicle == nil || snap.Criteria == nil {
		return model.Quote{}, invalidStep(snap.Step)
	}
	ref, err := m.deps.Reference.Load(ctx)
	if err != nil {
		return model.Quote{}, err
	}
	return quoteFor(snap, ref), nil
}

func quoteFor(s model.CheckoutSession, ref *model.ReferenceData) model.Quote {
	return pricing.Compute(s.SelectedVehicle.DailyRate, s.Criteria.Start, s.Criteria.End, s.InsuranceID, s.PromoCode, ref)
}

// Confirm creates the booking and moves to Pay. The quoted total becomes the
// amount charged at payment.
func (m *Machine) Confirm(ctx context.Context, customerID int64) (int64, error) {
	snap, err := m.begin(func(s *model.CheckoutSession) error {
		if s.Step != model.StepConfigure || s.SelectedVehicle == nil || s.Criteria == nil {
			return invalidStep(s.Step)
		}
		if s.InsuranceID == 0 {
			return insuranceRequired()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	bookingID, quote, err := m.createBooking(ctx, snap, customerID)
	m.finish(err, func(s *model.CheckoutSession) {
		s.BookingID = bookingID
		s.Amount = quote.DiscountedTotal
		s.Step = model.StepPay
	})
	if err != nil {
		m.deps.Log.Warn("Booking creation failed", "session_id", m.sessionID, "checkout_id", snap.ID, "error", err)
		return 0, err
	}

	m.deps.Log.Info("Booking created",
		"session_id", m.sessionID,
		"checkout_id", snap.ID,
		"booking_id", bookingID,
		"amount", quote.DiscountedTotal,
	)
	m.publish(ctx, events.Event{
		Type:       events.BookingCreated,
		CustomerID: customerID,
		BookingID:  bookingID,
		CarID:      snap.SelectedVehicle.ID,
		Amount:     quote.DiscountedTotal,
	})
	return bookingID, nil
}

func (m *Machine) createBooking(ctx context.Context, snap model.CheckoutSession, customerID int64) (int64, model.Quote, error) {
	ref, err := m.deps.Reference.Load(ctx)
	if err != nil {
		return 0, model.Quote{}, err
	}
	if _, ok := ref.InsuranceByID(snap.InsuranceID); !ok {
		return 0, model.Quote{}, unknownInsurance()
	}
	quote := quoteFor(snap, ref)

	v := snap.SelectedVehicle
	req := model.CreateBookingRequest{
		CustomerID:        customerID,
		CarID:             v.ID,
		CarMake:           v.Make,
		CarModel:          v.Model,
		Year:              v.Year,
		PickupBranchID:    snap.Criteria.PickupBranchID,
		DropoffBranchID:   snap.Criteria.DropoffBranchID,
		StartDatetime:     wiretime.Format(snap.Criteria.Start),
		EndDatetime:       wiretime.Format(snap.Criteria.End),
		InsurancePolicyID: snap.InsuranceID,
		PromoCode:         model.OptionalCode(snap.PromoCode),
	}
	key := idempotencyKey("booking", snap.ID, strconv.FormatInt(customerID, 10), strconv.FormatInt(v.ID, 10),
		req.StartDatetime, req.EndDatetime, strconv.FormatInt(snap.InsuranceID, 10), snap.PromoCode)

	bookingID, err := m.deps.API.CreateBooking(ctx, req, key)
	if err != nil {
		return 0, model.Quote{}, err
	}
	return bookingID, quote, nil
}

// Pay submits a card payment for the booking created at Confirm. A failed
// payment stays at Pay and may be resubmitted; the idempotency key is stable
// per booking.
func (m *Machine) Pay(ctx context.Context) (int64, error) {
	snap, err := m.begin(func(s *model.CheckoutSession) error {
		if s.BookingID == 0 {
			return wrap(checkouterrors.ErrNoBooking, apperrors.Conflict("There is no booking to pay for"))
		}
		if s.Step != model.StepPay {
			return invalidStep(s.Step)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	req := model.PaymentRequest{
		BookingID:   snap.BookingID,
		Amount:      snap.Amount,
		PaymentMode: model.PaymentModeCard,
	}
	key := idempotencyKey("payment", snap.ID, strconv.FormatInt(snap.BookingID, 10))

	paymentID, err := m.deps.API.SubmitPayment(ctx, req, key)
	m.finish(err, func(s *model.CheckoutSession) {
		s.PaymentID = paymentID
		s.Step = model.StepDone
	})
	if err != nil {
		m.deps.Log.Warn("Payment failed", "session_id", m.sessionID, "booking_id", snap.BookingID, "error", err)
		return 0, err
	}

	m.deps.Log.Info("Payment submitted",
		"session_id", m.sessionID,
		"booking_id", snap.BookingID,
		"payment_id", paymentID,
		"amount", snap.Amount,
	)
	m.publish(ctx, events.Event{
		Type:      events.PaymentSubmitted,
		BookingID: snap.BookingID,
		PaymentID: paymentID,
		Amount:    snap.Amount,
	})
	return paymentID, nil
}

// begin claims the machine for an action that calls the rental API. check
// runs under the lock and may reject the action or prepare state; on success
// the machine is marked loading and a copy of the state is returned.
func (m *Machine) begin(check func(s *model.CheckoutSession) error) (model.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.available(); err != nil {
		return model.CheckoutSession{}, err
	}
	m.state.Version++
	if err := check(&m.state); err != nil {
		m.state.LastError = apperrors.AsAppError(err).Message
		return model.CheckoutSession{}, err
	}
	m.state.Loading = true
	m.state.LastError = ""
	return copyState(m.state), nil
}

// finish releases the machine. apply runs only when the call succeeded.
func (m *Machine) finish(callErr error, apply func(s *model.CheckoutSession)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Loading = false
	m.state.Version++
	if callErr != nil {
		m.state.LastError = apperrors.AsAppError(callErr).Message
		return
	}
	apply(&m.state)
}

// local runs an action that needs no remote call.
func (m *Machine) local(apply func(s *model.CheckoutSession) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.available(); err != nil {
		return err
	}
	m.state.Version++
	if err := apply(&m.state); err != nil {
		m.state.LastError = apperrors.AsAppError(err).Message
		return err
	}
	m.state.LastError = ""
	return nil
}

// available reports why no action may start. Rejections leave the state
// untouched. Callers hold m.mu.
func (m *Machine) available() error {
	if m.retired {
		return wrap(checkouterrors.ErrDiscarded, apperrors.Conflict("This checkout was discarded. Please start a new search."))
	}
	if m.state.Loading {
		return inProgress()
	}
	return nil
}

func (m *Machine) publish(ctx context.Context, event events.Event) {
	event.SessionID = m.sessionID
	if err := m.deps.Events.Publish(ctx, event); err != nil {
		m.deps.Log.Error("Failed to publish checkout event", "type", event.Type, "booking_id", event.BookingID, "error", err)
	}
}

func idempotencyKey(parts ...string) string {
	return uuid.NewSHA1(keyNamespace, []byte(strings.Join(parts, "|"))).String()
}

func copyState(s model.CheckoutSession) model.CheckoutSession {
	out := s
	if s.Criteria != nil {
		c := *s.Criteria
		out.Criteria = &c
	}
	if s.Vehicles != nil {
		out.Vehicles = append(make([]model.Vehicle, 0, len(s.Vehicles)), s.Vehicles...)
	}
	if s.SelectedVehicle != nil {
		v := *s.SelectedVehicle
		out.SelectedVehicle = &v
	}
	return out
}

func wrap(sentinel error, appErr *apperrors.AppError) *apperrors.AppError {
	appErr.Err = sentinel
	return appErr
}

func inProgress() error {
	return wrap(checkouterrors.ErrActionInProgress, apperrors.Conflict("Please wait for the current action to finish"))
}

func bookingExists() error {
	return wrap(checkouterrors.ErrBookingExists, apperrors.Conflict("Complete payment for the current booking before starting a new search"))
}

func invalidStep(step model.Step) error {
	return wrap(checkouterrors.ErrInvalidStep, apperrors.Conflict("That action is not available at the "+string(step)+" step"))
}

func insuranceRequired() error {
	return wrap(checkouterrors.ErrInsuranceRequired, apperrors.Validation("Please select an insurance package", map[string]any{
		"insurance_policy_id": checkouterrors.ErrInsuranceRequired.Error(),
	}))
}

func unknownInsurance() error {
	return wrap(checkouterrors.ErrUnknownInsurance, apperrors.Validation("Please select an insurance package", map[string]any{
		"insurance_policy_id": checkouterrors.ErrUnknownInsurance.Error(),
	}))
}
