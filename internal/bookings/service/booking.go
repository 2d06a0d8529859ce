package service

import (
	"context"
	"errors"
	"strings"

	bookingserrors "rentawheel/internal/bookings/errors"
	"rentawheel/internal/bookings/validator"
	"rentawheel/internal/events"
	"rentawheel/internal/session"
	"rentawheel/pkg/client"
	apperrors "rentawheel/pkg/errors"
	"rentawheel/pkg/logger"
	"rentawheel/pkg/model"
	"rentawheel/pkg/sanitizer"
	"rentawheel/pkg/validation"
	"rentawheel/pkg/wiretime"

	"golang.org/x/sync/errgroup"
)

type RentalAPI interface {
	CustomerBookings(ctx context.Context, customerID int64) ([]model.Booking, error)
	UpdateBooking(ctx context.Context, bookingID int64, req model.UpdateBookingRequest) error
	CancelBooking(ctx context.Context, bookingID int64) error
}

type ReferenceProvider interface {
	Load(ctx context.Context) (*model.ReferenceData, error)
}

// Sessions persists the edit state and serialises actions per session.
type Sessions interface {
	SaveEdit(ctx context.Context, sessionID string, edit *model.EditSession) error
	TryLock(sessionID string) (unlock func(), ok bool)
}

// Dashboard is the customer's booking list with the catalog needed to show
// it, plus the edit in progress if any.
type Dashboard struct {
	Bookings  []model.Booking      `json:"bookings"`
	Reference *model.ReferenceData `json:"reference"`
	Edit      *model.EditSession   `json:"edit,omitempty"`
}

type BookingService interface {
	Dashboard(ctx context.Context, s *session.Session) (*Dashboard, error)
	StartEdit(ctx context.Context, s *session.Session, bookingID int64) (*model.EditSession, error)
	UpdateForm(ctx context.Context, s *session.Session, form model.EditForm) (*model.EditSession, error)
	DiscardEdit(ctx context.Context, s *session.Session) error
	Save(ctx context.Context, s *session.Session) (*Dashboard, error)
	Cancel(ctx context.Context, s *session.Session, bookingID int64, confirmed bool) (*Dashboard, error)
}

type bookingService struct {
	api       RentalAPI
	reference ReferenceProvider
	sessions  Sessions
	validator *validator.BookingValidator
	events    events.Publisher
	log       *logger.Logger
}

func NewBookingService(
	api RentalAPI,
	reference ReferenceProvider,
	sessions Sessions,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	log *logger.Logger,
) BookingService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &bookingService{
		api:       api,
		reference: reference,
		sessions:  sessions,
		validator: validator,
		events:    publisher,
		log:       log,
	}
}

// Dashboard loads bookings and reference data concurrently and waits for
// both.
func (s *bookingService) Dashboard(ctx context.Context, sess *session.Session) (*Dashboard, error) {
	var bookings []model.Booking
	var ref *model.ReferenceData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bookings, err = s.api.CustomerBookings(gctx, sess.CustomerID())
		if err != nil {
			s.log.Error("Failed to load bookings", "cust_id", sess.CustomerID(), "error", err)
		}
		return err
	})
	g.Go(func() error {
		var err error
		ref, err = s.reference.Load(gctx)
		if err != nil {
			s.log.Error("Failed to load reference data", "error", err)
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if bookings == nil {
		bookings = []model.Booking{}
	}
	return &Dashboard{
		Bookings:  bookings,
		Reference: ref,
		Edit:      sess.Edit,
	}, nil
}

// StartEdit opens the edit form for one booking, discarding any other
// unsaved edit. Insurance falls back to the default package when the booking
// has none.
func (s *bookingService) StartEdit(ctx context.Context, sess *session.Session, bookingID int64) (*model.EditSession, error) {
	booking, err := s.findModifiable(ctx, sess, bookingID)
	if err != nil {
		return nil, err
	}

	insuranceID := booking.InsurancePolicyID
	if insuranceID == 0 {
		if ref, err := s.reference.Load(ctx); err != nil {
			s.log.Warn("Reference data unavailable, no insurance pre-selected", "error", err)
		} else if policy, ok := ref.DefaultInsurance(); ok {
			insuranceID = policy.ID
		}
	}

	if sess.Edit != nil && sess.Edit.BookingID != bookingID {
		s.log.Debug("Discarding unsaved edit", "session_id", sess.ID, "booking_id", sess.Edit.BookingID)
	}
	edit := &model.EditSession{
		BookingID: booking.ID,
		Form: model.EditForm{
			StartDatetime:     wiretime.ToInput(booking.Start.Time),
			EndDatetime:       wiretime.ToInput(booking.End.Time),
			InsurancePolicyID: insuranceID,
			PromoCode:         booking.PromoCode,
		},
	}
	if err := s.saveEdit(ctx, sess, edit); err != nil {
		return nil, err
	}
	return edit, nil
}

func (s *bookingService) UpdateForm(ctx context.Context, sess *session.Session, form model.EditForm) (*model.EditSession, error) {
	if sess.Edit == nil {
		return nil, noActiveEdit()
	}
	edit := *sess.Edit
	form.StartDatetime = strings.TrimSpace(form.StartDatetime)
	form.EndDatetime = strings.TrimSpace(form.EndDatetime)
	form.PromoCode = sanitizer.NormalizePromoCode(form.PromoCode)
	edit.Form = form
	edit.LastError = ""
	if err := s.saveEdit(ctx, sess, &edit); err != nil {
		return nil, err
	}
	return &edit, nil
}

func (s *bookingService) DiscardEdit(ctx context.Context, sess *session.Session) error {
	if sess.Edit == nil {
		return nil
	}
	return s.saveEdit(ctx, sess, nil)
}

// Save submits the edit form. The rental API re-validates availability and
// price; on failure the form stays open with the server's message.
func (s *bookingService) Save(ctx context.Context, sess *session.Session) (*Dashboard, error) {
	if sess.Edit == nil {
		return nil, noActiveEdit()
	}
	unlock, ok := s.sessions.TryLock(sess.ID)
	if !ok {
		appErr := apperrors.Conflict("Please wait for the current save to finish")
		appErr.Err = bookingserrors.ErrSaveInProgress
		return nil, appErr
	}
	defer unlock()

	edit := *sess.Edit
	start, end, err := s.validator.ValidateEditForm(&edit.Form)
	if err != nil {
		s.log.Warn("Booking edit validation failed", "booking_id", edit.BookingID, "error", err)
		appErr := validation.AsAppError("Please correct the highlighted fields", err)
		edit.LastError = appErr.Message
		s.recordEditError(ctx, sess, &edit)
		return nil, appErr
	}

	edit.Saving = true
	edit.LastError = ""
	if err := s.saveEdit(ctx, sess, &edit); err != nil {
		return nil, err
	}

	req := model.UpdateBookingRequest{
		StartDatetime:     wiretime.Format(start),
		EndDatetime:       wiretime.Format(end),
		InsurancePolicyID: edit.Form.InsurancePolicyID,
		PromoCode:         model.OptionalCode(edit.Form.PromoCode),
	}
	if err := s.api.UpdateBooking(ctx, edit.BookingID, req); err != nil {
		s.log.Warn("Booking update rejected", "booking_id", edit.BookingID, "error", err)
		edit.Saving = false
		edit.LastError = userMessage(err, client.MsgUpdateFailed)
		s.recordEditError(ctx, sess, &edit)
		return nil, err
	}

	if err := s.saveEdit(ctx, sess, nil); err != nil {
		return nil, err
	}
	s.log.Info("Booking updated successfully", "booking_id", edit.BookingID, "cust_id", sess.CustomerID())
	s.publish(ctx, sess, events.BookingUpdated, edit.BookingID)

	return s.Dashboard(ctx, sess)
}

// Cancel cancels a booking once the user has confirmed it.
func (s *bookingService) Cancel(ctx context.Context, sess *session.Session, bookingID int64, confirmed bool) (*Dashboard, error) {
	if !confirmed {
		appErr := apperrors.InvalidInput("Please confirm the cancellation")
		appErr.Err = bookingserrors.ErrCancelNotConfirmed
		return nil, appErr
	}
	unlock, ok := s.sessions.TryLock(sess.ID)
	if !ok {
		appErr := apperrors.Conflict("Please wait for the current action to finish")
		appErr.Err = bookingserrors.ErrSaveInProgress
		return nil, appErr
	}
	defer unlock()

	if _, err := s.findModifiable(ctx, sess, bookingID); err != nil {
		return nil, err
	}
	if err := s.api.CancelBooking(ctx, bookingID); err != nil {
		s.log.Warn("Booking cancellation failed", "booking_id", bookingID, "error", err)
		return nil, err
	}

	if sess.Edit != nil && sess.Edit.BookingID == bookingID {
		if err := s.saveEdit(ctx, sess, nil); err != nil {
			return nil, err
		}
	}
	s.log.Info("Booking cancelled", "booking_id", bookingID, "cust_id", sess.CustomerID())
	s.publish(ctx, sess, events.BookingCancelled, bookingID)

	return s.Dashboard(ctx, sess)
}

// --- Helpers ---

func (s *bookingService) findModifiable(ctx context.Context, sess *session.Session, bookingID int64) (model.Booking, error) {
	bookings, err := s.api.CustomerBookings(ctx, sess.CustomerID())
	if err != nil {
		return model.Booking{}, err
	}
	for _, b := range bookings {
		if b.ID != bookingID {
			continue
		}
		if !b.Modifiable() {
			appErr := apperrors.Conflict("Only Booked or Confirmed bookings can be changed")
			appErr.Err = bookingserrors.ErrNotModifiable
			return model.Booking{}, appErr
		}
		return b, nil
	}
	appErr := apperrors.NotFound("Booking")
	appErr.Err = bookingserrors.ErrNotFound
	return model.Booking{}, appErr
}

func (s *bookingService) saveEdit(ctx context.Context, sess *session.Session, edit *model.EditSession) error {
	if err := s.sessions.SaveEdit(ctx, sess.ID, edit); err != nil {
		return err
	}
	sess.Edit = edit
	return nil
}

// recordEditError stores the edit with its failure message. The caller
// still returns the original error when that write fails too.
func (s *bookingService) recordEditError(ctx context.Context, sess *session.Session, edit *model.EditSession) {
	if err := s.saveEdit(ctx, sess, edit); err != nil {
		s.log.Error("Failed to persist booking edit error",
			"session_id", sess.ID,
			"booking_id", edit.BookingID,
			"last_error", edit.LastError,
			"error", err,
		)
	}
}

func (s *bookingService) publish(ctx context.Context, sess *session.Session, eventType events.Type, bookingID int64) {
	err := s.events.Publish(ctx, events.Event{
		Type:       eventType,
		SessionID:  sess.ID,
		CustomerID: sess.CustomerID(),
		BookingID:  bookingID,
	})
	if err != nil {
		s.log.Error("Failed to publish booking event", "type", eventType, "booking_id", bookingID, "error", err)
	}
}

func noActiveEdit() error {
	appErr := apperrors.Conflict("No booking is being edited")
	appErr.Err = bookingserrors.ErrNoActiveEdit
	return appErr
}

// userMessage prefers the message carried by an AppError.
func userMessage(err error, fallback string) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
