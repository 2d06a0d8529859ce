package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	bookingserrors "rentawheel/internal/bookings/errors"
	"rentawheel/internal/bookings/validator"
	"rentawheel/internal/events"
	"rentawheel/internal/session"
	apperrors "rentawheel/pkg/errors"
	"rentawheel/pkg/logger"
	"rentawheel/pkg/model"
	"rentawheel/pkg/validation"
	"rentawheel/pkg/wiretime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRentalAPI is a mock implementation of RentalAPI
type MockRentalAPI struct {
	mock.Mock
}

func (m *MockRentalAPI) CustomerBookings(ctx context.Context, customerID int64) ([]model.Booking, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Booking), args.Error(1)
}

func (m *MockRentalAPI) UpdateBooking(ctx context.Context, bookingID int64, req model.UpdateBookingRequest) error {
	return m.Called(ctx, bookingID, req).Error(0)
}

func (m *MockRentalAPI) CancelBooking(ctx context.Context, bookingID int64) error {
	return m.Called(ctx, bookingID).Error(0)
}

type staticReference struct {
	ref *model.ReferenceData
	err error
}

func (s staticReference) Load(context.Context) (*model.ReferenceData, error) {
	return s.ref, s.err
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func testReference() *model.ReferenceData {
	return &model.ReferenceData{
		Insurance: []model.InsurancePolicy{
			{ID: 1, PackageName: "Premium", DailyCost: 25},
			{ID: 2, PackageName: "Basic", DailyCost: 10},
		},
		Promotions: []model.Promotion{{Code: "SAVE10", DiscountPerc: 10}},
	}
}

func ts(t time.Time) wiretime.Timestamp { return wiretime.NewTimestamp(t) }

var (
	julyFirst = time.Date(2024, time.July, 1, 10, 0, 0, 0, time.UTC)

	bookedNoInsurance = model.Booking{ID: 10, CustomerID: 5, CarMake: "Toyota", CarModel: "Corolla",
		Start: ts(julyFirst), End: ts(julyFirst.Add(48 * time.Hour)), Status: model.BookingBooked, TotalAmount: 120}
	confirmedWithPromo = model.Booking{ID: 11, CustomerID: 5, Start: ts(julyFirst.Add(24 * time.Hour)),
		End: ts(julyFirst.Add(72 * time.Hour)), InsurancePolicyID: 1, PromoCode: "SAVE10", Status: model.BookingConfirmed}
	cancelled = model.Booking{ID: 12, CustomerID: 5, Status: model.BookingCancelled}

	allBookings = []model.Booking{confirmedWithPromo, bookedNoInsurance, cancelled}
)

type fixture struct {
	api      *MockRentalAPI
	pub      *recordingPublisher
	sessions *session.Manager
	svc      BookingService
	sess     *session.Session
	token    string
}

func newFixture(t *testing.T, ref ReferenceProvider) *fixture {
	t.Helper()
	if ref == nil {
		ref = staticReference{ref: testReference()}
	}
	api := &MockRentalAPI{}
	pub := &recordingPublisher{}
	sessions := session.NewManager(session.NewMemoryStore(),
		session.NewTokenService("0123456789abcdef0123456789abcdef"), time.Hour, logger.Discard())
	sess, token, err := sessions.StartCustomer(context.Background(), model.Customer{ID: 5})
	require.NoError(t, err)

	svc := NewBookingService(api, ref, sessions, validator.NewBookingValidator(validation.New()), pub, logger.Discard())
	return &fixture{api: api, pub: pub, sessions: sessions, svc: svc, sess: sess, token: token}
}

func TestDashboard(t *testing.T) {
	f := newFixture(t, nil)
	f.api.On("CustomerBookings", mock.Anything, int64(5)).Return(allBookings, nil).Once()

	d, err := f.svc.Dashboard(context.Background(), f.sess)
	require.NoError(t, err)
	assert.Len(t, d.Bookings, 3)
	assert.Equal(t, int64(11), d.Bookings[0].ID, "order is kept as returned")
	assert.Len(t, d.Reference.Insurance, 2)
	assert.Nil(t, d.Edit)
}

func TestDashboard_EitherLoadFails(t *testing.T) {
	netErr := apperrors.Network("Failed to load bookings.", errors.New("dial tcp"))

	f := newFixture(t, nil)
	f.api.On("CustomerBookings", mock.Anything, int64(5)).Return(nil, netErr).Once()
	_, err := f.svc.Dashboard(context.Background(), f.sess)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNetwork))

	f = newFixture(t, staticReference{err: apperrors.Network("Failed to load reference data.", errors.New("dial tcp"))})
	f.api.On("CustomerBookings", mock.Anything, int64(5)).Return(allBookings, nil).Once()
	_, err = f.svc.Dashboard(context.Background(), f.sess)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNetwork))
}

func TestStartEdit_PrefillsForm(t *testing.T) {
	f := newFixture(t, nil)
	f.api.On("CustomerBookings", mock.Anything, int64(5)).Return(allBookings, nil)

	edit, err := f.svc.StartEdit(context.Background(), f.sess, 10)
	require.NoError(t, err)
	assert.Equal(t, model.EditForm{
		StartDatetime:     "2024-07-01T10:00",
		EndDatetime:       "2024-07-03T10:00",
		InsurancePolicyID: 2,
	}, edit.Form, "missing insurance falls back to Basic")

	edit, err = f.svc.StartEdit(context.Background(), f.sess, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(11), edit.BookingID)
	assert.Equal(t, int64(1), edit.Form.InsurancePolicyID)
	assert.Equal(t, "SAVE10", edit.Form.PromoCode)

	stored, err := f.sessions.Resolve(context.Background(), f.token)
	require.NoError(t, err)
	require.NotNil(t, stored.Edit)
	assert.Equal(t, int64(11), stored.Edit.BookingID, "starting a second edit replaces the first")
}

func TestStartEdit_Rejections(t *testing.T) {
	f := newFixture(t, nil)
	f.api.On("CustomerBookings", mock.Anything, int64(5)).Return(allBookings, nil)

	_, err := f.svc.StartEdit(context.Background(), f.sess, 12)
	assert.ErrorIs(t, err, bookingserrors.ErrNotModifiable)

	_, err = f.svc.StartEdit(context.Background(), f.sess, 999)
	assert.ErrorIs(t, err, bookingserrors.ErrNotFound)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	assert.Nil(t, f.sess.Edit)
}

func TestSave_Success(t *testing.T) {
	f := newFixture(t, nil)
	f.api.On("CustomerBookings", mock.Anything, int64(5)).Return(allBookings, nil)

	_, err := f.svc.StartEdit(context.Background(), f.sess, 10)
	require.NoError(t, err)
	_, err = f.svc.UpdateForm(context.Background(), f.sess, model.EditForm{
		StartDatetime:     "2024-07-02T09:30",
		EndDatetime:       " 2024-07-05T09:30 ",
		InsurancePolicyID: 1,
		PromoCode:         " SAVE10 ",
	})
	require.NoError(t, err)

	promo := "SAVE10"
	f.api.On("UpdateBooking", mock.Anything, int64(10), model.UpdateBookingRequest{
		StartDatetime:     "2024-07-02 09:30:00",
		EndDatetime:       "2024-07-05 09:30:00",
		InsurancePolicyID: 1,
		PromoCode:         &promo,
	}).Return(nil).Once()

	d, err := f.svc.Save(context.Background(), f.sess)
	require.NoError(t, err)
	assert.Nil(t, d.Edit, "back to viewing")
	assert.Len(t, d.Bookings, 3)
	assert.Nil(t, f.sess.Edit)

	f.api.AssertExpectations(t)
	require.Len(t, f.pub.events, 1)
	assert.Equal(t, events.BookingUpdated, f.pub.events[0].Type)
	assert.Equal(t, int64(10), f.pub.events[0].BookingID)
}

func TestSave_EmptyPromoIsSentAsNull(t *testing.T) {
	f := newFixture(t, nil)
	f.api.On("CustomerBookings", mock.Anything, int64(5)).Return(allBookings, nil)
	_, err := f.svc.StartEdit(context.Background(), f.sess, 10)
	require.NoError(t, err)

	f.api.On("UpdateBooking", mock.Anything, int64(10), mock.MatchedBy(func(req model.UpdateBookingRequest) bool {
		return req.PromoCode == nil && req.InsurancePolicyID == 2
	})).Return(nil).Once()

	_, err = f.svc.Save(context.Background(), f.sess)
	require.NoError(t, err)
	f.api.AssertExpectations(t)
}

func TestSave_ServerRejectionKeepsEditing(t *testing.T) {
	f := newFixture(t, nil)
	f.api.On("CustomerBookings", mock.Anything, int64(5)).Return(allBookings, nil)
	_, err := f.svc.StartEdit(context.Background(), f.sess, 10)
	require.NoError(t, err)

	f.api.On("UpdateBooking", mock.Anything, int64(10), mock.Anything).
		Return(apperrors.Conflict("Car not available for the new dates")).Once()

	_, err = f.svc.Save(context.Background(), f.sess)
	require.Error(t, err)
	require.NotNil(t, f.sess.Edit)
	assert.Equal(t, "Car not available for the new dates", f.sess.Edit.LastError)
	assert.False(t, f.sess.Edit.Saving)
	assert.Equal(t, "2024-07-01T10:00", f.sess.Edit.Form.StartDatetime, "form values are kept")
}

func TestSave_FallbackMessage(t *testing.T) {
	f := newFixture(t, nil)
	f.api.On("CustomerBookings", mock.Anything, int64(5)).Return(allBookings, nil)
	_, err := f.svc.StartEdit(context.Background(), f.sess, 10)
	require.NoError(t, err)

	f.api.On("UpdateBooking", mock.Anything, int64(10), mock.Anything).Return(errors.New("boom")).Once()

	_, err = f.svc.Save(context.Background(), f.sess)
	require.Error(t, err)
	assert.Equal(t, "Update failed", f.sess.Edit.LastError)
}

func TestSave_InvalidFormNeverReachesAPI(t *testing.T) {
	f := newFixture(t, nil)
	f.api.On("CustomerBookings", mock.Anything, int64(5)).Return(allBookings, nil)
	_, err := f.svc.StartEdit(context.Background(), f.sess, 10)
	require.NoError(t, err)
	_, err = f.svc.UpdateForm(context.Background(), f.sess, model.EditForm{
		StartDatetime:     "2024-07-05T10:00",
		EndDatetime:       "2024-07-01T10:00",
		InsurancePolicyID: 2,
	})
	require.NoError(t, err)

	_, err = f.svc.Save(context.Background(), f.sess)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.NotNil(t, f.sess.Edit)
	f.api.AssertNotCalled(t, "UpdateBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestSave_RequiresEditAndLock(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Save(context.Background(), f.sess)
	assert.ErrorIs(t, err, bookingserrors.ErrNoActiveEdit)

	f.api.On("CustomerBookings", mock.Anything, int64(5)).Return(allBookings, nil)
	_, err = f.svc.StartEdit(context.Background(), f.sess, 10)
	require.NoError(t, err)

	unlock, ok := f.sessions.TryLock(f.sess.ID)
	require.True(t, ok)
	defer unlock()

	_, err = f.svc.Save(context.Background(), f.sess)
	assert.ErrorIs(t, err, bookingserrors.ErrSaveInProgress)
}

func TestDiscardEdit(t *testing.T) {
	f := newFixture(t, nil)
	f.api.On("CustomerBookings", mock.Anything, int64(5)).Return(allBookings, nil)

	require.NoError(t, f.svc.DiscardEdit(context.Background(), f.sess))

	_, err := f.svc.StartEdit(context.Background(), f.sess, 10)
	require.NoError(t, err)
	require.NoError(t, f.svc.DiscardEdit(context.Background(), f.sess))
	assert.Nil(t, f.sess.Edit)

	_, err = f.svc.UpdateForm(context.Background(), f.sess, model.EditForm{})
	assert.ErrorIs(t, err, bookingserrors.ErrNoActiveEdit)
}

func TestCancel(t *testing.T) {
	f := newFixture(t, nil)
	f.api.On("CustomerBookings", mock.Anything, int64(5)).Return(allBookings, nil)

	_, err := f.svc.Cancel(context.Background(), f.sess, 10, false)
	assert.ErrorIs(t, err, bookingserrors.ErrCancelNotConfirmed)
	f.api.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything)

	_, err = f.svc.Cancel(context.Background(), f.sess, 12, true)
	assert.ErrorIs(t, err, bookingserrors.ErrNotModifiable)

	_, err = f.svc.StartEdit(context.Background(), f.sess, 10)
	require.NoError(t, err)

	f.api.On("CancelBooking", mock.Anything, int64(10)).Return(nil).Once()
	d, err := f.svc.Cancel(context.Background(), f.sess, 10, true)
	require.NoError(t, err)
	assert.Len(t, d.Bookings, 3)
	assert.Nil(t, f.sess.Edit, "cancelling the booking being edited closes the form")

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, events.BookingCancelled, f.pub.events[0].Type)
}

func TestCancel_Failure(t *testing.T) {
	f := newFixture(t, nil)
	f.api.On("CustomerBookings", mock.Anything, int64(5)).Return(allBookings, nil)
	f.api.On("CancelBooking", mock.Anything, int64(11)).Return(apperrors.Network("Failed to cancel booking.", errors.New("502"))).Once()

	_, err := f.svc.Cancel(context.Background(), f.sess, 11, true)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNetwork))
	assert.Empty(t, f.pub.events)
}

// flakySessions stores edits until failAfter writes have succeeded.
type flakySessions struct {
	*session.Manager
	writes    int
	failAfter int
}

func (f *flakySessions) SaveEdit(ctx context.Context, sessionID string, edit *model.EditSession) error {
	f.writes++
	if f.writes > f.failAfter {
		return apperrors.Internal("Failed to save edit state", errors.New("connection reset"))
	}
	return f.Manager.SaveEdit(ctx, sessionID, edit)
}

func TestSave_LogsWhenErrorStateCannotBePersisted(t *testing.T) {
	tests := []struct {
		name      string
		failAfter int
		form      *model.EditForm
		update    error
		code      string
	}{
		{
			name:      "server rejection",
			failAfter: 2,
			update:    apperrors.Conflict("Car not available for the new dates"),
			code:      apperrors.CodeConflict,
		},
		{
			name:      "invalid form",
			failAfter: 2,
			form:      &model.EditForm{StartDatetime: "2024-07-05T10:00", EndDatetime: "2024-07-01T10:00", InsurancePolicyID: 2},
			code:      apperrors.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			var logs bytes.Buffer
			sessions := &flakySessions{Manager: f.sessions, failAfter: tt.failAfter}
			svc := NewBookingService(f.api, staticReference{ref: testReference()}, sessions,
				validator.NewBookingValidator(validation.New()), f.pub, logger.New(logger.Config{Output: &logs}))

			f.api.On("CustomerBookings", mock.Anything, int64(5)).Return(allBookings, nil)
			_, err := svc.StartEdit(context.Background(), f.sess, 10)
			require.NoError(t, err)
			if tt.form != nil {
				_, err = svc.UpdateForm(context.Background(), f.sess, *tt.form)
				require.NoError(t, err)
			}
			if tt.update != nil {
				f.api.On("UpdateBooking", mock.Anything, int64(10), mock.Anything).Return(tt.update).Once()
			}

			_, err = svc.Save(context.Background(), f.sess)
			assert.True(t, apperrors.HasCode(err, tt.code), "the original failure is returned, got %v", err)
			assert.Contains(t, logs.String(), "Failed to persist booking edit error")
			assert.Contains(t, logs.String(), "connection reset")
		})
	}
}
