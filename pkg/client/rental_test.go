package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "rentawheel/pkg/errors"
	"rentawheel/pkg/model"
)

func newTestRental(t *testing.T, handler http.HandlerFunc) *RentalClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRentalClient(NewHttpClient(srv.URL, 2*time.Second))
}

func TestRentalClient_SearchCars(t *testing.T) {
	rc := newTestRental(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/cars/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("branch_id") != "3" {
			t.Errorf("branch_id = %q", q.Get("branch_id"))
		}
		if q.Get("start_date") != "2024-07-01 10:00:00" || q.Get("end_date") != "2024-07-04 10:00:00" {
			t.Errorf("dates = %q / %q", q.Get("start_date"), q.Get("end_date"))
		}
		_, _ = io.WriteString(w, `[{"car_id":7,"car_make":"Toyota","car_model":"Corolla","year":2022,"category":"Sedan","daily_rate":"50.00","license_plate":"ABC123"}]`)
	})

	start := time.Date(2024, time.July, 1, 10, 0, 0, 0, time.UTC)
	vehicles, err := rc.SearchCars(context.Background(), model.SearchCriteria{
		PickupBranchID:  3,
		DropoffBranchID: 4,
		Start:           start,
		End:             start.Add(72 * time.Hour),
	})
	if err != nil {
		t.Fatalf("SearchCars() error: %v", err)
	}
	if len(vehicles) != 1 || vehicles[0].DailyRate != 50 || vehicles[0].Make != "Toyota" {
		t.Errorf("vehicles = %+v", vehicles)
	}
}

func TestRentalClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{"not found is generic", http.StatusNotFound, `{"error":"User not found"}`, apperrors.CodeNotFound, MsgAccountNotFound},
		{"bad request passes server message", http.StatusBadRequest, `{"error":"Car likely unavailable"}`, apperrors.CodeConflict, "Car likely unavailable"},
		{"bad request without body uses fallback", http.StatusBadRequest, `<html>bad</html>`, apperrors.CodeConflict, MsgLoginFailed},
		{"server error is network", http.StatusInternalServerError, `{"error":"stack trace"}`, apperrors.CodeNetwork, MsgLoginFailed},
		{"undecodable success is network", http.StatusOK, `not json`, apperrors.CodeNetwork, MsgLoginFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newTestRental(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := rc.Login(context.Background(), "someone@example.com")
			appErr := apperrors.AsAppError(err)
			if appErr.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", appErr.Code, tt.wantCode)
			}
			if appErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", appErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestRentalClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	rc := NewRentalClient(NewHttpClient(srv.URL, time.Second))

	_, err := rc.SubmitPayment(context.Background(), model.PaymentRequest{BookingID: 1, Amount: 10, PaymentMode: model.PaymentModeCard}, "key")
	if !apperrors.HasCode(err, apperrors.CodeNetwork) {
		t.Fatalf("expected NETWORK_ERROR, got %v", err)
	}
	if apperrors.AsAppError(err).Message != MsgPaymentFailed {
		t.Errorf("message = %q", apperrors.AsAppError(err).Message)
	}
}

func TestRentalClient_CreateBookingSendsIdempotencyKey(t *testing.T) {
	var got model.CreateBookingRequest
	rc := newTestRental(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(HeaderIdempotencyKey) != "abc-123" {
			t.Errorf("idempotency key = %q", r.Header.Get(HeaderIdempotencyKey))
		}
		if r.Header.Get(HeaderRequestID) != "req-9" {
			t.Errorf("request id = %q", r.Header.Get(HeaderRequestID))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"message":"Booking created","booking_id":41}`)
	})

	ctx := WithRequestID(context.Background(), "req-9")
	id, err := rc.CreateBooking(ctx, model.CreateBookingRequest{
		CustomerID:    5,
		CarID:         7,
		StartDatetime: "2024-07-01 10:00:00",
		EndDatetime:   "2024-07-04 10:00:00",
	}, "abc-123")
	if err != nil {
		t.Fatalf("CreateBooking() error: %v", err)
	}
	if id != 41 {
		t.Errorf("booking id = %d, want 41", id)
	}
	if got.PromoCode != nil {
		t.Errorf("empty promo should be sent as null, got %v", *got.PromoCode)
	}
}

func TestRentalClient_CreateBookingWithoutID(t *testing.T) {
	rc := newTestRental(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"message":"Booking created"}`)
	})

	_, err := rc.CreateBooking(context.Background(), model.CreateBookingRequest{}, "")
	if !apperrors.HasCode(err, apperrors.CodeNetwork) {
		t.Errorf("missing booking id should fail, got %v", err)
	}
}

func TestRentalClient_UpdateAndCancel(t *testing.T) {
	var calls []string
	rc := newTestRental(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	})

	ctx := context.Background()
	if err := rc.UpdateBooking(ctx, 12, model.UpdateBookingRequest{StartDatetime: "2024-07-01 10:00:00"}); err != nil {
		t.Fatalf("UpdateBooking() error: %v", err)
	}
	if err := rc.CancelBooking(ctx, 12); err != nil {
		t.Fatalf("CancelBooking() error: %v", err)
	}

	want := []string{"PUT /api/bookings/12", "POST /api/bookings/12/cancel"}
	if len(calls) != len(want) || calls[0] != want[0] || calls[1] != want[1] {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestRentalClient_StaticData(t *testing.T) {
	rc := newTestRental(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{
			"branches":[{"branch_id":1,"branch_name":"Downtown"}],
			"insurance":[{"policy_id":2,"package_name":"Basic","daily_cost":"10.00"}],
			"promotions":[{"promo_code":"WELCOME10","discount_perc":"10.00"}]
		}`)
	})

	ref, err := rc.StaticData(context.Background())
	if err != nil {
		t.Fatalf("StaticData() error: %v", err)
	}
	if p, ok := ref.DefaultInsurance(); !ok || p.DailyCost != 10 {
		t.Errorf("default insurance = %+v, %v", p, ok)
	}
	if p, ok := ref.Promotion("WELCOME10"); !ok || p.DiscountPerc != 10 {
		t.Errorf("promotion = %+v, %v", p, ok)
	}
}
