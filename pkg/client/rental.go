package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	apperrors "rentawheel/pkg/errors"
	"rentawheel/pkg/model"
	"rentawheel/pkg/wiretime"
)

const (
	MsgLoginFailed       = "Login failed. Please try again."
	MsgAccountNotFound   = "No account matches those details."
	MsgSignupFailed      = "Signup failed."
	MsgSearchFailed      = "Search failed. Please try again."
	MsgStaticDataFailed  = "Failed to load reference data."
	MsgCreateFailed      = "Booking creation failed."
	MsgPaymentFailed     = "Payment failed."
	MsgBookingsFailed    = "Failed to load bookings."
	MsgUpdateFailed      = "Update failed"
	MsgCancelFailed      = "Failed to cancel booking."
	MsgFleetFailed       = "Failed to load fleet."
	MsgMaintenanceFailed = "Failed to log maintenance."
)

// RentalClient calls the rental API. Every method returns an *AppError:
// NOT_FOUND for 404, CONFLICT carrying the server message for other 4xx,
// and NETWORK_ERROR with the operation's fallback message for transport
// failures, 5xx responses and undecodable bodies.
type RentalClient struct {
	httpClient *HttpClient
}

func NewRentalClient(httpClient *HttpClient) *RentalClient {
	return &RentalClient{httpClient: httpClient}
}

func (c *RentalClient) Login(ctx context.Context, email string) (model.Customer, error) {
	var out struct {
		User model.Customer `json:"user"`
	}
	resp, callErr := c.httpClient.POST(ctx, "/api/login", model.LoginRequest{Email: email})
	if err := decode(resp, callErr, MsgLoginFailed, MsgAccountNotFound, &out); err != nil {
		return model.Customer{}, err
	}
	return out.User, nil
}

func (c *RentalClient) EmployeeLogin(ctx context.Context, email string) (model.Employee, error) {
	var out struct {
		Employee model.Employee `json:"employee"`
	}
	resp, callErr := c.httpClient.POST(ctx, "/api/admin/login", model.LoginRequest{Email: email})
	if err := decode(resp, callErr, MsgLoginFailed, MsgAccountNotFound, &out); err != nil {
		return model.Employee{}, err
	}
	return out.Employee, nil
}

func (c *RentalClient) Signup(ctx context.Context, req model.SignupRequest) (int64, error) {
	var out struct {
		CustomerID int64 `json:"cust_id"`
	}
	resp, callErr := c.httpClient.POST(ctx, "/api/signup", req)
	if err := decode(resp, callErr, MsgSignupFailed, MsgSignupFailed, &out); err != nil {
		return 0, err
	}
	return out.CustomerID, nil
}

// SearchCars queries availability at the pickup branch for the given range.
func (c *RentalClient) SearchCars(ctx context.Context, criteria model.SearchCriteria) ([]model.Vehicle, error) {
	q := url.Values{}
	q.Set("branch_id", strconv.FormatInt(criteria.PickupBranchID, 10))
	q.Set("start_date", wiretime.Format(criteria.Start))
	q.Set("end_date", wiretime.Format(criteria.End))

	var vehicles []model.Vehicle
	resp, callErr := c.httpClient.GET(ctx, "/api/cars/search?"+q.Encode())
	if err := decode(resp, callErr, MsgSearchFailed, MsgSearchFailed, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (c *RentalClient) StaticData(ctx context.Context) (model.ReferenceData, error) {
	var ref model.ReferenceData
	resp, callErr := c.httpClient.GET(ctx, "/api/static_data")
	if err := decode(resp, callErr, MsgStaticDataFailed, MsgStaticDataFailed, &ref); err != nil {
		return model.ReferenceData{}, err
	}
	return ref, nil
}

func (c *RentalClient) CreateBooking(ctx context.Context, req model.CreateBookingRequest, idempotencyKey string) (int64, error) {
	var out struct {
		BookingID int64 `json:"booking_id"`
	}
	resp, callErr := c.httpClient.POSTWithHeaders(ctx, "/api/bookings", req, idempotencyHeaders(idempotencyKey))
	if err := decode(resp, callErr, MsgCreateFailed, MsgCreateFailed, &out); err != nil {
		return 0, err
	}
	if out.BookingID == 0 {
		return 0, apperrors.Network(MsgCreateFailed, fmt.Errorf("response carried no booking id"))
	}
	return out.BookingID, nil
}

func (c *RentalClient) SubmitPayment(ctx context.Context, req model.PaymentRequest, idempotencyKey string) (int64, error) {
	var out struct {
		PaymentID int64 `json:"payment_id"`
	}
	resp, callErr := c.httpClient.POSTWithHeaders(ctx, "/api/payments", req, idempotencyHeaders(idempotencyKey))
	if err := decode(resp, callErr, MsgPaymentFailed, MsgPaymentFailed, &out); err != nil {
		return 0, err
	}
	return out.PaymentID, nil
}

func (c *RentalClient) CustomerBookings(ctx context.Context, customerID int64) ([]model.Booking, error) {
	var bookings []model.Booking
	resp, callErr := c.httpClient.GET(ctx, fmt.Sprintf("/api/bookings/customer/%d", customerID))
	if err := decode(resp, callErr, MsgBookingsFailed, MsgBookingsFailed, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *RentalClient) UpdateBooking(ctx context.Context, bookingID int64, req model.UpdateBookingRequest) error {
	resp, callErr := c.httpClient.PUT(ctx, fmt.Sprintf("/api/bookings/%d", bookingID), req)
	return decode(resp, callErr, MsgUpdateFailed, "Booking not found", nil)
}

func (c *RentalClient) CancelBooking(ctx context.Context, bookingID int64) error {
	resp, callErr := c.httpClient.POST(ctx, fmt.Sprintf("/api/bookings/%d/cancel", bookingID), nil)
	return decode(resp, callErr, MsgCancelFailed, "Booking not found", nil)
}

func (c *RentalClient) FleetCars(ctx context.Context) ([]model.Vehicle, error) {
	var cars []model.Vehicle
	resp, callErr := c.httpClient.GET(ctx, "/api/admin/cars")
	if err := decode(resp, callErr, MsgFleetFailed, MsgFleetFailed, &cars); err != nil {
		return nil, err
	}
	return cars, nil
}

func (c *RentalClient) LogMaintenance(ctx context.Context, entry model.MaintenanceLog) error {
	resp, callErr := c.httpClient.POST(ctx, "/api/admin/maintenance", entry)
	return decode(resp, callErr, MsgMaintenanceFailed, "Car not found", nil)
}

func (c *RentalClient) RecentBookings(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	resp, callErr := c.httpClient.GET(ctx, "/api/admin/bookings/ml")
	if err := decode(resp, callErr, MsgBookingsFailed, MsgBookingsFailed, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func idempotencyHeaders(key string) map[string]string {
	if key == "" {
		return nil
	}
	return map[string]string{HeaderIdempotencyKey: key}
}

// decode classifies the outcome of a call and, on success, unmarshals the
// body into target when target is non-nil.
func decode(resp *Response, callErr error, fallback, notFound string, target any) error {
	if callErr != nil {
		return apperrors.Network(fallback, callErr)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &apperrors.AppError{
			Code:       apperrors.CodeNotFound,
			Message:    notFound,
			HTTPStatus: http.StatusNotFound,
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		msg := GetErrorMessage(resp)
		if msg == "" {
			msg = fallback
		}
		return apperrors.Conflict(msg)
	case !resp.IsSuccess():
		return apperrors.Network(fallback, fmt.Errorf("rental api returned status %d", resp.StatusCode))
	}

	if target == nil {
		return nil
	}
	if err := resp.DecodeJSON(target); err != nil {
		return apperrors.Network(fallback, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
