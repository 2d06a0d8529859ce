package model

import (
	"rentawheel/pkg/wiretime"
)

type Customer struct {
	ID        int64              `json:"cust_id" bson:"cust_id"`
	FirstName string             `json:"first_name" bson:"first_name"`
	LastName  string             `json:"last_name" bson:"last_name"`
	DOB       wiretime.Timestamp `json:"dob" bson:"-"`
	Email     string             `json:"email" bson:"email"`
	ContactNo string             `json:"contact_no,omitempty" bson:"contact_no,omitempty"`
	LicenseNo string             `json:"license_no,omitempty" bson:"license_no,omitempty"`
}

type Employee struct {
	ID        int64  `json:"emp_id" bson:"emp_id"`
	FirstName string `json:"first_name" bson:"first_name"`
	LastName  string `json:"last_name" bson:"last_name"`
	Email     string `json:"email" bson:"email"`
	Role      string `json:"role,omitempty" bson:"role,omitempty"`
	BranchID  int64  `json:"branch_id,omitempty" bson:"branch_id,omitempty"`
}

type SignupRequest struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=50"`
	LastName  string `json:"last_name" validate:"required,min=1,max=50"`
	DOB       string `json:"dob" validate:"required,datetime=2006-01-02"`
	Email     string `json:"email" validate:"required,email,max=100"`
	ContactNo string `json:"contact_no" validate:"required,e164"`
	LicenseNo string `json:"license_no" validate:"required,alphanum,min=5,max=30"`
}

type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
}
