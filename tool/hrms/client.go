//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

// Package hrms defines the HRMS backend client and the assistant's tool set
// over it.
package hrms

import (
	"context"
	"errors"
)

// Errors returned by HRMS clients.
var (
	// ErrEmployeeNotFound indicates the employee does not exist in the HRMS.
	ErrEmployeeNotFound = errors.New("employee not found")
	// ErrLeaveNotFound indicates the leave request does not exist.
	ErrLeaveNotFound = errors.New("leave request not found")
	// ErrAttendanceNotFound indicates the attendance record does not exist.
	ErrAttendanceNotFound = errors.New("attendance record not found")
	// ErrInsufficientBalance indicates the leave request exceeds the
	// employee's remaining balance.
	ErrInsufficientBalance = errors.New("insufficient leave balance")
)

// Request statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusCanceled = "canceled"
)

// Employee is an HRMS employee record.
type Employee struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Title      string `json:"title,omitempty"`
	Email      string `json:"email,omitempty"`
	HireDate   string `json:"hire_date,omitempty"`
}

// LeaveBalance is the remaining balance for one leave type.
type LeaveBalance struct {
	LeaveType     string  `json:"leave_type"`
	TotalDays     float64 `json:"total_days"`
	UsedDays      float64 `json:"used_days"`
	RemainingDays float64 `json:"remaining_days"`
}

// LeaveRequest is a leave application.
type LeaveRequest struct {
	ID         string  `json:"id,omitempty"`
	EmployeeID string  `json:"employee_id"`
	LeaveType  string  `json:"leave_type"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Days       float64 `json:"days,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Status     string  `json:"status,omitempty"`
}

// AttendanceCorrection is a request to fix a missed or wrong clock record.
type AttendanceCorrection struct {
	ID         string `json:"id,omitempty"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	ClockIn    string `json:"clock_in,omitempty"`
	ClockOut   string `json:"clock_out,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Status     string `json:"status,omitempty"`
}

// Client talks to the HRMS backend. All operations act on the employee
// identified by the request payload or the explicit ID argument; access
// control happens a layer above, in the tool set.
type Client interface {
	// GetEmployee returns the employee record.
	GetEmployee(ctx context.Context, employeeID string) (*Employee, error)

	// GetLeaveBalance returns the employee's balances across leave types.
	GetLeaveBalance(ctx context.Context, employeeID string) ([]LeaveBalance, error)

	// SubmitLeave files a leave request and returns it with ID and status
	// assigned.
	SubmitLeave(ctx context.Context, req *LeaveRequest) (*LeaveRequest, error)

	// SubmitAttendanceCorrection files an attendance correction and returns
	// it with ID and status assigned.
	SubmitAttendanceCorrection(ctx context.Context, req *AttendanceCorrection) (*AttendanceCorrection, error)

	// CancelLeave cancels an employee's leave request.
	CancelLeave(ctx context.Context, employeeID, leaveID string) error

	// ApproveAttendance approves an employee's attendance correction.
	ApproveAttendance(ctx context.Context, employeeID, correctionID string) error
}
