//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

// Package inmemory provides an in-memory HRMS client for demos and tests.
package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/insighthr/hragent/tool/hrms"
)

const dateLayout = "2006-01-02"

type employeeRecord struct {
	employee hrms.Employee
	balances map[string]*hrms.LeaveBalance
}

// Client is an in-memory implementation of hrms.Client. Leave submissions
// deduct from the balance; cancellations restore it.
type Client struct {
	mu          sync.Mutex
	employees   map[string]*employeeRecord
	leaves      map[string]*hrms.LeaveRequest
	corrections map[string]*hrms.AttendanceCorrection
}

// New creates an empty in-memory HRMS.
func New() *Client {
	return &Client{
		employees:   make(map[string]*employeeRecord),
		leaves:      make(map[string]*hrms.LeaveRequest),
		corrections: make(map[string]*hrms.AttendanceCorrection),
	}
}

// AddEmployee seeds an employee with the given leave balances.
func (c *Client) AddEmployee(employee hrms.Employee, balances ...hrms.LeaveBalance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := &employeeRecord{
		employee: employee,
		balances: make(map[string]*hrms.LeaveBalance, len(balances)),
	}
	for _, b := range balances {
		b := b
		b.RemainingDays = b.TotalDays - b.UsedDays
		rec.balances[b.LeaveType] = &b
	}
	c.employees[employee.ID] = rec
}

// GetEmployee returns the employee record.
func (c *Client) GetEmployee(_ context.Context, employeeID string) (*hrms.Employee, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.employees[employeeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", hrms.ErrEmployeeNotFound, employeeID)
	}
	employee := rec.employee
	return &employee, nil
}

// GetLeaveBalance returns the employee's balances across leave types.
func (c *Client) GetLeaveBalance(_ context.Context, employeeID string) ([]hrms.LeaveBalance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.employees[employeeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", hrms.ErrEmployeeNotFound, employeeID)
	}
	balances := make([]hrms.LeaveBalance, 0, len(rec.balances))
	for _, b := range rec.balances {
		balances = append(balances, *b)
	}
	return balances, nil
}

// SubmitLeave files a leave request, deducting the days from the balance.
func (c *Client) SubmitLeave(_ context.Context, req *hrms.LeaveRequest) (*hrms.LeaveRequest, error) {
	days, err := leaveDays(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.employees[req.EmployeeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", hrms.ErrEmployeeNotFound, req.EmployeeID)
	}
	balance, ok := rec.balances[req.LeaveType]
	if !ok || balance.RemainingDays < days {
		return nil, fmt.Errorf("%w: %s needs %.1f days of %s",
			hrms.ErrInsufficientBalance, req.EmployeeID, days, req.LeaveType)
	}
	balance.UsedDays += days
	balance.RemainingDays -= days

	stored := *req
	stored.ID = uuid.New().String()
	stored.Days = days
	stored.Status = hrms.StatusPending
	c.leaves[stored.ID] = &stored
	result := stored
	return &result, nil
}

// SubmitAttendanceCorrection files an attendance correction.
func (c *Client) SubmitAttendanceCorrection(_ context.Context, req *hrms.AttendanceCorrection) (*hrms.AttendanceCorrection, error) {
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", req.Date, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.employees[req.EmployeeID]; !ok {
		return nil, fmt.Errorf("%w: %s", hrms.ErrEmployeeNotFound, req.EmployeeID)
	}
	stored := *req
	stored.ID = uuid.New().String()
	stored.Status = hrms.StatusPending
	c.corrections[stored.ID] = &stored
	result := stored
	return &result, nil
}

// CancelLeave cancels a leave request and restores the balance.
func (c *Client) CancelLeave(_ context.Context, employeeID, leaveID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	leave, ok := c.leaves[leaveID]
	if !ok || leave.EmployeeID != employeeID {
		return fmt.Errorf("%w: %s for employee %s", hrms.ErrLeaveNotFound, leaveID, employeeID)
	}
	if leave.Status == hrms.StatusCanceled {
		return nil
	}
	leave.Status = hrms.StatusCanceled
	if rec, ok := c.employees[employeeID]; ok {
		if balance, ok := rec.balances[leave.LeaveType]; ok {
			balance.UsedDays -= leave.Days
			balance.RemainingDays += leave.Days
		}
	}
	return nil
}

// ApproveAttendance approves an attendance correction.
func (c *Client) ApproveAttendance(_ context.Context, employeeID, correctionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	correction, ok := c.corrections[correctionID]
	if !ok || correction.EmployeeID != employeeID {
		return fmt.Errorf("%w: %s for employee %s", hrms.ErrAttendanceNotFound, correctionID, employeeID)
	}
	correction.Status = hrms.StatusApproved
	return nil
}

// Leave returns a filed leave request by ID, for tests and demos.
func (c *Client) Leave(leaveID string) (*hrms.LeaveRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	leave, ok := c.leaves[leaveID]
	if !ok {
		return nil, false
	}
	result := *leave
	return &result, true
}

// LeaveCount returns the number of filed leave requests.
func (c *Client) LeaveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.leaves)
}

func leaveDays(startDate, endDate string) (float64, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return 0, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return 0, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	if end.Before(start) {
		return 0, errors.New("end date before start date")
	}
	return end.Sub(start).Hours()/24 + 1, nil
}
