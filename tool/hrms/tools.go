//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

package hrms

import (
	"context"
	"errors"
	"fmt"

	"github.com/insighthr/hragent/session/identity"
	"github.com/insighthr/hragent/tool"
	"github.com/insighthr/hragent/tool/function"
)

// ErrAdminRequired is returned when a non-admin caller invokes an admin tool.
var ErrAdminRequired = errors.New("admin privileges required")

// Tool names.
const (
	ToolEmployeeInfo      = "employee_info"
	ToolLeaveBalance      = "leave_balance"
	ToolApplyForLeave     = "apply_for_leave"
	ToolApplyAttendance   = "apply_attendance"
	ToolApplyLeaveFor     = "apply_leave_for_employee"
	ToolCancelLeaveFor    = "cancel_leave_for_employee"
	ToolApproveAttendance = "approve_attendance_for_employee"
)

type emptyInput struct{}

type applyLeaveInput struct {
	LeaveType string `json:"leave_type" description:"Leave type, e.g. annual or sick."`
	StartDate string `json:"start_date" description:"First day of leave, YYYY-MM-DD."`
	EndDate   string `json:"end_date" description:"Last day of leave, YYYY-MM-DD."`
	Reason    string `json:"reason,omitempty" description:"Reason for the leave."`
}

type applyAttendanceInput struct {
	Date     string `json:"date" description:"Day to correct, YYYY-MM-DD."`
	ClockIn  string `json:"clock_in,omitempty" description:"Corrected clock-in time, HH:MM."`
	ClockOut string `json:"clock_out,omitempty" description:"Corrected clock-out time, HH:MM."`
	Reason   string `json:"reason,omitempty" description:"Reason for the correction."`
}

type applyLeaveForInput struct {
	EmployeeID string `json:"employee_id" description:"Employee the leave is filed for."`
	LeaveType  string `json:"leave_type" description:"Leave type, e.g. annual or sick."`
	StartDate  string `json:"start_date" description:"First day of leave, YYYY-MM-DD."`
	EndDate    string `json:"end_date" description:"Last day of leave, YYYY-MM-DD."`
	Reason     string `json:"reason,omitempty" description:"Reason for the leave."`
}

type cancelLeaveForInput struct {
	EmployeeID string `json:"employee_id" description:"Employee whose leave is canceled."`
	LeaveID    string `json:"leave_id" description:"ID of the leave request to cancel."`
}

type approveAttendanceInput struct {
	EmployeeID   string `json:"employee_id" description:"Employee whose correction is approved."`
	CorrectionID string `json:"correction_id" description:"ID of the attendance correction."`
}

type actionResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
}

// requireAdmin checks that the ambient caller may use admin tools.
func requireAdmin(ctx context.Context) error {
	caller, ok := identity.FromContext(ctx)
	if !ok {
		return identity.ErrNoIdentity
	}
	if !caller.Admin {
		return fmt.Errorf("%w: employee %s", ErrAdminRequired, caller.EmployeeID)
	}
	return nil
}

// NewToolSet builds the assistant's tool registry over the HRMS client.
// Read-only self-service tools run without approval; anything that writes to
// the HRMS is sensitive, and admin tools acting on another employee need two
// approvals.
func NewToolSet(client Client) (*tool.Registry, error) {
	if client == nil {
		return nil, errors.New("tool set requires an HRMS client")
	}
	registry := tool.NewRegistry()

	employeeInfo := function.New(
		func(ctx context.Context, _ emptyInput) (*Employee, error) {
			employeeID, err := identity.Resolve(ctx, "", false)
			if err != nil {
				return nil, err
			}
			return client.GetEmployee(ctx, employeeID)
		},
		function.WithName(ToolEmployeeInfo),
		function.WithDescription("Look up the calling employee's own HR record."),
	)

	leaveBalance := function.New(
		func(ctx context.Context, _ emptyInput) ([]LeaveBalance, error) {
			employeeID, err := identity.Resolve(ctx, "", false)
			if err != nil {
				return nil, err
			}
			return client.GetLeaveBalance(ctx, employeeID)
		},
		function.WithName(ToolLeaveBalance),
		function.WithDescription("Look up the calling employee's remaining leave balances."),
	)

	applyForLeave := function.New(
		func(ctx context.Context, in applyLeaveInput) (*actionResult, error) {
			employeeID, err := identity.Resolve(ctx, "", false)
			if err != nil {
				return nil, err
			}
			req, err := client.SubmitLeave(ctx, &LeaveRequest{
				EmployeeID: employeeID,
				LeaveType:  in.LeaveType,
				StartDate:  in.StartDate,
				EndDate:    in.EndDate,
				Reason:     in.Reason,
			})
			if err != nil {
				return nil, err
			}
			return &actionResult{
				Status:  req.Status,
				Message: fmt.Sprintf("leave request %s filed for %s to %s", req.ID, req.StartDate, req.EndDate),
				ID:      req.ID,
			}, nil
		},
		function.WithName(ToolApplyForLeave),
		function.WithDescription("File a leave request for the calling employee."),
	)

	applyAttendance := function.New(
		func(ctx context.Context, in applyAttendanceInput) (*actionResult, error) {
			employeeID, err := identity.Resolve(ctx, "", false)
			if err != nil {
				return nil, err
			}
			req, err := client.SubmitAttendanceCorrection(ctx, &AttendanceCorrection{
				EmployeeID: employeeID,
				Date:       in.Date,
				ClockIn:    in.ClockIn,
				ClockOut:   in.ClockOut,
				Reason:     in.Reason,
			})
			if err != nil {
				return nil, err
			}
			return &actionResult{
				Status:  req.Status,
				Message: fmt.Sprintf("attendance correction %s filed for %s", req.ID, req.Date),
				ID:      req.ID,
			}, nil
		},
		function.WithName(ToolApplyAttendance),
		function.WithDescription("File an attendance correction for the calling employee."),
	)

	applyLeaveFor := function.New(
		func(ctx context.Context, in applyLeaveForInput) (*actionResult, error) {
			if err := requireAdmin(ctx); err != nil {
				return nil, err
			}
			employeeID, err := identity.Resolve(ctx, in.EmployeeID, true)
			if err != nil {
				return nil, err
			}
			req, err := client.SubmitLeave(ctx, &LeaveRequest{
				EmployeeID: employeeID,
				LeaveType:  in.LeaveType,
				StartDate:  in.StartDate,
				EndDate:    in.EndDate,
				Reason:     in.Reason,
			})
			if err != nil {
				return nil, err
			}
			return &actionResult{
				Status:  req.Status,
				Message: fmt.Sprintf("leave request %s filed for employee %s", req.ID, employeeID),
				ID:      req.ID,
			}, nil
		},
		function.WithName(ToolApplyLeaveFor),
		function.WithDescription("File a leave request on behalf of another employee. Admin only."),
	)

	cancelLeaveFor := function.New(
		func(ctx context.Context, in cancelLeaveForInput) (*actionResult, error) {
			if err := requireAdmin(ctx); err != nil {
				return nil, err
			}
			employeeID, err := identity.Resolve(ctx, in.EmployeeID, true)
			if err != nil {
				return nil, err
			}
			if err := client.CancelLeave(ctx, employeeID, in.LeaveID); err != nil {
				return nil, err
			}
			return &actionResult{
				Status:  StatusCanceled,
				Message: fmt.Sprintf("leave request %s canceled for employee %s", in.LeaveID, employeeID),
				ID:      in.LeaveID,
			}, nil
		},
		function.WithName(ToolCancelLeaveFor),
		function.WithDescription("Cancel another employee's leave request. Admin only."),
	)

	approveAttendance := function.New(
		func(ctx context.Context, in approveAttendanceInput) (*actionResult, error) {
			if err := requireAdmin(ctx); err != nil {
				return nil, err
			}
			employeeID, err := identity.Resolve(ctx, in.EmployeeID, true)
			if err != nil {
				return nil, err
			}
			if err := client.ApproveAttendance(ctx, employeeID, in.CorrectionID); err != nil {
				return nil, err
			}
			return &actionResult{
				Status:  StatusApproved,
				Message: fmt.Sprintf("attendance correction %s approved for employee %s", in.CorrectionID, employeeID),
				ID:      in.CorrectionID,
			}, nil
		},
		function.WithName(ToolApproveAttendance),
		function.WithDescription("Approve another employee's attendance correction. Admin only."),
	)

	type registration struct {
		t    tool.CallableTool
		opts []tool.RegisterOption
	}
	for _, reg := range []registration{
		{t: employeeInfo},
		{t: leaveBalance},
		{t: applyForLeave, opts: []tool.RegisterOption{tool.WithSensitive()}},
		{t: applyAttendance, opts: []tool.RegisterOption{tool.WithSensitive()}},
		{t: applyLeaveFor, opts: []tool.RegisterOption{tool.WithApprovalSteps(2), tool.WithAdmin()}},
		{t: cancelLeaveFor, opts: []tool.RegisterOption{tool.WithApprovalSteps(2), tool.WithAdmin()}},
		{t: approveAttendance, opts: []tool.RegisterOption{tool.WithApprovalSteps(2), tool.WithAdmin()}},
	} {
		if err := registry.Register(reg.t, reg.opts...); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
