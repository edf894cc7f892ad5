package api_test

import (
	"testing"

	"github.com/kode4food/signoff/internal/assert"
	"github.com/kode4food/signoff/internal/assert/helpers"
	"github.com/kode4food/signoff/pkg/api"
)

func TestRequestValidation(t *testing.T) {
	as := assert.New(t)

	tests := []struct {
		request       *api.ApprovalRequest
		name          string
		errorContains string
		expectError   bool
	}{
		{
			name:        "valid_request",
			request:     helpers.NewTestRequest(),
			expectError: false,
		},
		{
			name: "missing_request_id",
			request: &api.ApprovalRequest{
				User:   "张三",
				Amount: 500,
			},
			expectError:   true,
			errorContains: "request ID empty",
		},
		{
			name: "missing_user",
			request: &api.ApprovalRequest{
				RequestID: "REQ002",
				Amount:    500,
			},
			expectError:   true,
			errorContains: "user empty",
		},
		{
			name: "negative_amount",
			request: &api.ApprovalRequest{
				RequestID: "REQ003",
				User:      "李四",
				Amount:    -1,
			},
			expectError:   true,
			errorContains: "amount negative",
		},
		{
			name: "zero_amount_allowed",
			request: &api.ApprovalRequest{
				RequestID: "REQ004",
				User:      "李四",
				Amount:    0,
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.expectError {
				as.Error(err)
				as.Contains(err.Error(), tt.errorContains)
				return
			}
			as.NoError(err)
		})
	}
}

func TestRequestToArgs(t *testing.T) {
	as := assert.New(t)

	t.Run("seeds_request_fields", func(t *testing.T) {
		req := helpers.NewTestRequest()
		args := req.ToArgs()

		as.Equal("REQ001", args.GetString(api.ArgRequestID, ""))
		as.Equal("张三", args.GetString(api.ArgUser, ""))
		as.Equal(12000.0, args.GetFloat(api.ArgAmount, 0))
		as.Equal("采购高性能服务器", args.GetString(api.ArgReason, ""))
		as.True(args.GetBool(api.ArgUrgent, false))
		as.NotContains(args, api.ArgSimulateError)
	})

	t.Run("carries_simulated_error", func(t *testing.T) {
		req := helpers.NewTestRequest()
		req.SimulateError = "manager"
		args := req.ToArgs()

		as.Equal("manager", args.GetString(api.ArgSimulateError, ""))
	})
}
