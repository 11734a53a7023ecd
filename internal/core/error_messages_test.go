package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name: "header not found maps correctly",
			err: &HeaderNotFoundError{
				Source:      SourceTimesheet,
				Searched:    [][]string{{"NCIN"}},
				RowsScanned: 30,
			},
			wantCode:    "HDR001",
			wantMessage: "Could not find the header row in the uploaded file",
		},
		{
			name: "missing column maps correctly",
			err: &MissingColumnError{
				Source:    SourcePayroll,
				Role:      RoleHoursWorked,
				Aliases:   []string{"JRS & HRS"},
				Available: []string{"NCIN", "NOM"},
			},
			wantCode:    "COL001",
			wantMessage: "A required column is missing from the uploaded file",
		},
		{
			name:        "unknown profile maps correctly",
			err:         fmt.Errorf("%w: nope", ErrUnknownProfile),
			wantCode:    "PRF001",
			wantMessage: "Unknown reconciliation profile",
		},
		{
			name:        "invalid profile maps correctly",
			err:         fmt.Errorf("%w %q:\n  - key is required", ErrInvalidProfile, ""),
			wantCode:    "PRF002",
			wantMessage: "The reconciliation profile is invalid",
		},
		{
			name:        "file too large maps correctly",
			err:         errors.New("file too large: 60MB exceeds limit"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum size limit",
		},
		{
			name:        "unsupported type maps correctly",
			err:         errors.New("payroll: unsupported file type .pdf"),
			wantCode:    "FILE002",
			wantMessage: "File type is not supported",
		},
		{
			name:        "busy maps correctly",
			err:         ErrTooManyRuns,
			wantCode:    "UPL002",
			wantMessage: "System is busy processing other reconciliations",
		},
		{
			name:        "deadline maps before generic timeout",
			err:         fmt.Errorf("load: %w (timeout)", context.DeadlineExceeded),
			wantCode:    "UPL005",
			wantMessage: "Request timed out",
		},
		{
			name:        "run not found maps correctly",
			err:         ErrRunNotFound,
			wantCode:    "RUN001",
			wantMessage: "Reconciliation run not found",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("HEADER ROW NOT FOUND"),
			wantCode:    "HDR001",
			wantMessage: "Could not find the header row in the uploaded file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  errors.New("missing required column"),
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

// contains checks if s contains substr
func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(s) > 0 && containsHelper(s, substr))
}

func containsHelper(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
