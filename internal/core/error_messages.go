package core

// error_messages.go maps technical errors to user-facing messages with a
// support code. Users quote the code; support looks it up here.
//
// # Reconciliation Errors
//
//	HDR001 - Header row not found in the first rows of a file
//	         Action: Check the right file was uploaded for each side
//	COL001 - A required column could not be matched
//	         Action: Rename the column or pick another profile
//
// # Profile Errors
//
//	PRF001 - Unknown profile
//	PRF002 - Profile document is invalid
//
// # File Errors
//
//	FILE001 - File too large
//	FILE002 - Unsupported file type (xlsx, xlsm, xls, csv, txt)
//	FILE003 - Encoding error
//	FILE004 - No file provided
//	FILE005 - Empty file
//	FILE006 - Workbook could not be read
//
// # Run Errors
//
//	UPL002 - Too many concurrent reconciliations
//	UPL004 - Request cancelled
//	UPL005 - Request timed out
//	RUN001 - Run not found (expired or never existed)
//
// # Infrastructure
//
//	DB004-DB006 - Database connection problems while saving history
//	RATE001     - Rate limited
//	ERR000      - Anything else; check the logs for the original error
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import "strings"

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Reconciliation
	{
		pattern: "header row not found",
		msg: UserMessage{
			Message: "Could not find the header row in the uploaded file",
			Action:  "Check that the timesheet and payroll files were not swapped and match the selected profile",
			Code:    "HDR001",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "A required column is missing from the uploaded file",
			Action:  "Compare the available columns with the profile aliases, or choose another profile",
			Code:    "COL001",
		},
	},

	// Profiles
	{
		pattern: "unknown profile",
		msg: UserMessage{
			Message: "Unknown reconciliation profile",
			Action:  "Pick one of the listed profiles",
			Code:    "PRF001",
		},
	},
	{
		pattern: "invalid profile",
		msg: UserMessage{
			Message: "The reconciliation profile is invalid",
			Action:  "Fix the profile document and restart the service",
			Code:    "PRF002",
		},
	},

	// Files
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Remove unused sheets or split the export",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "File type is not supported",
			Action:  "Upload an Excel workbook (.xlsx, .xls) or a CSV export",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save the file as UTF-8 or Latin-1 CSV, or as an Excel workbook",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "A file was not selected",
			Action:  "Select both a timesheet and a payroll file",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with a header row and employee rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "read workbook",
		msg: UserMessage{
			Message: "The workbook could not be read",
			Action:  "Open and re-save the file in Excel, then upload it again",
			Code:    "FILE006",
		},
	},

	// Runs
	{
		pattern: "too many concurrent",
		msg: UserMessage{
			Message: "System is busy processing other reconciliations",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try smaller files or try again later",
			Code:    "UPL005",
		},
	},
	{
		pattern: "run not found",
		msg: UserMessage{
			Message: "Reconciliation run not found",
			Action:  "The run may have expired. Please reconcile the files again",
			Code:    "RUN001",
		},
	},

	// Infrastructure
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the generic ERR000 message is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	text := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(text, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// IsUserFacing reports whether err matches a known pattern rather than
// falling back to ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
