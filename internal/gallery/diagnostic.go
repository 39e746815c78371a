package gallery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_gallery/internal/engine/sheets"
)

// Level is the severity shown to the user.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Diagnostic is a user-facing explanation of why nothing (or less) was shown.
type Diagnostic struct {
	Level  Level  `json:"level"`
	Code   string `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

// NoData is reported when the range loaded but holds nothing usable.
func NoData(spreadsheetID, rangeName string) Diagnostic {
	return Diagnostic{
		Level:  LevelWarning,
		Code:   "no_data",
		Title:  "No data found in the sheet.",
		Detail: fmt.Sprintf("Range %q of spreadsheet %s is empty or has no header row.", rangeName, spreadsheetID),
		Hint:   "The first row must hold the column names, starting with URL.",
	}
}

// NoSheetID is the prompt shown before the user has entered anything.
func NoSheetID() Diagnostic {
	return Diagnostic{
		Level: LevelInfo,
		Code:  "no_sheet_id",
		Title: "Enter your Google Sheet ID to get started.",
		Hint:  "The ID is the long string between /d/ and /edit in the sheet's URL.",
	}
}

// Diagnose maps a load error to a specific, actionable message.
// serviceEmail, when known, is named in sharing hints.
func Diagnose(err error, serviceEmail string) Diagnostic {
	shareWith := "the service account's client_email"
	if serviceEmail != "" {
		shareWith = serviceEmail
	}

	var ce *sheets.CredentialError
	if errors.As(err, &ce) {
		d := Diagnostic{Level: LevelError, Code: "credentials_" + string(ce.Stage), Detail: ce.Error()}
		switch ce.Stage {
		case sheets.StageMissingSecret:
			d.Title = "No credentials found."
			d.Hint = "Set GCP_SERVICE_ACCOUNT_JSON to the full service-account JSON, or GCP_SERVICE_ACCOUNT_FILE to its path."
		case sheets.StageMalformedJSON:
			d.Title = "Error parsing JSON credentials."
			d.Hint = "Make sure the secret holds the whole key file, unmodified, and is valid JSON."
		case sheets.StageMissingFields:
			d.Title = "Credentials are missing required fields: " + strings.Join(ce.Missing, ", ") + "."
			d.Hint = "Download a fresh key for the service account and paste the complete file."
		case sheets.StageMalformedKey:
			d.Title = "The private_key in the credentials is malformed."
			d.Hint = "The key must keep its BEGIN/END PRIVATE KEY lines and real line breaks; avoid escaping it twice."
		}
		return d
	}

	var re *sheets.RemoteError
	if errors.As(err, &re) {
		switch re.Kind {
		case sheets.KindNotFound:
			return Diagnostic{
				Level:  LevelError,
				Code:   "not_found",
				Title:  "Spreadsheet not found or not accessible to the service account.",
				Detail: re.Error(),
				Hint:   "Check the sheet ID and tab name, and share the sheet with " + shareWith + ".",
			}
		case sheets.KindPermissionDenied:
			return Diagnostic{
				Level:  LevelError,
				Code:   "permission_denied",
				Title:  "Access denied.",
				Detail: re.Error(),
				Hint:   "Share the spreadsheet with " + shareWith + " (Viewer is enough).",
			}
		}
		return Diagnostic{
			Level:  LevelError,
			Code:   "remote_error",
			Title:  "Error loading sheet data.",
			Detail: fmt.Sprintf("%+v", re.Err),
		}
	}

	if errors.Is(err, sheets.ErrNoSpreadsheetID) {
		return NoSheetID()
	}

	return Diagnostic{
		Level:  LevelError,
		Code:   "unexpected",
		Title:  "Error connecting to Google Sheets.",
		Detail: fmt.Sprintf("%+v", err),
	}
}
