package sheets

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// ErrorKind classifies a failed range read.
type ErrorKind int

const (
	KindRemote ErrorKind = iota
	KindNotFound
	KindPermissionDenied
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	}
	return "remote"
}

// RemoteError is returned by Load when the range read fails.
type RemoteError struct {
	Kind          ErrorKind
	SpreadsheetID string
	Range         string
	Err           error
}

func (e *RemoteError) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("sheets: spreadsheet %q range %q not found or not shared with the service account", e.SpreadsheetID, e.Range)
	case KindPermissionDenied:
		return fmt.Sprintf("sheets: access denied to spreadsheet %q; share it with the service account", e.SpreadsheetID)
	}
	return fmt.Sprintf("sheets: read %q range %q: %v", e.SpreadsheetID, e.Range, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// classifyRemoteError wraps err into a *RemoteError keyed on the HTTP status.
func classifyRemoteError(err error, spreadsheetID, rangeName string) *RemoteError {
	var re *RemoteError
	if errors.As(err, &re) {
		return re
	}
	kind := KindRemote
	switch statusCode(err) {
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusForbidden:
		kind = KindPermissionDenied
	}
	return &RemoteError{Kind: kind, SpreadsheetID: spreadsheetID, Range: rangeName, Err: err}
}

// statusCode extracts the HTTP status of a Google API error, or 0.
func statusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}
