package client

import (
	"errors"
)

// Messages shown to the user.
const (
	MsgNoFile          = "Please select a file"
	MsgFileTooLarge    = "File size must be less than 100MB"
	MsgProcessing      = "Processing failed"
	networkErrorPrefix = "Network error: "
)

var (
	// ErrNoFile is returned when a submission is attempted without a selection.
	ErrNoFile = &ValidationError{Message: MsgNoFile}
	// ErrFileTooLarge is returned for selections of MaxFileSize bytes or more.
	ErrFileTooLarge = &ValidationError{Message: MsgFileTooLarge}

	// ErrBusy is returned when a submission is already in flight.
	ErrBusy = errors.New("submission already in progress")
	// ErrDetached is returned when the controller has no view.
	ErrDetached = errors.New("controller is not attached to a view")
)

// ValidationError is a local rejection; no request was made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// RequestError is a failed exchange with the server. Err is set for
// transport and decode failures and nil when the server answered with
// success=false.
type RequestError struct {
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return networkErrorPrefix + e.Err.Error()
	}
	if e.Message == "" {
		return MsgProcessing
	}
	return e.Message
}

func (e *RequestError) Unwrap() error { return e.Err }

// ErrorText maps any submission error to the text shown in the error panel.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var rerr *RequestError
	if errors.As(err, &rerr) {
		return rerr.Error()
	}
	return networkErrorPrefix + err.Error()
}

// ValidateFile checks a selection before it is accepted.
func ValidateFile(f *File) error {
	if f == nil {
		return ErrNoFile
	}
	if f.Size >= MaxFileSize {
		return ErrFileTooLarge
	}
	return nil
}
