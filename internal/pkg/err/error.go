package err

import (
	"net/http"

	"github.com/pkg/errors"
)

//Kind classifies a failure of the transcription flow
type Kind string

const (
	//KindConfiguration - invalid input parameters, detected before any network call
	KindConfiguration Kind = "TranscriptionConfigurationError"
	//KindTranscription - failure reported by the remote service or reaching it
	KindTranscription Kind = "TranscriptionError"
	//KindJobCreation - job accepted but no usable ID returned
	KindJobCreation Kind = "JobCreationError"
	//KindWebhook - callback delivered an unknown status
	KindWebhook Kind = "WebhookError"
	//KindService is used for untyped errors
	KindService Kind = "ServiceError"
)

//Error is a classified error with a http status hint
type Error struct {
	Kind   Kind
	Msg    string
	Status int
}

func (e *Error) Error() string {
	return e.Msg
}

//ClientFault returns true if status hints a caller side problem
func (e *Error) ClientFault() bool {
	return e.Status >= 400 && e.Status < 500
}

//New creates classified error
func New(kind Kind, msg string, status int) *Error {
	return &Error{Kind: kind, Msg: msg, Status: status}
}

//ConfigurationError creates invalid input error
func ConfigurationError(msg string) *Error {
	return New(KindConfiguration, msg, http.StatusBadRequest)
}

//TranscriptionError creates transcription error with status
func TranscriptionError(msg string, status int) *Error {
	return New(KindTranscription, msg, status)
}

//JobCreationError creates server-fault job creation error
func JobCreationError(msg string) *Error {
	return New(KindJobCreation, msg, http.StatusInternalServerError)
}

//WebhookError creates unexpected callback error
func WebhookError(msg string) *Error {
	return New(KindWebhook, msg, http.StatusBadRequest)
}

//From extracts *Error from the err chain, returns nil if there is no one
func From(err error) *Error {
	var res *Error
	if errors.As(err, &res) {
		return res
	}
	if e, ok := errors.Cause(err).(*Error); ok {
		return e
	}
	return nil
}

//KindOf returns the error kind, KindService for untyped errors
func KindOf(err error) Kind {
	if e := From(err); e != nil {
		return e.Kind
	}
	return KindService
}

//StatusOf returns the http status hint, 500 for untyped errors
func StatusOf(err error) int {
	if e := From(err); e != nil && e.Status > 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}
