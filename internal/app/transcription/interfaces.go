package transcription

import (
	"context"

	"bitbucket.org/airenas/speechjobs/internal/app/transcription/api"
	"bitbucket.org/airenas/speechjobs/internal/pkg/callback"
)

//JobCreator sends jobs to the transcription API
type JobCreator interface {
	CreateJob(ctx context.Context, token string, payload *api.JobPayload) (*api.Job, error)
}

//AuthChecker validates API credentials
type AuthChecker interface {
	CheckAuth(ctx context.Context, token string) error
}

//CallbackProvider issues single use callback endpoints
type CallbackProvider interface {
	Register(includeJSON bool) (*callback.Endpoint, error)
	Bind(token, jobID string) error
	Release(token string)
}

//CallbackConsumer resolves callback tokens to the submission context
type CallbackConsumer interface {
	Consume(token string) (*callback.Entry, error)
}

//ResultSender delivers terminal outcomes to the caller
type ResultSender interface {
	Send(res *api.Result) error
}
