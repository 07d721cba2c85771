package transcription

import (
	"encoding/json"

	"bitbucket.org/airenas/speechjobs/internal/app/transcription/api"
	errc "bitbucket.org/airenas/speechjobs/internal/pkg/err"
	"github.com/pkg/errors"
)

// added by the callback transport, not a part of the job
const queryStringField = "querystring"

//ParseCallback decodes the callback body into a job
func ParseCallback(body []byte) (*api.Job, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errc.WebhookError(errors.Wrap(err, "Can't decode callback").Error())
	}
	delete(raw, queryStringField)
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.Wrap(err, "Can't encode callback")
	}
	var res api.Job
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, errc.WebhookError(errors.Wrap(err, "Can't decode job").Error())
	}
	return &res, nil
}

//Resume resolves the delivered job into the final result
func Resume(job *api.Job, includeJSON bool) (*api.Job, error) {
	switch job.Status {
	case api.StatusCompleted:
		if job.Output == nil || job.Output.Segments == nil {
			job = withSegments(job)
		}
		return Normalize(job, includeJSON), nil
	case api.StatusFailed:
		msg := ""
		if job.Output != nil {
			msg = job.Output.Error
		}
		if msg == "" {
			msg = "Transcription job failed with an unknown error"
		}
		return nil, errc.TranscriptionError(msg, 400)
	case api.StatusCanceled:
		return nil, errc.TranscriptionError("Transcription job was canceled", 400)
	}
	return nil, errc.WebhookError("Received unexpected job status from webhook: " + string(job.Status))
}

// completed job always reports segments, even none
func withSegments(job *api.Job) *api.Job {
	res := *job
	out := api.Output{}
	if job.Output != nil {
		out = *job.Output
	}
	out.Segments = []api.Segment{}
	res.Output = &out
	return &res
}
