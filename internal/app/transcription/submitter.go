package transcription

import (
	"context"

	"bitbucket.org/airenas/speechjobs/internal/app/transcription/api"
	"bitbucket.org/airenas/speechjobs/internal/pkg/cmdapp"
	"bitbucket.org/airenas/speechjobs/internal/pkg/utils"
	"github.com/pkg/errors"
)

//Submitter validates requests and starts transcription jobs
type Submitter struct {
	creator   JobCreator
	callbacks CallbackProvider
}

//NewSubmitter creates submitter
func NewSubmitter(creator JobCreator, callbacks CallbackProvider) (*Submitter, error) {
	if creator == nil {
		return nil, errors.New("No job creator")
	}
	if callbacks == nil {
		return nil, errors.New("No callback provider")
	}
	return &Submitter{creator: creator, callbacks: callbacks}, nil
}

//Submit starts the job and returns it in pending state.
// If sample is set no API call is made, a completed sample job is returned.
func (s *Submitter) Submit(ctx context.Context, req *api.SubmissionRequest, sample bool) (*api.Job, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	payload := Sanitize(req)
	if sample {
		cmdapp.Log.Info("Returning sample job")
		return Normalize(newSampleJob(req, payload), req.CanIncludeJSON), nil
	}

	ep, err := s.callbacks.Register(req.CanIncludeJSON)
	if err != nil {
		return nil, errors.Wrap(err, "Can't register callback")
	}
	payload.WebhookURL = ep.URL
	cmdapp.Log.Infof("Starting job for %s, callback: %s", req.InputURL, utils.URLToLog(ep.URL))

	job, err := s.creator.CreateJob(ctx, req.Token, payload)
	if err != nil {
		s.callbacks.Release(ep.Token)
		return nil, err
	}
	if err := s.callbacks.Bind(ep.Token, job.ID); err != nil {
		cmdapp.Log.Warn(errors.Wrapf(err, "Can't bind job %s", job.ID))
	}
	return job, nil
}

//Sanitize copies the API fields of the request, routing fields are left out
func Sanitize(req *api.SubmissionRequest) *api.JobPayload {
	return &api.JobPayload{
		InputURL:          req.InputURL,
		MinimumConfidence: req.MinimumConfidence,
		SegmentDuration:   req.SegmentDuration,
		CanParseSpeakers:  req.CanParseSpeakers,
		CanParseWords:     req.CanParseWords,
		CanLabelAudio:     req.CanLabelAudio,
		Hotwords:          req.Hotwords,
		Prompt:            req.Prompt,
		Language:          req.Language,
	}
}
