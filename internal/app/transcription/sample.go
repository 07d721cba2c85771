package transcription

import (
	"encoding/json"

	"bitbucket.org/airenas/speechjobs/internal/app/transcription/api"
)

//SampleJobID is the ID of the dry-run job
const SampleJobID = "00000000-1111-7222-b333-444444444444-sic"

// newSampleJob builds a new sample on each call, the segment add-on fields follow the request flags
func newSampleJob(req *api.SubmissionRequest, payload *api.JobPayload) *api.Job {
	seg := api.Segment{
		ID:                    1,
		Start:                 1.234,
		End:                   12.345,
		Seek:                  1234.5,
		Text:                  "This is an example of some transcribed text output.",
		Confidence:            1.0,
		Language:              "en (99.95%)",
		ProcessingDurationInS: 0.321,
	}
	if req.CanLabelAudio {
		seg.Label = strPtr("speech")
	}
	if req.CanParseSpeakers {
		seg.SpeakerID = strPtr("A")
	}
	if req.CanParseWords {
		seg.Words = []api.Word{{Text: "This", Start: 1.234, End: 1.345}}
	}
	rb, _ := json.Marshal(payload)
	return &api.Job{
		ID:     SampleJobID,
		Status: api.StatusCompleted,
		Output: &api.Output{Request: rb, Segments: []api.Segment{seg}},
	}
}

func strPtr(s string) *string {
	return &s
}
