package transcription

import (
	"strings"

	"bitbucket.org/airenas/speechjobs/internal/app/transcription/api"
	errc "bitbucket.org/airenas/speechjobs/internal/pkg/err"
)

//Validate returns all violations of the request, nil if request is valid
func Validate(req *api.SubmissionRequest) []string {
	var res []string
	if req.SegmentDuration < 6 || req.SegmentDuration > 30 {
		res = append(res, "- Segment duration must be between 6 and 30 seconds (inclusive).")
	}
	if req.MinimumConfidence < 0 || req.MinimumConfidence > 1 {
		res = append(res, "- Minimum confidence must be between 0.0 and 1.0 (inclusive).")
	}
	return res
}

func validate(req *api.SubmissionRequest) error {
	if v := Validate(req); len(v) > 0 {
		return errc.ConfigurationError(strings.Join(v, "\n"))
	}
	return nil
}
