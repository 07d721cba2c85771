package api

const (
	//DefaultMinimumConfidence is used when request does not provide minimum_confidence
	DefaultMinimumConfidence = 0.5
	//DefaultSegmentDuration is used when request does not provide segment_duration
	DefaultSegmentDuration = 30
)

//SubmissionRequest is a transcription request as received from the caller
type SubmissionRequest struct {
	InputURL          string  `json:"input_url"`
	MinimumConfidence float64 `json:"minimum_confidence"`
	SegmentDuration   int     `json:"segment_duration"`
	CanParseSpeakers  bool    `json:"can_parse_speakers"`
	CanParseWords     bool    `json:"can_parse_words"`
	CanLabelAudio     bool    `json:"can_label_audio"`
	Hotwords          *string `json:"hotwords"`
	Prompt            *string `json:"prompt"`
	Language          *string `json:"language"`

	// routing only, never sent to the API
	CanIncludeJSON bool   `json:"can_include_json"`
	Token          string `json:"token"`
}

//NewSubmissionRequest returns request with default values set
func NewSubmissionRequest() *SubmissionRequest {
	return &SubmissionRequest{MinimumConfidence: DefaultMinimumConfidence, SegmentDuration: DefaultSegmentDuration}
}

//JobPayload is the body of the job creation call
type JobPayload struct {
	InputURL          string  `json:"input_url"`
	MinimumConfidence float64 `json:"minimum_confidence"`
	SegmentDuration   int     `json:"segment_duration"`
	CanParseSpeakers  bool    `json:"can_parse_speakers"`
	CanParseWords     bool    `json:"can_parse_words"`
	CanLabelAudio     bool    `json:"can_label_audio"`
	Hotwords          *string `json:"hotwords"`
	Prompt            *string `json:"prompt"`
	Language          *string `json:"language"`
	WebhookURL        string  `json:"webhook_url,omitempty"`
}
