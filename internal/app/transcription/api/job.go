package api

import "encoding/json"

//Status is a job status reported by the API
type Status string

const (
	//StatusCompleted - job finished with segments
	StatusCompleted Status = "COMPLETED"
	//StatusFailed - job finished with error
	StatusFailed Status = "FAILED"
	//StatusCanceled - job was canceled
	StatusCanceled Status = "CANCELED"
)

//Job is a remote transcription job
type Job struct {
	ID     string  `json:"id"`
	Status Status  `json:"status,omitempty"`
	Output *Output `json:"output,omitempty"`
	JSON   string  `json:"json,omitempty"`
	// Extra keeps delivered fields the service does not know, they are written back as is
	Extra map[string]json.RawMessage `json:"-"`
}

type plainJob Job

var jobFields = []string{"id", "status", "output", "json"}

//UnmarshalJSON decodes the job and collects unknown fields into Extra
func (j *Job) UnmarshalJSON(b []byte) error {
	var res plainJob
	if err := json.Unmarshal(b, &res); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for _, k := range jobFields {
		delete(raw, k)
	}
	if len(raw) > 0 {
		res.Extra = raw
	}
	*j = Job(res)
	return nil
}

//MarshalJSON encodes the job together with Extra fields
func (j Job) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(plainJob(j))
	if err != nil || len(j.Extra) == 0 {
		return b, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	for k, v := range j.Extra {
		if _, ok := raw[k]; !ok {
			raw[k] = v
		}
	}
	return json.Marshal(raw)
}

//Output holds either segments or error, request is the echo of the submitted payload.
// Segments are written whenever they are not nil, so an empty result keeps "segments":[]
type Output struct {
	Request  json.RawMessage `json:"request,omitempty"`
	Segments []Segment       `json:"segments,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type plainOutput Output

//MarshalJSON encodes the output
func (o Output) MarshalJSON() ([]byte, error) {
	if o.Segments == nil {
		return json.Marshal(plainOutput(o))
	}
	return json.Marshal(struct {
		plainOutput
		Segments []Segment `json:"segments"`
	}{plainOutput: plainOutput(o), Segments: o.Segments})
}

//Segment is a time slice of transcribed audio
type Segment struct {
	ID                    int     `json:"id"`
	Start                 float64 `json:"start"`
	End                   float64 `json:"end"`
	Seek                  float64 `json:"seek"`
	Text                  string  `json:"text"`
	Confidence            float64 `json:"confidence"`
	Language              string  `json:"language"`
	ProcessingDurationInS float64 `json:"processing_duration_in_s"`
	Label                 *string `json:"label,omitempty"`
	SpeakerID             *string `json:"speaker_id,omitempty"`
	Words                 []Word  `json:"words"`
}

//Word is a word with timecodes
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}
