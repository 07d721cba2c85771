package transcription

import (
	"encoding/json"

	"bitbucket.org/airenas/speechjobs/internal/app/transcription/api"
	"bitbucket.org/airenas/speechjobs/internal/pkg/cmdapp"
)

//Normalize returns a copy of the job with the json field set to the serialized job if includeJSON,
// otherwise with the field cleared
func Normalize(job *api.Job, includeJSON bool) *api.Job {
	res := *job
	res.JSON = ""
	if includeJSON {
		b, err := json.Marshal(&res)
		if err != nil {
			cmdapp.Log.Error(err)
			return &res
		}
		res.JSON = string(b)
	}
	return &res
}
