package transcriberapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bitbucket.org/airenas/speechjobs/internal/app/transcription/api"
	"bitbucket.org/airenas/speechjobs/internal/pkg/cmdapp"
	errc "bitbucket.org/airenas/speechjobs/internal/pkg/err"
	"bitbucket.org/airenas/speechjobs/internal/pkg/utils"
	"github.com/pkg/errors"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	//DefaultJobsURL is the Speech is Cheap jobs endpoint
	DefaultJobsURL = "https://api.speechischeap.com/v2/jobs/"

	defaultStartErr = "Failed to start a transcription job"
	noIDErr         = "Transcription job initiated, but no job ID was returned."
	maxErrBody      = 1 << 16
)

//Client comunicates with Speech is Cheap jobs API
type Client struct {
	httpclient *retryablehttp.Client
	jobsURL    string
	authURL    string
}

//NewClient creates a client from config
func NewClient() (*Client, error) {
	cmdapp.Config.SetDefault("sic.url", DefaultJobsURL)
	res := Client{}
	var err error
	res.jobsURL, err = utils.GetURLFromConfig("sic.url")
	if err != nil {
		return nil, err
	}
	res.authURL = utils.URLJoin(res.jobsURL, "auth")
	if cmdapp.Config.GetString("sic.authURL") != "" {
		res.authURL, err = utils.GetURLFromConfig("sic.authURL")
		if err != nil {
			return nil, err
		}
	}
	cmdapp.Config.SetDefault("sic.retries", 3)
	res.httpclient = newHTTPClient(&http.Client{Timeout: utils.GetDurationFromConfig("sic.timeout", 30*time.Second)},
		cmdapp.Config.GetInt("sic.retries"))
	cmdapp.Log.Infof("Jobs URL: %s, auth URL: %s", res.jobsURL, res.authURL)
	return &res, nil
}

func newHTTPClient(hc *http.Client, retries int) *retryablehttp.Client {
	res := retryablehttp.NewClient()
	res.HTTPClient = hc
	res.RetryMax = retries
	res.RetryWaitMin = 200 * time.Millisecond
	res.RetryWaitMax = 2 * time.Second
	res.Logger = cmdapp.Log
	return res
}

//JobsURL returns configured jobs URL
func (sp *Client) JobsURL() string {
	return sp.jobsURL
}

type errorResponse struct {
	Error string `json:"error"`
}

//CreateJob posts the job. The call is never retried: a repeated POST may start a second paid job.
func (sp *Client) CreateJob(ctx context.Context, token string, payload *api.JobPayload) (*api.Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "Can't marshal payload")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sp.jobsURL, bytes.NewReader(body))
	if err != nil {
		return nil, errc.TranscriptionError(errMsg(err, defaultStartErr), http.StatusBadRequest)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	cmdapp.Log.Infof("Sending job to: %s", sp.jobsURL)
	resp, err := sp.httpclient.HTTPClient.Do(req)
	if err != nil {
		return nil, errc.TranscriptionError(errMsg(err, defaultStartErr), http.StatusBadRequest)
	}
	defer resp.Body.Close()

	respBody, err := utils.ReadBody(resp.Body, maxErrBody)
	if err != nil {
		return nil, errc.TranscriptionError(errMsg(err, defaultStartErr), http.StatusBadRequest)
	}
	if resp.StatusCode != http.StatusAccepted {
		var er errorResponse
		_ = json.Unmarshal(respBody, &er)
		msg := er.Error
		if msg == "" {
			msg = fmt.Sprintf("API returned status %d", resp.StatusCode)
		}
		return nil, errc.TranscriptionError(msg, resp.StatusCode)
	}
	var job api.Job
	if err := json.Unmarshal(respBody, &job); err != nil || job.ID == "" {
		if err != nil {
			cmdapp.Log.Warn(errors.Wrap(err, "Can't decode job response"))
		}
		return nil, errc.JobCreationError(noIDErr)
	}
	cmdapp.Log.Infof("Job accepted: %s", job.ID)
	return &job, nil
}

//CheckAuth validates the token, any non 2xx response means invalid credentials
func (sp *Client) CheckAuth(ctx context.Context, token string) error {
	req, err := retryablehttp.NewRequest(http.MethodGet, sp.authURL, nil)
	if err != nil {
		return err
	}
	req = req.WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := sp.httpclient.Do(req)
	if err != nil {
		return errors.Wrap(err, "Can't check auth")
	}
	defer resp.Body.Close()
	if !(resp.StatusCode >= 200 && resp.StatusCode <= 299) {
		return errors.Errorf("Auth failed. Code: %d", resp.StatusCode)
	}
	return nil
}

func errMsg(err error, def string) string {
	if err == nil || err.Error() == "" {
		return def
	}
	return err.Error()
}
