package transcription

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bitbucket.org/airenas/speechjobs/internal/app/transcription/api"
	"bitbucket.org/airenas/speechjobs/internal/pkg/callback"
	"bitbucket.org/airenas/speechjobs/internal/pkg/cmdapp"
	errc "bitbucket.org/airenas/speechjobs/internal/pkg/err"
	"bitbucket.org/airenas/speechjobs/internal/pkg/test/mocks"
	"github.com/heptiolabs/healthcheck"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type serviceTestData struct {
	jc   *mocks.JobCreator
	cp   *mocks.CallbackProvider
	cc   *mocks.CallbackConsumer
	ac   *mocks.AuthChecker
	rs   *mocks.ResultSender
	data *ServiceData
}

func newServiceTestData(t *testing.T) *serviceTestData {
	t.Helper()
	res := &serviceTestData{jc: &mocks.JobCreator{}, cp: &mocks.CallbackProvider{}, cc: &mocks.CallbackConsumer{},
		ac: &mocks.AuthChecker{}, rs: &mocks.ResultSender{}}
	s, err := NewSubmitter(res.jc, res.cp)
	require.Nil(t, err)
	res.data = &ServiceData{Submitter: s, Callbacks: res.cc, AuthChecker: res.ac, Results: res.rs,
		health: healthcheck.NewHandler()}
	res.cp.On("Register", mock.Anything).Return(&callback.Endpoint{Token: "tk", URL: "http://cb/tk"}, nil)
	res.cp.On("Bind", mock.Anything, mock.Anything).Return(nil)
	res.cp.On("Release", mock.Anything)
	res.rs.On("Send", mock.Anything).Return(nil)
	return res
}

func testCode(t *testing.T, data *ServiceData, req *http.Request, code int) *httptest.ResponseRecorder {
	t.Helper()
	resp := httptest.NewRecorder()
	NewRouter(data).ServeHTTP(resp, req)
	assert.Equal(t, code, resp.Code)
	return resp
}

func submitBody(extra string) *strings.Reader {
	return strings.NewReader(`{"input_url":"https://example.com/audio.mp3","token":"tok"` + extra + `}`)
}

func TestWrongPath(t *testing.T) {
	td := newServiceTestData(t)
	testCode(t, td.data, httptest.NewRequest("GET", "/invalid", nil), 404)
	testCode(t, td.data, httptest.NewRequest("GET", "/transcription", nil), 405)
}

func TestLiveReadyMetrics(t *testing.T) {
	td := newServiceTestData(t)
	testCode(t, td.data, httptest.NewRequest("GET", "/live", nil), 200)
	testCode(t, td.data, httptest.NewRequest("GET", "/ready", nil), 200)
	testCode(t, td.data, httptest.NewRequest("GET", "/metrics", nil), 200)
}

func TestLive503(t *testing.T) {
	td := newServiceTestData(t)
	td.data.health.AddLivenessCheck("test", func() error { return errors.New("test") })
	testCode(t, td.data, httptest.NewRequest("GET", "/live", nil), 503)
}

func TestSubmit_Accepted(t *testing.T) {
	td := newServiceTestData(t)
	td.jc.On("CreateJob", mock.Anything, "tok", mock.Anything).Return(&api.Job{ID: "j1"}, nil)

	resp := testCode(t, td.data, httptest.NewRequest("POST", "/transcription", submitBody("")), 202)

	var job api.Job
	require.Nil(t, json.NewDecoder(resp.Body).Decode(&job))
	assert.Equal(t, "j1", job.ID)
	payload := td.jc.Calls[0].Arguments.Get(2).(*api.JobPayload)
	assert.Equal(t, api.DefaultSegmentDuration, payload.SegmentDuration)
	assert.Equal(t, api.DefaultMinimumConfidence, payload.MinimumConfidence)
}

func TestSubmit_BearerToken(t *testing.T) {
	td := newServiceTestData(t)
	td.jc.On("CreateJob", mock.Anything, "htok", mock.Anything).Return(&api.Job{ID: "j1"}, nil)
	req := httptest.NewRequest("POST", "/transcription", strings.NewReader(`{"input_url":"http://a"}`))
	req.Header.Set("Authorization", "Bearer htok")

	testCode(t, td.data, req, 202)
}

func TestSubmit_Sample(t *testing.T) {
	td := newServiceTestData(t)

	resp := testCode(t, td.data, httptest.NewRequest("POST", "/transcription?sample=true",
		strings.NewReader(`{"input_url":"http://a","can_parse_words":true}`)), 200)

	var job api.Job
	require.Nil(t, json.NewDecoder(resp.Body).Decode(&job))
	assert.Equal(t, SampleJobID, job.ID)
	assert.NotEmpty(t, job.Output.Segments[0].Words)
	assert.Empty(t, td.jc.Calls)
}

func TestSubmit_Invalid(t *testing.T) {
	td := newServiceTestData(t)

	resp := testCode(t, td.data, httptest.NewRequest("POST", "/transcription",
		submitBody(`,"segment_duration":1,"minimum_confidence":3`)), 400)

	var er api.ErrorResult
	require.Nil(t, json.NewDecoder(resp.Body).Decode(&er))
	assert.Equal(t, string(errc.KindConfiguration), er.Kind)
	assert.Equal(t, 2, len(strings.Split(er.Error, "\n")))
	assert.Empty(t, td.jc.Calls)
}

func TestSubmit_BadInput(t *testing.T) {
	td := newServiceTestData(t)
	testCode(t, td.data, httptest.NewRequest("POST", "/transcription", strings.NewReader(`olia`)), 400)
	testCode(t, td.data, httptest.NewRequest("POST", "/transcription", strings.NewReader(`{"token":"t"}`)), 400)
	testCode(t, td.data, httptest.NewRequest("POST", "/transcription", strings.NewReader(`{"input_url":"http://a"}`)), 400)
	assert.Empty(t, td.jc.Calls)
}

func TestSubmit_APIError(t *testing.T) {
	td := newServiceTestData(t)
	td.jc.On("CreateJob", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errc.TranscriptionError("Insufficient credits", 402))

	resp := testCode(t, td.data, httptest.NewRequest("POST", "/transcription", submitBody("")), 402)

	var er api.ErrorResult
	require.Nil(t, json.NewDecoder(resp.Body).Decode(&er))
	assert.Equal(t, "Insufficient credits", er.Error)
	assert.Equal(t, string(errc.KindTranscription), er.Kind)
}

func TestSubmit_APIError_NonErrorStatus(t *testing.T) {
	for _, code := range []int{200, 201, 302} {
		td := newServiceTestData(t)
		td.jc.On("CreateJob", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errc.TranscriptionError("API returned status 201", code))

		resp := testCode(t, td.data, httptest.NewRequest("POST", "/transcription", submitBody("")), 502)

		var er api.ErrorResult
		require.Nil(t, json.NewDecoder(resp.Body).Decode(&er))
		assert.Equal(t, string(errc.KindTranscription), er.Kind)
	}
}

func TestSubmit_LogsByFault(t *testing.T) {
	hook := test.NewLocal(cmdapp.Log)
	defer hook.Reset()
	td := newServiceTestData(t)
	td.jc.On("CreateJob", mock.Anything, mock.Anything, mock.Anything).Return(nil, errc.JobCreationError("no id"))

	testCode(t, td.data, httptest.NewRequest("POST", "/transcription", strings.NewReader(`{"token":"t"}`)), 400)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	testCode(t, td.data, httptest.NewRequest("POST", "/transcription", submitBody("")), 500)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestSubmit_NoID(t *testing.T) {
	td := newServiceTestData(t)
	td.jc.On("CreateJob", mock.Anything, mock.Anything, mock.Anything).Return(nil, errc.JobCreationError("no id"))

	testCode(t, td.data, httptest.NewRequest("POST", "/transcription", submitBody("")), 500)
}

func TestCallback_Completed(t *testing.T) {
	td := newServiceTestData(t)
	td.cc.On("Consume", "tk").Return(&callback.Entry{Token: "tk", JobID: "j1", IncludeJSON: true}, nil)

	resp := testCode(t, td.data, httptest.NewRequest("POST", "/callback/tk",
		strings.NewReader(`{"id":"j1","status":"COMPLETED","querystring":{},"output":{"segments":[{"id":1,"words":null}]}}`)), 200)

	var res api.Result
	require.Nil(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "j1", res.ID)
	require.NotNil(t, res.Job)
	assert.NotEmpty(t, res.Job.JSON)
	sent := td.rs.Calls[0].Arguments.Get(0).(*api.Result)
	assert.Equal(t, "j1", sent.ID)
	assert.NotNil(t, sent.Job)
}

func TestCallback_Failed(t *testing.T) {
	td := newServiceTestData(t)
	td.cc.On("Consume", "tk").Return(&callback.Entry{Token: "tk", JobID: "j1"}, nil)

	resp := testCode(t, td.data, httptest.NewRequest("POST", "/callback/tk",
		strings.NewReader(`{"id":"j1","status":"FAILED","output":{"error":"bad audio codec"}}`)), 200)

	var res api.Result
	require.Nil(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Nil(t, res.Job)
	assert.Equal(t, "bad audio codec", res.Error)
	assert.Equal(t, string(errc.KindTranscription), res.Kind)
	assert.Equal(t, 400, res.Status)
	td.rs.AssertNumberOfCalls(t, "Send", 1)
}

func TestCallback_UnknownStatus(t *testing.T) {
	td := newServiceTestData(t)
	td.cc.On("Consume", "tk").Return(&callback.Entry{Token: "tk", JobID: "j1"}, nil)

	resp := testCode(t, td.data, httptest.NewRequest("POST", "/callback/tk",
		strings.NewReader(`{"id":"j1","status":"UNKNOWN_STATE"}`)), 200)

	var res api.Result
	require.Nil(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, string(errc.KindWebhook), res.Kind)
	assert.Contains(t, res.Error, "UNKNOWN_STATE")
}

func TestCallback_Resolved_Gone(t *testing.T) {
	td := newServiceTestData(t)
	td.cc.On("Consume", "tk").Return(nil, callback.ErrNotFound)

	testCode(t, td.data, httptest.NewRequest("POST", "/callback/tk",
		strings.NewReader(`{"id":"j1","status":"COMPLETED"}`)), 410)

	td.rs.AssertNotCalled(t, "Send", mock.Anything)
}

func TestCallback_BadBody_KeepsToken(t *testing.T) {
	td := newServiceTestData(t)

	testCode(t, td.data, httptest.NewRequest("POST", "/callback/tk", strings.NewReader(`olia`)), 400)

	assert.Empty(t, td.cc.Calls)
}

func TestCallback_NoJobID_UsesDelivered(t *testing.T) {
	td := newServiceTestData(t)
	td.cc.On("Consume", "tk").Return(&callback.Entry{Token: "tk"}, nil)

	resp := testCode(t, td.data, httptest.NewRequest("POST", "/callback/tk",
		strings.NewReader(`{"id":"j2","status":"CANCELED"}`)), 200)

	var res api.Result
	require.Nil(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "j2", res.ID)
	assert.Equal(t, "Transcription job was canceled", res.Error)
}

func TestCallback_WithRegistry_Once(t *testing.T) {
	td := newServiceTestData(t)
	reg, err := callback.NewRegistry("http://host/callback", time.Hour)
	require.Nil(t, err)
	td.data.Callbacks = reg
	ep, _ := reg.Register(false)
	body := `{"id":"j1","status":"COMPLETED","output":{"segments":[]}}`

	testCode(t, td.data, httptest.NewRequest("POST", "/callback/"+ep.Token, strings.NewReader(body)), 200)
	testCode(t, td.data, httptest.NewRequest("POST", "/callback/"+ep.Token, strings.NewReader(body)), 410)

	td.rs.AssertNumberOfCalls(t, "Send", 1)
}

func TestAuth(t *testing.T) {
	td := newServiceTestData(t)
	td.ac.On("CheckAuth", mock.Anything, "tok").Return(nil)
	req := httptest.NewRequest("GET", "/auth", nil)
	req.Header.Set("Authorization", "Bearer tok")

	resp := testCode(t, td.data, req, 200)

	assert.Contains(t, resp.Body.String(), `"valid":true`)
}

func TestAuth_Invalid(t *testing.T) {
	td := newServiceTestData(t)
	td.ac.On("CheckAuth", mock.Anything, "tok").Return(errors.New("Auth failed. Code: 401"))
	req := httptest.NewRequest("GET", "/auth", nil)
	req.Header.Set("Authorization", "Bearer tok")

	testCode(t, td.data, req, 401)
}

func TestAuth_NoToken(t *testing.T) {
	td := newServiceTestData(t)

	testCode(t, td.data, httptest.NewRequest("GET", "/auth", nil), 401)

	assert.Empty(t, td.ac.Calls)
}
