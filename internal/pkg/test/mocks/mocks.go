package mocks

import (
	"context"

	"bitbucket.org/airenas/speechjobs/internal/app/transcription/api"
	"bitbucket.org/airenas/speechjobs/internal/pkg/callback"
	"github.com/stretchr/testify/mock"
)

//JobCreator mocks transcription.JobCreator
type JobCreator struct{ mock.Mock }

//CreateJob mock
func (m *JobCreator) CreateJob(ctx context.Context, token string, payload *api.JobPayload) (*api.Job, error) {
	args := m.Called(ctx, token, payload)
	return mockJob(args.Get(0)), args.Error(1)
}

//AuthChecker mocks transcription.AuthChecker
type AuthChecker struct{ mock.Mock }

//CheckAuth mock
func (m *AuthChecker) CheckAuth(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

//CallbackProvider mocks transcription.CallbackProvider
type CallbackProvider struct{ mock.Mock }

//Register mock
func (m *CallbackProvider) Register(includeJSON bool) (*callback.Endpoint, error) {
	args := m.Called(includeJSON)
	var res *callback.Endpoint
	if v := args.Get(0); v != nil {
		res = v.(*callback.Endpoint)
	}
	return res, args.Error(1)
}

//Bind mock
func (m *CallbackProvider) Bind(token, jobID string) error {
	args := m.Called(token, jobID)
	return args.Error(0)
}

//Release mock
func (m *CallbackProvider) Release(token string) {
	m.Called(token)
}

//CallbackConsumer mocks transcription.CallbackConsumer
type CallbackConsumer struct{ mock.Mock }

//Consume mock
func (m *CallbackConsumer) Consume(token string) (*callback.Entry, error) {
	args := m.Called(token)
	var res *callback.Entry
	if v := args.Get(0); v != nil {
		res = v.(*callback.Entry)
	}
	return res, args.Error(1)
}

//ResultSender mocks transcription.ResultSender
type ResultSender struct{ mock.Mock }

//Send mock
func (m *ResultSender) Send(res *api.Result) error {
	args := m.Called(res)
	return args.Error(0)
}

func mockJob(v interface{}) *api.Job {
	if v == nil {
		return nil
	}
	return v.(*api.Job)
}
