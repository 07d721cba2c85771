package callback

import (
	"context"
	"sync"
	"time"

	"bitbucket.org/airenas/speechjobs/internal/pkg/cmdapp"
	"bitbucket.org/airenas/speechjobs/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

//ErrNotFound indicates unknown, consumed or expired callback
var ErrNotFound = errors.New("Callback not found")

//Endpoint is a single use callback address handed to the remote service
type Endpoint struct {
	Token string
	URL   string
}

//Entry keeps submission context till the callback arrives
type Entry struct {
	Token       string
	JobID       string
	IncludeJSON bool
	added       time.Time
}

//Registry generates callback URLs and correlates them with in-flight submissions
type Registry struct {
	baseURL  string
	ttl      time.Duration
	lock     sync.Mutex
	entries  map[string]*Entry
	now      func() time.Time
	newToken func() string
}

//NewRegistry creates registry, baseURL must be reachable by the remote service
func NewRegistry(baseURL string, ttl time.Duration) (*Registry, error) {
	if baseURL == "" {
		return nil, errors.New("No callback URL")
	}
	if ttl <= 0 {
		return nil, errors.Errorf("Wrong callback ttl %v", ttl)
	}
	return &Registry{baseURL: baseURL, ttl: ttl, entries: make(map[string]*Entry),
		now: time.Now, newToken: func() string { return uuid.New().String() }}, nil
}

//Register creates a fresh endpoint for one submission
func (r *Registry) Register(includeJSON bool) (*Endpoint, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	token := r.newToken()
	if _, f := r.entries[token]; f {
		return nil, errors.New("Callback token collision")
	}
	r.entries[token] = &Entry{Token: token, IncludeJSON: includeJSON, added: r.now()}
	res := &Endpoint{Token: token, URL: utils.URLJoin(r.baseURL, token)}
	cmdapp.Log.Debugf("Registered callback %s", utils.URLToLog(res.URL))
	return res, nil
}

//Bind sets the job ID for the registered token
func (r *Registry) Bind(token, jobID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	e, f := r.entries[token]
	if !f {
		return ErrNotFound
	}
	e.JobID = jobID
	return nil
}

//Release drops the endpoint of a failed submission
func (r *Registry) Release(token string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.entries, token)
}

//Consume returns and removes the entry, the second call for the same token returns ErrNotFound
func (r *Registry) Consume(token string) (*Entry, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	e, f := r.entries[token]
	if !f {
		return nil, ErrNotFound
	}
	delete(r.entries, token)
	if r.expired(e, r.now()) {
		return nil, ErrNotFound
	}
	return e, nil
}

//Pending returns count of not consumed endpoints
func (r *Registry) Pending() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.entries)
}

//Expire removes endpoints older than ttl, returns the number of removed
func (r *Registry) Expire() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	now := r.now()
	res := 0
	for k, e := range r.entries {
		if r.expired(e, now) {
			cmdapp.Log.Warnf("Callback expired, job: '%s'", e.JobID)
			delete(r.entries, k)
			res++
		}
	}
	return res
}

func (r *Registry) expired(e *Entry, now time.Time) bool {
	return e.added.Add(r.ttl).Before(now)
}

//StartExpire runs Expire periodically till ctx is done
func (r *Registry) StartExpire(ctx context.Context, every time.Duration) {
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				cmdapp.Log.Info("Stopped callback expire loop")
				return
			case <-t.C:
				if n := r.Expire(); n > 0 {
					cmdapp.Log.Infof("Expired %d callbacks", n)
				}
			}
		}
	}()
}
