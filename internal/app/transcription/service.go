package transcription

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/airenas/speechjobs/internal/app/transcription/api"
	"bitbucket.org/airenas/speechjobs/internal/pkg/callback"
	"bitbucket.org/airenas/speechjobs/internal/pkg/cmdapp"
	errc "bitbucket.org/airenas/speechjobs/internal/pkg/err"
	"bitbucket.org/airenas/speechjobs/internal/pkg/utils"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/gorilla/mux"
	"github.com/heptiolabs/healthcheck"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	maxRequestBody  = 1 << 20
	maxCallbackBody = 64 << 20
)

// ServiceData keeps data required for service work
type ServiceData struct {
	Submitter   *Submitter
	Callbacks   CallbackConsumer
	AuthChecker AuthChecker
	Results     ResultSender
	Hub         *Hub

	Port   int
	health healthcheck.Handler
}

//StartWebServer starts the HTTP service and listens for the requests
func StartWebServer(data *ServiceData) error {
	cmdapp.Log.Infof("Starting HTTP service at %d", data.Port)
	r := NewRouter(data)

	portStr := strconv.Itoa(data.Port)
	srv := http.Server{
		Addr:              ":" + portStr,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		Handler:           r,
	}

	w := cmdapp.Log.Writer()
	defer w.Close()
	l := log.New(w, "", 0)
	gracehttp.SetLogger(l)

	return gracehttp.Serve(&srv)
}

//NewRouter creates the router for HTTP service
func NewRouter(data *ServiceData) *mux.Router {
	router := mux.NewRouter()
	router.Methods("POST").Path("/transcription").Handler(instrument("submit", submitHandler{data: data}))
	router.Methods("POST").Path("/callback/{token}").Handler(instrument("callback", callbackHandler{data: data}))
	router.Methods("GET").Path("/auth").Handler(instrument("auth", authHandler{data: data}))
	if data.Hub != nil {
		router.Handle("/subscribe", websocketHandler{hub: data.Hub})
	}
	router.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
	if data.health != nil {
		router.Methods("GET").Path("/live").HandlerFunc(data.health.LiveEndpoint)
		router.Methods("GET").Path("/ready").HandlerFunc(data.health.ReadyEndpoint)
	}
	return router
}

func instrument(name string, h http.Handler) http.Handler {
	return promhttp.InstrumentHandlerDuration(requestDur.MustCurryWith(prometheus.Labels{"handler": name}), h)
}

type submitHandler struct {
	data *ServiceData
}

func (h submitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("Submit request from %s", r.Host)
	req := api.NewSubmissionRequest()
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(req); err != nil {
		cmdapp.Log.Error(errors.Wrap(err, "Can't decode request"))
		writeError(w, errc.ConfigurationError("Can't decode request"))
		return
	}
	if req.Token == "" {
		req.Token = utils.BearerToken(r)
	}
	sample := isSample(r)
	if err := checkRequired(req, sample); err != nil {
		logError(err)
		submitTotal.WithLabelValues(string(errc.KindOf(err))).Inc()
		writeError(w, err)
		return
	}

	job, err := h.data.Submitter.Submit(r.Context(), req, sample)
	if err != nil {
		logError(err)
		submitTotal.WithLabelValues(string(errc.KindOf(err))).Inc()
		writeError(w, err)
		return
	}
	if sample {
		submitTotal.WithLabelValues("sample").Inc()
		writeJSON(w, http.StatusOK, job)
		return
	}
	submitTotal.WithLabelValues("accepted").Inc()
	writeJSON(w, http.StatusAccepted, job)
}

func isSample(r *http.Request) bool {
	s, err := strconv.ParseBool(r.URL.Query().Get("sample"))
	return err == nil && s
}

func checkRequired(req *api.SubmissionRequest, sample bool) error {
	if req.InputURL == "" {
		return errc.ConfigurationError("No input_url")
	}
	if req.Token == "" && !sample {
		return errc.ConfigurationError("No token")
	}
	return nil
}

type callbackHandler struct {
	data *ServiceData
}

func (h callbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	cmdapp.Log.Infof("Callback from %s", r.Host)
	body, err := utils.ReadBody(r.Body, maxCallbackBody)
	if err != nil {
		cmdapp.Log.Error(errors.Wrap(err, "Can't read callback"))
		writeError(w, errc.WebhookError("Can't read callback"))
		return
	}
	// token is kept if the body is broken, so a redelivery can still resolve the job
	job, err := ParseCallback(body)
	if err != nil {
		logError(err)
		writeError(w, err)
		return
	}
	entry, err := h.data.Callbacks.Consume(token)
	if err != nil {
		if errors.Cause(err) == callback.ErrNotFound {
			cmdapp.Log.Warnf("Unknown or resolved callback for job '%s'", job.ID)
			http.Error(w, "Unknown callback", http.StatusGone)
			return
		}
		cmdapp.Log.Error(err)
		writeError(w, err)
		return
	}
	id := entry.JobID
	if id == "" {
		id = job.ID
	} else if job.ID != id {
		cmdapp.Log.Warnf("Callback job ID mismatch: registered '%s', got '%s'", id, job.ID)
	}

	result := &api.Result{ID: id}
	res, err := Resume(job, entry.IncludeJSON)
	if err != nil {
		cmdapp.Log.Infof("Job %s resolved with error: %v", id, err)
		result.Error = err.Error()
		result.Kind = string(errc.KindOf(err))
		result.Status = errc.StatusOf(err)
		callbackTotal.WithLabelValues(string(job.Status), result.Kind).Inc()
	} else {
		cmdapp.Log.Infof("Job %s completed", id)
		result.Job = res
		callbackTotal.WithLabelValues(string(job.Status), "ok").Inc()
	}
	if h.data.Results != nil {
		cmdapp.LogIf(h.data.Results.Send(result))
	}
	writeJSON(w, http.StatusOK, result)
}

type authHandler struct {
	data *ServiceData
}

func (h authHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("Auth check from %s", r.Host)
	token := utils.BearerToken(r)
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, api.AuthResult{Valid: false})
		return
	}
	if err := h.data.AuthChecker.CheckAuth(r.Context(), token); err != nil {
		cmdapp.Log.Warn(err)
		writeJSON(w, http.StatusUnauthorized, api.AuthResult{Valid: false})
		return
	}
	writeJSON(w, http.StatusOK, api.AuthResult{Valid: true})
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errorCode(err), api.ErrorResult{Error: err.Error(), Kind: string(errc.KindOf(err))})
}

// upstream may fail a call with a non error status, it is reported as a bad gateway
func errorCode(err error) int {
	if res := errc.StatusOf(err); res >= 400 {
		return res
	}
	return http.StatusBadGateway
}

func logError(err error) {
	if e := errc.From(err); e != nil && e.ClientFault() {
		cmdapp.Log.Warn(err)
		return
	}
	cmdapp.Log.Error(err)
}

func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		cmdapp.Log.Error(errors.Wrap(err, "Can not write result"))
	}
}
