package api

//ErrorResult is the service response on failure
type ErrorResult struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

//Result is the terminal outcome delivered to subscribers
type Result struct {
	ID     string `json:"id"`
	Job    *Job   `json:"job,omitempty"`
	Error  string `json:"error,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Status int    `json:"status,omitempty"`
}

//AuthResult is the credential probe response
type AuthResult struct {
	Valid bool `json:"valid"`
}
