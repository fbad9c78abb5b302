package models

// StreamParams are the query parameters accepted by the stream endpoints.
type StreamParams struct {
	Rate int `schema:"rate"`
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ScanResult is returned after a manual rescan.
type ScanResult struct {
	Attached int          `json:"attached"`
	Sensors  SensorStatus `json:"sensors"`
}
