package models

import "time"

// PingResult records the outcome of the latest ping to one webhook target.
type PingResult struct {
	Target     string        `json:"target"`
	StatusCode int           `json:"status_code"`
	Latency    time.Duration `json:"latency"`
	Error      string        `json:"error,omitempty"`
	PingedAt   time.Time     `json:"pinged_at"`
}

// OK reports whether the target answered with a 2xx status.
func (r PingResult) OK() bool {
	return r.Error == "" && r.StatusCode >= 200 && r.StatusCode < 300
}
