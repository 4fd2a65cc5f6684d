package instance

import "os"

// GetID returns the worker instance identifier. Heroku-style dynos expose
// DYNO; everything else can set WORKER_ID.
func GetID() string {
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	return "worker-0"
}
