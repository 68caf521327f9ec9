// Package health exposes liveness and readiness probes for the service.
package health

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"picstash/internal/filestore"
)

const (
	// Readiness fails below one MiB of free space or one thousand free
	// inodes on the upload volume.
	minFreeBytes  = 1 << 20
	minFreeInodes = 1000
)

// Check is a named readiness probe.
type Check struct {
	Name string
	Run  func() error
}

// Checker aggregates readiness checks. Once shutdown starts, every probe
// reports DOWN so load balancers drain the instance.
type Checker struct {
	checks       []Check
	shuttingDown atomic.Bool
}

func NewChecker(checks ...Check) *Checker {
	return &Checker{checks: checks}
}

// Shutdown flips all probes to DOWN.
func (c *Checker) Shutdown() {
	c.shuttingDown.Store(true)
}

// StoreChecks returns the standard readiness checks for the upload volume:
// the directory must be readable and writable and the filesystem must not
// be about to run out of space or inodes.
func StoreChecks(store filestore.FileStore) []Check {
	return []Check{
		{
			Name: "upload folder",
			Run: func() error {
				return store.Access(".", filestore.ModeExists|filestore.ModeRead|filestore.ModeWrite)
			},
		},
		{
			Name: "free disk space",
			Run: func() error {
				st, err := store.StatVFS(".")
				if err != nil {
					return err
				}
				if st.Blocks > 0 && st.BlocksFree*st.BlockSize < minFreeBytes {
					return fmt.Errorf("too few free disk space")
				}
				if st.Files > 0 && st.FilesFree < minFreeInodes {
					return fmt.Errorf("too few free inodes")
				}
				return nil
			},
		},
	}
}

type status struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveHandler reports process liveness; it only goes DOWN during shutdown.
func (c *Checker) LiveHandler(w http.ResponseWriter, r *http.Request) {
	if c.shuttingDown.Load() {
		writeStatus(w, http.StatusServiceUnavailable, status{Status: "STOPPING"})
		return
	}
	writeStatus(w, http.StatusOK, status{Status: "UP"})
}

// ReadyHandler runs every readiness check and reports the aggregate.
func (c *Checker) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	c.report(w)
}

// HealthHandler is the combined probe: readiness plus shutdown state.
func (c *Checker) HealthHandler(w http.ResponseWriter, r *http.Request) {
	c.report(w)
}

func (c *Checker) report(w http.ResponseWriter) {
	if c.shuttingDown.Load() {
		writeStatus(w, http.StatusServiceUnavailable, status{Status: "STOPPING"})
		return
	}

	st := status{Status: "UP", Checks: make(map[string]string, len(c.checks))}
	code := http.StatusOK
	for _, check := range c.checks {
		if err := check.Run(); err != nil {
			st.Status = "DOWN"
			st.Checks[check.Name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		st.Checks[check.Name] = "UP"
	}
	writeStatus(w, code, st)
}

func writeStatus(w http.ResponseWriter, code int, st status) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(st)
}
