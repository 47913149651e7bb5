package core

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// healthCheckTimeout bounds all probes together. A probe that cannot answer
// within this window counts as unhealthy.
const healthCheckTimeout = 2 * time.Second

// HealthProbe is a subsystem reachability check. The relay has exactly one
// critical dependency, the OneBot backend, but the endpoint stays generic.
type HealthProbe interface {
	// Name returns the component identifier used in the response body.
	Name() string

	// Check performs the probe. It must respect the context deadline and
	// return an error when the subsystem is unhealthy.
	Check(ctx context.Context) error
}

// componentStatus is the health state of one subsystem.
type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthResponse is the JSON body of GET /health.
type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

// HandleHealth runs every registered probe concurrently and reports 200
// when all pass, 503 otherwise. Probe errors are collected individually; a
// failing probe never aborts the others.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	probes := s.HealthProbes
	if len(probes) == 0 {
		JSON(w, http.StatusOK, healthResponse{Status: "healthy"})
		return
	}

	// Each probe writes only its own slot, so no locking is needed; the
	// group Wait is the synchronization point.
	results := make([]error, len(probes))
	g, gctx := errgroup.WithContext(ctx)
	for i, probe := range probes {
		i, probe := i, probe
		g.Go(func() error {
			defer func() {
				if rvr := recover(); rvr != nil {
					results[i] = fmt.Errorf("probe panicked: %v", rvr)
				}
			}()
			results[i] = probe.Check(gctx)
			return nil
		})
	}
	_ = g.Wait()

	components := make(map[string]componentStatus, len(probes))
	allHealthy := true
	for i, probe := range probes {
		if err := results[i]; err != nil {
			allHealthy = false
			components[probe.Name()] = componentStatus{
				Status:  "unhealthy",
				Message: err.Error(),
			}
			continue
		}
		components[probe.Name()] = componentStatus{Status: "healthy"}
	}

	resp := healthResponse{Components: components}
	if allHealthy {
		resp.Status = "healthy"
		JSON(w, http.StatusOK, resp)
		return
	}
	resp.Status = "unhealthy"
	JSON(w, http.StatusServiceUnavailable, resp)
}
