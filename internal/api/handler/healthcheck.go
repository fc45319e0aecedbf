package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthCheck verifica uma dependência (postgres, redis)
type HealthCheck func(ctx context.Context) error

// StatusProvider expõe o estado de um job agendado
type StatusProvider interface {
	GetStatus() map[string]any
}

type healthResponse struct {
	Status string            `json:"status"`
	Time   time.Time         `json:"time"`
	Checks map[string]string `json:"checks,omitempty"`
	Jobs   map[string]any    `json:"jobs,omitempty"`
}

func HealthcheckHandler(checks map[string]HealthCheck, jobs map[string]StatusProvider) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Time: time.Now()}
		status := http.StatusOK

		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
			for name, check := range checks {
				if err := check(ctx); err != nil {
					resp.Checks[name] = err.Error()
					resp.Status = "degraded"
					status = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[name] = "ok"
			}
		}

		if len(jobs) > 0 {
			resp.Jobs = make(map[string]any, len(jobs))
			for name, job := range jobs {
				resp.Jobs[name] = job.GetStatus()
			}
		}

		writeJSON(w, r, status, resp)
	})
}
