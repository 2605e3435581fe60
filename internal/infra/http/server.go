package http

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/estacionsur/stationd/internal/domain/attendance"
	"github.com/estacionsur/stationd/internal/domain/closure"
	"github.com/estacionsur/stationd/internal/domain/hoses"
	"github.com/estacionsur/stationd/internal/domain/intake"
	"github.com/estacionsur/stationd/internal/domain/shifts"
	"github.com/estacionsur/stationd/internal/domain/tanks"
)

// Deps are the domain services the API exposes. Identity arrives in request
// bodies as opaque uid/email; authentication itself lives outside this
// service.
type Deps struct {
	Shifts     *shifts.Service
	ShiftStore *shifts.Repo
	Hoses      *hoses.Repo
	Tanks      *tanks.Repo
	Intakes    *intake.Repo
	Closures   *closure.Service
	Attendance *attendance.Repo
}

type Server struct {
	srv *http.Server
}

func New(addr string, exposeMetrics bool, deps Deps) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if exposeMetrics {
		mux.Handle("/metrics", promhttp.Handler())
	}

	registerRoutes(mux, deps)

	return &Server{srv: &http.Server{Addr: addr, Handler: mux}}
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
