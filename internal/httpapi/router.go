package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"salespulse/internal/dashboard"
	"salespulse/internal/kpi"
)

// Backend is the dashboard session as seen by the HTTP layer.
type Backend interface {
	Snapshot() *kpi.Snapshot
	Refresh(ctx context.Context) (*kpi.Snapshot, error)
	State(ae, month string) (kpi.DashboardState, error)
	Report(ae, month string) (kpi.Report, error)
	ActiveDeals(ae, month string, key kpi.SortKey, dir kpi.SortDirection) ([]kpi.DealRow, error)
	AccountExecutives() []string
}

// DealsResponse is the body of GET /api/deals.
type DealsResponse struct {
	Filter string            `json:"filter"`
	Month  string            `json:"month"`
	Sort   kpi.SortKey       `json:"sort,omitempty"`
	Dir    kpi.SortDirection `json:"dir"`
	Deals  []kpi.DealRow     `json:"deals"`
}

// RefreshResponse is the body of POST /api/refresh.
type RefreshResponse struct {
	SnapshotID string    `json:"snapshotId"`
	Source     string    `json:"source"`
	Deals      int       `json:"deals"`
	Skipped    int       `json:"skipped"`
	LoadedAt   time.Time `json:"loadedAt"`
	Diagnostic string    `json:"diagnostic,omitempty"`
	Error      string    `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter mounts the JSON API, the HTML dashboard and /metrics. m may be nil.
func NewRouter(b Backend, m *Metrics) http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID, echoRequestID)
	mux.Use(accessLog(m))
	mux.Use(middleware.Recoverer)

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if b.Snapshot() == nil {
			http.Error(w, "no data loaded yet", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
		w.Write([]byte("ready"))
	})

	mux.Get("/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		report, err := b.Report(q.Get("ae"), q.Get("month"))
		if err != nil {
			writeError(w, err)
			return
		}
		renderDashboard(w, report, b.AccountExecutives())
	})

	mux.Route("/api", func(api chi.Router) {
		api.Get("/kpis", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			report, err := b.Report(q.Get("ae"), q.Get("month"))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, report)
		})

		api.Get("/deals", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			key, dir, err := kpi.ParseSort(q.Get("sort"), q.Get("dir"))
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
				return
			}
			state, err := b.State(q.Get("ae"), q.Get("month"))
			if err != nil {
				writeError(w, err)
				return
			}
			month := state.Range.Month()
			rows, err := b.ActiveDeals(state.Filter, month, key, dir)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, DealsResponse{Filter: state.Filter, Month: month, Sort: key, Dir: dir, Deals: rows})
		})

		api.Get("/account-executives", func(w http.ResponseWriter, r *http.Request) {
			if b.Snapshot() == nil {
				writeError(w, dashboard.ErrNoSnapshot)
				return
			}
			aes := b.AccountExecutives()
			if aes == nil {
				aes = []string{}
			}
			writeJSON(w, http.StatusOK, map[string]any{"accountExecutives": aes})
		})

		api.Post("/refresh", func(w http.ResponseWriter, r *http.Request) {
			snap, err := b.Refresh(r.Context())
			resp := RefreshResponse{}
			if snap != nil {
				resp = RefreshResponse{
					SnapshotID: snap.ID,
					Source:     snap.Source,
					Deals:      snap.DealCount(),
					Skipped:    snap.Skipped,
					LoadedAt:   snap.LoadedAt,
					Diagnostic: snap.Diagnostic,
				}
			}
			if err != nil {
				log.Warn().Err(err).Str("rid", RequestID(r.Context())).Msg("On-demand refresh failed")
				resp.Error = err.Error()
				writeJSON(w, http.StatusBadGateway, resp)
				return
			}
			writeJSON(w, http.StatusOK, resp)
		})
	})

	if m != nil {
		mux.Method(http.MethodGet, "/metrics", m.Handler())
	}

	return mux
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dashboard.ErrNoSnapshot):
		status = http.StatusServiceUnavailable
	case errors.Is(err, kpi.ErrInvalidMonth):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	if err := enc.Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}
