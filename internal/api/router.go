package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/user/planstream/internal/journal"
	"github.com/user/planstream/internal/planner"
	"github.com/user/planstream/internal/stream"
)

const maxBodyBytes = 1 << 20

type planRunner interface {
	Run(ctx context.Context, req planner.Request, em *stream.Emitter) error
}

type runLister interface {
	List(ctx context.Context, limit int) ([]journal.Run, error)
}

// Options configures the API router.
type Options struct {
	// Planner is nil when the pipeline is not configured; plan endpoints
	// then answer 503 with Unavailable as the reason.
	Planner     planRunner
	Unavailable error
	Runs        runLister
	Token       string
}

type handler struct {
	planner     planRunner
	unavailable string
	runs        runLister
}

// NewRouter returns the /api handler wrapped in auth, JSON and CORS middleware.
func NewRouter(opts Options) http.Handler {
	h := &handler{planner: opts.Planner, runs: opts.Runs, unavailable: "planning pipeline unavailable"}
	if opts.Unavailable != nil {
		h.unavailable += ": " + opts.Unavailable.Error()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/plan", h.plan)
	mux.HandleFunc("GET /api/plan/ws", h.planWebSocket)
	mux.HandleFunc("GET /api/runs", h.listRuns)
	mux.HandleFunc("GET /api/healthz", h.healthz)

	return authMiddleware(opts.Token)(jsonMiddleware(corsMiddleware(mux)))
}

var publicPaths = map[string]bool{"/api/healthz": true}

func authMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" || r.Method == http.MethodOptions || publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
				if strings.TrimSpace(authHeader[7:]) == token {
					next.ServeHTTP(w, r)
					return
				}
			}
			if r.URL.Query().Get("token") == token {
				next.ServeHTTP(w, r)
				return
			}

			jsonError(w, http.StatusUnauthorized, "unauthorized")
		})
	}
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return decodeStrict(io.LimitReader(r.Body, maxBodyBytes), dst)
}

func decodeStrict(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return io.ErrUnexpectedEOF
	}
	return nil
}
