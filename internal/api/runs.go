package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/user/planstream/internal/journal"
)

type runsResponse struct {
	Runs []journal.Run `json:"runs"`
}

func (h *handler) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			jsonError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if h.runs == nil {
		jsonResponse(w, http.StatusOK, runsResponse{Runs: []journal.Run{}})
		return
	}
	runs, err := h.runs.List(r.Context(), limit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []journal.Run{}
	}
	jsonResponse(w, http.StatusOK, runsResponse{Runs: runs})
}

type healthResponse struct {
	Status  string `json:"status"`
	Planner string `json:"planner"`
	Journal bool   `json:"journal"`
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Planner: "ready", Journal: h.runs != nil}
	if h.planner == nil {
		resp.Planner = "unavailable"
	}
	jsonResponse(w, http.StatusOK, resp)
}
