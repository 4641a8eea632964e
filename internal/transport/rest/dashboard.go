package rest

import "net/http"

func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	ref, err := h.referenceDate(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	snapshot, err := h.dashboard.Snapshot(r.Context(), ref)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	Success(w, "", snapshot)
}

func (h *Handler) getKPIs(w http.ResponseWriter, r *http.Request) {
	ref, err := h.referenceDate(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	kpis, err := h.dashboard.KPIs(r.Context(), ref)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	Success(w, "", kpis)
}

func (h *Handler) getAging(w http.ResponseWriter, r *http.Request) {
	ref, err := h.referenceDate(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	buckets, err := h.dashboard.Aging(r.Context(), ref)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	Success(w, "", buckets)
}

// getChartData serves the top customers chart.
func (h *Handler) getChartData(w http.ResponseWriter, r *http.Request) {
	n, err := limitParam(r, h.dashboard.TopN())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	top, err := h.dashboard.TopCustomers(r.Context(), n)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	Success(w, "", top)
}
