package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func PipelinesRouter(p StatusProvider) chi.Router {
	router := chi.NewRouter()

	router.Get("/", listPipelines(p))
	router.Get("/{pipeline_name}", getPipeline(p))

	return router
}

func statuses(p StatusProvider) []PipelineStatus {
	runs := p.Runs()
	stats := p.Stats()
	out := make([]PipelineStatus, 0, len(runs))
	for i, run := range runs {
		s := PipelineStatus{Run: run}
		if i < len(stats) {
			s.Stats = stats[i]
		}
		out = append(out, s)
	}
	return out
}

func listPipelines(p StatusProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sendData(w, r, statuses(p))
	}
}

func getPipeline(p StatusProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "pipeline_name")
		for _, s := range statuses(p) {
			if s.Run.Pipeline == name {
				sendData(w, r, s)
				return
			}
		}
		sendError(w, r, http.StatusNotFound, "pipeline not found: "+name)
	}
}
