package endpoints

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/redline/internal/api"
	"github.com/jackzampolin/redline/internal/store"
	"github.com/jackzampolin/redline/internal/svcctx"
	"github.com/jackzampolin/redline/internal/types"
)

// ListRunsResponse is the response for listing a job's runs.
type ListRunsResponse struct {
	Runs []*store.Run `json:"runs"`
}

// ListRunsEndpoint handles GET /api/jobs/{id}/runs.
type ListRunsEndpoint struct{}

func (e *ListRunsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/jobs/{id}/runs", e.handler
}

func (e *ListRunsEndpoint) RequiresInit() bool { return true }

func (e *ListRunsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "store not initialized")
		return
	}

	runs, err := st.ListRuns(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}

	writeJSON(w, http.StatusOK, ListRunsResponse{Runs: runs})
}

func (e *ListRunsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "runs <job-id>",
		Short: "List runs recorded for a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListRunsResponse
			if err := client.Get(cmd.Context(), "/api/jobs/"+args[0]+"/runs", &resp); err != nil {
				return err
			}
			return api.Output(resp.Runs)
		},
	}
}

// GetRunResponse carries a run's stats together with its change log.
type GetRunResponse struct {
	Run     *store.Run           `json:"run"`
	Changes []types.ChangeRecord `json:"changes"`
}

// GetRunEndpoint handles GET /api/runs/{id}.
type GetRunEndpoint struct{}

func (e *GetRunEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/runs/{id}", e.handler
}

func (e *GetRunEndpoint) RequiresInit() bool { return true }

func (e *GetRunEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "store not initialized")
		return
	}

	id := r.PathValue("id")
	run, err := st.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	changes, err := st.GetChanges(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if changes == nil {
		changes = []types.ChangeRecord{}
	}

	writeJSON(w, http.StatusOK, GetRunResponse{Run: run, Changes: changes})
}

func (e *GetRunEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <run-id>",
		Short: "Get a run's stats and change log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp GetRunResponse
			if err := client.Get(cmd.Context(), "/api/runs/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
