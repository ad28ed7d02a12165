package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/redline/internal/api"
	"github.com/jackzampolin/redline/internal/jobs"
	"github.com/jackzampolin/redline/internal/store"
	"github.com/jackzampolin/redline/internal/svcctx"
)

// CreateJobRequest is the request body for creating a job.
type CreateJobRequest struct {
	JobType  string         `json:"job_type"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CreateJobResponse is the response for creating a job.
type CreateJobResponse struct {
	ID string `json:"id"`
}

// CreateJobEndpoint handles POST /api/jobs.
type CreateJobEndpoint struct{}

func (e *CreateJobEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/jobs", e.handler
}

func (e *CreateJobEndpoint) RequiresInit() bool { return true }

func (e *CreateJobEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.JobType == "" {
		writeError(w, http.StatusBadRequest, "job_type is required")
		return
	}

	jm := svcctx.JobManagerFrom(r.Context())
	if jm == nil {
		writeError(w, http.StatusServiceUnavailable, "job manager not initialized")
		return
	}

	id, err := jm.Create(r.Context(), req.JobType, req.Metadata)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, CreateJobResponse{ID: id})
}

func (e *CreateJobEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		regionsDir  string
		pagesDir    string
		destination string
		output      string
		provider    string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a document processing job",
		Long: `Create a queued document processing job.

The job runs asynchronously on the server. Use "jobs get <id>" to poll
its status and "runs get <run-id>" to inspect the change log afterward.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			metadata := map[string]any{
				"regions_dir": regionsDir,
				"destination": destination,
				"output":      output,
			}
			if pagesDir != "" {
				metadata["pages_dir"] = pagesDir
			}
			if provider != "" {
				metadata["provider"] = provider
			}

			client := api.NewClient(getServerURL())
			var resp CreateJobResponse
			req := CreateJobRequest{JobType: jobs.TypeProcessDocument, Metadata: metadata}
			if err := client.Post(cmd.Context(), "/api/jobs", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&regionsDir, "regions", "", "Directory of marked-up region images (required)")
	cmd.Flags().StringVar(&pagesDir, "pages", "", "Directory of full-page images for classification")
	cmd.Flags().StringVar(&destination, "destination", "", "Destination document to apply changes to (required)")
	cmd.Flags().StringVar(&output, "output-path", "", "Server path for the corrected output (required)")
	cmd.Flags().StringVar(&provider, "provider", "", "Vision provider name (default: openai)")
	_ = cmd.MarkFlagRequired("regions")
	_ = cmd.MarkFlagRequired("destination")
	_ = cmd.MarkFlagRequired("output-path")
	return cmd
}

// ListJobsResponse is the response for listing jobs.
type ListJobsResponse struct {
	Jobs []*store.Job `json:"jobs"`
}

// ListJobsEndpoint handles GET /api/jobs.
type ListJobsEndpoint struct{}

func (e *ListJobsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/jobs", e.handler
}

func (e *ListJobsEndpoint) RequiresInit() bool { return true }

func (e *ListJobsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	jm := svcctx.JobManagerFrom(r.Context())
	if jm == nil {
		writeError(w, http.StatusServiceUnavailable, "job manager not initialized")
		return
	}

	filter := store.JobFilter{
		Status:  store.JobStatus(r.URL.Query().Get("status")),
		JobType: r.URL.Query().Get("type"),
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = n
	}

	records, err := jm.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []*store.Job{}
	}

	writeJSON(w, http.StatusOK, ListJobsResponse{Jobs: records})
}

func (e *ListJobsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var status string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/jobs?limit=" + strconv.Itoa(limit)
			if status != "" {
				path += "&status=" + status
			}
			client := api.NewClient(getServerURL())
			var resp ListJobsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp.Jobs)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (queued, running, completed, failed, cancelled)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of jobs to return")
	return cmd
}

// GetJobEndpoint handles GET /api/jobs/{id}.
type GetJobEndpoint struct{}

func (e *GetJobEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/jobs/{id}", e.handler
}

func (e *GetJobEndpoint) RequiresInit() bool { return true }

func (e *GetJobEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "job id is required")
		return
	}

	jm := svcctx.JobManagerFrom(r.Context())
	if jm == nil {
		writeError(w, http.StatusServiceUnavailable, "job manager not initialized")
		return
	}

	job, err := jm.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (e *GetJobEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a job by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp store.Job
			if err := client.Get(cmd.Context(), "/api/jobs/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// JobStatusResponse is the compact status view of a job.
type JobStatusResponse struct {
	ID     string          `json:"id"`
	Status store.JobStatus `json:"status"`
	Error  string          `json:"error,omitempty"`
	Result map[string]any  `json:"result,omitempty"`
}

// JobStatusEndpoint handles GET /api/jobs/{id}/status.
type JobStatusEndpoint struct{}

func (e *JobStatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/jobs/{id}/status", e.handler
}

func (e *JobStatusEndpoint) RequiresInit() bool { return true }

func (e *JobStatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	jm := svcctx.JobManagerFrom(r.Context())
	if jm == nil {
		writeError(w, http.StatusServiceUnavailable, "job manager not initialized")
		return
	}

	job, err := jm.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, JobStatusResponse{
		ID:     job.ID,
		Status: job.Status,
		Error:  job.Error,
		Result: job.Result,
	})
}

func (e *JobStatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Get a job's status and result payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp JobStatusResponse
			if err := client.Get(cmd.Context(), "/api/jobs/"+args[0]+"/status", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// CancelJobEndpoint handles POST /api/jobs/{id}/cancel.
type CancelJobEndpoint struct{}

func (e *CancelJobEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/jobs/{id}/cancel", e.handler
}

func (e *CancelJobEndpoint) RequiresInit() bool { return true }

func (e *CancelJobEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	runner := svcctx.RunnerFrom(r.Context())
	if runner == nil {
		writeError(w, http.StatusServiceUnavailable, "job runner not initialized")
		return
	}

	id := r.PathValue("id")
	if err := runner.Cancel(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, JobStatusResponse{ID: id, Status: store.StatusCancelled})
}

func (e *CancelJobEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a queued or running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp JobStatusResponse
			if err := client.Post(cmd.Context(), "/api/jobs/"+args[0]+"/cancel", nil, &resp); err != nil {
				return err
			}
			fmt.Printf("Job %s cancelled\n", resp.ID)
			return nil
		},
	}
}
