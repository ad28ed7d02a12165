package endpoints

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackzampolin/redline/internal/api"
	"github.com/jackzampolin/redline/internal/config"
	"github.com/jackzampolin/redline/internal/jobs"
	"github.com/jackzampolin/redline/internal/prompts"
	"github.com/jackzampolin/redline/internal/providers"
	"github.com/jackzampolin/redline/internal/store"
	"github.com/jackzampolin/redline/internal/svcctx"
	"github.com/jackzampolin/redline/internal/types"
)

func testServer(t *testing.T) (*httptest.Server, *svcctx.Services) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(filepath.Join(t.TempDir(), "redline.db"), logger)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	resolver := prompts.NewResolver(st, logger)
	resolver.Register(prompts.EmbeddedPrompt{
		Key:         "extract.hybrid.system",
		Text:        "Transcribe the marked changes exactly.",
		Description: "Hybrid system prompt",
	})

	mgr := jobs.NewManager(st, logger)
	runner := jobs.NewRunner(mgr, jobs.Dependencies{Store: st, Logger: logger}, jobs.RunnerConfig{
		PollInterval: time.Hour, // Never dispatches during tests
		Logger:       logger,
	})

	services := &svcctx.Services{
		Store:       st,
		JobManager:  mgr,
		Runner:      runner,
		Registry:    providers.NewRegistry(),
		Resolver:    resolver,
		ConfigStore: config.NewStore(st),
		Logger:      logger,
	}

	reg := api.NewRegistry()
	for _, ep := range All() {
		reg.Register(ep)
	}
	mux := http.NewServeMux()
	reg.RegisterRoutes(mux, func(h http.HandlerFunc) http.HandlerFunc { return h })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r.WithContext(svcctx.WithServices(r.Context(), services)))
	}))
	t.Cleanup(srv.Close)
	return srv, services
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := testServer(t)
	client := api.NewClient(srv.URL)
	ctx := context.Background()

	t.Run("health", func(t *testing.T) {
		var resp HealthResponse
		if err := client.Get(ctx, "/health", &resp); err != nil {
			t.Fatalf("health check failed: %v", err)
		}
		if resp.Status != "ok" {
			t.Errorf("expected status ok, got %q", resp.Status)
		}
	})

	t.Run("ready", func(t *testing.T) {
		var resp HealthResponse
		if err := client.Get(ctx, "/ready", &resp); err != nil {
			t.Fatalf("ready check failed: %v", err)
		}
		if resp.Database != "ok" {
			t.Errorf("expected database ok, got %q", resp.Database)
		}
	})

	t.Run("status", func(t *testing.T) {
		var resp StatusResponse
		if err := client.Get(ctx, "/status", &resp); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if resp.Server != "running" {
			t.Errorf("expected server running, got %q", resp.Server)
		}
		if resp.Database != "healthy" {
			t.Errorf("expected database healthy, got %q", resp.Database)
		}
	})
}

func TestJobEndpoints(t *testing.T) {
	srv, _ := testServer(t)
	client := api.NewClient(srv.URL)
	ctx := context.Background()

	var created CreateJobResponse
	req := CreateJobRequest{
		JobType: jobs.TypeProcessDocument,
		Metadata: map[string]any{
			"regions_dir": "/tmp/regions",
			"destination": "/tmp/doc.txt",
			"output":      "/tmp/out.txt",
		},
	}
	if err := client.Post(ctx, "/api/jobs", req, &created); err != nil {
		t.Fatalf("create job failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a job ID")
	}

	t.Run("get", func(t *testing.T) {
		var job store.Job
		if err := client.Get(ctx, "/api/jobs/"+created.ID, &job); err != nil {
			t.Fatalf("get job failed: %v", err)
		}
		if job.Status != store.StatusQueued {
			t.Errorf("expected queued, got %q", job.Status)
		}
		if job.Metadata["destination"] != "/tmp/doc.txt" {
			t.Errorf("metadata not round-tripped: %v", job.Metadata)
		}
	})

	t.Run("get missing returns 404", func(t *testing.T) {
		var job store.Job
		err := client.Get(ctx, "/api/jobs/nope", &job)
		if err == nil {
			t.Fatal("expected an error for unknown job")
		}
	})

	t.Run("list filters by status", func(t *testing.T) {
		var resp ListJobsResponse
		if err := client.Get(ctx, "/api/jobs?status=queued", &resp); err != nil {
			t.Fatalf("list jobs failed: %v", err)
		}
		if len(resp.Jobs) != 1 {
			t.Fatalf("expected 1 queued job, got %d", len(resp.Jobs))
		}
		if err := client.Get(ctx, "/api/jobs?status=completed", &resp); err != nil {
			t.Fatalf("list jobs failed: %v", err)
		}
		if len(resp.Jobs) != 0 {
			t.Errorf("expected no completed jobs, got %d", len(resp.Jobs))
		}
	})

	t.Run("missing job_type rejected", func(t *testing.T) {
		var resp CreateJobResponse
		err := client.Post(ctx, "/api/jobs", CreateJobRequest{}, &resp)
		if err == nil {
			t.Fatal("expected an error for missing job_type")
		}
	})

	t.Run("cancel queued job", func(t *testing.T) {
		var resp JobStatusResponse
		if err := client.Post(ctx, "/api/jobs/"+created.ID+"/cancel", nil, &resp); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}

		var status JobStatusResponse
		if err := client.Get(ctx, "/api/jobs/"+created.ID+"/status", &status); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if status.Status != store.StatusCancelled {
			t.Errorf("expected cancelled, got %q", status.Status)
		}
	})

	t.Run("cancel terminal job conflicts", func(t *testing.T) {
		var resp JobStatusResponse
		err := client.Post(ctx, "/api/jobs/"+created.ID+"/cancel", nil, &resp)
		if err == nil {
			t.Fatal("expected an error cancelling a cancelled job")
		}
	})
}

func TestRunEndpoints(t *testing.T) {
	srv, services := testServer(t)
	client := api.NewClient(srv.URL)
	ctx := context.Background()

	jobID, err := services.JobManager.Create(ctx, jobs.TypeProcessDocument, nil)
	if err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	stats := types.RunStats{RunID: "run-1", Mode: types.ModeHybrid, ChunksProcessed: 3}
	changes := []types.ChangeRecord{
		{RegionID: "r001", UnitID: "p2", Op: types.OpReplace, Before: "old", After: "new", Strategy: types.StrategyExact},
	}
	if err := services.Store.SaveRun(ctx, jobID, stats, changes); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	t.Run("get run with changes", func(t *testing.T) {
		var resp GetRunResponse
		if err := client.Get(ctx, "/api/runs/run-1", &resp); err != nil {
			t.Fatalf("get run failed: %v", err)
		}
		if resp.Run.Stats.ChunksProcessed != 3 {
			t.Errorf("expected 3 chunks, got %d", resp.Run.Stats.ChunksProcessed)
		}
		if len(resp.Changes) != 1 || resp.Changes[0].After != "new" {
			t.Errorf("unexpected change log: %+v", resp.Changes)
		}
	})

	t.Run("get missing run returns 404", func(t *testing.T) {
		var resp GetRunResponse
		if err := client.Get(ctx, "/api/runs/nope", &resp); err == nil {
			t.Fatal("expected an error for unknown run")
		}
	})

	t.Run("list runs for job", func(t *testing.T) {
		var resp ListRunsResponse
		if err := client.Get(ctx, "/api/jobs/"+jobID+"/runs", &resp); err != nil {
			t.Fatalf("list runs failed: %v", err)
		}
		if len(resp.Runs) != 1 || resp.Runs[0].ID != "run-1" {
			t.Errorf("unexpected runs: %+v", resp.Runs)
		}
	})
}

func TestPromptEndpoints(t *testing.T) {
	srv, _ := testServer(t)
	client := api.NewClient(srv.URL)
	ctx := context.Background()
	const key = "extract.hybrid.system"

	t.Run("list embedded", func(t *testing.T) {
		var resp PromptsListResponse
		if err := client.Get(ctx, "/api/prompts", &resp); err != nil {
			t.Fatalf("list prompts failed: %v", err)
		}
		if len(resp.Prompts) != 1 || resp.Prompts[0].Key != key {
			t.Fatalf("unexpected prompts: %+v", resp.Prompts)
		}
		if resp.Prompts[0].Hash == "" {
			t.Error("expected a content hash")
		}
	})

	t.Run("override lifecycle", func(t *testing.T) {
		path := "/api/jobs/job-1/prompts/" + key

		var set prompts.ResolvedPrompt
		if err := client.Put(ctx, path, SetJobPromptRequest{Text: "Be very literal."}, &set); err != nil {
			t.Fatalf("set override failed: %v", err)
		}
		if !set.IsOverride {
			t.Error("expected override flag")
		}

		var resolved prompts.ResolvedPrompt
		if err := client.Get(ctx, path, &resolved); err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if resolved.Text != "Be very literal." || !resolved.IsOverride {
			t.Errorf("expected override text, got %+v", resolved)
		}

		if err := client.Delete(ctx, path); err != nil {
			t.Fatalf("clear override failed: %v", err)
		}
		if err := client.Get(ctx, path, &resolved); err != nil {
			t.Fatalf("resolve after clear failed: %v", err)
		}
		if resolved.IsOverride {
			t.Error("expected embedded default after clearing the override")
		}
	})

	t.Run("unknown key rejected", func(t *testing.T) {
		var set prompts.ResolvedPrompt
		err := client.Put(ctx, "/api/jobs/job-1/prompts/no.such.key", SetJobPromptRequest{Text: "x"}, &set)
		if err == nil {
			t.Fatal("expected an error for unknown prompt key")
		}
	})
}

func TestSettingsEndpoints(t *testing.T) {
	srv, services := testServer(t)
	client := api.NewClient(srv.URL)
	ctx := context.Background()

	if err := config.SeedDefaults(ctx, services.ConfigStore, services.Logger); err != nil {
		t.Fatalf("failed to seed defaults: %v", err)
	}

	t.Run("get seeded entry", func(t *testing.T) {
		var resp SettingResponse
		if err := client.Get(ctx, "/api/settings/providers.openai.model", &resp); err != nil {
			t.Fatalf("get setting failed: %v", err)
		}
		if resp.Entry.Value != "gpt-4o" {
			t.Errorf("expected gpt-4o, got %v", resp.Entry.Value)
		}
	})

	t.Run("update and reset", func(t *testing.T) {
		const key = "detector.canny_low"

		var updated SettingResponse
		if err := client.Put(ctx, "/api/settings/"+key, UpdateSettingRequest{Value: 40.0}, &updated); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if updated.Entry.Value != 40.0 {
			t.Errorf("expected 40, got %v", updated.Entry.Value)
		}
		if updated.Entry.Description == "" {
			t.Error("expected description preserved from seeded default")
		}

		var reset SettingResponse
		if err := client.Post(ctx, "/api/settings/reset/"+key, nil, &reset); err != nil {
			t.Fatalf("reset failed: %v", err)
		}
		if reset.Entry.Value != 28.0 {
			t.Errorf("expected default 28, got %v", reset.Entry.Value)
		}
	})

	t.Run("invalid key rejected", func(t *testing.T) {
		var resp SettingResponse
		if err := client.Get(ctx, "/api/settings/bad..key!", &resp); err == nil {
			t.Fatal("expected an error for invalid key")
		}
	})

	t.Run("list", func(t *testing.T) {
		var resp SettingsResponse
		if err := client.Get(ctx, "/api/settings", &resp); err != nil {
			t.Fatalf("list settings failed: %v", err)
		}
		if len(resp.Settings) != len(config.DefaultEntries()) {
			t.Errorf("expected %d settings, got %d", len(config.DefaultEntries()), len(resp.Settings))
		}
	})
}
