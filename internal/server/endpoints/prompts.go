package endpoints

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/redline/internal/api"
	"github.com/jackzampolin/redline/internal/prompts"
	"github.com/jackzampolin/redline/internal/svcctx"
)

// PromptResponse represents a single embedded prompt.
type PromptResponse struct {
	Key         string   `json:"key"`
	Text        string   `json:"text"`
	Description string   `json:"description,omitempty"`
	Variables   []string `json:"variables,omitempty"`
	Hash        string   `json:"hash,omitempty"`
}

// PromptsListResponse contains all embedded prompts.
type PromptsListResponse struct {
	Prompts []PromptResponse `json:"prompts"`
}

// ListPromptsEndpoint handles GET /api/prompts.
type ListPromptsEndpoint struct{}

func (e *ListPromptsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prompts", e.handler
}

func (e *ListPromptsEndpoint) RequiresInit() bool { return true }

func (e *ListPromptsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resolver := svcctx.ResolverFrom(r.Context())
	if resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "prompt resolver not initialized")
		return
	}

	embedded := resolver.AllEmbedded()
	sort.Slice(embedded, func(i, j int) bool { return embedded[i].Key < embedded[j].Key })

	resp := PromptsListResponse{Prompts: make([]PromptResponse, 0, len(embedded))}
	for _, p := range embedded {
		resp.Prompts = append(resp.Prompts, PromptResponse{
			Key:         p.Key,
			Text:        p.Text,
			Description: p.Description,
			Variables:   p.Variables,
			Hash:        p.Hash,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *ListPromptsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List embedded prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PromptsListResponse
			if err := client.Get(cmd.Context(), "/api/prompts", &resp); err != nil {
				return err
			}
			return api.Output(resp.Prompts)
		},
	}
}

// GetPromptEndpoint handles GET /api/prompts/{key...}.
type GetPromptEndpoint struct{}

func (e *GetPromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prompts/{key...}", e.handler
}

func (e *GetPromptEndpoint) RequiresInit() bool { return true }

func (e *GetPromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key encoding")
		return
	}

	resolver := svcctx.ResolverFrom(r.Context())
	if resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "prompt resolver not initialized")
		return
	}

	p, ok := resolver.GetEmbedded(key)
	if !ok {
		writeError(w, http.StatusNotFound, "prompt not found")
		return
	}

	writeJSON(w, http.StatusOK, PromptResponse{
		Key:         p.Key,
		Text:        p.Text,
		Description: p.Description,
		Variables:   p.Variables,
		Hash:        p.Hash,
	})
}

func (e *GetPromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get an embedded prompt by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PromptResponse
			path := "/api/prompts/" + url.PathEscape(args[0])
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetJobPromptEndpoint handles GET /api/jobs/{id}/prompts/{key...}.
// It returns the prompt as the job would see it: override first, then
// embedded default.
type GetJobPromptEndpoint struct{}

func (e *GetJobPromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/jobs/{id}/prompts/{key...}", e.handler
}

func (e *GetJobPromptEndpoint) RequiresInit() bool { return true }

func (e *GetJobPromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key encoding")
		return
	}

	resolver := svcctx.ResolverFrom(r.Context())
	if resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "prompt resolver not initialized")
		return
	}

	resolved, err := resolver.Resolve(r.Context(), key, r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resolved)
}

func (e *GetJobPromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <job-id> <key>",
		Short: "Resolve a prompt for a job (override or default)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp prompts.ResolvedPrompt
			path := "/api/jobs/" + args[0] + "/prompts/" + url.PathEscape(args[1])
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// SetJobPromptRequest is the request body for setting a prompt override.
type SetJobPromptRequest struct {
	Text string `json:"text"`
}

// SetJobPromptEndpoint handles PUT /api/jobs/{id}/prompts/{key...}.
type SetJobPromptEndpoint struct{}

func (e *SetJobPromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/jobs/{id}/prompts/{key...}", e.handler
}

func (e *SetJobPromptEndpoint) RequiresInit() bool { return true }

func (e *SetJobPromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key encoding")
		return
	}

	var req SetJobPromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	// Only accept keys with an embedded default; anything else is a typo.
	resolver := svcctx.ResolverFrom(r.Context())
	if resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "prompt resolver not initialized")
		return
	}
	if _, ok := resolver.GetEmbedded(key); !ok {
		writeError(w, http.StatusNotFound, "unknown prompt key")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "store not initialized")
		return
	}

	jobID := r.PathValue("id")
	if err := st.SetPromptOverride(r.Context(), jobID, key, req.Text); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, prompts.ResolvedPrompt{
		Key:        key,
		Text:       req.Text,
		Variables:  prompts.ExtractVariables(req.Text),
		IsOverride: true,
	})
}

func (e *SetJobPromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "set <job-id> <key>",
		Short: "Set a prompt override for a job",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp prompts.ResolvedPrompt
			path := "/api/jobs/" + args[0] + "/prompts/" + url.PathEscape(args[1])
			if err := client.Put(cmd.Context(), path, SetJobPromptRequest{Text: text}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Override prompt text (required)")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

// ClearJobPromptEndpoint handles DELETE /api/jobs/{id}/prompts/{key...}.
type ClearJobPromptEndpoint struct{}

func (e *ClearJobPromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/jobs/{id}/prompts/{key...}", e.handler
}

func (e *ClearJobPromptEndpoint) RequiresInit() bool { return true }

func (e *ClearJobPromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key encoding")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "store not initialized")
		return
	}

	if err := st.DeletePromptOverride(r.Context(), r.PathValue("id"), key); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (e *ClearJobPromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <job-id> <key>",
		Short: "Remove a prompt override, restoring the embedded default",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := "/api/jobs/" + args[0] + "/prompts/" + url.PathEscape(args[1])
			return client.Delete(cmd.Context(), path)
		},
	}
}
