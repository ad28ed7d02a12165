package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/redline/internal/api"
	"github.com/jackzampolin/redline/internal/config"
	"github.com/jackzampolin/redline/internal/store"
	"github.com/jackzampolin/redline/internal/svcctx"
)

// SettingsResponse contains all config entries keyed by name.
type SettingsResponse struct {
	Settings map[string]config.Entry `json:"settings"`
}

// SettingResponse contains a single config entry.
type SettingResponse struct {
	Entry *config.Entry `json:"entry,omitempty"`
}

// UpdateSettingRequest is the request body for updating a setting.
type UpdateSettingRequest struct {
	Value       any    `json:"value"`
	Description string `json:"description,omitempty"`
}

// ListSettingsEndpoint handles GET /api/settings.
type ListSettingsEndpoint struct{}

func (e *ListSettingsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/settings", e.handler
}

func (e *ListSettingsEndpoint) RequiresInit() bool { return true }

func (e *ListSettingsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	cs := svcctx.ConfigStoreFrom(r.Context())
	if cs == nil {
		writeError(w, http.StatusServiceUnavailable, "config store not initialized")
		return
	}

	entries, err := cs.GetAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SettingsResponse{Settings: entries})
}

func (e *ListSettingsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SettingsResponse
			if err := client.Get(cmd.Context(), "/api/settings", &resp); err != nil {
				return err
			}

			keys := make([]string, 0, len(resp.Settings))
			for k := range resp.Settings {
				if prefix != "" && !strings.HasPrefix(k, prefix) {
					continue
				}
				keys = append(keys, k)
			}
			sort.Strings(keys)

			entries := make([]config.Entry, 0, len(keys))
			for _, k := range keys {
				entries = append(entries, resp.Settings[k])
			}
			return api.Output(entries)
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Filter by key prefix (e.g., 'providers.openai.')")
	return cmd
}

// GetSettingEndpoint handles GET /api/settings/{key...}.
type GetSettingEndpoint struct{}

func (e *GetSettingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/settings/{key...}", e.handler
}

func (e *GetSettingEndpoint) RequiresInit() bool { return true }

func (e *GetSettingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key encoding")
		return
	}
	if err := config.ValidateKey(key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cs := svcctx.ConfigStoreFrom(r.Context())
	if cs == nil {
		writeError(w, http.StatusServiceUnavailable, "config store not initialized")
		return
	}

	entry, err := cs.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "setting not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SettingResponse{Entry: entry})
}

func (e *GetSettingEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a setting by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SettingResponse
			path := "/api/settings/" + url.PathEscape(args[0])
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp.Entry)
		},
	}
}

// UpdateSettingEndpoint handles PUT /api/settings/{key...}.
type UpdateSettingEndpoint struct{}

func (e *UpdateSettingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/settings/{key...}", e.handler
}

func (e *UpdateSettingEndpoint) RequiresInit() bool { return true }

func (e *UpdateSettingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key encoding")
		return
	}
	if err := config.ValidateKey(key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cs := svcctx.ConfigStoreFrom(r.Context())
	if cs == nil {
		writeError(w, http.StatusServiceUnavailable, "config store not initialized")
		return
	}

	// Preserve the existing description unless a new one is supplied.
	description := req.Description
	if description == "" {
		if existing, err := cs.Get(r.Context(), key); err == nil {
			description = existing.Description
		}
	}

	if err := cs.Set(r.Context(), key, req.Value, description); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	entry, err := cs.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SettingResponse{Entry: entry})
}

func (e *UpdateSettingEndpoint) Command(getServerURL func() string) *cobra.Command {
	var value string
	var description string
	cmd := &cobra.Command{
		Use:   "set <key>",
		Short: "Update a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())

			// Parse value as JSON, falling back to a plain string.
			var parsedValue any
			if err := json.Unmarshal([]byte(value), &parsedValue); err != nil {
				parsedValue = value
			}

			req := UpdateSettingRequest{Value: parsedValue, Description: description}
			var resp SettingResponse
			path := "/api/settings/" + url.PathEscape(args[0])
			if err := client.Put(cmd.Context(), path, req, &resp); err != nil {
				return err
			}
			return api.Output(resp.Entry)
		},
	}
	cmd.Flags().StringVar(&value, "value", "", "New value (JSON or string)")
	cmd.Flags().StringVar(&description, "description", "", "Description (optional)")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

// ResetSettingEndpoint handles POST /api/settings/reset/{key...}.
type ResetSettingEndpoint struct{}

func (e *ResetSettingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/settings/reset/{key...}", e.handler
}

func (e *ResetSettingEndpoint) RequiresInit() bool { return true }

func (e *ResetSettingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key encoding")
		return
	}
	if err := config.ValidateKey(key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cs := svcctx.ConfigStoreFrom(r.Context())
	if cs == nil {
		writeError(w, http.StatusServiceUnavailable, "config store not initialized")
		return
	}

	if err := config.ResetToDefault(r.Context(), cs, key); err != nil {
		if errors.Is(err, config.ErrNoDefault) {
			writeError(w, http.StatusNotFound, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	entry, err := cs.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SettingResponse{Entry: entry})
}

func (e *ResetSettingEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <key>",
		Short: "Reset a setting to its default value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SettingResponse
			path := "/api/settings/reset/" + url.PathEscape(args[0])
			if err := client.Post(cmd.Context(), path, nil, &resp); err != nil {
				return err
			}
			return api.Output(resp.Entry)
		},
	}
}
