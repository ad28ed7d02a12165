package endpoints

import (
	"github.com/jackzampolin/redline/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Job endpoints
		&CreateJobEndpoint{},
		&ListJobsEndpoint{},
		&GetJobEndpoint{},
		&JobStatusEndpoint{},
		&CancelJobEndpoint{},

		// Run endpoints
		&ListRunsEndpoint{},
		&GetRunEndpoint{},

		// Prompt endpoints
		&ListPromptsEndpoint{},
		&GetPromptEndpoint{},
		&GetJobPromptEndpoint{},
		&SetJobPromptEndpoint{},
		&ClearJobPromptEndpoint{},

		// Settings endpoints
		&ListSettingsEndpoint{},
		&GetSettingEndpoint{},
		&UpdateSettingEndpoint{},
		&ResetSettingEndpoint{},
	}
}

// JobCommands returns endpoints grouped under the "jobs" CLI subcommand.
func JobCommands() []api.Endpoint {
	return []api.Endpoint{
		&CreateJobEndpoint{},
		&ListJobsEndpoint{},
		&GetJobEndpoint{},
		&JobStatusEndpoint{},
		&CancelJobEndpoint{},
		&ListRunsEndpoint{},
	}
}

// RunCommands returns endpoints grouped under the "runs" CLI subcommand.
func RunCommands() []api.Endpoint {
	return []api.Endpoint{
		&GetRunEndpoint{},
	}
}

// PromptCommands returns endpoints grouped under the "prompts" CLI subcommand.
func PromptCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListPromptsEndpoint{},
		&GetPromptEndpoint{},
		&GetJobPromptEndpoint{},
		&SetJobPromptEndpoint{},
		&ClearJobPromptEndpoint{},
	}
}

// SettingsCommands returns endpoints grouped under the "settings" CLI subcommand.
func SettingsCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListSettingsEndpoint{},
		&GetSettingEndpoint{},
		&UpdateSettingEndpoint{},
		&ResetSettingEndpoint{},
	}
}
