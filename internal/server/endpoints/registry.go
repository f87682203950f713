package endpoints

import (
	"github.com/jackzampolin/easel/internal/api"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	SwaggerSpecPath string
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health
		&HealthEndpoint{},

		// Session endpoints
		&PlanEndpoint{},
		&GetSessionEndpoint{},
		&FinalizeEndpoint{},

		// Page endpoints
		&UpdatePromptEndpoint{},
		&UpdateTextEndpoint{},
		&GenerateEndpoint{},
		&EditEndpoint{},
		&ReplaceEndpoint{},
		&ConfirmEndpoint{},

		// Document downloads
		&DownloadEndpoint{},

		// Swagger/OpenAPI
		&SwaggerEndpoint{SpecPath: cfg.SwaggerSpecPath},
	}
}
