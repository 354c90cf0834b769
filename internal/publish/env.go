package publish

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Secrets carries the deploy credentials. They come from the process
// environment (optionally seeded from a .env file), never from the
// site config: faro.yaml is committed, tokens are not.
type Secrets struct {
	HostingToken string // FARO_HOSTING_TOKEN, production release API
	GitHubToken  string // GITHUB_TOKEN, permission checks and PR comments
}

// LoadEnv seeds the process environment from .env when one exists.
// Absence is the normal case outside local development.
func LoadEnv(logger *slog.Logger) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using process environment")
	}
}

// EnvSecrets reads the deploy credentials from the environment.
func EnvSecrets() Secrets {
	return Secrets{
		HostingToken: os.Getenv("FARO_HOSTING_TOKEN"),
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
	}
}
