package logsink

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/deppfellow/shalom-ministry/internal/config"
)

// ErrUnknownEnvironment is returned for environments with no log store target.
var ErrUnknownEnvironment = errors.New("no log store target for environment")

// Fixed local targets used outside production.
const (
	TestTarget        = "mongodb://localhost/shalom-ministry_test"
	DevelopmentTarget = "mongodb://localhost/shalom-ministry"
)

// ResolveTarget selects the MongoDB connection string for env.
//
// test and development always use the fixed local targets. production builds
// the URI from the log store config; cfg.User and cfg.Pass name the env
// variables holding the credentials and getenv reads them.
func ResolveTarget(env string, cfg config.LogStoreConfig, getenv func(string) string) (string, error) {
	switch env {
	case config.EnvTest:
		return TestTarget, nil
	case config.EnvDevelopment:
		return DevelopmentTarget, nil
	case config.EnvProduction:
		return productionTarget(cfg, getenv)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEnvironment, env)
	}
}

func productionTarget(cfg config.LogStoreConfig, getenv func(string) string) (string, error) {
	if cfg.Host == "" || cfg.DBName == "" {
		return "", errors.New("log_store host and db_name are required in production")
	}
	if cfg.User == "" || cfg.Pass == "" {
		return "", errors.New("log_store user and pass must name the credential env variables")
	}

	user := getenv(cfg.User)
	if user == "" {
		return "", fmt.Errorf("env variable %s (log store user) is not set", cfg.User)
	}
	pass := getenv(cfg.Pass)
	if pass == "" {
		return "", fmt.Errorf("env variable %s (log store password) is not set", cfg.Pass)
	}

	u := url.URL{
		Scheme:   cfg.Host,
		User:     url.UserPassword(user, pass),
		Host:     cfg.DBName + "." + cfg.ClusterDomain,
		Path:     "/" + cfg.Database,
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String(), nil
}
