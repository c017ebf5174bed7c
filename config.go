package main

import (
	"log"
	"os"
	"strings"

	optional "github.com/TBXark/optional-go"
	"github.com/go-sphere/confstore"
	"github.com/go-sphere/confstore/codec"
	"github.com/go-sphere/confstore/provider/file"
)

const (
	defaultServerURL = "http://localhost:3001"

	// apiRootPath is the versioned REST prefix of the upstream server. Per-call
	// code appends exact paths under it, so the resolved base URL must never
	// carry this suffix itself.
	apiRootPath = "/api/v1"

	mcpEndpointPath = "/mcp"
)

// Environment tier variable names. SEMLAYER_API_URL predates the server/API
// split and is kept for backward compatibility.
const (
	envServerURL = "SEMLAYER_SERVER_URL"
	envLegacyURL = "SEMLAYER_API_URL"
	envAPIToken  = "SEMLAYER_API_TOKEN"
)

// Config is resolved once at process start and injected into every component
// that needs it. It is never mutated or persisted afterward.
type Config struct {
	ServerBaseURL     string
	APIToken          string
	URLSource         string // project | global | env | default
	TokenSource       string
	LogEnabled        bool
	GatewayAuthTokens []string
}

// fileConfig is the on-disk shape shared by the project and global tiers.
// serverUrl is the current field name; apiUrl is the deprecated spelling and
// loses to serverUrl when both are present.
type fileConfig struct {
	ServerURL         string               `json:"serverUrl,omitempty"`
	APIURL            string               `json:"apiUrl,omitempty"`
	APIToken          string               `json:"apiToken,omitempty"`
	LogEnabled        optional.Field[bool] `json:"logEnabled,omitempty"`
	GatewayAuthTokens []string             `json:"gatewayAuthTokens,omitempty"`
}

// loadConfig never fails: every tier is optional and the hardcoded default
// backstops an empty environment.
func loadConfig() *Config {
	return resolveConfig(projectConfigPath(), globalConfigPath())
}

func resolveConfig(projectPath, globalPath string) *Config {
	project := readConfigTier("project", projectPath)
	global := readConfigTier("global", globalPath)

	rawURL, urlSource := resolveURL(project, global)
	token, tokenSource := resolveToken(project, global)

	cfg := &Config{
		ServerBaseURL: normalizeBaseURL(rawURL),
		APIToken:      token,
		URLSource:     urlSource,
		TokenSource:   tokenSource,
	}
	cfg.LogEnabled = tierFlag(project, global, envEnabled("SEMLAYER_LOG_ENABLED"))
	cfg.GatewayAuthTokens = tierTokens(project, global)

	log.Printf("<config> server URL %s (source: %s)", cfg.ServerBaseURL, cfg.URLSource)
	return cfg
}

// readConfigTier treats a missing file as an empty tier and an unreadable or
// unparseable file as an empty tier with a warning. It never fails resolution.
func readConfigTier(tier, path string) *fileConfig {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	conf, err := confstore.Load[fileConfig](file.New(path), codec.JsonCodec())
	if err != nil {
		log.Printf("<config> warning: ignoring %s config %s: %v", tier, path, err)
		return nil
	}
	return conf
}

func resolveURL(project, global *fileConfig) (string, string) {
	candidates := []struct {
		value  string
		source string
	}{
		{fileURL(project), "project"},
		{fileLegacyURL(project), "project"},
		{fileURL(global), "global"},
		{fileLegacyURL(global), "global"},
		{os.Getenv(envServerURL), "env"},
		{os.Getenv(envLegacyURL), "env"},
	}
	for _, c := range candidates {
		if strings.TrimSpace(c.value) != "" {
			return c.value, c.source
		}
	}
	return defaultServerURL, "default"
}

func resolveToken(project, global *fileConfig) (string, string) {
	candidates := []struct {
		value  string
		source string
	}{
		{fileToken(project), "project"},
		{fileToken(global), "global"},
		{os.Getenv(envAPIToken), "env"},
	}
	for _, c := range candidates {
		if strings.TrimSpace(c.value) != "" {
			return strings.TrimSpace(c.value), c.source
		}
	}
	return "", "default"
}

// normalizeBaseURL strips trailing versioned-API suffixes so callers can
// safely append exact paths. Normalizing an already-normalized URL is a no-op,
// including when the input carries the suffix more than once.
func normalizeBaseURL(raw string) string {
	url := strings.TrimSpace(raw)
	for {
		url = strings.TrimSuffix(url, "/")
		trimmed := strings.TrimSuffix(url, apiRootPath)
		if trimmed == url {
			return url
		}
		url = trimmed
	}
}

func fileURL(c *fileConfig) string {
	if c == nil {
		return ""
	}
	return c.ServerURL
}

func fileLegacyURL(c *fileConfig) string {
	if c == nil {
		return ""
	}
	return c.APIURL
}

func fileToken(c *fileConfig) string {
	if c == nil {
		return ""
	}
	return c.APIToken
}

// tierFlag resolves by tier priority: the first tier that sets the field wins,
// so an explicit project-level false overrides a global or env true.
func tierFlag(project, global *fileConfig, envValue bool) bool {
	if project != nil && project.LogEnabled.Present() {
		return project.LogEnabled.OrElse(false)
	}
	if global != nil && global.LogEnabled.Present() {
		return global.LogEnabled.OrElse(false)
	}
	return envValue
}

func tierTokens(project, global *fileConfig) []string {
	if project != nil && len(project.GatewayAuthTokens) > 0 {
		return append([]string(nil), project.GatewayAuthTokens...)
	}
	if global != nil && len(global.GatewayAuthTokens) > 0 {
		return append([]string(nil), global.GatewayAuthTokens...)
	}
	return nil
}
