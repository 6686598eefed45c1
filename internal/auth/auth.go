// Package auth resolves GitHub tokens from the environment, the gh CLI
// and the gh configuration file.
package auth

import (
	"context"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// cliTimeout bounds the gh CLI invocation so a hung credential helper
// cannot block client construction.
const cliTimeout = 5 * time.Second

// Credentials holds a bearer token for the GitHub API.
type Credentials struct {
	Token string
}

// Apply adds the Authorization header to an HTTP request.
func (c *Credentials) Apply(req *http.Request) {
	if c == nil || c.Token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
}

// Valid reports whether a token is configured.
func (c *Credentials) Valid() bool {
	return c != nil && c.Token != ""
}

// ResolveToken finds a token for the given hostname. It tries, in order,
// the GH_TOKEN and GITHUB_TOKEN environment variables, the gh CLI
// (`gh auth token`), and the gh hosts.yml file. Every source failure is
// treated as "no token"; an empty result means the caller should proceed
// unauthenticated.
func ResolveToken(hostname string) string {
	if token := TokenFromEnv(); token != "" {
		return token
	}
	if token := TokenFromCLI(hostname); token != "" {
		return token
	}
	return TokenFromHostsFile(hostname)
}

// TokenFromEnv returns the token from GH_TOKEN or GITHUB_TOKEN.
func TokenFromEnv() string {
	if token := os.Getenv("GH_TOKEN"); token != "" {
		return token
	}
	return os.Getenv("GITHUB_TOKEN")
}

// TokenFromCLI asks the gh CLI for its stored token. This works with
// both secure credential stores and plain-text storage. A missing
// binary, non-zero exit or timeout all yield "".
func TokenFromCLI(hostname string) string {
	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "gh", "auth", "token", "--hostname", hostname).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// hostEntry mirrors a per-host entry of gh's hosts.yml.
type hostEntry struct {
	OAuthToken string `yaml:"oauth_token"`
}

// TokenFromHostsFile reads the token for hostname from gh's hosts.yml.
// Only populated when gh was configured with insecure storage; a missing
// or malformed file yields "".
func TokenFromHostsFile(hostname string) string {
	path := filepath.Join(ConfigDir(), "hosts.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	hosts := map[string]hostEntry{}
	if err := yaml.Unmarshal(data, &hosts); err != nil {
		return ""
	}
	return hosts[hostname].OAuthToken
}

// ConfigDir returns the gh configuration directory, honoring
// GH_CONFIG_DIR and XDG_CONFIG_HOME before the ~/.config default.
func ConfigDir() string {
	if dir := os.Getenv("GH_CONFIG_DIR"); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gh")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "gh")
	}
	return filepath.Join(home, ".config", "gh")
}
