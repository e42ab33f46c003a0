package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	configFileName = "config.json"
	EnvEndpoint    = "TODO_ENDPOINT"

	DefaultEndpoint = "https://todo-test-api.devcraft.co/v1/graphql"
)

// Endpoint locates the data service. WS is the subscription URL; when
// empty it is derived from HTTP.
type Endpoint struct {
	HTTP    string    `json:"http"`
	WS      string    `json:"ws,omitempty"`
	Source  string    `json:"source"`   // "flag" | "env" | "file" | "default"
	SavedAt time.Time `json:"saved_at"` // when we saved to file
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".todo"), nil
}

func configFilePath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Resolve picks the endpoint: override (the -endpoint flag), then the
// environment, then the config file, then DefaultEndpoint.
func Resolve(override string) (*Endpoint, error) {
	// 1) flag
	if s := strings.TrimSpace(override); s != "" {
		return newEndpoint(s, "", "flag")
	}

	// 2) env
	if s := strings.TrimSpace(os.Getenv(EnvEndpoint)); s != "" {
		return newEndpoint(s, "", "env")
	}

	// 3) file
	p, err := configFilePath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// 4) default
		return newEndpoint(DefaultEndpoint, "", "default")
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	}
	var ep Endpoint
	if err := json.Unmarshal(b, &ep); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	out, err := newEndpoint(ep.HTTP, ep.WS, "file")
	if err != nil {
		return nil, err
	}
	out.SavedAt = ep.SavedAt
	return out, nil
}

// Save stores the endpoint in ~/.todo/config.json (0600 in a 0700 dir).
func Save(httpURL, wsURL string) error {
	ep, err := newEndpoint(httpURL, wsURL, "file")
	if err != nil {
		return err
	}
	ep.SavedAt = time.Now()
	if strings.TrimSpace(wsURL) == "" {
		ep.WS = ""
	}
	dir, err := configDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(ep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	p, _ := configFilePath()
	if err := os.WriteFile(p, b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Reset removes the config file; missing is fine.
func Reset() error {
	p, err := configFilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

func newEndpoint(httpURL, wsURL, source string) (*Endpoint, error) {
	httpURL = strings.TrimSpace(httpURL)
	u, err := url.Parse(httpURL)
	if err != nil {
		return nil, fmt.Errorf("endpoint %q: %w", httpURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("endpoint %q: want an http(s) URL", httpURL)
	}
	wsURL = strings.TrimSpace(wsURL)
	if wsURL == "" {
		wsURL = WebsocketURL(u)
	}
	return &Endpoint{HTTP: httpURL, WS: wsURL, Source: source}, nil
}

// WebsocketURL maps http to ws and https to wss.
func WebsocketURL(u *url.URL) string {
	ws := *u
	if u.Scheme == "https" {
		ws.Scheme = "wss"
	} else {
		ws.Scheme = "ws"
	}
	return ws.String()
}
