package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// KeychainService is the macOS keychain entry Claude Code stores its
// OAuth credentials under.
const KeychainService = "Claude Code-credentials"

var (
	ErrNoCredentials = errors.New("no Claude Code credentials found, run `claude login` or pass --token")
	ErrNoAccessToken = errors.New("credentials contain no access token, run `claude logout && claude login`")
)

type credentialsFile struct {
	ClaudeAiOauth struct {
		AccessToken string `json:"accessToken"`
	} `json:"claudeAiOauth"`
}

// Credentials locates the credentials document written by Claude Code.
type Credentials struct {
	GOOS string
	// Path is the credentials file read on every platform but macOS, and
	// on macOS when the keychain has no entry.
	Path string
	// Keychain returns the raw credentials document from the macOS
	// keychain.
	Keychain func(ctx context.Context) (string, error)
}

// DefaultCredentials returns the lookup used on this machine.
func DefaultCredentials() (*Credentials, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return &Credentials{
		GOOS:     runtime.GOOS,
		Path:     filepath.Join(home, ".claude", ".credentials.json"),
		Keychain: readKeychain,
	}, nil
}

func readKeychain(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "security", "find-generic-password", "-s", KeychainService, "-w").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Raw returns the credentials document, or ErrNoCredentials when none of
// the sources has one.
func (c *Credentials) Raw(ctx context.Context) (string, error) {
	if c.GOOS == "darwin" && c.Keychain != nil {
		if raw, err := c.Keychain(ctx); err == nil && raw != "" {
			return raw, nil
		}
	}

	if c.Path == "" {
		return "", ErrNoCredentials
	}
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoCredentials
		}
		return "", fmt.Errorf("failed to read credentials: %w", err)
	}

	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return "", ErrNoCredentials
	}
	return raw, nil
}

// ParseAccessToken extracts claudeAiOauth.accessToken from a credentials
// document.
func ParseAccessToken(raw string) (string, error) {
	var creds credentialsFile
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return "", fmt.Errorf("failed to parse credentials JSON: %w", err)
	}
	if creds.ClaudeAiOauth.AccessToken == "" {
		return "", ErrNoAccessToken
	}
	return creds.ClaudeAiOauth.AccessToken, nil
}

// ResolveToken returns explicit when set, otherwise the access token from
// creds.
func ResolveToken(ctx context.Context, explicit string, creds *Credentials) (string, error) {
	if token := strings.TrimSpace(explicit); token != "" {
		return token, nil
	}
	if creds == nil {
		return "", ErrNoCredentials
	}

	raw, err := creds.Raw(ctx)
	if err != nil {
		return "", err
	}
	return ParseAccessToken(raw)
}
