// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves Confluence credentials that are not present in
// the config file. Credentials come from the CONFLUENCE_API_TOKEN
// environment variable or from a directory of plain-text key files, where
// the filename is the key and the trimmed contents are the value.
//
// Supported key file: confluence-api-token, holding "user:token".
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/confluence-markdown/pkg/types"
)

const (
	// EnvToken is the environment variable holding "user:token".
	EnvToken = "CONFLUENCE_API_TOKEN"

	// KeyToken is the key file name holding "user:token".
	KeyToken = "confluence-api-token"
)

// ErrNoCredentials is returned by Resolve when no source provides credentials.
var ErrNoCredentials = errors.New("no Confluence credentials configured")

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// ParseToken splits a "user:token" string. The token may itself contain
// colons; only the first one separates the user.
func ParseToken(s string) (types.Credentials, error) {
	user, token, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || user == "" || token == "" {
		return types.Credentials{}, fmt.Errorf("malformed credentials: want \"user:token\"")
	}
	return types.Credentials{User: user, Token: token}, nil
}

// Resolve returns credentials from the environment, falling back to the
// key file in dir. The environment wins when both are set.
func Resolve(dir string) (types.Credentials, error) {
	if v := os.Getenv(EnvToken); v != "" {
		creds, err := ParseToken(v)
		if err != nil {
			return types.Credentials{}, fmt.Errorf("%s: %w", EnvToken, err)
		}
		return creds, nil
	}

	s, err := Load(dir)
	if err != nil {
		return types.Credentials{}, err
	}
	v, ok := s[KeyToken]
	if !ok {
		return types.Credentials{}, ErrNoCredentials
	}
	creds, err := ParseToken(v)
	if err != nil {
		return types.Credentials{}, fmt.Errorf("%s: %w", filepath.Join(dir, KeyToken), err)
	}
	return creds, nil
}
