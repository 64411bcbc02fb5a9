// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves API credentials from the environment and from a
// directory of plain-text files. Each file in the directory represents one
// secret: the filename is the key name and the file contents (trimmed) are
// the value.
//
// Supported key files: openai-api-key, anthropic-api-key, gemini-api-key,
// twitter-bearer-token.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/postbot/pkg/types"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets/"

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
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
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logrus.WithError(err).WithField("secret", name).Warn("could not read secret file")
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// FileKey maps an environment variable name to its secret file name:
// TWITTER_BEARER_TOKEN becomes twitter-bearer-token.
func FileKey(envKey string) string {
	return strings.ToLower(strings.ReplaceAll(envKey, "_", "-"))
}

// Resolver looks credentials up in the environment first and in loaded
// secret files second.
type Resolver struct {
	Files  map[string]string
	Getenv func(string) string
}

// NewResolver returns a Resolver over files and the process environment.
func NewResolver(files map[string]string) *Resolver {
	return &Resolver{Files: files, Getenv: os.Getenv}
}

// Lookup returns the value for envKey and where it came from ("env" or
// "file"). An empty value means the credential is absent.
func (r *Resolver) Lookup(envKey string) (value, source string) {
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(envKey)); v != "" {
		return v, "env"
	}
	if v := r.Files[FileKey(envKey)]; v != "" {
		return v, "file"
	}
	return "", ""
}

// Require resolves every key and fails with a ConfigurationError naming all
// that are missing. Empty key names are ignored.
func (r *Resolver) Require(keys ...string) (map[string]string, error) {
	found := make(map[string]string, len(keys))
	var missing []string
	for _, k := range keys {
		if k == "" {
			continue
		}
		v, _ := r.Lookup(k)
		if v == "" {
			missing = append(missing, k)
			continue
		}
		found[k] = v
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &types.ConfigurationError{
			Field:  "credentials",
			Reason: fmt.Sprintf("missing %s (set the environment variable or add %s under %s)", strings.Join(missing, ", "), FileKey(missing[0]), DefaultDir),
		}
	}
	return found, nil
}
