// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/unified-scout/pkg/types"
)

// RunFile is the on-disk record of one search: what was asked and the
// result it produced. The effective knobs travel in Result.Params. A saved
// run is replayed by `scout search --from` without re-querying providers.
type RunFile struct {
	Request RunRequest   `yaml:"request"`
	Result  types.Result `yaml:"result"`
	SavedAt time.Time    `yaml:"saved_at"`
}

// RunRequest is the question and provider set as the user gave them.
type RunRequest struct {
	Query     string   `yaml:"query"`
	Providers []string `yaml:"providers"`
}

// WriteRunFile saves a run to a YAML file.
func WriteRunFile(path string, req RunRequest, res types.Result) error {
	rf := RunFile{
		Request: req,
		Result:  res,
		SavedAt: time.Now().UTC(),
	}
	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling run file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run file: %w", err)
	}
	return nil
}

// ReadRunFile loads a previously saved run from disk.
func ReadRunFile(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run file: %w", err)
	}
	var rf RunFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing run file: %w", err)
	}
	return &rf, nil
}
