package rag

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"docqa/internal/apperrors"
)

// LoadPrompt reads the prompt template at path. The file may be JSON or
// YAML and must define a non-empty "system" field.
func LoadPrompt(path string) (Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Prompt{}, apperrors.Wrap(apperrors.ErrConfiguration, err, "prompt template missing")
		}
		return Prompt{}, apperrors.Wrap(apperrors.ErrConfiguration, err, "failed to read prompt template")
	}

	var p Prompt
	unmarshal := yaml.Unmarshal
	if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		// yaml.v3 rejects tab-indented JSON
		unmarshal = json.Unmarshal
	}
	if err := unmarshal(data, &p); err != nil {
		return Prompt{}, apperrors.Wrap(apperrors.ErrConfiguration, err, "failed to parse prompt template "+path)
	}
	p.System = strings.TrimSpace(p.System)
	if p.System == "" {
		return Prompt{}, apperrors.New(apperrors.ErrConfiguration, "prompt template %s has no system prompt", path)
	}
	return p, nil
}
