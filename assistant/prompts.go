//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

package assistant

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// prompts holds the assistant's prompt templates. Placeholders use
// {{name}} syntax and are filled with render.
type prompts struct {
	System   string `yaml:"system"`
	Grade    string `yaml:"grade"`
	Rewrite  string `yaml:"rewrite"`
	Generate string `yaml:"generate"`
	Degraded string `yaml:"degraded"`
}

func loadPrompts(source []byte) (*prompts, error) {
	if len(source) == 0 {
		source = promptsYAML
	}
	var p prompts
	if err := yaml.Unmarshal(source, &p); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	for name, text := range map[string]string{
		"system": p.System, "grade": p.Grade, "rewrite": p.Rewrite,
		"generate": p.Generate, "degraded": p.Degraded,
	} {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("prompt %s is empty", name)
		}
	}
	return &p, nil
}

func render(template string, vars map[string]string) string {
	out := template
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{{"+name+"}}", value)
	}
	return strings.TrimSpace(out)
}
