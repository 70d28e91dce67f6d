// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

// hclConfig is the HCL schema; every attribute is optional so that unset
// values keep their defaults.
type hclConfig struct {
	Manifest *struct {
		Root         *string  `hcl:"root,optional"`
		Output       *string  `hcl:"output,optional"`
		BaseURL      *string  `hcl:"base_url,optional"`
		FolderSuffix *string  `hcl:"folder_suffix,optional"`
		Ignore       []string `hcl:"ignore,optional"`
	} `hcl:"manifest,block"`
	Feed *struct {
		Manifest    *string `hcl:"manifest,optional"`
		Input       *string `hcl:"input,optional"`
		Output      *string `hcl:"output,optional"`
		ImageColumn *int    `hcl:"image_column,optional"`
	} `hcl:"feed,block"`
	Mirror *struct {
		Root           *string  `hcl:"root,optional"`
		RepoBase       *string  `hcl:"repo_base,optional"`
		UserAgent      *string  `hcl:"user_agent,optional"`
		Attempts       *int     `hcl:"attempts,optional"`
		TimeoutSeconds *float64 `hcl:"timeout_seconds,optional"`
		BackoffSeconds *float64 `hcl:"backoff_seconds,optional"`
		SlugMaxLen     *int     `hcl:"slug_max_len,optional"`
	} `hcl:"mirror,block"`
}

// loadHCL decodes HCL data over cfg. Expressions may reference env.NAME.
func loadHCL(data []byte, filename string, cfg *Config) error {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": envObject(),
		},
	}

	var raw hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &raw)
	if diags.HasErrors() {
		return errors.Errorf("decoding HCL: %s", diags.Error())
	}

	if m := raw.Manifest; m != nil {
		setString(&cfg.Manifest.Root, m.Root)
		setString(&cfg.Manifest.Output, m.Output)
		setString(&cfg.Manifest.BaseURL, m.BaseURL)
		setString(&cfg.Manifest.FolderSuffix, m.FolderSuffix)
		if m.Ignore != nil {
			cfg.Manifest.Ignore = m.Ignore
		}
	}
	if f := raw.Feed; f != nil {
		setString(&cfg.Feed.Manifest, f.Manifest)
		setString(&cfg.Feed.Input, f.Input)
		setString(&cfg.Feed.Output, f.Output)
		setInt(&cfg.Feed.ImageColumn, f.ImageColumn)
	}
	if m := raw.Mirror; m != nil {
		setString(&cfg.Mirror.Root, m.Root)
		setString(&cfg.Mirror.RepoBase, m.RepoBase)
		setString(&cfg.Mirror.UserAgent, m.UserAgent)
		setInt(&cfg.Mirror.Attempts, m.Attempts)
		setFloat(&cfg.Mirror.TimeoutSeconds, m.TimeoutSeconds)
		setFloat(&cfg.Mirror.BackoffSeconds, m.BackoffSeconds)
		setInt(&cfg.Mirror.SlugMaxLen, m.SlugMaxLen)
	}

	return nil
}

// envObject exposes the process environment to HCL expressions
func envObject() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
