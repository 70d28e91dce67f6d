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

package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/gvawood/feedmirror/cmd/feedmirror/opts"
)

// required pairs a flag name with its resolved value
type required struct {
	flag  string
	value string
}

// requireValues fails with a usage error naming every empty value
func requireValues(values ...required) error {
	var missing []string
	for _, v := range values {
		if v.value == "" {
			missing = append(missing, "--"+v.flag)
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("%w: required flag(s) %s not set", opts.ErrUsage, strings.Join(missing, ", "))
	}
	return nil
}

// override replaces dst with the flag value when the user set it
func override(cmd *cobra.Command, name string, dst *string, value string) {
	if cmd.Flags().Changed(name) {
		*dst = value
	}
}
