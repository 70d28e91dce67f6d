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

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the command line and captures its output streams
func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(context.Background(), args, stdout, stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestManifestThenRewrite(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "0001_YESWOOD_Furniture_Store", "02.jpg"), "b")
	writeFile(t, filepath.Join(root, "0001_YESWOOD_Furniture_Store", "01.jpg"), "a")
	writeFile(t, filepath.Join(root, "0002_YESWOOD_Furniture_Store", "01.png"), "c")
	writeFile(t, filepath.Join(root, "unrelated", "01.jpg"), "x")

	code, stdout, stderr := execute(t, "manifest", "--root", root, "--base-url", "https://img.example/main")
	require.Equal(t, 0, code, "manifest should succeed: %s", stderr)

	manifestPath := filepath.Join(root, "data", "_images_manifest.tsv")
	assert.Equal(t, "Wrote: "+manifestPath+"  (3 rows)\n", stdout)

	data, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"folder\timage_index\tfilename\turl",
		"0001_YESWOOD_Furniture_Store\t1\t01.jpg\thttps://img.example/main/0001_YESWOOD_Furniture_Store/01.jpg",
		"0001_YESWOOD_Furniture_Store\t2\t02.jpg\thttps://img.example/main/0001_YESWOOD_Furniture_Store/02.jpg",
		"0002_YESWOOD_Furniture_Store\t1\t01.png\thttps://img.example/main/0002_YESWOOD_Furniture_Store/01.png",
		"",
	}, "\n"), string(data))

	input := filepath.Join(root, "data", "feed.txt")
	output := filepath.Join(root, "data", "ready.txt")
	writeFile(t, input, "sku\ttitle\tprice\tqty\timage_url\n1\tOak\t10\t1\told\n2\tPine\t5\t1\told\n3\tElm\t7\t1\told\n")

	code, stdout, stderr = execute(t, "rewrite", "--manifest", manifestPath, "--input", input, "--out", output)
	require.Equal(t, 0, code, "rewrite should succeed: %s", stderr)
	assert.Equal(t, "OK: "+output+" | items: 3\n", stdout)
	assert.Contains(t, stderr, "1 of 3 rows had no manifest entries")

	data, err = os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"sku\ttitle\tprice\tqty\timage_url",
		"1\tOak\t10\t1\thttps://img.example/main/0001_YESWOOD_Furniture_Store/01.jpg, https://img.example/main/0001_YESWOOD_Furniture_Store/02.jpg",
		"2\tPine\t5\t1\thttps://img.example/main/0002_YESWOOD_Furniture_Store/01.png",
		"3\tElm\t7\t1\t",
		"",
	}, "\n"), string(data))
}

func TestMirrorDryRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.txt")
	output := filepath.Join(dir, "out.txt")
	root := filepath.Join(dir, "giga_mirror")
	writeFile(t, input, "title\timage_url\nOak Table\thttps://giga.example/a.PNG?size=large, https://giga.example/b\n")

	code, stdout, stderr := execute(t, "mirror", "--input", input, "--out", output, "--repo-base", "https://repo.example/m", "--root", root, "--dry-run")
	require.Equal(t, 0, code, "dry run should succeed: %s", stderr)
	assert.Equal(t, "OK\n", stdout)
	assert.Contains(t, stderr, "wrote "+output+" (1 rows)", "stderr should report the written feed")
	assert.NoDirExists(t, root, "dry run should not create the root")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "title\timage_url\nOak Table\thttps://repo.example/m/item_0002_oak-table/01.png, https://repo.example/m/item_0002_oak-table/02.jpg\n", string(data))
}

func TestMirrorLiveWithConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("img"))
	}))
	defer server.Close()

	dir := t.TempDir()
	root := filepath.Join(dir, "giga_mirror")
	input := filepath.Join(dir, "in.txt")
	output := filepath.Join(dir, "out.txt")
	configPath := filepath.Join(dir, "feedmirror.hcl")

	writeFile(t, configPath, `
mirror {
  repo_base = "https://repo.example/m"
  root      = "`+root+`"
  attempts  = 1
}
`)
	writeFile(t, input, "title\timage_url\nOak\t"+server.URL+"/a.jpg\n")

	code, stdout, stderr := execute(t, "--config", configPath, "--debug", "mirror", "--input", input, "--out", output)
	require.Equal(t, 0, code, "mirror should succeed: %s", stderr)
	assert.Equal(t, "OK\n", stdout)
	assert.Contains(t, stderr, "loaded config", "debug output should name the config file")
	assert.Contains(t, stderr, configPath)

	data, err := os.ReadFile(filepath.Join(root, "item_0002_oak", "01.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))

	data, err = os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "title\timage_url\nOak\thttps://repo.example/m/item_0002_oak/01.jpg\n", string(data))
}

func TestExitCodes(t *testing.T) {
	dir := t.TempDir()
	badHeader := filepath.Join(dir, "bad.txt")
	empty := filepath.Join(dir, "empty.txt")
	writeFile(t, badHeader, "name\timage_url\nOak\thttps://x/a.jpg\n")
	writeFile(t, empty, "")
	out := filepath.Join(dir, "out.txt")

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStderr string
	}{
		{
			name:       "missing_header_column",
			args:       []string{"mirror", "--input", badHeader, "--out", out, "--repo-base", "https://r", "--dry-run"},
			wantCode:   2,
			wantStderr: "header must contain 'title' and 'image_url'",
		},
		{
			name:       "empty_input",
			args:       []string{"mirror", "--input", empty, "--out", out, "--repo-base", "https://r", "--dry-run"},
			wantCode:   2,
			wantStderr: "empty input",
		},
		{
			name:       "missing_required_flags",
			args:       []string{"mirror", "--out", out},
			wantCode:   2,
			wantStderr: "--input, --repo-base",
		},
		{
			name:       "unknown_flag",
			args:       []string{"mirror", "--retries", "3"},
			wantCode:   2,
			wantStderr: "unknown flag",
		},
		{
			name:       "missing_input_file",
			args:       []string{"mirror", "--input", filepath.Join(dir, "nope.txt"), "--out", out, "--repo-base", "https://r"},
			wantCode:   1,
			wantStderr: "reading feed",
		},
		{
			name:       "missing_config_file",
			args:       []string{"--config", filepath.Join(dir, "nope.yaml"), "version"},
			wantCode:   1,
			wantStderr: "loading config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := execute(t, tt.args...)
			assert.Equal(t, tt.wantCode, code, "exit code should match")
			assert.Contains(t, stderr, tt.wantStderr, "stderr should explain the failure")
		})
	}

	assert.NoFileExists(t, out, "failed runs should not write output")
}

func TestVersion(t *testing.T) {
	code, stdout, _ := execute(t, "version")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout, "feedmirror "), "version line should name the binary: %q", stdout)
	assert.Contains(t, stdout, runtime.Version(), "version line should name the Go release")

	code, stdout, _ = execute(t, "version", "--short")
	require.Equal(t, 0, code)
	assert.Equal(t, readBuildInfo().version+"\n", stdout, "short output should be the bare version")
	assert.NotContains(t, stdout, " ")
}

func TestBuildInfoString(t *testing.T) {
	info := buildInfo{version: "v1.2.3", revision: "0123456789abcdef", time: "2025-01-02T15:04:05Z", dirty: true}
	assert.True(t, strings.HasPrefix(info.String(), "feedmirror v1.2.3 (0123456789ab, 2025-01-02T15:04:05Z, dirty) go"))

	assert.True(t, strings.HasPrefix(buildInfo{version: "dev"}.String(), "feedmirror dev go"))
}
