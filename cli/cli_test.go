package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/grovetools/seqrkit/errors"
	"github.com/grovetools/seqrkit/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStandardCommandFlags(t *testing.T) {
	cmd := NewStandardCommand("seqrkit", "Analysis platform client")
	require.NoError(t, cmd.ParseFlags([]string{"-v", "--json", "--config", "/tmp/seqrkit.yml"}))

	assert.Equal(t, CommandOptions{
		ConfigFile: "/tmp/seqrkit.yml",
		Verbose:    true,
		JSONOutput: true,
	}, GetOptions(cmd))
}

func TestLoadConfigFromFlag(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/custom.yml"
	require.NoError(t, writeFile(path, "api:\n  base_url: https://seqr.example.org\n"))

	cmd := NewStandardCommand("seqrkit", "")
	require.NoError(t, cmd.ParseFlags([]string{"--config", path}))

	cfg, err := LoadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "https://seqr.example.org", cfg.API.BaseURL)
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "short", wrapText("short", 10))
	assert.Equal(t, "one two\nthree four", wrapText("one two three four", 9))
	assert.Equal(t, "a\nb", wrapText("a\nb", 10))
}

func TestStyledHelp(t *testing.T) {
	root := NewStandardCommand("seqrkit", "Analysis platform client")
	root.AddCommand(NewVersionCommand("seqrkit"))
	var out bytes.Buffer
	root.SetOut(&out)

	root.SetArgs([]string{"--help"})
	require.NoError(t, root.Execute())

	help := out.String()
	assert.Contains(t, help, "SEQRKIT")
	assert.Contains(t, help, "version")
	assert.Contains(t, help, "--config")
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "config not found",
			err:  errors.ConfigNotFound("seqrkit.yml"),
			want: []string{"configuration not found", "--config"},
		},
		{
			name: "transport",
			err:  errors.Transport("GET", "http://x/api", fmt.Errorf("connection refused")),
			want: []string{"connection refused", "api.base_url"},
		},
		{
			name: "http status shows server messages",
			err: errors.HTTPStatus("GET", "/api", 400, map[string]interface{}{
				"errors": []interface{}{"bad guid", "no samples"},
			}),
			want: []string{"bad guid, no samples"},
		},
		{
			name: "validation lists fields",
			err:  errors.Validation(map[string]string{"sampleType": "Required", "bucket": "Must be a gs:// or s3:// path"}),
			want: []string{"2 field(s)", "bucket: Must be a gs:// or s3:// path", "sampleType: Required"},
		},
		{
			name: "plain error",
			err:  fmt.Errorf("boom"),
			want: []string{"Error: boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			h := &ErrorHandler{Out: &out}

			assert.Equal(t, tt.err, h.Handle(tt.err))
			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestErrorHandlerVerbose(t *testing.T) {
	var out bytes.Buffer
	h := &ErrorHandler{Verbose: true, Out: &out}

	_ = h.Handle(errors.StoreClosed())

	assert.Contains(t, out.String(), "Error details:")
	assert.Contains(t, out.String(), `"STORE_CLOSED"`)
	assert.Nil(t, h.Handle(nil))
}

func TestVersionCommandJSON(t *testing.T) {
	root := NewStandardCommand("seqrkit", "")
	root.AddCommand(NewVersionCommand("seqrkit"))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--json"})

	require.NoError(t, root.Execute())

	var info version.Info
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, version.Version, info.Version)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
