package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/yolopost/internal/config"
	"github.com/MeKo-Tech/yolopost/internal/testutil"
)

func TestConfigInit(t *testing.T) {
	isolate(t)
	out, _, err := runCLI(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote yolopost.yaml")

	data, err := os.ReadFile("yolopost.yaml")
	require.NoError(t, err)
	var written config.Config
	require.NoError(t, yaml.Unmarshal(data, &written))
	assert.Equal(t, "text", written.Output.Format)
	assert.Equal(t, 80, written.Decoder.NumClasses)

	_, _, err = runCLI(t, "config", "init")
	require.Error(t, err, "refuses to overwrite")

	_, _, err = runCLI(t, "config", "init", "--force")
	require.NoError(t, err)
}

func TestConfigShow(t *testing.T) {
	dir := isolate(t)
	path := testutil.WriteConfigFile(t, dir, `
decoder:
  nms_threshold: 0.45
  map_mode: letterbox
output:
  format: json
`)

	out, _, err := runCLI(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# loaded from "+path)

	var shown config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &shown))
	assert.InDelta(t, 0.45, shown.Decoder.NMSThreshold, 1e-6)
	assert.Equal(t, "letterbox", shown.Decoder.MapMode)
	assert.Equal(t, "json", shown.Output.Format)
	assert.InDelta(t, 0.5, shown.Decoder.ConfidenceThreshold, 1e-6)
}

func TestConfigShowEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("YOLOPOST_BATCH_WORKERS", "9")

	out, _, err := runCLI(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "workers: 9")
}

func TestConfigFileDrivesDecode(t *testing.T) {
	dir := isolate(t)
	testutil.WriteConfigFile(t, dir, "output:\n  format: json\n")
	_, _, err := runCLI(t, "synth", "one.bin", "--object", "0,0,40,40,0,0.9")
	require.NoError(t, err)

	// yolopost.yaml in the working directory is picked up without --config.
	out, _, err := runCLI(t, "decode", "one.bin")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "ok"`)

	// Flags override the file.
	out, _, err = runCLI(t, "decode", "one.bin", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "one.bin: ok")
}
