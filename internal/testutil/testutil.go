package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/yolopost/internal/tensor"
	"github.com/MeKo-Tech/yolopost/internal/tensor/mock"
)

// GetProjectRoot returns the project root directory by finding go.mod.
func GetProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("failed to get caller information")
	}
	dir := filepath.Dir(filename)

	// Walk up the directory tree to find go.mod
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("could not find go.mod file starting from %s", filepath.Dir(filename))
}

// WriteTensorFile writes data as a raw dump named name inside dir.
func WriteTensorFile(t *testing.T, dir, name string, data []float32) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, tensor.WriteRawFile(path, data), "writing tensor fixture")
	return path
}

// WriteObjectsTensor writes a default-layout tensor holding objs and returns its path.
func WriteObjectsTensor(t *testing.T, dir, name string, objs ...mock.Object) string {
	t.Helper()
	l, err := tensor.DefaultLayout(tensor.DefaultNumClasses)
	require.NoError(t, err)
	return WriteTensorFile(t, dir, name, mock.NewWithObjects(l, objs...))
}

// WriteConfigFile writes a YAML config file into dir.
func WriteConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "yolopost.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
