// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor answers LookPath and RunSilent from tables and delegates
// RunPiped to a function.
type fakeExecutor struct {
	bins  map[string]bool
	cmds  map[string]bool
	piped func(name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

func (f *fakeExecutor) LookPath(file string) (string, error) {
	if f.bins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (f *fakeExecutor) RunSilent(_ context.Context, name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	if f.cmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (f *fakeExecutor) RunPiped(_ context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if f.piped != nil {
		return f.piped(name, args, stdin, stdout, stderr)
	}
	return nil
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		exec    *fakeExecutor
		want    string
		wantErr bool
	}{
		{"docker", &fakeExecutor{bins: map[string]bool{"docker": true}, cmds: map[string]bool{"docker info": true}}, "docker", false},
		{"podman fallback", &fakeExecutor{bins: map[string]bool{"podman": true}, cmds: map[string]bool{"podman info": true}}, "podman", false},
		{"docker broken", &fakeExecutor{bins: map[string]bool{"docker": true, "podman": true}, cmds: map[string]bool{"podman info": true}}, "podman", false},
		{"both prefers docker", &fakeExecutor{bins: map[string]bool{"docker": true, "podman": true}, cmds: map[string]bool{"docker info": true, "podman info": true}}, "docker", false},
		{"none", &fakeExecutor{}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detect(context.Background(), tt.exec)
			if tt.wantErr {
				assert.ErrorContains(t, err, "no container runtime available")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rt.Name())
		})
	}
}

func TestImageExists(t *testing.T) {
	ctx := context.Background()
	x := &fakeExecutor{cmds: map[string]bool{
		"docker image inspect minidocks/poppler": true,
		"podman image exists minidocks/poppler":  true,
	}}
	assert.NoError(t, newDocker(x).ImageExists(ctx, "minidocks/poppler"))
	assert.NoError(t, newPodman(x).ImageExists(ctx, "minidocks/poppler"))

	err := newDocker(x).ImageExists(ctx, "missing:latest")
	assert.ErrorContains(t, err, "missing:latest")
}

func TestRun(t *testing.T) {
	var gotName string
	var gotArgs []string
	x := &fakeExecutor{piped: func(name string, args []string, stdin io.Reader, stdout, _ io.Writer) error {
		gotName, gotArgs = name, args
		data, _ := io.ReadAll(stdin)
		_, _ = stdout.Write([]byte("text of " + string(data)))
		return nil
	}}

	var out bytes.Buffer
	err := newPodman(x).Run(context.Background(), "minidocks/poppler",
		[]string{"pdftotext", "-layout", "-", "-"}, strings.NewReader("pdf"), &out)
	require.NoError(t, err)
	assert.Equal(t, "text of pdf", out.String())
	assert.Equal(t, "podman", gotName)
	assert.Equal(t, []string{"run", "--rm", "-i", "--network", "none", "minidocks/poppler", "pdftotext", "-layout", "-", "-"}, gotArgs)
}

func TestRunIncludesStderr(t *testing.T) {
	x := &fakeExecutor{piped: func(_ string, _ []string, _ io.Reader, _, stderr io.Writer) error {
		_, _ = stderr.Write([]byte("Syntax Error: Couldn't find trailer dictionary\n"))
		return errors.New("exit status 1")
	}}
	err := newDocker(x).Run(context.Background(), "img", nil, strings.NewReader(""), io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 1")
	assert.Contains(t, err.Error(), "trailer dictionary")
}
