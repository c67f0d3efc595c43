// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container runs one-shot tool images (such as pdftotext) through
// whichever of docker or podman is installed.
package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Runtime is a container engine able to run a tool image once.
type Runtime interface {
	Name() string

	// Available reports whether the binary is on PATH and answers "info".
	Available(ctx context.Context) bool

	// ImageExists returns nil when the image is present locally.
	ImageExists(ctx context.Context, image string) error

	// Run starts image with args, streaming stdin in and stdout out. The
	// container's stderr is folded into the returned error.
	Run(ctx context.Context, image string, args []string, stdin io.Reader, stdout io.Writer) error
}

// executor runs commands; tests replace it.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(ctx context.Context, name string, args ...string) error
	RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (osExecutor) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// engine implements Runtime. Docker and podman differ only in the binary
// and the image check subcommand.
type engine struct {
	bin        string
	imageCheck []string
	exec       executor
}

func (e *engine) Name() string { return e.bin }

func (e *engine) Available(ctx context.Context) bool {
	if _, err := e.exec.LookPath(e.bin); err != nil {
		return false
	}
	return e.exec.RunSilent(ctx, e.bin, "info") == nil
}

func (e *engine) ImageExists(ctx context.Context, image string) error {
	args := append(append([]string{}, e.imageCheck...), image)
	if err := e.exec.RunSilent(ctx, e.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, e.bin, err)
	}
	return nil
}

func (e *engine) Run(ctx context.Context, image string, args []string, stdin io.Reader, stdout io.Writer) error {
	full := append([]string{"run", "--rm", "-i", "--network", "none", image}, args...)
	var stderr bytes.Buffer
	if err := e.exec.RunPiped(ctx, e.bin, full, stdin, stdout, &stderr); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("running %s container %s: %w: %s", e.bin, image, err, msg)
		}
		return fmt.Errorf("running %s container %s: %w", e.bin, image, err)
	}
	return nil
}

func newDocker(x executor) *engine {
	return &engine{bin: binDocker, imageCheck: []string{"image", "inspect"}, exec: x}
}

func newPodman(x executor) *engine {
	return &engine{bin: binPodman, imageCheck: []string{"image", "exists"}, exec: x}
}

// Detect returns docker when it works, else podman, else an error.
func Detect(ctx context.Context) (Runtime, error) {
	return detect(ctx, osExecutor{})
}

func detect(ctx context.Context, x executor) (Runtime, error) {
	for _, e := range []*engine{newDocker(x), newPodman(x)} {
		if e.Available(ctx) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("no container runtime available: neither %s nor %s found or operational", binDocker, binPodman)
}
