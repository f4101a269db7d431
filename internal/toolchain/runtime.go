// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package toolchain runs the external programs this tool shells out to
// (pandoc, the LaTeX compiler, the rasterizer), either straight from PATH
// or inside a docker/podman image that bundles them.
package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

const (
	binDocker = "docker"
	binPodman = "podman"

	// containerWorkdir is where Command.Dir is mounted inside a container.
	containerWorkdir = "/work"
)

// Command describes one subprocess invocation.
type Command struct {
	Name string
	Args []string

	// Dir is the working directory. It is the only host path visible to a
	// containerized tool, so file arguments must be relative to it.
	Dir string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// String is the command line as it would be typed, used in error messages.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runtime executes Commands.
type Runtime interface {
	// Name returns the runtime name ("host", "docker" or "podman").
	Name() string

	// Available reports whether the runtime can run commands at all.
	Available() bool

	// Require checks that each named tool can be run.
	Require(tools ...string) error

	// Run executes cmd and blocks until it exits or ctx is cancelled.
	Run(ctx context.Context, cmd Command) error
}

// executor abstracts process execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(ctx context.Context, name string, args ...string) error
	Run(ctx context.Context, name string, args []string, dir string, stdin io.Reader, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (o *osExecutor) Run(ctx context.Context, name string, args []string, dir string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// hostRuntime runs tools found on PATH.
type hostRuntime struct {
	exec executor
}

func (h *hostRuntime) Name() string { return "host" }

func (h *hostRuntime) Available() bool { return true }

func (h *hostRuntime) Require(tools ...string) error {
	var missing []string
	for _, t := range tools {
		if _, err := h.exec.LookPath(t); err != nil {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("not found on PATH: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (h *hostRuntime) Run(ctx context.Context, cmd Command) error {
	if err := h.exec.Run(ctx, cmd.Name, cmd.Args, cmd.Dir, cmd.Stdin, cmd.Stdout, cmd.Stderr); err != nil {
		return fmt.Errorf("running %s: %w", cmd, err)
	}
	return nil
}

// containerRuntime runs tools inside image. Docker and Podman share the
// same logic; they differ only in binary name and the subcommand used to
// check image existence.
type containerRuntime struct {
	bin           string
	imageCheckCmd []string // e.g. ["image", "inspect"] for docker
	image         string
	exec          executor
}

func (r *containerRuntime) Name() string { return r.bin }

func (r *containerRuntime) Available() bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(context.Background(), r.bin, "info") == nil
}

// Require checks the image is present; the tools are assumed to be in it.
func (r *containerRuntime) Require(...string) error {
	return r.imageExists()
}

func (r *containerRuntime) imageExists() error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, r.image)

	if err := r.exec.RunSilent(context.Background(), r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", r.image, r.bin, err)
	}
	return nil
}

func (r *containerRuntime) Run(ctx context.Context, cmd Command) error {
	if err := r.exec.Run(ctx, r.bin, r.args(cmd), "", cmd.Stdin, cmd.Stdout, cmd.Stderr); err != nil {
		return fmt.Errorf("running %s in %s container %s: %w", cmd, r.bin, r.image, err)
	}
	return nil
}

// args builds `run --rm -i [-u uid:gid] [-v dir:/work -w /work] --entrypoint name image args...`.
func (r *containerRuntime) args(cmd Command) []string {
	args := []string{"run", "--rm", "-i"}
	if uid, gid := os.Getuid(), os.Getgid(); uid >= 0 && gid >= 0 {
		args = append(args, "-u", fmt.Sprintf("%d:%d", uid, gid))
	}
	if cmd.Dir != "" {
		args = append(args, "-v", cmd.Dir+":"+containerWorkdir, "-w", containerWorkdir)
	}
	args = append(args, "--entrypoint", cmd.Name, r.image)
	return append(args, cmd.Args...)
}

func newDockerRuntime(exec executor, image string) *containerRuntime {
	return &containerRuntime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		image:         image,
		exec:          exec,
	}
}

func newPodmanRuntime(exec executor, image string) *containerRuntime {
	return &containerRuntime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		image:         image,
		exec:          exec,
	}
}

var defaultExec = &osExecutor{}

// Detect returns the host runtime when image is empty. Otherwise it tries
// docker first and falls back to podman, returning an error if neither is
// available.
func Detect(image string) (Runtime, error) {
	return detect(defaultExec, image)
}

func detect(exec executor, image string) (Runtime, error) {
	if image == "" {
		return &hostRuntime{exec: exec}, nil
	}

	docker := newDockerRuntime(exec, image)
	if docker.Available() {
		return docker, nil
	}

	podman := newPodmanRuntime(exec, image)
	if podman.Available() {
		return podman, nil
	}

	return nil, fmt.Errorf(
		"no container runtime available for image %s: neither %s nor %s found or operational",
		image, binDocker, binPodman,
	)
}

// Output runs cmd with stdout captured and returns it. Stderr goes to
// cmd.Stderr when set; otherwise it is captured and appended to the error.
func Output(ctx context.Context, rt Runtime, cmd Command) ([]byte, error) {
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	if cmd.Stderr == nil {
		cmd.Stderr = &errBuf
	}
	if err := rt.Run(ctx, cmd); err != nil {
		if msg := strings.TrimSpace(errBuf.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out.Bytes(), nil
}
