// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package toolchain

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool // binary -> whether LookPath succeeds
	runnableCmds  map[string]bool // "bin arg1 arg2" -> whether RunSilent succeeds
	runFunc       func(name string, args []string, dir string, stdin io.Reader, stdout, stderr io.Writer) error

	lastName string
	lastArgs []string
	lastDir  string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunSilent(_ context.Context, name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (m *mockExecutor) Run(_ context.Context, name string, args []string, dir string, stdin io.Reader, stdout, stderr io.Writer) error {
	m.lastName, m.lastArgs, m.lastDir = name, args, dir
	if m.runFunc != nil {
		return m.runFunc(name, args, dir, stdin, stdout, stderr)
	}
	return nil
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		image    string
		exec     *mockExecutor
		wantName string
		wantErr  bool
	}{
		{
			name:     "no image uses host binaries",
			exec:     &mockExecutor{},
			wantName: "host",
		},
		{
			name:  "docker available",
			image: "pandoc/latex",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true},
				runnableCmds:  map[string]bool{"docker info": true},
			},
			wantName: "docker",
		},
		{
			name:  "podman fallback when docker missing",
			image: "pandoc/latex",
			exec: &mockExecutor{
				availableBins: map[string]bool{"podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name:  "docker on PATH but info fails, podman works",
			image: "pandoc/latex",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name:    "image requested but no runtime",
			image:   "pandoc/latex",
			exec:    &mockExecutor{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detect(tt.exec, tt.image)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "no container runtime available") {
					t.Errorf("error should mention no runtime available, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rt.Name() != tt.wantName {
				t.Errorf("got runtime %q, want %q", rt.Name(), tt.wantName)
			}
		})
	}
}

func TestRequire(t *testing.T) {
	exec := &mockExecutor{
		availableBins: map[string]bool{"pandoc": true},
		runnableCmds:  map[string]bool{"docker image inspect pandoc/latex": true},
	}

	host := &hostRuntime{exec: exec}
	if err := host.Require("pandoc"); err != nil {
		t.Errorf("pandoc should be found: %v", err)
	}
	err := host.Require("pandoc", "pdflatex", "convert")
	if err == nil || !strings.Contains(err.Error(), "pdflatex, convert") {
		t.Errorf("error should list missing tools, got: %v", err)
	}

	if err := newDockerRuntime(exec, "pandoc/latex").Require("pdflatex"); err != nil {
		t.Errorf("image present, got: %v", err)
	}
	err = newPodmanRuntime(exec, "pandoc/latex").Require("pdflatex")
	if err == nil || !strings.Contains(err.Error(), "pandoc/latex") {
		t.Errorf("error should mention image name, got: %v", err)
	}
}

func TestHostRun(t *testing.T) {
	exec := &mockExecutor{
		runFunc: func(name string, args []string, dir string, stdin io.Reader, stdout, stderr io.Writer) error {
			data, _ := io.ReadAll(stdin)
			_, _ = stdout.Write([]byte(name + ":" + string(data)))
			return nil
		},
	}
	rt := &hostRuntime{exec: exec}

	out, err := Output(context.Background(), rt, Command{
		Name:  "pandoc",
		Args:  []string{"-f", "html", "-t", "json"},
		Dir:   "/tmp/scratch",
		Stdin: strings.NewReader("<p>hi</p>"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "pandoc:<p>hi</p>" {
		t.Errorf("got output %q", out)
	}
	if exec.lastDir != "/tmp/scratch" {
		t.Errorf("working directory = %q, want /tmp/scratch", exec.lastDir)
	}
}

func TestContainerRun(t *testing.T) {
	exec := &mockExecutor{}
	rt := newDockerRuntime(exec, "pandoc/latex:3.1")

	err := rt.Run(context.Background(), Command{
		Name: "pdflatex",
		Args: []string{"formula.tex"},
		Dir:  "/tmp/scratch",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec.lastName != "docker" {
		t.Errorf("binary = %q, want docker", exec.lastName)
	}
	got := strings.Join(exec.lastArgs, " ")
	for _, want := range []string{
		"run --rm -i",
		"-v /tmp/scratch:/work -w /work",
		"--entrypoint pdflatex pandoc/latex:3.1 formula.tex",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("args %q missing %q", got, want)
		}
	}
	if exec.lastDir != "" {
		t.Errorf("container runs should not set a host working directory, got %q", exec.lastDir)
	}
}

func TestOutput_ErrorIncludesStderr(t *testing.T) {
	exec := &mockExecutor{
		runFunc: func(_ string, _ []string, _ string, _ io.Reader, _, stderr io.Writer) error {
			_, _ = stderr.Write([]byte("pandoc: Unknown input format foo\n"))
			return errors.New("exit status 21")
		},
	}
	_, err := Output(context.Background(), &hostRuntime{exec: exec}, Command{Name: "pandoc"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	for _, want := range []string{"running pandoc", "exit status 21", "Unknown input format foo"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestOutput_ExplicitStderr(t *testing.T) {
	var diag bytes.Buffer
	exec := &mockExecutor{
		runFunc: func(_ string, _ []string, _ string, _ io.Reader, stdout, stderr io.Writer) error {
			_, _ = stderr.Write([]byte("warning"))
			_, _ = stdout.Write([]byte("ok"))
			return nil
		},
	}
	out, err := Output(context.Background(), &hostRuntime{exec: exec}, Command{Name: "pandoc", Stderr: &diag})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "ok" || diag.String() != "warning" {
		t.Errorf("out=%q diag=%q", out, diag.String())
	}
}

func TestRun_ErrorNamesCommandLine(t *testing.T) {
	failing := &mockExecutor{
		runFunc: func(string, []string, string, io.Reader, io.Writer, io.Writer) error {
			return errors.New("exit status 1")
		},
	}
	cmd := Command{Name: "convert", Args: []string{"-density", "300", "formula.pdf", "formula.png"}}

	tests := []struct {
		name string
		rt   Runtime
		want string
	}{
		{
			name: "host",
			rt:   &hostRuntime{exec: failing},
			want: "running convert -density 300 formula.pdf formula.png: exit status 1",
		},
		{
			name: "container",
			rt:   newDockerRuntime(failing, "pandoc/latex:3.1"),
			want: "running convert -density 300 formula.pdf formula.png in docker container pandoc/latex:3.1: exit status 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rt.Run(context.Background(), cmd)
			if err == nil || err.Error() != tt.want {
				t.Errorf("Run() error = %v, want %q", err, tt.want)
			}
		})
	}
}
