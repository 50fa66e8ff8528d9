// Package linker turns generated assembly into an executable.
//
// Design: Drive the system C compiler in 32-bit mode. It assembles the
// generated .s files and links them with a small C runtime that provides
// print_int_nl and input.
package linker

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/xyproto/env/v2"

	"github.com/GriffinCanCode/p0c/pkg/logger"
)

//go:embed runtime/runtime.c
var runtimeSource []byte

// RuntimeFile is the name the runtime is written under
const RuntimeFile = "p0c_runtime.c"

// Linker links assembly files into executables
type Linker struct {
	cc      string
	objects []string
	output  string
	runtime string
}

// New returns a linker producing output. The C compiler is taken from CC,
// defaulting to cc.
func New(output string) *Linker {
	return &Linker{
		cc:     env.Str("CC", "cc"),
		output: output,
	}
}

func (l *Linker) AddObject(path string) {
	l.objects = append(l.objects, path)
}

// WriteRuntime writes the C runtime into dir and links against it
func (l *Linker) WriteRuntime(dir string) (string, error) {
	path := filepath.Join(dir, RuntimeFile)
	if err := os.WriteFile(path, runtimeSource, 0o644); err != nil {
		return "", fmt.Errorf("failed to write runtime: %w", err)
	}
	l.runtime = path
	return path, nil
}

// Command builds the compiler invocation without running it
func (l *Linker) Command(ctx context.Context) *exec.Cmd {
	args := []string{"-m32", "-o", l.output}
	args = append(args, l.objects...)
	if l.runtime != "" {
		args = append(args, l.runtime)
	}
	return exec.CommandContext(ctx, l.cc, args...)
}

// Link produces the final executable
func (l *Linker) Link(ctx context.Context) error {
	if len(l.objects) == 0 {
		return fmt.Errorf("nothing to link")
	}
	logger.LogLinkingStart(len(l.objects))

	cmd := l.Command(ctx)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("Running system toolchain", "cmd", strings.Join(cmd.Args, " "))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("%s failed: %w", l.cc, err)
		}
		return fmt.Errorf("%s failed: %w\n%s", l.cc, err, msg)
	}

	logger.LogLinkingComplete(l.output)
	return nil
}

// Build assembles asmPath into output. The runtime source lives in a
// scratch directory for the duration of the link.
func Build(ctx context.Context, asmPath, output string) error {
	dir, err := os.MkdirTemp("", "p0c-link")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	l := New(output)
	l.AddObject(asmPath)
	if _, err := l.WriteRuntime(dir); err != nil {
		return err
	}
	return l.Link(ctx)
}
