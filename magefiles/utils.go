//go:build mage

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type cmdOptions struct {
	args   []string
	env    map[string]string
	stream bool
}

type cmdOption func(*cmdOptions)

func withArgs(args ...string) cmdOption {
	return func(o *cmdOptions) { o.args = args }
}

func withEnv(key, value string) cmdOption {
	return func(o *cmdOptions) {
		if o.env == nil {
			o.env = map[string]string{}
		}
		o.env[key] = value
	}
}

// withStream echoes the output while the command runs, not only on failure.
func withStream() cmdOption {
	return func(o *cmdOptions) { o.stream = true }
}

// executeCmd runs command through mage's sh and returns its combined output.
func executeCmd(command string, options ...cmdOption) (string, error) {
	var opts cmdOptions
	for _, o := range options {
		o(&opts)
	}
	fmt.Printf("Executing: %s %s\n", command, strings.Join(opts.args, " "))

	var out bytes.Buffer
	var stdout, stderr io.Writer = &out, &out
	stream := opts.stream || mg.Verbose()
	if stream {
		stdout = io.MultiWriter(&out, os.Stdout)
		stderr = io.MultiWriter(&out, os.Stderr)
	}

	if _, err := sh.Exec(opts.env, stdout, stderr, command, opts.args...); err != nil {
		if !stream {
			fmt.Printf("... %s failed:\n%s\n", command, out.String())
		}
		return "", fmt.Errorf("error executing %s: %w", command, err)
	}
	return out.String(), nil
}

func goTidy() error {
	if _, err := executeCmd("go", withArgs("mod", "tidy")); err != nil {
		return fmt.Errorf("failed to run go mod tidy: %w", err)
	}
	return nil
}
