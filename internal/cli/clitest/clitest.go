// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package clitest provides utilities for testing command-line applications.
package clitest

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.astrophena.name/vcbot/internal/cli"
)

// Case represents a single test case for a command-line application.
type Case[App cli.App] struct {
	// Args are the command-line arguments to pass to the application.
	Args []string
	// Env is the whole environment of the application.
	Env map[string]string
	// WantErr, if set, must match the returned error with errors.Is.
	// A nil WantErr means the application must succeed.
	WantErr error
	// WantErrContains is a substring of the returned error message.
	WantErrContains string
	// WantInStderr is a substring of what the application printed to stderr.
	WantInStderr string
	// CheckFunc is called with the application after it has run.
	CheckFunc func(*testing.T, App)
}

// Run runs every case in parallel against a fresh application returned by
// setup.
func Run[App cli.App](t *testing.T, setup func(*testing.T) App, cases map[string]Case[App]) {
	t.Helper()
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			app := setup(t)
			var stdout, stderr bytes.Buffer
			env := &cli.Env{
				Args:   tc.Args,
				Getenv: func(k string) string { return tc.Env[k] },
				Stdin:  strings.NewReader(""),
				Stdout: &stdout,
				Stderr: &stderr,
			}
			err := cli.Run(cli.WithEnv(context.Background(), env), app)

			switch {
			case tc.WantErr == nil && err != nil:
				t.Fatalf("unexpected error: %v", err)
			case tc.WantErr != nil && !errors.Is(err, tc.WantErr):
				t.Fatalf("want error %v, got %v", tc.WantErr, err)
			}
			if tc.WantErrContains != "" && (err == nil || !strings.Contains(err.Error(), tc.WantErrContains)) {
				t.Errorf("error must contain %q, got: %v", tc.WantErrContains, err)
			}
			if tc.WantInStderr != "" && !strings.Contains(stderr.String(), tc.WantInStderr) {
				t.Errorf("stderr must contain %q, got: %q", tc.WantInStderr, stderr.String())
			}

			if tc.CheckFunc != nil {
				tc.CheckFunc(t, app)
			}
		})
	}
}
