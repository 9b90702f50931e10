// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package cli

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"strings"
	"testing"

	"go.astrophena.name/vcbot/internal/cli/envflag"
	"go.astrophena.name/vcbot/internal/testutil"
)

func TestRun(t *testing.T) {
	t.Parallel()

	var (
		ran    bool
		stderr bytes.Buffer
	)
	env := &Env{
		Args:   []string{"rest"},
		Getenv: func(string) string { return "" },
		Stdin:  strings.NewReader(""),
		Stdout: new(bytes.Buffer),
		Stderr: &stderr,
	}
	app := AppFunc(func(ctx context.Context) error {
		ran = true
		testutil.AssertEqual(t, GetEnv(ctx).Args, []string{"rest"})
		return nil
	})

	if err := Run(WithEnv(context.Background(), env), app); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, ran, true)
}

type modeApp struct {
	mode *string
	got  string
}

func (a *modeApp) EnvFlags(fs *flag.FlagSet, getenv func(string) string) {
	a.mode = envflag.Value("mode", "MODE", "download", "Media mode.", fs, getenv)
}

func (a *modeApp) Run(context.Context) error {
	a.got = *a.mode
	return nil
}

func TestRunEnvFlags(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		args []string
		env  map[string]string
		want string
	}{
		"default":        {want: "download"},
		"from env":       {env: map[string]string{"MODE": "stream"}, want: "stream"},
		"flag overrides": {args: []string{"-mode", "download"}, env: map[string]string{"MODE": "stream"}, want: "download"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			env := &Env{
				Args:   tc.args,
				Getenv: func(k string) string { return tc.env[k] },
				Stderr: new(bytes.Buffer),
			}
			app := new(modeApp)
			if err := Run(WithEnv(context.Background(), env), app); err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, app.got, tc.want)
		})
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	env := &Env{
		Args:   []string{"-version"},
		Getenv: func(string) string { return "" },
		Stderr: new(bytes.Buffer),
	}
	err := Run(WithEnv(context.Background(), env), AppFunc(func(context.Context) error {
		t.Fatal("app must not run")
		return nil
	}))
	if !errors.Is(err, ErrExitVersion) {
		t.Fatalf("want ErrExitVersion, got %v", err)
	}
	testutil.AssertEqual(t, isPrintableError(err), false)
}

func TestRunHelp(t *testing.T) {
	t.Parallel()

	env := &Env{
		Args:   []string{"-h"},
		Getenv: func(string) string { return "" },
		Stderr: new(bytes.Buffer),
	}
	err := Run(WithEnv(context.Background(), env), AppFunc(func(context.Context) error { return nil }))
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("want flag.ErrHelp, got %v", err)
	}
	testutil.AssertEqual(t, isPrintableError(err), false)
}

func TestParseDocComment(t *testing.T) {
	docSrc = []byte("/*\nVcbot streams audio.\n*/\npackage main\n")
	defer func() { docSrc = nil }()
	testutil.AssertEqual(t, parseDocComment(), "Vcbot streams audio.\n")
}
