package cmd

import (
	"bytes"
	"context"
	"flag"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli"
	"github.com/warpdl/ttcsync/common"
)

// captureOutput captures stdout and stderr while f runs.
func captureOutput(f func()) (stdout, stderr string) {
	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	outC := make(chan string)
	errC := make(chan string)
	go func() {
		var b bytes.Buffer
		io.Copy(&b, rOut)
		outC <- b.String()
	}()
	go func() {
		var b bytes.Buffer
		io.Copy(&b, rErr)
		errC <- b.String()
	}()

	f()

	wOut.Close()
	wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr
	stdout, stderr = <-outC, <-errC
	rOut.Close()
	rErr.Close()
	return stdout, stderr
}

func assertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

func assertNotContains(t *testing.T, output, notExpected string) {
	t.Helper()
	if strings.Contains(output, notExpected) {
		t.Errorf("expected output to NOT contain %q, got:\n%s", notExpected, output)
	}
}

// assertErrorFormat checks for "ttcsync: cmd[action]:".
func assertErrorFormat(t *testing.T, output, cmd, action string) {
	t.Helper()
	pattern := "ttcsync: " + cmd + "[" + action + "]:"
	if !strings.Contains(output, pattern) {
		t.Errorf("expected error format %q, got:\n%s", pattern, output)
	}
}

// newContext creates a CLI context for testing commands.
func newContext(app *cli.App, args []string, name string) *cli.Context {
	if app == nil {
		app = cli.NewApp()
	}
	app.HelpName = "ttcsync"
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	_ = set.Parse(args)
	ctx := cli.NewContext(app, set, nil)
	ctx.Command = cli.Command{Name: name}
	return ctx
}

// newFlagContext is newContext with the given flags defined before parsing.
func newFlagContext(flags []cli.Flag, args []string, name string) *cli.Context {
	app := cli.NewApp()
	app.HelpName = "ttcsync"
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	for _, f := range flags {
		f.Apply(set)
	}
	_ = set.Parse(args)
	ctx := cli.NewContext(app, set, nil)
	ctx.Command = cli.Command{Name: name, Flags: flags}
	return ctx
}

// fakeBackend records calls and returns canned results.
type fakeBackend struct {
	status   *common.StatusResult
	err      error
	started  bool
	region   string
	interval time.Duration
	roots    []string
	path     string
	cleared  bool
	closed   bool
}

func (f *fakeBackend) Status(context.Context) (*common.StatusResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.status, nil
}

func (f *fakeBackend) TriggerUpdate(context.Context) (bool, error) {
	return f.started, f.err
}

func (f *fakeBackend) SetRegion(_ context.Context, r string) error {
	f.region = r
	return f.err
}

func (f *fakeBackend) SetInterval(_ context.Context, d time.Duration) error {
	f.interval = d
	return f.err
}

func (f *fakeBackend) SearchDestination(_ context.Context, roots []string) (string, error) {
	f.roots = roots
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

func (f *fakeBackend) SetDestination(_ context.Context, p string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.path = p
	return p, nil
}

func (f *fakeBackend) ClearDestination(context.Context) error {
	f.cleared = true
	return f.err
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

// useBackend swaps newBackend for the duration of the test.
func useBackend(t *testing.T, b backend) {
	t.Helper()
	old := newBackend
	newBackend = func(context.Context, *componentOptions) (backend, error) { return b, nil }
	t.Cleanup(func() { newBackend = old })
}

// isolateConfig points the config dir at a temp dir and supplies a master
// key so no OS keyring is touched.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(common.ConfigDirEnv, dir)
	t.Setenv(common.KeyEnv, strings.Repeat("ab", 32))
	t.Setenv(common.RPCSecretEnv, "")
	t.Setenv(common.ServiceDomainEnv, "")
	return dir
}
