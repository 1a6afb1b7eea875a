package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Comcast/spok/env"
	"github.com/Comcast/spok/match"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheckPass(t *testing.T) {
	out, err := run(t, "", "check", "-a", "testdata/homer.json", "-s", "testdata/homer.spec.json")
	require.NoError(t, err, out)
	assert.True(t, strings.HasPrefix(out, "TAP version 13\nok 1 spok: homer\n"), out)
	assert.Contains(t, out, "satisfies: young")
	assert.Contains(t, out, "\n# ok\n")
}

func TestCheckFail(t *testing.T) {
	out, err := run(t, "", "check", "-A", `{"likes":"chips"}`, "-S", `{"likes":"tacos"}`)
	assert.Equal(t, errFailed, err)
	assert.Contains(t, out, "not ok 1 likes = 'chips'")
	assert.Contains(t, out, "# fail  1")
}

func TestCheckTopic(t *testing.T) {
	out, err := run(t, "", "check", "-A", `{"n":1}`, "-S", `{"n":{"$pred":"gtz"}}`, "-t", "numbers")
	require.NoError(t, err, out)
	assert.Contains(t, out, "ok 1 spok: numbers\nok 2 ·· n = 1  satisfies: spok.gtz\n")
}

func TestCheckNoSpec(t *testing.T) {
	_, err := run(t, "", "check", "-A", `{"n":1}`)
	assert.Error(t, err)
	assert.NotEqual(t, errFailed, err)
}

func TestCheckBadFormat(t *testing.T) {
	_, err := run(t, "", "check", "-A", `{"n":1}`, "-S", `{"n":1}`, "-f", "pdf")
	assert.Error(t, err)
}

func TestCheckMarkdown(t *testing.T) {
	out, err := run(t, "", "check", "-A", `{"n":1,"m":2}`, "-S", `{"n":1,"m":3}`, "-f", "markdown", "--title", "numbers")
	assert.Equal(t, errFailed, err)
	assert.True(t, strings.HasPrefix(out, "# numbers\n"), out)
	assert.Contains(t, out, "**2 assertions, 1 passed, 1 failed**")
}

func TestCheckHTML(t *testing.T) {
	out, err := run(t, "", "check", "-A", `{"n":1}`, "-S", `{"n":1}`, "-f", "html", "--css", "report.css")
	require.NoError(t, err, out)
	assert.Contains(t, out, `<link href="report.css" rel="stylesheet">`)
	assert.Contains(t, out, "<table>")
}

func TestCheckConfigFile(t *testing.T) {
	out, err := run(t, "", "--config", "testdata/config.yaml", "check", "-a", "testdata/homer.json", "-s", "testdata/homer.spec.json")
	require.NoError(t, err, out)
	assert.True(t, strings.HasPrefix(out, "# spok\n"), out)
	assert.NotContains(t, out, "satisfies")
	assert.Contains(t, out, "she has hair")
}

func TestCheckPartialConfigFile(t *testing.T) {
	out, err := run(t, "", "--config", "testdata/partial.yaml", "check", "-a", "testdata/homer.json", "-s", "testdata/homer.spec.json")
	require.NoError(t, err, out)
	assert.Contains(t, out, "satisfies: young")
	assert.Contains(t, out, "she has hair")
}

func TestConfigLayers(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "spok.yaml")
	require.NoError(t, os.WriteFile(filename, []byte("config:\n  sound: true\n"), 0644))

	s, err := LoadSettings(filename)
	require.NoError(t, err)

	o := &options{settings: s}
	cfg := o.config(rootCmd())
	assert.True(t, cfg.Sound)
	assert.True(t, cfg.PrintSpec)
	assert.False(t, cfg.PrintDescription)
	assert.Equal(t, env.ColorEnabled(), cfg.Color)

	no, yes := false, true
	cfg = o.config(rootCmd(), &match.ConfigPatch{PrintSpec: &no}, &match.ConfigPatch{PrintDescription: &yes})
	assert.True(t, cfg.Sound)
	assert.False(t, cfg.PrintSpec)
	assert.True(t, cfg.PrintDescription)
}

func TestCheckSnapshot(t *testing.T) {
	db := filepath.Join(t.TempDir(), "snapshots.db")

	args := []string{"check", "-A", `{"n":1}`, "-S", `{"n":{"$pred":"number"}}`, "--snapshot", db, "--name", "n"}

	out, err := run(t, "", args...)
	require.NoError(t, err, out)

	out, err = run(t, "", args...)
	require.NoError(t, err, out)

	args[2] = `{"n":2}`
	out, err = run(t, "", args...)
	assert.Equal(t, errFailed, err)
	assert.Contains(t, out, "# snapshot 0: wanted ok n = 1")

	args = append(args, "--update")
	out, err = run(t, "", args...)
	require.NoError(t, err, out)

	args = args[:len(args)-1]
	out, err = run(t, "", args...)
	require.NoError(t, err, out)
}

func TestCheckBench(t *testing.T) {
	out, err := run(t, "", "check", "-A", `{"n":1}`, "-S", `{"n":1}`, "--bench", "10")
	require.NoError(t, err, out)
	assert.Contains(t, out, "10 iterations")
}

func TestSuite(t *testing.T) {
	out, err := run(t, "", "suite", "testdata/simpsons.yaml")
	assert.Equal(t, errFailed, err)
	assert.Contains(t, out, "# The Simpsons, checked without a subprocess.\n")
	assert.Contains(t, out, "# homer from files\n")
	assert.Contains(t, out, "# fail  1")
}

func TestSuiteSubprocess(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip(err)
	}
	out, err := run(t, "", "suite", "testdata/echo.yaml", "--", "cat")
	require.NoError(t, err, out)
	assert.Contains(t, out, "# tests 4")
}

func TestWatchStdin(t *testing.T) {
	in := `{"n":1} {"n":2} {"n":-1} {"n":3}`
	out, err := run(t, in, "watch", "--stdin", "-S", `{"n":{"$pred":"gtz"}}`, "-n", "3")
	assert.Equal(t, errFailed, err)
	assert.Contains(t, out, "# value 3\nnot ok 3 n = -1")
	assert.NotContains(t, out, "# value 4")
	assert.Contains(t, out, "# tests 3")
}

func TestWatchNeedsOneSource(t *testing.T) {
	_, err := run(t, "", "watch", "-S", `{"n":1}`)
	assert.Error(t, err)
	_, err = run(t, "", "watch", "-S", `{"n":1}`, "--stdin", "--ws", "ws://localhost")
	assert.Error(t, err)
}

func TestPredicates(t *testing.T) {
	out, err := run(t, "", "predicates")
	require.NoError(t, err)
	assert.Contains(t, out, "range(min, max)")
	assert.Contains(t, out, "ecmascript-ext")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "spok version "+Version+"\n", out)
}

func TestGraph(t *testing.T) {
	out, err := run(t, "", "graph", "-s", "testdata/homer.spec.json", "-f", "mermaid")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TB\n  n1(\"homer\")\n"), out)

	out, err = run(t, "", "graph", "-s", "testdata/homer.spec.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "digraph G {\n"), out)

	_, err = run(t, "", "graph", "-s", "testdata/homer.spec.json", "-f", "png")
	assert.Error(t, err)
}

func TestAnalyze(t *testing.T) {
	out, err := run(t, "", "analyze", "-s", "testdata/homer.spec.json")
	require.NoError(t, err)
	assert.Contains(t, out, `"assertions": 12`)
	assert.Contains(t, out, `"young"`)
}
