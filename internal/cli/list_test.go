package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestListConfigFromFlags(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	var captured *ListConfig
	listRunner = func(ctx context.Context, cfg *ListConfig) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { listRunner = runList })

	root.SetArgs([]string{
		"--env-prefix", "CLITEST_LIST",
		"--spec", "api.json",
		"list",
		"--include-tags", "foo, bar,foo",
		"--exclude-tags", "baz",
		"--methods", "get,post",
		"--path-pattern", "^/devices",
		"-o", "json",
	})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if captured.Source != "api.json" {
		t.Errorf("source mismatch: %q", captured.Source)
	}
	if want := []string{"foo", "bar"}; !equalStringSlices(captured.IncludeTags, want) {
		t.Errorf("include tags mismatch: got %v", captured.IncludeTags)
	}
	if want := []string{"baz"}; !equalStringSlices(captured.ExcludeTags, want) {
		t.Errorf("exclude tags mismatch: got %v", captured.ExcludeTags)
	}
	if want := []string{"get", "post"}; !equalStringSlices(captured.Methods, want) {
		t.Errorf("methods mismatch: got %v", captured.Methods)
	}
	if captured.Output != "json" {
		t.Errorf("output mismatch: %q", captured.Output)
	}
}

func TestListValidation(t *testing.T) {
	cases := map[string][]string{
		"no spec":     {"list"},
		"overlap":     {"--spec", "x.json", "list", "--include-tags", "a", "--exclude-tags", "a"},
		"bad output":  {"--spec", "x.json", "list", "-o", "csv"},
		"bad content": {"--spec", "/nonexistent/spec.json", "list"},
	}
	for name, args := range cases {
		args := args
		t.Run(name, func(t *testing.T) {
			root := NewRootCmd()
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)
			root.SetArgs(append([]string{"--env-prefix", "CLITEST_LISTV"}, args...))
			if err := root.Execute(); !errors.Is(err, ErrUsage) {
				t.Fatalf("expected usage error, got %v", err)
			}
		})
	}
}

func TestListPipeline_Table(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--env-prefix", "CLITEST_LISTT", "--spec", writeSpecFile(t), "list"})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 operations, got %d lines:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "Method") {
		t.Errorf("expected header row, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "GET") || !strings.Contains(lines[1], "listDevices") {
		t.Errorf("unexpected first row %q", lines[1])
	}
	if !strings.Contains(lines[3], "(deprecated)") || !strings.Contains(lines[3], "deleteDevice") {
		t.Errorf("unexpected last row %q", lines[3])
	}
}

func TestListPipeline_FilteredJSON(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{
		"--env-prefix", "CLITEST_LISTJ",
		"--spec", writeSpecFile(t),
		"list", "--include-tags", "write", "--methods", "post", "-o", "json",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	var listed []listedOperation
	if err := json.Unmarshal(out.Bytes(), &listed); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	if len(listed) != 1 || listed[0].OperationID != "createDevice" || listed[0].Method != "POST" {
		t.Fatalf("unexpected listing: %+v", listed)
	}
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
