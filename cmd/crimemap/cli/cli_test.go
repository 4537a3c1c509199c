package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crimemap/crimemap/internal/connector"
	"github.com/crimemap/crimemap/internal/connector/sqlite"
	"github.com/crimemap/crimemap/internal/explorer"
	"github.com/crimemap/crimemap/internal/model"
	"github.com/crimemap/crimemap/internal/server"
	"github.com/crimemap/crimemap/internal/store"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd("1.2.3", "abc123", "2026-01-01")
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// newAPIServer starts a Query Service on a seeded in-memory store.
func newAPIServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	conn := sqlite.New()
	if err := conn.Connect(connector.ConnectionConfig{Driver: "sqlite", DSN: ":memory:"}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { conn.Disconnect() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.New(conn, logger)
	ctx := context.Background()
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if _, err := st.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	ts := httptest.NewServer(server.New(server.DefaultConfig(), st, logger))
	t.Cleanup(ts.Close)
	return ts, st
}

func TestVersionJSON(t *testing.T) {
	out, _, err := execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var info map[string]string
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if info["version"] != "1.2.3" || info["commit"] != "abc123" || info["built"] != "2026-01-01" {
		t.Errorf("info = %v", info)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crimemap.yaml")

	if _, _, err := execute(t, "config", "init", path); err != nil {
		t.Fatalf("config init: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "driver: sqlite") {
		t.Errorf("config missing database driver:\n%s", data)
	}

	if _, _, err := execute(t, "config", "init", path); err == nil {
		t.Error("second init without --force should fail")
	}
	if _, _, err := execute(t, "config", "init", path, "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestOpenAPIToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.json")

	if _, _, err := execute(t, "openapi", "-o", path); err != nil {
		t.Fatalf("openapi: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, p := range []string{"/codes", "/neighborhoods", "/incidents", "/new-incident", "/remove-incident"} {
		if !strings.Contains(string(data), `"`+p+`"`) {
			t.Errorf("spec missing path %s", p)
		}
	}
}

func TestParseLatLon(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{in: "44.9537,-93.0900"},
		{in: " 44.95 , -93.09 "},
		{in: "44.95", wantErr: true},
		{in: "north,-93.09", wantErr: true},
		{in: "44.95,west", wantErr: true},
		{in: "95,-93.09", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := parseLatLon(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLatLon(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestFilterFlagsActions(t *testing.T) {
	f := filterFlags{start: "2019-10-01", codes: "700,600", neighborhoods: "7", limit: 50}
	acts, err := f.actions()
	if err != nil {
		t.Fatalf("actions: %v", err)
	}
	// date range, limit, two codes, one neighborhood, apply
	if len(acts) != 6 {
		t.Fatalf("len(acts) = %d, want 6", len(acts))
	}
	if _, ok := acts[len(acts)-1].(explorer.ApplyFilters); !ok {
		t.Errorf("last action = %T, want ApplyFilters", acts[len(acts)-1])
	}

	bad := filterFlags{codes: "abc"}
	if _, err := bad.actions(); err == nil || !strings.Contains(err.Error(), "--code") {
		t.Errorf("bad codes err = %v", err)
	}
}

func TestIncidentCommandsAgainstServer(t *testing.T) {
	ts, _ := newAPIServer(t)

	_, stderr, err := execute(t, "incidents", "create", "--server", ts.URL,
		"--case-number", "19245020", "--date", "2019-10-30", "--time", "23:57:08",
		"--code", "600", "--incident", "Theft", "--grid", "87", "--neighborhood", "7",
		"--block", "THOMAS AV & VICTORIA")
	if err != nil {
		t.Fatalf("create: %v (%s)", err, stderr)
	}

	_, stderr, err = execute(t, "incidents", "create", "--server", ts.URL,
		"--case-number", "19245020", "--date", "2019-10-30", "--time", "23:57:08")
	if err == nil {
		t.Fatal("duplicate create should fail")
	}
	if !strings.Contains(stderr, "Case number 19245020 already exists") {
		t.Errorf("stderr = %q", stderr)
	}

	out, stderr, err := execute(t, "incidents", "list", "--server", ts.URL, "--neighborhood", "7", "--json")
	if err != nil {
		t.Fatalf("list: %v (%s)", err, stderr)
	}
	var incs []model.Incident
	if err := json.Unmarshal([]byte(out), &incs); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(incs) != 1 || incs[0].CaseNumber != "19245020" || incs[0].Date != "2019-10-30" {
		t.Errorf("incidents = %+v", incs)
	}

	out, _, err = execute(t, "incidents", "list", "--server", ts.URL)
	if err != nil {
		t.Fatalf("list table: %v", err)
	}
	if !strings.Contains(out, "Thomas/Dale/Frogtown") || !strings.Contains(out, "1 incident(s)") {
		t.Errorf("table output:\n%s", out)
	}

	out, _, err = execute(t, "density", "--server", ts.URL, "--json")
	if err != nil {
		t.Fatalf("density: %v", err)
	}
	var rows []struct {
		Neighborhood int     `json:"neighborhood"`
		Count        int     `json:"count"`
		Radius       float64 `json:"radius"`
	}
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode density: %v\n%s", err, out)
	}
	var seven, three float64
	for _, r := range rows {
		switch r.Neighborhood {
		case 7:
			seven = r.Radius
		case 3:
			three = r.Radius
		}
	}
	if seven <= three || three <= 0 {
		t.Errorf("radius(7)=%v radius(3)=%v, want 7 larger and both positive", seven, three)
	}

	if _, stderr, err := execute(t, "incidents", "delete", "19245020", "--server", ts.URL); err != nil {
		t.Fatalf("delete: %v (%s)", err, stderr)
	}
	_, stderr, err = execute(t, "incidents", "delete", "19245020", "--server", ts.URL)
	if err == nil || !strings.Contains(stderr, "Case number 19245020 does not exist") {
		t.Errorf("second delete err=%v stderr=%q", err, stderr)
	}
}

func TestCreateRequiresKeyFields(t *testing.T) {
	_, _, err := execute(t, "incidents", "create", "--server", "http://127.0.0.1:1", "--case-number", "X")
	if err == nil || !strings.Contains(err.Error(), "required") {
		t.Errorf("err = %v", err)
	}
}
