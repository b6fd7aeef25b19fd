package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dukerupert/shoplist/internal/logging"
	"github.com/dukerupert/shoplist/internal/server"
	"github.com/dukerupert/shoplist/internal/shoplist"
	"github.com/dukerupert/shoplist/internal/store"
)

type env struct {
	dir  string
	base []string
}

// newEnv isolates a CLI run in a temp directory with its own state file and
// local store.
func newEnv(t *testing.T, extra ...string) *env {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	base := append([]string{
		"--state", filepath.Join(dir, "state.json"),
		"--data-dir", filepath.Join(dir, "data"),
	}, extra...)
	return &env{dir: dir, base: base}
}

func offlineEnv(t *testing.T) *env {
	return newEnv(t, "--offline")
}

func (e *env) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, e.base...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, "", args...)
	if err != nil {
		t.Fatalf("shoplist %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func (e *env) view(t *testing.T) shoplist.Model {
	t.Helper()
	var m shoplist.Model
	out := e.mustRun(t, "show", "--json")
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("decode view: %v\n%s", err, out)
	}
	return m
}

func TestAddAndPrice(t *testing.T) {
	e := offlineEnv(t)
	e.mustRun(t, "add", "Arroz", "--qty", "2", "--obs", "tipo 1")
	out := e.mustRun(t, "price", "1", "5.50")
	if !strings.Contains(out, "R$ 11.00") || !strings.Contains(out, "Total: R$ 11.00") {
		t.Errorf("output:\n%s", out)
	}

	m := e.view(t)
	if m.Count != 1 || !m.Rows[0].Paid || m.Rows[0].Price != 11 {
		t.Errorf("view = %+v", m)
	}

	if _, err := e.run(t, "", "price", "1", "3"); err == nil {
		t.Error("pricing an already priced item should fail")
	}
	if _, err := e.run(t, "", "price", "1", "abc"); err == nil {
		t.Error("non-numeric amount should fail")
	}
}

func TestEditKeepsUnsetFieldsAndResetsPrice(t *testing.T) {
	e := offlineEnv(t)
	e.mustRun(t, "add", "Café", "--obs", "moído")
	e.mustRun(t, "price", "1", "18.90", "--mode", "total")
	e.mustRun(t, "edit", "1", "--qty", "2")

	row := e.view(t).Rows[0]
	if row.Name != "Café" || row.Observation != "moído" || row.Quantity != 2 {
		t.Errorf("row = %+v", row)
	}
	if row.Paid || row.Price != 0 {
		t.Errorf("edit should reset the price, got %+v", row)
	}
}

func TestShowFilterAndSort(t *testing.T) {
	e := offlineEnv(t)
	e.mustRun(t, "add", "banana")
	e.mustRun(t, "add", "Açúcar")
	e.mustRun(t, "add", "Arroz")
	e.mustRun(t, "price", "3", "20", "--mode", "total")

	out := e.mustRun(t, "show", "--sort", "alpha")
	if strings.Index(out, "Açúcar") > strings.Index(out, "Arroz") || strings.Index(out, "Arroz") > strings.Index(out, "banana") {
		t.Errorf("alpha order wrong:\n%s", out)
	}

	out = e.mustRun(t, "show", "--filter", "pending", "--search", "zzz")
	if !strings.Contains(out, shoplist.NoItemsPlaceholder) || !strings.Contains(out, "Total: R$ 20.00") {
		t.Errorf("output:\n%s", out)
	}

	if _, err := e.run(t, "", "show", "--filter", "cheap"); err == nil {
		t.Error("unknown filter should fail")
	}
}

func TestRemoveAsksForConfirmation(t *testing.T) {
	e := offlineEnv(t)
	e.mustRun(t, "add", "Sal")

	out, err := e.run(t, "n\n", "rm", "1")
	if err != nil {
		t.Fatalf("rm: %v", err)
	}
	if !strings.Contains(out, "Cancelled") || e.view(t).Count != 1 {
		t.Errorf("declined rm removed the item:\n%s", out)
	}

	if _, err := e.run(t, "y\n", "rm", "1"); err != nil {
		t.Fatalf("rm: %v", err)
	}
	if e.view(t).Count != 0 {
		t.Error("confirmed rm should remove the item")
	}

	if _, err := e.run(t, "", "rm", "7", "--yes"); err == nil {
		t.Error("unknown row should fail")
	}
}

func TestExportResetImport(t *testing.T) {
	e := offlineEnv(t)
	if _, err := e.run(t, "", "export"); err == nil {
		t.Error("exporting an empty list should fail")
	}

	e.mustRun(t, "add", "Feijão", "--qty", "2")
	e.mustRun(t, "price", "1", "8")
	file := filepath.Join(e.dir, "lista.json")
	e.mustRun(t, "export", file)

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), `"Feijão"`) {
		t.Errorf("export = %s", data)
	}

	oldID := strings.TrimSpace(e.mustRun(t, "id"))
	out := e.mustRun(t, "reset", "--yes")
	if !strings.Contains(out, "deleted") {
		t.Errorf("reset output = %q", out)
	}

	e.mustRun(t, "import", file, "--yes")
	m := e.view(t)
	if m.Count != 1 || m.Rows[0].Name != "Feijão" || m.Rows[0].Price != 16 {
		t.Errorf("view after import = %+v", m)
	}
	if newID := strings.TrimSpace(e.mustRun(t, "id")); newID == oldID {
		t.Error("reset should start a new list on next use")
	}
}

func TestUnknownHeldListIsReported(t *testing.T) {
	e := offlineEnv(t)
	os.WriteFile(filepath.Join(e.dir, "state.json"), []byte(`{"listId":"00000000-0000-4000-8000-000000000000"}`), 0o600)

	_, err := e.run(t, "", "show")
	if err == nil || !strings.Contains(err.Error(), "no longer exists") {
		t.Errorf("err = %v", err)
	}
}

func TestAdoptOverServer(t *testing.T) {
	svc := shoplist.NewService(store.NewMemoryStore(), nil)
	ts := httptest.NewServer(server.New(svc, server.Config{}, logging.Discard()).Router())
	defer ts.Close()

	owner := newEnv(t, "--server", ts.URL)
	owner.mustRun(t, "add", "Feijão")
	id := strings.TrimSpace(owner.mustRun(t, "id"))

	guest := newEnv(t, "--server", ts.URL)
	guest.mustRun(t, "new")
	if _, err := guest.run(t, "", "adopt", "00000000-0000-4000-8000-000000000000"); err == nil {
		t.Error("adopting an unknown list should fail")
	}
	out := guest.mustRun(t, "adopt", id)
	if !strings.Contains(out, "Feijão") {
		t.Errorf("adopt output:\n%s", out)
	}

	guest.mustRun(t, "add", "Arroz")
	if m := owner.view(t); m.Count != 2 {
		t.Errorf("owner should see both items, got %+v", m.Rows)
	}
}
