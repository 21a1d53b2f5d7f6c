package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/storewatch/internal/ubereats/fakeapi"
)

// env is a config file pointing at a fake API and a temporary database.
type env struct {
	configPath string
	api        *fakeapi.Server
}

func newEnv(t *testing.T, extraConfig string, stores ...fakeapi.Store) *env {
	t.Helper()

	api := fakeapi.New("1 Main St")
	for _, st := range stores {
		api.PutStore(st)
	}
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	content := fmt.Sprintf(`
address: ChIJ-test-place
database_url: sqlite://%s
base_url: %s
poll_interval: 1s
%s`, filepath.Join(dir, "stores.db"), ts.URL, extraConfig)

	path := filepath.Join(dir, "storewatch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return &env{configPath: path, api: api}
}

// execute runs the CLI with the given stdin and returns captured stdout.
func (e *env) execute(t *testing.T, ctx context.Context, stdin string, args ...string) (string, error) {
	t.Helper()
	// config goes right after the command name so "--" can end flag parsing
	full := append([]string{args[0], "-c", e.configPath}, args[1:]...)
	return executeCmd(t, ctx, stdin, full...)
}

func executeCmd(t *testing.T, ctx context.Context, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)

	err := root.ExecuteContext(ctx)
	return out.String(), err
}

var pizza = fakeapi.Store{ID: "abc", Title: "Pizza Place", Image: "http://x/p.png", State: "OPEN"}

func assertContains(t *testing.T, output string, phrases ...string) {
	t.Helper()
	for _, phrase := range phrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, output)
		}
	}
}

func TestRoot_NoAction(t *testing.T) {
	out, err := executeCmd(t, context.Background(), "")
	if err != nil {
		t.Fatalf("root command error = %v", err)
	}
	assertContains(t, out, "No action specified", "Usage:")
}

func TestVersion(t *testing.T) {
	out, err := executeCmd(t, context.Background(), "", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	assertContains(t, out, "storewatch dev", "commit: none")
}

func TestAdd_FromArgs(t *testing.T) {
	e := newEnv(t, "", pizza)
	ctx := context.Background()

	out, err := e.execute(t, ctx, "", "add", "pizza", "place")
	if err != nil {
		t.Fatalf("add error = %v", err)
	}
	assertContains(t, out, "No stores added", "Store 'Pizza Place' added to database")
	if strings.Contains(out, "Store name: ") {
		t.Errorf("add with arguments should not prompt\nGot: %s", out)
	}

	out, err = e.execute(t, ctx, "", "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	assertContains(t, out, "Store list:", "1. Pizza Place", "[None]")
}

func TestAdd_Prompts(t *testing.T) {
	e := newEnv(t, "", pizza)

	out, err := e.execute(t, context.Background(), "pizza\n", "add")
	if err != nil {
		t.Fatalf("add error = %v", err)
	}
	assertContains(t, out, "Store name: ", "Store 'Pizza Place' added to database")
}

func TestAdd_StoreNotFound(t *testing.T) {
	e := newEnv(t, "", pizza)

	out, err := e.execute(t, context.Background(), "", "add", "Nonexistent Shop")
	if err != nil {
		t.Fatalf("add error = %v, want user-facing message only", err)
	}
	assertContains(t, out, "Store not found")

	out, _ = e.execute(t, context.Background(), "", "list")
	assertContains(t, out, "No stores added")
}

func TestAdd_AddressNotFound(t *testing.T) {
	e := newEnv(t, "", pizza)
	e.api.RejectAddress()

	out, err := e.execute(t, context.Background(), "", "add", "pizza")
	if err != nil {
		t.Fatalf("add error = %v, want user-facing message only", err)
	}
	assertContains(t, out, "Address not found")
}

func TestAdd_AlreadyTracked(t *testing.T) {
	e := newEnv(t, "", pizza)
	ctx := context.Background()

	if _, err := e.execute(t, ctx, "", "add", "pizza"); err != nil {
		t.Fatalf("first add error = %v", err)
	}
	out, err := e.execute(t, ctx, "", "add", "pizza")
	if err != nil {
		t.Fatalf("second add error = %v", err)
	}
	assertContains(t, out, "1. Pizza Place", "Store 'Pizza Place' is already tracked")
}

func TestAdd_EmptyName(t *testing.T) {
	e := newEnv(t, "", pizza)

	if _, err := e.execute(t, context.Background(), "\n", "add"); err == nil {
		t.Error("add with empty name should fail")
	}
}

func seedStores(t *testing.T, e *env, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := e.execute(t, context.Background(), "", "add", name); err != nil {
			t.Fatalf("add %q error = %v", name, err)
		}
	}
}

var threeStores = []fakeapi.Store{
	{ID: "1", Title: "Alpha", State: "OPEN"},
	{ID: "2", Title: "Beta", State: "OPEN"},
	{ID: "3", Title: "Gamma", State: "OPEN"},
}

func TestRemove_ByArgument(t *testing.T) {
	e := newEnv(t, "", threeStores...)
	seedStores(t, e, "alpha", "beta", "gamma")

	out, err := e.execute(t, context.Background(), "", "remove", "2")
	if err != nil {
		t.Fatalf("remove error = %v", err)
	}
	assertContains(t, out, "3. Gamma", "Store 'Beta' removed from database")

	out, _ = e.execute(t, context.Background(), "", "list")
	assertContains(t, out, "1. Alpha", "2. Gamma")
	if strings.Contains(out, "Beta") {
		t.Errorf("Beta should be removed\nGot: %s", out)
	}
}

func TestRemove_Prompts(t *testing.T) {
	e := newEnv(t, "", threeStores...)
	seedStores(t, e, "alpha", "beta")

	out, err := e.execute(t, context.Background(), "1\n", "remove")
	if err != nil {
		t.Fatalf("remove error = %v", err)
	}
	assertContains(t, out, "Store number: ", "Store 'Alpha' removed from database")
}

func TestRemove_InvalidNumber(t *testing.T) {
	e := newEnv(t, "", threeStores...)
	seedStores(t, e, "alpha")

	for _, arg := range []string{"0", "2", "-1", "two"} {
		t.Run(arg, func(t *testing.T) {
			if _, err := e.execute(t, context.Background(), "", "remove", "--", arg); err == nil {
				t.Errorf("remove %q should fail", arg)
			}
		})
	}

	out, _ := e.execute(t, context.Background(), "", "list")
	assertContains(t, out, "1. Alpha")
}

func TestRemove_NoStoresIsSilent(t *testing.T) {
	e := newEnv(t, "")

	out, err := e.execute(t, context.Background(), "", "remove")
	if err != nil {
		t.Fatalf("remove error = %v", err)
	}
	assertContains(t, out, "No stores added")
	if strings.Contains(out, "Store number: ") {
		t.Errorf("remove without stores should not prompt\nGot: %s", out)
	}
}

func TestParseIndex(t *testing.T) {
	tests := []struct {
		raw     string
		count   int
		want    int
		wantErr string
	}{
		{"1", 3, 0, ""},
		{" 3 ", 3, 2, ""},
		{"4", 3, 0, "out of range"},
		{"0", 3, 0, "out of range"},
		{"abc", 3, 0, "invalid store number"},
		{"", 3, 0, "invalid store number"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseIndex(tt.raw, tt.count)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("parseIndex(%q) error = %v, want %q", tt.raw, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseIndex(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("parseIndex(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestAddress(t *testing.T) {
	e := newEnv(t, "")

	out, err := e.execute(t, context.Background(), "", "address")
	if err != nil {
		t.Fatalf("address error = %v", err)
	}
	assertContains(t, out, "No stores added", "Your address: 1 Main St")
}

func TestAddress_NotFound(t *testing.T) {
	e := newEnv(t, "")
	e.api.RejectAddress()

	out, err := e.execute(t, context.Background(), "", "address")
	if err != nil {
		t.Fatalf("address error = %v", err)
	}
	assertContains(t, out, "Address not found")
}

func TestCommands_MissingConfig(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	for _, name := range []string{"add", "remove", "list", "address", "run"} {
		t.Run(name, func(t *testing.T) {
			if _, err := executeCmd(t, context.Background(), "", name, "-c", missing); err == nil {
				t.Errorf("%s with missing config should fail", name)
			}
		})
	}
}

func TestRun_PersistsAndNotifies(t *testing.T) {
	delivered := make(chan struct{}, 4)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
		delivered <- struct{}{}
	}))
	defer hook.Close()

	e := newEnv(t, "webhook: "+hook.URL+"\n", pizza)
	seedStores(t, e, "pizza")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	var out string
	go func() {
		var err error
		out, err = e.execute(t, ctx, "", "run")
		done <- err
	}()

	select {
	case <-delivered:
	case <-time.After(5 * time.Second):
		t.Fatal("no webhook delivered")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
	assertContains(t, out, "Store list:", "1. Pizza Place")

	listed, err := e.execute(t, context.Background(), "", "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	assertContains(t, listed, "1. Pizza Place", "[OPEN]")
}
