package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"nsctl/cli/internal/auth"
	"nsctl/cli/internal/backend"
	clierrors "nsctl/cli/internal/errors"
	"nsctl/cli/internal/keychain"
	"nsctl/cli/internal/terminal"

	"github.com/99designs/keyring"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

// fakeController serves the subset of the controller API the CLI uses.
type fakeController struct {
	*httptest.Server
	token string

	logins   atomic.Int32
	logouts  atomic.Int32
	password atomic.Value
	removed  atomic.Value
}

func newFakeController(t *testing.T) *fakeController {
	t.Helper()
	fc := &fakeController{}
	fc.password.Store("s3cret")
	fc.removed.Store("")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	fc.token = token

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+token {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Username != "alice" || body.Password != fc.password.Load().(string) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"code":401,"message":"incorrect Username or Password"}`)
			return
		}
		fc.logins.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code":   200,
			"expire": time.Now().Add(time.Hour).Format(time.RFC3339),
			"token":  token,
		})
	})
	mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		fc.logouts.Add(1)
		_, _ = io.WriteString(w, `{"code":200}`)
	})
	mux.HandleFunc("GET /units", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":200,"message":"success","data":[{"unit_id":"u-1","unit_name":"fw-milan","version":"8.5"}]}`)
	}))
	mux.HandleFunc("GET /units/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "u-1" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"code":404,"message":"unit not found"}`)
			return
		}
		_, _ = io.WriteString(w, `{"code":200,"data":{"unit_id":"u-1","unit_name":"fw-milan","version":"8.5","system_id":"NETH-42"}}`)
	}))
	mux.HandleFunc("GET /units/{id}/token", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":200,"data":{"token":"unit-`+r.PathValue("id")+`"}}`)
	}))
	mux.HandleFunc("POST /units", authed(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["unit_id"] == "u-1" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"code":400,"message":"unit already exists"}`)
			return
		}
		_, _ = io.WriteString(w, `{"code":200,"data":{"join_code":"JOIN-`+body["unit_id"]+`"}}`)
	}))
	mux.HandleFunc("DELETE /units/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		fc.removed.Store(r.PathValue("id"))
		_, _ = io.WriteString(w, `{"code":200}`)
	}))
	mux.HandleFunc("PUT /accounts/password", authed(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Old string `json:"old_password"`
			New string `json:"new_password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Old != fc.password.Load().(string) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"code":400,"message":"old password mismatch"}`)
			return
		}
		fc.password.Store(body.New)
		_, _ = io.WriteString(w, `{"code":200}`)
	}))
	mux.HandleFunc("GET /accounts", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":200,"data":[{"id":1,"username":"alice"},{"id":2,"username":"bob","display_name":"Bob R."}]}`)
	}))
	fc.Server = httptest.NewServer(mux)
	t.Cleanup(fc.Close)
	return fc
}

// resetFlags puts every flag back to its default between executions of
// the shared command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

type harness struct {
	store     *keychain.Manager
	configDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfgHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgHome)
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("NSCTL_SERVER", "")

	h := &harness{
		store:     keychain.NewWithRing(keyring.NewArrayKeyring(nil)),
		configDir: filepath.Join(cfgHome, "nsctl"),
	}

	prevStore, prevPrompt := secretStoreOpener, promptFactory
	secretStoreOpener = func() (auth.SecretStore, error) { return h.store, nil }
	t.Cleanup(func() {
		secretStoreOpener, promptFactory = prevStore, prevPrompt
		rootCmd.SetOut(nil)
		resetFlags(rootCmd)
	})
	return h
}

// run executes args with input fed to the prompts and returns stdout.
func (h *harness) run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	promptFactory = func() *terminal.Prompter {
		return terminal.NewPrompterFrom(strings.NewReader(input), io.Discard)
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func (h *harness) login(t *testing.T, fc *fakeController) {
	t.Helper()
	if _, err := h.run(t, "s3cret\n", "login", "--server", fc.URL, "-u", "alice"); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestLoginUnitsLogout(t *testing.T) {
	fc := newFakeController(t)
	h := newHarness(t)

	if _, err := h.run(t, "", "units"); !clierrors.Is(err, clierrors.NotLoggedIn) {
		t.Fatalf("units before login: want NotLoggedIn, got %v", err)
	}

	h.login(t, fc)
	if fc.logins.Load() != 1 {
		t.Fatalf("controller saw %d logins", fc.logins.Load())
	}
	if tok, _, err := h.store.LoadToken(); err != nil || tok == "" {
		t.Fatalf("token not stored: %q %v", tok, err)
	}

	// Server comes from the saved config from here on.
	out, err := h.run(t, "", "units")
	if err != nil {
		t.Fatalf("units: %v", err)
	}
	if !strings.Contains(out, "fw-milan") || !strings.Contains(out, "u-1") {
		t.Errorf("units output lacks the unit:\n%s", out)
	}

	// Already logged in: no second round trip.
	if _, err := h.run(t, "", "login"); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if fc.logins.Load() != 1 {
		t.Fatalf("second login contacted the controller")
	}

	if _, err := h.run(t, "", "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if fc.logouts.Load() != 1 {
		t.Fatalf("controller saw %d logouts", fc.logouts.Load())
	}
	if _, _, err := h.store.LoadToken(); !errors.Is(err, keychain.ErrNotFound) {
		t.Fatalf("token survived logout: %v", err)
	}
	if data, _ := h.store.LoadSessionState(); data != nil {
		t.Errorf("session snapshot survived logout: %s", data)
	}

	if _, err := h.run(t, "", "units"); !clierrors.Is(err, clierrors.NotLoggedIn) {
		t.Fatalf("units after logout: want NotLoggedIn, got %v", err)
	}
}

func TestLoginSavesOnlyServer(t *testing.T) {
	fc := newFakeController(t)
	h := newHarness(t)
	t.Setenv("NSCTL_LOG_LEVEL", "debug")

	if _, err := h.run(t, "s3cret\n", "login", "--server", fc.URL, "-u", "alice", "--insecure"); err != nil {
		t.Fatalf("login: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(h.configDir, "config.yaml"))
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(raw), fc.URL) {
		t.Errorf("server not saved:\n%s", raw)
	}
	if strings.Contains(string(raw), "insecure") || strings.Contains(string(raw), "debug") {
		t.Errorf("flags or environment leaked into the config:\n%s", raw)
	}
}

func TestLoginRejected(t *testing.T) {
	fc := newFakeController(t)
	h := newHarness(t)

	_, err := h.run(t, "wrong\n", "login", "--server", fc.URL, "-u", "alice")
	if !clierrors.Is(err, clierrors.InvalidCredentials) {
		t.Fatalf("want InvalidCredentials, got %v", err)
	}
	if _, _, err := h.store.LoadToken(); !errors.Is(err, keychain.ErrNotFound) {
		t.Fatalf("rejected login stored a token: %v", err)
	}
}

func TestLoginPromptsForMissingValues(t *testing.T) {
	fc := newFakeController(t)
	h := newHarness(t)

	input := fc.URL + "\nalice\ns3cret\n"
	if _, err := h.run(t, input, "login"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if fc.logins.Load() != 1 {
		t.Fatalf("controller saw %d logins", fc.logins.Load())
	}
}

func TestWhoAmI(t *testing.T) {
	fc := newFakeController(t)
	h := newHarness(t)

	out, err := h.run(t, "", "whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out, "not logged in") || !strings.Contains(out, "nsctl login") {
		t.Errorf("logged-out whoami:\n%s", out)
	}

	h.login(t, fc)
	out, err = h.run(t, "", "me")
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if !strings.Contains(out, "alice") || !strings.Contains(out, "expires") {
		t.Errorf("logged-in whoami:\n%s", out)
	}
}

func TestWhoAmIOfflineKeepsSession(t *testing.T) {
	fc := newFakeController(t)
	h := newHarness(t)
	h.login(t, fc)

	// Expired token and a controller that is gone.
	_ = h.store.SaveToken(fc.token, time.Now().Add(-time.Minute))
	fc.Close()

	out, err := h.run(t, "", "whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out, "alice (signed out)") {
		t.Errorf("offline whoami:\n%s", out)
	}
	if tok, _, err := h.store.LoadToken(); err != nil || tok != fc.token {
		t.Errorf("offline whoami dropped the stored token: %q %v", tok, err)
	}
}

func TestUnitsShow(t *testing.T) {
	fc := newFakeController(t)
	h := newHarness(t)
	h.login(t, fc)

	out, err := h.run(t, "", "units", "show", "u-1")
	if err != nil {
		t.Fatalf("units show: %v", err)
	}
	for _, want := range []string{"fw-milan", "NETH-42", "8.5"} {
		if !strings.Contains(out, want) {
			t.Errorf("units show output lacks %q:\n%s", want, out)
		}
	}

	if _, err := h.run(t, "", "units", "show", "nope"); !clierrors.Is(err, clierrors.ServerRejected) {
		t.Errorf("unknown unit: want ServerRejected, got %v", err)
	}
}

func TestUnitsManage(t *testing.T) {
	fc := newFakeController(t)
	h := newHarness(t)
	h.login(t, fc)

	out, err := h.run(t, "", "units", "add", "u-2")
	if err != nil {
		t.Fatalf("units add: %v", err)
	}
	if !strings.Contains(out, "JOIN-u-2") {
		t.Errorf("join code missing:\n%s", out)
	}

	_, err = h.run(t, "", "units", "add", "u-1")
	var typed *clierrors.E
	if !errors.As(err, &typed) || typed.Kind != clierrors.ServerRejected || typed.Message != "unit already exists" {
		t.Errorf("duplicate unit: got %v", err)
	}

	out, err = h.run(t, "", "units", "token", "u-1")
	if err != nil {
		t.Fatalf("units token: %v", err)
	}
	if strings.TrimSpace(out) != "unit-u-1" {
		t.Errorf("units token stdout = %q, want only the token", out)
	}

	if _, err := h.run(t, "n\n", "units", "remove", "u-2"); err != nil {
		t.Fatalf("units remove declined: %v", err)
	}
	if fc.removed.Load().(string) != "" {
		t.Fatalf("declined removal reached the controller")
	}
	if _, err := h.run(t, "", "units", "rm", "u-2", "--yes"); err != nil {
		t.Fatalf("units remove: %v", err)
	}
	if fc.removed.Load().(string) != "u-2" {
		t.Errorf("removed = %q", fc.removed.Load())
	}
}

func TestPasswd(t *testing.T) {
	fc := newFakeController(t)
	h := newHarness(t)
	h.login(t, fc)

	if _, err := h.run(t, "s3cret\nn3w\nother\n", "passwd"); err == nil || !strings.Contains(err.Error(), "do not match") {
		t.Fatalf("mismatched repeat: got %v", err)
	}
	if _, err := h.run(t, "wrong\nn3w\nn3w\n", "passwd"); !clierrors.Is(err, clierrors.ServerRejected) {
		t.Fatalf("wrong current password: want ServerRejected, got %v", err)
	}
	if _, err := h.run(t, "s3cret\nn3w\nn3w\n", "passwd"); err != nil {
		t.Fatalf("passwd: %v", err)
	}
	if fc.password.Load().(string) != "n3w" {
		t.Errorf("controller password = %q", fc.password.Load())
	}
}

func TestAccounts(t *testing.T) {
	fc := newFakeController(t)
	h := newHarness(t)
	h.login(t, fc)

	out, err := h.run(t, "", "accounts")
	if err != nil {
		t.Fatalf("accounts: %v", err)
	}
	if !strings.Contains(out, "alice (you)") || !strings.Contains(out, "Bob R.") {
		t.Errorf("accounts output:\n%s", out)
	}

	if _, err := h.run(t, "", "accounts", "remove", "bob", "--yes"); err == nil {
		t.Errorf("non-numeric account id accepted")
	}
}

func TestUnitTable(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	data := unitTable([]backend.Unit{
		{ID: "u-2", Name: "zeta"},
		{ID: "u-1", Name: "Alpha", Version: "8.5", Created: created},
	})

	if len(data) != 3 {
		t.Fatalf("rows = %d, want 3", len(data))
	}
	if data[0][0] != "ID" {
		t.Errorf("header row missing: %v", data[0])
	}
	if data[1][0] != "u-1" || data[2][0] != "u-2" {
		t.Errorf("rows not sorted by name: %v", data[1:])
	}
	if data[2][2] != "-" || data[2][4] != "-" {
		t.Errorf("empty fields should render as '-': %v", data[2])
	}
	if data[1][4] != created.Local().Format("2006-01-02 15:04") {
		t.Errorf("created = %q", data[1][4])
	}
}

func TestDescribeExpiry(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	if got := describeExpiry(now.Add(90*time.Second), now); !strings.Contains(got, "in 1m30s") {
		t.Errorf("describeExpiry(soon) = %q", got)
	}
	if got := describeExpiry(now.Add(-time.Minute), now); !strings.HasPrefix(got, "expired") {
		t.Errorf("describeExpiry(past) = %q", got)
	}
}

func TestReadPassword(t *testing.T) {
	p := terminal.NewPrompterFrom(strings.NewReader(" spaced pass \n"), io.Discard)
	got, err := readPassword(p, false, nil)
	if err != nil || got != " spaced pass " {
		t.Fatalf("prompt: got %q, %v", got, err)
	}

	got, err = readPassword(nil, true, strings.NewReader("from-stdin\r\n"))
	if err != nil || got != "from-stdin" {
		t.Fatalf("stdin: got %q, %v", got, err)
	}
}

func TestExplainFailurePassesThrough(t *testing.T) {
	typed := clierrors.New(clierrors.InvalidCredentials, "nope")
	if got := explainFailure(typed, "logging in", "https://c.example"); got != typed {
		t.Errorf("typed error was rewritten: %v", got)
	}
	status := &backend.StatusError{Op: "list-units", Status: 502}
	if got := explainFailure(status, "listing units", "https://c.example"); got != status {
		t.Errorf("status error was rewritten: %v", got)
	}
	if explainFailure(nil, "x", "y") != nil {
		t.Error("nil error should stay nil")
	}
}

func TestRequireServer(t *testing.T) {
	if err := requireServer(""); err == nil {
		t.Error("empty server accepted")
	}
	if err := requireServer("controller.example.com"); err != nil {
		t.Errorf("host without scheme rejected: %v", err)
	}
}
