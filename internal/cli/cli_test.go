package cli

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/aleb2000/DesktopFileEditor/basedir"
	"github.com/aleb2000/DesktopFileEditor/desktop"
	"github.com/aleb2000/DesktopFileEditor/mimeapps"
	"github.com/aleb2000/DesktopFileEditor/sharedmimeinfo"
	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type testEnv struct {
	dir     string
	bin     string
	config  string
	started []*exec.Cmd
}

func newTestEnv(t *testing.T, configContent string) *testEnv {
	t.Helper()

	env := &testEnv{dir: t.TempDir(), bin: t.TempDir()}
	env.config = filepath.Join(env.dir, "config.yaml")

	content := "search_paths: [" + env.bin + "]\nsteam:\n  enabled: false\n" + configContent
	if err := os.WriteFile(env.config, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return env
}

func (e *testEnv) executable(t *testing.T, name string) string {
	t.Helper()

	path := filepath.Join(e.bin, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, 0o755); err != nil {
		t.Fatal(err)
	}

	return path
}

func (e *testEnv) desktopFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	app := &App{start: func(cmd *exec.Cmd) error {
		e.started = append(e.started, cmd)
		return nil
	}}

	cmd := newRootCommand("test", app)
	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(append([]string{"--config", e.config}, args...))

	err := cmd.Execute()

	return outBuf.String(), err
}

func TestParseCommand_Text(t *testing.T) {
	env := newTestEnv(t, "")

	out, err := env.run(t, "parse", `LANG=C env -i WINEPREFIX="/home/user/.wine" wine C:\\game.exe`)
	if err != nil {
		t.Fatal(err)
	}

	want := `Command: wine
Variables:
  LANG=C
  WINEPREFIX=/home/user/.wine
Arguments:
  C:\game.exe
Ignored env options: -i
`
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("parse output mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCommand_FlattenDisabled(t *testing.T) {
	env := newTestEnv(t, "flatten_env: false\n")

	out, err := env.run(t, "parse", "env A=1 app")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "Command: env\n") {
		t.Errorf("parse output = %q; want env to stay the command", out)
	}

	out, err = env.run(t, "parse", "--flatten", "env A=1 app")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "Command: app\n") {
		t.Errorf("parse --flatten output = %q; want app as the command", out)
	}
}

func TestParseCommand_Tokens(t *testing.T) {
	env := newTestEnv(t, "")

	out, err := env.run(t, "parse", "--format", "tokens", `A=1 printf "%s\\n" 'a b'`)
	if err != nil {
		t.Fatal(err)
	}

	want := "A=1\nprintf\n%s\\n\na b\n"
	if out != want {
		t.Errorf("parse --format tokens = %q; want %q", out, want)
	}
}

func TestParseCommand_YAML(t *testing.T) {
	env := newTestEnv(t, "")

	out, err := env.run(t, "parse", "-f", "yaml", "env", "-i", "A=1", "B=x=y", "app", "--flag")
	if err != nil {
		t.Fatal(err)
	}

	var got commandView
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out)
	}

	want := commandView{
		Variables: []string{"A=1", "B=x=y"},
		Command:   "app",
		Args:      []string{"--flag"},
		Dropped:   []string{"-i"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parse --format yaml mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCommand_Errors(t *testing.T) {
	env := newTestEnv(t, "")

	tests := [][]string{
		{"parse", "A=1 B=2"},
		{"parse", "--format", "json", "app"},
		{"parse"},
	}

	for _, args := range tests {
		if _, err := env.run(t, args...); err == nil {
			t.Errorf("%q: expected an error", args)
		}
	}
}

func TestRootCommand_BadConfig(t *testing.T) {
	env := newTestEnv(t, "unknown_key: 1\n")

	if _, err := env.run(t, "parse", "app"); err == nil {
		t.Error("expected an error for an unknown configuration key")
	}
}

func TestCheckCommand(t *testing.T) {
	env := newTestEnv(t, "")
	env.executable(t, "firefox")
	apps := filepath.Join(env.dir, "applications")

	env.desktopFile(t, apps, "firefox.desktop", "[Desktop Entry]\nType=Application\nName=Firefox\nExec=firefox %u\n")
	env.desktopFile(t, filepath.Join(apps, "kde"), "gone.desktop", "[Desktop Entry]\nType=Application\nName=Gone\nExec=env A=1 gone\n")
	env.desktopFile(t, apps, "broken.desktop", "Name=No header\n")
	env.desktopFile(t, apps, "settings.desktop", "[Desktop Entry]\nType=Application\nName=Settings\nNoDisplay=true\nExec=firefox about:preferences\n")

	out, err := env.run(t, "check", apps)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"firefox.desktop", filepath.Join(env.bin, "firefox"), "kde-gone.desktop", "binary not found: gone", "Settings (hidden)", "1 of 3 entries are invalid."} {
		if !strings.Contains(out, want) {
			t.Errorf("check output does not contain %q:\n%s", want, out)
		}
	}

	if strings.Contains(out, "broken.desktop") {
		t.Errorf("check output lists a file that failed to parse:\n%s", out)
	}

	out, err = env.run(t, "check", "--strict", "--invalid", apps)
	if err == nil {
		t.Error("check --strict returned no error for an invalid entry")
	}
	if strings.Contains(out, "firefox.desktop") {
		t.Errorf("check --invalid lists a valid entry:\n%s", out)
	}
}

func TestCheckCommand_Files(t *testing.T) {
	env := newTestEnv(t, "")
	env.executable(t, "app")

	path := env.desktopFile(t, env.dir, "app.desktop", "[Desktop Entry]\nType=Application\nName=App\nExec=app\n")

	out, err := env.run(t, "check", "--strict", path, filepath.Join(env.dir, "missing.desktop"))
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out, "All 1 entries are valid.") {
		t.Errorf("check output:\n%s", out)
	}
}

func TestCheckCommand_ApplicationDirs(t *testing.T) {
	env := newTestEnv(t, "")
	apps := filepath.Join(env.dir, "applications")
	env.desktopFile(t, apps, "link.desktop", "[Desktop Entry]\nType=Link\nName=Link\nURL=https://example.com\n")

	config := "search_paths: []\napplication_dirs: [" + apps + "]\n"
	if err := os.WriteFile(env.config, []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := env.run(t, "check")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out, "link.desktop") || !strings.Contains(out, "All 1 entries are valid.") {
		t.Errorf("check output:\n%s", out)
	}
}

func TestRunCommand(t *testing.T) {
	env := newTestEnv(t, "")
	binary := env.executable(t, "wine")

	path := env.desktopFile(t, env.dir, "game.desktop", `[Desktop Entry]
Type=Application
Name=Game
Path=/tmp
Exec=env -i WINEPREFIX="/home/user/.wine" wine game.exe %F --name=%c
Actions=Config;

[Desktop Action Config]
Name=Configure
Exec=wine winecfg
`)

	out, err := env.run(t, "run", path, "/a.sav", "/b.sav")
	if err != nil {
		t.Fatal(err)
	}

	if len(env.started) != 1 {
		t.Fatalf("started %d processes; want 1", len(env.started))
	}

	cmd := env.started[0]
	if cmd.Path != binary {
		t.Errorf("cmd.Path = %q; want %q", cmd.Path, binary)
	}

	wantArgs := []string{"wine", "game.exe", "/a.sav", "/b.sav", "--name=Game"}
	if diff := cmp.Diff(wantArgs, cmd.Args); diff != "" {
		t.Errorf("cmd.Args mismatch (-want +got):\n%s", diff)
	}

	if !slices.Contains(cmd.Env, "WINEPREFIX=/home/user/.wine") {
		t.Errorf("cmd.Env does not contain WINEPREFIX: %q", cmd.Env)
	}

	if cmd.Dir != "/tmp" {
		t.Errorf("cmd.Dir = %q; want /tmp", cmd.Dir)
	}

	if !strings.Contains(out, "Ignoring env options: -i") || !strings.Contains(out, "Started Game") {
		t.Errorf("run output:\n%s", out)
	}

	if _, err := env.run(t, "run", "--action", "Config", path); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"wine", "winecfg"}, env.started[1].Args); diff != "" {
		t.Errorf("action cmd.Args mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCommand_DryRun(t *testing.T) {
	env := newTestEnv(t, "")
	binary := env.executable(t, "viewer")

	path := env.desktopFile(t, env.dir, "viewer.desktop", "[Desktop Entry]\nType=Application\nName=Viewer\nExec=GDK_BACKEND=x11 viewer %u\n")

	out, err := env.run(t, "run", "-n", path, "https://example.com")
	if err != nil {
		t.Fatal(err)
	}

	want := "Environment:\n  GDK_BACKEND=x11\nBinary: " + binary + "\nArguments:\n  https://example.com\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("run --dry-run output mismatch (-want +got):\n%s", diff)
	}

	if len(env.started) != 0 {
		t.Errorf("run --dry-run started %d processes", len(env.started))
	}

	plain := env.desktopFile(t, env.dir, "plain.desktop", "[Desktop Entry]\nType=Application\nName=Plain\nExec=viewer --new-window\n")
	out, err = env.run(t, "run", "--dry-run", plain, "/ignored.txt")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "The entry does not accept files or URLs, ignoring them.\n") {
		t.Errorf("run output does not warn about ignored targets:\n%s", out)
	}
	if strings.Contains(out, "/ignored.txt") {
		t.Errorf("run passed an ignored target:\n%s", out)
	}
}

func TestRunCommand_Errors(t *testing.T) {
	env := newTestEnv(t, "")

	noExec := env.desktopFile(t, env.dir, "link.desktop", "[Desktop Entry]\nType=Link\nName=Link\n")
	missing := env.desktopFile(t, env.dir, "missing.desktop", "[Desktop Entry]\nType=Application\nName=M\nExec=not-installed\n")

	tests := [][]string{
		{"run", noExec},
		{"run", missing},
		{"run", "--action", "nope", missing},
		{"run", filepath.Join(env.dir, "nothing.desktop")},
	}

	for _, args := range tests {
		if _, err := env.run(t, args...); err == nil {
			t.Errorf("%q: expected an error", args)
		}
	}

	if len(env.started) != 0 {
		t.Errorf("started %d processes for failing entries", len(env.started))
	}
}

func TestHandlersCommand(t *testing.T) {
	env := newTestEnv(t, "")
	env.executable(t, "viewer")

	dataHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_DIRS", filepath.Join(t.TempDir(), "none"))
	t.Setenv("XDG_DATA_HOME", dataHome)
	t.Setenv("XDG_DATA_DIRS", filepath.Join(t.TempDir(), "none"))
	t.Setenv("XDG_CURRENT_DESKTOP", "")
	basedir.Reinit()
	t.Cleanup(basedir.Reinit)

	apps := filepath.Join(dataHome, "applications")
	env.desktopFile(t, apps, "viewer.desktop", "[Desktop Entry]\nType=Application\nName=Viewer\nExec=viewer %f\nMimeType=image/png;text/plain;\n")
	env.desktopFile(t, apps, "editor.desktop", "[Desktop Entry]\nType=Application\nName=Editor\nExec=missing-editor %f\nMimeType=text/plain;\n")
	env.desktopFile(t, apps, "mimeapps.list", "[Default Applications]\ntext/plain=editor.desktop;\n")
	env.desktopFile(t, filepath.Join(dataHome, "mime"), "subclasses", "text/x-csrc text/x-source\n")

	out, err := env.run(t, "handlers", "text/plain", "text/x-csrc")
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"editor.desktop", "binary not found: missing-editor", "valid, used", "text/x-csrc"} {
		if !strings.Contains(out, want) {
			t.Errorf("handlers output does not contain %q:\n%s", want, out)
		}
	}

	out, err = env.run(t, "handlers", "--strict", "image/png", "video/mp4")
	if err == nil {
		t.Error("handlers --strict returned no error for a type without application")
	}
	if !strings.Contains(out, "no application") {
		t.Errorf("handlers output does not report video/mp4:\n%s", out)
	}

	if _, err := env.run(t, "handlers", "--strict", "--no-fallback", "image/png"); err != nil {
		t.Errorf("handlers image/png: %v", err)
	}
}

func TestResolveHandlers(t *testing.T) {
	apps := filepath.Join(t.TempDir(), "applications")
	if err := os.MkdirAll(apps, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(apps, "editor.desktop"), []byte("[Desktop Entry]\nType=Application\nName=E\nExec=e\nMimeType=text/plain;\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := desktop.GetDesktopFiles([]string{apps})
	if err != nil {
		t.Fatal(err)
	}
	resolver := mimeapps.NewResolver([]mimeapps.List{{Path: filepath.Join(apps, "mimeapps.list"), NextToApplications: true}}, files)

	hierarchy, err := sharedmimeinfo.Parse(strings.NewReader("text/x-csrc text/x-source\n"), strings.NewReader("text/x-c text/x-csrc\n"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		mime       string
		noFallback bool
		wantVia    string
		wantIDs    []string
	}{
		{mime: "text/plain", wantVia: "text/plain", wantIDs: []string{"editor.desktop"}},
		{mime: "text/x-c", wantVia: "text/plain", wantIDs: []string{"editor.desktop"}},
		{mime: "text/x-c", noFallback: true, wantVia: "text/x-c"},
		{mime: "image/png", wantVia: "image/png"},
	}

	for _, test := range tests {
		via, ids := resolveHandlers(resolver, hierarchy, test.mime, test.noFallback)
		if via != test.wantVia {
			t.Errorf("resolveHandlers(%q) via = %q; want %q", test.mime, via, test.wantVia)
		}
		if diff := cmp.Diff(test.wantIDs, ids, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("resolveHandlers(%q) mismatch (-want +got):\n%s", test.mime, diff)
		}
	}
}
