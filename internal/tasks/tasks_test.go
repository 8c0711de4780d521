package tasks

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/avendel/stagehand/internal/config"
	"github.com/avendel/stagehand/internal/tool"
)

// chdir changes into dir for the duration of the test, restoring the
// previous working directory on cleanup (t.Chdir requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

// newProject lays out a minimal project in a temp dir and chdirs into it.
func newProject(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)

	mustWrite(t, "src/index.html", "<html><body>app</body></html>")
	mustWrite(t, "src/main.js", "console.log('app')")
	mustWrite(t, "vendor/reset.css", "* { margin: 0; }")
	mustWrite(t, "vendor/grid.css", ".grid { display: grid; }")
	mustWrite(t, "vendor/inter.woff2", "fake-font-bytes")
	mustWrite(t, "stagehand.yaml", `
scripts:
  - react
styles:
  - vendor/reset.css
  - vendor/grid.css
fonts:
  - vendor/inter.woff2
`)

	cfg := config.Default()
	return cfg
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func newSet(t *testing.T, cfg *config.Config) *Set {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	return New(cfg, tool.NewRunner(wd, nil, zerolog.Nop()), zerolog.Nop())
}

func TestStylesConcatenatesInManifestOrder(t *testing.T) {
	cfg := newProject(t)
	set := newSet(t, cfg)

	if err := set.Styles(context.Background()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	out := mustRead(t, "dist/assets/css/vendor.css")
	reset := strings.Index(out, "margin: 0")
	grid := strings.Index(out, "display: grid")
	if reset < 0 || grid < 0 {
		t.Fatalf("expected both stylesheets in output, got: %s", out)
	}
	if reset > grid {
		t.Error("expected stylesheets concatenated in manifest order")
	}
}

func TestStylesMissingSourceFails(t *testing.T) {
	cfg := newProject(t)
	mustWrite(t, "stagehand.yaml", "styles:\n  - vendor/absent.css\n")
	set := newSet(t, cfg)

	err := set.Styles(context.Background())
	if err == nil {
		t.Fatal("expected error for missing stylesheet")
	}
	if !strings.Contains(err.Error(), "absent.css") {
		t.Errorf("expected error to name the missing file, got: %v", err)
	}
}

func TestFontsCopied(t *testing.T) {
	cfg := newProject(t)
	set := newSet(t, cfg)

	if err := set.Fonts(context.Background()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if got := mustRead(t, "dist/assets/fonts/inter.woff2"); got != "fake-font-bytes" {
		t.Errorf("expected font copied verbatim, got: %q", got)
	}
}

func TestHtmlCopied(t *testing.T) {
	cfg := newProject(t)
	set := newSet(t, cfg)

	if err := set.Html(context.Background()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got := mustRead(t, "dist/index.html"); !strings.Contains(got, "app") {
		t.Errorf("unexpected root document: %q", got)
	}
}

func TestAssetsCopiesTree(t *testing.T) {
	cfg := newProject(t)
	mustWrite(t, "src/assets/img/logo.svg", "<svg/>")
	set := newSet(t, cfg)

	if err := set.Assets(context.Background()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got := mustRead(t, "dist/assets/img/logo.svg"); got != "<svg/>" {
		t.Errorf("expected asset copied verbatim, got: %q", got)
	}
}

func TestAssetsMissingDirIsNoop(t *testing.T) {
	cfg := newProject(t)
	set := newSet(t, cfg)

	if err := set.Assets(context.Background()); err != nil {
		t.Fatalf("expected no error for absent asset dir, got: %v", err)
	}
}

func TestBundleInvokesBundler(t *testing.T) {
	cfg := newProject(t)
	// Fake bundler: records its invocation arguments.
	cfg.Tools[config.ToolBundler] = config.ToolConfig{
		Command: "sh",
		Args:    []string{"-c", `echo "$@" >> bundler-invocations.txt`, "bundler"},
	}
	set := newSet(t, cfg)

	if err := set.Bundle(context.Background()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	calls := strings.Split(strings.TrimSpace(mustRead(t, "bundler-invocations.txt")), "\n")
	if len(calls) != 2 {
		t.Fatalf("expected app + vendor invocations, got %d: %v", len(calls), calls)
	}

	app := calls[0]
	if !strings.Contains(app, "src/main.js") || !strings.Contains(app, filepath.Join("dist", "assets", "js", "app.js")) {
		t.Errorf("unexpected app bundle invocation: %s", app)
	}
	if !strings.Contains(app, "--external:react") {
		t.Errorf("expected manifest script marked external, got: %s", app)
	}

	vendor := calls[1]
	if !strings.Contains(vendor, filepath.Join("dist", "assets", "js", "vendor.js")) {
		t.Errorf("unexpected vendor bundle invocation: %s", vendor)
	}
}

func TestBundleNoScriptsSkipsVendor(t *testing.T) {
	cfg := newProject(t)
	mustWrite(t, "stagehand.yaml", "scripts: []\n")
	cfg.Tools[config.ToolBundler] = config.ToolConfig{
		Command: "sh",
		Args:    []string{"-c", `echo "$@" >> bundler-invocations.txt`, "bundler"},
	}
	set := newSet(t, cfg)

	if err := set.Bundle(context.Background()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	calls := strings.Split(strings.TrimSpace(mustRead(t, "bundler-invocations.txt")), "\n")
	if len(calls) != 1 {
		t.Errorf("expected single app invocation without scripts, got %d", len(calls))
	}
}

func TestVendorEntry(t *testing.T) {
	entry := string(vendorEntry([]string{"react", "react-dom"}))
	want := "import \"react\";\nimport \"react-dom\";\n"
	if entry != want {
		t.Errorf("vendorEntry = %q, want %q", entry, want)
	}
}

func TestRuntimeConfigDevelopment(t *testing.T) {
	cfg := newProject(t)
	mustWrite(t, "config/development.json", `{"apiBase": "http://localhost:9000"}`)
	set := newSet(t, cfg)

	if err := set.RuntimeConfig(context.Background()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	out := mustRead(t, "dist/config.js")
	if !strings.Contains(out, "window.__STAGEHAND_CONFIG__") {
		t.Errorf("unexpected config artifact: %s", out)
	}
	if !strings.Contains(out, "http://localhost:9000") {
		t.Errorf("expected source values merged in, got: %s", out)
	}
	if !strings.Contains(out, `"mode":"development"`) {
		t.Errorf("expected mode included, got: %s", out)
	}
}

func TestRuntimeConfigSkippedOutsideDevelopment(t *testing.T) {
	cfg := newProject(t)
	cfg.Mode = "production"
	set := newSet(t, cfg)

	if err := set.RuntimeConfig(context.Background()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if _, err := os.Stat("dist/config.js"); !os.IsNotExist(err) {
		t.Error("expected no config artifact outside development mode")
	}
}

func TestRuntimeConfigSwallowsBadSource(t *testing.T) {
	cfg := newProject(t)
	mustWrite(t, "config/development.json", "{broken json")
	set := newSet(t, cfg)

	// A broken source must be logged, not fail the build.
	if err := set.RuntimeConfig(context.Background()); err != nil {
		t.Fatalf("expected failure to be swallowed, got: %v", err)
	}
	if _, err := os.Stat("dist/config.js"); !os.IsNotExist(err) {
		t.Error("expected no artifact when the source cannot be parsed")
	}
}

func TestRuntimeConfigMissingSourceStillEmitsMode(t *testing.T) {
	cfg := newProject(t)
	set := newSet(t, cfg)

	if err := set.RuntimeConfig(context.Background()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	out := mustRead(t, "dist/config.js")
	if !strings.Contains(out, `"mode":"development"`) {
		t.Errorf("expected mode-only artifact, got: %s", out)
	}
}

func TestLintPrintsReportAndFails(t *testing.T) {
	cfg := newProject(t)
	cfg.Tools[config.ToolLinter] = config.ToolConfig{
		Command: "sh",
		Args:    []string{"-c", `echo "src/main.js: 2 problems"; exit 1`},
	}
	set := newSet(t, cfg)

	var report bytes.Buffer
	set.report = &report

	err := set.Lint(context.Background())
	if err == nil {
		t.Fatal("expected lint violations to fail the task")
	}
	if !strings.Contains(report.String(), "2 problems") {
		t.Errorf("expected the report printed before failing, got: %q", report.String())
	}
}

func TestLintCleanPasses(t *testing.T) {
	cfg := newProject(t)
	cfg.Tools[config.ToolLinter] = config.ToolConfig{Command: "true"}
	set := newSet(t, cfg)

	if err := set.Lint(context.Background()); err != nil {
		t.Fatalf("expected no error for a clean lint, got: %v", err)
	}
}

func TestTestTaskPropagatesFailure(t *testing.T) {
	cfg := newProject(t)
	cfg.Tools[config.ToolTester] = config.ToolConfig{
		Command: "sh",
		Args:    []string{"-c", `echo "1 test failed"; exit 1`},
	}
	set := newSet(t, cfg)

	var report bytes.Buffer
	set.report = &report

	if err := set.Test(context.Background()); err == nil {
		t.Fatal("expected test failure to propagate")
	}
	if !strings.Contains(report.String(), "1 test failed") {
		t.Errorf("expected runner output printed, got: %q", report.String())
	}
}
