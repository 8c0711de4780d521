// Package tasks implements the leaf actions of the build pipeline. Each
// action produces artifacts under the output directory or invokes an
// external tool; composition into groups happens in the pipeline package.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/avendel/stagehand/internal/config"
	"github.com/avendel/stagehand/internal/manifest"
	"github.com/avendel/stagehand/internal/tool"
)

// Set holds the leaf actions, bound to one configuration and tool runner.
type Set struct {
	cfg    *config.Config
	runner *tool.Runner
	log    zerolog.Logger
	report io.Writer // lint/test reports; stdout outside tests
}

// New creates the leaf action set.
func New(cfg *config.Config, runner *tool.Runner, log zerolog.Logger) *Set {
	return &Set{cfg: cfg, runner: runner, log: log, report: os.Stdout}
}

func (s *Set) tool(name string) config.ToolConfig {
	if tc, ok := s.cfg.Tools[name]; ok {
		return tc
	}
	return config.ToolConfig{Command: name}
}

// Bundle invokes the bundler: the application bundle from the configured
// entry point, plus a vendor bundle built from the manifest's script
// dependencies. The app bundle marks those dependencies external so they are
// not bundled twice.
func (s *Set) Bundle(ctx context.Context) error {
	m, err := manifest.Load(s.cfg.Manifest)
	if err != nil {
		return err
	}

	jsDir := filepath.Join(s.cfg.OutDir, "assets", "js")
	if err := os.MkdirAll(jsDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", jsDir, err)
	}

	bundler := s.tool(config.ToolBundler)

	args := append([]string(nil), bundler.Args...)
	args = append(args, s.cfg.Entry, "--bundle", "--sourcemap",
		"--outfile="+filepath.Join(jsDir, "app.js"))
	for _, dep := range m.Scripts {
		args = append(args, "--external:"+dep)
	}
	if _, err := s.runner.Run(ctx, bundler.Command, args...); err != nil {
		return err
	}

	if len(m.Scripts) == 0 {
		return nil
	}
	return s.bundleVendor(ctx, bundler, m.Scripts, jsDir)
}

// bundleVendor bundles the manifest script dependencies into a single
// vendor.js via a generated entry module importing each of them.
func (s *Set) bundleVendor(ctx context.Context, bundler config.ToolConfig, scripts []string, jsDir string) error {
	entry, err := os.CreateTemp("", "stagehand-vendor-*.js")
	if err != nil {
		return fmt.Errorf("creating vendor entry: %w", err)
	}
	defer os.Remove(entry.Name())

	if _, err := entry.Write(vendorEntry(scripts)); err != nil {
		entry.Close()
		return fmt.Errorf("writing vendor entry: %w", err)
	}
	if err := entry.Close(); err != nil {
		return err
	}

	args := append([]string(nil), bundler.Args...)
	args = append(args, entry.Name(), "--bundle", "--sourcemap",
		"--outfile="+filepath.Join(jsDir, "vendor.js"))
	_, err = s.runner.Run(ctx, bundler.Command, args...)
	return err
}

// vendorEntry renders an es-module importing each script dependency.
func vendorEntry(scripts []string) []byte {
	var b strings.Builder
	for _, dep := range scripts {
		fmt.Fprintf(&b, "import %q;\n", dep)
	}
	return []byte(b.String())
}

// Html copies the root document into the output directory.
func (s *Set) Html(ctx context.Context) error {
	src := filepath.Join(s.cfg.SrcDir, "index.html")
	return copyFile(src, filepath.Join(s.cfg.OutDir, "index.html"))
}

// Assets copies the static asset tree into the output directory. A project
// without a static asset directory is fine.
func (s *Set) Assets(ctx context.Context) error {
	src := filepath.Join(s.cfg.SrcDir, "assets")
	if _, err := os.Stat(src); os.IsNotExist(err) {
		s.log.Debug().Str("dir", src).Msg("no static assets to copy")
		return nil
	}
	return copyTree(src, filepath.Join(s.cfg.OutDir, "assets"))
}

// Styles concatenates the manifest stylesheets, in manifest order, into the
// vendor stylesheet.
func (s *Set) Styles(ctx context.Context) error {
	m, err := manifest.Load(s.cfg.Manifest)
	if err != nil {
		return err
	}

	cssDir := filepath.Join(s.cfg.OutDir, "assets", "css")
	if err := os.MkdirAll(cssDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", cssDir, err)
	}

	out, err := os.Create(filepath.Join(cssDir, "vendor.css"))
	if err != nil {
		return err
	}
	defer out.Close()

	for _, path := range m.Styles {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading stylesheet %s: %w", path, err)
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
		if _, err := out.WriteString("\n"); err != nil {
			return err
		}
	}
	return out.Close()
}

// Fonts copies the manifest font files into the output font directory.
func (s *Set) Fonts(ctx context.Context) error {
	m, err := manifest.Load(s.cfg.Manifest)
	if err != nil {
		return err
	}

	fontDir := filepath.Join(s.cfg.OutDir, "assets", "fonts")
	for _, path := range m.Fonts {
		if err := copyFile(path, filepath.Join(fontDir, filepath.Base(path))); err != nil {
			return err
		}
	}
	return nil
}

// RuntimeConfig emits the generated runtime-configuration script at the
// output root when running in development mode. The artifact is a dev
// convenience: failures reading or parsing its source are logged, never
// surfaced as a build failure.
func (s *Set) RuntimeConfig(ctx context.Context) error {
	if !s.cfg.Development() {
		return nil
	}
	if err := s.writeRuntimeConfig(); err != nil {
		s.log.Warn().Err(err).Msg("skipping runtime config artifact")
	}
	return nil
}

func (s *Set) writeRuntimeConfig() error {
	values := map[string]any{"mode": s.cfg.Mode}

	data, err := os.ReadFile(s.cfg.RuntimeConfig)
	switch {
	case err == nil:
		var fileValues map[string]any
		if err := json.Unmarshal(data, &fileValues); err != nil {
			return fmt.Errorf("parsing %s: %w", s.cfg.RuntimeConfig, err)
		}
		for k, v := range fileValues {
			values[k] = v
		}
	case !os.IsNotExist(err):
		return err
	}

	payload, err := json.Marshal(values)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.cfg.OutDir, 0755); err != nil {
		return err
	}
	script := fmt.Sprintf("window.__STAGEHAND_CONFIG__ = %s;\n", payload)
	return os.WriteFile(filepath.Join(s.cfg.OutDir, "config.js"), []byte(script), 0644)
}

// Lint runs the linter and prints its report. Any violation fails the task.
func (s *Set) Lint(ctx context.Context) error {
	linter := s.tool(config.ToolLinter)
	res, err := s.runner.Run(ctx, linter.Command, linter.Args...)
	if res != nil && len(res.Stdout) > 0 {
		fmt.Fprint(s.report, string(res.Stdout))
	}
	if err != nil {
		return fmt.Errorf("linter reported violations: %w", err)
	}
	return nil
}

// Test runs the external test runner and prints its output.
func (s *Set) Test(ctx context.Context) error {
	tester := s.tool(config.ToolTester)
	res, err := s.runner.Run(ctx, tester.Command, tester.Args...)
	if res != nil && len(res.Stdout) > 0 {
		fmt.Fprint(s.report, string(res.Stdout))
	}
	return err
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

func copyTree(srcRoot, dstRoot string) error {
	return filepath.WalkDir(srcRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(dstRoot, rel)
		if d.IsDir() {
			return os.MkdirAll(dst, 0755)
		}
		return copyFile(path, dst)
	})
}
