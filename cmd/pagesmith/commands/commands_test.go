package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
)

// execute parses args the way main does and runs the selected command.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("pagesmith"),
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
		kong.Vars{"version": "test"},
		kong.Bind(&Global{Out: &out}),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
	)
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	err = kctx.Run()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestInit_ScaffoldsProject(t *testing.T) {
	root := t.TempDir()

	out, err := execute(t, "--root", root, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "initialized successfully")

	for _, name := range []string{config.DefaultFileName, "config.json", "pages/welcome.md"} {
		assert.FileExists(t, filepath.Join(root, filepath.FromSlash(name)))
	}
	assert.DirExists(t, filepath.Join(root, "static"))

	cfg, err := config.Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "pages"), cfg.Paths.Pages)

	page, err := os.ReadFile(filepath.Join(root, "pages", "welcome.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(page), "---\n"))
	assert.Contains(t, string(page), "title: Welcome\n")
	assert.Contains(t, string(page), "---\n# Welcome\n")
}

func TestInit_ThenBuild(t *testing.T) {
	root := t.TempDir()
	_, err := execute(t, "--root", root, "init")
	require.NoError(t, err)

	out, err := execute(t, "--root", root, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "Built 1 pages")

	page, err := os.ReadFile(filepath.Join(root, "build", "welcome.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "Welcome")
}

func TestInit_RefusesExistingConfigWithoutForce(t *testing.T) {
	root := t.TempDir()
	_, err := execute(t, "--root", root, "init")
	require.NoError(t, err)

	out, err := execute(t, "--root", root, "init")
	require.Error(t, err)
	assert.True(t, pserrors.HasCategory(err, pserrors.CategoryConfig))
	assert.Contains(t, out, "Initialization failed")
}

func TestInit_ForceKeepsExistingPages(t *testing.T) {
	root := t.TempDir()
	page := filepath.Join(root, "pages", "welcome.md")
	writeFile(t, page, "# Mine\n")
	writeFile(t, filepath.Join(root, config.DefaultFileName), "build:\n  concurrency: 3\n")

	out, err := execute(t, "--root", root, "init", "--force")
	require.NoError(t, err)
	assert.NotContains(t, out, page)

	data, err := os.ReadFile(page)
	require.NoError(t, err)
	assert.Equal(t, "# Mine\n", string(data))
}

func TestBuild_EndToEnd(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "config.json"), `{"title":"Notes"}`)
	writeFile(t, filepath.Join(root, "pages", "Hello-World.md"), "# Hello\n")
	writeFile(t, filepath.Join(root, "static", "robots.txt"), "User-agent: *\n")

	out, err := execute(t, "--root", root, "build", "--staged", "-j", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Built 1 pages and 1 static assets")

	for _, name := range []string{"hello-world.html", "index.html", "style.css", "robots.txt"} {
		assert.FileExists(t, filepath.Join(root, "build", name))
	}
}

func TestBuild_WritesMetricsAndHistory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "config.json"), `{}`)
	writeFile(t, filepath.Join(root, "pages", "a.md"), "a\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "static"), 0o755))
	writeFile(t, filepath.Join(root, config.DefaultFileName),
		"metrics:\n  textfile: metrics/pagesmith.prom\nhistory:\n  path: state/history.db\n")

	_, err := execute(t, "--root", root, "build")
	require.NoError(t, err)

	prom, err := os.ReadFile(filepath.Join(root, "metrics", "pagesmith.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "pagesmith_build_outcomes_total")

	out, err := execute(t, "--root", root, "history", "-n", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "BUILD")
	assert.Contains(t, out, "success")
}

func TestBuild_FailureIsClassified(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pages", "a.md"), "a\n")

	out, err := execute(t, "--root", root, "build")
	require.Error(t, err)
	assert.True(t, pserrors.HasCategory(err, pserrors.CategoryFileSystem))
	assert.Contains(t, out, "Build failed")
	assert.NoDirExists(t, filepath.Join(root, "build"))
}

func TestBuild_RejectsInvalidOverride(t *testing.T) {
	cfg := config.Default()
	cfg.Resolve(t.TempDir())
	cfg.Paths.Build = cfg.Paths.Pages

	err := (&BuildCmd{Concurrency: -1}).apply(cfg)
	require.Error(t, err)
	assert.True(t, pserrors.HasCategory(err, pserrors.CategoryConfig))
	field, _ := pserrors.ContextValue(err, "field")
	assert.Equal(t, "paths.pages", field)
}

func TestBuild_AppliesOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.Resolve(t.TempDir())

	require.NoError(t, (&BuildCmd{Concurrency: 4, Staged: true, Verify: true}).apply(cfg))
	assert.Equal(t, 4, cfg.Build.Concurrency)
	assert.True(t, cfg.Build.Staged)
	assert.True(t, cfg.Build.VerifyCompaction)

	cfg.Build.Concurrency = 7
	require.NoError(t, (&BuildCmd{Concurrency: -1}).apply(cfg))
	assert.Equal(t, 7, cfg.Build.Concurrency)
}

func TestHistory_RequiresConfiguredPath(t *testing.T) {
	_, err := execute(t, "--root", t.TempDir(), "history")
	require.Error(t, err)
	assert.True(t, pserrors.HasCategory(err, pserrors.CategoryConfig))
}

func TestHistory_EmptyLedger(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, config.DefaultFileName), "history:\n  path: history.db\n")

	out, err := execute(t, "--root", root, "history")
	require.NoError(t, err)
	assert.Equal(t, "No builds recorded\n", out)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		env     string
		verbose bool
		want    slog.Level
	}{
		{"", false, slog.LevelInfo},
		{"", true, slog.LevelDebug},
		{"warn", false, slog.LevelWarn},
		{" ERROR ", false, slog.LevelError},
		{"error", true, slog.LevelDebug},
		{"bogus", false, slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("PAGESMITH_LOG_LEVEL", tt.env)
			assert.Equal(t, tt.want, parseLogLevel(tt.verbose))
		})
	}
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "json", slog.LevelInfo).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}
