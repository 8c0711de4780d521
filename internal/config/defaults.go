package config

// ModeDevelopment is the default pipeline mode.
const ModeDevelopment = "development"

// Tool names recognized in the Tools map.
const (
	ToolBundler = "bundler"
	ToolLinter  = "linter"
	ToolTester  = "tester"
)

// Default returns the default configuration with built-in tool commands.
func Default() *Config {
	return &Config{
		Mode:          ModeDevelopment,
		SrcDir:        "src",
		OutDir:        "dist",
		Entry:         "src/main.js",
		Manifest:      "stagehand.yaml",
		RuntimeConfig: "config/development.json",
		Tools: map[string]ToolConfig{
			ToolBundler: {
				Command: "esbuild",
			},
			ToolLinter: {
				Command: "eslint",
				Args:    []string{"--no-color", "src"},
			},
			ToolTester: {
				Command: "vitest",
				Args:    []string{"run"},
			},
		},
		Server: ServerConfig{
			Port:        8080,
			SPAFallback: true,
			LiveReload:  true,
		},
		Watch: WatchConfig{
			DebounceMs:      250,
			FailOnTestError: true,
		},
	}
}
