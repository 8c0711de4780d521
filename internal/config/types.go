package config

// ToolConfig defines an external build tool invocation: the binary name plus
// base arguments prepended to every invocation.
type ToolConfig struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// ServerConfig configures the development HTTP server.
type ServerConfig struct {
	Port        int  `json:"port"`
	SPAFallback bool `json:"spa_fallback"`
	LiveReload  bool `json:"live_reload"`
}

// WatchConfig configures the file-watch rebuild loop.
type WatchConfig struct {
	DebounceMs int `json:"debounce_ms"`
	// FailOnTestError controls whether a failing watch-triggered test run is
	// reported as a task failure or only logged. Earlier front-end pipelines
	// commonly swallowed these; the policy is explicit here.
	FailOnTestError bool `json:"fail_on_test_error"`
}

// Config is the top-level configuration.
type Config struct {
	// Mode is "development" or anything else ("production", "staging", ...).
	// Only the runtime-config task consults it. STAGEHAND_ENV overrides.
	Mode string `json:"mode,omitempty"`

	SrcDir        string `json:"src_dir"`
	OutDir        string `json:"out_dir"`
	Entry         string `json:"entry"`          // bundler entry point
	Manifest      string `json:"manifest"`       // dependency manifest path
	RuntimeConfig string `json:"runtime_config"` // source for the generated config artifact

	Tools  map[string]ToolConfig `json:"tools"`
	Server ServerConfig          `json:"server"`
	Watch  WatchConfig           `json:"watch"`
}

// Development reports whether the pipeline runs in development mode.
func (c *Config) Development() bool {
	return c.Mode == ModeDevelopment
}
