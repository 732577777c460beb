package config

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Pages:      "pages",
			Static:     "static",
			Build:      "build",
			Layouts:    "layouts",
			Config:     "config.json",
			Stylesheet: "style.css",
		},
	}
}
