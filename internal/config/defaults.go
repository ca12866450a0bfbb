package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendSQLite
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/edusearch/data/store.db"
	}
	if cfg.Storage.BadgerPath == "" {
		cfg.Storage.BadgerPath = "/usr/local/var/edusearch/data/badger"
	}
	if cfg.Search.HistoryLimit == 0 {
		cfg.Search.HistoryLimit = 10
	}
	if cfg.Search.SuggestMinLength == 0 {
		cfg.Search.SuggestMinLength = 2
	}
	if cfg.Search.SuggestLimit == 0 {
		cfg.Search.SuggestLimit = 5
	}
	if cfg.Search.SuggestLabelMax == 0 {
		cfg.Search.SuggestLabelMax = 50
	}
	if cfg.Search.DebounceMillis == 0 {
		cfg.Search.DebounceMillis = 300
	}
	if cfg.Notify.DismissMillis == 0 {
		cfg.Notify.DismissMillis = 3000
	}
	if cfg.Notify.ErrorDismissMillis == 0 {
		cfg.Notify.ErrorDismissMillis = 4000
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".json", ".xlsx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}

// Default returns a config with every default applied, for use without a config file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
