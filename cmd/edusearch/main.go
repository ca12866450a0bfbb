// Package main is the edusearch CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nepaledu/edusearch/internal/cli"
	"github.com/nepaledu/edusearch/internal/config"
	"github.com/nepaledu/edusearch/internal/history"
	"github.com/nepaledu/edusearch/internal/importer"
	"github.com/nepaledu/edusearch/internal/metrics"
	"github.com/nepaledu/edusearch/internal/models"
	"github.com/nepaledu/edusearch/internal/notify"
	"github.com/nepaledu/edusearch/internal/search"
	"github.com/nepaledu/edusearch/internal/server"
	"github.com/nepaledu/edusearch/internal/session"
	"github.com/nepaledu/edusearch/internal/storage"
	"github.com/nepaledu/edusearch/internal/watcher"
	"github.com/nepaledu/edusearch/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/edusearch/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists, so running from a project dir uses its config.
// When neither exists the built-in defaults are used.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "suggest":
		runSuggest()
	case "history":
		runHistory()
	case "saved":
		runSaved()
	case "import":
		runImport()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("edusearch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`edusearch - search subjects, chapters, questions and other study material

Usage:
  edusearch server  [--config path] [--debug]
  edusearch search  [flags] <query>
  edusearch suggest [flags] <partial>
  edusearch history [flags] [clear]
  edusearch saved   <list|save|run|delete> [flags] [args]
  edusearch import  [--config path] <file-or-directory>
  edusearch watch   <add|remove|list> [--config path] [path]
  edusearch status  [flags]
  edusearch version

Commands that read data accept --server URL to go through a running server
instead of opening the store directly, and --output text|compact|json.
`)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (imports, directory changes, requests)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	tray := notify.NewTray(&cfg.Notify)
	defer tray.Close()
	notifier := notify.Multi(notify.NewLogNotifier(logger), tray)
	watchSvc := watcher.New(
		cfg.Watch.Directories,
		cfg.Watch.Extensions,
		cfg.Watch.RecursiveOrDefault(),
		components.Importer,
		watcher.WithLogger(logger),
		watcher.WithOnImport(func(path string, summary importer.Summary, err error) {
			if err != nil {
				notifier.Notify(notify.Error, fmt.Sprintf("Import of %s failed: %v", filepath.Base(path), err))
				return
			}
			notifier.Notify(notify.Success, fmt.Sprintf("Imported %s (%s)", filepath.Base(path), summary))
		}),
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExisting()

	srv := server.NewServer(
		components.Engine,
		components.History,
		components.Entities,
		cfg,
		logger,
		watchSvc,
	)
	srv.SetNotices(tray)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	watchSvc.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: edusearch search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
A query may be empty when at least one filter is set.
Dates accept 2006-01-02, RFC 3339 timestamps, or epoch milliseconds.

Examples:
  edusearch search algebra
  edusearch search --type questions --difficulty easy quadratic equation
  edusearch search --subject Science --tags physics,motion
  edusearch search --from 2024-01-01 --to 2024-06-30 --output json
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "edusearch search algebra --type questions"
// would otherwise leave --type unparsed.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// filterFlags registers the search filter flags on fs and returns a func that
// collects their values after parsing.
func filterFlags(fs *flag.FlagSet) func() models.Filters {
	contentType := fs.String("type", "", "content type: subjects, chapters, questions or videos")
	subject := fs.String("subject", "", "exact subject")
	difficulty := fs.String("difficulty", "", "exact difficulty")
	tags := fs.String("tags", "", "comma-separated tags; any match passes")
	from := fs.String("from", "", "created on or after this date")
	to := fs.String("to", "", "created on or before this date")
	return func() models.Filters {
		return models.Filters{
			ContentType: strings.TrimSpace(*contentType),
			Subject:     strings.TrimSpace(*subject),
			Difficulty:  strings.TrimSpace(*difficulty),
			Tags:        *tags,
			DateFrom:    strings.TrimSpace(*from),
			DateTo:      strings.TrimSpace(*to),
		}
	}
}

func parseFormatOrExit(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return format
}

// errReported marks a failure the session already showed to the user.
var errReported = errors.New("reported")

// exitOnError prints err with prefix and exits. Errors the session already
// reported exit without a second message.
func exitOnError(prefix string, err error) {
	if err == nil {
		return
	}
	if !errors.Is(err, errReported) {
		fmt.Fprintf(os.Stderr, "%s: %v\n", prefix, err)
	}
	os.Exit(1)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = open the store directly)")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (one result per line), or json (parseable)")
	filters := filterFlags(fs)
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	format := parseFormatOrExit(*outputFormat)
	req := models.SearchRequest{Query: buildSearchQuery(fs.Args()), Filters: filters()}
	if err := req.Validate(); err != nil {
		printSearchUsage(fs)
		os.Exit(1)
	}

	var response *models.SearchResponse
	var err error
	if *serverURL != "" {
		response, err = searchViaHTTP(*serverURL, req)
	} else {
		err = withComponents(*configPath, func(c *Components) error {
			response, err = sessionSearch(c, req)
			return err
		})
	}
	exitOnError("Search failed", err)
	exitOnError("Output failed", cli.WriteSearchResults(os.Stdout, response, format))
}

// sessionSearch runs req through a session so the outcome is reported and recorded.
func sessionSearch(c *Components, req models.SearchRequest) (*models.SearchResponse, error) {
	sess := c.newSession()
	defer sess.Close()
	sess.SetQuery(req.Query)
	sess.SetFilters(req.Filters)
	start := time.Now()
	if err := sess.Submit(context.Background()); err != nil {
		return nil, fmt.Errorf("%w: %v", errReported, err)
	}
	results := sess.Results()
	return &models.SearchResponse{
		Results:   results,
		Total:     len(results),
		Query:     req.Query,
		Filters:   req.Filters,
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

func runSuggest() {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = open the store directly)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	format := parseFormatOrExit(*outputFormat)
	partial := buildSearchQuery(fs.Args())

	var suggestions []models.Suggestion
	var err error
	if *serverURL != "" {
		suggestions, err = suggestViaHTTP(*serverURL, partial)
	} else {
		err = withComponents(*configPath, func(c *Components) error {
			suggestions, err = c.Engine.Suggest(context.Background(), partial)
			return err
		})
	}
	exitOnError("Suggest failed", err)
	exitOnError("Output failed", cli.WriteSuggestions(os.Stdout, suggestions, format))
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = open the store directly)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	format := parseFormatOrExit(*outputFormat)
	clearAll := fs.NArg() > 0 && fs.Arg(0) == "clear"
	if fs.NArg() > 0 && !clearAll {
		fmt.Println("Usage: edusearch history [flags] [clear]")
		os.Exit(1)
	}

	if clearAll {
		var err error
		if *serverURL != "" {
			err = doJSON(httpDelete, *serverURL+"/api/v1/history", nil, nil)
		} else {
			err = withComponents(*configPath, func(c *Components) error {
				return c.History.ClearHistory(context.Background())
			})
		}
		exitOnError("Clear failed", err)
		fmt.Println("Search history cleared")
		return
	}

	var entries []models.HistoryEntry
	var err error
	if *serverURL != "" {
		var out struct {
			History []models.HistoryEntry `json:"history"`
		}
		err = doJSON(httpGet, *serverURL+"/api/v1/history", nil, &out)
		entries = out.History
	} else {
		err = withComponents(*configPath, func(c *Components) error {
			entries, err = c.History.History(context.Background())
			return err
		})
	}
	exitOnError("History failed", err)
	exitOnError("Output failed", cli.WriteHistory(os.Stdout, entries, format))
}

func printSavedUsage() {
	fmt.Println("Usage: edusearch saved <list|save|run|delete> [flags] [args]")
	fmt.Println("  edusearch saved list                         List saved searches")
	fmt.Println("  edusearch saved save --name N [filters] <q>  Save a query and filters")
	fmt.Println("  edusearch saved run <id>                     Run a saved search")
	fmt.Println("  edusearch saved delete <id>                  Delete a saved search")
}

func runSaved() {
	if len(os.Args) < 3 {
		printSavedUsage()
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("saved", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = open the store directly)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	name := fs.String("name", "", "name of the saved search (save only)")
	filters := filterFlags(fs)
	_ = fs.Parse(searchArgsReorder(os.Args[3:]))
	format := parseFormatOrExit(*outputFormat)

	switch sub {
	case "list":
		var saved []models.SavedSearch
		var err error
		if *serverURL != "" {
			var out struct {
				Saved []models.SavedSearch `json:"saved"`
			}
			err = doJSON(httpGet, *serverURL+"/api/v1/saved", nil, &out)
			saved = out.Saved
		} else {
			err = withComponents(*configPath, func(c *Components) error {
				saved, err = c.History.List(context.Background())
				return err
			})
		}
		exitOnError("List failed", err)
		exitOnError("Output failed", cli.WriteSavedSearches(os.Stdout, saved, format))

	case "save":
		body := savedCreateRequest{Name: *name, Query: buildSearchQuery(fs.Args()), Filters: filters()}
		saved := &models.SavedSearch{}
		var err error
		if *serverURL != "" {
			err = doJSON(httpPost, *serverURL+"/api/v1/saved", body, saved)
		} else {
			err = withComponents(*configPath, func(c *Components) error {
				sess := c.newSession()
				defer sess.Close()
				sess.SetQuery(body.Query)
				sess.SetFilters(body.Filters)
				if saved, err = sess.SaveCurrent(context.Background(), body.Name); err != nil {
					return fmt.Errorf("%w: %v", errReported, err)
				}
				return nil
			})
		}
		exitOnError("Save failed", err)
		fmt.Printf("Saved: %s (%s)\n", saved.Name, saved.ID)

	case "run":
		if fs.NArg() < 1 {
			printSavedUsage()
			os.Exit(1)
		}
		id := fs.Arg(0)
		var (
			response *models.SearchResponse
			found    bool
			err      error
		)
		if *serverURL != "" {
			var out savedRunResponse
			err = doJSON(httpPost, *serverURL+"/api/v1/saved/"+url.PathEscape(id)+"/run", nil, &out)
			found, response = out.Found, &out.SearchResponse
		} else {
			err = withComponents(*configPath, func(c *Components) error {
				response, found, err = sessionRunSaved(c, id)
				return err
			})
		}
		exitOnError("Run failed", err)
		if !found {
			fmt.Printf("No saved search with id %s\n", id)
			os.Exit(1)
		}
		exitOnError("Output failed", cli.WriteSearchResults(os.Stdout, response, format))

	case "delete":
		if fs.NArg() < 1 {
			printSavedUsage()
			os.Exit(1)
		}
		id := fs.Arg(0)
		var err error
		if *serverURL != "" {
			err = doJSON(httpDelete, *serverURL+"/api/v1/saved/"+url.PathEscape(id), nil, nil)
		} else {
			err = withComponents(*configPath, func(c *Components) error {
				return c.History.Delete(context.Background(), id)
			})
		}
		exitOnError("Delete failed", err)
		fmt.Printf("Saved search deleted: %s\n", id)

	default:
		fmt.Printf("Unknown saved subcommand: %s\n", sub)
		printSavedUsage()
		os.Exit(1)
	}
}

// sessionRunSaved loads saved search id into a session and runs it.
// found is false when no saved search has that id.
func sessionRunSaved(c *Components, id string) (*models.SearchResponse, bool, error) {
	sess := c.newSession()
	defer sess.Close()
	start := time.Now()
	if err := sess.LoadSaved(context.Background(), id); err != nil {
		return nil, true, fmt.Errorf("%w: %v", errReported, err)
	}
	state := sess.State()
	if state.Query == "" && state.Filters.IsEmpty() {
		return nil, false, nil
	}
	return &models.SearchResponse{
		Results:   state.Results,
		Total:     len(state.Results),
		Query:     state.Query,
		Filters:   state.Filters,
		QueryTime: time.Since(start).Milliseconds(),
	}, true, nil
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fmt.Println("Usage: edusearch import [flags] <file-or-directory>")
		fmt.Println("  JSON files are named after their kind (questions.json); .xlsx sheets are named after their kind.")
		os.Exit(1)
	}
	path := fs.Arg(0)

	info, err := os.Stat(path)
	exitOnError("Failed to stat path", err)

	var summary importer.Summary
	err = withComponents(*configPath, func(c *Components) error {
		var importErr error
		if info.IsDir() {
			summary, importErr = c.Importer.ImportDir(context.Background(), path)
		} else {
			summary, importErr = c.Importer.ImportFile(context.Background(), path)
		}
		return importErr
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
	}
	if summary.Total() > 0 {
		fmt.Printf("Imported %d record(s) from %s: %s\n", summary.Total(), path, summary)
	}
	if err != nil {
		os.Exit(1)
	}
}

func printWatchUsage() {
	fmt.Println("Usage: edusearch watch <add|remove|list> [--config path] [path]")
	fmt.Println("  edusearch watch add <path>     Add a data directory to the config")
	fmt.Println("  edusearch watch remove <path>  Remove a data directory from the config")
	fmt.Println("  edusearch watch list           List configured data directories")
	fmt.Println("Changes take effect the next time the server starts.")
}

func runWatch() {
	if len(os.Args) < 3 {
		printWatchUsage()
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(searchArgsReorder(os.Args[3:]))

	switch sub {
	case "list":
		cfg, _, err := loadConfig(*configPath)
		exitOnError("Failed to load config", err)
		for _, d := range cfg.Watch.Directories {
			fmt.Println(d)
		}
	case "add", "remove":
		if fs.NArg() < 1 {
			printWatchUsage()
			os.Exit(1)
		}
		dir, err := filepath.Abs(fs.Arg(0))
		exitOnError("Invalid path", err)
		saved, changed, err := editWatchDirectories(*configPath, sub == "add", dir)
		exitOnError("Update failed", err)
		switch {
		case !changed && sub == "add":
			fmt.Printf("Already watched: %s\n", dir)
		case !changed:
			fmt.Printf("Not watched: %s\n", dir)
		case sub == "add":
			fmt.Printf("Added: %s (saved to %s)\n", dir, saved)
		default:
			fmt.Printf("Removed: %s (saved to %s)\n", dir, saved)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		printWatchUsage()
		os.Exit(1)
	}
}

// editWatchDirectories adds or removes dir in the config's watch directories and
// saves the config when it changed. With no config file yet, it is written to configPath.
// Returns the path written and whether anything changed.
func editWatchDirectories(configPath string, add bool, dir string) (string, bool, error) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		return "", false, err
	}
	if resolved == "" {
		resolved = configPath
	}
	var changed bool
	if add {
		changed = cfg.Watch.AddDirectory(dir)
	} else {
		changed = cfg.Watch.RemoveDirectory(dir)
	}
	if !changed {
		return resolved, false, nil
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
		return "", false, fmt.Errorf("create config dir: %w", err)
	}
	if err := config.Save(resolved, cfg); err != nil {
		return "", false, err
	}
	return resolved, true, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = open the store directly)")
	_ = fs.Parse(os.Args[2:])

	var status *statusResponse
	var err error
	if *serverURL != "" {
		status = &statusResponse{}
		err = doJSON(httpGet, *serverURL+"/api/v1/status", nil, status)
	} else {
		cfg, _, loadErr := loadConfig(*configPath)
		exitOnError("Failed to load config", loadErr)
		err = withLoadedComponents(cfg, func(c *Components) error {
			status, err = collectStatus(context.Background(), c, cfg)
			return err
		})
	}
	exitOnError("Status failed", err)
	printStatus(status)
}

// statusResponse mirrors the JSON body of GET /api/v1/status.
type statusResponse struct {
	Entities       map[string]int         `json:"entities"`
	History        int                    `json:"history"`
	SavedSearches  int                    `json:"saved_searches"`
	DiskUsageBytes int64                  `json:"disk_usage_bytes"`
	Config         map[string]interface{} `json:"config"`
}

func collectStatus(ctx context.Context, c *Components, cfg *config.Config) (*statusResponse, error) {
	counts, err := c.Entities.Counts(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := c.History.History(ctx)
	if err != nil {
		return nil, err
	}
	saved, err := c.History.List(ctx)
	if err != nil {
		return nil, err
	}
	s := &statusResponse{
		Entities:      make(map[string]int, len(counts)),
		History:       len(entries),
		SavedSearches: len(saved),
		Config: map[string]interface{}{
			"storage_backend": cfg.Storage.Backend,
			"history_limit":   cfg.Search.HistoryLimit,
			"suggest_limit":   cfg.Search.SuggestLimit,
		},
	}
	for kind, n := range counts {
		s.Entities[kind.String()] = n
	}
	if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.BadgerPath); err == nil {
		s.DiskUsageBytes = diskBytes
	}
	return s, nil
}

func printStatus(s *statusResponse) {
	fmt.Println("Entities:")
	for _, kind := range models.AllKinds {
		fmt.Printf("  %-12s %d\n", kind, s.Entities[kind.String()])
	}
	fmt.Printf("Search history:  %d\n", s.History)
	fmt.Printf("Saved searches:  %d\n", s.SavedSearches)
	fmt.Printf("Disk usage:      %s\n", formatBytes(s.DiskUsageBytes))
	if backend, ok := s.Config["storage_backend"]; ok {
		fmt.Printf("Storage backend: %v\n", backend)
	}
	if dirs, ok := s.Config["watch_directories"].([]interface{}); ok {
		fmt.Println("Watched directories:")
		for _, d := range dirs {
			fmt.Printf("  %v\n", d)
		}
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Components holds initialized services.
type Components struct {
	KV       storage.KV
	Entities *storage.EntityStore
	Engine   *search.Engine
	History  *history.Store
	Importer *importer.Importer
	Notifier notify.Notifier
	Logger   *zap.Logger
	Config   *config.Config
}

func (c *Components) Close() {
	if c.KV != nil {
		_ = c.KV.Close()
	}
}

// newSession returns a search session that reports to the terminal.
func (c *Components) newSession() *session.Session {
	return session.New(c.Engine, c.History,
		session.WithNotifier(c.Notifier),
		session.WithLogger(c.Logger),
		session.WithDebounce(c.Config.Search.Debounce()),
	)
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	kv, err := storage.Open(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	entities := storage.NewEntityStore(kv, storage.WithLogger(logger))
	engine := search.NewEngine(entities, &cfg.Search,
		search.WithLogger(logger),
		search.WithMetrics(metrics.Prometheus{}),
	)
	hist := history.New(kv,
		history.WithLimit(cfg.Search.HistoryLimit),
		history.WithLogger(logger),
	)
	imp := importer.New(entities, importer.WithLogger(logger))
	return &Components{
		KV:       kv,
		Entities: entities,
		Engine:   engine,
		History:  hist,
		Importer: imp,
		Notifier: notify.NewConsoleNotifier(os.Stderr),
		Logger:   logger,
		Config:   cfg,
	}, nil
}

// withComponents loads config, opens the store and runs fn with the initialized services.
// The store is closed and the logger synced before it returns fn's error.
func withComponents(configPath string, fn func(c *Components) error) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return withLoadedComponents(cfg, fn)
}

func withLoadedComponents(cfg *config.Config, fn func(c *Components) error) error {
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer components.Close()
	return fn(components)
}
