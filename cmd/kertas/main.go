// Package main is the kertas CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/kertas/internal/cli"
	"github.com/hyperjump/kertas/internal/config"
	"github.com/hyperjump/kertas/internal/convert"
	"github.com/hyperjump/kertas/internal/extract"
	"github.com/hyperjump/kertas/internal/layout"
	"github.com/hyperjump/kertas/internal/models"
	"github.com/hyperjump/kertas/internal/pdfinfo"
	"github.com/hyperjump/kertas/internal/server"
	"github.com/hyperjump/kertas/internal/storage"
	"github.com/hyperjump/kertas/internal/watcher"
	"github.com/hyperjump/kertas/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/kertas/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
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
	case "convert":
		runConvert()
	case "extract":
		runExtract()
	case "inspect":
		runInspect()
	case "history":
		runHistory()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("kertas version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// argsReorder moves any flags (and their values) that appear after the positional
// arguments to the front, so "kertas convert notes.docx -o out.pdf" parses -o.
// The flag package stops at the first non-flag argument.
func argsReorder(args []string) []string {
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

// defaultPDFPath returns src with its extension replaced by .pdf, in dir.
func defaultPDFPath(src, dir string) string {
	base := filepath.Base(src)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")
}

// setup loads config and creates the logger; debug forces debug logging on.
func setup(configPath string, debug bool) (*config.Config, string, *zap.Logger, bool) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, resolved, logger, debugMode
}

func parseFormat(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (state transitions, watched files, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger, debugMode := setup(*configPath, *debug)
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	conv := components.Converter
	watchSvc := watcher.NewWatcher(
		cfg.Watch.Directories,
		cfg.Watch.Extensions,
		cfg.Watch.RecursiveOrDefault(),
		watcher.HandlerFuncs{
			OnConvert: func(ctx context.Context, path string) error {
				_, err := conv.ConvertFile(ctx, path)
				return err
			},
			OnRemove: func(ctx context.Context, path string) error {
				err := conv.Delete(ctx, convert.FileConversionID(path))
				if errors.Is(err, storage.ErrNotFound) {
					return nil
				}
				return err
			},
		},
		watcher.WithLogger(logger),
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExistingFiles()

	srv := server.NewServer(
		conv,
		components.Storage,
		components.Outputs,
		&cfg.Server,
		logger,
		watchSvc,
		resolvedConfigPath,
		cfg,
	)
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

func printConvertUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kertas convert [flags] <file-or-directory>\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
A single file is converted to a PDF next to the current directory (or -o).
A directory is walked recursively; every file with a convert extension is converted
and kept in the output store.

Examples:
  kertas convert physics-notes.docx
  kertas convert physics-notes.docx -o /tmp/notes.pdf
  kertas convert -text physics-notes.docx       # print the extracted text as well
  kertas convert -history=false notes.docx       # do not record in the history database
  kertas convert ~/Documents/lectures
`)
}

func runConvert() {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	out := fs.String("o", "", "output PDF path (default: <name>.pdf in the current directory)")
	text := fs.Bool("text", false, "also print the extracted text")
	outputFormat := fs.String("output", "text", "output format: text or json")
	pageSize := fs.String("page-size", "", "page size override (A3, A4, A5, Letter, Legal, Tabloid)")
	history := fs.Bool("history", true, "record the conversion in the history database")
	fs.Usage = func() { printConvertUsage(fs) }
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		printConvertUsage(fs)
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)
	path := fs.Arg(0)

	cfg, _, logger, _ := setup(*configPath, *debug)
	defer logger.Sync()
	if *pageSize != "" {
		cfg.Convert.PageSize = *pageSize
		if err := config.Validate(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid page size: %v\n", err)
			os.Exit(1)
		}
	}

	components, err := initializeComponents(cfg, logger, *history)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		if !*history {
			fmt.Fprintln(os.Stderr, "Converting a directory needs the history database and output store (-history)")
			os.Exit(1)
		}
		n, err := components.Converter.ConvertDirectory(ctx, path, cfg.Convert.Extensions)
		fmt.Printf("Converted %d file(s) from %s into %s\n", n, path, components.Outputs.Dir())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Some files failed:\n%v\n", err)
			os.Exit(1)
		}
		return
	}

	res, err := components.Converter.ConvertFile(ctx, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conversion failed (%s): %v\n", convert.FailureKindOf(err), err)
		os.Exit(1)
	}

	pdfPath := ""
	if res.PDF != nil {
		pdfPath = *out
		if pdfPath == "" {
			cwd, err := os.Getwd()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to get working directory: %v\n", err)
				os.Exit(1)
			}
			pdfPath = defaultPDFPath(path, cwd)
		}
		if err := os.WriteFile(pdfPath, res.PDF, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write PDF: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteConversion(os.Stdout, res, pdfPath, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if *text && format == cli.OutputText && res.Content != nil {
		fmt.Println()
		_ = cli.WriteExtracted(os.Stdout, res.Content, cli.OutputText)
	}
	if res.LayoutErr != nil {
		os.Exit(2)
	}
}

func runExtract() {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: kertas extract [flags] <file>")
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)

	content, err := extract.NewExtractor().Extract(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Extraction failed (%s): %v\n", convert.FailureKindOf(err), err)
		os.Exit(1)
	}
	if err := cli.WriteExtracted(os.Stdout, content, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runInspect() {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: kertas inspect [flags] <file.pdf>")
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read PDF: %v\n", err)
		os.Exit(1)
	}
	info, err := pdfinfo.Inspect(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Inspection failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteInspection(os.Stdout, path, info, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// historyResponse is the shape of GET /api/v1/conversions.
type historyResponse struct {
	Conversions []*models.ConversionRecord `json:"conversions"`
	Total       int64                      `json:"total"`
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	limit := fs.Int("limit", 20, "number of conversions")
	offset := fs.Int("offset", 0, "number of conversions to skip")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := parseFormat(*outputFormat)

	var hist historyResponse
	if *serverURL != "" {
		q := url.Values{}
		q.Set("limit", fmt.Sprint(*limit))
		q.Set("offset", fmt.Sprint(*offset))
		if err := getJSON(*serverURL+"/api/v1/conversions?"+q.Encode(), &hist); err != nil {
			fmt.Fprintf(os.Stderr, "History failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		store, err := openStorage(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open history: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		ctx := context.Background()
		hist.Conversions, err = store.ListConversions(ctx, *offset, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List conversions failed: %v\n", err)
			os.Exit(1)
		}
		hist.Total, err = store.CountConversions(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count conversions failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteHistory(os.Stdout, hist.Conversions, hist.Total, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func openStorage(configPath string) (*storage.SQLiteStorage, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
}

func getJSON(u string, v interface{}) error {
	return callAPI(http.MethodGet, u, nil, http.StatusOK, v)
}

// callAPI sends an optional JSON body and decodes the reply into out when out is non-nil.
// Any status other than want is an error carrying the server's message.
func callAPI(method, u string, in interface{}, want int, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, u, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kertas delete [flags] <conversion-id>")
		os.Exit(1)
	}
	id := fs.Arg(0)

	cfg, _, logger, _ := setup(*configPath, false)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	if _, err := components.Storage.GetConversion(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Printf("Conversion not found: %s\n", id)
			os.Exit(1)
		}
		fmt.Printf("Lookup failed: %v\n", err)
		os.Exit(1)
	}
	if err := components.Converter.Delete(ctx, id); err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Conversion deleted: %s\n", id)
}

// statusResponse is the shape of GET /api/v1/status.
type statusResponse struct {
	Conversions    int64                            `json:"conversions"`
	ByState        map[models.ConversionState]int64 `json:"by_state"`
	DiskUsageBytes *int64                           `json:"disk_usage_bytes,omitempty"`
	Config         map[string]interface{}           `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := parseFormat(*outputFormat)

	var status statusResponse
	if *serverURL != "" {
		if err := getJSON(*serverURL+"/api/v1/status", &status); err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open history: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		ctx := context.Background()
		if status.Conversions, err = store.CountConversions(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Count conversions failed: %v\n", err)
			os.Exit(1)
		}
		if status.ByState, err = store.CountByState(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Count by state failed: %v\n", err)
			os.Exit(1)
		}
		status.Config = map[string]interface{}{
			"page_size":     cfg.Convert.PageSize,
			"cache_size":    cfg.Convert.CacheSize,
			"verify_output": cfg.Convert.VerifyOutput,
			"database_path": cfg.Storage.DatabasePath,
			"output_dir":    cfg.Storage.OutputDir,
		}
		if diskBytes, err := storage.DiskUsageBytes(append(storage.HistoryFiles(cfg.Storage.DatabasePath), cfg.Storage.OutputDir)...); err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	writeStatusText(os.Stdout, &status)
}

var statusStates = []models.ConversionState{
	models.StateReady, models.StateFailed, models.StateExtracting, models.StateCompiling, models.StateIdle,
}

func writeStatusText(w io.Writer, status *statusResponse) {
	fmt.Fprintf(w, "conversions:        %d\n", status.Conversions)
	for _, st := range statusStates {
		if n, ok := status.ByState[st]; ok {
			fmt.Fprintf(w, "  %-17s %d\n", string(st)+":", n)
		}
	}
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # history database + output PDFs\n", *status.DiskUsageBytes)
	}
	if len(status.Config) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		for _, key := range []string{"page_size", "cache_size", "verify_output", "database_path", "output_dir", "watch_directories"} {
			if v, ok := status.Config[key]; ok {
				fmt.Fprintf(w, "%-19s %v\n", key+":", v)
			}
		}
	}
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: kertas watch <add|remove|list> [path]")
		fmt.Println("  kertas watch add <path>     Add directory to watch")
		fmt.Println("  kertas watch remove <path>  Remove directory from watch")
		fmt.Println("  kertas watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(argsReorder(os.Args[3:]))
	endpoint := *serverURL + "/api/v1/watch/directories"

	dirArg := func() string {
		if fs.NArg() < 1 {
			fmt.Printf("Usage: kertas watch %s <path>\n", sub)
			os.Exit(1)
		}
		abs, err := filepath.Abs(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Bad path: %v\n", err)
			os.Exit(1)
		}
		return abs
	}

	var err error
	switch sub {
	case "add":
		dir := dirArg()
		if err = callAPI(http.MethodPost, endpoint, map[string]interface{}{"path": dir, "sync": true}, http.StatusCreated, nil); err == nil {
			fmt.Printf("Watching %s\n", dir)
		}
	case "remove":
		dir := dirArg()
		if err = callAPI(http.MethodDelete, endpoint+"?path="+url.QueryEscape(dir), nil, http.StatusOK, nil); err == nil {
			fmt.Printf("Stopped watching %s\n", dir)
		}
	case "list":
		var out struct {
			Directories []string `json:"directories"`
		}
		if err = getJSON(endpoint, &out); err == nil && len(out.Directories) == 0 {
			fmt.Println("No directories watched")
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "watch %s failed: %v\n", sub, err)
		os.Exit(1)
	}
}

// Components holds initialized services. Storage and Outputs are nil when history is off.
type Components struct {
	Storage   storage.Storage
	Outputs   *storage.OutputStore
	Converter *convert.Converter
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func layoutConfig(cfg *config.Config) layout.Config {
	lc := layout.DefaultConfig()
	if cfg.Convert.PageSize != "" {
		lc.PageSize = canonicalPageSize(cfg.Convert.PageSize)
	}
	return lc
}

// canonicalPageSize maps a case-insensitive page size onto the spelling fpdf expects.
func canonicalPageSize(name string) string {
	for _, known := range config.PageSizes {
		if strings.EqualFold(known, name) {
			return known
		}
	}
	return name
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, withHistory bool) (*Components, error) {
	c := &Components{}
	opts := []convert.Option{
		convert.WithLogger(logger),
		convert.WithCache(cfg.Convert.CacheSize),
		convert.WithVerify(cfg.Convert.VerifyOutput),
	}
	if withHistory {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		outputs, err := storage.NewOutputStore(cfg.Storage.OutputDir)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize output store: %w", err)
		}
		c.Storage, c.Outputs = store, outputs
		opts = append(opts, convert.WithStorage(store, outputs))
	}

	compiler := layout.NewCompiler(layoutConfig(cfg), layout.WithLogger(logger))
	c.Converter = convert.NewConverter(extract.NewExtractor(), compiler, opts...)
	return c, nil
}

func printUsage() {
	fmt.Println(`kertas - Convert Word documents to paginated PDFs

Usage:
  kertas server [flags]                 Start the HTTP server and directory watcher
  kertas convert [flags] <file|dir>     Convert a document (or every document in a directory)
  kertas extract [flags] <file>         Print the text extracted from a document
  kertas inspect [flags] <file.pdf>     Validate a PDF and print its pages' text
  kertas history [flags]                List recent conversions
  kertas delete [flags] <id>            Delete a conversion and its PDF
  kertas status [flags]                 Show conversion counts and configuration
  kertas watch <add|remove|list>        Manage watched directories
  kertas version                        Show version
  kertas help                           Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kertas/config.yaml)
  --debug            Enable debug logging (state transitions, watched files, etc.)

Convert Flags:
  --config string     Config file path
  --o string          Output PDF path (default: <name>.pdf in the current directory)
  --text              Also print the extracted text
  --output string     Output format: text or json (default: text)
  --page-size string  Page size override (A3, A4, A5, Letter, Legal, Tabloid)
  --history           Record the conversion in the history database (default: true)

Extract / Inspect Flags:
  --output string    Output format: text or json (default: text)

History / Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)
  --limit int        History: number of conversions (default: 20)

Examples:
  kertas server
  kertas convert physics-notes.docx
  kertas convert physics-notes.docx -o notes.pdf --output json
  kertas extract report.docx
  kertas inspect physics-notes.pdf
  kertas history --limit 5
  kertas delete file:/home/me/notes/physics-notes.docx
  kertas status --output json
  kertas watch add /path/to/docs`)
}
