package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/MisinfoDetector/internal/analyze"
	"github.com/TobiSchelling/MisinfoDetector/internal/config"
	"github.com/TobiSchelling/MisinfoDetector/internal/database"
	"github.com/TobiSchelling/MisinfoDetector/internal/fetch"
	"github.com/TobiSchelling/MisinfoDetector/internal/logging"
	"github.com/TobiSchelling/MisinfoDetector/internal/model"
	"github.com/TobiSchelling/MisinfoDetector/internal/related"
	"github.com/TobiSchelling/MisinfoDetector/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logCloser  io.Closer
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "misinfo",
	Short:   "Health news credibility checks",
	Long:    "misinfo classifies health news as credible or not, explains the verdict and finds related coverage.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logCloser, err = logging.Setup(logging.Options{
			Level:      cfg.Logging.Level,
			Verbose:    verbose,
			File:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		})
		if err != nil {
			return fmt.Errorf("configuring logging: %w", err)
		}
		if path == "" {
			logrus.Debug("No config file found, using built-in defaults")
		} else {
			logrus.WithField("path", path).Debug("Loaded config")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(historyCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("misinfo", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/misinfo/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point at your model artifacts and news provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show model, provider and history status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Model:")
		fmt.Printf("  Vectorizer: %s\n", cfg.Model.VectorizerPath)
		fmt.Printf("  Classifier: %s\n", cfg.Model.ClassifierPath)
		if _, err := loadModel(); err != nil {
			fmt.Printf("  Status: %v\n", err)
		} else {
			fmt.Println("  Status: ok")
		}

		fmt.Println("\nRelated articles:")
		fmt.Printf("  Provider: %s\n", cfg.Related.Provider)
		if cfg.Related.Provider == "newsapi" {
			configured := os.Getenv(cfg.Related.NewsAPI.APIKeyEnv) != ""
			fmt.Printf("  API key (%s): %s\n", cfg.Related.NewsAPI.APIKeyEnv, setOrMissing(configured))
		}

		if !cfg.History.Enabled {
			fmt.Println("\nHistory: disabled")
			return nil
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("\nHistory (%s):\n", db.Path())
		fmt.Printf("  Total analyses: %d\n", stats.Total)
		fmt.Printf("  Credible: %d\n", stats.Credible)
		fmt.Printf("  Not credible: %d\n", stats.NotCredible)
		fmt.Printf("  Today (%s): %d\n", database.GetToday(), stats.Today)
		return nil
	},
}

func setOrMissing(ok bool) string {
	if ok {
		return "set"
	}
	return "missing"
}

// --- serve command ---

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web interface and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("host") {
			cfg.Server.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		analyzer, db, err := buildAnalyzer()
		if err != nil {
			return err
		}
		var history server.HistoryStore
		if db != nil {
			defer db.Close()
			history = db
		}

		srv, err := server.New(analyzer, history, server.Options{
			RatePerSecond: cfg.Server.RateLimit.PerSecond,
			RateBurst:     cfg.Server.RateLimit.Burst,
			CORSOrigins:   cfg.Server.CORSOrigins,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Starting server at http://%s\n", cfg.Addr())
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, srv, cfg.Addr())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

// --- analyze command ---

var (
	analyzeText string
	analyzeURL  string
	analyzeJSON bool
)

var analyzeCmd = &cobra.Command{
	Use:          "analyze [text|-]",
	Short:        "Classify one article from flags, arguments or stdin",
	SilenceUsage: true,
	Example: `  misinfo analyze "Meditation has been shown to improve heart health"
  misinfo analyze --url https://example.com/story
  cat article.txt | misinfo analyze - --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := submissionText(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		analyzer, db, err := buildAnalyzer()
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}

		res, err := analyzer.Analyze(cmd.Context(), analyze.Request{Text: text, URL: analyzeURL})
		if errors.Is(err, analyze.ErrEmptySubmission) {
			fmt.Fprintln(cmd.ErrOrStderr(), analyze.EmptySubmissionMessage)
			return err
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if analyzeJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(server.NewAnalysisResponse(res))
		}

		printResult(out, res)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeText, "text", "t", "", "Article text")
	analyzeCmd.Flags().StringVarP(&analyzeURL, "url", "u", "", "Article link")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the result as JSON")
}

// submissionText picks the article text from --text, positional arguments,
// or stdin when the only argument is "-".
func submissionText(stdin io.Reader, args []string) (string, error) {
	if analyzeText != "" {
		return analyzeText, nil
	}
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

func printResult(w io.Writer, res *analyze.Result) {
	if res.Verdict.Label.Credible() {
		fmt.Fprintf(w, "Real News Detected (%.2f%% confidence)\n", res.Verdict.Confidence)
		fmt.Fprintln(w, "This article appears credible.")
	} else {
		fmt.Fprintf(w, "Fake News Detected (%.2f%% confidence)\n", res.Verdict.Confidence)
		fmt.Fprintln(w, "This article may contain misinformation.")
	}
	fmt.Fprintf(w, "\nVerification Source: %s\n", res.Explanation.VerificationURL)
	fmt.Fprintf(w, "Explanation: %s\n", res.Explanation.Text)
	fmt.Fprintln(w, "\nSuggested Related Articles:")
	for _, a := range res.Related {
		fmt.Fprintf(w, "  - %s (%s)\n", a.Title, a.URL)
	}
}

// --- history command ---

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.GetRecentAnalyses(historyLimit)
		if err != nil {
			return err
		}

		if len(items) == 0 {
			fmt.Println("No analyses yet. Run one with: misinfo analyze")
			return nil
		}

		fmt.Println("Recent analyses:")
		fmt.Println()
		for _, a := range items {
			stamp := ""
			if a.AnalyzedAt != nil {
				stamp = database.FormatAnalyzedAt(*a.AnalyzedAt)
			}
			fmt.Printf("  %s  %-12s %6.2f%%  %s\n", stamp, a.Label, a.Confidence, a.Topic)
			fmt.Printf("        %s\n", excerpt(a.Text, 60))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of analyses to show")
}

// excerpt collapses whitespace and truncates to limit runes.
func excerpt(text string, limit int) string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}

// --- wiring ---

// loadModel reads the artifacts. Failure is an operator-facing error and
// nothing is served without a model.
func loadModel() (*model.Model, error) {
	m, err := model.Load(cfg.Model.VectorizerPath, cfg.Model.ClassifierPath)
	if errors.Is(err, model.ErrArtifactNotFound) {
		return nil, fmt.Errorf("%w (check model.vectorizer_path and model.classifier_path)", err)
	}
	return m, err
}

func buildProvider() related.Provider {
	rc := cfg.Related
	switch rc.Provider {
	case "newsapi":
		opts := []related.NewsAPIOption{related.WithHTTPClient(newHTTPClient(rc.Timeout))}
		if rc.NewsAPI.BaseURL != "" {
			opts = append(opts, related.WithBaseURL(rc.NewsAPI.BaseURL))
		}
		client := related.NewNewsAPIClientFromEnv(rc.NewsAPI.APIKeyEnv, opts...)
		if !client.IsConfigured() {
			logrus.WithField("env", rc.NewsAPI.APIKeyEnv).Warn("NewsAPI key not set; related article lookups will fail")
		}
		return client
	case "feed":
		return related.NewFeedSearcher(rc.Feed.URLTemplate, rc.Timeout)
	}
	return nil
}

// buildAnalyzer assembles the per-request pipeline. The returned DB is nil
// when history is disabled.
func buildAnalyzer() (*analyze.Analyzer, *database.DB, error) {
	m, err := loadModel()
	if err != nil {
		return nil, nil, err
	}

	finder := related.NewFinder(buildProvider(), cfg.Related.PageSize, cfg.Related.CacheTTL)

	var opts []analyze.Option
	if cfg.Fetch.Enabled {
		opts = append(opts, analyze.WithFetcher(fetch.NewContentFetcher(cfg.Fetch.Timeout)))
	}

	var db *database.DB
	if cfg.History.Enabled {
		db, err = openDB()
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, analyze.WithRecorder(db))
	}

	return analyze.New(m, finder, opts...), db, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func openDB() (*database.DB, error) {
	return database.OpenInDir(cfg.GetDataDir())
}
