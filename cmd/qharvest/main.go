package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/use-agent/qharvest/browser"
	"github.com/use-agent/qharvest/config"
	"github.com/use-agent/qharvest/content"
	"github.com/use-agent/qharvest/domnav"
	"github.com/use-agent/qharvest/harvest"
	"github.com/use-agent/qharvest/models"
	"github.com/use-agent/qharvest/output"
	"github.com/use-agent/qharvest/session"
)

var version = "dev"

var (
	cfg *config.Config

	count        int
	headed       bool
	proxy        string
	stateFile    string
	outputDir    string
	enrich       bool
	enrichFormat string
	fromFile     string
	noAuth       bool
)

func main() {
	godotenv.Load()
	cfg = config.Load()

	rootCmd := &cobra.Command{
		Use:     "qharvest [keyword]",
		Short:   "Harvest Quora search results by scroll-driven loading",
		Version: version,
		Long: `qharvest drives a headless browser through Quora's infinite-scroll
search results, classifies each entry (question vs. answer), extracts its
fields with fallback selector chains, deduplicates by URL, and writes the
records as CSV and JSON.`,
		Example: `  # Harvest 25 results for a keyword
  qharvest -n 25 "amazon acos"

  # First run: log in manually in a visible browser window
  qharvest --headed "amazon acos"

  # Also fetch each post's body as markdown
  qharvest --content "golang generics"

  # Re-parse a saved search page without a browser
  qharvest --from-file saved_search.html "golang generics"`,
		Args:         cobra.ExactArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().IntVarP(&count, "count", "n", 10, "Target number of records")
	rootCmd.Flags().BoolVar(&headed, "headed", !cfg.Browser.Headless, "Show the browser window (required for manual login)")
	rootCmd.Flags().StringVarP(&proxy, "proxy", "p", cfg.Browser.Proxy, "Proxy URL (e.g. http://127.0.0.1:7890)")
	rootCmd.Flags().StringVar(&stateFile, "state", cfg.Session.StateFile, "Login state (cookie) file")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", cfg.Output.Dir, "Directory for result files")
	rootCmd.Flags().BoolVar(&enrich, "content", cfg.Enrich.Enabled, "Fetch each record's post body")
	rootCmd.Flags().StringVar(&enrichFormat, "content-format", cfg.Enrich.Format, "Post body format: markdown or text")
	rootCmd.Flags().StringVar(&fromFile, "from-file", "", "Harvest a saved HTML file instead of the live site")
	rootCmd.Flags().BoolVar(&noAuth, "no-auth", !cfg.Session.RequireAuth, "Allow harvesting without a logged-in session")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	keyword := args[0]

	cfg.Browser.Headless = !headed
	cfg.Browser.Proxy = proxy
	cfg.Session.StateFile = stateFile
	cfg.Session.RequireAuth = !noAuth
	cfg.Enrich.Enabled = enrich
	cfg.Enrich.Format = enrichFormat
	cfg.Output.Dir = outputDir

	initLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if fromFile != "" {
		return runOffline(ctx, keyword)
	}
	return runLive(ctx, keyword)
}

// runOffline re-parses a saved search page. No browser, no session.
func runOffline(ctx context.Context, keyword string) error {
	f, err := os.Open(fromFile)
	if err != nil {
		return fmt.Errorf("open %s: %w", fromFile, err)
	}
	defer f.Close()

	sel := cfg.Harvest.ItemSelector
	if sel == "" {
		sel = harvest.DefaultItemSelector
	}
	nav, err := domnav.New(f, sel)
	if err != nil {
		return fmt.Errorf("parse %s: %w", fromFile, err)
	}

	h := newHarvester()
	h.RequireAuth = false

	report, err := h.Run(ctx, nav, nil, count)
	if err != nil {
		return err
	}
	return finish(ctx, keyword, report, nil)
}

func runLive(ctx context.Context, keyword string) error {
	b, err := browser.New(cfg.Browser)
	if err != nil {
		return err
	}
	defer b.Close()

	page, err := b.NewPage()
	if err != nil {
		return err
	}

	provider := &session.Provider{
		Origin:    cfg.Harvest.Origin,
		StateFile: cfg.Session.StateFile,
	}
	sess, err := provider.Establish(ctx, b.Rod(), page)
	if err != nil {
		return err
	}

	if cfg.Session.RequireAuth && !sess.Authenticated() {
		if cfg.Browser.Headless {
			return models.NewHarvestError(models.ErrCodeSessionRequired,
				"no saved login state; run with --headed once to log in, or pass --no-auth", nil)
		}
		if err := manualLogin(ctx, provider, b, sess); err != nil {
			return err
		}
	}

	searchURL := cfg.Harvest.Origin + "/search?q=" + url.QueryEscape(keyword)
	slog.Info("opening search page", "url", searchURL)
	p := page.Context(ctx)
	if err := p.Navigate(searchURL); err != nil {
		return models.NewHarvestError(
			models.ErrCodeNavigation, "navigation to search page failed", err)
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("search page did not stabilize, proceeding", "error", err)
	}

	report, err := newHarvester().Run(ctx, browser.NewNav(page, cfg.Harvest), sess, count)
	if err != nil {
		return err
	}
	return finish(ctx, keyword, report, b)
}

// manualLogin lets the user log in by hand in the visible window, then
// saves the cookies for next time.
func manualLogin(ctx context.Context, provider *session.Provider, b *browser.Browser, sess *session.Session) error {
	fmt.Println("Log in to Quora in the browser window, then press Enter to continue...")
	if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err != nil {
		return err
	}
	if err := provider.SaveState(b.Rod()); err != nil {
		return err
	}
	if !provider.Reprobe(ctx, sess) {
		return models.NewHarvestError(models.ErrCodeSessionRequired,
			"still not logged in after manual login", nil)
	}
	return nil
}

func newHarvester() *harvest.Harvester {
	h := harvest.New()
	h.Origin = cfg.Harvest.Origin
	h.StagnationThreshold = cfg.Harvest.StagnationThreshold
	h.MaxRounds = cfg.Harvest.MaxRounds
	h.RequireAuth = cfg.Session.RequireAuth
	h.Progress = func(ev models.RoundEvent) {
		slog.Info("scroll round",
			"round", ev.Round,
			"newItems", ev.NewItems,
			"accepted", ev.TotalAccepted,
		)
	}
	return h
}

// finish runs optional enrichment and writes the result files. b is nil in
// offline mode, which disables the enrichment browser fallback.
func finish(ctx context.Context, keyword string, report *models.Report, b *browser.Browser) error {
	slog.Info("harvest finished",
		"accepted", len(report.Records),
		"skipped", report.Skipped,
		"rounds", report.Rounds,
		"reason", report.Reason,
	)

	if cfg.Enrich.Enabled && len(report.Records) > 0 {
		var fallback content.BrowserFallback
		if b != nil {
			fallback = b.FetchHTML
		}
		enricher := content.NewEnricher(cfg.Enrich, cfg.Browser.Proxy, fallback)
		if failed := enricher.Enrich(ctx, report.Records); failed > 0 {
			slog.Warn("some post bodies could not be fetched", "failed", failed)
		}
	}

	csvPath, err := output.WriteCSV(cfg.Output.Dir, keyword, report)
	if err != nil {
		return err
	}
	jsonPath, err := output.WriteJSON(cfg.Output.Dir, keyword, report)
	if err != nil {
		return err
	}

	fmt.Printf("\n%d records (%s)\n", len(report.Records), report.Reason)
	for _, rec := range report.Records {
		fmt.Printf("%3d. %s\n     %s\n", rec.Seq, rec.Title, rec.URL)
	}
	fmt.Printf("\nResults saved to:\n  CSV:  %s\n  JSON: %s\n", csvPath, jsonPath)
	return nil
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
