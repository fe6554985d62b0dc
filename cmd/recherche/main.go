// CLAUDE:SUMMARY CLI entry point for recherche: one-shot research, HTTP server, MCP stdio server, archive history, saved-file viewer.
// Command recherche runs open-web research sessions.
//
// Usage:
//
//	recherche research "query" --depth deep --sources 5 --save out.json
//	recherche serve --addr :8086 --db recherche.db
//	recherche mcp                       # MCP over stdio
//	recherche history --db recherche.db --search "term"
//	recherche show research_20260314_092653.json
//
// Exit status is 2 for invalid queries or configuration, 1 for other
// failures.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/recherche/recherche"
)

var version = "dev"

type globalFlags struct {
	configPath string
	dbPath     string
	exportDir  string
	backend    string
	engine     string
	logLevel   string
	logFormat  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "recherche:", err)
		if errors.Is(err, recherche.ErrInvalidQuery) || errors.Is(err, recherche.ErrInvalidConfiguration) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "recherche",
		Short:         "Search the web, fetch the top results, summarize them",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "path to recherche.yaml config file")
	pf.StringVar(&g.dbPath, "db", "", "SQLite archive path (enables history and full-text search)")
	pf.StringVar(&g.exportDir, "export", "", "directory for Markdown export of every session")
	pf.StringVar(&g.backend, "ai-backend", "", "synthesis backend: ollama, transformers, none")
	pf.StringVar(&g.engine, "engine", "", "search engine: auto, google, duckduckgo, brave")
	pf.StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.StringVar(&g.logFormat, "log-format", "json", "log format: json, text")

	root.AddCommand(
		newResearchCmd(g),
		newServeCmd(g),
		newMCPCmd(g),
		newHistoryCmd(g),
		newShowCmd(),
	)
	return root
}

func newLogger(g *globalFlags) *slog.Logger {
	var level slog.Level
	switch g.logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if g.logFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// openService resolves the config file and flag overrides, then builds the
// service. Flags win over the file.
func openService(g *globalFlags, logger *slog.Logger) (*recherche.Service, error) {
	cfg := &recherche.Config{}
	if g.configPath != "" {
		c, err := recherche.LoadConfigFile(g.configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if g.dbPath != "" {
		cfg.ArchivePath = g.dbPath
	}
	if g.exportDir != "" {
		cfg.ExportDir = g.exportDir
	}
	if g.backend != "" {
		cfg.SynthBackend = g.backend
	}
	if g.engine != "" {
		cfg.Search.Engine = g.engine
	}
	return recherche.New(cfg, logger)
}

func newResearchCmd(g *globalFlags) *cobra.Command {
	var (
		depth    string
		sources  int
		news     bool
		page     int
		perPage  int
		save     string
		autosave bool
		asJSON   bool
		quiet    bool
	)
	cmd := &cobra.Command{
		Use:   "research QUERY...",
		Short: "Run one research session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(g)
			d, err := recherche.ParseDepth(depth)
			if err != nil {
				return fmt.Errorf("%w: %v", recherche.ErrInvalidConfiguration, err)
			}
			svc, err := openService(g, logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			opts := []recherche.ResearchOption{recherche.WithPage(page, perPage)}
			if news {
				opts = append(opts, recherche.WithNews())
			}
			if !quiet {
				stderr := cmd.ErrOrStderr()
				opts = append(opts, recherche.WithProgress(func(msg string) {
					fmt.Fprintln(stderr, msg)
				}))
			}

			sess, err := svc.Research(cmd.Context(), strings.Join(args, " "), d, sources, opts...)
			if err != nil {
				return err
			}
			if asJSON {
				if err := printJSON(cmd.OutOrStdout(), sess); err != nil {
					return err
				}
			} else {
				printSession(cmd.OutOrStdout(), sess)
			}

			if save != "" || autosave {
				path, err := svc.SaveResearch(save)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved to %s\n", path)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&depth, "depth", "d", string(recherche.DepthStandard), "quick, standard or deep")
	f.IntVarP(&sources, "sources", "n", recherche.DefaultMaxSources, "number of sources to fetch")
	f.BoolVar(&news, "news", false, "search news instead of the web")
	f.IntVar(&page, "page", 0, "zero-based result page")
	f.IntVar(&perPage, "per-page", 0, "results per page (default: --sources)")
	f.StringVarP(&save, "save", "s", "", "save the session to FILE")
	f.BoolVarP(&autosave, "autosave", "S", false, "save the session to research_YYYYMMDD_HHMMSS.json")
	f.BoolVar(&asJSON, "json", false, "print the session as JSON")
	f.BoolVarP(&quiet, "quiet", "q", false, "no progress messages")
	return cmd
}

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(g)
			svc, err := openService(g, logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(middleware.Recoverer)
			svc.RegisterHTTP(r)

			srv := &http.Server{
				Addr:              addr,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
				// Deep sessions wait on a local model.
				WriteTimeout: 5 * time.Minute,
				IdleTimeout:  60 * time.Second,
			}
			ctx := cmd.Context()
			errc := make(chan error, 1)
			go func() {
				logger.Info("recherche: server starting", "addr", addr, "backend", svc.Backend())
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			logger.Info("recherche: shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8086", "listen address")
	return cmd
}

func newMCPCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the research tools over MCP on stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(g)
			svc, err := openService(g, logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			srv := mcp.NewServer(&mcp.Implementation{Name: "recherche", Version: version}, nil)
			svc.RegisterMCP(srv)
			return srv.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}

func newHistoryCmd(g *globalFlags) *cobra.Command {
	var (
		query string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived sessions or search their sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if g.dbPath == "" && g.configPath == "" {
				return fmt.Errorf("%w: history needs --db or --config", recherche.ErrInvalidConfiguration)
			}
			svc, err := openService(g, newLogger(g))
			if err != nil {
				return err
			}
			defer svc.Close()

			w := cmd.OutOrStdout()
			if query != "" {
				hits, err := svc.SearchArchive(cmd.Context(), query, limit)
				if err != nil {
					return err
				}
				for _, h := range hits {
					fmt.Fprintf(w, "%s  %s\n  %s\n  %s\n", h.SessionID, h.Title, h.URL, h.Snippet)
				}
				return nil
			}
			entries, err := svc.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(w, "%s  %s  %-8s  %d/%d sources  %q\n",
					e.ID, e.CreatedAt.Local().Format(time.DateTime), e.Depth, e.UsableCount, e.SourceCount, e.Query)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&query, "search", "", "full-text query over archived sources")
	cmd.Flags().IntVar(&limit, "limit", 20, "max rows")
	return cmd
}

func newShowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Print the sessions of a saved research file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := recherche.LoadResearch(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), sessions)
			}
			for _, s := range sessions {
				printSession(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSession(w io.Writer, s *recherche.Session) {
	fmt.Fprintf(w, "\n=== %s (%s, %s) ===\n", s.Query, s.Depth, s.Timestamp.Local().Format(time.DateTime))
	if s.Error != "" {
		fmt.Fprintf(w, "%s\n", s.Error)
		return
	}

	fmt.Fprintf(w, "\nSearch results (page %d):\n", s.Page+1)
	for i, c := range s.SearchResults {
		fmt.Fprintf(w, "%d. %s\n   %s\n", i+1, c.Title, c.URL)
		if c.Snippet != "" {
			fmt.Fprintf(w, "   %s\n", c.Snippet)
		}
	}
	if s.HasMore {
		fmt.Fprintf(w, "   (more results: --page %d)\n", s.Page+1)
	}

	if len(s.Sources) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for i, src := range s.Sources {
			fmt.Fprintf(w, "%d. [%s] %s\n   %s\n", i+1, src.FetchStatus, src.Title, src.URL)
			if src.FetchStatus == recherche.StatusFailed {
				fmt.Fprintf(w, "   error: %s\n", src.Error)
				continue
			}
			fmt.Fprintf(w, "   %d chars via %s extractor\n", len([]rune(src.Text)), src.ExtractorUsed)
		}
	}

	if a := s.Analysis; a != nil {
		fmt.Fprintf(w, "\nAnalysis (%s, %d sources):\n%s\n", a.Backend, a.SourceCount, a.Summary)
	} else if s.Depth == recherche.DepthDeep {
		fmt.Fprintln(w, "\nNo analysis available.")
	}
}
