package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jayeshwarhadi/HireLens/internal/ai"
	"github.com/jayeshwarhadi/HireLens/internal/server"
	"github.com/jayeshwarhadi/HireLens/internal/session"
	"github.com/jayeshwarhadi/HireLens/internal/trace"
	"github.com/jayeshwarhadi/HireLens/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HireLens API server for the browser frontend",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from config or :8080)")
	serveCmd.Flags().Bool("cors", true, "allow cross-origin requests from the frontend")
	serveCmd.Flags().StringP("watch", "w", "", "source file to watch; changes re-run the analysis in a dedicated session")
	serveCmd.Flags().String("watch-kind", "", "declared structure kind for the watched file (array, tree, graph, ...)")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("server.cors", serveCmd.Flags().Lookup("cors"))
}

func serve(cmd *cobra.Command) {
	ctx := context.Background()

	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting hirelens", zap.String("version", version))

	analyzer, err := newAnalyzer(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating the analyzer", zap.Error(err))
	}

	sessions := session.NewManager(analyzer, newProjector(), logger)
	defer sessions.Close()

	if interval := playbackInterval(config); interval > 0 {
		sessions.SetDefaultInterval(interval)
	}

	srv := server.New(server.Config{
		Addr:       serverAddr(config),
		EnableCORS: viper.GetBool("server.cors"),
		Debug:      viper.GetBool("debug"),
	}, sessions, logger)

	if path := cmd.Flag("watch").Value.String(); path != "" {
		w, err := startWatchSession(ctx, cmd, config, sessions, path, logger)
		if err != nil {
			logger.Fatal("starting watch mode", zap.Error(err))
		}
		defer w.Stop()
	}

	if err := srv.Start(); err != nil {
		logger.Fatal("api server stopped", zap.Error(err))
	}
}

// startWatchSession creates a dedicated session bound to a source file,
// analyzes it once and re-analyzes on every settled change. A re-analysis
// supersedes any still-running one via the session's ticket.
func startWatchSession(ctx context.Context, cmd *cobra.Command, config *Config, sessions *session.Manager, path string, logger *zap.Logger) (*watcher.Watcher, error) {
	kind := trace.ParseKind(cmd.Flag("watch-kind").Value.String())

	sess := sessions.Create()
	logger.Info("watch session ready",
		zap.String("session", sess.ID),
		zap.String("path", path),
	)

	analyzeFile := func(p string) {
		source, err := os.ReadFile(p)
		if err != nil {
			logger.Warn("reading watched file", zap.String("path", p), zap.Error(err))
			return
		}
		req := &ai.Request{
			SourceCode: string(source),
			KindHint:   kind,
			CacheKey:   p,
		}
		if err := sess.Analyze(ctx, req); err != nil {
			// Session keeps the previous trace; the next save retries.
			logger.Warn("watch analysis failed", zap.String("path", p), zap.Error(err))
		}
	}

	w, err := watcher.New(watcher.Config{
		Path:     path,
		Debounce: watchDebounce(config),
		OnChange: func(p string) { go analyzeFile(p) },
	}, logger)
	if err != nil {
		return nil, err
	}

	go analyzeFile(path)
	w.Start()
	return w, nil
}
