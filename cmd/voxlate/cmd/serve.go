package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxlate/voxlate/internal/server"
	"github.com/voxlate/voxlate/internal/translator/cache"
	"github.com/voxlate/voxlate/internal/translator/contextstore"
	"github.com/voxlate/voxlate/internal/translator/coordinator"
	"github.com/voxlate/voxlate/internal/translator/provider"
	"github.com/voxlate/voxlate/internal/translator/quality"
	"github.com/voxlate/voxlate/internal/translator/routing"
	"github.com/voxlate/voxlate/pkg/core/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the translation gateway",
	Long: `Starts the Voxlate HTTP/WebSocket gateway.

The gateway serves the REST API under /api and live translation
sessions under /ws/translate. Providers are taken from the config
file; a provider without an API key is skipped.

Examples:
  voxlate serve
  voxlate serve --config ./configs/config.toml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("config", err)
		return err
	}

	c, err := buildCoordinator(cfg)
	if err != nil {
		printError("startup", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := c.Initialize(ctx); err != nil {
		c.Destroy()
		printError("provider initialization", err)
		return err
	}

	srv, err := server.New(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		Version:      Version,
	}, c)
	if err != nil {
		c.Destroy()
		return err
	}

	fmt.Println("Voxlate")
	fmt.Println("=======")
	fmt.Printf("  [+] Gateway on %s\n", srv.Address())
	fmt.Printf("  [+] Providers: %v\n", c.GetServiceStatus().Providers)
	fmt.Println()
	fmt.Printf("API:          http://%s/api/translate\n", srv.Address())
	fmt.Printf("WebSocket:    ws://%s/ws/translate\n", srv.Address())
	fmt.Printf("Health Check: http://%s/api/health\n", srv.Address())
	fmt.Println("Press Ctrl+C to stop")

	srv.StartAsync()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nStopping...")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	return srv.Stop(stopCtx)
}

// buildCoordinator assembles the full translation stack from the
// central configuration.
func buildCoordinator(cfg *config.Config) (*coordinator.Coordinator, error) {
	var mgrCfg provider.ManagerConfig
	if cfg.Providers.DeepL.Enabled {
		mgrCfg.DeepL = provider.DeepLConfig{
			APIKey:  cfg.Providers.DeepL.APIKey,
			BaseURL: cfg.Providers.DeepL.BaseURL,
			Timeout: cfg.Providers.DeepL.Timeout.Duration,
		}
	}
	if cfg.Providers.Google.Enabled {
		mgrCfg.Google = provider.GoogleConfig{
			APIKey:  cfg.Providers.Google.APIKey,
			BaseURL: cfg.Providers.Google.BaseURL,
			Timeout: cfg.Providers.Google.Timeout.Duration,
		}
	}
	if cfg.Providers.Azure.Enabled {
		mgrCfg.Azure = provider.AzureConfig{
			APIKey:  cfg.Providers.Azure.APIKey,
			Region:  cfg.Providers.Azure.Region,
			BaseURL: cfg.Providers.Azure.BaseURL,
			Timeout: cfg.Providers.Azure.Timeout.Duration,
		}
	}
	if cfg.Providers.GPT4o.Enabled {
		mgrCfg.GPT4o = provider.GPT4oConfig{
			APIKey:       cfg.Providers.GPT4o.APIKey,
			BaseURL:      cfg.Providers.GPT4o.BaseURL,
			DefaultModel: cfg.Providers.GPT4o.Model,
			Timeout:      cfg.Providers.GPT4o.Timeout.Duration,
		}
	}

	mgr, err := provider.NewManager(mgrCfg)
	if err != nil {
		return nil, err
	}

	state := routing.NewState(cfg.Routing.QualitySnapshotFile)

	optCfg := routing.DefaultOptimizerConfig()
	if cfg.Routing.DefaultProvider != "" {
		optCfg.DefaultProvider = cfg.Routing.DefaultProvider
	}
	if len(cfg.Routing.EuropeanLanguages) > 0 {
		optCfg.EuropeanLanguages = cfg.Routing.EuropeanLanguages
	}
	if len(cfg.Routing.CulturalLanguages) > 0 {
		optCfg.CulturalLanguages = cfg.Routing.CulturalLanguages
	}
	if cfg.Routing.DomainRoutesFile != "" {
		routes, err := routing.LoadDomainRoutes(cfg.Routing.DomainRoutesFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: domain routes not loaded: %v\n", err)
		} else {
			optCfg.DomainRoutes = routes
		}
	}
	opt := routing.NewOptimizer(optCfg, state, mgr.Names())

	var translationCache *cache.Cache
	if !cfg.Cache.Disabled {
		translationCache = cache.New(cache.Config{
			MaxItems:    cfg.Cache.MaxItems,
			TTL:         cfg.Cache.TTL.Duration,
			PriorityTTL: cfg.Cache.PriorityTTL.Duration,
		})
	}

	contexts := contextstore.New(contextstore.Config{
		MaxHistory:    cfg.Conversation.MaxHistorySize,
		Expiration:    cfg.Conversation.Expiration.Duration,
		SweepInterval: cfg.Conversation.SweepInterval.Duration,
	})

	qCfg := quality.Config{
		AccuracyWeight: cfg.Quality.AccuracyWeight,
		FluencyWeight:  cfg.Quality.FluencyWeight,
		CulturalWeight: cfg.Quality.CulturalWeight,
		Threshold:      cfg.Quality.Threshold,
	}
	if cfg.Quality.EnhancedEnabled {
		if p, ok := mgr.Get(provider.TypeGPT4o); ok {
			if g, ok := p.(*provider.GPT4oProvider); ok {
				qCfg.Judge = func(ctx context.Context, s quality.Sample) (string, error) {
					return g.Judge(ctx, s.Original, s.Translated, s.FromLang, s.ToLang, s.Context, s.Domain)
				}
			}
		}
	}

	return coordinator.New(coordinator.Config{
		QualityThreshold: cfg.Quality.Threshold,
		CacheTTL:         cfg.Cache.TTL.Duration,
		BatchSize:        cfg.Batch.ChunkSize,
		BatchDelay:       cfg.Batch.Delay.Duration,
	}, coordinator.Dependencies{
		Providers: mgr,
		Optimizer: opt,
		State:     state,
		Cache:     translationCache,
		Contexts:  contexts,
		Assessor:  quality.New(qCfg),
	})
}
