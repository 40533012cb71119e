package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxlate/voxlate/internal/translator/provider"
)

var (
	translateFrom      string
	translateTo        string
	translateService   string
	translateDomain    string
	translateFormality string
	translatePriority  string
	translateNoCache   bool
)

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translates a text from the command line",
	Long: `Translates a single text without starting the gateway.

Providers are taken from the config file. The routing optimizer picks
the provider unless --service forces one.

Examples:
  voxlate translate --from en --to de "Good morning"
  voxlate translate --from en --to ja --priority quality "The contract is signed"
  voxlate translate --from de --to en --service deepl "Guten Tag"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)
	translateCmd.Flags().StringVar(&translateFrom, "from", "auto", "Source language code")
	translateCmd.Flags().StringVar(&translateTo, "to", "en", "Target language code")
	translateCmd.Flags().StringVar(&translateService, "service", "", "Force a specific provider")
	translateCmd.Flags().StringVar(&translateDomain, "domain", "general", "Translation domain")
	translateCmd.Flags().StringVar(&translateFormality, "formality", "", "Formality (formal, informal)")
	translateCmd.Flags().StringVar(&translatePriority, "priority", "quality", "Routing priority (quality, speed, cost)")
	translateCmd.Flags().BoolVar(&translateNoCache, "no-cache", false, "Bypass the translation cache")
}

func runTranslate(cmd *cobra.Command, args []string) error {
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
	defer c.Destroy()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := c.Initialize(ctx); err != nil {
		printError("provider initialization", err)
		return err
	}

	opts := provider.DefaultOptions()
	opts.Priority = provider.Priority(translatePriority)
	opts.Domain = translateDomain
	opts.Formality = translateFormality
	opts.PreferredService = translateService
	opts.UseCache = !translateNoCache

	text := strings.Join(args, " ")
	result := c.Translate(ctx, text, translateFrom, translateTo, opts)
	if !result.Success {
		return fmt.Errorf("translation failed: %s", result.Error)
	}

	fmt.Println(result.Translation)
	if verbose {
		fmt.Printf("\nService:    %s\n", result.Service)
		fmt.Printf("Confidence: %.2f\n", result.Confidence)
		fmt.Printf("Time:       %dms\n", result.ProcessingTimeMs)
		if result.Cached {
			fmt.Println("Cached:     yes")
		}
		if len(result.Alternatives) > 0 {
			fmt.Printf("Alternatives: %s\n", strings.Join(result.Alternatives, "; "))
		}
	}
	return nil
}
