package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/voxlate/voxlate/pkg/core/config"
	"github.com/voxlate/voxlate/pkg/core/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "voxlate",
	Short: "Voxlate - Real-time translation orchestrator",
	Long: `Voxlate orchestrates speech and text translation across multiple
providers (DeepL, Google, Azure, GPT-4o) with quality-aware routing,
a two-tier translation cache and conversation context.

Commands:
  serve      - Start the HTTP/WebSocket gateway
  translate  - Translate a single text from the command line
  status     - Show the status of a running gateway
  version    - Show version information`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./configs/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// loadConfig resolves the effective configuration and applies the
// logging defaults it specifies. A missing .env file is not an error.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env: %v\n", err)
	}

	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}

	level := logging.ParseLevel(cfg.General.LogLevel)
	if verbose {
		level = logging.LevelDebug
	}
	logging.SetDefaultLevel(level)
	if cfg.General.LogFormat == "text" {
		logging.SetDefaultFormat(logging.FormatText)
	}

	return cfg, nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
