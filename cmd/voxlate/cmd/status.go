package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var statusHost string
var statusPort int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows the status of a running gateway",
	Long: `Queries a running Voxlate gateway and prints provider health,
quality history and cache effectiveness.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusHost, "host", "localhost", "Gateway host")
	statusCmd.Flags().IntVar(&statusPort, "port", 8090, "Gateway port")
}

// gatewayStatus mirrors the /api/status response shape
type gatewayStatus struct {
	Providers []string `json:"providers"`
	Health    map[string]struct {
		Available      bool    `json:"available"`
		ResponseTimeMs float64 `json:"responseTimeMs"`
		LastError      string  `json:"lastError,omitempty"`
	} `json:"health"`
	Quality map[string]map[string]float64 `json:"quality"`
	Cache   *struct {
		Hits         int64   `json:"hits"`
		Misses       int64   `json:"misses"`
		HitRate      float64 `json:"hitRate"`
		StandardSize int     `json:"standardSize"`
		PrioritySize int     `json:"prioritySize"`
	} `json:"cache,omitempty"`
	Conversations int `json:"conversations"`
	HistorySize   int `json:"historySize"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("Voxlate Status")
	fmt.Println("==============")
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	base := fmt.Sprintf("http://%s:%d", statusHost, statusPort)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/status", nil)
	if err != nil {
		return err
	}
	resp, err := (&http.Client{Timeout: 3 * time.Second}).Do(req)
	if err != nil {
		fmt.Printf("  [-] Gateway on %s:%d - not reachable\n", statusHost, statusPort)
		fmt.Println("      Start with: voxlate serve")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var status gatewayStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("failed to decode status: %w", err)
	}

	fmt.Printf("  [+] Gateway on %s:%d\n", statusHost, statusPort)
	fmt.Println()
	fmt.Println("Providers:")
	fmt.Println("----------")
	for _, name := range status.Providers {
		icon := "[+]"
		detail := "available"
		if h, ok := status.Health[name]; ok {
			if !h.Available {
				icon = "[-]"
				detail = "unavailable"
				if h.LastError != "" {
					detail = fmt.Sprintf("unavailable (%s)", h.LastError)
				}
			} else if h.ResponseTimeMs > 0 {
				detail = fmt.Sprintf("available, ~%.0fms", h.ResponseTimeMs)
			}
		}
		fmt.Printf("  %s %-10s %s\n", icon, name, detail)
	}

	if status.Cache != nil {
		fmt.Println()
		fmt.Println("Cache:")
		fmt.Println("------")
		fmt.Printf("  Entries:  %d (%d priority)\n",
			status.Cache.StandardSize+status.Cache.PrioritySize, status.Cache.PrioritySize)
		fmt.Printf("  Hit Rate: %.1f%% (%d hits, %d misses)\n",
			status.Cache.HitRate*100, status.Cache.Hits, status.Cache.Misses)
	}

	fmt.Println()
	fmt.Printf("Conversations: %d\n", status.Conversations)
	fmt.Printf("History:       %d entries\n", status.HistorySize)

	return nil
}
