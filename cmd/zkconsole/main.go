package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/syurodev/ztkapp-sub000/pkg/api"
	"github.com/syurodev/ztkapp-sub000/pkg/bridge"
	"github.com/syurodev/ztkapp-sub000/pkg/client"
	"github.com/syurodev/ztkapp-sub000/pkg/config"
	"github.com/syurodev/ztkapp-sub000/pkg/events"
	"github.com/syurodev/ztkapp-sub000/pkg/live"
	"github.com/syurodev/ztkapp-sub000/pkg/log"
	"github.com/syurodev/ztkapp-sub000/pkg/storage"
	"github.com/syurodev/ztkapp-sub000/pkg/supervisor"
	"github.com/syurodev/ztkapp-sub000/pkg/types"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "zkconsole",
	Short: "ZKConsole - Desktop console core for biometric attendance terminals",
	Long: `ZKConsole supervises the local attendance backend service and keeps a
live, reconciled view of attendance punches from ZKTeco terminals.

It watches backend health across loopback addresses, restarts the backend
when it goes quiet, and merges the historical record with the push stream
into a single consistent feed.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"ZKConsole version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("config", "", "Path to config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(backendCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(liveCmd)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("ZKCONSOLE_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %v", err)
	}
	return cfg, nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the console session",
	Long: `Run the console session: start the backend supervisor, subscribe the
live attendance feed, and serve the local status API until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		log.Init(log.Config{
			Level:      log.Level(cfg.LogLevel),
			JSONOutput: cfg.LogFormat == "json",
		})
		logger := log.WithComponent("main")

		store, err := storage.Open(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open state store: %v", err)
		}
		defer store.Close()

		broker := events.NewBroker()
		broker.Start()
		defer broker.Stop()

		procBridge := bridge.NewExecBridge(cfg.BackendBinary, nil, cfg.BackendEnv)

		supCfg := supervisor.DefaultConfig()
		supCfg.Port = cfg.BackendPort
		supCfg.Hosts = cfg.CandidateHosts
		supCfg.CheckTimeout = cfg.CheckTimeout
		supCfg.HealthInterval = cfg.HealthInterval
		supCfg.MetricsInterval = cfg.MetricsInterval
		supCfg.StartupGrace = cfg.StartupGrace
		supCfg.StartSettle = cfg.StartSettle
		supCfg.RestartSettle = cfg.RestartSettle
		supCfg.MaxStartupAttempts = cfg.MaxStartupAttempts
		supCfg.StartupCooldown = cfg.StartupCooldown

		sup := supervisor.New(supCfg, procBridge, broker, store)

		httpClient := &http.Client{
			Transport: client.NewRetryTransport(http.DefaultTransport, sup),
		}
		backendClient := client.New(sup, httpClient)
		sup.SetClient(backendClient)

		feed := live.NewFeed(backendClient, broker)

		sup.Start()
		defer sup.Stop()
		logger.Info().Msg("supervisor started")

		feed.Subscribe(types.DeviceScope{AllDevices: true})
		defer feed.Unsubscribe()

		statusServer := api.NewStatusServer(sup, feed, procBridge)
		errCh := make(chan error, 1)
		go func() {
			if err := statusServer.Start(cfg.StatusListenAddr); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("status server error: %v", err)
			}
		}()
		defer statusServer.Shutdown()
		logger.Info().Str("addr", cfg.StatusListenAddr).Msg("status server listening")

		fmt.Println("Console is running. Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
		case err := <-errCh:
			return err
		}
		return nil
	},
}

// statusAddr resolves the local status server address for client commands
func statusAddr(cmd *cobra.Command) (string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return cfg.StatusListenAddr, nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend service status",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := statusAddr(cmd)
		if err != nil {
			return err
		}

		var state supervisor.State
		if err := fetchJSON(addr, "/status", &state); err != nil {
			return err
		}

		if state.IsRunning {
			fmt.Println("Backend: running")
		} else {
			fmt.Println("Backend: not running")
		}
		if state.ActiveHost != "" {
			fmt.Printf("  Active host: %s\n", state.ActiveHost)
		}
		if state.LastError != "" {
			fmt.Printf("  Last error: %s\n", state.LastError)
		}
		m := state.Metrics
		if state.IsRunning {
			fmt.Printf("  PID: %d\n", m.PID)
			fmt.Printf("  Memory: %.1f MB\n", m.MemoryUsage)
			fmt.Printf("  CPU: %.1f%%\n", m.CPUPercent)
			fmt.Printf("  Uptime: %s\n", (time.Duration(m.Uptime) * time.Second).String())
		}
		if state.StartupAttempts > 0 {
			fmt.Printf("  Startup attempts: %d\n", state.StartupAttempts)
		}
		if state.LastRestart != nil {
			fmt.Printf("  Last restart: %s\n", state.LastRestart.Format(time.RFC3339))
		}
		return nil
	},
}
