package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/syurodev/ztkapp-sub000/pkg/bridge"
	"github.com/syurodev/ztkapp-sub000/pkg/client"
	"github.com/syurodev/ztkapp-sub000/pkg/config"
	"github.com/syurodev/ztkapp-sub000/pkg/live"
	"github.com/syurodev/ztkapp-sub000/pkg/log"
	"github.com/syurodev/ztkapp-sub000/pkg/supervisor"
	"github.com/syurodev/ztkapp-sub000/pkg/types"
)

// Backend lifecycle commands. These construct a short-lived supervisor
// of their own rather than talking to a running session, so they work
// whether or not `zkconsole run` is active.
var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Control the backend service process",
}

var backendStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the backend service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return backendOp(cmd, "start")
	},
}

var backendStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the backend service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return backendOp(cmd, "stop")
	},
}

var backendRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the backend service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return backendOp(cmd, "restart")
	},
}

func init() {
	backendCmd.AddCommand(backendStartCmd)
	backendCmd.AddCommand(backendStopCmd)
	backendCmd.AddCommand(backendRestartCmd)

	logsCmd.Flags().Bool("errors", false, "Show only error-level entries")
}

func backendOp(cmd *cobra.Command, op string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log.Init(log.Config{Level: log.WarnLevel, JSONOutput: false})

	sup := newSessionSupervisor(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var ok bool
	switch op {
	case "start":
		ok = sup.StartBackend(ctx)
	case "stop":
		ok = sup.StopBackend(ctx)
	case "restart":
		ok = sup.RestartBackend(ctx)
	}

	state := sup.Snapshot()
	if !ok {
		if state.LastError != "" {
			return fmt.Errorf("backend %s failed: %s", op, state.LastError)
		}
		return fmt.Errorf("backend %s failed", op)
	}

	fmt.Printf("✓ Backend %s succeeded\n", op)
	if state.ActiveHost != "" {
		fmt.Printf("  Active host: %s\n", state.ActiveHost)
	}
	return nil
}

// newSessionSupervisor wires a supervisor the same way `run` does, minus
// the periodic loops and the event broker.
func newSessionSupervisor(cfg *config.Config) *supervisor.ConnectionSupervisor {
	procBridge := bridge.NewExecBridge(cfg.BackendBinary, nil, cfg.BackendEnv)

	supCfg := supervisor.DefaultConfig()
	supCfg.Port = cfg.BackendPort
	supCfg.Hosts = cfg.CandidateHosts
	supCfg.CheckTimeout = cfg.CheckTimeout
	supCfg.StartSettle = cfg.StartSettle
	supCfg.RestartSettle = cfg.RestartSettle
	supCfg.MaxStartupAttempts = cfg.MaxStartupAttempts
	supCfg.StartupCooldown = cfg.StartupCooldown

	sup := supervisor.New(supCfg, procBridge, nil, nil)
	sup.SetClient(client.New(sup, &http.Client{}))
	return sup
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show captured backend process output",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := statusAddr(cmd)
		if err != nil {
			return err
		}

		path := "/logs"
		if errorsOnly, _ := cmd.Flags().GetBool("errors"); errorsOnly {
			path = "/logs?errors=true"
		}

		var body struct {
			Logs []types.LogEntry `json:"logs"`
		}
		if err := fetchJSON(addr, path, &body); err != nil {
			return err
		}

		if len(body.Logs) == 0 {
			fmt.Println("No log entries.")
			return nil
		}
		for _, entry := range body.Logs {
			fmt.Printf("%s [%s] %s\n",
				entry.Timestamp.Format("15:04:05"),
				entry.Level,
				entry.Message,
			)
		}
		return nil
	},
}

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Show the reconciled live attendance feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := statusAddr(cmd)
		if err != nil {
			return err
		}

		var snap live.Snapshot
		if err := fetchJSON(addr, "/feed", &snap); err != nil {
			return err
		}

		if snap.Connected {
			fmt.Printf("Stream: connected (%s)\n", snap.Scope)
		} else {
			fmt.Printf("Stream: disconnected (%s)\n", snap.Scope)
		}
		if len(snap.Records) == 0 {
			fmt.Println("No attendance records.")
			return nil
		}
		for _, rec := range snap.Records {
			name := rec.Name
			if name == "" {
				name = rec.UserID
			}
			fmt.Printf("%s  %-20s  action=%d  device=%s\n",
				rec.Timestamp, name, rec.Action, rec.DeviceID)
		}
		return nil
	},
}

// fetchJSON queries the local status server of a running session
func fetchJSON(addr, path string, out any) error {
	httpClient := &http.Client{Timeout: 5 * time.Second}
	resp, err := httpClient.Get("http://" + addr + path)
	if err != nil {
		return fmt.Errorf("console session not reachable at %s (is `zkconsole run` active?): %v", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status server returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
