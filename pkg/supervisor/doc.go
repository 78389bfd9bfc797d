/*
Package supervisor maintains the console's connection to the local
attendance backend and self-heals transient outages.

The supervisor owns three responsibilities: discovering which loopback
address the backend actually answers on, tracking a low-latency
running/stopped view for the UI, and throttling automatic restarts so a
crash-looping backend cannot be restarted forever.

# Architecture

	┌────────────────── ConnectionSupervisor ──────────────────┐
	│                                                           │
	│  Health probing            Lifecycle            Budget    │
	│  ┌─────────────┐      ┌──────────────┐     ┌──────────┐  │
	│  │ CheckHealth │      │ StartBackend │     │ grant/   │  │
	│  │  host order │      │ StopBackend  │     │ throttle │  │
	│  │  retry/back │      │ RestartBack. │     │ restarts │  │
	│  └──────┬──────┘      └──────┬───────┘     └────┬─────┘  │
	│         │                    │                   │        │
	└─────────┼────────────────────┼───────────────────┼────────┘
	          ▼                    ▼                   ▲
	   GET /service/status   bridge.Bridge      client.RetryTransport

# Host rotation

The backend binds a loopback address that varies by platform network
stack, so every health check walks the candidate list (127.0.0.1,
localhost, 0.0.0.0 by default). The first responsive host becomes the
active host, is probed first on subsequent checks, and is persisted so
the next session starts with it.

# Restart budget

Automatic restarts triggered by transport failures draw on a budget of
MaxStartupAttempts per StartupCooldown window. Manual start/stop/restart
operations never draw on it. A successful response schedules a budget
reset one cooldown later.

# Usage

	sup := supervisor.New(supervisor.DefaultConfig(), bridge, broker, store)
	sup.SetClient(backendClient)
	sup.Start()
	defer sup.Stop()

	if sup.CheckHealth(ctx) {
	    state := sup.Snapshot()
	    fmt.Println("backend on", state.ActiveHost)
	}

All methods are safe for concurrent use.
*/
package supervisor
