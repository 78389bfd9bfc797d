/*
Package bridge is the host-side process control surface for the managed
backend service.

The bridge answers process-level questions (is a backend process alive,
start one, stop one) that are distinct from HTTP health: a freshly
spawned backend can be alive but not yet accepting connections, and a
wedged one can be alive but deaf. The supervisor combines both signals.

ExecBridge runs the backend as a child process and captures its stdout
and stderr line by line into a bounded in-memory ring (100 entries).
Stderr lines are classified by the markers the backend emits (ERROR,
WARNING, ModuleNotFoundError, "Failed to execute"), which lets the
supervisor surface the most recent real error when a start fails
silently.

Stopping is SIGTERM first with a grace period, then SIGKILL. A restart
is stop, a short cleanup delay for the port to be released, then start.
*/
package bridge
