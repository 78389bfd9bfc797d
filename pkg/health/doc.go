/*
Package health provides the checkers the supervisor uses to probe the
backend service.

Two checker types are implemented behind a common Checker interface:

  - HTTPChecker: GETs the backend status endpoint. Healthy only on a
    2xx response carrying a decodable status body; a backend that
    answers but cannot report its own status is not ready to serve.
  - TCPChecker: verifies a port accepts connections. Used for quick
    reachability tests where the HTTP surface is not relevant.

Status tracks consecutive successes and failures across checks so
callers can distinguish a blip from a real outage.
*/
package health
