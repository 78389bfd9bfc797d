/*
Package client is the console's REST client for the managed backend.

The client resolves its base URL through a BaseProvider on every call,
so consumers automatically follow the supervisor's host rotation. Its
http.Client can carry a RetryTransport, which recovers network-class
failures by asking the supervisor for one automatic backend restart and
replaying the original request exactly once. Health probes are exempt
from that recovery: the supervisor owns their retry policy.

# Usage

	httpClient := &http.Client{
	    Transport: client.NewRetryTransport(http.DefaultTransport, sup),
	}
	c := client.New(sup, httpClient)

	page, err := c.AttendanceLogs(ctx, client.AttendanceQuery{
	    Limit: 50,
	    Date:  "2025-06-01",
	})
*/
package client
