/*
Package events provides an in-memory event broker for console pub/sub
messaging.

The broker broadcasts backend lifecycle transitions (started, stopped,
restarted, unreachable, recovered), stream state changes, and attendance
arrivals to interested subscribers. Publishing is non-blocking: events
flow through a buffered channel (100) into per-subscriber buffered
channels (50), and a subscriber that stops draining is skipped rather
than allowed to stall the broker.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	for event := range sub {
	    fmt.Println(event.Type, event.Message)
	}
*/
package events
