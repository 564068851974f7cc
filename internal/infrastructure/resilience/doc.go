/*
Package resilience provides a circuit breaker for outbound calls.

# States

	Closed --[ReadyToTrip]-> Open --[Timeout]-> Half-Open --[MaxRequests successes]-> Closed
	                                               |
	                                           [failure]
	                                               v
	                                              Open

Outcomes recorded against an older generation (before a state change) are
ignored.

# Usage

	breakers := resilience.NewGroup(resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})

	resp, err := resilience.Execute(breakers.Get(origin), func() (*resty.Response, error) {
		return req.Get(url)
	})
*/
package resilience
