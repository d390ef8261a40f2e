package session

const defaultMaxAttempts = 3

// RetryPolicy bounds confirmation attempts. Placement and removal share one
// policy. Exhaustion only ever recommends cancelling; it never approves.
type RetryPolicy struct {
	MaxAttempts int
}

func (p RetryPolicy) limit() int {
	if p.MaxAttempts < 1 {
		return defaultMaxAttempts
	}
	return p.MaxAttempts
}

func (p RetryPolicy) Remaining(used int) int {
	if r := p.limit() - used; r > 0 {
		return r
	}
	return 0
}

func (p RetryPolicy) Exhausted(used int) bool {
	return used >= p.limit()
}
