package sync

// backoffCapMs caps the retry delay at one minute.
const backoffCapMs = 60000

// Backoff returns the retry delay in milliseconds after n failed
// attempts: min(1000 * 2^n, 60000).
func Backoff(n int) int64 {
	if n < 0 {
		n = 0
	}
	// 2^6 * 1000 already exceeds the cap
	if n >= 6 {
		return backoffCapMs
	}
	ms := int64(1000) << uint(n)
	if ms > backoffCapMs {
		return backoffCapMs
	}
	return ms
}
