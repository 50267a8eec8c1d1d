package xapi

import (
	"net/http"
	"strconv"
	"time"
)

// RateLimit is the normalized view of the upstream x-rate-limit-*
// headers, attached to structured error payloads.
type RateLimit struct {
	Limit             string `json:"limit,omitempty"`
	Remaining         string `json:"remaining,omitempty"`
	ResetEpoch        string `json:"reset_epoch,omitempty"`
	ResetUTC          string `json:"reset_utc,omitempty"`
	SecondsUntilReset *int64 `json:"seconds_until_reset,omitempty"`
}

// RateLimitInfo parses the rate-limit headers relative to now. A missing
// or malformed reset timestamp leaves the derived fields unset.
func RateLimitInfo(h http.Header, now time.Time) RateLimit {
	rl := RateLimit{
		Limit:      h.Get("x-rate-limit-limit"),
		Remaining:  h.Get("x-rate-limit-remaining"),
		ResetEpoch: h.Get("x-rate-limit-reset"),
	}
	if epoch, err := strconv.ParseInt(rl.ResetEpoch, 10, 64); err == nil {
		rl.ResetUTC = time.Unix(epoch, 0).UTC().Format(time.RFC3339)
		secs := epoch - now.Unix()
		if secs < 0 {
			secs = 0
		}
		rl.SecondsUntilReset = &secs
	}
	return rl
}
