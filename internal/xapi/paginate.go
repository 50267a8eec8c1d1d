package xapi

import (
	"context"
	"net/http"
	"time"
)

// FetchPage retrieves one upstream page for the given continuation
// cursor; an empty cursor means the start of the stream.
type FetchPage func(ctx context.Context, cursor string) (int, any, http.Header, error)

// UpstreamError is a completed upstream response with a non-200 status.
type UpstreamError struct {
	Status    int       `json:"status"`
	Body      any       `json:"body"`
	RateLimit RateLimit `json:"rate_limit"`
}

// FetchResult accumulates the outcome of one multi-page fetch. Rows
// gathered before a mid-loop failure are always kept.
type FetchResult struct {
	PagesFetched int
	Rows         []Row
	LastPage     map[string]any
	UsedFallback bool
	Err          *UpstreamError
}

// Paginate drives fetch for up to maxPages pages, following the
// meta.next_token cursor and stopping early when the upstream stops
// returning one. Each successful page is hydrated and flattened onto the
// result. A non-200 stops the loop and lands on Err; a transport failure
// stops the loop and is returned alongside the partial result.
func Paginate(ctx context.Context, fetch FetchPage, maxPages int, cursor string) (FetchResult, error) {
	var res FetchResult
	for i := 0; i < maxPages; i++ {
		status, body, header, err := fetch(ctx, cursor)
		if err != nil {
			return res, err
		}
		if status != http.StatusOK {
			res.Err = &UpstreamError{
				Status:    status,
				Body:      body,
				RateLimit: RateLimitInfo(header, time.Now()),
			}
			return res, nil
		}

		page, _ := Hydrate(body).(map[string]any)
		res.PagesFetched++
		res.LastPage = page
		res.Rows = append(res.Rows, TweetRows(page)...)

		cursor = str(dig(page, "meta", "next_token"))
		if cursor == "" {
			break
		}
	}
	return res, nil
}

func recoverable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusForbidden
}
