package xapi

import "context"

// UserTimeline drives the user-timeline fetch with the search fallback.
// The primary endpoint is /users/{id}/tweets; a 429 or 403 there hands
// the remaining page budget to an equivalent from:<username> search.
// The fallback restarts from the caller's original cursor because the
// two endpoints paginate independent streams whose tokens are not
// interchangeable. Rows from both legs concatenate in fetch order and
// the failed transition attempt does not consume a page slot.
func (s *Service) UserTimeline(ctx context.Context, user map[string]any, opts TimelineOptions) (FetchResult, error) {
	primary, err := Paginate(ctx, s.timelineFetcher(str(user["id"]), opts), opts.Pages, opts.Cursor)
	if err != nil || primary.Err == nil || !recoverable(primary.Err.Status) {
		return primary, err
	}

	remaining := opts.Pages - primary.PagesFetched
	query := BuildSearchQuery("from:"+str(user["username"]), opts.Exclude)
	fallback, err := Paginate(ctx, s.searchFetcher(query, opts.Limit), remaining, opts.Cursor)

	merged := FetchResult{
		PagesFetched: primary.PagesFetched + fallback.PagesFetched,
		Rows:         append(primary.Rows, fallback.Rows...),
		LastPage:     fallback.LastPage,
		UsedFallback: true,
		Err:          fallback.Err,
	}
	if merged.LastPage == nil {
		merged.LastPage = primary.LastPage
	}
	return merged, err
}
