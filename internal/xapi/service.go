package xapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Field-selection parameter sets sent with every upstream fetch.
const (
	tweetFields       = "created_at,public_metrics,lang,possibly_sensitive,entities,referenced_tweets,attachments,author_id"
	tweetExpansions   = "author_id,attachments.media_keys"
	tweetUserFields   = "name,username,profile_image_url,verified,public_metrics"
	mediaFields       = "type,url,preview_image_url,width,height,alt_text"
	profileUserFields = "name,username,profile_image_url,verified,protected,created_at,description,location,url,public_metrics"
)

// Service exposes the search and profile operations the HTTP and MCP
// front-ends call into.
type Service struct {
	client *Client
}

func NewService(client *Client) *Service {
	return &Service{client: client}
}

// SearchOptions parameterizes one recent-search fetch loop. Query is the
// full upstream query with exclusion operators already applied.
type SearchOptions struct {
	Query  string
	Limit  int
	Pages  int
	Cursor string
}

// TimelineOptions parameterizes one user-timeline fetch loop. Exclude is
// the comma-separated category list; empty means include everything.
type TimelineOptions struct {
	Limit   int
	Exclude string
	Pages   int
	Cursor  string
}

// BuildSearchQuery appends one -is: operator per exclusion category.
func BuildSearchQuery(q, exclude string) string {
	var b strings.Builder
	b.WriteString(q)
	for _, part := range strings.Split(exclude, ",") {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteString(" -is:")
			b.WriteString(part)
		}
	}
	return b.String()
}

// Search runs the recent-search pagination loop.
func (s *Service) Search(ctx context.Context, opts SearchOptions) (FetchResult, error) {
	return Paginate(ctx, s.searchFetcher(opts.Query, opts.Limit), opts.Pages, opts.Cursor)
}

// LookupUser resolves a username to its profile object. The returned
// UpstreamError is set for completed non-200 responses; a nil user with
// neither error means the username resolved to nothing.
func (s *Service) LookupUser(ctx context.Context, username string) (map[string]any, *UpstreamError, error) {
	params := url.Values{"user.fields": {profileUserFields}}
	status, body, header, err := s.client.Get(ctx, "/users/by/username/"+url.PathEscape(username), params)
	if err != nil {
		return nil, nil, err
	}
	if status != http.StatusOK {
		return nil, &UpstreamError{
			Status:    status,
			Body:      body,
			RateLimit: RateLimitInfo(header, time.Now()),
		}, nil
	}
	m, _ := body.(map[string]any)
	user, _ := m["data"].(map[string]any)
	return user, nil, nil
}

func (s *Service) searchFetcher(query string, limit int) FetchPage {
	return func(ctx context.Context, cursor string) (int, any, http.Header, error) {
		params := url.Values{
			"query":        {query},
			"max_results":  {strconv.Itoa(limit)},
			"tweet.fields": {tweetFields},
			"expansions":   {tweetExpansions},
			"user.fields":  {tweetUserFields},
			"media.fields": {mediaFields},
		}
		if cursor != "" {
			params.Set("pagination_token", cursor)
		}
		return s.client.Get(ctx, "/tweets/search/recent", params)
	}
}

func (s *Service) timelineFetcher(userID string, opts TimelineOptions) FetchPage {
	return func(ctx context.Context, cursor string) (int, any, http.Header, error) {
		params := url.Values{
			"max_results":  {strconv.Itoa(opts.Limit)},
			"tweet.fields": {tweetFields},
			"expansions":   {tweetExpansions},
			"user.fields":  {tweetUserFields},
			"media.fields": {mediaFields},
		}
		if opts.Exclude != "" {
			params.Set("exclude", opts.Exclude)
		}
		if cursor != "" {
			params.Set("pagination_token", cursor)
		}
		return s.client.Get(ctx, "/users/"+url.PathEscape(userID)+"/tweets", params)
	}
}
