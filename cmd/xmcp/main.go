package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"x-proxy/internal/cache"
	"x-proxy/internal/config"
	"x-proxy/internal/logging"
	"x-proxy/internal/xapi"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	cfg := config.FromEnv()
	logging.Init(cfg.Debug)

	if cfg.BearerToken == "" && !cfg.HasOAuth() {
		fmt.Fprintln(os.Stderr, "X_BEARER_TOKEN is required for xmcp")
		os.Exit(1)
	}

	svc := xapi.NewService(xapi.NewClient(xapi.ClientOptions{
		BaseURL:     cfg.APIBase,
		BearerToken: cfg.BearerToken,
		Timeout:     cfg.HTTPTimeout,
		Cache:       cache.New(),
		CacheTTL:    cfg.CacheTTL,
		Debug:       cfg.Debug,
	}))

	s := server.NewMCPServer(
		"x-proxy",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)

	searchTool := mcp.Tool{
		Name:        "x.search_recent",
		Description: "Search recent tweets and return the merged raw result across pages",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"query": map[string]any{"type": "string", "description": "Free-text search query"},
				"limit": map[string]any{"type": "number", "description": "Results per page (10-100)"},
				"pages": map[string]any{"type": "number", "description": "Page budget (1-20)"},
			},
			Required: []string{"query"},
		},
	}

	s.AddTool(searchTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		args := request.GetArguments()
		res, err := svc.Search(ctx, xapi.SearchOptions{
			Query: xapi.BuildSearchQuery(q, "retweets,replies"),
			Limit: intArg(args, "limit", 10, 10, 100),
			Pages: intArg(args, "pages", 1, 1, 20),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if res.Err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("upstream status %d", res.Err.Status)), nil
		}
		return jsonResult(res.LastPage)
	})

	profileTool := mcp.Tool{
		Name:        "x.user_profile",
		Description: "Fetch a user profile by username, optionally with recent timeline pages",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"username":    map[string]any{"type": "string", "description": "Handle, with or without the leading @"},
				"with_tweets": map[string]any{"type": "boolean", "description": "Include timeline pages"},
				"limit":       map[string]any{"type": "number", "description": "Results per page (1-100)"},
				"pages":       map[string]any{"type": "number", "description": "Page budget (1-20)"},
			},
			Required: []string{"username"},
		},
	}

	s.AddTool(profileTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		username, err := request.RequireString("username")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		username = strings.TrimPrefix(strings.TrimSpace(username), "@")
		args := request.GetArguments()

		user, uerr, err := svc.LookupUser(ctx, username)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if uerr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("upstream status %d", uerr.Status)), nil
		}
		if user == nil {
			return mcp.NewToolResultError("user not found: " + username), nil
		}

		payload := map[string]any{"user": user}
		if withTweets, _ := args["with_tweets"].(bool); withTweets {
			res, err := svc.UserTimeline(ctx, user, xapi.TimelineOptions{
				Limit:   intArg(args, "limit", 5, 1, 100),
				Exclude: "retweets,replies",
				Pages:   intArg(args, "pages", 1, 1, 20),
			})
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if res.Err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("upstream status %d", res.Err.Status)), nil
			}
			if res.UsedFallback {
				payload["tweets_fallback_search"] = res.LastPage
			} else {
				payload["tweets"] = res.LastPage
			}
		}
		return jsonResult(payload)
	})

	port := getEnv("PORT", "8081")
	httpServer := server.NewStreamableHTTPServer(
		s,
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true),
	)
	log.Printf("x-proxy MCP server listening on :%s/mcp", port)
	if err := httpServer.Start(":" + port); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

// intArg reads a numeric tool argument, clamped to [min, max]. JSON
// numbers arrive as float64.
func intArg(args map[string]any, key string, def, min, max int) int {
	v := def
	if f, ok := args[key].(float64); ok {
		v = int(f)
	}
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return v
}

func getEnv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}
