package xapi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Row is one flattened export record keyed by column name.
type Row map[string]string

// TweetColumns is the ordered tweet export schema.
var TweetColumns = []string{
	"tweet_id", "created_at", "author_username", "author_name", "author_id",
	"text", "lang", "like_count", "retweet_count", "reply_count", "quote_count",
	"bookmark_count", "impression_count", "possibly_sensitive",
	"media_urls", "media_types", "referenced_types", "referenced_ids",
}

// UserColumns is the ordered user-profile export schema.
var UserColumns = []string{
	"id", "username", "name", "created_at", "verified", "protected",
	"location", "description", "followers_count", "following_count",
	"tweet_count", "listed_count", "like_count", "media_count",
}

// TweetRows flattens a page into one Row per record, in page order.
// Missing fields become empty values, multi-valued fields are
// comma-joined, and unknown upstream fields are ignored. The page does
// not need to be hydrated first: includes are re-resolved here so a raw
// page flattens identically.
func TweetRows(body any) []Row {
	page, ok := body.(map[string]any)
	if !ok {
		return nil
	}
	users := indexBy(asMaps(dig(page, "includes", "users")), "id")
	media := indexBy(asMaps(dig(page, "includes", "media")), "media_key")

	records := asMaps(page["data"])
	rows := make([]Row, 0, len(records))
	for _, t := range records {
		author, _ := t["author"].(map[string]any)
		if author == nil {
			author = users[str(t["author_id"])]
		}
		metrics, _ := t["public_metrics"].(map[string]any)
		refs := asMaps(t["referenced_tweets"])
		attached := lo.FilterMap(mediaKeys(t), func(k string, _ int) (map[string]any, bool) {
			m, ok := media[k]
			return m, ok
		})

		rows = append(rows, Row{
			"tweet_id":           scalar(t["id"]),
			"created_at":         scalar(t["created_at"]),
			"author_username":    scalar(author["username"]),
			"author_name":        scalar(author["name"]),
			"author_id":          scalar(t["author_id"]),
			"text":               flattenText(str(t["text"])),
			"lang":               scalar(t["lang"]),
			"like_count":         scalar(metrics["like_count"]),
			"retweet_count":      scalar(metrics["retweet_count"]),
			"reply_count":        scalar(metrics["reply_count"]),
			"quote_count":        scalar(metrics["quote_count"]),
			"bookmark_count":     scalar(metrics["bookmark_count"]),
			"impression_count":   scalar(metrics["impression_count"]),
			"possibly_sensitive": scalar(t["possibly_sensitive"]),
			"media_urls":         joinField(attached, "url"),
			"media_types":        joinField(attached, "type"),
			"referenced_types":   joinField(refs, "type"),
			"referenced_ids":     joinField(refs, "id"),
		})
	}
	return rows
}

// UserRow flattens a single profile into the user schema. Free-text
// fields default to the empty string, never a null marker.
func UserRow(user map[string]any) ([]string, []Row) {
	metrics, _ := user["public_metrics"].(map[string]any)
	row := Row{
		"id":              scalar(user["id"]),
		"username":        scalar(user["username"]),
		"name":            scalar(user["name"]),
		"created_at":      scalar(user["created_at"]),
		"verified":        scalar(user["verified"]),
		"protected":       scalar(user["protected"]),
		"location":        str(user["location"]),
		"description":     flattenText(str(user["description"])),
		"followers_count": scalar(metrics["followers_count"]),
		"following_count": scalar(metrics["following_count"]),
		"tweet_count":     scalar(metrics["tweet_count"]),
		"listed_count":    scalar(metrics["listed_count"]),
		"like_count":      scalar(metrics["like_count"]),
		"media_count":     scalar(metrics["media_count"]),
	}
	return UserColumns, []Row{row}
}

// joinField comma-joins one field across items, skipping empty values.
func joinField(items []map[string]any, field string) string {
	return strings.Join(lo.FilterMap(items, func(m map[string]any, _ int) (string, bool) {
		v := scalar(m[field])
		return v, v != ""
	}), ",")
}

// scalar renders a decoded JSON value for tabular output. encoding/json
// decodes every number as float64; whole numbers keep their integer
// form.
func scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// flattenText keeps one record per row in the tabular output.
func flattenText(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
