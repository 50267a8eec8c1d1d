package xapi

import "github.com/samber/lo"

// Hydrate attaches the referenced user and media objects from the page
// includes to each record in data: the record's author_id is resolved
// against includes.users and its attachment media keys against
// includes.media (keys with no match are dropped). The transform is
// idempotent and anything that is not an object passes through
// unchanged.
func Hydrate(body any) any {
	page, ok := body.(map[string]any)
	if !ok {
		return body
	}
	users := indexBy(asMaps(dig(page, "includes", "users")), "id")
	media := indexBy(asMaps(dig(page, "includes", "media")), "media_key")

	for _, record := range asMaps(page["data"]) {
		if author, ok := users[str(record["author_id"])]; ok {
			record["author"] = author
		}
		keys := mediaKeys(record)
		if len(keys) == 0 {
			continue
		}
		record["media"] = lo.FilterMap(keys, func(k string, _ int) (map[string]any, bool) {
			m, ok := media[k]
			return m, ok
		})
	}
	return page
}
