package xapi

import "github.com/samber/lo"

// Helpers for walking decoded upstream JSON. Payloads stay dynamic
// because raw-mode responses must carry every field the upstream sent,
// documented or not.

func asMaps(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	return lo.FilterMap(items, func(it any, _ int) (map[string]any, bool) {
		m, ok := it.(map[string]any)
		return m, ok
	})
}

func indexBy(items []map[string]any, field string) map[string]map[string]any {
	return lo.KeyBy(items, func(m map[string]any) string {
		return str(m[field])
	})
}

// dig walks nested objects, returning nil as soon as a level is missing
// or not an object.
func dig(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = mm[k]
	}
	return cur
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func mediaKeys(record map[string]any) []string {
	keys, _ := dig(record, "attachments", "media_keys").([]any)
	return lo.FilterMap(keys, func(k any, _ int) (string, bool) {
		s, ok := k.(string)
		return s, ok
	})
}
