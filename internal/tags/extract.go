// Package tags derives hashtags from report text and aggregates them into
// trending counts.
package tags

import (
	"regexp"
	"sort"
	"strings"
)

// TrendingLimit is the number of tags returned by the trending endpoint.
const TrendingLimit = 10

var hashtagPattern = regexp.MustCompile(`#([A-Za-z0-9_]+)`)

// Extract returns the lowercase hashtags of text without the leading '#',
// deduplicated case-insensitively, in order of first appearance. The result
// is never nil.
func Extract(text string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Count groups tag sets by lowercase value.
func Count(sets ...[]string) map[string]int {
	counts := make(map[string]int)
	for _, set := range sets {
		for _, t := range set {
			counts[strings.ToLower(t)]++
		}
	}
	return counts
}

// Top returns the n most frequent tags, count descending, ties by tag ascending.
func Top(counts map[string]int, n int) []TagCount {
	out := make([]TagCount, 0, len(counts))
	for tag, c := range counts {
		if tag == "" || c <= 0 {
			continue
		}
		out = append(out, TagCount{Tag: tag, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
