package normalize

import (
	"strings"

	"github.com/mhradil/jiratrack/internal/jira"
)

// ConversionCache memoizes description conversions keyed by (issue key,
// updated timestamp), so an unchanged issue never pays for the markdown
// rendering twice across syncs. Prune bounds the cache to the keys of the
// most recent batch.
type ConversionCache struct {
	entries map[string]*string
}

func newConversionCache() *ConversionCache {
	return &ConversionCache{entries: make(map[string]*string)}
}

func cacheKey(issueKey, updated string) string {
	return issueKey + "|" + updated
}

// Convert returns the memoized markdown for the issue's description,
// rendering and caching it on a miss. Absent or empty documents convert to
// nil, and the nil result is cached too.
func (c *ConversionCache) Convert(issueKey, updated string, doc *jira.ADFNode) *string {
	key := cacheKey(issueKey, updated)
	if cached, ok := c.entries[key]; ok {
		return cached
	}

	var converted *string
	if markdown := strings.TrimSpace(ConvertADF(doc)); markdown != "" {
		converted = &markdown
	}

	c.entries[key] = converted
	return converted
}

// Prune drops every cached entry whose key is not in the active set.
func (c *ConversionCache) Prune(active map[string]bool) {
	for key := range c.entries {
		if !active[key] {
			delete(c.entries, key)
		}
	}
}

// Len reports the number of cached entries.
func (c *ConversionCache) Len() int {
	return len(c.entries)
}
