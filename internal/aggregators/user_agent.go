package aggregators

import (
	"github.com/mileusna/useragent"
)

const maxCachedUserAgents = 10000

// userAgentNormalizer maps raw user agent strings to their family name.
// Parsed names are cached since access logs repeat a small set of agents.
type userAgentNormalizer struct {
	cache map[string]string
}

func newUserAgentNormalizer() *userAgentNormalizer {
	return &userAgentNormalizer{cache: make(map[string]string)}
}

// Normalize parses ua to extract its family, or returns ua unchanged if parsing fails.
func (n *userAgentNormalizer) Normalize(ua string) string {
	if name, ok := n.cache[ua]; ok {
		return name
	}

	name := ua
	if parsed := useragent.Parse(ua); parsed.Name != "" {
		name = parsed.Name
	}
	if len(n.cache) < maxCachedUserAgents {
		n.cache[ua] = name
	}
	return name
}
