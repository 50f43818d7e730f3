package aiflow

import (
	"net/url"
	"strings"
)

var knownPlatforms = map[string]string{
	"amazon":  "Amazon",
	"ebay":    "eBay",
	"etsy":    "Etsy",
	"walmart": "Walmart",
	"target":  "Target",
	"bestbuy": "Best Buy",
	"ikea":    "IKEA",
}

var secondLevelSuffixes = map[string]bool{"co": true, "com": true, "net": true, "org": true}

// PlatformFromURL names the shop of a product link from its domain,
// e.g. https://www.amazon.co.uk/x gives Amazon.
func PlatformFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}

	labels := strings.Split(strings.ToLower(u.Hostname()), ".")
	if len(labels) < 2 {
		return ""
	}

	// Skip the public suffix, including two level ones like co.uk.
	i := len(labels) - 2
	if i > 0 && secondLevelSuffixes[labels[i]] {
		i--
	}

	name := labels[i]
	if known, ok := knownPlatforms[name]; ok {
		return known
	}

	if name == "" {
		return ""
	}

	return strings.ToUpper(name[:1]) + name[1:]
}
