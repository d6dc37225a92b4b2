// Package defaults holds the code-level content template for every editable
// section of the marketing site. Inline editing is restricted to keys
// registered here; a section with no store row renders exactly this tree.
package defaults

import (
	"sort"

	"github.com/amorris3925/get-creative/internal/pkg/jsontree"
)

// Entry pairs a section key with its page and default content tree.
type Entry struct {
	Page       string
	SectionKey string
	OrderIndex int
	Content    map[string]interface{}
}

var registry = []Entry{
	{
		Page:       "home",
		SectionKey: "home",
		OrderIndex: 0,
		Content: map[string]interface{}{
			"hero": map[string]interface{}{
				"title":           "Creative that makes thirst contagious",
				"subtitle":        "Brand campaigns for drinks people talk about",
				"yearsExperience": float64(10),
				"ctaLabel":        "Start a project",
				"ctaHref":         "/contact",
			},
			"clients": map[string]interface{}{
				"heading": "Brands we have poured for",
				"logos": []interface{}{
					"meridian-brewing", "cascara-cold-brew", "solstice-seltzer", "verve-kombucha",
				},
			},
			"stats": map[string]interface{}{
				"campaignsShipped": float64(240),
				"avgLiftPercent":   float64(32),
				"retainerClients":  float64(18),
			},
		},
	},
	{
		Page:       "pricing",
		SectionKey: "pricing",
		OrderIndex: 1,
		Content: map[string]interface{}{
			"heading":    "Plans that scale with your pour",
			"subheading": "Monthly retainers, no long-term lock-in",
			"tiers": []interface{}{
				map[string]interface{}{
					"name":  "Tap",
					"price": float64(2500),
					"features": []interface{}{
						"1 campaign concept / month", "Social kit", "Email support",
					},
				},
				map[string]interface{}{
					"name":  "Barrel",
					"price": float64(6500),
					"features": []interface{}{
						"3 campaign concepts / month", "Full media kit", "Dedicated strategist",
					},
				},
				map[string]interface{}{
					"name":  "Reserve",
					"price": float64(12000),
					"features": []interface{}{
						"Unlimited concepts", "On-site shoots", "Quarterly brand audit",
					},
				},
			},
			"roiNote": "Estimate your return with the calculator below.",
		},
	},
	{
		Page:       "services",
		SectionKey: "services",
		OrderIndex: 2,
		Content: map[string]interface{}{
			"heading": "What we do",
			"items": []interface{}{
				map[string]interface{}{
					"title": "Brand identity",
					"blurb": "Naming, labels, and liquid-first design systems.",
				},
				map[string]interface{}{
					"title": "Launch campaigns",
					"blurb": "From cold brew to cold seltzer, we own the launch window.",
				},
				map[string]interface{}{
					"title": "Retail activation",
					"blurb": "Shelf-talkers, tastings, and trade programs that move cases.",
				},
			},
		},
	},
	{
		Page:       "about",
		SectionKey: "about",
		OrderIndex: 3,
		Content: map[string]interface{}{
			"heading": "A studio built on beverages",
			"story":   "Get Creative started as two designers and a kegerator. A decade later we are the agency breweries, roasters, and seltzer startups call first.",
			"team": []interface{}{
				map[string]interface{}{"name": "Avery Morris", "role": "Creative Director"},
				map[string]interface{}{"name": "Dana Okafor", "role": "Head of Strategy"},
			},
		},
	},
	{
		Page:       "contact",
		SectionKey: "contact",
		OrderIndex: 4,
		Content: map[string]interface{}{
			"heading": "Let's talk",
			"email":   "hello@getcreative.agency",
			"phone":   "+1 (503) 555-0144",
			"address": "1214 SE Division St, Portland, OR",
		},
	},
	{
		Page:       "global",
		SectionKey: "nav",
		OrderIndex: 0,
		Content: map[string]interface{}{
			"links": []interface{}{
				map[string]interface{}{"label": "Services", "href": "/services"},
				map[string]interface{}{"label": "Pricing", "href": "/pricing"},
				map[string]interface{}{"label": "About", "href": "/about"},
				map[string]interface{}{"label": "Contact", "href": "/contact"},
			},
		},
	},
	{
		Page:       "global",
		SectionKey: "footer",
		OrderIndex: 99,
		Content: map[string]interface{}{
			"tagline":   "Thirst, engineered.",
			"copyright": "Get Creative Agency",
			"social": map[string]interface{}{
				"instagram": "https://instagram.com/getcreative.agency",
				"linkedin":  "https://linkedin.com/company/get-creative-agency",
			},
		},
	},
}

var byKey = func() map[string]Entry {
	m := make(map[string]Entry, len(registry))
	for _, e := range registry {
		m[e.SectionKey] = e
	}
	return m
}()

// Lookup returns the registry entry for a section key. Section keys are
// unique across pages, which is what lets the inline save endpoint address a
// section by key alone.
func Lookup(sectionKey string) (Entry, bool) {
	e, ok := byKey[sectionKey]
	return e, ok
}

// Content returns a mutable deep copy of a key's default tree.
func Content(sectionKey string) (map[string]interface{}, bool) {
	e, ok := byKey[sectionKey]
	if !ok {
		return nil, false
	}
	return jsontree.Clone(e.Content), true
}

// ForPage returns the entries belonging to a page, in order.
func ForPage(page string) []Entry {
	var out []Entry
	for _, e := range registry {
		if e.Page == page {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out
}

// All returns every registered entry.
func All() []Entry {
	out := make([]Entry, len(registry))
	copy(out, registry)
	return out
}
