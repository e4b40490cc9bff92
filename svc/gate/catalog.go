package gate

import (
	"strings"

	"github.com/dmitrymomot/replykit/pkg/subscription"
)

// Tone is an entry of the tone catalog.
type Tone struct {
	Key     string            `json:"key"`
	Label   string            `json:"label"`
	MinTier subscription.Tier `json:"minTier"`
}

// Catalog is an ordered tone list. Order is tier first, then display order.
type Catalog []Tone

// DefaultCatalog is the canonical tone list served at /api/tones.
var DefaultCatalog = Catalog{
	{"friendly", "Friendly", subscription.TierFree},
	{"playful", "Playful", subscription.TierFree},
	{"casual", "Casual", subscription.TierFree},
	{"witty", "Witty", subscription.TierFree},
	{"sincere", "Sincere", subscription.TierFree},

	{"flirty", "Flirty", subscription.TierBasic},
	{"confident", "Confident", subscription.TierBasic},
	{"romantic", "Romantic", subscription.TierBasic},
	{"mysterious", "Mysterious", subscription.TierBasic},
	{"sarcastic", "Sarcastic", subscription.TierBasic},

	{"bold", "Bold", subscription.TierPro},
	{"poetic", "Poetic", subscription.TierPro},
	{"intellectual", "Intellectual", subscription.TierPro},
	{"spontaneous", "Spontaneous", subscription.TierPro},
	{"charming", "Charming", subscription.TierPro},
}

// Lookup finds a tone by key or label, case-insensitively.
func (c Catalog) Lookup(name string) (Tone, bool) {
	name = strings.TrimSpace(name)
	for _, t := range c {
		if strings.EqualFold(t.Key, name) || strings.EqualFold(t.Label, name) {
			return t, true
		}
	}
	return Tone{}, false
}

// Available returns the tones a tier may use.
func (c Catalog) Available(tier subscription.Tier) Catalog {
	out := make(Catalog, 0, len(c))
	for _, t := range c {
		if tier.AtLeast(t.MinTier) {
			out = append(out, t)
		}
	}
	return out
}

// Tool is a premium capability outside reply generation.
type Tool string

const (
	ToolStarters Tool = "conversation_starters"
	ToolCoach    Tool = "message_coach"
	ToolDecoder  Tool = "message_decoder"
)

// MinTier returns the lowest tier allowed to use the tool. Unknown tools
// require pro.
func (t Tool) MinTier() subscription.Tier {
	switch t {
	case ToolStarters:
		return subscription.TierBasic
	default:
		return subscription.TierPro
	}
}
