package generation

import "strings"

var toneKeywords = []struct {
	label    string
	keywords []string
}{
	{"apologetic", []string{"sorry", "apolog", "my bad", "forgive"}},
	{"grateful", []string{"thank", "appreciate", "grateful"}},
	{"excited", []string{"!"}},
	{"affectionate", []string{"love", "miss you", "adore", "<3", "❤"}},
	{"playful", []string{"haha", "lol", "lmao", "😂", "😜", "jk"}},
	{"curious", []string{"?"}},
}

// DetectToneLabel classifies text with a keyword heuristic. It returns
// "neutral" when nothing matches.
func DetectToneLabel(text string) string {
	lower := strings.ToLower(text)
	for _, t := range toneKeywords {
		for _, kw := range t.keywords {
			if strings.Contains(lower, kw) {
				return t.label
			}
		}
	}
	return "neutral"
}
