package watcher

import (
	"strconv"
	"strings"
)

// SpeechTextOptions toggles the per-field transforms applied while
// rendering speech text.
type SpeechTextOptions struct {
	MHzEnabled           bool
	PortableEnabled      bool
	NumberEnglishEnabled bool
}

const (
	unitMegahertz = "メガヘルツ"
	unitKilohertz = "キロヘルツ"
	wordPortable  = "ポータブル"
)

var digitWords = [10]string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}

// RenderSpeechText substitutes the bracketed placeholders in template with
// the spot's fields. Unknown bracketed tokens pass through as literal
// text. Runs of whitespace in the result collapse to a single space.
func RenderSpeechText(s Spot, template string, opts SpeechTextOptions) string {
	r := strings.NewReplacer(
		"[reference]", s.Reference,
		"[frequency]", formatFrequency(s.Frequency, opts.MHzEnabled),
		"[mode]", s.Mode,
		"[activator]", formatActivator(s.Activator, opts),
		"[comments]", s.Comments,
		"[name]", s.Name,
		"[locationDesc]", s.LocationDesc,
	)
	out := r.Replace(template)
	return strings.Join(strings.Fields(out), " ")
}

// formatFrequency renders a kilohertz feed value for speech. With mhz
// enabled a numeric value is divided by 1000 and read with three decimals;
// otherwise the raw value is read unchanged with the kilohertz unit.
func formatFrequency(raw string, mhzEnabled bool) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	if mhzEnabled {
		if khz, err := strconv.ParseFloat(v, 64); err == nil {
			return strconv.FormatFloat(khz/1000, 'f', 3, 64) + unitMegahertz
		}
	}
	return v + unitKilohertz
}

// formatActivator applies the portable substitution first, then the digit
// substitution on the result. Spacing is left to the final whitespace
// collapse in RenderSpeechText.
func formatActivator(callsign string, opts SpeechTextOptions) string {
	out := callsign
	if opts.PortableEnabled {
		out = strings.ReplaceAll(out, "/", " "+wordPortable+" ")
	}
	if opts.NumberEnglishEnabled {
		var b strings.Builder
		b.Grow(len(out) * 2)
		for _, r := range out {
			if r >= '0' && r <= '9' {
				b.WriteString(" ")
				b.WriteString(digitWords[r-'0'])
				b.WriteString(" ")
				continue
			}
			b.WriteRune(r)
		}
		out = b.String()
	}
	return out
}
