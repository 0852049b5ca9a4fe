package tabextract

import (
	"strings"
)

// Render substitutes every {key} placeholder in tpl whose key is a column of
// row with that column's string form. Placeholders that name no column are
// left as they are.
//
// Substitution happens in a single left-to-right scan of tpl, so text that was
// inserted for one placeholder is never searched for further placeholders.
func Render(tpl string, row Row) string {
	if row.Len() == 0 || !strings.Contains(tpl, "{") {
		return tpl
	}
	pairs := make([]string, 0, row.Len()*2)
	for _, k := range row.keys {
		pairs = append(pairs, "{"+k+"}", row.String(k))
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

// Placeholders lists the distinct {name} tokens in tpl in order of first
// appearance. Names are returned without braces.
func Placeholders(tpl string) []string {
	var (
		out  []string
		seen = make(map[string]struct{})
	)
	for {
		start := strings.IndexByte(tpl, '{')
		if start < 0 {
			return out
		}
		tpl = tpl[start+1:]
		end := strings.IndexAny(tpl, "{}")
		if end < 0 {
			return out
		}
		if tpl[end] == '{' {
			tpl = tpl[end:]
			continue
		}
		name := tpl[:end]
		tpl = tpl[end+1:]
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
}

// Missing reports the placeholders of tpl that have no column in columns.
func Missing(tpl string, columns []string) []string {
	have := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		have[c] = struct{}{}
	}
	var out []string
	for _, p := range Placeholders(tpl) {
		if _, ok := have[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}
