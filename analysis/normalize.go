package analysis

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	maxTags       = 10
	minTags       = 5
	maxColors     = 3
	minColors     = 3
	maxPaddedTags = 5
)

var (
	hexColor      = regexp.MustCompile(`^#?([0-9A-F]{6})$`)
	defaultColors = []string{"#000000", "#FFFFFF", "#808080"}
	tagKeys       = []string{"name", "tag", "label"}
)

// Normalize coerces an arbitrary provider payload into a Result. It accepts
// decoded JSON objects, Result values and anything else; unknown shapes yield
// an empty (but padded) result instead of an error.
//
// Tags are capped at 10. When fewer than 5 survive, words of the description
// are appended until 5 are reached, if the description has that many. Colors
// are upper-cased #RRGGBB values, padded with black, white and grey up to 3.
// Normalize(Normalize(x)) equals Normalize(x) apart from Raw.
func Normalize(input any) Result {
	var tagsIn, colorsIn, descIn any

	switch v := input.(type) {
	case map[string]any:
		tagsIn, descIn, colorsIn = v["tags"], v["description"], v["colors"]
	case Result:
		tagsIn, descIn, colorsIn = v.Tags, v.Description, v.Colors
	case *Result:
		if v != nil {
			tagsIn, descIn, colorsIn = v.Tags, v.Description, v.Colors
		}
	}

	tags := truncate(coerceTags(tagsIn), maxTags)
	description := ""
	if s, ok := descIn.(string); ok {
		description = strings.TrimSpace(s)
	}
	colors := truncate(coerceColors(colorsIn), maxColors)

	if len(tags) < minTags {
		tags = truncate(uniqueMerge(tags, descriptionWords(description)), maxPaddedTags)
	}
	if len(colors) < minColors {
		colors = truncate(uniqueMerge(colors, defaultColors), maxColors)
	}

	return Result{
		Tags:        tags,
		Description: description,
		Colors:      colors,
		Raw:         input,
	}
}

func coerceTags(v any) []string {
	out := []string{}
	switch items := v.(type) {
	case []string:
		out = append(out, items...)
	case []any:
		for _, item := range items {
			if tag, ok := tagOf(item); ok {
				out = append(out, tag)
			}
		}
	}
	return out
}

// tagOf accepts a plain string or an object naming the tag under one of the
// usual keys.
func tagOf(item any) (string, bool) {
	switch t := item.(type) {
	case string:
		return t, true
	case map[string]any:
		for _, key := range tagKeys {
			if s, ok := t[key].(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

func coerceColors(v any) []string {
	var raw []string
	switch items := v.(type) {
	case []string:
		raw = items
	case []any:
		for _, item := range items {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}

	out := []string{}
	for _, c := range raw {
		if color, ok := sanitizeColor(c); ok {
			out = append(out, color)
		}
	}
	return out
}

func sanitizeColor(c string) (string, bool) {
	m := hexColor.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(c)))
	if m == nil {
		return "", false
	}
	return "#" + m[1], true
}

// descriptionWords lower-cases the description, drops every rune other than
// a-z, 0-9, '#' and whitespace, then splits on whitespace.
func descriptionWords(description string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '#', unicode.IsSpace(r):
			return r
		}
		return -1
	}, strings.ToLower(description))
	return strings.Fields(cleaned)
}

func uniqueMerge(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

func truncate(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
