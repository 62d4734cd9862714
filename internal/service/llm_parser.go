package service

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"autovalue/internal/domain"
)

var (
	fenceStartRe = regexp.MustCompile("(?is)^\\s*```(?:json)?\\s*")
	fenceEndRe   = regexp.MustCompile("(?is)\\s*```\\s*$")
	summaryRe    = regexp.MustCompile(`(?is)"summary"\s*:\s*"((?:\\.|[^"\\])*)"`)
)

// ParseExplanation intenta leer {"summary": ..., "highlights": [...]} de la respuesta del LLM.
// ok=false si no hay un summary utilizable.
func ParseExplanation(raw string) (domain.Explanation, bool) {
	cleaned := cleanLLMJSONResponse(raw)

	candidates := make([]string, 0, 3)
	if obj := extractFirstJSONObject(cleaned); obj != "" {
		candidates = append(candidates, obj)
	}
	if obj := extractFirstJSONObject(raw); obj != "" {
		candidates = append(candidates, obj)
	}
	candidates = append(candidates, cleaned)

	for _, c := range candidates {
		var tmp struct {
			Summary    string   `json:"summary"`
			Highlights []string `json:"highlights"`
		}
		if err := json.Unmarshal([]byte(c), &tmp); err != nil {
			continue
		}
		summary := strings.TrimSpace(tmp.Summary)
		if summary == "" {
			continue
		}
		highlights := make([]string, 0, len(tmp.Highlights))
		for _, h := range tmp.Highlights {
			if h = strings.TrimSpace(h); h != "" {
				highlights = append(highlights, h)
			}
		}
		return domain.Explanation{Summary: summary, Highlights: highlights}, true
	}

	// JSON roto pero con el campo summary reconocible.
	if m := summaryRe.FindStringSubmatch(cleaned); len(m) == 2 {
		s, err := strconv.Unquote(`"` + m[1] + `"`)
		if err != nil {
			s = m[1]
		}
		if s = strings.TrimSpace(s); s != "" {
			return domain.Explanation{Summary: s}, true
		}
	}
	return domain.Explanation{}, false
}

// cleanLLMJSONResponse quita fences ```json ... ``` y BOM, dejando el contenido usable.
func cleanLLMJSONResponse(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.TrimPrefix(s, "\uFEFF")
	s = fenceStartRe.ReplaceAllString(s, "")
	s = fenceEndRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func extractFirstJSONObject(input string) string {
	start := strings.IndexByte(input, '{')
	if start == -1 {
		return ""
	}

	inString := false
	escape := false
	depth := 0

	for i := start; i < len(input); i++ {
		ch := input[i]

		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
		}
	}

	return ""
}
