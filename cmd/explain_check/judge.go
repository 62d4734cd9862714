package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"autovalue/internal/domain"
	"autovalue/internal/llm"
	"autovalue/internal/report"
)

// judgeResponse representa la respuesta estructurada del juez evaluador en formato JSON.
type judgeResponse struct {
	Reasoning         string `json:"reasoning"`
	FaithfulnessScore int    `json:"faithfulness_score"`
	ClarityScore      int    `json:"clarity_score"`
}

const judgeSystemPrompt = `You review plain-language explanations of used-car price estimates.
Score each explanation from 1 to 5 on two dimensions:
1. faithfulness: every number and factor it mentions matches the valuation data (1 = invents figures, 5 = fully consistent).
2. clarity: a non-expert seller understands why the price is what it is (1 = jargon or lists only, 5 = clear and concise).

Reply with JSON only:
{"reasoning": "...", "faithfulness_score": <int 1-5>, "clarity_score": <int 1-5>}`

func evaluateExplanation(ctx context.Context, judge llm.LLMClient, v domain.Valuation, exp domain.Explanation) (judgeResponse, error) {
	invented := inventedAmounts(v, exp.Summary)
	topMentioned := mentionsTopFactor(v, exp.Summary)

	prompt := buildJudgePrompt(v, exp, invented, topMentioned)
	raw, err := judge.Generate(ctx, judgeSystemPrompt, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		return judgeResponse{}, err
	}

	jsonStr := extractFirstJSONObject(raw)
	if jsonStr == "" {
		return judgeResponse{}, fmt.Errorf("judge returned non-json: %q", raw)
	}
	var jr judgeResponse
	if err := json.Unmarshal([]byte(jsonStr), &jr); err != nil {
		return judgeResponse{}, fmt.Errorf("parse judge json: %w (raw=%q)", err, jsonStr)
	}

	jr.FaithfulnessScore = clamp1to5(jr.FaithfulnessScore)
	jr.ClarityScore = clamp1to5(jr.ClarityScore)

	// Un monto inventado limita la fidelidad sin importar lo que opine el juez.
	if len(invented) > 0 && jr.FaithfulnessScore > 2 {
		jr.FaithfulnessScore = 2
	}
	return jr, nil
}

func buildJudgePrompt(v domain.Valuation, exp domain.Explanation, invented []int, topMentioned bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Vehicle: %s\n", report.VehicleTitle(v.Vehicle))
	fmt.Fprintf(&b, "Base value: %s\n", report.FormatUSD(v.Result.BaseValue))
	for _, a := range v.Result.Adjustments {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", a.Factor, report.FormatUSD(a.Impact), a.Description)
	}
	fmt.Fprintf(&b, "Estimate: %s (range %s to %s), confidence %d%%\n\n",
		report.FormatUSD(v.Result.Estimate),
		report.FormatUSD(v.Result.PriceRange.Low),
		report.FormatUSD(v.Result.PriceRange.High),
		v.Result.Confidence,
	)
	fmt.Fprintf(&b, "Explanation:\n%s\n\n", exp.Summary)
	fmt.Fprintf(&b, "Heuristics: invented_amounts=%d, mentions_top_factor=%t\n", len(invented), topMentioned)
	return b.String()
}

func clamp1to5(v int) int {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}

var usdPattern = regexp.MustCompile(`\$\s?([0-9][0-9,]*)`)

// inventedAmounts devuelve los montos en dolares del texto que no corresponden
// a ningun valor de la valuacion (tolerancia del 2%).
func inventedAmounts(v domain.Valuation, text string) []int {
	known := []int{v.Result.BaseValue, v.Result.Estimate, v.Result.PriceRange.Low, v.Result.PriceRange.High}
	for _, a := range v.Result.Adjustments {
		known = append(known, a.Impact)
	}

	var invented []int
	for _, m := range usdPattern.FindAllStringSubmatch(text, -1) {
		amount, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			continue
		}
		if !matchesAny(amount, known) {
			invented = append(invented, amount)
		}
	}
	return invented
}

func matchesAny(amount int, known []int) bool {
	for _, k := range known {
		k = int(math.Abs(float64(k)))
		if k == 0 {
			continue
		}
		if math.Abs(float64(amount-k)) <= 0.02*float64(k) {
			return true
		}
	}
	return false
}

// mentionsTopFactor indica si el texto nombra el ajuste de mayor impacto.
func mentionsTopFactor(v domain.Valuation, text string) bool {
	var (
		top   domain.Adjustment
		found bool
	)
	for _, a := range v.Result.Adjustments {
		if !found || math.Abs(float64(a.Impact)) > math.Abs(float64(top.Impact)) {
			top, found = a, true
		}
	}
	if !found {
		return true
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(top.Factor))
}

func extractFirstJSONObject(input string) string {
	start := strings.IndexByte(input, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(input); i++ {
		ch := input[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
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
