package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"autovalue/internal/domain"
	"autovalue/internal/llm"
	"autovalue/internal/report"
)

const (
	ExplanationSourceLLM      = "llm"
	ExplanationSourceTemplate = "template"
)

const explanationSystemPrompt = `You explain used-vehicle valuations to private sellers.
Use only the numbers you are given. Do not invent market data.
Reply with a single JSON object: {"summary": "<2-4 sentences>", "highlights": ["<short bullet>", ...]}.`

// ExplanationService redacta la explicacion de una valuacion. Sin LLM, o si el
// LLM falla, arma un texto deterministico a partir de los ajustes.
type ExplanationService struct {
	logger *zap.Logger
	client llm.LLMClient
}

func NewExplanationService(logger *zap.Logger, client llm.LLMClient) *ExplanationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExplanationService{logger: logger, client: client}
}

func (s *ExplanationService) Explain(ctx context.Context, v domain.Valuation) domain.Explanation {
	if s.client != nil {
		raw, err := s.client.Generate(ctx, explanationSystemPrompt, []llm.Message{
			{Role: llm.RoleUser, Content: valuationPrompt(v)},
		})
		if err == nil {
			if exp, ok := ParseExplanation(raw); ok {
				exp.Source = ExplanationSourceLLM
				return exp
			}
			s.logger.Warn("llm explanation unparseable, using template", zap.String("valuation_id", v.ID))
		} else {
			s.logger.Warn("llm explanation failed, using template", zap.String("valuation_id", v.ID), zap.Error(err))
		}
	}
	return TemplateExplanation(v)
}

// TemplateExplanation describe la estimacion y los ajustes de mayor impacto.
func TemplateExplanation(v domain.Valuation) domain.Explanation {
	res := v.Result
	var b strings.Builder
	fmt.Fprintf(&b, "We estimate the %s at **%s**, within a range of %s to %s.",
		report.VehicleTitle(v.Vehicle),
		report.FormatUSD(res.Estimate),
		report.FormatUSD(res.PriceRange.Low),
		report.FormatUSD(res.PriceRange.High),
	)
	fmt.Fprintf(&b, " The starting point is a base value of %s.", report.FormatUSD(res.BaseValue))

	if top, ok := largestAdjustment(res.Adjustments); ok {
		direction := "lowered"
		if top.Impact > 0 {
			direction = "raised"
		}
		fmt.Fprintf(&b, " The biggest factor is %s, which %s the value by %s.",
			top.Factor, direction, report.FormatUSD(absInt(top.Impact)))
	} else {
		b.WriteString(" No adjustments were applied.")
	}
	fmt.Fprintf(&b, " Confidence is %d%%; answering more condition questions raises it.", res.Confidence)

	highlights := make([]string, 0, len(res.Adjustments))
	for _, a := range res.Adjustments {
		sign := ""
		if a.Impact > 0 {
			sign = "+"
		}
		highlights = append(highlights, fmt.Sprintf("%s (%s%s)", a.Description, sign, report.FormatUSD(a.Impact)))
	}
	return domain.Explanation{Summary: b.String(), Highlights: highlights, Source: ExplanationSourceTemplate}
}

func valuationPrompt(v domain.Valuation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Vehicle: %s\n", report.VehicleTitle(v.Vehicle))
	if v.Vehicle.Mileage > 0 {
		fmt.Fprintf(&b, "Mileage: %d\n", v.Vehicle.Mileage)
	}
	fmt.Fprintf(&b, "Base value: %d USD\n", v.Result.BaseValue)
	b.WriteString("Adjustments (applied in order):\n")
	for _, a := range v.Result.Adjustments {
		fmt.Fprintf(&b, "- %s: x%.2f, impact %d USD (%s)\n", a.Factor, a.Multiplier, a.Impact, a.Description)
	}
	fmt.Fprintf(&b, "Estimate: %d USD (range %d-%d)\nConfidence: %d%%\n",
		v.Result.Estimate, v.Result.PriceRange.Low, v.Result.PriceRange.High, v.Result.Confidence)
	return b.String()
}

func largestAdjustment(adjs []domain.Adjustment) (domain.Adjustment, bool) {
	var (
		best  domain.Adjustment
		found bool
	)
	for _, a := range adjs {
		if !found || math.Abs(float64(a.Impact)) > math.Abs(float64(best.Impact)) {
			best, found = a, true
		}
	}
	return best, found
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
