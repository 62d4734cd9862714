package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"autovalue/internal/domain"
	"autovalue/internal/llm"
)

func sampleValuation() domain.Valuation {
	vehicle := domain.VehicleDescriptor{Make: "Honda", Model: "Civic", Year: 2018, Mileage: 50000}
	profile := &domain.ConditionProfile{AccidentCount: intPtr(1)}
	return domain.Valuation{
		ID:      "8a1f8f3e-58f8-4b5e-a8d8-4c7c4e1d7a10",
		UserID:  "owner",
		Vehicle: vehicle,
		Profile: profile,
		Result:  ValuationScorer{}.Score(vehicle, profile, scoringAsOf),
	}
}

func TestExplanationService_UsesLLM(t *testing.T) {
	client := &llm.MockClient{Response: "```json\n{\"summary\": \"Age drives most of the drop.\", \"highlights\": [\"age\", \" \"]}\n```"}
	svc := NewExplanationService(nil, client)

	exp := svc.Explain(context.Background(), sampleValuation())
	if exp.Source != ExplanationSourceLLM {
		t.Fatalf("expected llm source, got %s", exp.Source)
	}
	if exp.Summary != "Age drives most of the drop." || len(exp.Highlights) != 1 {
		t.Fatalf("unexpected explanation %+v", exp)
	}
	if !strings.Contains(client.LastMessages[0].Content, "Estimate:") {
		t.Fatalf("expected prompt with valuation numbers, got %q", client.LastMessages[0].Content)
	}
}

func TestExplanationService_FallsBackToTemplate(t *testing.T) {
	cases := map[string]llm.LLMClient{
		"no client":   nil,
		"llm error":   &llm.MockClient{Err: errors.New("timeout")},
		"unparseable": &llm.MockClient{Response: "I cannot help with that"},
	}
	for name, client := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewExplanationService(nil, client)
			exp := svc.Explain(context.Background(), sampleValuation())
			if exp.Source != ExplanationSourceTemplate {
				t.Fatalf("expected template source, got %s", exp.Source)
			}
		})
	}
}

func TestTemplateExplanation(t *testing.T) {
	v := sampleValuation()
	exp := TemplateExplanation(v)

	if !strings.Contains(exp.Summary, "2018 Honda Civic") {
		t.Fatalf("expected vehicle title in summary, got %q", exp.Summary)
	}
	if !strings.Contains(exp.Summary, "biggest factor is age") {
		t.Fatalf("expected age as largest factor, got %q", exp.Summary)
	}
	if len(exp.Highlights) != len(v.Result.Adjustments) {
		t.Fatalf("expected one highlight per adjustment, got %d", len(exp.Highlights))
	}

	empty := TemplateExplanation(domain.Valuation{Vehicle: domain.VehicleDescriptor{Make: "Kia", Model: "Rio"}})
	if !strings.Contains(empty.Summary, "No adjustments were applied") {
		t.Fatalf("expected no-adjustment wording, got %q", empty.Summary)
	}
}
