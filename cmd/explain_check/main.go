package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"autovalue/internal/config"
	"autovalue/internal/domain"
	"autovalue/internal/llm"
	"autovalue/internal/service"
)

const (
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

type Scenario struct {
	Name  string
	Input service.CreateValuationInput
}

func intPtr(v int) *int { return &v }

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewNop()
	llmClient := llm.New(cfg.LLMProvider, cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, logger)
	if llmClient == nil {
		log.Fatal("LLM_API_KEY is required to run the explanation check")
	}

	valuations := service.NewValuationService(logger, newMemoryValuationRepo(), service.ValuationScorer{BasePrice: cfg.ValuationBasePrice})
	explanations := service.NewExplanationService(logger, llmClient)

	scenarios := []Scenario{
		{
			Name: "Sedan reciente sin historial",
			Input: service.CreateValuationInput{
				Vehicle: domain.VehicleDescriptor{Make: "Honda", Model: "Civic", Year: 2021, Mileage: 30000},
			},
		},
		{
			Name: "Pickup con accidentes y titulo reconstruido",
			Input: service.CreateValuationInput{
				Vehicle:       domain.VehicleDescriptor{Make: "Ford", Model: "F-150", Year: 2014, Mileage: 160000},
				Condition:     "fair",
				AccidentCount: intPtr(2),
				TitleStatus:   "rebuilt",
				Maintenance:   "partial",
			},
		},
		{
			Name: "SUV impecable con mantenimiento completo",
			Input: service.CreateValuationInput{
				Vehicle:       domain.VehicleDescriptor{Make: "Toyota", Model: "RAV4", Year: 2019, Mileage: 25000},
				Condition:     "excellent",
				AccidentCount: intPtr(0),
				TitleStatus:   "clean",
				Maintenance:   "complete",
			},
		},
	}

	var totalFaith, totalClarity, failures int
	for _, sc := range scenarios {
		v, err := valuations.Create(ctx, "explain-check", sc.Input)
		if err != nil {
			log.Fatalf("create valuation %q: %v", sc.Name, err)
		}
		exp := explanations.Explain(ctx, v)
		fmt.Printf("%s[%s]%s estimate=%d confidence=%d source=%s\n", colorCyan, sc.Name, colorReset, v.Result.Estimate, v.Result.Confidence, exp.Source)
		fmt.Printf("%s%s%s\n", colorGreen, exp.Summary, colorReset)

		if invented := inventedAmounts(v, exp.Summary); len(invented) > 0 {
			fmt.Printf("%sinvented amounts: %v%s\n", colorRed, invented, colorReset)
			failures++
		}

		jr, err := evaluateExplanation(ctx, llmClient, v, exp)
		if err != nil {
			log.Fatalf("judge failed: %v", err)
		}
		fmt.Printf("Judge: %q\n", jr.Reasoning)
		fmt.Printf("Scores: Fidelidad %d/5 | Claridad %d/5\n\n", jr.FaithfulnessScore, jr.ClarityScore)

		totalFaith += jr.FaithfulnessScore
		totalClarity += jr.ClarityScore
	}

	n := len(scenarios)
	fmt.Println("==== Promedios ====")
	fmt.Printf("Fidelidad: %.2f/5 | Claridad: %.2f/5 | Montos inventados: %d\n",
		float64(totalFaith)/float64(n), float64(totalClarity)/float64(n), failures)
}
