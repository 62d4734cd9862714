package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"autovalue/internal/domain"
	"autovalue/internal/service"
)

var (
	vin         string
	makeName    string
	model       string
	year        int
	mileage     int
	trim        string
	condition   string
	accidents   int
	titleStatus string
	maintenance string
	zipCode     string
	photos      int
	basePrice   float64
)

var rootCmd = &cobra.Command{
	Use:   "valuate",
	Short: "Score a vehicle offline and print the valuation as JSON",
	Long: `Runs the valuation scoring function on the given vehicle and condition
answers. Nothing is persisted and no network calls are made.`,
	SilenceUsage: true,
	RunE:         runValuate,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&vin, "vin", "", "17-character VIN (optional)")
	f.StringVar(&makeName, "make", "", "vehicle make")
	f.StringVar(&model, "model", "", "vehicle model")
	f.IntVar(&year, "year", 0, "model year")
	f.IntVar(&mileage, "mileage", 0, "odometer reading in miles")
	f.StringVar(&trim, "trim", "", "trim level")
	f.StringVar(&condition, "condition", "", "excellent, good, fair or poor")
	f.IntVar(&accidents, "accidents", -1, "reported accidents (-1 = unknown)")
	f.StringVar(&titleStatus, "title", "", "clean, salvage, rebuilt or lemon")
	f.StringVar(&maintenance, "maintenance", "", "complete, partial or none")
	f.StringVar(&zipCode, "zip", "", "5-digit ZIP code")
	f.IntVar(&photos, "photos", 0, "number of photos provided")
	f.Float64Var(&basePrice, "base-price", 0, "override the base price (USD)")
	_ = rootCmd.MarkFlagRequired("make")
	_ = rootCmd.MarkFlagRequired("model")
	_ = rootCmd.MarkFlagRequired("year")
}

func runValuate(cmd *cobra.Command, args []string) error {
	input := service.CreateValuationInput{
		Vehicle: domain.VehicleDescriptor{
			VIN:     vin,
			Make:    makeName,
			Model:   model,
			Year:    year,
			Mileage: mileage,
			Trim:    trim,
		},
		Condition:   condition,
		TitleStatus: titleStatus,
		Maintenance: maintenance,
		ZipCode:     zipCode,
		PhotoCount:  photos,
	}
	if accidents >= 0 {
		input.AccidentCount = &accidents
	}

	svc := service.NewValuationService(nil, nil, service.ValuationScorer{BasePrice: basePrice})
	vehicle, result, err := svc.Estimate(input)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Vehicle domain.VehicleDescriptor `json:"vehicle"`
		Result  domain.ValuationResult   `json:"result"`
	}{vehicle, result})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
