package report

import (
	"fmt"
	"io"
	"time"

	"codeberg.org/go-pdf/fpdf"

	"autovalue/internal/domain"
)

// PDFInput reune lo necesario para el informe descargable.
type PDFInput struct {
	Valuation   domain.Valuation
	Explanation domain.Explanation
	Market      *domain.MarketComparison
	GeneratedAt time.Time
}

// RenderPDF escribe el informe de la valuacion en formato A4.
func RenderPDF(w io.Writer, in PDFInput) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Vehicle valuation report", true)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	v := in.Valuation
	res := v.Result

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(VehicleTitle(v.Vehicle)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(110, 110, 110)
	meta := fmt.Sprintf("Valuation %s · generated %s", v.ID, in.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"))
	if v.Vehicle.VIN != "" {
		meta = "VIN " + v.Vehicle.VIN + " · " + meta
	}
	pdf.CellFormat(0, 5, tr(meta), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 26)
	pdf.CellFormat(0, 14, FormatUSD(res.Estimate), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Range %s - %s", FormatUSD(res.PriceRange.Low), FormatUSD(res.PriceRange.High)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Confidence %d%%  ·  Base value %s", res.Confidence, FormatUSD(res.BaseValue))), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Adjustments", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(35, 7, "Factor", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 7, "Multiplier", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 7, "Impact", "1", 0, "R", true, 0, "")
	pdf.CellFormat(0, 7, "Description", "1", 1, "L", true, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if len(res.Adjustments) == 0 {
		pdf.CellFormat(0, 7, "No adjustments applied", "1", 1, "L", false, 0, "")
	}
	for _, a := range res.Adjustments {
		pdf.CellFormat(35, 7, tr(a.Factor), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, formatMultiplier(a.Multiplier), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, formatImpact(a.Impact), "1", 0, "R", false, 0, "")
		pdf.CellFormat(0, 7, tr(a.Description), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	if in.Explanation.Summary != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Explanation", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(in.Explanation.Summary), "", "L", false)
		for _, h := range in.Explanation.Highlights {
			pdf.MultiCell(0, 5, tr("- "+h), "", "L", false)
		}
		pdf.Ln(4)
	}

	if m := in.Market; m != nil && m.SampleSize > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Market comparison", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, fmt.Sprintf(
			"%d comparable listings. Median %s, mean %s, interquartile range %s - %s. This estimate sits at the %.0fth percentile (%s).",
			m.SampleSize,
			FormatUSD(int(m.Median)),
			FormatUSD(int(m.MeanPrice)),
			FormatUSD(int(m.LowerQuartile)),
			FormatUSD(int(m.UpperQuartile)),
			m.PercentileRank,
			m.Position,
		), "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	return pdf.Output(w)
}
