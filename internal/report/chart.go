package report

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"autovalue/internal/domain"
)

// MarketChart renderiza la comparacion de mercado como pagina HTML con un grafico de barras.
func MarketChart(title string, cmp domain.MarketComparison) ([]byte, error) {
	x := make([]string, 0, len(cmp.Comparables)+1)
	prices := make([]opts.BarData, 0, len(cmp.Comparables)+1)

	x = append(x, "This vehicle")
	prices = append(prices, opts.BarData{
		Value:     cmp.Estimate,
		ItemStyle: &opts.ItemStyle{Color: "#d9534f"},
	})
	for _, l := range cmp.Comparables {
		x = append(x, fmt.Sprintf("%d · %s mi", l.Year, formatMiles(l.Mileage)))
		prices = append(prices, opts.BarData{Value: l.Price})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Market comparison", Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d comparables · median %s · %s", cmp.SampleSize, FormatUSD(int(cmp.Median)), cmp.Position),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Price (USD)"}),
	)
	bar.SetXAxis(x).
		AddSeries("price", prices,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

func formatMiles(m int) string {
	s := FormatUSD(m)
	return s[1:]
}
