package service

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"autovalue/internal/domain"
	"autovalue/internal/email"
	"autovalue/internal/report"
)

// ReportService arma las salidas de una valuacion: explicacion, mercado, PDF y correo.
type ReportService struct {
	logger       *zap.Logger
	valuations   *ValuationService
	explanations *ExplanationService
	market       *MarketService
	sender       email.Sender
	baseURL      string
	now          func() time.Time
}

func NewReportService(
	logger *zap.Logger,
	valuations *ValuationService,
	explanations *ExplanationService,
	market *MarketService,
	sender email.Sender,
	baseURL string,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		logger:       logger,
		valuations:   valuations,
		explanations: explanations,
		market:       market,
		sender:       sender,
		baseURL:      strings.TrimRight(baseURL, "/"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *ReportService) Explain(ctx context.Context, userID, role, valuationID string) (domain.Explanation, error) {
	v, err := s.valuations.GetOwned(ctx, userID, role, valuationID)
	if err != nil {
		return domain.Explanation{}, err
	}
	return s.explanations.Explain(ctx, v), nil
}

func (s *ReportService) Market(ctx context.Context, userID, role, valuationID string) (domain.MarketComparison, error) {
	v, err := s.valuations.GetOwned(ctx, userID, role, valuationID)
	if err != nil {
		return domain.MarketComparison{}, err
	}
	return s.market.Compare(ctx, v)
}

func (s *ReportService) MarketChart(ctx context.Context, userID, role, valuationID string) ([]byte, error) {
	v, err := s.valuations.GetOwned(ctx, userID, role, valuationID)
	if err != nil {
		return nil, err
	}
	cmp, err := s.market.Compare(ctx, v)
	if err != nil {
		return nil, err
	}
	return report.MarketChart(report.VehicleTitle(v.Vehicle), cmp)
}

// WritePDF escribe el informe; la seccion de mercado solo aparece en valuaciones premium.
func (s *ReportService) WritePDF(ctx context.Context, userID, role, valuationID string, w io.Writer) error {
	v, err := s.valuations.GetOwned(ctx, userID, role, valuationID)
	if err != nil {
		return err
	}
	in := report.PDFInput{
		Valuation:   v,
		Explanation: s.explanations.Explain(ctx, v),
		GeneratedAt: s.now(),
	}
	if v.IsPremium {
		cmp, err := s.market.Compare(ctx, v)
		if err != nil && !errors.Is(err, ErrPremiumRequired) {
			s.logger.Warn("market section omitted from pdf", zap.String("valuation_id", v.ID), zap.Error(err))
		} else if err == nil {
			in.Market = &cmp
		}
	}
	return report.RenderPDF(w, in)
}

// EmailReport envia la explicacion (markdown renderizado a HTML) al correo indicado.
func (s *ReportService) EmailReport(ctx context.Context, userID, role, valuationID, to string) error {
	to = normalizeEmail(to)
	if !isValidEmail(to) {
		return ErrInvalidEmail
	}
	v, err := s.valuations.GetOwned(ctx, userID, role, valuationID)
	if err != nil {
		return err
	}
	exp := s.explanations.Explain(ctx, v)

	var md strings.Builder
	md.WriteString(exp.Summary)
	if len(exp.Highlights) > 0 {
		md.WriteString("\n\n")
		for _, h := range exp.Highlights {
			md.WriteString("- " + h + "\n")
		}
	}
	summaryHTML, err := report.MarkdownToHTML(md.String())
	if err != nil {
		return err
	}

	reportURL := ""
	if s.baseURL != "" {
		reportURL = fmt.Sprintf("%s/valuations/%s", s.baseURL, v.ID)
	}
	msg, err := email.RenderReportEmail(to, email.ReportEmailData{
		VehicleTitle: report.VehicleTitle(v.Vehicle),
		Estimate:     report.FormatUSD(v.Result.Estimate),
		RangeLow:     report.FormatUSD(v.Result.PriceRange.Low),
		RangeHigh:    report.FormatUSD(v.Result.PriceRange.High),
		Confidence:   v.Result.Confidence,
		SummaryHTML:  template.HTML(summaryHTML),
		SummaryText:  md.String(),
		ReportURL:    reportURL,
	})
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	s.logger.Info("valuation report emailed", zap.String("valuation_id", v.ID))
	return nil
}
