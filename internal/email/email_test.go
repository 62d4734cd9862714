package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/resend/resend-go/v2"
)

type fakeResendEmails struct {
	last *resend.SendEmailRequest
	err  error
}

func (f *fakeResendEmails) SendWithContext(_ context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.last = params
	if f.err != nil {
		return nil, f.err
	}
	return &resend.SendEmailResponse{Id: "em_1"}, nil
}

func TestResendSenderBuildsRequest(t *testing.T) {
	fake := &fakeResendEmails{}
	s, err := newResendSender(fake, "noreply@autovalue.test", "AutoValue")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = s.Send(context.Background(), Message{To: "a@b.c", Subject: "hi", HTML: "<p>x</p>", Text: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.last.From != "AutoValue <noreply@autovalue.test>" {
		t.Fatalf("unexpected from %q", fake.last.From)
	}
	if len(fake.last.To) != 1 || fake.last.To[0] != "a@b.c" {
		t.Fatalf("unexpected to %v", fake.last.To)
	}
}

func TestResendSenderRequiresRecipient(t *testing.T) {
	s, _ := newResendSender(&fakeResendEmails{}, "noreply@autovalue.test", "")
	if err := s.Send(context.Background(), Message{}); err == nil {
		t.Fatalf("expected error without recipient")
	}
}

func TestDisabledSender(t *testing.T) {
	err := NewDisabledSender("no provider").Send(context.Background(), Message{To: "a@b.c"})
	if !errors.Is(err, ErrSenderDisabled) {
		t.Fatalf("expected ErrSenderDisabled, got %v", err)
	}
}

func TestBuildMessageMultipart(t *testing.T) {
	msg := buildMessage("from@x.y", "X", Message{To: "to@x.y", Subject: "s", HTML: "<b>h</b>", Text: "t"})
	if !strings.Contains(msg, "multipart/alternative") {
		t.Fatalf("expected multipart message")
	}
	if !strings.Contains(msg, "From: X <from@x.y>") {
		t.Fatalf("missing from header")
	}
	plain := buildMessage("from@x.y", "", Message{To: "to@x.y", Subject: "s", Text: "t"})
	if strings.Contains(plain, "multipart") {
		t.Fatalf("plain message should not be multipart")
	}
}

func TestRenderReportEmailEscapesHTML(t *testing.T) {
	msg, err := RenderReportEmail("a@b.c", ReportEmailData{
		VehicleTitle: "2018 Honda <Civic>",
		Estimate:     "$12,000",
		RangeLow:     "$10,200",
		RangeHigh:    "$13,800",
		Confidence:   90,
		SummaryText:  "Solid value.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(msg.HTML, "&lt;Civic&gt;") {
		t.Fatalf("expected escaped title in html: %s", msg.HTML)
	}
	if !strings.Contains(msg.Text, "Estimated value: $12,000") {
		t.Fatalf("unexpected text body: %s", msg.Text)
	}
	if !strings.HasPrefix(msg.Subject, "Your valuation") {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
}

func TestRenderInviteEmailDefaultsReferrer(t *testing.T) {
	msg, err := RenderInviteEmail("friend@x.y", InviteEmailData{Code: "ABCD2345", SignupURL: "https://autovalue.test/signup?ref=ABCD2345"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(msg.Subject, "A friend") {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "<strong>ABCD2345</strong>") {
		t.Fatalf("missing code in html: %s", msg.HTML)
	}
}
