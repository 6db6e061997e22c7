// internal/mailer/mailer.go
//
// Transactional email via Resend: PDF summary dispatch.
//
// Context
// -------
// One email shape leaves this app: the calculator summary with the PDF
// attached.  The body varies by who is receiving it — a guest whose email
// already has an account (prompt to log in), a guest without one (prompt
// to sign up), or an authenticated user (plain summary).  A Resend
// "testing mode" rejection (unverified domain, non-owner recipient) is
// provider configuration, not an application fault, so it reports as a
// success with a warning instead of an error.
//
//------------------------------------------------------------------------------

package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/yanizio/propcost/internal/metrics"
)

// BodyKind selects one of the three HTML bodies.
type BodyKind int

const (
	BodyAuthenticated BodyKind = iota // logged-in user, plain summary
	BodyExistingAccount               // guest, email matches an account
	BodyNewAccount                    // guest, no account yet
)

// Sender is the provider seam; resendSender is the live implementation
// and tests inject fakes.
type Sender interface {
	Send(ctx context.Context, req *resend.SendEmailRequest) (id string, err error)
}

type resendSender struct{ client *resend.Client }

func (s resendSender) Send(ctx context.Context, req *resend.SendEmailRequest) (string, error) {
	resp, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Id, nil
}

// Mailer sends calculator summaries.  Construct once, inject into the
// calculator component.
type Mailer struct {
	sender  Sender
	from    string
	siteURL string
	log     *zap.SugaredLogger
}

// New builds a Mailer over the live Resend API.  apiKey may be empty; the
// provider then rejects the send and the route surfaces a 500.
func New(apiKey, from, siteURL string, log *zap.SugaredLogger) *Mailer {
	return NewWithSender(resendSender{client: resend.NewClient(apiKey)}, from, siteURL, log)
}

// NewWithSender is the test seam.
func NewWithSender(sender Sender, from, siteURL string, log *zap.SugaredLogger) *Mailer {
	if log == nil {
		log = zap.S()
	}
	if from == "" {
		from = "Propcost <summary@propcost.example>"
	}
	return &Mailer{sender: sender, from: from, siteURL: strings.TrimSuffix(siteURL, "/"), log: log}
}

// Summary is one dispatch.
type Summary struct {
	To      string
	Kind    BodyKind
	Address string
	PDF     []byte
}

// Result reports the provider id and whether the send was absorbed as a
// sandbox warning.
type Result struct {
	EmailID   string
	Sandboxed bool
}

// Send renders the body for s.Kind and dispatches with the PDF attached.
func (m *Mailer) Send(ctx context.Context, s Summary) (*Result, error) {
	if s.To == "" {
		return nil, fmt.Errorf("mailer: recipient is required")
	}

	html, err := renderBody(s.Kind, bodyData{Address: s.Address, SiteURL: m.siteURL})
	if err != nil {
		return nil, fmt.Errorf("mailer: render body: %w", err)
	}

	req := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{s.To},
		Subject: "Your property purchase cost summary",
		Html:    html,
		Attachments: []*resend.Attachment{{
			Filename:    "property-cost-summary.pdf",
			Content:     s.PDF,
			ContentType: "application/pdf",
		}},
	}

	id, err := m.sender.Send(ctx, req)
	if err != nil {
		if isSandboxRejection(err) {
			metrics.EmailsSentTotal.WithLabelValues("sandboxed").Inc()
			m.log.Warnw("resend sandbox rejected recipient, treating as sent",
				"to", s.To, "err", err)
			return &Result{Sandboxed: true}, nil
		}
		metrics.EmailsSentTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("mailer: send: %w", err)
	}

	metrics.EmailsSentTotal.WithLabelValues("sent").Inc()
	m.log.Infow("summary email sent", "to", s.To, "kind", s.Kind, "email_id", id)
	return &Result{EmailID: id}, nil
}

// Notify dispatches a plain HTML email with no attachment.  The contact
// form uses it to forward enquiries to the site operator.
func (m *Mailer) Notify(ctx context.Context, to, subject, html string) (*Result, error) {
	if to == "" {
		return nil, fmt.Errorf("mailer: recipient is required")
	}

	id, err := m.sender.Send(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		if isSandboxRejection(err) {
			metrics.EmailsSentTotal.WithLabelValues("sandboxed").Inc()
			m.log.Warnw("resend sandbox rejected recipient, treating as sent",
				"to", to, "err", err)
			return &Result{Sandboxed: true}, nil
		}
		metrics.EmailsSentTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("mailer: send: %w", err)
	}

	metrics.EmailsSentTotal.WithLabelValues("sent").Inc()
	return &Result{EmailID: id}, nil
}

// isSandboxRejection matches Resend's testing-mode refusals.  These occur
// when the sending domain is unverified and the recipient is not the
// account owner — a deployment configuration state, not a caller error.
func isSandboxRejection(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "testing email") ||
		strings.Contains(msg, "verify a domain") ||
		strings.Contains(msg, "own email address")
}
