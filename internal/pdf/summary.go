// internal/pdf/summary.go
//
// PDF summary renderer for calculator results.
//
// Context
// -------
// The email-PDF route attaches a one-to-two page cost summary built from
// the submitted form data and the calculation results.  Rendering is
// synchronous and pure: same input, same bytes (minus the creation date
// stamped by the PDF library).  Money values arrive as raw numbers and are
// printed as whole dollars; the calculation semantics live client-side and
// are round-tripped untouched.
//
//------------------------------------------------------------------------------

package pdf

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Summary is the input to one rendering.
type Summary struct {
	Email        string
	Address      string
	State        string
	Price        *float64
	FormData     map[string]any
	Calculations map[string]any
}

const (
	headerFont = "Helvetica"
	bodySize   = 10.5
	labelWidth = 95.0
)

// Render produces the PDF document.
func Render(s Summary) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Property Purchase Cost Summary", false)
	doc.SetMargins(18, 18, 18)
	doc.AddPage()

	doc.SetFont(headerFont, "B", 18)
	doc.CellFormat(0, 10, "Property Purchase Cost Summary", "", 1, "L", false, 0, "")

	doc.SetFont(headerFont, "", bodySize)
	doc.SetTextColor(90, 90, 90)
	subtitle := s.Address
	if s.State != "" {
		subtitle = strings.TrimSpace(subtitle + "  (" + strings.ToUpper(s.State) + ")")
	}
	if subtitle != "" {
		doc.CellFormat(0, 6, subtitle, "", 1, "L", false, 0, "")
	}
	doc.SetTextColor(0, 0, 0)
	doc.Ln(4)

	if s.Price != nil {
		row(doc, "Purchase price", dollars(*s.Price), true)
		doc.Ln(2)
	}

	section(doc, "Estimated costs", s.Calculations)

	for _, name := range []string{"property_details", "buyer_details", "loan_details"} {
		if nested, ok := s.FormData[name].(map[string]any); ok && len(nested) > 0 {
			section(doc, titleize(name), nested)
		}
	}

	doc.Ln(6)
	doc.SetFont(headerFont, "I", 8.5)
	doc.SetTextColor(120, 120, 120)
	doc.MultiCell(0, 4.5,
		"Estimates only.  Stamp duty, grants, and fees vary by state, contract date, "+
			"and eligibility.  Confirm figures with your conveyancer before exchange.",
		"", "L", false)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

/*──────────────────────────── layout helpers ──────────────────────────────*/

// section prints a heading plus the map's scalar entries in sorted order.
// Nested maps are skipped; the calculator owns their meaning.
func section(doc *fpdf.Fpdf, heading string, entries map[string]any) {
	scalars := make([]string, 0, len(entries))
	for k, v := range entries {
		switch v.(type) {
		case map[string]any, []any, nil:
			continue
		default:
			scalars = append(scalars, k)
		}
	}
	if len(scalars) == 0 {
		return
	}
	sort.Strings(scalars)

	doc.Ln(2)
	doc.SetFont(headerFont, "B", 12)
	doc.CellFormat(0, 8, heading, "", 1, "L", false, 0, "")
	doc.SetFont(headerFont, "", bodySize)

	for _, k := range scalars {
		row(doc, titleize(k), formatValue(entries[k]), false)
	}
}

func row(doc *fpdf.Fpdf, label, value string, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	doc.SetFont(headerFont, style, bodySize)
	doc.CellFormat(labelWidth, 6.5, label, "", 0, "L", false, 0, "")
	doc.CellFormat(0, 6.5, value, "", 1, "R", false, 0, "")
}

/*──────────────────────────── formatting ──────────────────────────────────*/

// formatValue renders a JSON scalar for print.  Numbers that look like
// money (>= 1 whole unit) get the dollar treatment.
func formatValue(v any) string {
	switch t := v.(type) {
	case float64:
		return dollars(t)
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

// dollars prints whole-dollar amounts with thousands separators.
func dollars(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	whole := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "$" + b.String()
	if neg {
		out = "-" + out
	}
	return out
}

// titleize turns snake_case keys into display labels.
func titleize(k string) string {
	words := strings.Split(strings.ReplaceAll(k, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		if w == "lvr" || w == "lmi" || w == "firb" {
			words[i] = strings.ToUpper(w)
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
