package export

import (
	"bytes"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/opscheck/internal/report"
	"github.com/opscheck/internal/telemetry"
)

// RenderPDF renders the plain-text report as a paginated PDF, title line
// emphasized, body in a monospace face so the column layout survives.
func RenderPDF(r *report.Result, env *telemetry.Assessment) ([]byte, error) {
	text := report.RenderText(r, env)
	lines := strings.Split(text, "\n")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	if len(lines) > 0 {
		pdf.SetFont("Arial", "B", 16)
		pdf.CellFormat(0, 12, lines[0], "", 1, "C", false, 0, "")
		lines = lines[1:]
	}

	pdf.SetFont("Courier", "", 9)
	for _, line := range lines {
		pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
