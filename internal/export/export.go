package export

import (
	"github.com/opscheck/internal/errs"
	"github.com/opscheck/internal/report"
	"github.com/opscheck/internal/telemetry"
)

// Format tags the rendering a caller wants back.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// Render produces the report as a byte stream in the requested format,
// returning the matching content type.
func Render(r *report.Result, env *telemetry.Assessment, format Format) ([]byte, string, error) {
	switch format {
	case FormatText, "":
		return []byte(report.RenderText(r, env)), "text/plain; charset=utf-8", nil
	case FormatCSV:
		data, err := RenderCSV(r)
		return data, "text/csv", err
	case FormatPDF:
		data, err := RenderPDF(r, env)
		return data, "application/pdf", err
	default:
		return nil, "", errs.Validation("format", "unknown export format %q", string(format))
	}
}
