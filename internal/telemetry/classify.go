package telemetry

import (
	"github.com/opscheck/internal/models"
)

// Assessment is a reading classified against the configured thresholds,
// ready for display. Err carries the fetch failure when the reading is
// unavailable; reports render it as an explicit marker instead of
// aborting.
type Assessment struct {
	Temperature       *float64      `json:"temperature"`
	TemperatureStatus models.Status `json:"temperature_status"`
	Humidity          *float64      `json:"humidity"`
	HumidityStatus    models.Status `json:"humidity_status"`
	Err               string        `json:"error,omitempty"`
}

// Classify applies the threshold rules: temperature must be present and
// below the ceiling, humidity present and inside the band. A missing value
// is never OK.
func Classify(r *Reading, err error, th Thresholds) Assessment {
	a := Assessment{
		TemperatureStatus: models.StatusNotOK,
		HumidityStatus:    models.StatusNotOK,
	}
	if err != nil {
		a.Err = err.Error()
		return a
	}
	if r == nil {
		return a
	}

	a.Temperature = r.Temperature
	a.Humidity = r.Humidity

	if r.Temperature != nil && *r.Temperature < th.TempCeiling {
		a.TemperatureStatus = models.StatusOK
	}
	if r.Humidity != nil && *r.Humidity >= th.HumidityMin && *r.Humidity <= th.HumidityMax {
		a.HumidityStatus = models.StatusOK
	}
	return a
}
