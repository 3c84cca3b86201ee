package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opscheck/internal/models"
)

func f(v float64) *float64 { return &v }

func TestClassify(t *testing.T) {
	th := Thresholds{TempCeiling: 28, HumidityMin: 40, HumidityMax: 60}

	tests := []struct {
		name       string
		reading    *Reading
		err        error
		wantTemp   models.Status
		wantHumid  models.Status
		wantErrSet bool
	}{
		{
			name:      "both within thresholds",
			reading:   &Reading{Temperature: f(22.5), Humidity: f(48)},
			wantTemp:  models.StatusOK,
			wantHumid: models.StatusOK,
		},
		{
			name:      "temperature at ceiling is too hot",
			reading:   &Reading{Temperature: f(28), Humidity: f(48)},
			wantTemp:  models.StatusNotOK,
			wantHumid: models.StatusOK,
		},
		{
			name:      "humidity band is inclusive",
			reading:   &Reading{Temperature: f(22), Humidity: f(60)},
			wantTemp:  models.StatusOK,
			wantHumid: models.StatusOK,
		},
		{
			name:      "humidity below band",
			reading:   &Reading{Temperature: f(22), Humidity: f(39.9)},
			wantTemp:  models.StatusOK,
			wantHumid: models.StatusNotOK,
		},
		{
			name:      "missing values are never acceptable",
			reading:   &Reading{},
			wantTemp:  models.StatusNotOK,
			wantHumid: models.StatusNotOK,
		},
		{
			name:      "nil reading",
			reading:   nil,
			wantTemp:  models.StatusNotOK,
			wantHumid: models.StatusNotOK,
		},
		{
			name:       "fetch error",
			err:        errors.New("connection refused"),
			wantTemp:   models.StatusNotOK,
			wantHumid:  models.StatusNotOK,
			wantErrSet: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Classify(tt.reading, tt.err, th)
			assert.Equal(t, tt.wantTemp, a.TemperatureStatus)
			assert.Equal(t, tt.wantHumid, a.HumidityStatus)
			if tt.wantErrSet {
				assert.NotEmpty(t, a.Err)
			} else {
				assert.Empty(t, a.Err)
			}
		})
	}
}

func TestClassifyCarriesValues(t *testing.T) {
	th := Thresholds{TempCeiling: 28, HumidityMin: 40, HumidityMax: 60}
	a := Classify(&Reading{Temperature: f(21.3), Humidity: f(55)}, nil, th)
	assert.Equal(t, 21.3, *a.Temperature)
	assert.Equal(t, 55.0, *a.Humidity)
}

func TestClassifyErrorDropsValues(t *testing.T) {
	th := Thresholds{TempCeiling: 28, HumidityMin: 40, HumidityMax: 60}
	a := Classify(&Reading{Temperature: f(21.3)}, errors.New("boom"), th)
	assert.Nil(t, a.Temperature)
	assert.Nil(t, a.Humidity)
}
