package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscheck/internal/errs"
	"github.com/opscheck/internal/models"
)

// fakeZabbix answers the JSON-RPC methods the client issues. Item values
// are keyed by the searched item key; a missing key returns no items.
func fakeZabbix(t *testing.T, values map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
			Auth   string          `json:"auth"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		switch req.Method {
		case "user.login":
			json.NewEncoder(w).Encode(map[string]interface{}{"result": "tok123"})
		case "item.get":
			assert.Equal(t, "tok123", req.Auth)
			var params struct {
				Search map[string]string `json:"search"`
			}
			require.NoError(t, json.Unmarshal(req.Params, &params))
			items := []map[string]string{}
			if v, ok := values[params.Search["key_"]]; ok {
				items = append(items, map[string]string{"lastvalue": v})
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"result": items})
		case "user.logout":
			json.NewEncoder(w).Encode(map[string]interface{}{"result": true})
		default:
			t.Errorf("unexpected method %s", req.Method)
		}
	}))
}

func testConfig(url string) Config {
	return Config{
		URL:         url,
		Username:    "apiuser",
		Password:    "secret",
		Host:        "dc-sensor",
		TempKey:     "sensor.temp",
		HumidityKey: "sensor.humidity",
		Timeout:     2 * time.Second,
		Thresholds:  Thresholds{TempCeiling: 28, HumidityMin: 40, HumidityMax: 60},
	}
}

func TestFetch(t *testing.T) {
	srv := fakeZabbix(t, map[string]string{
		"sensor.temp":     "23.4",
		"sensor.humidity": "51",
	})
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	reading, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, reading.Temperature)
	require.NotNil(t, reading.Humidity)
	assert.Equal(t, 23.4, *reading.Temperature)
	assert.Equal(t, 51.0, *reading.Humidity)
}

func TestFetchMissingItem(t *testing.T) {
	srv := fakeZabbix(t, map[string]string{"sensor.temp": "23.4"})
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	reading, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, reading.Temperature)
	assert.Nil(t, reading.Humidity)
}

func TestFetchLoginFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"code": -32602, "message": "Login name or password is incorrect."},
		})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsExternal(err))
}

func TestFetchUnreachable(t *testing.T) {
	srv := fakeZabbix(t, nil)
	srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsExternal(err))
}

func TestFetchAssessmentDegrades(t *testing.T) {
	srv := fakeZabbix(t, nil)
	srv.Close()

	c := NewClient(testConfig(srv.URL))
	a := c.FetchAssessment(context.Background())
	assert.NotEmpty(t, a.Err)
	assert.Equal(t, models.StatusNotOK, a.TemperatureStatus)
	assert.Equal(t, models.StatusNotOK, a.HumidityStatus)
}

func TestFetchAsync(t *testing.T) {
	srv := fakeZabbix(t, map[string]string{
		"sensor.temp":     "25",
		"sensor.humidity": "45",
	})
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))

	select {
	case a := <-c.FetchAsync(context.Background()):
		assert.Empty(t, a.Err)
		assert.Equal(t, models.StatusOK, a.TemperatureStatus)
		assert.Equal(t, models.StatusOK, a.HumidityStatus)
	case <-time.After(5 * time.Second):
		t.Fatal("no assessment delivered")
	}
}
