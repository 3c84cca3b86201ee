package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/opscheck/internal/errs"
)

// Thresholds classify a reading as OK or not. Temperature is acceptable
// strictly below Ceiling; humidity is acceptable within [Min, Max].
type Thresholds struct {
	TempCeiling float64
	HumidityMin float64
	HumidityMax float64
}

type Config struct {
	URL         string
	Username    string
	Password    string
	Host        string
	TempKey     string
	HumidityKey string
	Timeout     time.Duration
	Thresholds  Thresholds
}

// Reading is one temperature/humidity sample. Nil means the sensor item
// returned no value.
type Reading struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
}

// Client fetches sensor readings from a Zabbix JSON-RPC endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) Thresholds() Thresholds {
	return c.cfg.Thresholds
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	Auth    string      `json:"auth,omitempty"`
	ID      int         `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params interface{}, auth string, id int) (json.RawMessage, error) {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		Auth:    auth,
		ID:      id,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("zabbix API returned status %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, err
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("zabbix API error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

type itemParams struct {
	Output    []string          `json:"output"`
	Host      string            `json:"host"`
	Search    map[string]string `json:"search"`
	Sortfield string            `json:"sortfield"`
}

func (c *Client) lastValue(ctx context.Context, auth, itemKey string, id int) (*float64, error) {
	result, err := c.call(ctx, "item.get", itemParams{
		Output:    []string{"lastvalue"},
		Host:      c.cfg.Host,
		Search:    map[string]string{"key_": itemKey},
		Sortfield: "name",
	}, auth, id)
	if err != nil {
		return nil, err
	}

	var items []struct {
		LastValue string `json:"lastvalue"`
	}
	if err := json.Unmarshal(result, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	value, err := strconv.ParseFloat(items[0].LastValue, 64)
	if err != nil {
		return nil, fmt.Errorf("item %s: bad last value %q", itemKey, items[0].LastValue)
	}
	return &value, nil
}

// Fetch authenticates, reads both sensor items and logs out. A timeout or
// API failure comes back as an ExternalServiceError.
func (c *Client) Fetch(ctx context.Context) (*Reading, error) {
	result, err := c.call(ctx, "user.login", map[string]string{
		"user":     c.cfg.Username,
		"password": c.cfg.Password,
	}, "", 1)
	if err != nil {
		return nil, errs.External("zabbix", err)
	}

	var auth string
	if err := json.Unmarshal(result, &auth); err != nil || auth == "" {
		return nil, errs.External("zabbix", fmt.Errorf("authentication failed"))
	}

	temp, err := c.lastValue(ctx, auth, c.cfg.TempKey, 2)
	if err != nil {
		return nil, errs.External("zabbix", err)
	}
	humidity, err := c.lastValue(ctx, auth, c.cfg.HumidityKey, 3)
	if err != nil {
		return nil, errs.External("zabbix", err)
	}

	// Logout is best effort.
	if _, err := c.call(ctx, "user.logout", []string{}, auth, 4); err != nil {
		log.Debug().Err(err).Msg("zabbix logout failed")
	}

	return &Reading{Temperature: temp, Humidity: humidity}, nil
}

// FetchAssessment fetches and classifies a reading in one call. A failed
// fetch degrades to an error-marked assessment rather than propagating.
func (c *Client) FetchAssessment(ctx context.Context) Assessment {
	reading, err := c.Fetch(ctx)
	return Classify(reading, err, c.cfg.Thresholds)
}

// FetchAsync runs the fetch off the calling goroutine and delivers the
// classified result on the returned channel, so UI-facing callers never
// block on the network.
func (c *Client) FetchAsync(ctx context.Context) <-chan Assessment {
	out := make(chan Assessment, 1)
	go func() {
		out <- c.FetchAssessment(ctx)
		close(out)
	}()
	return out
}
