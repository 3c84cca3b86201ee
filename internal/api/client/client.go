package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/opscheck/internal/models"
	"github.com/opscheck/internal/telemetry"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient() (*Client, error) {
	baseURL := os.Getenv("OPSCHECK_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	token := os.Getenv("OPSCHECK_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("OPSCHECK_TOKEN environment variable is not set, run 'opscheck login' first")
	}

	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Login authenticates and returns a bearer token. It needs no existing
// token, unlike every other call.
func Login(username, password string) (string, error) {
	baseURL := os.Getenv("OPSCHECK_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	payload, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	resp, err := http.Post(baseURL+"/api/v1/auth/login", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		Token string `json:"token"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed: %s", result.Error)
	}
	return result.Token, nil
}

func (c *Client) ListChecks() ([]string, error) {
	var result struct {
		Checks []string `json:"checks"`
	}
	if err := c.get("/api/v1/checks", &result); err != nil {
		return nil, err
	}
	return result.Checks, nil
}

func (c *Client) ListLedgers() ([]string, error) {
	var result struct {
		Keys []string `json:"keys"`
	}
	if err := c.get("/api/v1/ledgers", &result); err != nil {
		return nil, err
	}
	return result.Keys, nil
}

func (c *Client) ReadLedger(key string) ([]models.CheckRecord, error) {
	var result struct {
		Records []models.CheckRecord `json:"records"`
	}
	if err := c.get("/api/v1/ledgers/"+key, &result); err != nil {
		return nil, err
	}
	return result.Records, nil
}

func (c *Client) ExportLedger(key string) ([]byte, error) {
	return c.raw(http.MethodGet, fmt.Sprintf("/api/v1/ledgers/%s/export", key), nil)
}

type SubmitRecord struct {
	CheckName string `json:"check_name"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

func (c *Client) Submit(key string, records []SubmitRecord) error {
	body := map[string]interface{}{"records": records}
	return c.post(fmt.Sprintf("/api/v1/ledgers/%s/submit", key), body, nil)
}

func (c *Client) CopyForward(source, dest string) error {
	body := map[string]string{"source": source, "dest": dest}
	return c.post("/api/v1/ledgers/copy-forward", body, nil)
}

func (c *Client) DeleteLedger(key string) error {
	_, err := c.raw(http.MethodDelete, fmt.Sprintf("/api/v1/ledgers/%s?confirm=true", key), nil)
	return err
}

func (c *Client) ClearLedgers() (int64, error) {
	data, err := c.raw(http.MethodDelete, "/api/v1/ledgers?confirm=true", nil)
	if err != nil {
		return 0, err
	}
	var result struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return 0, err
	}
	return result.Deleted, nil
}

// GetReport fetches a rendered report. query carries the period selection
// (type, date, start, end, month, year) plus format and env flags.
func (c *Client) GetReport(query url.Values) ([]byte, error) {
	return c.raw(http.MethodGet, "/api/v1/reports?"+query.Encode(), nil)
}

func (c *Client) EmailReport(query url.Values, recipients []string, allUsers bool, format string) error {
	body := map[string]interface{}{
		"recipients": recipients,
		"all_users":  allUsers,
		"format":     format,
	}
	return c.post("/api/v1/reports/email?"+query.Encode(), body, nil)
}

func (c *Client) GetTelemetry() (*telemetry.Assessment, error) {
	var assessment telemetry.Assessment
	if err := c.get("/api/v1/telemetry", &assessment); err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (c *Client) ListMaintenance() ([]models.MaintenanceIntervention, error) {
	var result struct {
		Interventions []models.MaintenanceIntervention `json:"interventions"`
	}
	if err := c.get("/api/v1/maintenance", &result); err != nil {
		return nil, err
	}
	return result.Interventions, nil
}

func (c *Client) AddMaintenance(date, description string) error {
	body := map[string]string{"date": date, "description": description}
	return c.post("/api/v1/maintenance", body, nil)
}

func (c *Client) get(endpoint string, out interface{}) error {
	data, err := c.raw(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (c *Client) post(endpoint string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	data, err := c.raw(http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

func (c *Client) raw(method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequest(method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("API error (%d)", resp.StatusCode)
	}
	return data, nil
}
