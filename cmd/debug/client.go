package debug

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"matchmaker/bot"
	"matchmaker/domain/entities"
	"matchmaker/domain/services"
)

// DebugClient provides access to the bot's debug API
type DebugClient struct {
	baseURL string
	client  *http.Client
}

// NewDebugClient creates a new debug API client
func NewDebugClient(port int) *DebugClient {
	return newDebugClient(fmt.Sprintf("http://127.0.0.1:%d", port))
}

func newDebugClient(baseURL string) *DebugClient {
	return &DebugClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CheckConnection verifies the debug API is accessible
func (c *DebugClient) CheckConnection() error {
	resp, err := c.client.Get(c.baseURL + "/health")
	if err != nil {
		return fmt.Errorf("debug API not accessible: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("debug API returned status %d", resp.StatusCode)
	}
	return nil
}

// Queues fetches the waiting players of every guild
func (c *DebugClient) Queues() ([]bot.QueueInfo, error) {
	var queues []bot.QueueInfo
	if err := c.get("/debug/queues", &queues); err != nil {
		return nil, err
	}
	return queues, nil
}

// ActiveRuns fetches the matches currently going through setup or awaiting a result
func (c *DebugClient) ActiveRuns() ([]services.RunSnapshot, error) {
	var runs []services.RunSnapshot
	if err := c.get("/debug/matches", &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// StoredMatches fetches persisted matches of a guild. status is "pending" or "recent".
func (c *DebugClient) StoredMatches(guildID int64, status string) ([]*entities.Match, error) {
	query := url.Values{}
	query.Set("guild_id", strconv.FormatInt(guildID, 10))
	if status != "" {
		query.Set("status", status)
	}

	var matches []*entities.Match
	if err := c.get("/debug/matches?"+query.Encode(), &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (c *DebugClient) get(path string, data interface{}) error {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	debugResp := struct {
		Success bool        `json:"success"`
		Error   string      `json:"error,omitempty"`
		Data    interface{} `json:"data,omitempty"`
	}{Data: data}
	if err := json.NewDecoder(resp.Body).Decode(&debugResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !debugResp.Success {
		return fmt.Errorf("%s failed: %s", path, debugResp.Error)
	}
	return nil
}
