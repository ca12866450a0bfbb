package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nepaledu/edusearch/internal/models"
)

const (
	httpGet    = http.MethodGet
	httpPost   = http.MethodPost
	httpDelete = http.MethodDelete
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

type savedCreateRequest struct {
	Name    string         `json:"name"`
	Query   string         `json:"query"`
	Filters models.Filters `json:"filters"`
}

// savedRunResponse mirrors POST /api/v1/saved/{id}/run.
type savedRunResponse struct {
	Found bool `json:"found"`
	models.SearchResponse
}

// doJSON sends body (when non-nil) as JSON and decodes a 2xx response into out (when non-nil).
// Other statuses become an error carrying the server's message.
func doJSON(method, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func searchViaHTTP(serverURL string, req models.SearchRequest) (*models.SearchResponse, error) {
	var out models.SearchResponse
	if err := doJSON(httpPost, serverURL+"/api/v1/search", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func suggestViaHTTP(serverURL, partial string) ([]models.Suggestion, error) {
	var out struct {
		Suggestions []models.Suggestion `json:"suggestions"`
	}
	endpoint := serverURL + "/api/v1/suggest?q=" + url.QueryEscape(partial)
	if err := doJSON(httpGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}
