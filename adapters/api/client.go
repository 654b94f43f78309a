package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"difcregistry/domain/registry"
	"difcregistry/internal/errors"
)

// Client fetches list pages and detail records from the public register's
// dispatch endpoint. It implements ports.RegistryClient.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

// NewClient creates a register client. Zero-valued config fields fall back
// to the public site's defaults.
func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// listPayload is the body of a list-page lookup. The search fields stay
// empty: the exporter always lists the full register.
type listPayload struct {
	Name        string `json:"name"`
	LicenseType string `json:"licenseType"`
	LicenseNo   string `json:"licenseNo"`
	Status      string `json:"status"`
	Offset      int    `json:"offset"`
	Slug        string `json:"slug"`
	Method      string `json:"method"`
}

// detailPayload is the body of a detail lookup.
type detailPayload struct {
	Slug   string `json:"slug"`
	Method string `json:"method"`
}

// FetchPage returns one page of summary records starting at offset.
func (c *Client) FetchPage(ctx context.Context, offset int) ([]registry.Record, error) {
	body, err := c.post(ctx, listPayload{
		Offset: offset,
		Slug:   registerSlug,
		Method: "POST",
	})
	if err != nil {
		return nil, err
	}

	result := gjson.GetBytes(body, listDataPath)
	if !result.Exists() {
		return nil, errors.ShapeError(fmt.Sprintf("list response missing %s at offset %d", listDataPath, offset))
	}

	var records []registry.Record
	if err := json.Unmarshal([]byte(result.Raw), &records); err != nil {
		return nil, errors.DecodeError(fmt.Sprintf("malformed company list at offset %d", offset), err)
	}
	return records, nil
}

// FetchDetail returns the located PublicRegistry item for one company.
func (c *Client) FetchDetail(ctx context.Context, recordID string) (registry.Record, error) {
	body, err := c.post(ctx, detailPayload{
		Slug:   fmt.Sprintf("%s?recordId=%s", registerSlug, recordID),
		Method: "GET",
	})
	if err != nil {
		return nil, err
	}

	item := gjson.GetBytes(body, detailDataPath)
	if !item.Exists() || !item.IsObject() {
		return nil, errors.ShapeError(fmt.Sprintf("no PublicRegistry entry for record %s", recordID))
	}

	var record registry.Record
	if err := json.Unmarshal([]byte(item.Raw), &record); err != nil {
		return nil, errors.DecodeError(fmt.Sprintf("malformed detail record %s", recordID), err)
	}
	return record, nil
}

// post sends one dispatch request and returns the response body.
func (c *Client) post(ctx context.Context, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode request payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.ExternalServiceError("register", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ExternalServiceError("register", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.ExternalServiceError("register",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return respBody, nil
}
