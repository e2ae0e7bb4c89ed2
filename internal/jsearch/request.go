package jsearch

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/utils"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
	statusOK        = "OK"
	// Responses above this size are treated as provider errors.
	maxBodySize  = 16 << 20
	maxLogLength = 300
)

type Response struct {
	Status    string           `json:"status"`
	RequestID string           `json:"request_id"`
	Data      []map[string]any `json:"data"`
	Message   string           `json:"message"`
	Error     *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// getData makes GET request to the JSearch API and returns raw items of the data array.
func (c *Client) getData(ctx context.Context, path string, q url.Values) ([]map[string]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", jobs.ErrSourceUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+path, nil)
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	req.Header.Set("Accept", contentType)
	req.URL.RawQuery = q.Encode()

	resp, err := c.request(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", jobs.ErrSourceUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &jobs.SourceError{StatusCode: resp.StatusCode, Message: errorMessage(body, resp.Status)}
	}

	var response Response
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &jobs.SourceError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}

	if !strings.EqualFold(response.Status, statusOK) {
		return nil, &jobs.SourceError{StatusCode: resp.StatusCode, Message: errorMessage(body, "status "+response.Status)}
	}

	c.logger.Debug("got response from JSearch",
		zap.String("path", path),
		zap.String("request_id", response.RequestID),
		zap.Int("items", len(response.Data)),
	)

	return response.Data, nil
}

// request sends req once. Transport failures are reported as ErrSourceUnavailable.
func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.Redacted()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", jobs.ErrSourceUnavailable, err)
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.Host)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(io.LimitReader(reader, maxBodySize))
}

// errorMessage pulls a human readable message out of an error body.
// RapidAPI gateway errors use {"message": ...}, JSearch itself uses {"error": {"message": ...}}.
func errorMessage(body []byte, fallback string) string {
	var response Response
	if err := json.Unmarshal(body, &response); err == nil {
		if response.Error != nil && response.Error.Message != "" {
			return response.Error.Message
		}
		if response.Message != "" {
			return response.Message
		}
	}

	if text := utils.TruncateForLog(utils.Collapse(string(body)), maxLogLength); text != "" {
		return text
	}

	return fallback
}
