// Package assethost talks to the external image host that serves repair
// photos. Clients upload directly using signed parameters issued here; the
// server-side upload path exists as a fallback for clients that cannot do
// multipart uploads themselves.
package assethost

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"
)

type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, apiSecret string) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SignedUpload is everything a client needs to upload one photo directly to
// the host.
type SignedUpload struct {
	APIKey    string `json:"api_key"`
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
	UploadURL string `json:"upload_url"`
}

type UploadResult struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
}

// SignUpload produces the signed parameter set for publicID. The signature
// is the hex SHA-1 of the sorted parameter string with the API secret
// appended, which is what the host verifies on upload.
func (c *Client) SignUpload(publicID, folder string) SignedUpload {
	ts := time.Now().Unix()
	return SignedUpload{
		APIKey:    c.apiKey,
		Signature: c.sign(publicID, folder, ts),
		Timestamp: ts,
		UploadURL: c.baseURL + "/image/upload",
	}
}

func (c *Client) sign(publicID, folder string, ts int64) string {
	params := []string{
		fmt.Sprintf("public_id=%s", publicID),
		fmt.Sprintf("timestamp=%d", ts),
	}
	if folder != "" {
		params = append(params, fmt.Sprintf("folder=%s", folder))
	}
	sort.Strings(params)

	h := sha1.Sum([]byte(strings.Join(params, "&") + c.apiSecret))
	return hex.EncodeToString(h[:])
}

// UploadBinary pushes a photo through the signed upload endpoint on behalf
// of a client. The signed fields must come from SignUpload with the same
// public id.
func (c *Client) UploadBinary(signed SignedUpload, publicID, folder string, data []byte) (*UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"api_key":   signed.APIKey,
		"timestamp": fmt.Sprintf("%d", signed.Timestamp),
		"signature": signed.Signature,
		"public_id": publicID,
	}
	if folder != "" {
		fields["folder"] = folder
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}

	part, err := writer.CreateFormFile("file", publicID)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload body: %w", err)
	}

	req, err := http.NewRequest("POST", signed.UploadURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload failed: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var result UploadResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	if result.SecureURL == "" {
		return nil, fmt.Errorf("secure_url is empty in response, body: %s", string(respBody))
	}

	return &result, nil
}

// RetryWithBackoff retries fn on transient upload failures.
func (c *Client) RetryWithBackoff(fn func() error, maxRetries int) error {
	backoffs := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if i < len(backoffs) {
			time.Sleep(backoffs[i])
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
