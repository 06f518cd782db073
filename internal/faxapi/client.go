// Package faxapi submits faxes through the fax server's REST endpoint, one
// synchronous call per fax.
package faxapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"faxrelay/internal/domain"
)

const defaultSubmitTimeout = 30 * time.Second

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
}

const defaultContentType = "application/octet-stream"

// Request carries the fields for one submission call.
type Request struct {
	RecipientPhone string
	RecipientName  string
	AccountName    string
	AttachmentPath string
	Subject        string
	Coverpage      string
	Priority       domain.Priority
}

// Result is the classified outcome of one submission call. Non-2xx responses
// produce Success=false rather than an error so the orchestrator can record a
// failed submission without aborting the batch.
type Result struct {
	Success    bool
	JobID      string
	StatusCode int
	Body       string
}

type submitPayload struct {
	Recipient recipientPayload `json:"recipient"`
	Sender    senderPayload    `json:"sender"`
	Options   optionsPayload   `json:"options"`
	Subject   string           `json:"subject,omitempty"`
	Document  *documentPayload `json:"document,omitempty"`
}

type recipientPayload struct {
	Number string `json:"number"`
	Name   string `json:"name,omitempty"`
}

type senderPayload struct {
	Account string `json:"account"`
}

type optionsPayload struct {
	Priority  string `json:"priority"`
	CoverPage string `json:"coverPage,omitempty"`
}

type documentPayload struct {
	Base64      string `json:"base64"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

type submitResponse struct {
	JobID string `json:"jobId"`
	ID    string `json:"id"`
}

type Client struct {
	client  *resty.Client
	baseURL string
}

func NewClient(baseURL, username, password string, timeout time.Duration) (*Client, error) {
	client := resty.New()
	if timeout <= 0 {
		timeout = defaultSubmitTimeout
	}
	client.SetTimeout(timeout)
	client.SetRetryCount(0)
	client.SetHeader("Accept", "application/json")
	if username != "" && password != "" {
		client.SetBasicAuth(username, password)
	}

	return NewClientWithResty(baseURL, client)
}

func NewClientWithResty(baseURL string, client *resty.Client) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("fax api base url is required")
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("invalid fax api base url: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultSubmitTimeout)
	}
	client.SetRetryCount(0)

	return &Client{
		client:  client,
		baseURL: trimmed,
	}, nil
}

// Submit sends one fax. Transport failures return a *ChannelError; HTTP-level
// rejections return a failed Result with the status and raw body.
func (c *Client) Submit(ctx context.Context, req Request) (*Result, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("client is not initialized")
	}
	if strings.TrimSpace(req.RecipientPhone) == "" {
		return nil, fmt.Errorf("%w: recipient phone is required", domain.ErrValidation)
	}
	if strings.TrimSpace(req.AccountName) == "" {
		return nil, fmt.Errorf("%w: account name is required", domain.ErrValidation)
	}

	payload, err := buildPayload(req)
	if err != nil {
		return nil, err
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(c.baseURL + "/faxes")
	if err != nil {
		return nil, wrapTransport(err)
	}
	if response == nil {
		return nil, &ChannelError{Message: "empty response", Transient: true}
	}

	statusCode := response.StatusCode()
	body := strings.TrimSpace(response.String())

	if statusCode == http.StatusOK || statusCode == http.StatusCreated {
		return &Result{
			Success:    true,
			JobID:      extractJobID(response.Body()),
			StatusCode: statusCode,
			Body:       body,
		}, nil
	}

	return &Result{
		Success:    false,
		StatusCode: statusCode,
		Body:       body,
	}, nil
}

func buildPayload(req Request) (*submitPayload, error) {
	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}

	payload := &submitPayload{
		Recipient: recipientPayload{
			Number: req.RecipientPhone,
			Name:   req.RecipientName,
		},
		Sender: senderPayload{Account: req.AccountName},
		Options: optionsPayload{
			Priority:  priority.String(),
			CoverPage: req.Coverpage,
		},
		Subject: req.Subject,
	}

	if req.AttachmentPath != "" {
		content, err := os.ReadFile(req.AttachmentPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read attachment %q: %w", req.AttachmentPath, err)
		}
		payload.Document = &documentPayload{
			Base64:      base64.StdEncoding.EncodeToString(content),
			Filename:    filepath.Base(req.AttachmentPath),
			ContentType: contentTypeFor(req.AttachmentPath),
		}
	}

	return payload, nil
}

// extractJobID accepts either of the two response field names the server uses.
func extractJobID(body []byte) string {
	var parsed submitResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if parsed.JobID != "" {
		return parsed.JobID
	}
	return parsed.ID
}

func contentTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return defaultContentType
}
