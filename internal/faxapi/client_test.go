package faxapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"faxrelay/internal/domain"
)

func TestClientSubmitSuccess(t *testing.T) {
	t.Parallel()

	var gotPayload submitPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/faxes" {
			t.Errorf("path = %s, want /faxes", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"jobId":"job-42"}`))
	}))
	defer server.Close()

	c, err := NewClient(server.URL, "user", "secret", 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	result, err := c.Submit(context.Background(), Request{
		RecipientPhone: "9045551234",
		RecipientName:  "Jane Doe",
		AccountName:    "acct1",
		Subject:        "statement",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if !result.Success {
		t.Fatal("result should be success")
	}
	if result.JobID != "job-42" {
		t.Fatalf("JobID = %q, want job-42", result.JobID)
	}
	if result.StatusCode != http.StatusCreated {
		t.Fatalf("StatusCode = %d, want 201", result.StatusCode)
	}

	if gotPayload.Recipient.Number != "9045551234" {
		t.Errorf("recipient.number = %q", gotPayload.Recipient.Number)
	}
	if gotPayload.Recipient.Name != "Jane Doe" {
		t.Errorf("recipient.name = %q", gotPayload.Recipient.Name)
	}
	if gotPayload.Sender.Account != "acct1" {
		t.Errorf("sender.account = %q", gotPayload.Sender.Account)
	}
	if gotPayload.Options.Priority != "NORMAL" {
		t.Errorf("options.priority = %q, want NORMAL", gotPayload.Options.Priority)
	}
	if gotPayload.Subject != "statement" {
		t.Errorf("subject = %q", gotPayload.Subject)
	}
	if gotPayload.Document != nil {
		t.Error("document should be omitted without an attachment")
	}
}

func TestClientSubmitAlternateJobIDField(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"alt-7"}`))
	}))
	defer server.Close()

	c, err := NewClient(server.URL, "", "", 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	result, err := c.Submit(context.Background(), Request{
		RecipientPhone: "9045551234",
		AccountName:    "acct1",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.JobID != "alt-7" {
		t.Fatalf("JobID = %q, want alt-7", result.JobID)
	}
}

func TestClientSubmitHTTPFailureIsResult(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	c, err := NewClient(server.URL, "", "", 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	result, err := c.Submit(context.Background(), Request{
		RecipientPhone: "9045551234",
		AccountName:    "acct1",
	})
	if err != nil {
		t.Fatalf("HTTP-level failure must not be an error, got %v", err)
	}
	if result.Success {
		t.Fatal("result should not be success")
	}
	if result.StatusCode != http.StatusBadGateway {
		t.Fatalf("StatusCode = %d, want 502", result.StatusCode)
	}
	if result.Body != "upstream unavailable" {
		t.Fatalf("Body = %q", result.Body)
	}
}

func TestClientSubmitTimeoutIsTransientError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c, err := NewClient(server.URL, "", "", 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = c.Submit(context.Background(), Request{
		RecipientPhone: "9045551234",
		AccountName:    "acct1",
	})
	if err == nil {
		t.Fatal("expected transport error")
	}

	var channelErr *ChannelError
	if !errors.As(err, &channelErr) {
		t.Fatalf("error = %T, want *ChannelError", err)
	}
	if !IsTransient(err) {
		t.Fatal("timeout should classify as transient")
	}
}

func TestClientSubmitValidation(t *testing.T) {
	t.Parallel()

	c, err := NewClient("http://localhost:1", "", "", time.Second)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := c.Submit(context.Background(), Request{AccountName: "acct1"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if _, err := c.Submit(context.Background(), Request{RecipientPhone: "9045551234"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestClientSubmitEncodesAttachment(t *testing.T) {
	t.Parallel()

	attachment := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(attachment, []byte("%PDF-1.4 fake"), 0o644); err != nil {
		t.Fatalf("failed to write attachment: %v", err)
	}

	var gotPayload submitPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"jobId":"job-9"}`))
	}))
	defer server.Close()

	c, err := NewClient(server.URL, "", "", 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := c.Submit(context.Background(), Request{
		RecipientPhone: "9045551234",
		AccountName:    "acct1",
		AttachmentPath: attachment,
	}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if gotPayload.Document == nil {
		t.Fatal("document payload should be present")
	}
	if gotPayload.Document.Filename != "doc.pdf" {
		t.Errorf("filename = %q, want doc.pdf", gotPayload.Document.Filename)
	}
	if gotPayload.Document.ContentType != "application/pdf" {
		t.Errorf("contentType = %q, want application/pdf", gotPayload.Document.ContentType)
	}
	want := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 fake"))
	if gotPayload.Document.Base64 != want {
		t.Errorf("base64 content mismatch")
	}
}

func TestContentTypeFor(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		filename string
		want     string
	}{
		{"a.pdf", "application/pdf"},
		{"b.TIF", "image/tiff"},
		{"c.tiff", "image/tiff"},
		{"d.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"e.txt", "text/plain"},
		{"f.bin", "application/octet-stream"},
		{"noext", "application/octet-stream"},
	}

	for _, tc := range testCases {
		if got := contentTypeFor(tc.filename); got != tc.want {
			t.Errorf("contentTypeFor(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}
