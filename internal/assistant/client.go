// Package assistant implements the remote extraction capability
// against the OpenAI Assistants API.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dgallion1/finfacts/internal/document"
	"github.com/dgallion1/finfacts/internal/extract"
)

const DefaultBaseURL = "https://api.openai.com"

// Client calls the OpenAI Assistants API for fact extraction. It
// implements extract.Capability.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Submit uploads the document, creates an assistant bound to the
// canonical-schema instruction, attaches the document to a new thread
// and starts a run. Partially allocated resources are released before
// an error is returned.
func (c *Client) Submit(ctx context.Context, doc *document.Document) (*extract.Session, error) {
	fileID, err := c.uploadFile(ctx, doc.Name, doc.Raw)
	if err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}

	var asst assistantResponse
	err = c.doJSON(ctx, http.MethodPost, "/v1/assistants", assistantRequest{
		Model:          c.model,
		Name:           "Financial Analyst",
		Instructions:   extract.Instructions,
		Tools:          []tool{{Type: "file_search"}},
		ResponseFormat: responseFormat{Type: "json_object"},
	}, &asst)
	if err != nil {
		c.release(ctx, "", fileID)
		return nil, fmt.Errorf("create assistant: %w", err)
	}

	var thread threadResponse
	err = c.doJSON(ctx, http.MethodPost, "/v1/threads", threadRequest{
		Messages: []threadMessage{{
			Role:    "user",
			Content: extract.ExtractionPrompt,
			Attachments: []attachment{{
				FileID: fileID,
				Tools:  []tool{{Type: "file_search"}},
			}},
		}},
	}, &thread)
	if err != nil {
		c.release(ctx, asst.ID, fileID)
		return nil, fmt.Errorf("create thread: %w", err)
	}

	var run runResponse
	err = c.doJSON(ctx, http.MethodPost, "/v1/threads/"+thread.ID+"/runs", runRequest{
		AssistantID: asst.ID,
	}, &run)
	if err != nil {
		c.release(ctx, asst.ID, fileID)
		return nil, fmt.Errorf("start run: %w", err)
	}

	return &extract.Session{
		FileID:      fileID,
		AssistantID: asst.ID,
		ThreadID:    thread.ID,
		RunID:       run.ID,
	}, nil
}

// Poll retrieves the current run status.
func (c *Client) Poll(ctx context.Context, sess *extract.Session) (extract.RunStatus, error) {
	var run runResponse
	err := c.doJSON(ctx, http.MethodGet, "/v1/threads/"+sess.ThreadID+"/runs/"+sess.RunID, nil, &run)
	if err != nil {
		return "", fmt.Errorf("retrieve run: %w", err)
	}
	return extract.RunStatus(run.Status), nil
}

// FetchResult scans the thread for the first assistant-authored
// message and returns its text content.
func (c *Client) FetchResult(ctx context.Context, sess *extract.Session) (string, error) {
	var list messageList
	err := c.doJSON(ctx, http.MethodGet, "/v1/threads/"+sess.ThreadID+"/messages", nil, &list)
	if err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}
	for _, msg := range list.Data {
		if msg.Role != "assistant" {
			continue
		}
		for _, content := range msg.Content {
			if content.Type == "text" {
				return content.Text.Value, nil
			}
		}
	}
	return "", fmt.Errorf("no assistant message in thread %s", sess.ThreadID)
}

// Cleanup deletes the assistant and the uploaded file.
func (c *Client) Cleanup(ctx context.Context, sess *extract.Session) error {
	var errs []error
	if sess.AssistantID != "" {
		if err := c.doJSON(ctx, http.MethodDelete, "/v1/assistants/"+sess.AssistantID, nil, nil); err != nil {
			errs = append(errs, fmt.Errorf("delete assistant: %w", err))
		}
	}
	if sess.FileID != "" {
		if err := c.doJSON(ctx, http.MethodDelete, "/v1/files/"+sess.FileID, nil, nil); err != nil {
			errs = append(errs, fmt.Errorf("delete file: %w", err))
		}
	}
	return errors.Join(errs...)
}

// release is the best-effort cleanup for a partially completed Submit.
func (c *Client) release(ctx context.Context, assistantID, fileID string) {
	_ = c.Cleanup(ctx, &extract.Session{AssistantID: assistantID, FileID: fileID})
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
