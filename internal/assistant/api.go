package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dgallion1/finfacts/internal/extract"
)

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type errorEnvelope struct {
	Error *apiError `json:"error"`
}

type fileResponse struct {
	ID string `json:"id"`
}

type assistantRequest struct {
	Model          string         `json:"model"`
	Name           string         `json:"name"`
	Instructions   string         `json:"instructions"`
	Tools          []tool         `json:"tools"`
	ResponseFormat responseFormat `json:"response_format"`
}

type tool struct {
	Type string `json:"type"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type assistantResponse struct {
	ID string `json:"id"`
}

type threadRequest struct {
	Messages []threadMessage `json:"messages"`
}

type threadMessage struct {
	Role        string       `json:"role"`
	Content     string       `json:"content"`
	Attachments []attachment `json:"attachments,omitempty"`
}

type attachment struct {
	FileID string `json:"file_id"`
	Tools  []tool `json:"tools"`
}

type threadResponse struct {
	ID string `json:"id"`
}

type runRequest struct {
	AssistantID string `json:"assistant_id"`
}

type runResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type messageList struct {
	Data []message `json:"data"`
}

type message struct {
	Role    string           `json:"role"`
	Content []messageContent `json:"content"`
}

type messageContent struct {
	Type string `json:"type"`
	Text struct {
		Value string `json:"value"`
	} `json:"text"`
}

// doJSON issues an API request with an optional JSON body and decodes
// the response into out (when non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, out any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	c.setAuthHeaders(httpReq)

	return c.send(httpReq, out)
}

// uploadFile posts document bytes to the file endpoint with
// purpose=assistants and returns the remote file handle.
func (c *Client) uploadFile(ctx context.Context, name string, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("purpose", "assistants"); err != nil {
		return "", fmt.Errorf("write purpose field: %w", err)
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/files", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	c.setAuthHeaders(httpReq)

	var resp fileResponse
	if err := c.send(httpReq, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &extract.RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		var env errorEnvelope
		if err := json.Unmarshal(respBody, &env); err == nil && env.Error != nil {
			return fmt.Errorf("openai error: %s: %s", env.Error.Type, env.Error.Message)
		}
		return fmt.Errorf("openai api status %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
