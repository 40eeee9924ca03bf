package conversation

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// StatusError is returned when the service answers with anything but 200 OK.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("received status code %d: %s", e.Code, e.Body)
}

type createConversationResponse struct {
	ID string `json:"id"`
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

// streamItem is one line of a streamed prompt response. Lines without a message,
// such as the leading sources header, carry no answer text.
type streamItem struct {
	Message *struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
}

func (a *Adapter) CreateConversation(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/conversations", nil)
	if err != nil {
		return "", err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var created createConversationResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decoding conversation: %w", err)
	}

	return created.ID, nil
}

// Prompt sends the prompt to the conversation and concatenates the message contents
// of the streamed JSON lines.
func (a *Adapter) Prompt(ctx context.Context, conversationID, prompt string) (string, error) {
	body, err := json.Marshal(promptRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/conversations/%s/prompt", a.baseURL, url.PathEscape(conversationID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	answer, err := ReadStream(resp.Body)
	if err != nil {
		return "", err
	}

	a.logger.Sugar().Infof("received response for conversation ID %s", conversationID)

	return answer, nil
}

// ReadStream reads newline delimited JSON objects and concatenates their message contents.
// Blank lines are skipped, a line that is not valid JSON is an error.
func ReadStream(r io.Reader) (string, error) {
	var (
		reader = bufio.NewReader(r)
		answer bytes.Buffer
		lineNo int
	)

	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			line = bytes.TrimSpace(line)
			if len(line) > 0 {
				var item streamItem
				if err := json.Unmarshal(line, &item); err != nil {
					return "", fmt.Errorf("decoding stream line %d: %w", lineNo, err)
				}
				if item.Message != nil {
					answer.WriteString(item.Message.Content)
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("reading stream: %w", err)
		}
	}

	return answer.String(), nil
}

func statusError(resp *http.Response) error {
	// Only the start of an error body is interesting
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
}
