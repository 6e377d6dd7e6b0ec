package blindclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/univeil/univeil/internal/utils"
)

// HTTPAPI is the JSON-over-REST implementation of API.
type HTTPAPI struct {
	base   string
	token  string
	client *http.Client
}

func NewHTTPAPI(baseURL, token string) *HTTPAPI {
	return &HTTPAPI{
		base:   strings.TrimRight(baseURL, "/"),
		token:  token,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *HTTPAPI) JoinQueue(ctx context.Context) (*QueueState, error) {
	var out QueueState
	if err := a.do(ctx, http.MethodPost, "/blind/queue/join", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *HTTPAPI) LeaveQueue(ctx context.Context) error {
	return a.do(ctx, http.MethodPost, "/blind/queue/leave", nil, nil)
}

func (a *HTTPAPI) SessionStatus(ctx context.Context) (*SessionState, error) {
	var out SessionState
	if err := a.do(ctx, http.MethodGet, "/blind/session/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *HTTPAPI) SessionMessages(ctx context.Context, sessionID string) (*SessionState, error) {
	var out SessionState
	if err := a.do(ctx, http.MethodGet, "/blind/session/"+sessionID+"/messages", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *HTTPAPI) SendMessage(ctx context.Context, sessionID, text string) (*SessionState, error) {
	var out SessionState
	body := map[string]string{"text": text}
	if err := a.do(ctx, http.MethodPost, "/blind/session/"+sessionID+"/message", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *HTTPAPI) RecordChoice(ctx context.Context, sessionID, choice string) (*ChoiceResult, error) {
	var out ChoiceResult
	body := map[string]string{"choice": choice}
	if err := a.do(ctx, http.MethodPost, "/blind/session/"+sessionID+"/choice", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *HTTPAPI) EndSession(ctx context.Context, sessionID string) error {
	return a.do(ctx, http.MethodPost, "/blind/session/"+sessionID+"/end", nil, nil)
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *HTTPAPI) do(ctx context.Context, method, path string, body, out any) error {
	const op = "blindclient.HTTPAPI"

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return utils.E(utils.CodeInternal, op, "failed to encode request", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, rd)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return utils.E(utils.CodeUnavailable, op, "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to read response", err)
	}

	if resp.StatusCode >= 400 {
		// structured code over message matching: the code field drives
		// client behavior, the message is display-only
		var we wireError
		if jerr := json.Unmarshal(data, &we); jerr == nil && we.Code != "" {
			return utils.E(utils.Code(we.Code), op, we.Message, nil)
		}
		return utils.E(utils.CodeInternal, op, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to decode response", err)
	}
	return nil
}
