package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/jwebster45206/gm-engine/pkg/character"
	"github.com/jwebster45206/gm-engine/pkg/chat"
	"github.com/jwebster45206/gm-engine/pkg/state"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// CharacterResponse mirrors the API's character payload.
type CharacterResponse struct {
	Character  *character.Character `json:"character"`
	WorldState *state.WorldState    `json:"world_state,omitempty"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// doJSON sends body (if any) and decodes the reply into out when the status
// is one of ok. Other statuses become errors carrying the API's message.
func doJSON(client *http.Client, method, endpoint string, body any, out any, ok ...int) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	for _, code := range ok {
		if resp.StatusCode == code {
			if out != nil && len(data) > 0 {
				if err := json.Unmarshal(data, out); err != nil {
					return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
				}
			}
			return resp.StatusCode, nil
		}
	}

	var errorResp ErrorResponse
	if err := json.Unmarshal(data, &errorResp); err != nil || errorResp.Error == "" {
		return resp.StatusCode, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
	}
	return resp.StatusCode, fmt.Errorf("%s", errorResp.Error)
}

// loadOrCreateCharacter returns the user's character, creating it on first use.
func loadOrCreateCharacter(client *http.Client, baseURL, userID, name string) (*CharacterResponse, error) {
	var found CharacterResponse
	status, err := doJSON(client, http.MethodGet, baseURL+"/v1/characters?user_id="+url.QueryEscape(userID), nil, &found, http.StatusOK)
	if err == nil {
		return &found, nil
	}
	if status != http.StatusNotFound {
		return nil, fmt.Errorf("failed to load character: %w", err)
	}

	var created CharacterResponse
	req := map[string]string{"user_id": userID, "name": name}
	if _, err := doJSON(client, http.MethodPost, baseURL+"/v1/characters", req, &created, http.StatusCreated, http.StatusConflict); err != nil {
		return nil, fmt.Errorf("failed to create character: %w", err)
	}
	return &created, nil
}

func playTurn(client *http.Client, baseURL string, characterID uuid.UUID, action string) (*chat.TurnResponse, error) {
	var resp chat.TurnResponse
	req := chat.TurnRequest{CharacterID: characterID, Action: action}
	if _, err := doJSON(client, http.MethodPost, baseURL+"/v1/turn", req, &resp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("turn failed: %w", err)
	}
	return &resp, nil
}

func resetCharacter(client *http.Client, baseURL string, characterID uuid.UUID) (*CharacterResponse, error) {
	var resp CharacterResponse
	endpoint := fmt.Sprintf("%s/v1/characters/%s/reset", baseURL, characterID)
	if _, err := doJSON(client, http.MethodPost, endpoint, nil, &resp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("reset failed: %w", err)
	}
	return &resp, nil
}
