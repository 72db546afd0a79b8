// Package ctl implements the client-side commands for hdrctl.
// It talks to a running hdrd over HTTP and WebSocket and renders the results
// to the terminal.
package ctl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Control commands can legitimately take several seconds while the daemon
// tears a session down, so the client waits longer than a plain query needs.
var httpClient = &http.Client{Timeout: 20 * time.Second}

// getJSON sends a GET request and decodes the JSON response into dst.
func getJSON(baseURL, path string, dst any) error {
	url := strings.TrimRight(baseURL, "/") + path
	resp, err := httpClient.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(b))
		if msg != "" {
			return fmt.Errorf("HTTP %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("HTTP %s from %s", resp.Status, path)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// getRaw sends a GET request and returns the raw response body.
func getRaw(baseURL, path string) (int, []byte, error) {
	url := strings.TrimRight(baseURL, "/") + path
	resp, err := httpClient.Get(url)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// commandResult mirrors the daemon's command reply JSON.
type commandResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Error   string `json:"error"`
	File    string `json:"file"`
}

// send issues a request and decodes the JSON reply into dst. Command
// failures come back with a non-200 status and a JSON body, so the body is
// decoded regardless of status code; non-JSON replies surface as an HTTP
// error instead.
func send(method, baseURL, path, contentType string, body io.Reader, dst any) error {
	url := strings.TrimRight(baseURL, "/") + path
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		msg := strings.TrimSpace(string(raw))
		if msg != "" {
			return fmt.Errorf("HTTP %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("HTTP %s from %s", resp.Status, path)
	}
	return nil
}

// postCommand sends a control command and decodes the command-style reply.
func postCommand(baseURL, path string, body any) (commandResult, error) {
	var result commandResult
	err := postJSONBody(baseURL, path, body, &result)
	return result, err
}

// postJSONBody marshals body as JSON, POSTs it, and decodes the reply into
// dst.
func postJSONBody(baseURL, path string, body, dst any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	}
	return send(http.MethodPost, baseURL, path, "application/json", reqBody, dst)
}

// postRaw POSTs pre-encoded JSON bytes and decodes the reply into dst.
func postRaw(baseURL, path string, data []byte, dst any) error {
	return send(http.MethodPost, baseURL, path, "application/json", bytes.NewReader(data), dst)
}

// doDelete sends a DELETE request and decodes the command-style reply.
func doDelete(baseURL, path string) (commandResult, error) {
	var result commandResult
	err := send(http.MethodDelete, baseURL, path, "", nil, &result)
	return result, err
}

// printResult renders a command reply, green for success and red for
// failure.
func printResult(label string, result commandResult, jsonOutput bool) error {
	if jsonOutput {
		return printJSON(result)
	}

	fmt.Println()
	if result.OK {
		msg := result.Message
		if msg == "" {
			msg = result.File
		}
		fmt.Printf("  %s  %s\n", colorize(green, label), msg)
		if result.Message != "" && result.File != "" {
			fmt.Printf("  %s\n", colorize(dim, result.File))
		}
	} else {
		fmt.Printf("  %s  %s\n", colorize(red, "ERROR"), result.Error)
	}
	fmt.Println()
	return nil
}

// printJSON prints v as indented JSON to stdout.
func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
