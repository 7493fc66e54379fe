// Package entropy sources the run seed. When a random.org API key is
// configured the seed comes from there; otherwise, and on any API
// failure, it falls back to crypto/rand. A configured nonzero seed
// bypasses this package entirely.
package entropy

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Client draws seed material from random.org.
type Client struct {
	apiKey string
	client *http.Client
}

// NewClient creates a random.org client. Returns nil if apiKey is
// empty; a nil client still yields seeds via crypto/rand.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Seed returns a fresh nonzero seed. Zero is reserved as the "pick a
// seed for me" marker in configuration, so it is never returned.
func (c *Client) Seed() int64 {
	if c == nil {
		return cryptoSeed()
	}

	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateIntegers",
		"params": map[string]any{
			"apiKey": c.apiKey,
			"n":      8,
			"min":    0,
			"max":    255,
		},
		"id": 1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		slog.Debug("random.org marshal failed", "error", err)
		return cryptoSeed()
	}

	resp, err := c.client.Post("https://api.random.org/json-rpc/4/invoke", "application/json", bytes.NewReader(body))
	if err != nil {
		slog.Debug("random.org fetch failed", "error", err)
		return cryptoSeed()
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Debug("random.org read failed", "error", err)
		return cryptoSeed()
	}

	var result struct {
		Result struct {
			Random struct {
				Data []int `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		slog.Debug("random.org parse failed", "error", err)
		return cryptoSeed()
	}
	if result.Error != nil {
		slog.Debug("random.org API error", "error", result.Error.Message)
		return cryptoSeed()
	}
	if len(result.Result.Random.Data) < 8 {
		slog.Debug("random.org short response", "count", len(result.Result.Random.Data))
		return cryptoSeed()
	}

	slog.Debug("seed drawn from random.org")
	return packSeed(result.Result.Random.Data)
}

// packSeed folds eight byte values into a nonzero int64.
func packSeed(data []int) int64 {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(data[i])
	}
	s := int64(binary.BigEndian.Uint64(buf[:]))
	if s == 0 {
		s = 1
	}
	return s
}

// cryptoSeed generates a nonzero seed from crypto/rand.
func cryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// No entropy source at all. Fall back to the clock.
		return time.Now().UnixNano()
	}
	s := int64(binary.BigEndian.Uint64(buf[:]))
	if s == 0 {
		s = 1
	}
	return s
}
