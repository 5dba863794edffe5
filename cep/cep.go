// Package cep looks up Brazilian postal codes (CEP) against the viacep
// web service and fills address fields from the result. The service is an
// opaque external collaborator: failures and "not found" answers are soft,
// the caller keeps whatever it already had.
package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// DefaultBaseURL is the public viacep endpoint.
const DefaultBaseURL = "https://viacep.com.br"

// ErrNoMatch is returned when the service answers with its erro flag set,
// meaning the code is well-formed but unknown.
var ErrNoMatch = errors.New("cep not found")

// ErrIncompleteCode is returned for inputs with fewer than 8 digits.
var ErrIncompleteCode = errors.New("cep must have 8 digits")

// Result carries the address fields the service resolves for a code.
type Result struct {
	Street       string `json:"logradouro"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
}

// Normalize keeps only digits and applies the NNNNN-NNN display mask,
// truncating anything past 8 digits.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
		if b.Len() == 8 {
			break
		}
	}
	digits := b.String()
	if len(digits) > 5 {
		return digits[:5] + "-" + digits[5:]
	}
	return digits
}

// Complete reports whether s normalizes to a full 8-digit code.
func Complete(s string) bool {
	return len(Normalize(s)) == 9
}

// Client queries the lookup service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient returns a Client for the given base URL ("" means
// DefaultBaseURL) with the given per-request timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type viacepResponse struct {
	Result
	Erro bool `json:"erro"`
}

// Lookup resolves a complete code. The code may be masked or raw digits.
func (c *Client) Lookup(ctx context.Context, code string) (Result, error) {
	masked := Normalize(code)
	if len(masked) != 9 {
		return Result{}, ErrIncompleteCode
	}
	url := fmt.Sprintf("%s/ws/%s/json/", c.baseURL, masked)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("cep lookup: unexpected status %d", resp.StatusCode)
	}
	var body viacepResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("cep lookup: decode response: %w", err)
	}
	if body.Erro {
		return Result{}, ErrNoMatch
	}
	return body.Result, nil
}

// Autofill runs fire-and-forget lookups and applies only the newest
// result. Each Fill bumps a generation counter; a response that arrives
// after a newer Fill started is discarded, so a stale answer can never
// overwrite fields the user has since re-queried.
type Autofill struct {
	client *Client
	gen    atomic.Uint64
}

// NewAutofill wraps client.
func NewAutofill(client *Client) *Autofill {
	return &Autofill{client: client}
}

// Fill looks up code in the background and calls apply with the result
// unless a newer Fill has superseded it. Lookup failures are swallowed:
// apply is simply never called.
func (a *Autofill) Fill(ctx context.Context, code string, apply func(Result)) {
	gen := a.gen.Add(1)
	go func() {
		res, err := a.client.Lookup(ctx, code)
		if err != nil {
			a.client.logger.Debug("cep autofill skipped",
				slog.String("cep", Normalize(code)), slog.String("error", err.Error()))
			return
		}
		if a.gen.Load() != gen {
			// superseded by a newer request
			return
		}
		apply(res)
	}()
}
