package morphodita

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	coczefla "github.com/VanaKraus/CoCzeFLA"
)

// Client calls the tag method of the MorphoDiTa REST service.
type Client struct {
	endpoint string
	model    string
	http     *http.Client
}

// NewClient returns a client for the service at endpoint, e.g.
// https://lindat.mff.cuni.cz/services/morphodita/api. An empty model
// selects the service default.
func NewClient(endpoint, model string, timeout time.Duration) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		http:     &http.Client{Timeout: timeout},
	}
}

// tagResponse is the JSON output of the tag method: sentences of tokens.
type tagResponse struct {
	Model  string `json:"model"`
	Result [][]struct {
		Token string `json:"token"`
		Lemma string `json:"lemma"`
		Tag   string `json:"tag"`
	} `json:"result"`
}

// Tag sends text to the service. Lemmas are returned as the service
// writes them, identifiers included.
func (c *Client) Tag(ctx context.Context, text string, opts coczefla.TagOptions) ([]coczefla.TaggedToken, error) {
	q := url.Values{}
	q.Set("data", text)
	q.Set("output", "json")
	q.Set("input", inputFormat(opts.Tokenizer))
	q.Set("guesser", yesNo(opts.Guesser))
	if c.model != "" {
		q.Set("model", c.model)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/tag?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("morphodita: building request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("morphodita: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("morphodita: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out tagResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("morphodita: decoding response: %w", err)
	}
	var tokens []coczefla.TaggedToken
	for _, sentence := range out.Result {
		for _, t := range sentence {
			tokens = append(tokens, coczefla.TaggedToken{Word: t.Token, Lemma: t.Lemma, Tag: t.Tag})
		}
	}
	return tokens, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func inputFormat(v coczefla.TokenizerVariant) string {
	if v == coczefla.TokenizerVertical {
		return "vertical"
	}
	return "untokenized"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
