// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"

	"github.com/pdiddy/citegraph/pkg/types"
)

// comparePromptTmpl is the prompt sent to the Claude API for one paper
// pair. Paper A cites paper B; the model reports similarities,
// differences, the relationship, and the adopted innovation.
var comparePromptTmpl = template.Must(template.New("compare").Parse(`You are a research analysis expert. Compare these two research papers, where Paper A cites Paper B.

Paper A (the citing paper):
Title: {{.TitleA}}
Authors: {{.AuthorsA}}
Text: {{.TextA}}

Paper B (the cited paper):
Title: {{.TitleB}}
Authors: {{.AuthorsB}}
Text: {{.TextB}}

Analyze:
1. What are the key similarities between these papers?
2. What are the key differences?
3. How does Paper A relate to Paper B? One of: extends, compares, builds_on, similar, unrelated.
4. What specific idea, method, or result from Paper B does Paper A use or build upon?
5. If applicable, differences in: architecture, contribution, methodology.

Respond with a JSON object and no other text:
{"similarities": ["..."], "differences": ["..."], "relationship_type": "extends|compares|builds_on|similar|unrelated", "short_label": "max 8 words naming the adopted innovation", "insight": "2-3 paragraphs explaining what Paper A took from Paper B and how it changed", "architecture_diff": "...", "contribution_diff": "...", "method_diff": "..."}
`))

// claudeAPIURL is the Claude API endpoint. Package-level var for test
// substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// promptTextLimit caps how much of each paper's text goes into the
// prompt.
const promptTextLimit = 1500

// ClaudeBackend implements TextBackend against the Claude Messages API.
type ClaudeBackend struct {
	APIKey string
	Model  string
	Client *http.Client
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Compare sends one paper pair to the Claude API and decodes the reply.
// A reply that is not the requested JSON object fails with ErrExtraction
// so the caller can retry the pair.
func (c *ClaudeBackend) Compare(ctx context.Context, a, b *types.PaperNode) (RawComparison, error) {
	prompt, err := renderPrompt(a, b)
	if err != nil {
		return RawComparison{}, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: 2048,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return RawComparison{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return RawComparison{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return RawComparison{}, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return RawComparison{}, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return RawComparison{}, fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		var raw RawComparison
		if err := json.Unmarshal([]byte(stripFences(block.Text)), &raw); err != nil {
			return RawComparison{}, fmt.Errorf("parsing comparison JSON: %w: %v", ErrExtraction, err)
		}
		return raw, nil
	}

	return RawComparison{}, fmt.Errorf("no text content in Claude API response: %w", ErrExtraction)
}

// renderPrompt fills the comparison template with both papers' text,
// preferring full text over the abstract, truncated to promptTextLimit.
func renderPrompt(a, b *types.PaperNode) (string, error) {
	var buf bytes.Buffer
	err := comparePromptTmpl.Execute(&buf, struct {
		TitleA, AuthorsA, TextA string
		TitleB, AuthorsB, TextB string
	}{
		TitleA: a.Title, AuthorsA: authorLine(a), TextA: paperText(a),
		TitleB: b.Title, AuthorsB: authorLine(b), TextB: paperText(b),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func authorLine(n *types.PaperNode) string {
	authors := n.Authors
	if len(authors) > 5 {
		authors = authors[:5]
	}
	if len(authors) == 0 {
		return "(unknown)"
	}
	return strings.Join(authors, ", ")
}

func paperText(n *types.PaperNode) string {
	text := n.Abstract
	if n.FullText != "" {
		text = n.FullText
	}
	if text == "" {
		return "(text not available)"
	}
	if len(text) > promptTextLimit {
		text = text[:promptTextLimit]
	}
	return text
}

// stripFences removes a Markdown code fence around a JSON reply.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
