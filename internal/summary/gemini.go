package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Marga-Ghale/ora-tracker/internal/logutils"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models/"

// Request and response bodies of the generateContent endpoint
type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GeminiClient calls Google's generative language API.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

func NewGeminiClient(apiKey, model string, timeout time.Duration) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// WithBaseURL points the client at another endpoint root.
func (c *GeminiClient) WithBaseURL(baseURL string) *GeminiClient {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	c.baseURL = baseURL
	return c
}

func (c *GeminiClient) GenerateSummary(ctx context.Context, project *repository.Project) Result {
	if project == nil || len(project.Tasks) == 0 {
		return noActivity()
	}

	entry := log.WithField("project", project.ID)

	if c.apiKey == "" {
		entry.Warn("summary requested but GEMINI_API_KEY is not set")
		return unavailable()
	}

	text, err := c.generate(ctx, BuildPrompt(project))
	if err != nil {
		entry.WithError(err).Warn("summary generation failed")
		return unavailable()
	}
	if text == "" {
		entry.Warn("summary service returned an empty answer")
		return Result{Text: EmptyAnswerText}
	}
	return Result{Text: text, Generated: true}
}

func (c *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     0.2,
			MaxOutputTokens: 400,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.WithFields(logutils.Fields{"model": c.model}).Debug("sending summary request")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call summary service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("summary service returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return cleanResponse(parsed.Candidates[0].Content.Parts[0].Text), nil
}

// BuildPrompt lists the project's tasks with status and deadline.
func BuildPrompt(project *repository.Project) string {
	var b strings.Builder
	b.WriteString("You are a project management assistant.\n")
	b.WriteString("Generate a concise project summary in English including:\n")
	b.WriteString("- Overall progress\n- Important deadlines\n- Current task statuses\n\n")
	fmt.Fprintf(&b, "Project title: %s\nTasks:\n", project.Title)
	for _, t := range project.Tasks {
		fmt.Fprintf(&b, "- %s | Status: %s | Deadline: %s\n", t.Title, t.Status, t.EndDate.Format("2006-01-02"))
	}
	b.WriteString("\nIf there is no recent activity, respond with: 'No recent activity on this project.'")
	return b.String()
}

// cleanResponse strips code fences the model sometimes wraps around its answer.
func cleanResponse(text string) string {
	text = strings.ReplaceAll(text, "```markdown", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
