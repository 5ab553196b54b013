package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
)

// GeminiRanker delegates similarity judgement to the Gemini API. It
// keeps the Ranker contract regardless of what the model returns:
// scores are clamped to [0,1], sub-threshold and cross-category matches
// are dropped, reasons are never empty and ordering is re-applied. Any
// transport or parse failure degrades to an empty list.
type GeminiRanker struct {
	APIKey string
	Client *http.Client
}

// NewGeminiRanker reads GEMINI_API_KEY from the environment.
func NewGeminiRanker() *GeminiRanker {
	return &GeminiRanker{
		APIKey: os.Getenv("GEMINI_API_KEY"),
		Client: http.DefaultClient,
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiSimilarIssue struct {
	IssueIndex int      `json:"issueIndex"`
	Similarity float64  `json:"similarity"`
	Reasons    []string `json:"reasons"`
}

// Rank implements Ranker.
func (g *GeminiRanker) Rank(ctx context.Context, newIssue NewIssue, candidates []Candidate) []Match {
	if g.APIKey == "" {
		log.Println("gemini ranker: GEMINI_API_KEY not set, skipping similarity check")
		return nil
	}
	candidates = truncateOldest(candidates)
	if len(candidates) == 0 {
		return nil
	}

	raw, err := g.generate(ctx, buildSimilarityPrompt(newIssue, candidates))
	if err != nil {
		log.Printf("gemini ranker degraded: %v", err)
		return nil
	}

	var parsed struct {
		SimilarIssues []geminiSimilarIssue `json:"similarIssues"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		log.Printf("gemini ranker degraded: bad model output: %v", err)
		return nil
	}

	matches := make([]Match, 0, len(parsed.SimilarIssues))
	for _, sim := range parsed.SimilarIssues {
		if sim.IssueIndex < 1 || sim.IssueIndex > len(candidates) {
			continue
		}
		cand := candidates[sim.IssueIndex-1]
		score := clamp01(sim.Similarity)
		if score < SurfaceThreshold {
			continue
		}
		// Cross-category pairs are near-certainly different problems,
		// whatever the model thinks.
		if cand.Category != newIssue.Category {
			continue
		}
		reasons := sim.Reasons
		if len(reasons) == 0 {
			reasons = []string{"Flagged as the same issue by the similarity model"}
		}
		matches = append(matches, Match{
			ID:              cand.ID,
			Title:           cand.Title,
			Description:     cand.Description,
			Similarity:      score,
			Reasons:         reasons,
			ReportedBy:      cand.ReportedBy,
			CreatedAt:       cand.CreatedAt,
			ValidationCount: cand.ValidationCount,
			Status:          cand.Status,
		})
	}

	sortMatches(matches)
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}
	return matches
}

func (g *GeminiRanker) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent?key=%s", g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API status %d", resp.StatusCode)
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", err
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty model response")
	}

	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}

func buildSimilarityPrompt(newIssue NewIssue, candidates []Candidate) string {
	var sb strings.Builder

	sb.WriteString("Find existing civic issue reports that describe the SAME physical problem as the new report.\n\n")
	sb.WriteString("NEW ISSUE:\n")
	fmt.Fprintf(&sb, "Title: %s\nCategory: %s\nDescription: %s\nLocation: %s\nHas Image: %v\n\n",
		newIssue.Title, newIssue.Category, newIssue.Description, newIssue.NormalizedLocation, newIssue.HasImage)

	sb.WriteString("EXISTING ISSUES:\n")
	for i, cand := range candidates {
		fmt.Fprintf(&sb, "%d. Title: %s\n   Category: %s\n   Description: %s\n   Location: %s\n   Status: %s\n   Validations: %d\n",
			i+1, cand.Title, cand.Category, cand.Description, cand.NormalizedLocation, cand.Status, cand.ValidationCount)
	}

	sb.WriteString(`
INSTRUCTIONS:
- Look for the SAME physical issue, even if described differently
- Consider location spelling variations
- Different photo angles or wording of the same problem should match
- Use similarity 0.5-0.9 for potentially the same, 0.9+ for very likely the same

Respond STRICTLY with JSON:
{
  "similarIssues": [
    {"issueIndex": 1, "similarity": 0.85, "reasons": ["Same location area", "Same issue type"]}
  ]
}`)

	return sb.String()
}

// stripFences removes a markdown code fence the model sometimes wraps
// its JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "`")
	s = strings.TrimPrefix(s, "json")
	return strings.TrimSpace(s)
}
