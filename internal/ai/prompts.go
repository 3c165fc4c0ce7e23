package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Response shapes for every structured call the pipeline makes. The
// prompts spell the shape out so GenerateStructured can decode replies
// without provider-side schema support.

type SummaryResult struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category"`
}

type ValidationResult struct {
	IsValid bool   `json:"isValid"`
	Reason  string `json:"reason"`
	Topic   string `json:"topic"`
}

type TranslationResult struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type SimilarityResult struct {
	MatchID string `json:"matchId"`
	Reason  string `json:"reason"`
}

type DigestReference struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

type DigestResult struct {
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	References []DigestReference `json:"references"`
}

const summarizeSystem = `You are a news editor. Rewrite the article as a short, neutral summary.
Pick exactly one category from the provided taxonomy.
Respond with a single JSON object: {"title": "...", "body": "...", "category": "..."}.`

func SummarizePrompt(title, content string, categories []string) (system, user string) {
	user = fmt.Sprintf("Categories: %s\n\nTitle: %s\n\nArticle:\n%s",
		strings.Join(categories, ", "), title, content)
	return summarizeSystem, user
}

const validateSystem = `You judge whether a candidate summary faithfully and meaningfully covers its source article.
Reject ads, listicles, and content-free pieces. Name the dominant topic.
Respond with a single JSON object: {"isValid": true|false, "reason": "...", "topic": "..."}.`

func ValidatePrompt(originalTitle, originalURL, candidateTitle, candidateBody string) (system, user string) {
	user = fmt.Sprintf("Original title: %s\nOriginal URL: %s\n\nSummary title: %s\n\nSummary body:\n%s",
		originalTitle, originalURL, candidateTitle, candidateBody)
	return validateSystem, user
}

const translateSystem = `You translate news summaries. Keep names, numbers and tone intact.
Respond with a single JSON object: {"title": "...", "body": "..."}.`

func TranslatePrompt(title, body, targetLanguage string) (system, user string) {
	user = fmt.Sprintf("Target language: %s\n\nTitle: %s\n\nBody:\n%s", targetLanguage, title, body)
	return translateSystem, user
}

const similaritySystem = `You decide whether a news summary describes the same concrete event as one of the candidates.
Strict exclusion rules: reject multi-topic roundups, weak thematic overlap, and candidates covering a different time window or angle.
Candidates list the clusters they already belong to; do not merge into a contradictory cluster.
Prefer no match over a weak match. At most one candidate may match.
Respond with a single JSON object: {"matchId": "<candidate id or empty string>", "reason": "..."}.`

// SimilarityCandidate is one entry of the candidate set sent for
// adjudication, enriched with the titles of groups it already joined.
type SimilarityCandidate struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Groups []string `json:"groups,omitempty"`
}

func SimilarityPrompt(targetTitle, targetBody string, candidates []SimilarityCandidate) (system, user string, err error) {
	payload, err := json.Marshal(candidates)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal candidates: %w", err)
	}
	user = fmt.Sprintf("Summary title: %s\n\nSummary body:\n%s\n\nCandidates:\n%s",
		targetTitle, targetBody, payload)
	return similaritySystem, user, nil
}

const digestSystem = `You compose a cross-summary digest of the day's validated news.
Cite only summaries from the provided corpus, by their exact URL.
Respond with a single JSON object:
{"title": "...", "content": "...", "references": [{"title": "...", "url": "...", "reason": "..."}]}.`

// DigestCorpusItem is one time-ordered entry of the digest input.
type DigestCorpusItem struct {
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	URL         string    `json:"url"`
	GeneratedAt time.Time `json:"generatedAt"`
}

func DigestPrompt(language string, corpus []DigestCorpusItem) (system, user string, err error) {
	payload, err := json.Marshal(corpus)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal corpus: %w", err)
	}
	user = fmt.Sprintf("Language: %s\n\nCorpus (time-ordered):\n%s", language, payload)
	return digestSystem, user, nil
}
