package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"tailtrace/internal/research/models"
)

var (
	emailPattern   = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern   = regexp.MustCompile(`\(?\d{3}\)?[-.\s]\d{3}[-.\s]?\d{4}`)
	profilePattern = regexp.MustCompile(`https?://(?:www\.)?linkedin\.com/in/[A-Za-z0-9-]+`)
)

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// searchResult is one item from the search service. The service runs its own
// entity extraction; when it names an entity or a person we carry that
// through, otherwise only contact facts are mined from the snippet.
type searchResult struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	Entity     string  `json:"entity,omitempty"`
	EntityType string  `json:"entity_type,omitempty"`
	Person     string  `json:"person,omitempty"`
	PersonRole string  `json:"person_role,omitempty"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

// WebSearch queries the open-web search service for ownership and contact
// evidence about a registration.
type WebSearch struct {
	baseURL    string
	apiKey     string
	maxResults int
	client     *http.Client
}

func NewWebSearch(baseURL, apiKey string, timeout time.Duration) *WebSearch {
	return &WebSearch{
		baseURL:    baseURL,
		apiKey:     apiKey,
		maxResults: 5,
		client:     &http.Client{Timeout: timeout},
	}
}

func (p *WebSearch) ID() string                      { return "web-search" }
func (p *WebSearch) Category() models.SourceCategory { return models.SourceWebSearch }
func (p *WebSearch) LatencyClass() LatencyClass      { return LatencySlow }
func (p *WebSearch) RetryEligible() bool             { return true }

func (p *WebSearch) Lookup(ctx context.Context, query models.RegistrationQuery) ([]models.EvidenceRecord, error) {
	body, err := json.Marshal(searchRequest{
		Query:      query.Tail + " aircraft owner",
		MaxResults: p.maxResults,
	})
	if err != nil {
		return nil, NewFailure(FailureMalformedResponse, p.ID(), "encode search request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, NewFailure(FailureUnavailable, p.ID(), "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, classifyHTTPError(p.ID(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(p.ID(), resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, NewFailure(FailureMalformedResponse, p.ID(), "decode search response", err)
	}

	var records []models.EvidenceRecord
	now := time.Now().UTC()
	for _, result := range payload.Results {
		records = append(records, p.extract(result, now)...)
	}
	return records, nil
}

// extract maps one search result to evidence records. Confidence follows the
// search service's own relevance score, clamped into (0, 1].
func (p *WebSearch) extract(result searchResult, now time.Time) []models.EvidenceRecord {
	confidence := result.Score
	if confidence <= 0 || confidence > 1 {
		confidence = 0.5
	}
	base := models.EvidenceRecord{
		Source:        models.SourceWebSearch,
		ProviderID:    p.ID(),
		Confidence:    confidence,
		RetrievedAt:   now,
		ProvenanceURL: result.URL,
	}

	var records []models.EvidenceRecord
	if result.Entity != "" {
		rec := base
		rec.Fact = models.FactOwnerName
		rec.Value = result.Entity
		records = append(records, rec)
		if result.EntityType != "" {
			typed := base
			typed.Fact = models.FactEntityType
			typed.Value = result.EntityType
			records = append(records, typed)
		}
	}
	if result.Person != "" {
		rec := base
		rec.Fact = models.FactOwnerName
		rec.Value = result.Person
		if result.Entity != "" {
			rec.Relation = &models.Relation{Kind: models.RelationOfficerOf, Target: result.Entity}
		}
		records = append(records, rec)
		if result.PersonRole != "" {
			role := base
			role.Fact = models.FactRole
			role.Value = result.PersonRole
			records = append(records, role)
		}
	}
	if email := emailPattern.FindString(result.Content); email != "" {
		rec := base
		rec.Fact = models.FactContactEmail
		rec.Value = email
		records = append(records, rec)
	}
	if phone := phonePattern.FindString(result.Content); phone != "" {
		rec := base
		rec.Fact = models.FactContactPhone
		rec.Value = phone
		records = append(records, rec)
	}
	if profile := profilePattern.FindString(result.Content); profile != "" {
		rec := base
		rec.Fact = models.FactContactProfile
		rec.Value = profile
		records = append(records, rec)
	}
	return records
}

func (p *WebSearch) Health(ctx context.Context) error {
	return healthCheck(ctx, p.client, p.baseURL, p.ID())
}
