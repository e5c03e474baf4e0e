package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tailtrace/internal/research/models"
)

// registryConfidence reflects that the FAA registry is the authoritative
// source for registrant names and airframe details.
const registryConfidence = 0.95

// faaRecord is the wire shape of a registry lookup response. Fields the core
// does not recognize are dropped here, at the adapter boundary.
type faaRecord struct {
	NNumber        string `json:"n_number"`
	RegistrantName string `json:"registrant_name"`
	RegistrantType string `json:"registrant_type"`
	Manufacturer   string `json:"aircraft_manufacturer"`
	Model          string `json:"aircraft_model"`
	Year           string `json:"year_manufactured"`
	SerialNumber   string `json:"serial_number"`
	TrusteeOf      string `json:"trustee_of"`
}

// FAARegistry looks up the government registry record for a tail number.
type FAARegistry struct {
	baseURL string
	client  *http.Client
}

// NewFAARegistry builds the registry adapter. The base URL points at the
// registry gateway; fetching mechanics behind it are not this adapter's
// concern.
func NewFAARegistry(baseURL string, timeout time.Duration) *FAARegistry {
	return &FAARegistry{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *FAARegistry) ID() string                      { return "faa-registry" }
func (p *FAARegistry) Category() models.SourceCategory { return models.SourceRegistry }
func (p *FAARegistry) LatencyClass() LatencyClass      { return LatencyFast }
func (p *FAARegistry) RetryEligible() bool             { return true }

func (p *FAARegistry) Lookup(ctx context.Context, query models.RegistrationQuery) ([]models.EvidenceRecord, error) {
	url := fmt.Sprintf("%s/registry/%s", p.baseURL, query.Tail)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewFailure(FailureUnavailable, p.ID(), "build request", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, classifyHTTPError(p.ID(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(p.ID(), resp.StatusCode)
	}

	var record faaRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, NewFailure(FailureMalformedResponse, p.ID(), "decode registry record", err)
	}
	if record.RegistrantName == "" {
		return nil, NewFailure(FailureMalformedResponse, p.ID(), "registry record missing registrant name", nil)
	}

	return p.toEvidence(record, url), nil
}

func (p *FAARegistry) toEvidence(record faaRecord, provenance string) []models.EvidenceRecord {
	now := time.Now().UTC()
	base := models.EvidenceRecord{
		Source:        models.SourceRegistry,
		ProviderID:    p.ID(),
		Confidence:    registryConfidence,
		RetrievedAt:   now,
		ProvenanceURL: provenance,
	}

	owner := base
	owner.Fact = models.FactOwnerName
	owner.Value = record.RegistrantName
	if record.TrusteeOf != "" {
		owner.Relation = &models.Relation{Kind: models.RelationTrusteeOf, Target: record.TrusteeOf}
	}
	records := []models.EvidenceRecord{owner}

	details := []struct {
		fact  models.FactType
		value string
	}{
		{models.FactEntityType, record.RegistrantType},
		{models.FactManufacturer, record.Manufacturer},
		{models.FactModel, record.Model},
		{models.FactYear, record.Year},
		{models.FactSerial, record.SerialNumber},
	}
	for _, d := range details {
		if d.value == "" {
			continue
		}
		rec := base
		rec.Fact = d.fact
		rec.Value = d.value
		records = append(records, rec)
	}
	return records
}

func (p *FAARegistry) Health(ctx context.Context) error {
	return healthCheck(ctx, p.client, p.baseURL, p.ID())
}
