package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tailtrace/internal/research/models"
)

// Flight-tracking sites list the operator of record, which is usually but not
// always the registered owner.
const flightTrackConfidence = 0.8

type flightTrackRecord struct {
	NNumber       string `json:"n_number"`
	OwnerName     string `json:"owner_name"`
	OwnerLocation string `json:"owner_location"`
	Manufacturer  string `json:"manufacturer"`
	Model         string `json:"model"`
	BaseAirport   string `json:"base_airport"`
}

// FlightTracker looks up the secondary flight-tracking record for a tail
// number.
type FlightTracker struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewFlightTracker(baseURL, apiKey string, timeout time.Duration) *FlightTracker {
	return &FlightTracker{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *FlightTracker) ID() string                      { return "flight-tracker" }
func (p *FlightTracker) Category() models.SourceCategory { return models.SourceFlightTrack }
func (p *FlightTracker) LatencyClass() LatencyClass      { return LatencySlow }
func (p *FlightTracker) RetryEligible() bool             { return true }

func (p *FlightTracker) Lookup(ctx context.Context, query models.RegistrationQuery) ([]models.EvidenceRecord, error) {
	url := fmt.Sprintf("%s/aircraft/%s", p.baseURL, query.Tail)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewFailure(FailureUnavailable, p.ID(), "build request", err)
	}
	req.Header.Set("x-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, classifyHTTPError(p.ID(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(p.ID(), resp.StatusCode)
	}

	var record flightTrackRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, NewFailure(FailureMalformedResponse, p.ID(), "decode aircraft record", err)
	}

	// An empty owner is a valid answer here: the tracker may know the
	// airframe without publishing an operator.
	now := time.Now().UTC()
	base := models.EvidenceRecord{
		Source:        models.SourceFlightTrack,
		ProviderID:    p.ID(),
		Confidence:    flightTrackConfidence,
		RetrievedAt:   now,
		ProvenanceURL: url,
	}

	var records []models.EvidenceRecord
	if record.OwnerName != "" {
		rec := base
		rec.Fact = models.FactOwnerName
		rec.Value = record.OwnerName
		records = append(records, rec)
	}
	if record.Manufacturer != "" {
		rec := base
		rec.Fact = models.FactManufacturer
		rec.Value = record.Manufacturer
		records = append(records, rec)
	}
	if record.Model != "" {
		rec := base
		rec.Fact = models.FactModel
		rec.Value = record.Model
		records = append(records, rec)
	}
	return records, nil
}

func (p *FlightTracker) Health(ctx context.Context) error {
	return healthCheck(ctx, p.client, p.baseURL, p.ID())
}
