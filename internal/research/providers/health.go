package providers

import (
	"context"
	"fmt"
	"net/http"
)

// healthCheck issues a cheap HEAD against the adapter's base URL. Any
// response, including an error status, proves the endpoint is reachable.
func healthCheck(ctx context.Context, client *http.Client, baseURL, providerID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, baseURL, nil)
	if err != nil {
		return fmt.Errorf("provider %s health: %w", providerID, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("provider %s unreachable: %w", providerID, err)
	}
	resp.Body.Close()
	return nil
}
