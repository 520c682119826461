package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// resourcePayload is the body of an IS-04 registration POST: a resource
// type tag alongside its JSON data, exactly as the Registration API's
// `/resource` endpoint expects.
type resourcePayload struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// RegistrationClient is an HTTP client for one discovered registry's
// IS-04 Registration API, built on retryablehttp so a single registration
// or heartbeat call transparently retries transient network failures
// before DiscoveryAgent's own retry → re-register → re-discover escalation
// (spec §5) takes over.
type RegistrationClient struct {
	baseURL    string
	httpClient *retryablehttp.Client
	logger     *slog.Logger
}

// NewRegistrationClient creates a client against the given registry base
// URL (e.g. "http://192.0.2.5:8010"), with backoff bounded by the current
// system-global retry settings.
func NewRegistrationClient(baseURL string, sg SystemGlobal, logger *slog.Logger) *RegistrationClient {
	client := retryablehttp.NewClient()
	client.RetryWaitMin = time.Duration(sg.RetryMinBackoffSeconds) * time.Second
	client.RetryWaitMax = time.Duration(sg.RetryMaxBackoffSeconds) * time.Second
	client.RetryMax = 3
	client.Logger = nil // retryablehttp's own retry logging is disabled; individual retries are not logged

	return &RegistrationClient{
		baseURL:    baseURL,
		httpClient: client,
		logger:     logger,
	}
}

func (c *RegistrationClient) resourcePath() string {
	return fmt.Sprintf("%s/x-nmos/registration/v1.3/resource", c.baseURL)
}

func (c *RegistrationClient) healthPath(nodeID string) string {
	return fmt.Sprintf("%s/x-nmos/registration/v1.3/health/nodes/%s", c.baseURL, nodeID)
}

// RegisterResource POSTs one resource (node, device, source, flow, sender,
// or receiver) to the registry. The node resource must be registered
// before any of its children (IS-04 registration order requirement).
func (c *RegistrationClient) RegisterResource(ctx context.Context, resourceType string, data any) error {
	payload, err := json.Marshal(resourcePayload{Type: resourceType, Data: data})
	if err != nil {
		return newErr(ErrCodeRegisterFailed, "failed to marshal resource payload", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.resourcePath(), bytes.NewReader(payload))
	if err != nil {
		return newErr(ErrCodeRegisterFailed, "failed to build registration request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newErr(ErrCodeRegisterFailed, fmt.Sprintf("registering %s", resourceType), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return newErr(ErrCodeRegisterFailed, fmt.Sprintf("registry returned status %d for %s", resp.StatusCode, resourceType), nil)
	}

	c.logger.Debug("registered resource", "type", resourceType)
	return nil
}

// Heartbeat POSTs an empty health update for nodeID, renewing the
// registry's garbage-collection timer for this node's full resource tree.
func (c *RegistrationClient) Heartbeat(ctx context.Context, nodeID string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.healthPath(nodeID), nil)
	if err != nil {
		return newErr(ErrCodeHeartbeatFailed, "failed to build heartbeat request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newErr(ErrCodeHeartbeatFailed, "heartbeat request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newErr(ErrCodeHeartbeatFailed, fmt.Sprintf("registry returned status %d", resp.StatusCode), nil)
	}
	return nil
}

// UnregisterResource DELETEs a resource from the registry. The agent calls
// it when a resource is erased from the store (e.g. by remove_sender/
// remove_receiver); Agent.Stop does not unregister anything.
func (c *RegistrationClient) UnregisterResource(ctx context.Context, resourceType, id string) error {
	url := fmt.Sprintf("%s/x-nmos/registration/v1.3/resource/%s/%s", c.baseURL, resourceType, id)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return newErr(ErrCodeRegisterFailed, "failed to build unregister request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newErr(ErrCodeRegisterFailed, fmt.Sprintf("unregistering %s %s", resourceType, id), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return newErr(ErrCodeRegisterFailed, fmt.Sprintf("registry returned status %d deleting %s", resp.StatusCode, id), nil)
	}
	return nil
}
