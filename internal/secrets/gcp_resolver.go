package secrets

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Resolver fetches API tokens from Google Cloud Secret Manager, for
// deployments that keep platform credentials out of the environment.
type Resolver struct {
	client    *secretmanager.Client
	projectID string
}

// NewResolver creates a Secret Manager resolver
func NewResolver(ctx context.Context, projectID string) (*Resolver, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	return &Resolver{client: client, projectID: projectID}, nil
}

// Close closes the Secret Manager client
func (r *Resolver) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// AccessToken resolves a secret id to its latest payload. The id may be a
// bare secret id within the configured project or a fully qualified
// projects/.../secrets/... name.
func (r *Resolver) AccessToken(ctx context.Context, secretID string) (string, error) {
	name := secretID
	if !strings.HasPrefix(name, "projects/") {
		name = fmt.Sprintf("projects/%s/secrets/%s", r.projectID, secretID)
	}
	if !strings.Contains(name, "/versions/") {
		name += "/versions/latest"
	}

	result, err := r.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", name, err)
	}
	return strings.TrimSpace(string(result.Payload.Data)), nil
}
