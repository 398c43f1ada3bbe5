package store

import (
	"fmt"
	"slices"
	"strings"
)

type Cloud string

const (
	CloudAWS   Cloud = "aws"
	CloudAzure Cloud = "azure"
	CloudGCP   Cloud = "gcp"
)

// AllowedClouds returns the providers a dashboard user can pick as default.
func AllowedClouds() []string {
	return []string{string(CloudAWS), string(CloudAzure), string(CloudGCP)}
}

// NormalizeCloud lower-cases and trims a provider value.
// Empty input defaults to "aws", the product fallback provider.
func NormalizeCloud(cloud string) string {
	c := strings.ToLower(strings.TrimSpace(cloud))
	switch c {
	case "":
		return string(CloudAWS)
	case "google", "google-cloud", "gcloud":
		return string(CloudGCP)
	case "amazon":
		return string(CloudAWS)
	}
	return c
}

func ValidateCloud(cloud string) error {
	c := NormalizeCloud(cloud)
	if slices.Contains(AllowedClouds(), c) {
		return nil
	}
	return fmt.Errorf(
		"cloud %q is not supported (allowed: %s)",
		c,
		strings.Join(AllowedClouds(), ", "),
	)
}
