package adzuna

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestSearchJobsIntegration(t *testing.T) {
	appID := os.Getenv("ADZUNA_APP_ID")
	appKey := os.Getenv("ADZUNA_APP_KEY")
	country := os.Getenv("ADZUNA_COUNTRY")

	if appID == "" || appKey == "" {
		t.Skip("ADZUNA_APP_ID and ADZUNA_APP_KEY must be set to run this test")
	}

	client, err := NewClient(Config{
		AppID:    appID,
		AppKey:   appKey,
		Country:  country,
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for page := 1; page <= 2; page++ {
		result, err := client.SearchJobs(ctx, "software engineer", SearchParams{
			Location: "Bangalore",
			Page:     page,
		})
		if err != nil {
			t.Fatalf("SearchJobs page %d: %v", page, err)
		}

		for i, job := range result.Jobs {
			if i >= 3 {
				break
			}
			t.Logf("Page %d result %d: %s @ %s (%s)", page, i+1, job.Title, job.CompanyName, job.Location)
		}
		t.Logf("Adzuna page %d returned %d jobs (%d malformed, %d total matches)", page, len(result.Jobs), result.Malformed, result.Count)

		if result.Records < client.PageSize() {
			return
		}
	}
}
