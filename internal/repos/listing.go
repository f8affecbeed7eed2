package repos

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/raopodili/mcpgen/internal/models"
)

// ListingTimeout bounds a single listing page request.
const ListingTimeout = 15 * time.Second

// ListingClient pages through a Bitbucket-style repository listing API.
type ListingClient struct {
	client  *http.Client
	baseURL string
	user    string
	pass    string
}

// NewListingClient creates a listing client for baseURL (e.g.
// https://api.bitbucket.org/2.0/repositories). Credentials are sent as
// basic auth on every page request.
func NewListingClient(baseURL, user, pass string) *ListingClient {
	return &ListingClient{
		client:  &http.Client{Timeout: ListingTimeout},
		baseURL: baseURL,
		user:    user,
		pass:    pass,
	}
}

// listingPage mirrors one page of the hosting API response.
type listingPage struct {
	Values []struct {
		Name    string `json:"name"`
		Project struct {
			Key string `json:"key"`
		} `json:"project"`
		Links struct {
			Clone []struct {
				Name string `json:"name"`
				Href string `json:"href"`
			} `json:"clone"`
		} `json:"links"`
	} `json:"values"`
	Next string `json:"next"`
}

// DiscoverAll lists every repository in workspace, following the next
// cursor until absent, and returns one descriptor per repository whose
// project key is in projectFilter (empty filter matches all). branch is
// assigned to every descriptor.
//
// A non-success page response terminates pagination early: the pages
// already fetched are returned as a partial result and the stop is
// logged, matching the listing API's best-effort contract.
func (c *ListingClient) DiscoverAll(ctx context.Context, workspace, branch string, projectFilter []string) ([]models.RepositoryDescriptor, error) {
	allow := make(map[string]bool, len(projectFilter))
	for _, key := range projectFilter {
		allow[key] = true
	}

	var descs []models.RepositoryDescriptor
	url := fmt.Sprintf("%s/%s", c.baseURL, workspace)

	for url != "" {
		page, err := c.fetchPage(ctx, url)
		if err != nil {
			if len(descs) > 0 {
				log.Printf("Repository discovery stopped early at %s: %v (returning %d repositories)", url, err, len(descs))
				return descs, nil
			}
			return nil, fmt.Errorf("%w: listing %s: %v", ErrRepositoryUnavailable, workspace, err)
		}
		if page == nil {
			// Non-success page: stop early with what we have.
			break
		}

		for _, repo := range page.Values {
			if len(allow) > 0 && !allow[repo.Project.Key] {
				continue
			}
			if len(repo.Links.Clone) == 0 {
				continue
			}
			descs = append(descs, models.RepositoryDescriptor{
				Name:     repo.Name,
				CloneURL: repo.Links.Clone[0].Href,
				Branch:   branch,
			})
		}
		url = page.Next
	}

	return descs, nil
}

// fetchPage returns one listing page, or (nil, nil) on a non-success
// status so the caller can stop pagination without failing discovery.
func (c *ListingClient) fetchPage(ctx context.Context, url string) (*listingPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Repository listing %s returned status %d, stopping pagination", url, resp.StatusCode)
		return nil, nil
	}

	var page listingPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding listing page: %w", err)
	}
	return &page, nil
}
