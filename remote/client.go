// Package remote talks to the WordPress.com style REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// PeopleEndpoint selects which member list to fetch.
type PeopleEndpoint string

const (
	EndpointUsers     PeopleEndpoint = "users"
	EndpointFollowers PeopleEndpoint = "followers"
	EndpointViewers   PeopleEndpoint = "viewers"
)

const pageSize = 100

// Client is the REST API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchPeople returns every member of the given list, following offset paging.
// A short page ends the list; found only ends it early when the API sent it.
func (c *Client) FetchPeople(ctx context.Context, siteID int64, endpoint PeopleEndpoint) ([]Person, error) {
	var all []Person
	for offset := 0; ; offset += pageSize {
		page, found, err := c.fetchPeoplePage(ctx, siteID, endpoint, offset)
		if err != nil {
			return nil, fmt.Errorf("remote.FetchPeople(%s): %w", endpoint, err)
		}
		all = append(all, page...)
		if len(page) < pageSize || (found > 0 && len(all) >= found) {
			return all, nil
		}
	}
}

func (c *Client) fetchPeoplePage(ctx context.Context, siteID int64, endpoint PeopleEndpoint, offset int) ([]Person, int, error) {
	params := url.Values{}
	params.Set("number", strconv.Itoa(pageSize))
	params.Set("offset", strconv.Itoa(offset))
	path := "/sites/" + strconv.FormatInt(siteID, 10) + "/" + string(endpoint) + "?" + params.Encode()

	switch endpoint {
	case EndpointUsers:
		var resp usersResponse
		if err := c.get(ctx, path, &resp); err != nil {
			return nil, 0, err
		}
		return resp.Users, resp.Found, nil
	case EndpointFollowers:
		var resp followersResponse
		if err := c.get(ctx, path, &resp); err != nil {
			return nil, 0, err
		}
		return resp.Subscribers, resp.Found, nil
	case EndpointViewers:
		var resp viewersResponse
		if err := c.get(ctx, path, &resp); err != nil {
			return nil, 0, err
		}
		return resp.Viewers, resp.Found, nil
	default:
		return nil, 0, fmt.Errorf("unknown people endpoint %q", endpoint)
	}
}

// FetchPost fetches a single post by site and post ID.
func (c *Client) FetchPost(ctx context.Context, siteID, postID int64) (*Post, error) {
	var post Post
	path := "/sites/" + strconv.FormatInt(siteID, 10) + "/posts/" + strconv.FormatInt(postID, 10)
	if err := c.get(ctx, path, &post); err != nil {
		return nil, fmt.Errorf("remote.FetchPost: %w", err)
	}
	if post.SiteID == 0 {
		post.SiteID = siteID
	}
	return &post, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if readErr != nil {
			return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && (apiErr.Error != "" || apiErr.Message != "") {
			return &APIError{StatusCode: resp.StatusCode, Code: apiErr.Error, Message: apiErr.Message}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
