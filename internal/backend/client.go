package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sethvargo/go-retry"

	perrs "github.com/jdholdren/porch/internal/errors"
)

// Cap on how much of a response body gets decoded.
const maxBodyBytes = 1 << 20

// FetchSession asks the backend who the browser is.
//
// Any failure comes back as a [perrs.KindNetwork] error. Callers treat that as
// signed out.
func (c *Client) FetchSession(ctx context.Context, creds Credentials) (Session, error) {
	var sess Session

	backoff := retry.WithMaxRetries(c.retries, retry.NewFibonacci(c.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/me"), nil)
		if err != nil {
			return fmt.Errorf("error creating session request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		creds.apply(req)

		resp, err := c.httpCli.Do(req)
		if err != nil {
			// Only the transport is worth another go
			return retry.RetryableError(fmt.Errorf("error fetching session: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("unexpected status code from session endpoint: %d", resp.StatusCode)
		}

		var got Session
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&got); err != nil {
			return fmt.Errorf("error decoding session: %w", err)
		}
		sess = got

		return nil
	})
	if err != nil {
		return Session{}, perrs.E(perrs.KindNetwork, http.StatusBadGateway, err)
	}

	return sess, nil
}

// SaveProfile sends the draft to the backend and returns what it stored.
//
// Failures come back as [perrs.KindSave] errors and are never retried here;
// the user resubmits.
func (c *Client) SaveProfile(ctx context.Context, creds Credentials, d Draft) (ProfileUpdate, error) {
	byts, err := json.Marshal(d)
	if err != nil {
		return ProfileUpdate{}, perrs.E(perrs.KindSave, fmt.Errorf("error encoding draft: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/profile"), bytes.NewReader(byts))
	if err != nil {
		return ProfileUpdate{}, perrs.E(perrs.KindSave, fmt.Errorf("error creating save request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	creds.apply(req)

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return ProfileUpdate{}, perrs.E(perrs.KindSave, http.StatusBadGateway, fmt.Errorf("error saving profile: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ProfileUpdate{}, perrs.E(perrs.KindSave, http.StatusBadGateway,
			fmt.Errorf("unexpected status code from profile endpoint: %d", resp.StatusCode))
	}

	var upd ProfileUpdate
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&upd); err != nil {
		return ProfileUpdate{}, perrs.E(perrs.KindSave, http.StatusBadGateway, fmt.Errorf("error decoding save response: %w", err))
	}

	return upd, nil
}
