// Package remote implements engine.RemoteStore over a PostgREST-style
// HTTP/JSON API, the protocol the hosted backend speaks.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmynk/settleup/internal/engine"
	"github.com/mmynk/settleup/internal/models"
)

// Ensure Client implements engine.RemoteStore
var _ engine.RemoteStore = (*Client)(nil)

// Client talks to the remote store. Every failure it returns is an
// engine.TransientError; the sync engine owns retry policy, not the
// transport.
type Client struct {
	baseURL string
	apiKey  string
	token   string
	http    *http.Client
}

// New creates a Client for the API at baseURL. apiKey is the project
// key sent on every request; token is the user's bearer token (a JWT
// whose expiry is checked locally before each call, so a stale session
// fails fast instead of hitting the network).
func New(baseURL, apiKey, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// listFilterColumn maps each synced table to the column its
// group-scoped list call filters on. The groups table is keyed by its
// own id; everything else carries a group_id.
func listFilterColumn(table string) string {
	if table == models.TableGroups {
		return "id"
	}
	return "group_id"
}

// Upsert performs an idempotent insert-or-replace keyed by id.
func (c *Client) Upsert(ctx context.Context, table string, record json.RawMessage) error {
	q := url.Values{"on_conflict": {"id"}}
	return c.do(ctx, http.MethodPost, table, q, record, nil)
}

// Delete removes a record by id. The remote treats a missing record as
// already deleted.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	q := url.Values{"id": {"eq." + id}}
	return c.do(ctx, http.MethodDelete, table, q, nil, nil)
}

// ListByGroupIDs fetches all records in table scoped to the given groups.
func (c *Client) ListByGroupIDs(ctx context.Context, table string, groupIDs []string) ([]json.RawMessage, error) {
	q := url.Values{listFilterColumn(table): {"in.(" + strings.Join(groupIDs, ",") + ")"}}
	var records []json.RawMessage
	if err := c.do(ctx, http.MethodGet, table, q, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ListMembershipsForUser fetches every membership row for a user.
func (c *Client) ListMembershipsForUser(ctx context.Context, userID string) ([]json.RawMessage, error) {
	q := url.Values{"user_id": {"eq." + userID}}
	var records []json.RawMessage
	if err := c.do(ctx, http.MethodGet, models.TableMemberships, q, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) do(ctx context.Context, method, table string, query url.Values, body json.RawMessage, out any) error {
	op := opName(method)

	if err := c.checkToken(); err != nil {
		return &engine.TransientError{Op: op, Table: table, Err: err}
	}

	u := c.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &engine.TransientError{Op: op, Table: table, Err: err}
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &engine.TransientError{Op: op, Table: table, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &engine.TransientError{
			Op:    op,
			Table: table,
			Err:   fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &engine.TransientError{Op: op, Table: table, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}
	return nil
}

// checkToken fails fast when the bearer token is an expired JWT. Keys
// that are not JWTs (service keys) pass through unchecked; signature
// verification is the server's job.
func (c *Client) checkToken() error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if time.Now().After(exp.Time) {
		return fmt.Errorf("session token expired at %s", exp.Time.Format(time.RFC3339))
	}
	return nil
}

func opName(method string) string {
	switch method {
	case http.MethodPost:
		return "upsert"
	case http.MethodDelete:
		return "delete"
	default:
		return "list"
	}
}
