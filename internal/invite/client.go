package invite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// URL is the invite-info endpoint polled by the exporter.
const URL = "https://discord.com/api/v10/invites/minecraft?with_counts=true"

const userAgent = "guild-metrics (+https://discord.com/invite/minecraft)"

// Info is the decoded subset of an invite-info response.
type Info struct {
	MemberCount   int64
	PresenceCount int64
	BoostCount    int64
}

// Kind classifies a fetch failure.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

var (
	ErrNetwork = errors.New("invite: network error")
	ErrDecode  = errors.New("invite: decode error")
)

// FetchError is returned by Client.Fetch.
type FetchError struct {
	Kind Kind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel matching the error kind.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrDecode:
		return e.Kind == KindDecode
	}
	return false
}

// Client fetches invite info from a single endpoint.
// It performs exactly one request per Fetch. No retries.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates a client for url. A non-positive timeout disables the per-request limit.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

type wireGuild struct {
	PremiumSubscriptionCount *int64 `json:"premium_subscription_count"`
}

type wireInvite struct {
	Guild                    *wireGuild `json:"guild"`
	ApproximateMemberCount   *int64     `json:"approximate_member_count"`
	ApproximatePresenceCount *int64     `json:"approximate_presence_count"`
}

// Fetch issues one GET request and decodes the body.
//
// The status code is not checked before decoding; a non-2xx response
// only fails if its body does not decode.
func (c *Client) Fetch(ctx context.Context) (Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Info{}, &FetchError{Kind: KindNetwork, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return Info{}, &FetchError{Kind: KindNetwork, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	info, err := decode(resp.Body)
	if err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			err = fmt.Errorf("status %d: %w", resp.StatusCode, err)
		}
		return Info{}, &FetchError{Kind: KindDecode, Err: err}
	}
	return info, nil
}

func decode(r io.Reader) (Info, error) {
	var w wireInvite
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return Info{}, fmt.Errorf("decode body: %w", err)
	}

	switch {
	case w.Guild == nil:
		return Info{}, errors.New("missing field guild")
	case w.Guild.PremiumSubscriptionCount == nil:
		return Info{}, errors.New("missing field guild.premium_subscription_count")
	case w.ApproximateMemberCount == nil:
		return Info{}, errors.New("missing field approximate_member_count")
	case w.ApproximatePresenceCount == nil:
		return Info{}, errors.New("missing field approximate_presence_count")
	}

	return Info{
		MemberCount:   *w.ApproximateMemberCount,
		PresenceCount: *w.ApproximatePresenceCount,
		BoostCount:    *w.Guild.PremiumSubscriptionCount,
	}, nil
}
