package ubereats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Address is the resolved delivery location.
type Address struct {
	// Line1 is the first address line, as shown to users.
	Line1 string
}

// Candidate is one store returned by [Client.SearchStores].
type Candidate struct {
	ID    string
	Title string
	Image string
}

// StoreDetail is the current remote state of one store.
type StoreDetail struct {
	ID    string
	Title string
	Image string
	State string
}

// ResolveAddress resolves the configured delivery place and stores the
// result in the session as the location cookie.
//
// Returns [ErrAddressNotFound] when the API does not report success. Later
// requests on the same Client rely on the cookie for region-correct results.
func (c *Client) ResolveAddress(ctx context.Context) (Address, error) {
	env, err := c.post(ctx, "getDeliveryLocationV1", url.Values{
		"placeId":  {c.placeID},
		"provider": {"google_places"},
	})
	if err != nil {
		return Address{}, err
	}
	if !env.ok() {
		return Address{}, fmt.Errorf("place %q: %w", c.placeID, ErrAddressNotFound)
	}

	c.setLocationCookie(env.Data)

	var data struct {
		Address struct {
			Address1 string `json:"address1"`
		} `json:"address"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return Address{}, fmt.Errorf("address payload: %w: %v", ErrMalformedResponse, err)
	}

	return Address{Line1: data.Address.Address1}, nil
}

// SearchStores returns the store suggestions for query, in API order.
//
// Suggestions that are not stores (cuisines, dishes) are skipped. An empty
// result is not an error.
func (c *Client) SearchStores(ctx context.Context, query string) ([]Candidate, error) {
	env, err := c.post(ctx, "getSearchSuggestionsV1", url.Values{
		"userQuery": {query},
		"vertical":  {"ALL"},
	})
	if err != nil {
		return nil, err
	}
	if !env.ok() {
		return nil, fmt.Errorf("search %q: %w", query, ErrNotSuccess)
	}

	var suggestions []struct {
		Store *struct {
			UUID         string `json:"uuid"`
			Title        string `json:"title"`
			HeroImageURL string `json:"heroImageUrl"`
		} `json:"store"`
	}
	if err := json.Unmarshal(env.Data, &suggestions); err != nil {
		return nil, fmt.Errorf("search payload: %w: %v", ErrMalformedResponse, err)
	}

	candidates := make([]Candidate, 0, len(suggestions))
	for _, s := range suggestions {
		if s.Store == nil || s.Store.UUID == "" {
			continue
		}
		candidates = append(candidates, Candidate{
			ID:    s.Store.UUID,
			Title: s.Store.Title,
			Image: s.Store.HeroImageURL,
		})
	}
	return candidates, nil
}

// FetchStore returns the current detail of a store.
//
// Returns [ErrNotSuccess] when the API does not report success, and
// [ErrMalformedResponse] when the title, hero image or availability state
// is missing.
func (c *Client) FetchStore(ctx context.Context, id string) (StoreDetail, error) {
	env, err := c.post(ctx, "getStoreV1", url.Values{
		"storeUuid": {id},
	})
	if err != nil {
		return StoreDetail{}, err
	}
	if !env.ok() {
		return StoreDetail{}, fmt.Errorf("store %s: %w", id, ErrNotSuccess)
	}

	var data any
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return StoreDetail{}, fmt.Errorf("store %s payload: %w: %v", id, ErrMalformedResponse, err)
	}

	title, ok := lookupString(data, c.fields.Title)
	if !ok {
		return StoreDetail{}, fmt.Errorf("store %s: %w: no %q", id, ErrMalformedResponse, c.fields.Title)
	}
	state, ok := lookupString(data, c.fields.Status)
	if !ok {
		return StoreDetail{}, fmt.Errorf("store %s: %w: no %q", id, ErrMalformedResponse, c.fields.Status)
	}
	image, ok := lookupString(data, c.fields.Image)
	if !ok {
		return StoreDetail{}, fmt.Errorf("store %s: %w: no %q", id, ErrMalformedResponse, c.fields.Image)
	}

	return StoreDetail{ID: id, Title: title, Image: image, State: state}, nil
}
