package pipedrive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Person is a Pipedrive person record as returned by the API.
type Person map[string]interface{}

// ID returns the person's id rendered for use in a URL path, or "" if the
// record carries none.
func (p Person) ID() string {
	switch v := p["id"].(type) {
	case json.Number:
		return v.String()
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case int:
		return fmt.Sprint(v)
	}
	return ""
}

// searchResponse is the /persons/search envelope.
type searchResponse struct {
	Data *struct {
		Items []struct {
			Item Person `json:"item"`
		} `json:"items"`
	} `json:"data"`
}

// dataResponse is the envelope returned by create and update.
type dataResponse struct {
	Data Person `json:"data"`
}

// SearchPersons looks up persons matching term and returns the first hit,
// or nil if there is none. Later hits and further pages are never looked
// at.
func (c *Client) SearchPersons(ctx context.Context, term string) (Person, error) {
	body, err := c.Get(ctx, "/persons/search", url.Values{"term": {term}})
	if err != nil {
		return nil, err
	}
	var resp searchResponse
	if err := decode(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	if resp.Data == nil || len(resp.Data.Items) == 0 {
		return nil, nil
	}
	first := resp.Data.Items[0].Item
	if len(first) == 0 {
		return nil, nil
	}
	return first, nil
}

// UpdatePerson applies payload to the person with the given id.
func (c *Client) UpdatePerson(ctx context.Context, id string, payload interface{}) (Person, error) {
	body, err := c.Put(ctx, "/persons/"+url.PathEscape(id), payload)
	if err != nil {
		return nil, err
	}
	var resp dataResponse
	if err := decode(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing update response: %w", err)
	}
	return resp.Data, nil
}

// CreatePerson creates a new person from payload.
func (c *Client) CreatePerson(ctx context.Context, payload interface{}) (Person, error) {
	body, err := c.Post(ctx, "/persons", payload)
	if err != nil {
		return nil, err
	}
	var resp dataResponse
	if err := decode(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing create response: %w", err)
	}
	return resp.Data, nil
}

func decode(body []byte, dest interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(dest)
}
