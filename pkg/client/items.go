package client

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Item mirrors the server-side record.
type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Category    *string   `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemPayload carries the four writable fields of an item.
type ItemPayload struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Category    *string  `json:"category,omitempty"`
}

// ListItems returns all items. The result is always a non-nil slice,
// whether the server replies with a bare array, a {"data": [...]} wrapper,
// or something empty.
func (c *Client) ListItems(ctx context.Context) ([]Item, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/items", nil, &raw); err != nil {
		return nil, err
	}

	var items []Item
	if err := json.Unmarshal(raw, &items); err == nil && items != nil {
		return items, nil
	}

	var wrapper struct {
		Data []Item `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.Data != nil {
		return wrapper.Data, nil
	}

	return []Item{}, nil
}

func (c *Client) GetItem(ctx context.Context, id string) (Item, error) {
	var item Item
	if err := c.do(ctx, http.MethodGet, "/items/"+id, nil, &item); err != nil {
		return Item{}, err
	}
	return item, nil
}

func (c *Client) CreateItem(ctx context.Context, payload ItemPayload) (Item, error) {
	var item Item
	if err := c.do(ctx, http.MethodPost, "/items", payload, &item); err != nil {
		return Item{}, err
	}
	return item, nil
}

func (c *Client) UpdateItem(ctx context.Context, id string, payload ItemPayload) (Item, error) {
	var item Item
	if err := c.do(ctx, http.MethodPut, "/items/"+id, payload, &item); err != nil {
		return Item{}, err
	}
	return item, nil
}

func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/items/"+id, nil, nil)
}
