package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/chrisdamba/partnerconsole/internal/models"
)

func (c *Client) Orders(ctx context.Context) ([]models.Order, error) {
	var env struct {
		Orders []models.Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/delivery/orders", nil, &env); err != nil {
		return nil, err
	}
	return env.Orders, nil
}

func (c *Client) History(ctx context.Context) ([]models.Order, error) {
	var env struct {
		History []models.Order `json:"history"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/delivery/history", nil, &env); err != nil {
		return nil, err
	}
	return env.History, nil
}

func (c *Client) AcceptOrder(ctx context.Context, orderID string) error {
	return c.do(ctx, http.MethodPut, "/api/delivery/accept/"+url.PathEscape(orderID), nil, nil)
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	body := map[string]models.OrderStatus{"status": status}
	return c.do(ctx, http.MethodPut, "/api/delivery/status/"+url.PathEscape(orderID), body, nil)
}

func (c *Client) ToggleAvailability(ctx context.Context, partnerID string, available bool) error {
	if partnerID == "" {
		return fmt.Errorf("toggle availability: partner id is empty")
	}
	body := map[string]bool{"isAvailable": available}
	return c.do(ctx, http.MethodPut, "/api/delivery/toggle/"+url.PathEscape(partnerID), body, nil)
}

func (c *Client) UpdateLocation(ctx context.Context, loc models.Location) error {
	return c.do(ctx, http.MethodPut, "/api/delivery/location", loc, nil)
}

func (c *Client) Incentives(ctx context.Context) ([]models.Incentive, error) {
	var env struct {
		Incentives []models.Incentive `json:"incentives"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/delivery/incentives", nil, &env); err != nil {
		return nil, err
	}
	return env.Incentives, nil
}
