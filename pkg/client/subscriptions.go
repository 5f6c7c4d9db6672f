package client

import (
	"context"
	"fmt"
	"net/http"
)

// PushSubscriptionOpts is the struct given to the PushNotificationsSubscribe
// method
type PushSubscriptionOpts struct {
	Type        string `json:"type"`
	Token       string `json:"token"`
	PackageName string `json:"packageName,omitempty"`
}

// PushNotificationsSubscribe registers a device token for push notifications
// on wallet events.
func (c *Client) PushNotificationsSubscribe(
	ctx context.Context, opts PushSubscriptionOpts,
) error {
	return c.do(
		ctx, http.MethodPost, "/v1/pushnotifications/subscriptions/", opts, nil,
	)
}

// PushNotificationsUnsubscribe removes a previously registered device token.
func (c *Client) PushNotificationsUnsubscribe(
	ctx context.Context, token string,
) error {
	path := fmt.Sprintf("/v2/pushnotifications/subscriptions/%s", token)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// TxConfirmationSubscribe asks to be notified when the given transaction
// confirms.
func (c *Client) TxConfirmationSubscribe(
	ctx context.Context, txid string,
) error {
	path := fmt.Sprintf("/v1/txconfirmations/%s", txid)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// TxConfirmationUnsubscribe cancels a confirmation subscription.
func (c *Client) TxConfirmationUnsubscribe(
	ctx context.Context, txid string,
) error {
	path := fmt.Sprintf("/v1/txconfirmations/%s", txid)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
