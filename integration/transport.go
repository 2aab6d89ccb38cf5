package integration

import (
	"context"
	"encoding/json"
)

/* Small, focused interfaces following "The Go Way"
 * The registry only needs something that can call an endpoint and
 * something that can deliver a webhook
 */

// Sender performs one logical call to an endpoint, retries included
type Sender interface {
	/* Send issues POST with payload as JSON body when payload != nil, GET otherwise
	 * Returns the decoded JSON response or the error of the last attempt
	 */
	Send(ctx context.Context, cfg EndpointConfig, payload any) (json.RawMessage, error)
}

// Notifier delivers webhook notifications
type Notifier interface {
	Notify(ctx context.Context, cfg EndpointConfig, event string, data any) error
}

// Transport is what a Registry needs from the network
type Transport interface {
	Sender
	Notifier
}
