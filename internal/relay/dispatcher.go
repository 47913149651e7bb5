package relay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"relaybot/internal/config"
	"relaybot/internal/gitlab"
	"relaybot/internal/types"
)

// TokenHeader is the shared-secret header GitLab attaches to webhook calls.
const TokenHeader = "X-Gitlab-Token"

// Fixed response bodies of the webhook endpoint. GitLab shows these in the
// hook delivery log, so the wording is part of the external contract.
const (
	bodySuccess        = "success"
	bodyNotFound       = "webhook not found"
	bodyEmptyToken     = "unauthorized (empty token)"
	bodyIncorrectToken = "unauthorized (incorrect token)"
	bodyUnknownEvent   = "unknown event"
	bodyUnknownIssue   = "unknown issue action"
	bodyUnknownMR      = "unknown mr action"
)

// RouteResolver is the read-only view of the routing table the dispatcher
// needs. Satisfied by *config.RoutingTable.
type RouteResolver interface {
	Lookup(identifier string) (config.Route, bool)
}

// Deliverer sends one rendered message to its chat destination. Satisfied
// by *onebot.Client. Implementations must not return errors: delivery is a
// best-effort side effect whose outcome is logged, never surfaced.
type Deliverer interface {
	Deliver(ctx context.Context, msg types.OutboundMessage) types.DeliveryOutcome
}

// Dispatcher authenticates inbound webhook requests against the routing
// table, classifies the event payload, and drives rendering and delivery.
// It holds no per-request state; one value serves all requests concurrently.
type Dispatcher struct {
	routes RouteResolver
	client Deliverer
	logger *slog.Logger
}

// NewDispatcher wires the dispatcher to its routing table and chat client.
func NewDispatcher(routes RouteResolver, client Deliverer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		routes: routes,
		client: client,
		logger: logger,
	}
}

// Handle processes one webhook request and returns the HTTP status and
// plain-text body for the caller.
//
// The decision ladder:
//  1. Unknown identifier: 404, nothing sent.
//  2. Configured secret, missing or wrong token: 401, nothing sent.
//  3. Unparseable payload: the parse diagnostic itself is rendered and
//     delivered to the route's destination, then 400. The diagnostic leak
//     into chat is deliberate: it is how operators discover misbehaving
//     hooks without access to the relay's logs.
//  4. Recognized event with an unrecognized issue/MR action: 400, nothing
//     sent. This is the only path that fails and skips the side effect.
//  5. Everything else: render, deliver, 200. The delivery outcome is
//     logged and discarded; it never changes the response.
func (d *Dispatcher) Handle(ctx context.Context, identifier, token string, body []byte) (int, string) {
	route, ok := d.routes.Lookup(identifier)
	if !ok {
		d.logger.Error("no webhook configured for identifier",
			"identifier", identifier,
		)
		return http.StatusNotFound, bodyNotFound
	}

	if !route.Secret.IsEmpty() {
		if token == "" {
			d.logger.Error("webhook called without token",
				"identifier", identifier,
			)
			return http.StatusUnauthorized, bodyEmptyToken
		}
		// Plain string equality, not constant-time: a known hardening gap
		// accepted to keep parity with the documented contract.
		if token != route.Secret.Unmask() {
			d.logger.Error("webhook called with incorrect token",
				"identifier", identifier,
			)
			return http.StatusUnauthorized, bodyIncorrectToken
		}
	}

	event, err := gitlab.Parse(body)
	switch {
	case errors.Is(err, gitlab.ErrUnknownIssueAction):
		d.logger.Warn("issue event carried unrecognized action",
			"identifier", identifier,
			"error", err,
		)
		return http.StatusBadRequest, bodyUnknownIssue

	case errors.Is(err, gitlab.ErrUnknownMergeRequestAction):
		d.logger.Warn("merge request event carried unrecognized action",
			"identifier", identifier,
			"error", err,
		)
		return http.StatusBadRequest, bodyUnknownMR

	case err != nil:
		d.logger.Warn("failed to parse event payload",
			"identifier", identifier,
			"error", err,
		)
		d.send(ctx, identifier, route, gitlab.UnrecognizedEvent{Reason: err.Error()})
		return http.StatusBadRequest, bodyUnknownEvent
	}

	d.send(ctx, identifier, route, event)
	return http.StatusOK, bodySuccess
}

// send renders the event and fires the best-effort delivery. The outcome is
// consumed here, by the required logging call, and nowhere else; callers
// compute their response independently of it.
func (d *Dispatcher) send(ctx context.Context, identifier string, route config.Route, event gitlab.Event) {
	msg := types.OutboundMessage{
		To:     route.To,
		Target: route.Target,
		Body:   Render(event),
	}

	outcome := d.client.Deliver(ctx, msg)
	if outcome.Success {
		attrs := []any{
			"identifier", identifier,
			"event", event.Kind(),
			"target", string(route.Target),
			"to", route.To,
		}
		if outcome.MessageID != nil {
			attrs = append(attrs, "message_id", *outcome.MessageID)
		}
		d.logger.Info("event relayed", attrs...)
		return
	}

	d.logger.Warn("event relay delivery failed",
		"identifier", identifier,
		"event", event.Kind(),
		"target", string(route.Target),
		"to", route.To,
	)
}

// ServeHTTP adapts Handle to the router: it extracts the identifier from
// the URL, the token header, and the raw body, and writes the plain-text
// response.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		d.logger.Warn("failed to read webhook body",
			"path", r.URL.Path,
			"error", err,
		)
		writeText(w, http.StatusBadRequest, bodyUnknownEvent)
		return
	}

	identifier := identifierFromPath(r)
	status, respBody := d.Handle(r.Context(), identifier, r.Header.Get(TokenHeader), body)
	writeText(w, status, respBody)
}
