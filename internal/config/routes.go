package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"relaybot/internal/types"
)

// Route binds one path identifier to a chat destination. Routes are
// immutable after load; the dispatcher only borrows them per request.
type Route struct {
	// To is the destination chat ID: a group ID or a user ID depending
	// on Target.
	To int64

	// Target selects the outbound payload shape and endpoint.
	Target types.TargetKind

	// Secret, when non-empty, must match the X-Gitlab-Token header of
	// every request for this identifier.
	Secret types.SecretString
}

// RoutingTable is the static identifier → Route mapping. It is built once
// at startup and read-only thereafter, so concurrent request handling
// needs no locking.
type RoutingTable struct {
	routes map[string]Route
}

// Lookup returns the route for an identifier, if one is configured.
func (t *RoutingTable) Lookup(identifier string) (Route, bool) {
	r, ok := t.routes[identifier]
	return r, ok
}

// Len returns the number of configured routes.
func (t *RoutingTable) Len() int {
	return len(t.routes)
}

// Identifiers returns the configured identifiers in sorted order, for
// startup logging.
func (t *RoutingTable) Identifiers() []string {
	ids := make([]string, 0, len(t.routes))
	for id := range t.routes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// routeSpec is the wire form of one route in the JSON document:
//
//	{"ci": {"target": "group", "to": 123456789, "secret": "tok"}}
type routeSpec struct {
	Target string             `json:"target" validate:"required,oneof=group private"`
	To     int64              `json:"to" validate:"required"`
	Secret types.SecretString `json:"secret"`
}

// LoadRoutes builds the routing table from the configured source. Inline
// JSON (WEBHOOK_ROUTES) wins over the routes file; an empty table is a
// startup error because a relay with no routes can only ever answer 404.
func LoadRoutes(cfg RoutesConfig) (*RoutingTable, error) {
	raw, source, err := readRoutesDocument(cfg)
	if err != nil {
		return nil, err
	}

	var specs map[string]routeSpec
	if err := json.Unmarshal(raw, &specs); err != nil {
		return nil, &ConfigError{
			Type:    ErrRoutes,
			Message: fmt.Sprintf("failed to decode routing table from %s", source),
			Err:     err,
		}
	}
	if len(specs) == 0 {
		return nil, &ConfigError{
			Type:    ErrRoutes,
			Message: fmt.Sprintf("routing table from %s is empty", source),
		}
	}

	validate := validator.New()
	routes := make(map[string]Route, len(specs))
	for identifier, spec := range specs {
		if strings.TrimSpace(identifier) == "" {
			return nil, &ConfigError{
				Type:    ErrRoutes,
				Message: "routing table contains an empty identifier",
			}
		}
		if err := validate.Struct(spec); err != nil {
			return nil, &ConfigError{
				Type:    ErrRoutes,
				Message: fmt.Sprintf("route %q is invalid", identifier),
				Err:     err,
			}
		}

		target, err := types.ParseTargetKind(spec.Target)
		if err != nil {
			// Unreachable after validation, kept as a guard.
			return nil, &ConfigError{
				Type:    ErrRoutes,
				Message: fmt.Sprintf("route %q is invalid", identifier),
				Err:     err,
			}
		}

		routes[identifier] = Route{
			To:     spec.To,
			Target: target,
			Secret: spec.Secret,
		}
	}

	return &RoutingTable{routes: routes}, nil
}

// readRoutesDocument resolves the raw JSON document, preferring inline
// configuration over the file.
func readRoutesDocument(cfg RoutesConfig) (raw []byte, source string, err error) {
	if strings.TrimSpace(cfg.Inline) != "" {
		return []byte(cfg.Inline), "WEBHOOK_ROUTES", nil
	}

	raw, readErr := os.ReadFile(cfg.File)
	if readErr != nil {
		return nil, "", &ConfigError{
			Type:    ErrRoutes,
			Message: fmt.Sprintf("failed to read routes file %q", cfg.File),
			Err:     readErr,
		}
	}
	return raw, fmt.Sprintf("file %q", cfg.File), nil
}
