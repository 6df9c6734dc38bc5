// Package mcpgate enforces the read/administrative tier split at the
// tool-dispatch boundary, outside the core. Administrative tools are
// gated by a deployment-level switch rather than a per-call credential,
// mirroring the reference's own scope check: when the switch is off, the
// gate is a no-op.
package mcpgate

import (
	"os"

	"github.com/patrickwarner/sponsorstream-match/internal/apperr"
)

// RequireAdminScope enforces the administrative tier. When
// REQUIRE_ADMIN_KEY is unset or "false" the gate is open, matching the
// reference's default-permissive posture for local/dev deployments. When
// set, MCP_ADMIN_KEY must also be present in the process environment.
func RequireAdminScope() error {
	if os.Getenv("REQUIRE_ADMIN_KEY") != "true" {
		return nil
	}
	if os.Getenv("MCP_ADMIN_KEY") == "" {
		return apperr.New(apperr.PermissionDenied, "administrative tools require MCP_ADMIN_KEY")
	}
	return nil
}
