package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/StoreKeel/StoreKeel/internal/pkg/env"
)

// IsInPrivilegedIpList reports whether the remote address exact-matches an
// entry of the comma-separated PRIVILEGED_IPS configuration value.
func IsInPrivilegedIpList(remoteIP string) bool {
	remote := strings.TrimSpace(remoteIP)
	if remote == "" {
		return false
	}
	for _, entry := range strings.Split(env.GetEnv("PRIVILEGED_IPS", ""), ",") {
		if e := strings.TrimSpace(entry); e != "" && e == remote {
			return true
		}
	}
	return false
}

// IsPrivilegedRequest reports whether the request comes from a privileged
// address: a loopback/local call (remote address equals the local address) is
// always privileged regardless of the configured list.
func IsPrivilegedRequest(c *fiber.Ctx) bool {
	remote := c.Context().RemoteIP().String()
	local := c.Context().LocalIP().String()
	if remote != "" && remote == local {
		return true
	}
	return IsInPrivilegedIpList(remote)
}

// RequirePrivilegedIP denies non-privileged callers with 401. Denial is an
// unauthorized outcome, not a redirect.
func RequirePrivilegedIP(c *fiber.Ctx) error {
	if !IsPrivilegedRequest(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "caller address is not privileged",
		})
	}
	return c.Next()
}
