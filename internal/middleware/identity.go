package middleware

// identity.go provides a userID extraction helper shared across handlers
// that need the caller's identity for an audit entry rather than tenant
// scoping. JWTAuth stores the token's "sub" claim under the "user_id" key;
// this reads it back. When no token is present (or the claim is absent),
// "guest" is returned.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// UserID extracts the authenticated caller's identifier from the Echo
// context, as set by JWTAuth. The "sub" claim round-trips through JSON as
// a float64, so numeric and string forms are both accepted. Returns
// "guest" when no user is authenticated.
func UserID(c echo.Context) string {
    switch v := c.Get("user_id").(type) {
    case string:
        if v != "" {
            return v
        }
    case float64:
        return strconv.FormatInt(int64(v), 10)
    }
    return "guest"
}