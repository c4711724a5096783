package transaction

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wichananm65/storefront/internal/user"
)

func setupApp(f fixture) *fiber.App {
	h := NewHandler(f.svc, zap.NewNop())

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": id, "role": c.Get("X-Role")}})
			}
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	h.RegisterAdminRoutes(app.Group("/api/v1/admin", user.RequireAdmin()))
	return app
}

func do(t *testing.T, app *fiber.App, method, url, userID, role string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, url, nil)
	req.Header.Set("X-User-ID", userID)
	req.Header.Set("X-Role", role)
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	var body map[string]any
	_ = json.NewDecoder(res.Body).Decode(&body)
	return res.StatusCode, body
}

func TestGetTransactions_OwnOnly(t *testing.T) {
	app := setupApp(newFixture(
		tx(1, 7, StatePending, 500),
		tx(2, 8, StatePaid, 900),
		tx(3, 7, StatePaid, 300),
	))

	code, body := do(t, app, "GET", "/api/v1/dashboard/transactions", "7", "")
	require.Equal(t, fiber.StatusOK, code)
	items, _ := body["items"].([]any)
	assert.Len(t, items, 2)
	assert.Equal(t, false, body["isNext"])

	code, _ = do(t, app, "GET", "/api/v1/dashboard/transactions", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, code)
}

func TestAdminTransactions(t *testing.T) {
	app := setupApp(newFixture(
		tx(1, 7, StatePending, 500),
		tx(2, 8, StatePaid, 900),
		tx(3, 7, StatePaid, 300),
	))

	code, _ := do(t, app, "GET", "/api/v1/admin/transactions", "7", "")
	assert.Equal(t, fiber.StatusForbidden, code)

	code, body := do(t, app, "GET", "/api/v1/admin/transactions", "1", "admin")
	require.Equal(t, fiber.StatusOK, code)
	items, _ := body["items"].([]any)
	assert.Len(t, items, 3)
	assert.EqualValues(t, 1200, body["total"])
}

func TestCancel_Handler(t *testing.T) {
	f := newFixture(
		tx(1, 7, StatePending, 500),
		tx(2, 8, StatePaid, 900),
		tx(3, 7, StatePendingCanceled, 300),
	)
	app := setupApp(f)

	code, _ := do(t, app, "POST", "/api/v1/dashboard/transactions/2/cancel", "7", "")
	assert.Equal(t, fiber.StatusNotFound, code, "other user's payment")

	code, body := do(t, app, "POST", "/api/v1/dashboard/transactions/1/cancel", "7", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.EqualValues(t, 200, body["status"])

	code, body = do(t, app, "POST", "/api/v1/dashboard/transactions/3/cancel", "7", "")
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "Invalid transaction state", body["failure"])

	f.refunder.err = errors.New("gateway down")
	code, _ = do(t, app, "POST", "/api/v1/admin/transactions/2/cancel", "1", "admin")
	assert.Equal(t, fiber.StatusBadGateway, code)

	f.refunder.err = nil
	code, _ = do(t, app, "POST", "/api/v1/admin/transactions/2/cancel", "1", "admin")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, []string{"chrg_c"}, f.refunder.charges)

	code, _ = do(t, app, "POST", "/api/v1/admin/transactions/99/cancel", "1", "admin")
	assert.Equal(t, fiber.StatusNotFound, code)
}
