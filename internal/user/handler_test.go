package user

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// makeApp injects a jwt.Token into locals when the X-User-ID header is
// provided, in place of the jwtware middleware. X-Role sets the role claim.
func makeApp(h *Handler) *fiber.App {
	app := fiber.New()
	h.RegisterPublicRoutes(app)
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			id, err := strconv.Atoi(v)
			if err == nil {
				claims := jwt.MapClaims{"user_id": id, "role": c.Get("X-Role")}
				c.Locals("user", &jwt.Token{Claims: claims})
			}
		}
		return c.Next()
	})
	app.Use(h.RequireActive())
	h.RegisterProtectedRoutes(app)
	h.RegisterAdminRoutes(app.Group("/api/v1/admin", RequireAdmin()))
	return app
}

func TestProfileRoute_RegistrationAndAuth(t *testing.T) {
	svc, _ := newService([]User{{ID: 7, Email: "j@example.com", FullName: "Jenny Test", Password: hash(t, "secret1")}})
	app := makeApp(NewHandler(svc, zap.NewNop()))

	routes := map[string]bool{}
	for _, grp := range app.Stack() {
		for _, r := range grp {
			routes[r.Path] = true
		}
	}
	for _, p := range []string{"/api/v1/profile", "/api/v1/profile/password", "/api/v1/auth/sign-in", "/api/v1/admin/customers"} {
		if !routes[p] {
			t.Fatalf("expected route %q to be registered", p)
		}
	}

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/profile", nil))
	if err != nil {
		t.Fatalf("profile request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected unauthorized status, got %d", res.StatusCode)
	}

	req := httptest.NewRequest("GET", "/api/v1/profile", nil)
	req.Header.Set("X-User-ID", "7")
	res, err = app.Test(req)
	if err != nil {
		t.Fatalf("authorized profile request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 OK for authorized profile, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	body := string(b)
	if !strings.Contains(body, "j@example.com") {
		t.Fatalf("response body does not contain expected email, got %s", body)
	}
	if strings.Contains(body, "password") {
		t.Fatalf("password hash must not be returned, got %s", body)
	}
}

func TestSignIn_Failures(t *testing.T) {
	svc, _ := newService([]User{{ID: 1, Email: "a@example.com", Password: hash(t, "secret1")}})
	app := makeApp(NewHandler(svc, zap.NewNop()))

	cases := []struct {
		body    string
		status  int
		failure string
	}{
		{`{"email":"x@example.com","password":"secret1"}`, fiber.StatusNotFound, "User not found"},
		{`{"email":"a@example.com","password":"nope"}`, fiber.StatusBadRequest, "Incorrect password"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("POST", "/api/v1/auth/sign-in", strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		res, err := app.Test(req)
		if err != nil {
			t.Fatalf("sign-in failed: %v", err)
		}
		var out map[string]any
		_ = json.NewDecoder(res.Body).Decode(&out)
		if res.StatusCode != tc.status || out["failure"] != tc.failure {
			t.Fatalf("expected %d %q, got %d %v", tc.status, tc.failure, res.StatusCode, out)
		}
	}

	req := httptest.NewRequest("POST", "/api/v1/auth/sign-in", strings.NewReader(`{"email":"a@example.com","password":"secret1"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	var out map[string]any
	_ = json.NewDecoder(res.Body).Decode(&out)
	if res.StatusCode != fiber.StatusOK || out["token"] == "" || out["token"] == nil {
		t.Fatalf("expected token, got %d %v", res.StatusCode, out)
	}
}

func TestAdminRoutes_RequireAdminRole(t *testing.T) {
	svc, _ := newService([]User{{ID: 1, Email: "a@example.com"}})
	app := makeApp(NewHandler(svc, zap.NewNop()))

	req := httptest.NewRequest("GET", "/api/v1/admin/customers", nil)
	req.Header.Set("X-User-ID", "1")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", res.StatusCode)
	}

	req = httptest.NewRequest("GET", "/api/v1/admin/customers?q=a%40", nil)
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("X-Role", "admin")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), `"isNext":false`) {
		t.Fatalf("expected paged body, got %s", b)
	}
}

func TestUpdatePassword_Mismatch(t *testing.T) {
	svc, _ := newService([]User{{ID: 1, Email: "a@example.com", Password: hash(t, "secret1")}})
	app := makeApp(NewHandler(svc, zap.NewNop()))

	req := httptest.NewRequest("PUT", "/api/v1/profile/password", strings.NewReader(`{"oldPassword":"secret1","newPassword":"secret2","confirmPassword":"other"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "1")
	res, _ := app.Test(req)
	var out map[string]any
	_ = json.NewDecoder(res.Body).Decode(&out)
	if res.StatusCode != fiber.StatusBadRequest || out["failure"] != "Passwords do not match" {
		t.Fatalf("expected mismatch failure, got %d %v", res.StatusCode, out)
	}
}

func TestUpdateProfile_IgnoresAvatarFields(t *testing.T) {
	svc, files := newService([]User{{ID: 7, Email: "j@example.com", Avatar: "/uploads/mine.png", AvatarKey: "mine.png"}})
	app := makeApp(NewHandler(svc, zap.NewNop()))

	for _, body := range []string{
		`{"avatarKey":"0b9a2f1e-1111-2222-3333-444455556666.png","avatar":"/uploads/x.png"}`,
		`{"avatarKey":"","fullName":"Jenny Test"}`,
	} {
		req := httptest.NewRequest("PATCH", "/api/v1/profile", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", "7")
		res, err := app.Test(req)
		if err != nil {
			t.Fatalf("patch profile: %v", err)
		}
		if res.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200, got %d", res.StatusCode)
		}
	}

	if len(files.deleted) != 0 {
		t.Fatalf("profile patch must not delete stored files, got %v", files.deleted)
	}
	u, _ := svc.Profile(context.Background(), 7)
	if u.AvatarKey != "mine.png" || u.FullName != "Jenny Test" {
		t.Fatalf("unexpected profile %+v", u)
	}
}

func TestDeletedAccount_TokenRejected(t *testing.T) {
	svc, _ := newService([]User{{ID: 7, Email: "j@example.com", Password: hash(t, "secret1")}})
	app := makeApp(NewHandler(svc, zap.NewNop()))

	req := httptest.NewRequest("DELETE", "/api/v1/profile", nil)
	req.Header.Set("X-User-ID", "7")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected delete to succeed, got %d", res.StatusCode)
	}

	for _, path := range []string{"/api/v1/profile", "/api/v1/admin/customers"} {
		req = httptest.NewRequest("GET", path, nil)
		req.Header.Set("X-User-ID", "7")
		req.Header.Set("X-Role", "admin")
		res, _ = app.Test(req)
		if res.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("%s: expected 401 for deleted account, got %d", path, res.StatusCode)
		}
	}
}
