package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/wichananm65/storefront/internal/events"
	"github.com/wichananm65/storefront/internal/listing"
	"github.com/wichananm65/storefront/internal/user"
)

func seedOrders() []Order {
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id, userID int, title string, status Status) Order {
		return Order{
			ID: id, UserID: userID, ProductID: id, Price: 1000, Status: status,
			CreatedAt: base.Add(time.Duration(id) * time.Hour),
			Product:   &ProductRef{ID: id, Title: title},
			User:      &UserRef{ID: userID, Email: "u" + strconv.Itoa(userID) + "@example.com"},
		}
	}
	return []Order{
		mk(1, 7, "Red Shoes", StatusPending),
		mk(2, 7, "Go Book", StatusPaid),
		mk(3, 8, "Hat", StatusPaid),
		mk(4, 7, "Blue Shoes", StatusCompleted),
	}
}

func setupApp() (*fiber.App, *events.Recorder) {
	pub := &events.Recorder{}
	svc := NewService(NewInMemoryRepository(seedOrders()), pub, zap.NewNop(), 10)
	h := NewHandler(svc, zap.NewNop())

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
	return app, pub
}

func getOrders(t *testing.T, app *fiber.App, url, userID, role string) listing.Page[Order] {
	t.Helper()
	req := httptest.NewRequest("GET", url, nil)
	req.Header.Set("X-User-ID", userID)
	req.Header.Set("X-Role", role)
	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != 200 {
		t.Fatalf("expected 200 got %d", res.StatusCode)
	}
	var page listing.Page[Order]
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return page
}

func TestGetOrders_OwnOnly(t *testing.T) {
	app, _ := setupApp()

	page := getOrders(t, app, "/api/v1/dashboard/orders", "7", "")
	if len(page.Items) != 3 {
		t.Fatalf("expected 3 own orders, got %d", len(page.Items))
	}
	if page.Items[0].ID != 4 || page.Items[0].Product == nil || page.Items[0].User != nil {
		t.Errorf("unexpected first order %+v", page.Items[0])
	}

	page = getOrders(t, app, "/api/v1/dashboard/orders?q=shoes&filter=oldest", "7", "")
	if len(page.Items) != 2 || page.Items[0].ID != 1 {
		t.Errorf("unexpected search result %+v", page.Items)
	}
}

func TestAdminOrders_AllWithCustomer(t *testing.T) {
	app, _ := setupApp()

	req := httptest.NewRequest("GET", "/api/v1/admin/orders", nil)
	req.Header.Set("X-User-ID", "7")
	res, _ := app.Test(req, -1)
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", res.StatusCode)
	}

	page := getOrders(t, app, "/api/v1/admin/orders", "1", "admin")
	if len(page.Items) != 4 || page.Items[0].User == nil {
		t.Fatalf("expected all orders with customers, got %+v", page.Items)
	}
}

func patchStatus(t *testing.T, app *fiber.App, id, status string) int {
	t.Helper()
	req := httptest.NewRequest("PATCH", "/api/v1/admin/orders/"+id, strings.NewReader(`{"status":"`+status+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("X-Role", "admin")
	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return res.StatusCode
}

func TestUpdateStatus_Transitions(t *testing.T) {
	app, pub := setupApp()

	if code := patchStatus(t, app, "1", "completed"); code != fiber.StatusConflict {
		t.Errorf("pending -> completed: expected 409, got %d", code)
	}
	if code := patchStatus(t, app, "2", "shipped"); code != fiber.StatusBadRequest {
		t.Errorf("unknown status: expected 400, got %d", code)
	}
	if code := patchStatus(t, app, "2", "completed"); code != fiber.StatusOK {
		t.Errorf("paid -> completed: expected 200, got %d", code)
	}
	if code := patchStatus(t, app, "4", "canceled"); code != fiber.StatusConflict {
		t.Errorf("completed is final: expected 409, got %d", code)
	}
	if code := patchStatus(t, app, "1", "paid"); code != fiber.StatusConflict {
		t.Errorf("paid is set by payments only: expected 409, got %d", code)
	}
	if code := patchStatus(t, app, "99", "canceled"); code != fiber.StatusNotFound {
		t.Errorf("missing order: expected 404, got %d", code)
	}

	sent := pub.Sent()
	if len(sent) != 1 || sent[0] != events.RKOrderStatusChanged {
		t.Errorf("expected one status event, got %v", sent)
	}
}

type fakePayments struct {
	svc      *Service
	err      error
	canceled []int
}

func (f *fakePayments) CancelOrderPayment(ctx context.Context, orderID int) error {
	if f.err != nil {
		return f.err
	}
	f.canceled = append(f.canceled, orderID)
	_, err := f.svc.UpdateStatus(ctx, orderID, StatusCanceled)
	return err
}

func TestAdminCancel_GoesThroughPayment(t *testing.T) {
	svc := NewService(NewInMemoryRepository(seedOrders()), &events.Recorder{}, zap.NewNop(), 10)
	payments := &fakePayments{svc: svc}
	svc.SetPayments(payments)
	ctx := context.Background()

	got, err := svc.AdminUpdateStatus(ctx, 2, StatusCanceled)
	if err != nil || got.Status != StatusCanceled {
		t.Fatalf("expected canceled order, got %+v %v", got, err)
	}
	if len(payments.canceled) != 1 || payments.canceled[0] != 2 {
		t.Fatalf("expected payment of order 2 canceled, got %v", payments.canceled)
	}

	if _, err := svc.AdminUpdateStatus(ctx, 4, StatusCanceled); !errors.Is(err, ErrStatusTransition) {
		t.Fatalf("completed order: expected ErrStatusTransition, got %v", err)
	}
	if len(payments.canceled) != 1 {
		t.Fatalf("final orders must not reach payments, got %v", payments.canceled)
	}

	payments.err = ErrRefundFailed
	if _, err := svc.AdminUpdateStatus(ctx, 3, StatusCanceled); !errors.Is(err, ErrRefundFailed) {
		t.Fatalf("expected ErrRefundFailed, got %v", err)
	}
	if o, _ := svc.GetByID(ctx, 3); o.Status != StatusPaid {
		t.Fatalf("failed refund must leave the order paid, got %s", o.Status)
	}

	payments.err = ErrNoPayment
	got, err = svc.AdminUpdateStatus(ctx, 1, StatusCanceled)
	if err != nil || got.Status != StatusCanceled {
		t.Fatalf("order without payment: expected canceled, got %+v %v", got, err)
	}
}

func TestStatus_CanMove(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCanceled, true},
		{StatusPending, StatusCompleted, false},
		{StatusPaid, StatusCompleted, true},
		{StatusCanceled, StatusPaid, false},
		{StatusCompleted, StatusPending, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanMove(tc.to); got != tc.want {
			t.Errorf("%s -> %s: got %v want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
