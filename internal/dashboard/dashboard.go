package dashboard

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wichananm65/storefront/internal/httpx"
	"github.com/wichananm65/storefront/internal/user"
)

// Counter counts the records owned by a user.
type Counter interface {
	Count(ctx context.Context, userID int) (int, error)
}

type Statistics struct {
	TotalOrders       int `json:"totalOrders"`
	TotalTransactions int `json:"totalTransactions"`
	TotalFavourites   int `json:"totalFavourites"`
}

type Service struct {
	orders       Counter
	transactions Counter
	favorites    Counter
}

func NewService(orders, transactions, favorites Counter) *Service {
	return &Service{orders: orders, transactions: transactions, favorites: favorites}
}

func (s *Service) Statistics(ctx context.Context, userID int) (Statistics, error) {
	var (
		st  Statistics
		err error
	)
	if st.TotalOrders, err = s.orders.Count(ctx, userID); err != nil {
		return Statistics{}, fmt.Errorf("count orders: %w", err)
	}
	if st.TotalTransactions, err = s.transactions.Count(ctx, userID); err != nil {
		return Statistics{}, fmt.Errorf("count transactions: %w", err)
	}
	if st.TotalFavourites, err = s.favorites.Count(ctx, userID); err != nil {
		return Statistics{}, fmt.Errorf("count favorites: %w", err)
	}
	return st, nil
}

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(s *Service, log *zap.Logger) *Handler {
	return &Handler{service: s, log: log}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/dashboard/statistics", h.statistics)
}

func (h *Handler) statistics(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	st, err := h.service.Statistics(c.UserContext(), userID)
	if err != nil {
		return httpx.Internal(c, h.log, err)
	}
	return c.JSON(st)
}
