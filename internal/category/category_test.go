package category

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestValid(t *testing.T) {
	if Valid(All) {
		t.Fatalf("All must not be assignable")
	}
	if !Valid("Books") || Valid("books") || Valid("Toys") {
		t.Fatalf("unexpected validity result")
	}
}

func TestNormalizeAndTranslate(t *testing.T) {
	if got := Normalize("Kitoblar"); got != "Books" {
		t.Fatalf("expected Books, got %q", got)
	}
	if got := Normalize(" t-shirts "); got != "T-Shirts" {
		t.Fatalf("expected T-Shirts, got %q", got)
	}
	if got := Translate("Shoes", "uz"); got != "Poyabzal" {
		t.Fatalf("expected Poyabzal, got %q", got)
	}
	if got := Translate("Poyabzal", "en"); got != "Shoes" {
		t.Fatalf("expected Shoes, got %q", got)
	}
}

func TestGetCategories(t *testing.T) {
	app := fiber.New()
	NewHandler().RegisterPublicRoutes(app)

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/categories?lang=uz", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var out []categoryResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 7 || out[0].Name != All || out[0].Label != "Barchasi" {
		t.Fatalf("unexpected categories %+v", out)
	}
}
