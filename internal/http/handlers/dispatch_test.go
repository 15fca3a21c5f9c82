package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"tallybot/internal/http/handlers"
	"tallybot/internal/repos"
	"tallybot/internal/services"
)

const testPassword = "letmein"

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := repos.OpenDB(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.DefaultCost)
	if err != nil {
		t.Fatal(err)
	}
	auth := &services.AuthService{Repo: repos.NewAuthRepo(db), PasswordHash: hash}
	deps := handlers.NewDeps(db, auth)

	app := fiber.New()
	app.Post("/conversations/:conversation/commands", deps.Commands.Dispatch)
	app.Get("/export.xlsx", handlers.RequireAccess(deps.Auth), deps.Export.Download)
	return app
}

func command(t *testing.T, app *fiber.App, conversation, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("POST", "/conversations/"+conversation+"/commands", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("test request failed: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("bad response body %q: %v", raw, err)
	}
	return resp.StatusCode, out
}

func authorize(t *testing.T, app *fiber.App, conversation string) {
	t.Helper()
	code, body := command(t, app, conversation, `{"kind":"authorize","password":"`+testPassword+`"}`)
	if code != http.StatusOK || body["type"] != "authorized" {
		t.Fatalf("authorize failed: %d %v", code, body)
	}
}

func TestGateBlocksUnknownConversations(t *testing.T) {
	app := newApp(t)

	code, body := command(t, app, "c1", `{"kind":"inventory"}`)
	if code != http.StatusUnauthorized || body["type"] != "unauthorized" {
		t.Fatalf("want 401 unauthorized, got %d %v", code, body)
	}

	code, _ = command(t, app, "c1", `{"kind":"authorize","password":"nope"}`)
	if code != http.StatusUnauthorized {
		t.Fatalf("wrong password: want 401, got %d", code)
	}

	authorize(t, app, "c1")
	code, _ = command(t, app, "c1", `{"kind":"inventory"}`)
	if code != http.StatusOK {
		t.Fatalf("authorized inventory: want 200, got %d", code)
	}

	// The gate is per conversation.
	code, _ = command(t, app, "c2", `{"kind":"inventory"}`)
	if code != http.StatusUnauthorized {
		t.Fatalf("other conversation must stay blocked, got %d", code)
	}
}

func TestPurchaseCaptureOverHTTP(t *testing.T) {
	app := newApp(t)
	authorize(t, app, "c1")

	code, body := command(t, app, "c1", `{"kind":"start_purchase"}`)
	if code != http.StatusOK || body["field"] != "date" {
		t.Fatalf("want date prompt, got %d %v", code, body)
	}

	submit := func(text, wantField string) {
		t.Helper()
		code, body := command(t, app, "c1", `{"kind":"submit_field","text":"`+text+`"}`)
		if code != http.StatusOK || body["field"] != wantField {
			t.Fatalf("submit %q: want field %q, got %d %v", text, wantField, code, body)
		}
	}
	submit("10.01.2024", "name")
	submit("jacket", "color")
	submit("black", "size")
	submit("m", "quantity")

	// Invalid input re-prompts the same field with an error.
	code, body = command(t, app, "c1", `{"kind":"submit_field","text":"lots"}`)
	if code != http.StatusOK || body["field"] != "quantity" || body["error"] == nil {
		t.Fatalf("want quantity re-prompt, got %d %v", code, body)
	}
	submit("10", "price")

	code, body = command(t, app, "c1", `{"kind":"submit_field","text":"100"}`)
	if code != http.StatusOK || body["type"] != "purchase_recorded" {
		t.Fatalf("want purchase_recorded, got %d %v", code, body)
	}
	batch := body["batch"].(map[string]any)
	if batch["total_cost"] != "1000.00" || batch["remaining"] != float64(10) {
		t.Fatalf("batch view wrong: %v", batch)
	}
}

func TestSaleCaptureOverHTTP(t *testing.T) {
	app := newApp(t)
	authorize(t, app, "c1")

	// Selling with nothing in stock is an empty state, not an error.
	code, body := command(t, app, "c1", `{"kind":"start_sale"}`)
	if code != http.StatusOK || body["type"] != "empty" {
		t.Fatalf("want empty state, got %d %v", code, body)
	}

	// Put one unit in stock.
	command(t, app, "c1", `{"kind":"start_purchase"}`)
	for _, text := range []string{"10.01.2024", "jacket", "black", "m", "1", "100"} {
		command(t, app, "c1", `{"kind":"submit_field","text":"`+text+`"}`)
	}

	code, body = command(t, app, "c1", `{"kind":"start_sale"}`)
	if code != http.StatusOK || body["type"] != "choose_batch" {
		t.Fatalf("want choose_batch, got %d %v", code, body)
	}
	items := body["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("want 1 sellable item, got %d", len(items))
	}
	batchID := items[0].(map[string]any)["id"].(string)

	code, body = command(t, app, "c1", `{"kind":"select_batch","batch_id":"`+batchID+`"}`)
	if code != http.StatusOK || body["field"] != "sale_price" {
		t.Fatalf("want sale_price prompt, got %d %v", code, body)
	}

	code, body = command(t, app, "c1", `{"kind":"submit_field","text":"150"}`)
	if code != http.StatusOK || body["type"] != "choose_method" {
		t.Fatalf("want choose_method, got %d %v", code, body)
	}

	code, body = command(t, app, "c1", `{"kind":"select_method","method":"delivery"}`)
	if code != http.StatusOK || body["type"] != "sale_recorded" {
		t.Fatalf("want sale_recorded, got %d %v", code, body)
	}
	if body["profit"] != "50.00" || body["margin_pct"] != "50.0" || body["remaining"] != float64(0) {
		t.Fatalf("receipt wrong: %v", body)
	}

	// The last unit is gone.
	code, body = command(t, app, "c1", `{"kind":"start_sale"}`)
	if code != http.StatusOK || body["type"] != "empty" {
		t.Fatalf("want empty state after last unit sold, got %d %v", code, body)
	}
}

func TestExportRequiresAccess(t *testing.T) {
	app := newApp(t)

	req := httptest.NewRequest("GET", "/export.xlsx", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no header: want 401, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/export.xlsx", nil)
	req.Header.Set("X-Conversation", "c1")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unknown conversation: want 401, got %d", resp.StatusCode)
	}

	authorize(t, app, "c1")
	req = httptest.NewRequest("GET", "/export.xlsx", nil)
	req.Header.Set("X-Conversation", "c1")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheet") {
		t.Fatalf("want spreadsheet content type, got %q", ct)
	}
}
