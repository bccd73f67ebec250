package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestBudgetFlow_CreateTrackDelete(t *testing.T) {
	app := setupApp(t)
	access, _, _ := app.registerUser(t, "budget@test.com", "password123")

	// Create a monthly food budget
	rec := app.request("POST", "/api/v1/budgets",
		`{"category":"food","limit":"500","period":"monthly"}`, access)
	if rec.Code != http.StatusCreated {
		t.Fatalf("budget creation failed: %d %s", rec.Code, rec.Body.String())
	}
	created := parseJSON(t, rec)
	budget := created["budget"].(map[string]interface{})
	budgetID := budget["id"].(string)
	if budgetID == "" {
		t.Fatal("expected budget id")
	}

	// Record spending in the budget's category and one outside it
	rec = app.request("POST", "/api/v1/spending",
		`{"category":"food","amount":"125","description":"groceries"}`, access)
	if rec.Code != http.StatusCreated {
		t.Fatalf("spending failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = app.request("POST", "/api/v1/spending",
		`{"category":"transport","amount":"40"}`, access)
	if rec.Code != http.StatusCreated {
		t.Fatalf("spending failed: %d %s", rec.Code, rec.Body.String())
	}

	// Progress counts only the food entry
	rec = app.request("GET", fmt.Sprintf("/api/v1/budgets/%s/progress", budgetID), "", access)
	if rec.Code != http.StatusOK {
		t.Fatalf("progress failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	progress := result["progress"].(map[string]interface{})
	if progress["spent"] != "125" {
		t.Errorf("expected spent 125, got %v", progress["spent"])
	}
	if progress["remaining"] != "375" {
		t.Errorf("expected remaining 375, got %v", progress["remaining"])
	}
	if progress["percentage"].(float64) != 25 {
		t.Errorf("expected percentage 25, got %v", progress["percentage"])
	}

	// Raise the limit
	rec = app.request("PUT", fmt.Sprintf("/api/v1/budgets/%s", budgetID),
		`{"limit":"1000"}`, access)
	if rec.Code != http.StatusOK {
		t.Fatalf("budget update failed: %d %s", rec.Code, rec.Body.String())
	}

	// Delete and confirm it is gone
	rec = app.request("DELETE", fmt.Sprintf("/api/v1/budgets/%s", budgetID), "", access)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("budget delete failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = app.request("GET", fmt.Sprintf("/api/v1/budgets/%s", budgetID), "", access)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for deleted budget, got %d", rec.Code)
	}
}

func TestBudgetFlow_IsolatedBetweenUsers(t *testing.T) {
	app := setupApp(t)
	aliceAccess, _, _ := app.registerUser(t, "alice@test.com", "password123")
	bobAccess, _, _ := app.registerUser(t, "bob@test.com", "password123")

	rec := app.request("POST", "/api/v1/budgets",
		`{"category":"entertainment","limit":"200","period":"weekly"}`, aliceAccess)
	if rec.Code != http.StatusCreated {
		t.Fatalf("budget creation failed: %d %s", rec.Code, rec.Body.String())
	}
	created := parseJSON(t, rec)
	budgetID := created["budget"].(map[string]interface{})["id"].(string)

	// Bob cannot see or modify Alice's budget
	rec = app.request("GET", fmt.Sprintf("/api/v1/budgets/%s", budgetID), "", bobAccess)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for other user's budget, got %d", rec.Code)
	}
	rec = app.request("GET", "/api/v1/budgets", "", bobAccess)
	listing := parseJSON(t, rec)
	if listing["total_items"].(float64) != 0 {
		t.Errorf("expected no budgets for bob, got %v", listing["total_items"])
	}
}
