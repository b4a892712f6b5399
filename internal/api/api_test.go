package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/izposoja/internal/audit"
	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/lease"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/notify"
	"github.com/erazemk/izposoja/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB, string) {
	t.Helper()
	database := db.NewTestDB(t)

	gw := notify.NewLogGateway(nil)
	engine := lease.NewEngine(database, gw)
	auditor := audit.New(database, gw, 0)
	router := NewRouter(database, engine, auditor, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	createTestUser(t, database, "admin", model.RoleAdmin)
	token := loginAs(t, server, "admin")
	return server, database, token
}

func createTestUser(t *testing.T, database *sql.DB, username, role string) *model.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	user, err := store.CreateUser(context.Background(), database, username, username+"@example.com", string(hash), role)
	if err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
	return user
}

func loginAs(t *testing.T, server *httptest.Server, username string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": "password"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login as %s failed: %d", username, resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token := loginResp["token"]
	if token == "" {
		t.Fatal("empty token from login")
	}
	return token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func doJSON(t *testing.T, req *http.Request, wantStatus int, out any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected %d, got %d", req.Method, req.URL.Path, wantStatus, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
}

func TestLoginEndpoint(t *testing.T) {
	server, _, _ := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	server, _, _ := setupTestServer(t)

	resp, _ := http.Get(server.URL + "/api/items")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestItemsAPIFlow(t *testing.T) {
	server, _, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]any{
		"name":             "Projector",
		"category":         "electronics",
		"estimated_price":  450.0,
		"initial_quantity": 3,
	})
	var item model.Item
	doJSON(t, req, http.StatusCreated, &item)
	if item.Quantity != 3 || item.InitialQuantity != 3 {
		t.Errorf("expected quantity == initial == 3, got %d/%d", item.Quantity, item.InitialQuantity)
	}

	req, _ = authRequest("GET", server.URL+"/api/items", token, nil)
	var items []model.Item
	doJSON(t, req, http.StatusOK, &items)
	if len(items) != 1 {
		t.Errorf("expected 1 item, got %d", len(items))
	}

	req, _ = authRequest("POST", fmt.Sprintf("%s/api/items/%d/restock", server.URL, item.ID), token, map[string]int{"amount": 2})
	var restocked model.Item
	doJSON(t, req, http.StatusOK, &restocked)
	if restocked.InitialQuantity != 5 || restocked.Quantity != 5 {
		t.Errorf("restock not applied: %d/%d", restocked.Quantity, restocked.InitialQuantity)
	}
}

func TestLeaseRequestFlow(t *testing.T) {
	server, database, adminToken := setupTestServer(t)

	createTestUser(t, database, "alice", model.RoleUser)
	aliceToken := loginAs(t, server, "alice")

	req, _ := authRequest("POST", server.URL+"/api/items", adminToken, map[string]any{
		"name": "Camera", "initial_quantity": 2,
	})
	var item model.Item
	doJSON(t, req, http.StatusCreated, &item)

	// Alice submits a request.
	req, _ = authRequest("POST", server.URL+"/api/requests", aliceToken, map[string]any{
		"item_id":  item.ID,
		"quantity": 1,
		"until":    time.Now().Add(48 * time.Hour),
		"purpose":  "field trip",
	})
	var submitted model.LeaseRequest
	doJSON(t, req, http.StatusCreated, &submitted)
	if submitted.Status != model.RequestPending {
		t.Errorf("expected pending, got %q", submitted.Status)
	}

	// Alice cannot approve her own request: manager role required.
	req, _ = authRequest("POST", fmt.Sprintf("%s/api/requests/%d/approve", server.URL, submitted.ID), aliceToken, nil)
	doJSON(t, req, http.StatusForbidden, nil)

	// Admin approves.
	req, _ = authRequest("POST", fmt.Sprintf("%s/api/requests/%d/approve", server.URL, submitted.ID), adminToken, nil)
	var approved model.ActiveLease
	doJSON(t, req, http.StatusOK, &approved)

	// Approving again conflicts.
	req, _ = authRequest("POST", fmt.Sprintf("%s/api/requests/%d/approve", server.URL, submitted.ID), adminToken, nil)
	doJSON(t, req, http.StatusConflict, nil)

	// Alice sees her lease; the shelf lost a unit.
	req, _ = authRequest("GET", server.URL+"/api/leases", aliceToken, nil)
	var leases []model.ActiveLease
	doJSON(t, req, http.StatusOK, &leases)
	if len(leases) != 1 {
		t.Fatalf("expected 1 lease for alice, got %d", len(leases))
	}

	req, _ = authRequest("GET", fmt.Sprintf("%s/api/items/%d", server.URL, item.ID), adminToken, nil)
	var detail struct {
		Item   model.Item          `json:"item"`
		Leases []model.ActiveLease `json:"leases"`
	}
	doJSON(t, req, http.StatusOK, &detail)
	if detail.Item.Quantity != 1 {
		t.Errorf("expected quantity 1 after approval, got %d", detail.Item.Quantity)
	}
	if len(detail.Leases) != 1 {
		t.Errorf("expected lease listed on item detail, got %d", len(detail.Leases))
	}

	// Return the lease.
	req, _ = authRequest("POST", fmt.Sprintf("%s/api/leases/%d/return", server.URL, approved.ID), adminToken, nil)
	doJSON(t, req, http.StatusOK, nil)

	req, _ = authRequest("GET", fmt.Sprintf("%s/api/items/%d", server.URL, item.ID), adminToken, nil)
	doJSON(t, req, http.StatusOK, &detail)
	if detail.Item.Quantity != 2 {
		t.Errorf("expected quantity restored to 2, got %d", detail.Item.Quantity)
	}
}

func TestApproveInsufficientStockConflicts(t *testing.T) {
	server, database, adminToken := setupTestServer(t)

	alice := createTestUser(t, database, "alice", model.RoleUser)
	aliceToken := loginAs(t, server, "alice")

	req, _ := authRequest("POST", server.URL+"/api/items", adminToken, map[string]any{
		"name": "Drill", "initial_quantity": 1,
	})
	var item model.Item
	doJSON(t, req, http.StatusCreated, &item)

	req, _ = authRequest("POST", server.URL+"/api/requests", aliceToken, map[string]any{
		"item_id": item.ID, "quantity": 1, "until": time.Now().Add(time.Hour),
	})
	var submitted model.LeaseRequest
	doJSON(t, req, http.StatusCreated, &submitted)

	// The last unit walks out via a direct lease first.
	req, _ = authRequest("POST", server.URL+"/api/leases", adminToken, map[string]any{
		"item_id": item.ID, "holder_id": alice.ID, "quantity": 1, "until": time.Now().Add(time.Hour),
	})
	doJSON(t, req, http.StatusCreated, nil)

	req, _ = authRequest("POST", fmt.Sprintf("%s/api/requests/%d/approve", server.URL, submitted.ID), adminToken, nil)
	doJSON(t, req, http.StatusConflict, nil)

	// The request is still pending and can be rejected instead.
	req, _ = authRequest("GET", fmt.Sprintf("%s/api/requests/%d", server.URL, submitted.ID), adminToken, nil)
	var got model.LeaseRequest
	doJSON(t, req, http.StatusOK, &got)
	if got.Status != model.RequestPending {
		t.Errorf("expected pending after failed approval, got %q", got.Status)
	}
}

func TestRequestVisibility(t *testing.T) {
	server, database, adminToken := setupTestServer(t)

	createTestUser(t, database, "alice", model.RoleUser)
	createTestUser(t, database, "bob", model.RoleUser)
	aliceToken := loginAs(t, server, "alice")
	bobToken := loginAs(t, server, "bob")

	req, _ := authRequest("POST", server.URL+"/api/items", adminToken, map[string]any{
		"name": "Camera", "initial_quantity": 5,
	})
	var item model.Item
	doJSON(t, req, http.StatusCreated, &item)

	req, _ = authRequest("POST", server.URL+"/api/requests", aliceToken, map[string]any{
		"item_id": item.ID, "quantity": 1, "until": time.Now().Add(time.Hour),
	})
	var aliceReq model.LeaseRequest
	doJSON(t, req, http.StatusCreated, &aliceReq)

	// Bob sees no requests and cannot read alice's.
	req, _ = authRequest("GET", server.URL+"/api/requests", bobToken, nil)
	var visible []model.LeaseRequest
	doJSON(t, req, http.StatusOK, &visible)
	if len(visible) != 0 {
		t.Errorf("bob should see no requests, got %d", len(visible))
	}

	req, _ = authRequest("GET", fmt.Sprintf("%s/api/requests/%d", server.URL, aliceReq.ID), bobToken, nil)
	doJSON(t, req, http.StatusForbidden, nil)

	// The admin sees everything.
	req, _ = authRequest("GET", server.URL+"/api/requests", adminToken, nil)
	doJSON(t, req, http.StatusOK, &visible)
	if len(visible) != 1 {
		t.Errorf("admin should see 1 request, got %d", len(visible))
	}
}

func TestAuditEndpoint(t *testing.T) {
	server, database, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]any{
		"name": "Projector", "initial_quantity": 3,
	})
	var item model.Item
	doJSON(t, req, http.StatusCreated, &item)

	// Drain a unit behind the ledger's back.
	if err := store.CompareAndDecrement(context.Background(), database, item.ID, 1); err != nil {
		t.Fatalf("CompareAndDecrement: %v", err)
	}

	req, _ = authRequest("POST", server.URL+"/api/audit", token, nil)
	var report model.AuditReport
	doJSON(t, req, http.StatusOK, &report)

	if report.Clean {
		t.Error("expected a dirty report")
	}
	if len(report.Discrepancies) != 1 {
		t.Fatalf("expected 1 discrepancy, got %d", len(report.Discrepancies))
	}
	if report.Discrepancies[0].Missing != 1 || report.Discrepancies[0].Explained != 0 {
		t.Errorf("unexpected discrepancy: %+v", report.Discrepancies[0])
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	server, _, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/auth/logout", token, nil)
	doJSON(t, req, http.StatusOK, nil)

	req, _ = authRequest("GET", server.URL+"/api/items", token, nil)
	doJSON(t, req, http.StatusUnauthorized, nil)
}

func TestUserManagementAdminOnly(t *testing.T) {
	server, database, adminToken := setupTestServer(t)

	createTestUser(t, database, "alice", model.RoleUser)
	aliceToken := loginAs(t, server, "alice")

	req, _ := authRequest("GET", server.URL+"/api/users", aliceToken, nil)
	doJSON(t, req, http.StatusForbidden, nil)

	req, _ = authRequest("POST", server.URL+"/api/users", adminToken, map[string]string{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "password",
		"role":     model.RoleManager,
	})
	doJSON(t, req, http.StatusCreated, nil)

	req, _ = authRequest("GET", server.URL+"/api/users", adminToken, nil)
	var users []model.User
	doJSON(t, req, http.StatusOK, &users)
	if len(users) != 3 {
		t.Errorf("expected 3 users, got %d", len(users))
	}
}
