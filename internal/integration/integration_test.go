//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	httpapi "github.com/event-market/event-market/internal/api/http"
	"github.com/event-market/event-market/internal/application/auth"
	"github.com/event-market/event-market/internal/application/background"
	"github.com/event-market/event-market/internal/application/eventrequest"
	"github.com/event-market/event-market/internal/application/negotiation"
	"github.com/event-market/event-market/internal/application/notification"
	"github.com/event-market/event-market/internal/application/user"
	"github.com/event-market/event-market/internal/infrastructure/postgres"
	"github.com/event-market/event-market/internal/infrastructure/realtime"
)

const (
	testSecret   = "integration-secret-0123456789abcdef"
	testPassword = "S3cure!Passw0rd"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type testServer struct {
	*httptest.Server
	tasks *background.Runner
}

func TestNegotiationLifecycleIntegration(t *testing.T) {
	server, cleanup := newTestServer(t)
	defer cleanup()
	client := &http.Client{Timeout: 10 * time.Second}

	requester := registerAndLogin(t, client, server.URL, "requester", "user")
	orgA := registerAndLogin(t, client, server.URL, "organizer-a", "organizer")
	orgB := registerAndLogin(t, client, server.URL, "organizer-b", "organizer")

	var req struct {
		RequestID string `json:"requestId"`
	}
	mustCall(t, client, http.MethodPost, server.URL+"/v1/event-requests", requester, map[string]interface{}{
		"eventType": "wedding",
		"venue":     "Lagos",
		"budget":    400000,
		"eventDate": time.Now().Add(90 * 24 * time.Hour).UTC().Format(time.RFC3339),
	}, &req)

	var negA, negB struct {
		NegotiationID string `json:"negotiationId"`
		Version       int    `json:"version"`
	}
	mustCall(t, client, http.MethodPost, server.URL+"/v1/negotiations", orgA, map[string]interface{}{
		"eventRequestId": req.RequestID, "proposedBudget": 380000, "message": "full package",
	}, &negA)
	mustCall(t, client, http.MethodPost, server.URL+"/v1/negotiations", orgB, map[string]interface{}{
		"eventRequestId": req.RequestID, "proposedBudget": 390000,
	}, &negB)
	if negA.Version != 1 {
		t.Fatalf("expected version 1 after create, got %d", negA.Version)
	}

	status, out := call(t, client, http.MethodPost, server.URL+"/v1/negotiations", orgA, map[string]interface{}{
		"eventRequestId": req.RequestID, "proposedBudget": 1000,
	})
	if status != http.StatusConflict {
		t.Fatalf("duplicate response: expected 409, got %d (%s)", status, out.Message)
	}

	var countered struct {
		Negotiation struct {
			Round   int `json:"negotiationRound"`
			History []struct {
				Party string  `json:"party"`
				Offer float64 `json:"offer"`
			} `json:"history"`
			Metadata map[string]interface{} `json:"metadata"`
		} `json:"negotiation"`
	}
	mustCall(t, client, http.MethodPost, server.URL+"/v1/negotiations/"+negA.NegotiationID+"/counter", requester, map[string]interface{}{
		"offer": 420000,
	}, &countered)
	if countered.Negotiation.Round != 2 || len(countered.Negotiation.History) != 2 {
		t.Fatalf("expected round 2 with two history entries, got %+v", countered.Negotiation)
	}
	if _, ok := countered.Negotiation.Metadata["aiSuggestion"]; !ok {
		t.Fatalf("expected suggestion in metadata, got %v", countered.Negotiation.Metadata)
	}

	var accepted struct {
		Status     string   `json:"status"`
		FinalOffer *float64 `json:"finalOffer"`
	}
	mustCall(t, client, http.MethodPost, server.URL+"/v1/negotiations/"+negA.NegotiationID+"/accept", orgA, nil, &accepted)
	if accepted.Status != "accepted" || accepted.FinalOffer == nil || *accepted.FinalOffer != 420000 {
		t.Fatalf("unexpected accept result: %+v", accepted)
	}

	var stored struct {
		Status     string `json:"status"`
		Organizers []struct {
			OrganizerID    string  `json:"organizerId"`
			Status         string  `json:"status"`
			ProposedBudget float64 `json:"proposedBudget"`
		} `json:"interestedOrganizers"`
	}
	mustCall(t, client, http.MethodGet, server.URL+"/v1/event-requests/"+req.RequestID, requester, nil, &stored)
	if stored.Status != "deal_done" {
		t.Fatalf("expected deal_done, got %s", stored.Status)
	}
	for _, o := range stored.Organizers {
		if o.ProposedBudget == 420000 && o.Status != "accepted" {
			t.Fatalf("countered organizer should be accepted, got %s", o.Status)
		}
		if o.ProposedBudget == 390000 && o.Status != "rejected" {
			t.Fatalf("other organizer should be rejected, got %s", o.Status)
		}
	}

	status, _ = call(t, client, http.MethodPost, server.URL+"/v1/negotiations/"+negB.NegotiationID+"/counter", requester, map[string]interface{}{
		"offer": 395000,
	})
	if status != http.StatusConflict {
		t.Fatalf("counter on closed request: expected 409, got %d", status)
	}

	server.tasks.Wait()
	var list []struct {
		Type string `json:"type"`
	}
	mustCall(t, client, http.MethodGet, server.URL+"/v1/notifications", orgA, nil, &list)
	if !containsType(list, "counter_offer") {
		t.Fatalf("expected counter_offer notification for organizer, got %+v", list)
	}
	mustCall(t, client, http.MethodGet, server.URL+"/v1/notifications", requester, nil, &list)
	if !containsType(list, "offer_received") {
		t.Fatalf("expected offer_received notification for requester, got %+v", list)
	}
}

func containsType(list []struct {
	Type string `json:"type"`
}, typ string) bool {
	for _, n := range list {
		if n.Type == typ {
			return true
		}
	}
	return false
}

func registerAndLogin(t *testing.T, client *http.Client, baseURL, username, role string) string {
	t.Helper()
	mustCall(t, client, http.MethodPost, baseURL+"/v1/auth/register", "", map[string]string{
		"username": username, "password": testPassword, "role": role,
	}, nil)
	var login struct {
		Token string `json:"token"`
	}
	mustCall(t, client, http.MethodPost, baseURL+"/v1/auth/login", "", map[string]string{
		"username": username, "password": testPassword,
	}, &login)
	if login.Token == "" {
		t.Fatalf("login %s: empty token", username)
	}
	return login.Token
}

func call(t *testing.T, client *http.Client, method, url, token string, payload interface{}) (int, apiResponse) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, out
}

func mustCall(t *testing.T, client *http.Client, method, url, token string, payload, out interface{}) {
	t.Helper()
	status, resp := call(t, client, method, url, token, payload)
	if status >= 300 {
		t.Fatalf("%s %s status %d: %s %s", method, url, status, resp.Error, resp.Message)
	}
	if out != nil {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
}

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	dsn := testDatabaseURL(t)

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolOptions{})
	if err != nil {
		t.Fatalf("db pool: %v", err)
	}

	logger := zerolog.Nop()
	root := repoRoot(t)
	if err := postgres.RunMigrations(ctx, pool, filepath.Join(root, "internal", "migrations"), logger); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}
	if err := resetDatabase(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("reset db: %v", err)
	}

	userRepo := postgres.NewUserRepository(pool)
	eventRequestRepo := postgres.NewEventRequestRepository(pool)
	negotiationRepo := postgres.NewNegotiationRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)

	tasks := background.NewRunner(5*time.Second, logger)
	registry := realtime.NewRegistry(realtime.Options{}, logger)

	notificationSvc := notification.NewService(notificationRepo, registry, logger)
	registry.UseNotifications(notificationSvc)
	userSvc := user.NewService(userRepo, logger)
	if err := userSvc.ProvisionRoles(ctx); err != nil {
		pool.Close()
		t.Fatalf("provision roles: %v", err)
	}
	authSvc := auth.NewService(userRepo, testSecret, time.Hour, logger)
	eventRequestSvc := eventrequest.NewService(eventRequestRepo, notificationSvc, registry, tasks, logger)
	negotiationSvc := negotiation.NewService(negotiationRepo, eventRequestRepo, userRepo,
		notificationSvc, registry, nil, tasks, negotiation.Config{}, logger)

	apiServer := httpapi.NewServer(authSvc, userSvc, eventRequestSvc, negotiationSvc, notificationSvc, registry, logger)
	server := httptest.NewServer(apiServer.Router())

	cleanup := func() {
		server.Close()
		registry.Shutdown()
		tasks.Wait()
		pool.Close()
	}

	return &testServer{Server: server, tasks: tasks}, cleanup
}

func testDatabaseURL(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		return dsn
	}
	t.Skip("TEST_DATABASE_URL not set; skipping integration tests")
	return ""
}

func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func resetDatabase(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		TRUNCATE TABLE
			notifications,
			negotiations,
			event_requests,
			users,
			roles
		RESTART IDENTITY CASCADE
	`)
	return err
}
