package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SetupTestDB connects to the integration test database. Tests that
// call it are skipped when no database is configured, so the pure unit
// suite still runs everywhere.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL or DATABASE_URL not set; skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	return pool
}

// CleanupTestDB removes rows created by the test user fixtures and
// closes the pool. Child tables cascade off users.
func CleanupTestDB(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()
	_, err := pool.Exec(ctx, "DELETE FROM users WHERE email LIKE 'test%@example.com'")
	if err != nil {
		t.Logf("Warning: failed to cleanup test data: %v", err)
	}
	pool.Close()
}

// CreateTestUser inserts a user row directly and returns its id.
func CreateTestUser(t *testing.T, pool *pgxpool.Pool, suffix string) uuid.UUID {
	ctx := context.Background()
	userID := uuid.New()

	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, clerk_id, email, username, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())`,
		userID,
		"clerk_test_"+suffix,
		fmt.Sprintf("test%s@example.com", suffix),
		"testuser_"+suffix,
	)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return userID
}

// GenerateMockClerkJWT generates a mock JWT token for testing
func GenerateMockClerkJWT(clerkID string) (string, error) {
	secretKey := []byte("test-secret-key-for-testing-only")

	claims := jwt.MapClaims{
		"sub": clerkID,
		"iss": "https://clerk.test",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour * 24).Unix(),
		"azp": "test-app-id",
		"sid": "sess_test123",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// MockWebhookEmail is the email MockClerkWebhookPayload embeds for a
// clerk id. Deriving it keeps concurrent webhook tests off the users
// table's unique email constraint while still matching the cleanup
// pattern.
func MockWebhookEmail(clerkID string) string {
	return fmt.Sprintf("test.%s@example.com", clerkID)
}

// MockWebhookUsername is the username MockClerkWebhookPayload embeds
// for a clerk id; suffix distinguishes the update event.
func MockWebhookUsername(clerkID, suffix string) string {
	return clerkID + suffix
}

// MockClerkWebhookPayload creates a mock webhook payload
func MockClerkWebhookPayload(eventType string, clerkID string) []byte {
	payload := ""
	email := MockWebhookEmail(clerkID)

	switch eventType {
	case "user.created":
		payload = fmt.Sprintf(`{
			"data": {
				"id": "%s",
				"first_name": "Test",
				"last_name": "User",
				"email_addresses": [{
					"id": "email_123",
					"email_address": "%s",
					"verification": {"status": "verified"}
				}],
				"primary_email_address_id": "email_123",
				"username": "%s",
				"image_url": "https://example.com/image.jpg",
				"profile_image_url": "https://example.com/image.jpg"
			},
			"object": "event",
			"type": "%s"
		}`, clerkID, email, MockWebhookUsername(clerkID, ""), eventType)

	case "user.updated":
		payload = fmt.Sprintf(`{
			"data": {
				"id": "%s",
				"first_name": "Updated",
				"last_name": "User",
				"email_addresses": [{
					"id": "email_123",
					"email_address": "%s",
					"verification": {"status": "verified"}
				}],
				"primary_email_address_id": "email_123",
				"username": "%s",
				"image_url": "https://example.com/new-image.jpg"
			},
			"object": "event",
			"type": "%s"
		}`, clerkID, email, MockWebhookUsername(clerkID, "_updated"), eventType)

	case "user.deleted":
		payload = fmt.Sprintf(`{
			"data": {
				"id": "%s",
				"deleted": true
			},
			"object": "event",
			"type": "%s"
		}`, clerkID, eventType)
	}

	return []byte(payload)
}
