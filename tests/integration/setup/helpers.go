package setup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// TruncateAllTables truncates all tables in correct order (children first, then parents)
func TruncateAllTables(t *testing.T, db *pgxpool.Pool, ctx context.Context) {
	t.Log("Truncating all database tables...")

	tables := []string{
		"server_members",
		"server_role_permissions",
		"server_roles",
		"servers",
		"users",
	}

	for _, table := range tables {
		_, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "failed to truncate table %s", table)
	}

	t.Log("All database tables truncated successfully")
}

// SeedUser inserts a user row directly, identity management lives in another
// service so tests seed users at the SQL level.
func SeedUser(t *testing.T, db *pgxpool.Pool, ctx context.Context, username string) uuid.UUID {
	id := uuid.New()
	now := time.Now().UTC()

	_, err := db.Exec(ctx,
		"INSERT INTO users (id, username, fullname, avatar_object_key, create_datetime, update_datetime) VALUES ($1,$2,$3,$4,$5,$6)",
		id, username, username+" Fullname", nil, now, now)
	require.NoError(t, err, "failed to seed user %s", username)

	return id
}

// SeedServer inserts a server row owned by the given user.
func SeedServer(t *testing.T, db *pgxpool.Pool, ctx context.Context, ownerId uuid.UUID, name string) uuid.UUID {
	id := uuid.New()
	now := time.Now().UTC()

	_, err := db.Exec(ctx,
		"INSERT INTO servers (id, owner_id, name, create_datetime, update_datetime) VALUES ($1,$2,$3,$4,$5)",
		id, ownerId, name, now, now)
	require.NoError(t, err, "failed to seed server %s", name)

	return id
}

// SeedMember inserts a membership row, roleId may be nil for a member with no
// assigned role.
func SeedMember(t *testing.T, db *pgxpool.Pool, ctx context.Context, serverId uuid.UUID, userId uuid.UUID, roleId *uuid.UUID) uuid.UUID {
	id := uuid.New()
	now := time.Now().UTC()

	_, err := db.Exec(ctx,
		"INSERT INTO server_members (id, server_id, user_id, role_id, create_datetime, update_datetime, create_user_id, update_user_id) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)",
		id, serverId, userId, roleId, now, now, userId, userId)
	require.NoError(t, err, "failed to seed member")

	return id
}

// CreateJSONRequest creates a test request with JSON body
func CreateJSONRequest(method, url string, jsonBody []byte) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// CreateActorRequest creates a test request with JSON body and X-Actor-Id header
func CreateActorRequest(method, url string, jsonBody []byte, actorId uuid.UUID) *http.Request {
	req := CreateJSONRequest(method, url, jsonBody)
	req.Header.Set("X-Actor-Id", actorId.String())
	return req
}

// ParseJSONResponse helper to parse JSON response body
func ParseJSONResponse(t *testing.T, resp *http.Response) map[string]interface{} {
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	require.NotEmpty(t, body, "response body should not be empty")

	var result map[string]interface{}
	err = json.Unmarshal(body, &result)
	require.NoError(t, err, "failed to parse JSON response")

	return result
}

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
}

// ParseErrorDetail extracts complete error details (code, message, param)
func ParseErrorDetail(t *testing.T, result map[string]interface{}) (code, message, param string) {
	errResp := ParseErrorResponse(t, result)
	return errResp.Code, errResp.Message, errResp.Param
}

// ParseErrorResponse parses error response into ErrorResponse struct
func ParseErrorResponse(t *testing.T, result map[string]interface{}) ErrorResponse {
	require.Contains(t, result, "error", "response should contain error field")

	errObj, ok := result["error"].(map[string]interface{})
	require.True(t, ok, "error field should be an object")

	errResp := ErrorResponse{}

	if code, ok := errObj["code"].(string); ok {
		errResp.Code = code
	}

	if message, ok := errObj["message"].(string); ok {
		errResp.Message = message
	}

	if param, ok := errObj["param"].(string); ok {
		errResp.Param = param
	}

	return errResp
}
