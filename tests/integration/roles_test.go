package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/ferdian3456/rolehub/tests/integration/setup"
	"github.com/stretchr/testify/require"
)

// TestCreateRole tests the POST /api/roles endpoint
func TestCreateRole(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	t.Log("=== Starting Test Infrastructure ===")
	infra, err := setup.StartInfra(ctx, t)
	require.NoError(t, err, "infrastructure should start successfully")
	defer func() { _ = infra.Terminate(ctx, t) }()

	t.Log("=== Running Database Migrations ===")
	_ = setup.RunMigration(infra.PgURL, t)

	t.Log("=== Setting Up Test Application ===")
	app, db, _, _ := setup.SetupTestApp(t, infra.PgURL, infra.RedisURL, infra.MinioURL)
	defer db.Close()

	t.Log("=== Setup: Seeding Owner and Servers ===")
	ownerId := setup.SeedUser(t, db, ctx, "owner")
	serverId := setup.SeedServer(t, db, ctx, ownerId, "Gaming Hub")
	otherServerId := setup.SeedServer(t, db, ctx, ownerId, "Other Hub")

	// Test 1: Create role successfully as owner
	t.Log("=== Test 1: Create Role Successfully ===")
	reqBody := []byte(fmt.Sprintf(`{"name":"Mods","serverId":"%s","color":"#ff0000","permissions":["MANAGE_ROLES","KICK_MEMBERS"]}`, serverId))
	req := setup.CreateActorRequest(http.MethodPost, "/api/roles", reqBody, ownerId)
	resp, err := app.Test(req)
	require.NoError(t, err, "create role request should complete")
	require.Equal(t, 201, resp.StatusCode, "create role should return 201")

	result := setup.ParseJSONResponse(t, resp)
	require.Contains(t, result, "id", "response should contain role id")
	require.Equal(t, "Mods", result["name"], "role name should match")
	require.Equal(t, "#ff0000", result["color"], "role color should match")

	permissions := result["permissions"].([]interface{})
	require.Len(t, permissions, 2, "role should carry 2 permissions")

	server := result["server"].(map[string]interface{})
	require.Equal(t, "Gaming Hub", server["name"], "server summary should be embedded")

	t.Logf("✓ Role created successfully: id=%s, name=%s", result["id"], result["name"])

	// Test 2: Duplicate name in the same server is rejected
	t.Log("=== Test 2: Duplicate Role Name in Same Server ===")
	reqBody = []byte(fmt.Sprintf(`{"name":"Mods","serverId":"%s"}`, serverId))
	req = setup.CreateActorRequest(http.MethodPost, "/api/roles", reqBody, ownerId)
	resp, err = app.Test(req)
	require.NoError(t, err, "request should complete")
	require.Equal(t, 409, resp.StatusCode, "duplicate name should return 409")

	result = setup.ParseJSONResponse(t, resp)
	code, message, param := setup.ParseErrorDetail(t, result)
	require.Equal(t, "CONFLICT_ERROR", code, "error code should be CONFLICT_ERROR")
	require.Equal(t, "name", param, "error param should be 'name'")

	t.Logf("✓ Conflict Error: Code=%s, Param=%s, Message=%s", code, param, message)

	// Test 3: Same name in a different server is allowed
	t.Log("=== Test 3: Same Role Name in Different Server ===")
	reqBody = []byte(fmt.Sprintf(`{"name":"Mods","serverId":"%s"}`, otherServerId))
	req = setup.CreateActorRequest(http.MethodPost, "/api/roles", reqBody, ownerId)
	resp, err = app.Test(req)
	require.NoError(t, err, "request should complete")
	require.Equal(t, 201, resp.StatusCode, "same name in another server should return 201")

	t.Log("✓ Role name uniqueness is scoped per server")

	// Test 4: Create role with empty name
	t.Log("=== Test 4: Create Role with Empty Name ===")
	reqBody = []byte(fmt.Sprintf(`{"name":"","serverId":"%s"}`, serverId))
	req = setup.CreateActorRequest(http.MethodPost, "/api/roles", reqBody, ownerId)
	resp, err = app.Test(req)
	require.NoError(t, err, "request should complete")
	require.Equal(t, 400, resp.StatusCode, "empty name should return 400")

	result = setup.ParseJSONResponse(t, resp)
	code, _, param = setup.ParseErrorDetail(t, result)
	require.Equal(t, "VALIDATION_ERROR", code, "error code should be VALIDATION_ERROR")
	require.Equal(t, "name", param, "error param should be 'name'")

	t.Log("✓ Empty name rejected")

	// Test 5: Create role with unknown permission value
	t.Log("=== Test 5: Create Role with Unknown Permission ===")
	reqBody = []byte(fmt.Sprintf(`{"name":"Broken","serverId":"%s","permissions":["FLY_TO_MOON"]}`, serverId))
	req = setup.CreateActorRequest(http.MethodPost, "/api/roles", reqBody, ownerId)
	resp, err = app.Test(req)
	require.NoError(t, err, "request should complete")
	require.Equal(t, 400, resp.StatusCode, "unknown permission should return 400")

	result = setup.ParseJSONResponse(t, resp)
	code, _, param = setup.ParseErrorDetail(t, result)
	require.Equal(t, "VALIDATION_ERROR", code, "error code should be VALIDATION_ERROR")
	require.Equal(t, "permissions", param, "error param should be 'permissions'")

	t.Log("✓ Unknown permission value rejected")

	// Test 6: Create role for a server that does not exist
	t.Log("=== Test 6: Create Role for Missing Server ===")
	reqBody = []byte(fmt.Sprintf(`{"name":"Ghost","serverId":"%s"}`, uuid.New()))
	req = setup.CreateActorRequest(http.MethodPost, "/api/roles", reqBody, ownerId)
	resp, err = app.Test(req)
	require.NoError(t, err, "request should complete")
	require.Equal(t, 404, resp.StatusCode, "missing server should return 404")

	t.Log("✓ Missing server returns not found")

	// Test 7: Create role without actor header
	t.Log("=== Test 7: Create Role Without Actor Header ===")
	reqBody = []byte(fmt.Sprintf(`{"name":"NoActor","serverId":"%s"}`, serverId))
	req = setup.CreateJSONRequest(http.MethodPost, "/api/roles", reqBody)
	resp, err = app.Test(req)
	require.NoError(t, err, "request should complete")
	require.Equal(t, 400, resp.StatusCode, "missing actor header should return 400")

	t.Log("✓ Missing actor header rejected")

	t.Log("=== All Create Role Tests Passed ===")
}

// TestRoleAuthorization tests who may manage roles in a server
func TestRoleAuthorization(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	t.Log("=== Starting Test Infrastructure ===")
	infra, err := setup.StartInfra(ctx, t)
	require.NoError(t, err, "infrastructure should start successfully")
	defer func() { _ = infra.Terminate(ctx, t) }()

	t.Log("=== Running Database Migrations ===")
	_ = setup.RunMigration(infra.PgURL, t)

	t.Log("=== Setting Up Test Application ===")
	app, db, _, _ := setup.SetupTestApp(t, infra.PgURL, infra.RedisURL, infra.MinioURL)
	defer db.Close()

	t.Log("=== Setup: Seeding Users, Server and Roles ===")
	ownerId := setup.SeedUser(t, db, ctx, "bossowner")
	managerId := setup.SeedUser(t, db, ctx, "manager")
	plainId := setup.SeedUser(t, db, ctx, "plainmember")
	strangerId := setup.SeedUser(t, db, ctx, "stranger")
	serverId := setup.SeedServer(t, db, ctx, ownerId, "Authz Server")

	// Owner creates the manager role carrying MANAGE_ROLES
	reqBody := []byte(fmt.Sprintf(`{"name":"Managers","serverId":"%s","permissions":["MANAGE_ROLES"]}`, serverId))
	req := setup.CreateActorRequest(http.MethodPost, "/api/roles", reqBody, ownerId)
	resp, err := app.Test(req)
	require.NoError(t, err, "create manager role should complete")
	require.Equal(t, 201, resp.StatusCode, "create manager role should return 201")

	result := setup.ParseJSONResponse(t, resp)
	managerRoleId := uuid.MustParse(result["id"].(string))

	setup.SeedMember(t, db, ctx, serverId, managerId, &managerRoleId)
	setup.SeedMember(t, db, ctx, serverId, plainId, nil)

	// Test 1: Member holding MANAGE_ROLES can create a role
	t.Log("=== Test 1: Member with MANAGE_ROLES Can Create ===")
	reqBody = []byte(fmt.Sprintf(`{"name":"Helpers","serverId":"%s"}`, serverId))
	req = setup.CreateActorRequest(http.MethodPost, "/api/roles", reqBody, managerId)
	resp, err = app.Test(req)
	require.NoError(t, err, "request should complete")
	require.Equal(t, 201, resp.StatusCode, "manager should be allowed to create roles")

	t.Log("✓ MANAGE_ROLES grants role management")

	// Test 2: Member without a role is forbidden
	t.Log("=== Test 2: Plain Member Is Forbidden ===")
	reqBody = []byte(fmt.Sprintf(`{"name":"Nope","serverId":"%s"}`, serverId))
	req = setup.CreateActorRequest(http.MethodPost, "/api/roles", reqBody, plainId)
	resp, err = app.Test(req)
	require.NoError(t, err, "request should complete")
	require.Equal(t, 403, resp.StatusCode, "plain member should get 403")

	result = setup.ParseJSONResponse(t, resp)
	code, message, _ := setup.ParseErrorDetail(t, result)
	require.Equal(t, "FORBIDDEN_ERROR", code, "error code should be FORBIDDEN_ERROR")

	t.Logf("✓ Forbidden Error: Code=%s, Message=%s", code, message)

	// Test 3: Non-member is forbidden
	t.Log("=== Test 3: Non-Member Is Forbidden ===")
	reqBody = []byte(fmt.Sprintf(`{"name":"Nope2","serverId":"%s"}`, serverId))
	req = setup.CreateActorRequest(http.MethodPost, "/api/roles", reqBody, strangerId)
	resp, err = app.Test(req)
	require.NoError(t, err, "request should complete")
	require.Equal(t, 403, resp.StatusCode, "non-member should get 403")

	t.Log("✓ Non-member correctly blocked")

	t.Log("=== All Role Authorization Tests Passed ===")
}

// TestUpdateRole tests the PUT /api/roles/:id endpoint
func TestUpdateRole(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	t.Log("=== Starting Test Infrastructure ===")
	infra, err := setup.StartInfra(ctx, t)
	require.NoError(t, err, "infrastructure should start successfully")
	defer func() { _ = infra.Terminate(ctx, t) }()

	t.Log("=== Running Database Migrations ===")
	_ = setup.RunMigration(infra.PgURL, t)

	t.Log("=== Setting Up Test Application ===")
	app, db, _, _ := setup.SetupTestApp(t, infra.PgURL, infra.RedisURL, infra.MinioURL)
	defer db.Close()

	t.Log("=== Setup: Seeding Owner, Server and Roles ===")
	ownerId := setup.SeedUser(t, db, ctx, "updater")
	serverId := setup.SeedServer(t, db, ctx, ownerId, "Update Server")

	reqBody := []byte(fmt.Sprintf(`{"name":"Editors","serverId":"%s","color":"#00ff00","permissions":["SEND_MESSAGES","ATTACH_FILES"]}`, serverId))
	req := setup.CreateActorRequest(http.MethodPost, "/api/roles", reqBody, ownerId)
	resp, err := app.Test(req)
	require.NoError(t, err, "create role should complete")
	require.Equal(t, 201, resp.StatusCode, "create role should return 201")

	result := setup.ParseJSONResponse(t, resp)
	roleId := result["id"].(string)

	reqBody = []byte(fmt.Sprintf(`{"name":"Taken","serverId":"%s"}`, serverId))
	req = setup.CreateActorRequest(http.MethodPost, "/api/roles", reqBody, ownerId)
	resp, err = app.Test(req)
	require.NoError(t, err, "create second role should complete")
	require.Equal(t, 201, resp.StatusCode, "create second role should return 201")

	// Test 1: Rename and change color
	t.Log("=== Test 1: Rename and Change Color ===")
	reqBody = []byte(`{"name":"Senior Editors","color":"#0000ff"}`)
	req = setup.CreateActorRequest(http.MethodPut, fmt.Sprintf("/api/roles/%s", roleId), reqBody, ownerId)
	resp, err = app.Test(req)
	require.NoError(t, err, "update request should complete")
	require.Equal(t, 200, resp.StatusCode, "update should return 200")

	result = setup.ParseJSONResponse(t, resp)
	require.Equal(t, "Senior Editors", result["name"], "name should be updated")
	require.Equal(t, "#0000ff", result["color"], "color should be updated")

	permissions := result["permissions"].([]interface{})
	require.Len(t, permissions, 2, "permissions should be untouched when field is omitted")

	t.Log("✓ Rename applied, omitted permissions untouched")

	// Test 2: Clear color with explicit null
	t.Log("=== Test 2: Clear Color with Explicit Null ===")
	reqBody = []byte(`{"color":null}`)
	req = setup.CreateActorRequest(http.MethodPut, fmt.Sprintf("/api/roles/%s", roleId), reqBody, ownerId)
	resp, err = app.Test(req)
	require.NoError(t, err, "update request should complete")
	require.Equal(t, 200, resp.StatusCode, "update should return 200")

	result = setup.ParseJSONResponse(t, resp)
	require.Nil(t, result["color"], "color should be cleared")
	require.Equal(t, "Senior Editors", result["name"], "omitted name should be untouched")

	t.Log("✓ Explicit null clears color, omitted fields survive")

	// Test 3: Replace permissions wholesale
	t.Log("=== Test 3: Replace Permissions ===")
	reqBody = []byte(`{"permissions":["VIEW_CHANNELS"]}`)
	req = setup.CreateActorRequest(http.MethodPut, fmt.Sprintf("/api/roles/%s", roleId), reqBody, ownerId)
	resp, err = app.Test(req)
	require.NoError(t, err, "update request should complete")
	require.Equal(t, 200, resp.StatusCode, "update should return 200")

	result = setup.ParseJSONResponse(t, resp)
	permissions = result["permissions"].([]interface{})
	require.Len(t, permissions, 1, "permissions should be replaced")

	perm := permissions[0].(map[string]interface{})
	require.Equal(t, "VIEW_CHANNELS", perm["value"], "remaining permission should match")

	t.Log("✓ Supplied permission set replaces the previous one")

	// Test 4: Empty permissions array clears all permissions
	t.Log("=== Test 4: Empty Permissions Array Clears All ===")
	reqBody = []byte(`{"permissions":[]}`)
	req = setup.CreateActorRequest(http.MethodPut, fmt.Sprintf("/api/roles/%s", roleId), reqBody, ownerId)
	resp, err = app.Test(req)
	require.NoError(t, err, "update request should complete")
	require.Equal(t, 200, resp.StatusCode, "update should return 200")

	result = setup.ParseJSONResponse(t, resp)
	permissions = result["permissions"].([]interface{})
	require.Len(t, permissions, 0, "permissions should be cleared")

	t.Log("✓ Empty array clears every permission")

	// Test 5: Rename to a name already used in the server
	t.Log("=== Test 5: Rename to Existing Name ===")
	reqBody = []byte(`{"name":"Taken"}`)
	req = setup.CreateActorRequest(http.MethodPut, fmt.Sprintf("/api/roles/%s", roleId), reqBody, ownerId)
	resp, err = app.Test(req)
	require.NoError(t, err, "request should complete")
	require.Equal(t, 409, resp.StatusCode, "rename to existing name should return 409")

	t.Log("✓ Rename conflict detected")

	// Test 6: Update a role that does not exist
	t.Log("=== Test 6: Update Missing Role ===")
	reqBody = []byte(`{"name":"Ghost"}`)
	req = setup.CreateActorRequest(http.MethodPut, fmt.Sprintf("/api/roles/%s", uuid.New()), reqBody, ownerId)
	resp, err = app.Test(req)
	require.NoError(t, err, "request should complete")
	require.Equal(t, 404, resp.StatusCode, "missing role should return 404")

	t.Log("✓ Missing role returns not found")

	t.Log("=== All Update Role Tests Passed ===")
}

// TestDeleteRole tests the DELETE /api/roles/:id endpoint
func TestDeleteRole(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	t.Log("=== Starting Test Infrastructure ===")
	infra, err := setup.StartInfra(ctx, t)
	require.NoError(t, err, "infrastructure should start successfully")
	defer func() { _ = infra.Terminate(ctx, t) }()

	t.Log("=== Running Database Migrations ===")
	_ = setup.RunMigration(infra.PgURL, t)

	t.Log("=== Setting Up Test Application ===")
	app, db, _, _ := setup.SetupTestApp(t, infra.PgURL, infra.RedisURL, infra.MinioURL)
	defer db.Close()

	t.Log("=== Setup: Seeding Owner, Server, Role and Members ===")
	ownerId := setup.SeedUser(t, db, ctx, "deleter")
	serverId := setup.SeedServer(t, db, ctx, ownerId, "Delete Server")

	reqBody := []byte(fmt.Sprintf(`{"name":"Doomed","serverId":"%s","permissions":["SEND_MESSAGES"]}`, serverId))
	req := setup.CreateActorRequest(http.MethodPost, "/api/roles", reqBody, ownerId)
	resp, err := app.Test(req)
	require.NoError(t, err, "create role should complete")
	require.Equal(t, 201, resp.StatusCode, "create role should return 201")

	result := setup.ParseJSONResponse(t, resp)
	roleId := uuid.MustParse(result["id"].(string))

	// Three members hold the role before deletion
	for i := 0; i < 3; i++ {
		memberUserId := setup.SeedUser(t, db, ctx, fmt.Sprintf("holder%d", i))
		setup.SeedMember(t, db, ctx, serverId, memberUserId, &roleId)
	}

	// Test 1: Delete role and count detached members
	t.Log("=== Test 1: Delete Role with Assigned Members ===")
	req = setup.CreateActorRequest(http.MethodDelete, fmt.Sprintf("/api/roles/%s", roleId), nil, ownerId)
	resp, err = app.Test(req)
	require.NoError(t, err, "delete request should complete")
	require.Equal(t, 200, resp.StatusCode, "delete should return 200")

	result = setup.ParseJSONResponse(t, resp)
	require.Equal(t, float64(3), result["membersAffected"], "all three holders should be detached")

	t.Log("✓ Role deleted, membersAffected=3")

	// Test 2: Members survive with their role reference cleared
	t.Log("=== Test 2: Members Survive with Cleared Role ===")
	var remaining int
	err = db.QueryRow(ctx, "SELECT COUNT(*) FROM server_members WHERE server_id=$1", serverId).Scan(&remaining)
	require.NoError(t, err, "count query should succeed")
	require.Equal(t, 3, remaining, "memberships should not be deleted")

	var stillAssigned int
	err = db.QueryRow(ctx, "SELECT COUNT(*) FROM server_members WHERE role_id=$1", roleId).Scan(&stillAssigned)
	require.NoError(t, err, "count query should succeed")
	require.Equal(t, 0, stillAssigned, "no member should still reference the role")

	t.Log("✓ Memberships intact, role references cleared")

	// Test 3: Deleted role is gone
	t.Log("=== Test 3: Deleted Role Is Gone ===")
	req = setup.CreateJSONRequest(http.MethodGet, fmt.Sprintf("/api/roles/%s", roleId), nil)
	resp, err = app.Test(req)
	require.NoError(t, err, "request should complete")
	require.Equal(t, 404, resp.StatusCode, "deleted role should return 404")

	t.Log("✓ Deleted role returns not found")

	t.Log("=== All Delete Role Tests Passed ===")
}

// TestGetRolesByServer tests the GET /api/roles/server/:serverId endpoint
func TestGetRolesByServer(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	t.Log("=== Starting Test Infrastructure ===")
	infra, err := setup.StartInfra(ctx, t)
	require.NoError(t, err, "infrastructure should start successfully")
	defer func() { _ = infra.Terminate(ctx, t) }()

	t.Log("=== Running Database Migrations ===")
	_ = setup.RunMigration(infra.PgURL, t)

	t.Log("=== Setting Up Test Application ===")
	app, db, _, _ := setup.SetupTestApp(t, infra.PgURL, infra.RedisURL, infra.MinioURL)
	defer db.Close()

	t.Log("=== Setup: Seeding Owner, Server and 15 Roles ===")
	ownerId := setup.SeedUser(t, db, ctx, "lister")
	serverId := setup.SeedServer(t, db, ctx, ownerId, "List Server")

	for i := 0; i < 15; i++ {
		reqBody := []byte(fmt.Sprintf(`{"name":"Role %02d","serverId":"%s"}`, i, serverId))
		req := setup.CreateActorRequest(http.MethodPost, "/api/roles", reqBody, ownerId)
		resp, err := app.Test(req)
		require.NoError(t, err, "create role %d should complete", i)
		require.Equal(t, 201, resp.StatusCode, "create role %d should return 201", i)
	}

	// Test 1: First page with default limit
	t.Log("=== Test 1: First Page with Default Limit ===")
	req := setup.CreateJSONRequest(http.MethodGet, fmt.Sprintf("/api/roles/server/%s", serverId), nil)
	resp, err := app.Test(req)
	require.NoError(t, err, "list request should complete")
	require.Equal(t, 200, resp.StatusCode, "list should return 200")

	result := setup.ParseJSONResponse(t, resp)
	data := result["data"].([]interface{})
	require.Len(t, data, 10, "first page should hold 10 roles")

	for _, raw := range data {
		role := raw.(map[string]interface{})
		server := role["server"].(map[string]interface{})
		require.Equal(t, "List Server", server["name"], "every item should embed the server summary")
	}

	pagination := result["pagination"].(map[string]interface{})
	require.Equal(t, float64(15), pagination["total"], "total should be 15")
	require.Equal(t, float64(1), pagination["page"], "page should be 1")
	require.Equal(t, float64(10), pagination["limit"], "limit should be 10")
	require.Equal(t, float64(2), pagination["totalPages"], "totalPages should be 2")

	t.Log("✓ First page returned with correct pagination")

	// Test 2: Second page holds the remainder
	t.Log("=== Test 2: Second Page Holds the Remainder ===")
	req = setup.CreateJSONRequest(http.MethodGet, fmt.Sprintf("/api/roles/server/%s?page=2&limit=10", serverId), nil)
	resp, err = app.Test(req)
	require.NoError(t, err, "list request should complete")
	require.Equal(t, 200, resp.StatusCode, "list should return 200")

	result = setup.ParseJSONResponse(t, resp)
	data = result["data"].([]interface{})
	require.Len(t, data, 5, "second page should hold the remaining 5 roles")

	pagination = result["pagination"].(map[string]interface{})
	require.Equal(t, float64(2), pagination["page"], "page should be 2")
	require.Equal(t, float64(2), pagination["totalPages"], "totalPages should be 2")

	t.Log("✓ Second page returned 5 roles")

	// Test 3: Limit above the cap is rejected
	t.Log("=== Test 3: Limit Above the Cap ===")
	req = setup.CreateJSONRequest(http.MethodGet, fmt.Sprintf("/api/roles/server/%s?limit=500", serverId), nil)
	resp, err = app.Test(req)
	require.NoError(t, err, "request should complete")
	require.Equal(t, 400, resp.StatusCode, "oversized limit should return 400")

	t.Log("✓ Oversized limit rejected")

	// Test 4: Listing a missing server
	t.Log("=== Test 4: Listing a Missing Server ===")
	req = setup.CreateJSONRequest(http.MethodGet, fmt.Sprintf("/api/roles/server/%s", uuid.New()), nil)
	resp, err = app.Test(req)
	require.NoError(t, err, "request should complete")

	result = setup.ParseJSONResponse(t, resp)
	data = result["data"].([]interface{})
	require.Len(t, data, 0, "missing server should list no roles")

	t.Log("✓ Missing server lists empty")

	t.Log("=== All Get Roles By Server Tests Passed ===")
}

// TestValidateRoleName tests the GET /api/roles/validate/name endpoint
func TestValidateRoleName(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	t.Log("=== Starting Test Infrastructure ===")
	infra, err := setup.StartInfra(ctx, t)
	require.NoError(t, err, "infrastructure should start successfully")
	defer func() { _ = infra.Terminate(ctx, t) }()

	t.Log("=== Running Database Migrations ===")
	_ = setup.RunMigration(infra.PgURL, t)

	t.Log("=== Setting Up Test Application ===")
	app, db, _, _ := setup.SetupTestApp(t, infra.PgURL, infra.RedisURL, infra.MinioURL)
	defer db.Close()

	t.Log("=== Setup: Seeding Owner, Server and Role ===")
	ownerId := setup.SeedUser(t, db, ctx, "validator")
	serverId := setup.SeedServer(t, db, ctx, ownerId, "Validate Server")

	reqBody := []byte(fmt.Sprintf(`{"name":"Admins","serverId":"%s"}`, serverId))
	req := setup.CreateActorRequest(http.MethodPost, "/api/roles", reqBody, ownerId)
	resp, err := app.Test(req)
	require.NoError(t, err, "create role should complete")
	require.Equal(t, 201, resp.StatusCode, "create role should return 201")

	result := setup.ParseJSONResponse(t, resp)
	roleId := result["id"].(string)

	// Test 1: Taken name reports not unique
	t.Log("=== Test 1: Taken Name Reports Not Unique ===")
	req = setup.CreateJSONRequest(http.MethodGet, fmt.Sprintf("/api/roles/validate/name?name=Admins&serverId=%s", serverId), nil)
	resp, err = app.Test(req)
	require.NoError(t, err, "validate request should complete")
	require.Equal(t, 200, resp.StatusCode, "validate should return 200")

	result = setup.ParseJSONResponse(t, resp)
	require.Equal(t, false, result["isUnique"], "taken name should not be unique")
	require.Equal(t, true, result["exists"], "taken name should exist")

	t.Log("✓ Taken name detected")

	// Test 2: Free name reports unique
	t.Log("=== Test 2: Free Name Reports Unique ===")
	req = setup.CreateJSONRequest(http.MethodGet, fmt.Sprintf("/api/roles/validate/name?name=Freebies&serverId=%s", serverId), nil)
	resp, err = app.Test(req)
	require.NoError(t, err, "validate request should complete")
	require.Equal(t, 200, resp.StatusCode, "validate should return 200")

	result = setup.ParseJSONResponse(t, resp)
	require.Equal(t, true, result["isUnique"], "free name should be unique")
	require.Equal(t, false, result["exists"], "free name should not exist")

	t.Log("✓ Free name detected")

	// Test 3: Excluding the role itself makes its own name valid
	t.Log("=== Test 3: Exclude Own Role Id ===")
	req = setup.CreateJSONRequest(http.MethodGet, fmt.Sprintf("/api/roles/validate/name?name=Admins&serverId=%s&excludeId=%s", serverId, roleId), nil)
	resp, err = app.Test(req)
	require.NoError(t, err, "validate request should complete")
	require.Equal(t, 200, resp.StatusCode, "validate should return 200")

	result = setup.ParseJSONResponse(t, resp)
	require.Equal(t, true, result["isUnique"], "own name should be unique when excluded")

	t.Log("✓ Exclusion makes rename-in-place valid")

	// Test 4: Missing name is rejected
	t.Log("=== Test 4: Missing Name Is Rejected ===")
	req = setup.CreateJSONRequest(http.MethodGet, fmt.Sprintf("/api/roles/validate/name?serverId=%s", serverId), nil)
	resp, err = app.Test(req)
	require.NoError(t, err, "request should complete")
	require.Equal(t, 400, resp.StatusCode, "missing name should return 400")

	t.Log("✓ Missing name rejected")

	t.Log("=== All Validate Role Name Tests Passed ===")
}

// TestGetRoleById tests the GET /api/roles/:id endpoint including the cache path
func TestGetRoleById(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	t.Log("=== Starting Test Infrastructure ===")
	infra, err := setup.StartInfra(ctx, t)
	require.NoError(t, err, "infrastructure should start successfully")
	defer func() { _ = infra.Terminate(ctx, t) }()

	t.Log("=== Running Database Migrations ===")
	_ = setup.RunMigration(infra.PgURL, t)

	t.Log("=== Setting Up Test Application ===")
	app, db, redisClient, _ := setup.SetupTestApp(t, infra.PgURL, infra.RedisURL, infra.MinioURL)
	defer db.Close()

	t.Log("=== Setup: Seeding Owner, Server, Role and Holder ===")
	ownerId := setup.SeedUser(t, db, ctx, "detailowner")
	holderId := setup.SeedUser(t, db, ctx, "detailholder")
	serverId := setup.SeedServer(t, db, ctx, ownerId, "Detail Server")

	reqBody := []byte(fmt.Sprintf(`{"name":"Detailed","serverId":"%s","permissions":["BAN_MEMBERS","KICK_MEMBERS"]}`, serverId))
	req := setup.CreateActorRequest(http.MethodPost, "/api/roles", reqBody, ownerId)
	resp, err := app.Test(req)
	require.NoError(t, err, "create role should complete")
	require.Equal(t, 201, resp.StatusCode, "create role should return 201")

	result := setup.ParseJSONResponse(t, resp)
	roleId := uuid.MustParse(result["id"].(string))

	setup.SeedMember(t, db, ctx, serverId, holderId, &roleId)

	// Test 1: Role detail with permissions and members
	t.Log("=== Test 1: Role Detail with Permissions and Members ===")
	req = setup.CreateJSONRequest(http.MethodGet, fmt.Sprintf("/api/roles/%s", roleId), nil)
	resp, err = app.Test(req)
	require.NoError(t, err, "detail request should complete")
	require.Equal(t, 200, resp.StatusCode, "detail should return 200")

	result = setup.ParseJSONResponse(t, resp)
	require.Equal(t, "Detailed", result["name"], "role name should match")

	permissions := result["permissions"].([]interface{})
	require.Len(t, permissions, 2, "role should carry 2 permissions")

	members := result["members"].([]interface{})
	require.Len(t, members, 1, "role should list its one holder")

	holder := members[0].(map[string]interface{})
	require.Equal(t, "detailholder", holder["username"], "holder username should match")

	t.Log("✓ Role detail returned with permissions and members")

	// Test 2: Detail lands in the cache
	t.Log("=== Test 2: Detail Lands in the Cache ===")
	cacheKey := fmt.Sprintf("role:detail:%s", roleId)
	cached, err := redisClient.Get(ctx, cacheKey).Bytes()
	require.NoError(t, err, "cache entry should exist after first read")
	require.NotEmpty(t, cached, "cache entry should not be empty")

	t.Log("✓ Role detail cached")

	// Test 3: Update invalidates the cache
	t.Log("=== Test 3: Update Invalidates the Cache ===")
	reqBody = []byte(`{"name":"Renamed Detail"}`)
	req = setup.CreateActorRequest(http.MethodPut, fmt.Sprintf("/api/roles/%s", roleId), reqBody, ownerId)
	resp, err = app.Test(req)
	require.NoError(t, err, "update request should complete")
	require.Equal(t, 200, resp.StatusCode, "update should return 200")

	exists, err := redisClient.Exists(ctx, cacheKey).Result()
	require.NoError(t, err, "cache check should succeed")
	require.Equal(t, int64(0), exists, "cache entry should be dropped on update")

	req = setup.CreateJSONRequest(http.MethodGet, fmt.Sprintf("/api/roles/%s", roleId), nil)
	resp, err = app.Test(req)
	require.NoError(t, err, "detail request should complete")

	result = setup.ParseJSONResponse(t, resp)
	require.Equal(t, "Renamed Detail", result["name"], "detail should reflect the rename")

	t.Log("✓ Cache invalidated on update")

	// Test 4: Unknown role id
	t.Log("=== Test 4: Unknown Role Id ===")
	req = setup.CreateJSONRequest(http.MethodGet, fmt.Sprintf("/api/roles/%s", uuid.New()), nil)
	resp, err = app.Test(req)
	require.NoError(t, err, "request should complete")
	require.Equal(t, 404, resp.StatusCode, "unknown role should return 404")

	t.Log("✓ Unknown role returns not found")

	t.Log("=== All Get Role By Id Tests Passed ===")
}
