package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/ferdian3456/rolehub/internal/model"
	"github.com/google/uuid"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newBareRoleUsecase builds a usecase with no storage behind it. Validation
// runs before any repository access, so these tests never touch a database.
func newBareRoleUsecase() *RoleUsecase {
	return NewRoleUsecase(nil, nil, zap.NewNop(), koanf.New("."))
}

func requireValidationError(t *testing.T, err error, param string) {
	t.Helper()

	var validationErr *model.ValidationError
	require.True(t, errors.As(err, &validationErr), "expected a validation error, got %v", err)
	require.Equal(t, param, validationErr.Param)
}

func TestNormalizePermissions(t *testing.T) {
	normalized, err := normalizePermissions([]string{
		model.PermManageRoles,
		model.PermKickMembers,
		model.PermManageRoles,
	})
	require.NoError(t, err)
	require.Equal(t, []string{model.PermManageRoles, model.PermKickMembers}, normalized, "duplicates should be dropped, order kept")
}

func TestNormalizePermissionsEmpty(t *testing.T) {
	normalized, err := normalizePermissions(nil)
	require.NoError(t, err)
	require.Nil(t, normalized)

	normalized, err = normalizePermissions([]string{})
	require.NoError(t, err)
	require.Nil(t, normalized)
}

func TestNormalizePermissionsUnknownValue(t *testing.T) {
	_, err := normalizePermissions([]string{"SUPER_POWERS"})
	requireValidationError(t, err, "permissions")
}

func TestCreateRoleValidation(t *testing.T) {
	usecase := newBareRoleUsecase()
	ctx := context.Background()
	actorId := uuid.New()

	_, err := usecase.CreateRole(ctx, actorId, model.RoleCreateRequest{
		Name:     "",
		ServerId: uuid.NewString(),
	})
	requireValidationError(t, err, "name")

	_, err = usecase.CreateRole(ctx, actorId, model.RoleCreateRequest{
		Name:     "Mods",
		ServerId: "",
	})
	requireValidationError(t, err, "serverId")

	_, err = usecase.CreateRole(ctx, actorId, model.RoleCreateRequest{
		Name:     "Mods",
		ServerId: "not-a-uuid",
	})
	requireValidationError(t, err, "serverId")

	_, err = usecase.CreateRole(ctx, actorId, model.RoleCreateRequest{
		Name:        "Mods",
		ServerId:    uuid.NewString(),
		Permissions: []string{"NOT_A_PERMISSION"},
	})
	requireValidationError(t, err, "permissions")
}

func TestUpdateRoleValidation(t *testing.T) {
	usecase := newBareRoleUsecase()
	ctx := context.Background()
	actorId := uuid.New()

	_, err := usecase.UpdateRole(ctx, actorId, "not-a-uuid", model.RoleUpdateRequest{})
	requireValidationError(t, err, "id")

	emptyName := ""
	_, err = usecase.UpdateRole(ctx, actorId, uuid.NewString(), model.RoleUpdateRequest{
		Name: &emptyName,
	})
	requireValidationError(t, err, "name")

	badPermissions := []string{"NOT_A_PERMISSION"}
	_, err = usecase.UpdateRole(ctx, actorId, uuid.NewString(), model.RoleUpdateRequest{
		Permissions: &badPermissions,
	})
	requireValidationError(t, err, "permissions")
}

func TestDeleteRoleValidation(t *testing.T) {
	usecase := newBareRoleUsecase()

	_, err := usecase.DeleteRole(context.Background(), uuid.New(), "not-a-uuid")
	requireValidationError(t, err, "id")
}

func TestValidateRoleNameValidation(t *testing.T) {
	usecase := newBareRoleUsecase()
	ctx := context.Background()

	_, err := usecase.ValidateRoleName(ctx, "", uuid.NewString(), "")
	requireValidationError(t, err, "name")

	_, err = usecase.ValidateRoleName(ctx, "Mods", "", "")
	requireValidationError(t, err, "serverId")

	_, err = usecase.ValidateRoleName(ctx, "Mods", "not-a-uuid", "")
	requireValidationError(t, err, "serverId")

	_, err = usecase.ValidateRoleName(ctx, "Mods", uuid.NewString(), "not-a-uuid")
	requireValidationError(t, err, "excludeId")
}

func TestGetRolesByServerValidation(t *testing.T) {
	usecase := newBareRoleUsecase()
	ctx := context.Background()

	_, err := usecase.GetRolesByServer(ctx, "", 1, 10)
	requireValidationError(t, err, "serverId")

	_, err = usecase.GetRolesByServer(ctx, "not-a-uuid", 1, 10)
	requireValidationError(t, err, "serverId")

	_, err = usecase.GetRolesByServer(ctx, uuid.NewString(), 1, 500)
	requireValidationError(t, err, "limit")
}

func TestGetRoleByIdValidation(t *testing.T) {
	usecase := newBareRoleUsecase()

	_, err := usecase.GetRoleById(context.Background(), "not-a-uuid")
	requireValidationError(t, err, "id")
}
