package route

import (
	"github.com/ferdian3456/rolehub/internal/delivery/http"
	"github.com/ferdian3456/rolehub/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v2"
)

type RouteConfig struct {
	App              *fiber.App
	ActorMiddleware  *middleware.ActorMiddleware
	RoleController   *http.RoleController
	MemberController *http.MemberController
}

func (c *RouteConfig) SetupRoute() {
	api := c.App.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// static segments registered before /:id so they are not swallowed by it
	roleGroup := api.Group("/roles")
	roleGroup.Get("/server/:serverId", c.RoleController.GetRolesByServer)
	roleGroup.Get("/validate/name", c.RoleController.ValidateRoleName)
	roleGroup.Post("/", c.ActorMiddleware.RequireActor(), c.RoleController.CreateRole)
	roleGroup.Get("/:id", c.RoleController.GetRoleById)
	roleGroup.Put("/:id", c.ActorMiddleware.RequireActor(), c.RoleController.UpdateRole)
	roleGroup.Delete("/:id", c.ActorMiddleware.RequireActor(), c.RoleController.DeleteRole)

	serverGroup := api.Group("/servers")
	serverGroup.Get("/:serverId/members", c.MemberController.GetMembers)
	serverGroup.Put("/:serverId/members/role", c.ActorMiddleware.RequireActor(), c.MemberController.AssignRole)
}
