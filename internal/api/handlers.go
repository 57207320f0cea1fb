// internal/api/handlers.go
package api

import (
	"github.com/gofiber/fiber/v2"
)

// Register mounts the unit routes.
func Register(app *fiber.App, reg Registry) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	g := app.Group("/units")

	g.Get("/", func(c *fiber.Ctx) error {
		units := reg.Units()
		out := make([]fiber.Map, 0, len(units))
		for _, u := range units {
			out = append(out, fiber.Map{
				"id":    u.ID(),
				"name":  u.Name(),
				"state": u.State().String(),
			})
		}
		return c.JSON(out)
	})

	g.Get("/:id", func(c *fiber.Ctx) error {
		u, ok := reg.Unit(c.Params("id"))
		if !ok {
			return notFound(c)
		}
		return c.JSON(ViewOf(u, u.Current()))
	})

	g.Get("/:id/sensors", func(c *fiber.Ctx) error {
		u, ok := reg.Unit(c.Params("id"))
		if !ok {
			return notFound(c)
		}
		return c.JSON(SensorsOf(u, c.QueryBool("all")))
	})

	g.Post("/:id/refresh", func(c *fiber.Ctx) error {
		u, ok := reg.Unit(c.Params("id"))
		if !ok {
			return notFound(c)
		}
		o := u.RefreshNow(c.UserContext())
		v := ViewOf(u, o)
		if !o.OK() {
			return c.Status(fiber.StatusBadGateway).JSON(v)
		}
		return c.JSON(v)
	})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unit not found: " + c.Params("id")})
}
