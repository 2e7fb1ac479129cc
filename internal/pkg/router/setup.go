package router

import (
	"github.com/gofiber/fiber/v2"
)

// Router installs a set of routes on the app
type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter wires the whole HTTP surface. HttpRouter initializes the
// session store, the shared caches and the global tenant-context middleware
// before registering any route that depends on them.
func InstallRouter(app *fiber.App) {
	setup(app, NewHttpRouter())
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
