package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/proofboard/proofboard/app/controllers"
)

// Deps carries the controllers the routers install. Everything is built once
// in main and injected here.
type Deps struct {
	Payments *controllers.PaymentController
	Diag     *controllers.DiagController
}

type HttpRouter struct {
	deps Deps
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/", controllers.RenderDashboard)
}

func NewHttpRouter(deps Deps) *HttpRouter {
	return &HttpRouter{deps: deps}
}
