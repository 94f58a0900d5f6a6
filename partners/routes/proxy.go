package routes

import (
	"partners/partners/controllers"

	"github.com/go-chi/chi/v5"
)

func ProxyRoutes(ctrl *controllers.ProxyController) chi.Router {
	r := chi.NewRouter()
	// GET /proxy?url= : relay with frame-blocking headers stripped
	r.Get("/", ctrl.HandleProxy)
	// GET /proxy/meta?url= : embed-preview metadata
	r.Get("/meta", ctrl.HandleMeta)
	return r
}
