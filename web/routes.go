package web

import (
	"farmdash/farm"

	"github.com/rohanthewiz/rweb"
)

// SetupRoutes configures all HTTP routes for the server
func SetupRoutes(s *rweb.Server, h *Handlers) {
	// Pages
	s.Get("/", h.planListPage)
	s.Get("/wizard/new", h.newWizardPage)
	s.Get("/plans/:id/edit", h.editWizardPage)
	s.Get("/wizard/:sid", h.wizardPage)

	// Resource API
	s.Get("/api/plans", h.listPlans)
	s.Post("/api/plans", h.createPlan)
	s.Get("/api/plans/:id", h.getPlan)
	s.Put("/api/plans/:id", h.updatePlan)
	s.Put("/api/plans/:id/status", h.updatePlanStatus)
	s.Get("/api/plans/:id/caring-tasks", h.listCaringTasks)
	s.Get("/api/plans/:id/harvesting-tasks", h.listHarvestingTasks)
	s.Get("/api/plans/:id/inspecting-forms", h.listInspectingForms)
	s.Post("/api/caring-tasks", h.createCaringTask)
	s.Post("/api/harvesting-tasks", h.createHarvestingTask)
	s.Post("/api/inspecting-forms", h.createInspectingForm)

	// Reference catalogs
	for _, name := range []string{farm.CatalogItems, farm.CatalogPesticides, farm.CatalogFertilizers, farm.CatalogPlants, farm.CatalogYields} {
		s.Get("/api/"+name, h.catalogHandler(name))
	}

	// Wizard sessions
	s.Post("/api/wizard", h.openWizard)
	s.Get("/api/wizard/:sid", h.getWizard)
	s.Delete("/api/wizard/:sid", h.closeWizard)
	s.Put("/api/wizard/:sid/values", h.updateWizardValues)
	s.Post("/api/wizard/:sid/step/:n", h.goToStep)
	s.Post("/api/wizard/:sid/back", h.back)
	s.Post("/api/wizard/:sid/submit", h.submitStep)
	s.Post("/api/wizard/:sid/draft", h.saveDraft)
	s.Post("/api/wizard/:sid/tasks/:category", h.addTask)
	s.Delete("/api/wizard/:sid/tasks/:category/:index", h.removeTask)
	s.Get("/api/wizard/:sid/review", h.reviewFragment)

	// Order selection scoped to a wizard session
	s.Put("/api/wizard/:sid/orders", h.setOrders)
	s.Put("/api/wizard/:sid/orders/plant", h.setOrderPlant)
	s.Post("/api/wizard/:sid/orders/apply", h.applyOrders)
	s.Post("/api/wizard/:sid/selection/:oid", h.selectOrder)
	s.Delete("/api/wizard/:sid/selection/:oid", h.deselectOrder)
	s.Delete("/api/wizard/:sid/selection", h.clearSelection)

	// SSE endpoint for plan events and wizard notices
	s.Get("/events", func(c rweb.Context) error {
		clientChan := make(chan any, 10)
		h.hub.Register(clientChan)

		// Cannot unregister here, the conn outlives this handler
		s.SetupSSE(c, clientChan, "")
		return nil
	})
}
