package server

import (
	"github.com/julienschmidt/httprouter"

	assignmenthandler "cyclecount/internal/assignments/handler"
	countshandler "cyclecount/internal/counts/handler"
	inventoryhandler "cyclecount/internal/inventory/handler"
	settingshandler "cyclecount/internal/settings/handler"
)

// Router bundles the domain handlers behind one route registration.
type Router struct {
	Assignments *assignmenthandler.AssignmentHandler
	Inventory   *inventoryhandler.InventoryHandler
	Counts      *countshandler.SubmissionHandler
	Settings    *settingshandler.SettingsHandler
}

func (r *Router) RegisterRoutes(router *httprouter.Router) {
	r.Assignments.RegisterRoutes(router)
	r.Inventory.RegisterRoutes(router)
	r.Counts.RegisterRoutes(router)
	r.Settings.RegisterRoutes(router)
}
