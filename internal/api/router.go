package api

import (
	"fleet-ops/internal/api/middleware"
	"fleet-ops/internal/modules/assignments"
	"fleet-ops/internal/modules/dashboard"
	"fleet-ops/internal/modules/deliveries"
	"fleet-ops/internal/modules/employees"
	"fleet-ops/internal/modules/inventory"
	"fleet-ops/internal/modules/leaves"
	"fleet-ops/internal/modules/routing"
	"fleet-ops/internal/modules/vehicles"

	"github.com/labstack/echo/v4"
)

// Handlers bundles the module handlers the router wires up.
type Handlers struct {
	Employees   *employees.Handler
	Deliveries  *deliveries.Handler
	Assignments *assignments.Handler
	Routing     *routing.Handler
	Vehicles    *vehicles.Handler
	Inventory   *inventory.Handler
	Leaves      *leaves.Handler
	Dashboard   *dashboard.Handler
}

// SetupRoutes registers every API route and its auth requirements.
func SetupRoutes(e *echo.Echo, h Handlers, jwtSecret string) {
	apiGroup := e.Group("/api")

	// Public auth surface.
	auth := apiGroup.Group("/auth")
	auth.POST("/login", h.Employees.Login)
	auth.GET("/google/login", h.Employees.GoogleLogin)
	auth.GET("/google/callback", h.Employees.GoogleCallback)

	// Everything below requires a valid JWT.
	protected := apiGroup.Group("", middleware.JWTAuth(jwtSecret))

	protected.GET("/profile", h.Employees.GetProfile)
	protected.PATCH("/profile", h.Employees.UpdateProfile)

	// Employee administration.
	emp := protected.Group("/employees", middleware.AdminRequired())
	emp.POST("", h.Employees.Signup)
	emp.GET("", h.Employees.ListEmployees)
	emp.PATCH("/:employeeId", h.Employees.UpdateEmployee)
	emp.DELETE("/:employeeId", h.Employees.DeactivateEmployee)

	// The driver picker is needed by anyone planning assignments.
	protected.GET("/drivers", h.Employees.ListDrivers, middleware.DriverOrAdminRequired())

	// Deliveries.
	del := protected.Group("/deliveries")
	del.GET("", h.Deliveries.ListDeliveries)
	del.GET("/:deliveryId", h.Deliveries.GetDelivery)
	del.POST("", h.Deliveries.CreateDelivery, middleware.AdminRequired())
	del.PATCH("/:deliveryId", h.Deliveries.UpdateDelivery, middleware.DriverOrAdminRequired())
	del.DELETE("/:deliveryId", h.Deliveries.DeleteDelivery, middleware.AdminRequired())

	// Daily route assignments.
	asg := protected.Group("/assignments", middleware.DriverOrAdminRequired())
	asg.GET("/groups", h.Assignments.ListDateGroups)
	asg.GET("/available", h.Assignments.AvailableDeliveries)
	asg.POST("", h.Assignments.CreateAssignment)
	asg.POST("/optimize", h.Assignments.OptimizeDate)
	asg.GET("/:assignmentId", h.Assignments.GetAssignment)
	asg.PATCH("/:assignmentId", h.Assignments.UpdateAssignment)
	asg.DELETE("/:assignmentId", h.Assignments.DeleteAssignment)
	asg.GET("/:assignmentId/navigation-link", h.Assignments.NavigationLink)

	// Ad hoc route optimization session, one per operator.
	rt := protected.Group("/routes", middleware.DriverOrAdminRequired())
	rt.POST("/optimize", h.Routing.Optimize)
	rt.POST("/save", h.Routing.Save)
	rt.GET("/current", h.Routing.Current)
	rt.DELETE("/current", h.Routing.Clear)
	rt.GET("/navigation-link", h.Routing.NavigationLink)

	// Fleet vehicles.
	veh := protected.Group("/vehicles")
	veh.GET("", h.Vehicles.ListVehicles)
	veh.GET("/:vehicleId", h.Vehicles.GetVehicle)
	veh.POST("", h.Vehicles.CreateVehicle, middleware.AdminRequired())
	veh.PATCH("/:vehicleId", h.Vehicles.UpdateVehicle, middleware.AdminRequired())
	veh.DELETE("/:vehicleId", h.Vehicles.DeleteVehicle, middleware.AdminRequired())

	// Warehouse inventory.
	inv := protected.Group("/inventory")
	inv.GET("", h.Inventory.ListItems)
	inv.GET("/:itemId", h.Inventory.GetItem)
	inv.POST("", h.Inventory.CreateItem, middleware.AdminRequired())
	inv.PATCH("/:itemId", h.Inventory.UpdateItem, middleware.AdminRequired())
	inv.POST("/:itemId/adjust", h.Inventory.AdjustStock)
	inv.DELETE("/:itemId", h.Inventory.DeleteItem, middleware.AdminRequired())

	// Leave requests.
	lv := protected.Group("/leaves")
	lv.POST("", h.Leaves.CreateLeaveRequest)
	lv.GET("/mine", h.Leaves.ListMyLeaveRequests)
	lv.GET("", h.Leaves.ListLeaveRequests, middleware.AdminRequired())
	lv.GET("/:leaveId", h.Leaves.GetLeaveRequest)
	lv.POST("/:leaveId/decision", h.Leaves.DecideLeaveRequest, middleware.AdminRequired())

	// Dashboard aggregates.
	protected.GET("/dashboard/summary", h.Dashboard.GetSummary)
}
