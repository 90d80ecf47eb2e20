package guard

import "github.com/minics/console/internal/core/domain"

// Menu keys of the admin console.
const (
	MenuDashboard = "dashboard"
	MenuWorkbench = "workbench"
	MenuProjects  = "projects"
	MenuSettings  = "settings"
	MenuTickets   = "tickets"
	MenuCustomers = "customers"
	MenuAgents    = "agents"
	MenuRoles     = "roles"
)

// LoginPath is where unauthenticated navigation ends up.
const LoginPath = "/login"

// DefaultRoutes is the console's built-in route declaration table.
func DefaultRoutes() []domain.RouteDescriptor {
	return []domain.RouteDescriptor{
		{Path: "/", Redirect: "/admin"},
		{Path: LoginPath, Title: "Sign in"},
		{
			Path:         "/admin",
			RequiresAuth: true,
			Children: []domain.RouteDescriptor{
				{Path: "dashboard", Title: "Dashboard", Menu: MenuDashboard},
				{Path: "chat", Title: "Workbench", Menu: MenuWorkbench},
				{Path: "projects", Title: "Projects", Menu: MenuProjects},
				{Path: "tickets", Title: "Tickets", Menu: MenuTickets},
				{Path: "tickets/:id", Title: "Ticket", Menu: MenuTickets},
				{Path: "customers", Title: "Customers", Menu: MenuCustomers},
				{Path: "agents", Title: "Agents", Menu: MenuAgents},
				{Path: "roles", Title: "Roles", Menu: MenuRoles},
				{Path: "settings", Title: "Settings"},
			},
		},
		{
			Path: "/portal",
			Children: []domain.RouteDescriptor{
				{Path: "", Title: "Help center"},
				{Path: "chat", Title: "Live chat"},
			},
		},
		{
			Path: "/mobile/chat",
			Children: []domain.RouteDescriptor{
				{Path: "", Title: "Chat"},
			},
		},
	}
}
