package handler

// Route patterns for chi router registration.
const (
	RouteRoot        = "/"
	RouteSuggestions = "/suggestions"
	RouteLogin       = "/login"
	RouteLogout      = "/logout"
	RouteHealth      = "/health"
	RouteStatic      = "/static/*"

	RouteAdmin      = "/admin"
	RouteTerms      = "/terms"
	RouteTermsID    = "/terms/{id}"
	RouteSuffixNew  = "/new"
	RouteSuffixEdit = "/edit"
	RouteSuffixDel  = "/delete"
	RouteBulkDelete = "/terms/bulk-delete"
	RouteDeleteAll  = "/delete-all"
	RouteUpload     = "/upload"
	RouteCleanup    = "/cleanup"
	RouteEvents     = "/events"
)

// Redirect targets.
const (
	redirectRoot        = "/"
	redirectLogin       = "/login"
	redirectAdmin       = "/admin"
	redirectAdminEvents = "/admin/events"
)

// Template names.
const (
	tmplSearch    = "public/search"
	tmplLogin     = "auth/login"
	tmplDashboard = "admin/dashboard"
	tmplTermForm  = "admin/term_form"
	tmplConfirm   = "admin/confirm_bulk"
	tmplDeleteAll = "admin/delete_all"
	tmplUpload    = "admin/upload"
	tmplEvents    = "admin/events"
)

// Session expiry message shown on the login page after a 401.
const msgSessionExpired = "Session expired. Please log in again."
