package website

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/wolfeidau/storefront/internal/gatekeeper"
	"github.com/wolfeidau/storefront/internal/routes"
)

//go:embed templates/*.html
var templateFS embed.FS

type page struct {
	Pattern string
	Title   string
	Heading string
	Summary string
	// Form posts back to the page are accepted on these.
	Accepts bool
}

var pages = []page{
	{Pattern: "/{$}", Title: "Home", Heading: "Fuel and EV charging, delivered", Summary: "Order fuel or a mobile charge to wherever your vehicle is parked."},
	{Pattern: routes.Login, Title: "Log in", Heading: "Log in", Summary: "Sign in to manage your deliveries."},
	{Pattern: routes.Register, Title: "Register", Heading: "Create an account", Summary: "Register to start ordering."},
	{Pattern: routes.CustomerLanding, Title: "Dashboard", Heading: "Your dashboard", Summary: "Upcoming deliveries and recent orders."},
	{Pattern: "/orders", Title: "Orders", Heading: "Orders", Summary: "Every delivery you have booked.", Accepts: true},
	{Pattern: "/orders/{id}", Title: "Order", Heading: "Order details", Summary: "Status and items of a single delivery."},
	{Pattern: "/cars/new", Title: "Add a vehicle", Heading: "Add a vehicle", Summary: "Tell us what we are filling up or charging.", Accepts: true},
	{Pattern: "/addresses", Title: "Addresses", Heading: "Delivery addresses", Summary: "Where we can find your vehicles.", Accepts: true},
	{Pattern: "/checkout", Title: "Checkout", Heading: "Checkout", Summary: "Confirm your order and pay.", Accepts: true},
	{Pattern: routes.AdminLanding, Title: "Admin", Heading: "Operations", Summary: "Today's deliveries across all customers."},
	{Pattern: "/admin/orders", Title: "Admin orders", Heading: "All orders", Summary: "Orders from every customer."},
	{Pattern: "/admin/products", Title: "Admin products", Heading: "Products", Summary: "Fuel grades and charging packages."},
}

var notFoundPage = page{Title: "Not found", Heading: "Page not found", Summary: "There is nothing at this address."}

type renderer struct {
	tmpl   *template.Template
	apiURL string
}

func newRenderer(apiURL string) (*renderer, error) {
	funcs := template.FuncMap{
		"marshal": marshal,
	}

	tmpl, err := template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &renderer{tmpl: tmpl, apiURL: apiURL}, nil
}

// handler renders p. Requests admitted without a cookie get a shell that
// leaves the session check to the client runtime.
func (rd *renderer) handler(p page, status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, _ := gatekeeper.FromContext(r.Context())

		data := map[string]any{
			"Title":      p.Title,
			"Heading":    p.Heading,
			"Summary":    p.Summary,
			"Path":       r.URL.Path,
			"Protected":  routes.IsProtected(r.URL.Path),
			"Unverified": res.Reason == gatekeeper.ReasonUnverified,
			"Context": map[string]any{
				"apiURL":    rd.apiURL,
				"path":      r.URL.Path,
				"id":        r.PathValue("id"),
				"loginPath": routes.Login,
			},
		}

		var buf bytes.Buffer
		if err := rd.tmpl.ExecuteTemplate(&buf, "page.html", data); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("Failed to render template")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = buf.WriteTo(w)
	}
}

// accept acknowledges a form post and sends the browser back to the page.
func accept(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
}

func marshal(v any) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil //nolint:gosec
}
