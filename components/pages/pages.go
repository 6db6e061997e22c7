// components/pages/pages.go
//
// Informational pages – home, about, FAQ, and the contact form.  All
// presentation except the contact POST, which validates through the forms
// subsystem and forwards the enquiry by email.
//
//------------------------------------------------------------------------------

package pages

import (
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/propcost/internal/component"
	"github.com/yanizio/propcost/internal/form"
	"github.com/yanizio/propcost/internal/session"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves the static-content routes.
type Component struct {
	deps component.Deps
}

/*────────────────── component.Component methods ───────────────────────────*/

func (c *Component) Name() string { return "pages" }

func (c *Component) Init(d component.Deps) error {
	c.deps = d
	return nil
}

// Routes builds and returns the router mounted at “/”.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", c.page("home"))
	r.Get("/about", c.page("about"))
	r.Get("/faq", c.page("faq"))
	r.Get("/contact", c.handleContactGET)
	r.Post("/contact", c.handleContactPOST)
	return r
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.render(w, r, name, nil)
	}
}

func (c *Component) handleContactGET(w http.ResponseWriter, r *http.Request) {
	c.renderContact(w, r, nil, nil)
}

// handleContactPOST validates the enquiry and forwards it to the configured
// operator address.  Validation failures re-render with field messages.
func (c *Component) handleContactPOST(w http.ResponseWriter, r *http.Request) {
	data, err := form.HandleSubmit("pages/contact", r)
	if err != nil {
		if form.IsValidationError(err) {
			c.renderContact(w, r, form.FieldErrors(err), r.PostForm)
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	to := c.deps.Config.Email.ContactTo
	if to == "" {
		c.deps.Log.Errorw("contact form received but no contact_to configured")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	body := fmt.Sprintf(
		"<p><strong>From:</strong> %s &lt;%s&gt;</p><p><strong>Topic:</strong> %s</p><p>%s</p>",
		html.EscapeString(fmt.Sprint(data["name"])),
		html.EscapeString(fmt.Sprint(data["email"])),
		html.EscapeString(fmt.Sprint(data["topic"])),
		html.EscapeString(fmt.Sprint(data["message"])))

	if _, err := c.deps.Mailer.Notify(r.Context(), to, "Propcost contact enquiry", body); err != nil {
		c.deps.Log.Errorw("contact enquiry send failed", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	c.render(w, r, "contact-sent", nil)
}

/*──────────────────────────── Render helpers ───────────────────────────────*/

func (c *Component) render(w http.ResponseWriter, r *http.Request, name string, content map[string]any) {
	if err := c.deps.Views.Render(w, r, "pages", name, content, session.FromContext(r.Context())); err != nil {
		c.deps.Log.Errorw("render failed", "template", name, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// renderContact refreshes the CSRF token and render timestamp every time
// the form is shown.
func (c *Component) renderContact(w http.ResponseWriter, r *http.Request, errs []form.ErrorField, prefill map[string][]string) {
	token, err := form.GenerateToken()
	if err != nil {
		c.deps.Log.Errorw("csrf token generation failed", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	def, _ := form.GetFormDef("pages/contact")
	c.render(w, r, "contact", map[string]any{
		"Form":      def,
		"CSRF":      token,
		"RenderTS":  time.Now().UnixMicro(),
		"Errors":    errs,
		"Prefill":   prefill,
		"ContactOK": c.deps.Config.Email.ContactTo != "",
	})
}
