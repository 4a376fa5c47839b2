package dashboard

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// render executes a named template and tracks render duration and errors when
// metrics are enabled.
func (s *Server) render(w http.ResponseWriter, name string, data any) error {
	if s.metrics == nil {
		return s.templates.ExecuteTemplate(w, name, data)
	}

	timer := prometheus.NewTimer(s.metrics.TemplateRenderTime.WithLabelValues(name))
	defer timer.ObserveDuration()

	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.metrics.TemplateRenderErrors.WithLabelValues(name, "render_error").Inc()
		return err
	}
	return nil
}

// renderPage renders a full page template and reports a 500 on failure.
func (s *Server) renderPage(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.render(w, name, data); err != nil {
		s.logger.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
