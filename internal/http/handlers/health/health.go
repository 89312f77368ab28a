package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/testprep/internal/http/response"
	"github.com/magabrotheeeer/testprep/internal/lib/sl"
)

// Pinger проверяет доступность зависимости.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	log  *slog.Logger
	deps map[string]Pinger
}

// New создаёт Handler, проверяющий перечисленные зависимости.
func New(log *slog.Logger, deps map[string]Pinger) *Handler {
	return &Handler{
		log:  log,
		deps: deps,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	checks := make(map[string]string, len(h.deps))
	healthy := true
	for name, dep := range h.deps {
		if err := dep.Ping(r.Context()); err != nil {
			h.log.Error("dependency unavailable", slog.String("op", op), slog.String("dependency", name), sl.Err(err))
			checks[name] = "unavailable"
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	if !healthy {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Response{Status: response.StatusError, Error: "UNAVAILABLE", Data: checks})
		return
	}
	render.JSON(w, r, response.StatusOKWithData(checks))
}
