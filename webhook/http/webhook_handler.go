package http

import (
	"context"
	"net/http"

	"github.com/dfryer1193/blogo/blog/application"
	"github.com/go-chi/chi/v5"
	"github.com/google/go-github/v75/github"
	"github.com/rs/zerolog/log"
)

// PushHandler consumes pushes to the repository posts are authored in.
type PushHandler interface {
	HandlePushEvent(ctx context.Context, evt application.PushEvent) error
}

type WebhookHandler struct {
	webhookSecret []byte
	pushes        PushHandler
}

func NewWebhookHandler(webhookSecret string, pushes PushHandler) *WebhookHandler {
	return &WebhookHandler{
		webhookSecret: []byte(webhookSecret),
		pushes:        pushes,
	}
}

func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhook/git", h.HandleGitWebhook)
}

// Router returns a chi router serving the webhook routes.
func (h *WebhookHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func (h *WebhookHandler) HandleGitWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := github.ValidatePayload(r, h.webhookSecret)
	if err != nil {
		log.Warn().Err(err).Msg("Rejected webhook payload")
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	event, err := github.ParseWebHook(github.WebHookType(r), payload)
	if err != nil {
		http.Error(w, "Invalid event", http.StatusBadRequest)
		return
	}

	switch evt := event.(type) {
	case *github.PushEvent:
		log.Info().Str("ref", evt.GetRef()).Str("after", evt.GetAfter()).Msg("Received push")
		err = h.pushes.HandlePushEvent(r.Context(), application.PushEvent{
			Ref:    evt.GetRef(),
			Before: evt.GetBefore(),
			After:  evt.GetAfter(),
		})
	default:
		log.Debug().Str("event", github.WebHookType(r)).Msg("Ignoring webhook event")
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to handle webhook event")
		http.Error(w, "Error handling event", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
