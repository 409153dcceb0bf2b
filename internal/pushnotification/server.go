package pushnotification

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/ichen27/openclaw-dashboard/internal/config"
	"github.com/ichen27/openclaw-dashboard/internal/pushsubscription"
	"github.com/ichen27/openclaw-dashboard/pkg/cerr"
)

type Server struct {
	vapidEnv *config.VAPIDEnv
	repo     pushsubscription.Repository
	sender   *Sender
}

func NewServer(vapidEnv *config.VAPIDEnv, repo pushsubscription.Repository, sender *Sender) *Server {
	return &Server{
		vapidEnv: vapidEnv,
		repo:     repo,
		sender:   sender,
	}
}

type registerRequest struct {
	Endpoint  string `json:"endpoint"`
	P256dhKey string `json:"p256dhKey"`
	AuthKey   string `json:"authKey"`
}

type registerResponse struct {
	Success      bool                           `json:"success"`
	Subscription *pushsubscription.Subscription `json:"subscription"`
}

type removeResponse struct {
	Success bool `json:"success"`
}

type vapidKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

func (s *Server) HandleVAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.vapidEnv.VAPIDPublicKey == "" {
		cerr.SetNewJSONError(ctx, cerr.FailedPrecondition, "VAPID keys not configured", nil)
		return
	}
	cerr.SetJSONResponse(ctx, vapidKeyResponse{PublicKey: s.vapidEnv.VAPIDPublicKey})
}

func (s *Server) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.Endpoint == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "endpoint is required", nil)
		return
	}
	if req.P256dhKey == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "p256dhKey is required", nil)
		return
	}
	if req.AuthKey == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "authKey is required", nil)
		return
	}

	// Re-registering the same endpoint refreshes its keys instead of piling
	// up duplicates.
	if existing := s.findByEndpoint(r, req.Endpoint); existing != nil {
		existing.P256dhKey = req.P256dhKey
		existing.AuthKey = req.AuthKey
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		if err := s.repo.Create(ctx, existing); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, registerResponse{
			Success:      true,
			Subscription: existing,
		})
		return
	}

	sub := &pushsubscription.Subscription{
		ID:        ulid.Make().String(),
		Endpoint:  req.Endpoint,
		P256dhKey: req.P256dhKey,
		AuthKey:   req.AuthKey,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, registerResponse{
		Success:      true,
		Subscription: sub,
	})
}

func (s *Server) findByEndpoint(r *http.Request, endpoint string) *pushsubscription.Subscription {
	subs, err := s.repo.List(r.Context())
	if err != nil {
		return nil
	}
	for _, sub := range subs {
		if sub.Endpoint == endpoint {
			return sub
		}
	}
	return nil
}

func (s *Server) HandleUnregister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "subscriptionID")

	if err := s.repo.Delete(ctx, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, removeResponse{Success: true})
}

func (s *Server) HandleSendTest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.sender.SendToAll(ctx, &NotificationPayload{
		Title: "OpenClaw Dashboard",
		Body:  "Push notifications are working!",
	})
	cerr.SetJSONResponse(ctx, removeResponse{Success: true})
}
