package rest

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heartmarshall/lingocards-backend/internal/config"
	"github.com/heartmarshall/lingocards-backend/internal/transport/middleware"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Auth         *AuthHandler
	Deck         *DeckHandler
	Study        *StudyHandler
	Sync         *SyncHandler
	Relationship *RelationshipHandler
	Progress     *ProgressHandler
	Admin        *AdminHandler
	Health       *HealthHandler
	TokenAuth    middleware.Middleware
	Metrics      *middleware.HTTPMetrics
	Registry     prometheus.Gatherer
	CORS         config.CORSConfig
	Logger       *slog.Logger
}

// NewRouter builds the HTTP handler tree: method-qualified ServeMux
// patterns wrapped in the middleware chain
// RequestID -> Recovery -> Logger -> Metrics -> CORS -> Auth.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	// Probes and metrics.
	mux.HandleFunc("GET /health", deps.Health.Health)
	mux.HandleFunc("GET /live", deps.Health.Live)
	mux.HandleFunc("GET /ready", deps.Health.Ready)
	mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))

	// Auth.
	mux.HandleFunc("POST /auth/register", deps.Auth.Register)
	mux.HandleFunc("POST /auth/login", deps.Auth.Login)
	mux.HandleFunc("POST /auth/logout", deps.Auth.Logout)
	mux.HandleFunc("GET /me", deps.Auth.Me)

	// Decks and notes.
	mux.HandleFunc("POST /decks", deps.Deck.CreateDeck)
	mux.HandleFunc("GET /decks", deps.Deck.ListDecks)
	mux.HandleFunc("GET /decks/{deckID}", deps.Deck.GetDeck)
	mux.HandleFunc("PATCH /decks/{deckID}", deps.Deck.UpdateDeck)
	mux.HandleFunc("DELETE /decks/{deckID}", deps.Deck.DeleteDeck)
	mux.HandleFunc("POST /decks/{deckID}/notes", deps.Deck.CreateNote)
	mux.HandleFunc("GET /decks/{deckID}/notes", deps.Deck.ListNotes)
	mux.HandleFunc("GET /notes/{noteID}", deps.Deck.GetNote)
	mux.HandleFunc("PUT /notes/{noteID}/audio", deps.Deck.AttachAudio)
	mux.HandleFunc("DELETE /notes/{noteID}", deps.Deck.DeleteNote)

	// Study session.
	mux.HandleFunc("GET /study/next-card", deps.Study.NextCardQuery)
	mux.HandleFunc("POST /study/next-card", deps.Study.NextCard)
	mux.HandleFunc("POST /study/review", deps.Study.Review)
	mux.HandleFunc("GET /cards/{cardID}/state", deps.Study.CardState)
	mux.HandleFunc("GET /cards/queue-counts", deps.Study.QueueCounts)
	mux.HandleFunc("GET /decks/{deckID}/counts", deps.Study.DeckCounts)

	// Offline sync.
	mux.HandleFunc("POST /reviews", deps.Sync.Push)
	mux.HandleFunc("GET /reviews", deps.Sync.Feed)
	mux.HandleFunc("GET /sync/cursor", deps.Sync.Cursor)
	mux.HandleFunc("GET /cards/{cardID}/events", deps.Sync.CardEvents)

	// Relationships.
	mux.HandleFunc("POST /relationships", deps.Relationship.Request)
	mux.HandleFunc("GET /relationships", deps.Relationship.List)
	mux.HandleFunc("POST /relationships/{relationshipID}/accept", deps.Relationship.Accept)
	mux.HandleFunc("DELETE /relationships/{relationshipID}", deps.Relationship.Remove)
	mux.HandleFunc("DELETE /invitations/{invitationID}", deps.Relationship.CancelInvitation)

	// Progress.
	mux.HandleFunc("GET /progress/{relationshipID}", deps.Progress.ForRelationship)

	// Admin.
	mux.HandleFunc("POST /admin/reproject", deps.Admin.Reproject)

	chain := middleware.Chain(
		middleware.RequestID,
		middleware.Recovery(deps.Logger),
		middleware.Logger(deps.Logger),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(deps.CORS),
		deps.TokenAuth,
	)
	return chain(mux)
}
