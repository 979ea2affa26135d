// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/quickly-rank/cliparse"
	"github.com/danielhkuo/quickly-rank/handlers"
	"github.com/danielhkuo/quickly-rank/middleware"
	"github.com/danielhkuo/quickly-rank/presets"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, set presets.Set) *http.ServeMux {
	mux := http.NewServeMux()

	// Drafts are shared so a direct ballot or a close can drop them
	drafts := handlers.NewDraftStore()

	pollHandler := handlers.NewPollHandler(db, cfg, set, drafts)
	votingHandler := handlers.NewVotingHandler(db, cfg, drafts)
	draftHandler := handlers.NewDraftHandler(db, cfg, drafts)
	resultsHandler := handlers.NewResultsHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Poll management (admin operations)
	mux.HandleFunc("POST /polls", middleware.WithLogging(pollHandler.CreatePoll))
	mux.HandleFunc("GET /polls/{id}/admin", middleware.WithLogging(pollHandler.GetPollAdmin))
	mux.HandleFunc("POST /polls/{id}/options", middleware.WithLogging(pollHandler.AddOption))
	mux.HandleFunc("POST /polls/{id}/publish", middleware.WithLogging(pollHandler.PublishPoll))
	mux.HandleFunc("POST /polls/{id}/close", middleware.WithLogging(pollHandler.ClosePoll))

	// Voting operations (public)
	mux.HandleFunc("POST /polls/{slug}/claim-username", middleware.WithLogging(votingHandler.ClaimUsername))
	mux.HandleFunc("POST /polls/{slug}/ballots", middleware.WithLogging(votingHandler.SubmitBallot))
	mux.HandleFunc("GET /polls/{slug}/my-ballot", middleware.WithLogging(votingHandler.GetMyBallot))

	// Ranked ballot draft, one per voter
	mux.HandleFunc("GET /polls/{slug}/draft", middleware.WithLogging(draftHandler.GetDraft))
	mux.HandleFunc("POST /polls/{slug}/draft/select", middleware.WithLogging(draftHandler.Select))
	mux.HandleFunc("POST /polls/{slug}/draft/deselect", middleware.WithLogging(draftHandler.Deselect))
	mux.HandleFunc("POST /polls/{slug}/draft/reorder", middleware.WithLogging(draftHandler.Reorder))
	mux.HandleFunc("POST /polls/{slug}/draft/submit", middleware.WithLogging(draftHandler.Submit))

	// Results retrieval (public, with sealed results)
	mux.HandleFunc("GET /polls/{slug}", middleware.WithLogging(resultsHandler.GetPoll))
	mux.HandleFunc("GET /polls/{slug}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /polls/{slug}/ballot-count", middleware.WithLogging(resultsHandler.GetBallotCount))
	mux.HandleFunc("GET /polls/{slug}/preview", middleware.WithLogging(resultsHandler.GetPreview))

	// Preset names for the poll creation form
	mux.HandleFunc("GET /presets", middleware.WithLogging(func(w http.ResponseWriter, r *http.Request) {
		middleware.JSONResponse(w, http.StatusOK, map[string][]string{"presets": set.Names()})
	}))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickly-rank API v1"))
	})

	return mux
}
