package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/team-sources", handler.ListTeamSources)
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/teams/{teamID}", handler.GetTeamDetails)
	mux.HandleFunc("GET /v1/teams/{teamID}/players", handler.ListTeamPlayers)
	mux.HandleFunc("GET /v1/teams/{teamID}/players/history", handler.ListTeamPlayerHistory)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/sync-team-source", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncTeamSourceJob)))
	mux.Handle("POST /v1/internal/jobs/sync-team", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncTeamJob)))
	mux.Handle("POST /v1/internal/jobs/fleet-sync", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunFleetSyncJob)))
	mux.Handle("POST /v1/internal/jobs/fleet-sync-direct", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunFleetSyncDirectJob)))
}
