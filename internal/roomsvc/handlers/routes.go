package handlers

import (
	"os"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/v1", func(r chi.Router) {

		// public routes
		r.Get("/health", h.HealthHandler)
		r.Post("/rooms", h.CreateRoomHandler)
		r.Post("/rooms/{roomID}/join", h.JoinRoomHandler)

		// room-bound routes, the JWT issued on create/join carries the binding
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Get("/rooms/{roomID}", h.GetRoomHandler)
			r.Post("/rooms/{roomID}/leave", h.LeaveRoomHandler)
			r.Post("/rooms/{roomID}/call", h.CallNumberHandler)
			r.Post("/rooms/{roomID}/call-next", h.CallNextHandler)
			r.Post("/rooms/{roomID}/reset", h.ResetGameHandler)
			r.Post("/rooms/{roomID}/tickets", h.GenerateTicketsHandler)
		})
	})
}

func (h *Handler) InitAuth() {
	var jwtKey = os.Getenv("JWT_SECRET_KEY")
	h.tokenAuth = jwtauth.New("HS256", []byte(jwtKey), nil)
}
