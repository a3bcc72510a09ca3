package controllers

import (
	"net/http"

	"github.com/gladosdev/glados-backend/api/middleware"
	"github.com/gladosdev/glados-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if user := middleware.UserFromContext(r.Context()); user != nil {
			payload["username"] = user.Username
		}
		responses.WriteSuccess(w, payload)
	}
}
