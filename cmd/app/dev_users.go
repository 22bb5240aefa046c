package main

import (
	"os"
	"strings"

	"content-payment-service/internal/domain/model"
)

// devUsers seeds the in-memory store from DEV_USERS ("id:email,id:email").
func devUsers() []model.User {
	raw := strings.TrimSpace(os.Getenv("DEV_USERS"))
	if raw == "" {
		return []model.User{{ID: "dev-user", Email: "dev@example.com"}}
	}
	var out []model.User
	for _, part := range strings.Split(raw, ",") {
		id, email, _ := strings.Cut(strings.TrimSpace(part), ":")
		if id == "" {
			continue
		}
		out = append(out, model.User{ID: id, Email: email})
	}
	return out
}
