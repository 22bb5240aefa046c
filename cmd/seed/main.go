package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"content-payment-service/internal/config"
	"content-payment-service/internal/domain/model"
	fsdb "content-payment-service/internal/infra/db/firestore"
	pg "content-payment-service/internal/infra/db/postgres"
	"content-payment-service/internal/infra/api"
	"content-payment-service/internal/infra/logging"
)

// seed creates (or updates) a user record and can print a service token for
// the refund endpoint.
func main() {
	userID := flag.String("user-id", "", "user id to create")
	email := flag.String("email", "", "user email")
	tokenRole := flag.String("token-role", "", "also print a service token for this role (worker|operator)")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "service token lifetime")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if *userID != "" {
		u := &model.User{ID: *userID, Email: *email}
		switch cfg.Store.Driver {
		case "postgres":
			pool, err := pg.Connect(ctx, &cfg.Database)
			if err != nil {
				log.Fatalf("postgres: %v", err)
			}
			defer pool.Close()
			if err := pg.NewPostgresUserRepo(pool).Save(ctx, nil, u); err != nil {
				log.Fatalf("save user: %v", err)
			}
		case "firestore":
			client, err := fsdb.NewClient(ctx, &cfg.Firestore)
			if err != nil {
				log.Fatalf("firestore: %v", err)
			}
			defer client.Close()
			if err := fsdb.NewUserRepo(client, cfg.Firestore.UsersCollection).Save(ctx, u); err != nil {
				log.Fatalf("save user: %v", err)
			}
		default:
			log.Fatalf("store %q has nothing to seed; use DEV_USERS for the memory store", cfg.Store.Driver)
		}
		fmt.Printf("seeded user %s <%s>\n", u.ID, logging.Redact(u.Email, cfg.Runtime.Dev))
	}

	if *tokenRole != "" {
		auth := api.NewServiceAuth(cfg.Auth.ServiceSecret, cfg.Auth.Issuer)
		if !auth.Enabled() {
			log.Fatal("auth.service_secret is not set")
		}
		tok, err := auth.Mint("seed", *tokenRole, *tokenTTL)
		if err != nil {
			log.Fatalf("mint token: %v", err)
		}
		fmt.Println(tok)
	}
}
