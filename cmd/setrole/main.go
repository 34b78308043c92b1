// Command setrole assigns a role to an identity, registering it first when it
// does not exist. It is the way to create the first admin.
//
//	setrole -email admin@example.com -role admin
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lenslegacy/class-booking/internal/core/domain"
	"github.com/lenslegacy/class-booking/internal/core/ports"
	"github.com/lenslegacy/class-booking/internal/core/service"
	mongodb "github.com/lenslegacy/class-booking/internal/infrastructure/db/mongo"
	"github.com/lenslegacy/class-booking/internal/pkg/config"
	"github.com/lenslegacy/class-booking/pkg/logger"
)

func main() {
	email := flag.String("email", "", "identity email")
	role := flag.String("role", domain.RoleAdmin, "student, instructor or admin")
	name := flag.String("name", "", "display name used when the identity is created")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "Error: -email is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "setrole"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to create MongoDB indexes")
	}

	identities := service.NewIdentityService(mongodb.NewUserRepository(db), cfg.JWTSecret, cfg.TokenTTL, log)

	user, created, err := identities.Register(ctx, ports.RegisterInput{Email: *email, Name: *name})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register identity")
	}
	if err := identities.SetRole(ctx, user.Email, *role); err != nil {
		log.Fatal().Err(err).Msg("failed to set role")
	}

	fmt.Printf("%s is now %s (created=%v)\n", user.Email, *role, created)
}
