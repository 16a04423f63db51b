package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/example/plantshop/internal/auth"
	"github.com/example/plantshop/internal/config"
	"github.com/example/plantshop/internal/domain"
	"github.com/example/plantshop/internal/infrastructure/store"
	"github.com/example/plantshop/internal/repository"
	"github.com/example/plantshop/internal/role"
)

type seedUser struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

type seedFile struct {
	Users    []seedUser       `json:"users"`
	Products []domain.Product `json:"products"`
}

func main() {
	file := flag.String("file", "seed/seed.json", "path to the seed data file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Seed] configuration: %v", err)
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("[Seed] read %s: %v", *file, err)
	}
	var data seedFile
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Fatalf("[Seed] decode %s: %v", *file, err)
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("[Seed] store: %v", err)
	}
	defer st.Close()

	users := repository.NewUsers(st)
	products := repository.NewProducts(st)

	log.Printf("[Seed] Seeding %d users and %d products from %s", len(data.Users), len(data.Products), *file)

	for _, su := range data.Users {
		if err := seedOneUser(ctx, users, su); err != nil {
			log.Fatalf("[Seed] user %s: %v", su.Email, err)
		}
	}
	for _, p := range data.Products {
		if err := seedOneProduct(ctx, products, p); err != nil {
			log.Fatalf("[Seed] product %s: %v", p.Slug, err)
		}
	}

	log.Println("[Seed] Done")
}

// seedOneUser inserts the user unless the email is already taken. Seeding is
// rerunnable; existing accounts are left untouched.
func seedOneUser(ctx context.Context, users *repository.Users, su seedUser) error {
	email := strings.ToLower(strings.TrimSpace(su.Email))
	if _, err := users.GetByEmail(ctx, email); err == nil {
		log.Printf("[Seed] user %s already exists, skipping", email)
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if _, ok := role.Parse(su.Role); !ok {
		return fmt.Errorf("unknown role %q", su.Role)
	}
	hash, err := auth.HashPassword(su.Password)
	if err != nil {
		return err
	}

	created, err := users.Create(ctx, domain.User{
		Email:        email,
		Name:         su.Name,
		Role:         su.Role,
		Phone:        su.Phone,
		Address:      su.Address,
		PasswordHash: hash,
	})
	if err != nil {
		return err
	}
	log.Printf("[Seed] user %s (%s) role=%s", created.Name, created.Email, created.Role)
	return nil
}

func seedOneProduct(ctx context.Context, products *repository.Products, p domain.Product) error {
	if _, err := products.GetBySlug(ctx, p.Slug); err == nil {
		log.Printf("[Seed] product %s already exists, skipping", p.Slug)
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if p.Status == "" {
		p.Status = domain.ProductStatusActive
	}
	created, err := products.Create(ctx, p)
	if err != nil {
		return err
	}
	log.Printf("[Seed] product %s (%s %s) %.2f %s stock=%d",
		created.Title, created.Genus, created.CommonName, created.Price, created.Currency, created.Stock)
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendDynamo:
		client, err := store.ConnectDynamo(ctx, cfg.DynamoEndpoint)
		if err != nil {
			return nil, err
		}
		return store.NewDynamoStore(client, cfg.DynamoTablePrefix), nil

	case config.BackendPostgres:
		db, err := store.ConnectPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		pg := store.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return pg, nil

	default:
		return nil, errors.New("seeding the in-memory store has no effect; set STORE_BACKEND to dynamo or postgres")
	}
}
