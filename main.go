// Storefront behavior service: shopping cart, mock login session and the
// four-step checkout flow, persisted as JSON key-value state.
//
// GET  /cart                       - current cart with counter and total
// POST /cart/add                   - add a product (id, name, price)
// POST /cart/remove                - remove a line item
// POST /cart/quantity              - change a line's quantity by delta
// POST /session/login              - mock login (email + password)
// POST /session/logout             - clear the session
// POST /checkout/start             - open the checkout flow
// POST /checkout/...               - walk the address/shipping/payment steps
// GET  /cep/{code}                 - postal code lookup
package main

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"storefront/cep"
	"storefront/config"
	"storefront/handler"
	"storefront/service"
	"storefront/store"
)

//go:embed migrations.sql
var migrationSQL string

const Version = "0.1.0"

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:     "storefront",
		Short:   "Cart, session and checkout service",
		Version: Version,
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfgPath)
		},
	}
	serve.Flags().StringVarP(&cfgPath, "config", "c",
		os.Getenv("STOREFRONT_CONFIG"), "path to YAML config file")
	root.AddCommand(serve)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	// Connect to DB
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("db connection failed: %w", err)
	}
	defer db.Close()

	// --- RUN MIGRATIONS ---
	if _, err := db.Exec(migrationSQL); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("database migrations executed")

	// --- Store ---
	st := &store.PostgresStore{DB: db, Logger: logger}

	// --- Postal lookup ---
	lookup := cep.NewClient(cfg.CEP.BaseURL, cfg.CEP.Timeout, logger)

	// --- Service ---
	svc, err := service.NewService(st, lookup, logger)
	if err != nil {
		return err
	}
	var serviceInterface service.ServiceInterface = svc

	// --- Handlers ---
	h := handler.NewHandler(serviceInterface, lookup)

	// --- Router ---
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	// --- Server ---
	logger.Info("server running", slog.String("addr", cfg.Server.Addr))
	if err := http.ListenAndServe(cfg.Server.Addr, r); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
