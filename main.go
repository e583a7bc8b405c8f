package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/CampusTransit/CT-Backend/internal/config"
	"github.com/CampusTransit/CT-Backend/internal/credstore"
	"github.com/CampusTransit/CT-Backend/internal/db"
	"github.com/CampusTransit/CT-Backend/internal/gate"
	"github.com/CampusTransit/CT-Backend/internal/middleware"
	"github.com/CampusTransit/CT-Backend/internal/payment"
	"github.com/CampusTransit/CT-Backend/internal/session"
	"github.com/CampusTransit/CT-Backend/internal/upstream/authapi"
	"github.com/CampusTransit/CT-Backend/internal/upstream/gatewayapi"
	"github.com/CampusTransit/CT-Backend/internal/upstream/paymentapi"
	"github.com/CampusTransit/CT-Backend/internal/upstream/surveyapi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	db.Connect(cfg.DatabaseURL)
	payment.Init()

	store, err := credstore.ConnectRedis(cfg.RedisURI)
	if err != nil {
		log.Fatal("Failed to connect to Redis: ", err)
	}
	defer store.Close()

	policy, err := gate.LoadPolicy(cfg.RoutePolicyPath)
	if err != nil {
		log.Fatal("Failed to load route policy: ", err)
	}

	authClient := authapi.NewClient(cfg.AuthAPIURL)
	surveyClient := surveyapi.NewClient(cfg.SurveyAPIURL)
	recordClient := paymentapi.NewClient(cfg.PaymentAPIURL)
	gatewayClient := gatewayapi.NewClient(cfg.GatewayURL, cfg.GatewayAppKey)

	manager := session.NewManager(store, authClient, surveyClient)

	workflow := &payment.Workflow{
		Pending:     &payment.GormPendingStore{DB: db.DB},
		Gateway:     gatewayClient,
		Records:     recordClient,
		Surveys:     surveyClient,
		Sessions:    manager,
		States:      payment.NewStateTokens(cfg.PaymentStateSecret, cfg.PaymentStateTTL),
		CallbackURL: cfg.ServiceURL + "/payments/return",
	}

	sessionHandlers := &session.Handlers{
		Manager:       manager,
		Payments:      workflow,
		SecureCookies: cfg.IsProduction(),
	}
	gateHandlers := &gate.Handlers{Policy: policy, Manager: manager}
	paymentHandlers := &payment.Handlers{
		Workflow:    workflow,
		Manager:     manager,
		FrontendURL: cfg.FrontendURL,
	}

	loginLimiter := middleware.LoginRateLimit(rate.Limit(1), 5)
	opsAuth := middleware.OpsAuth(cfg.OpsUser, cfg.OpsPasswordHash)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", RootHandler)
	r.Get("/session/bootstrap", sessionHandlers.BootstrapHandler)
	r.Mount("/auth", session.SetupRoutes(sessionHandlers, loginLimiter))
	r.Mount("/gate", gate.SetupRoutes(gateHandlers))
	r.Mount("/payments", payment.SetupRoutes(paymentHandlers, opsAuth))

	log.Printf("Server listening on port :%s...", cfg.Port)
	if err := http.ListenAndServe(cfg.HTTPAddress(), r); err != nil {
		log.Fatal("Server stopped: ", err)
	}
}
