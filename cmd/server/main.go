package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"scooterswap/internal/api"
	"scooterswap/internal/manager"
	"scooterswap/internal/simconfig"
	"scooterswap/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML simulation config, loaded at startup")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	mgr := manager.New()

	if *configPath != "" {
		cfg, err := simconfig.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config %s: %v", *configPath, err)
		}
		if err := mgr.SetConfig(cfg); err != nil {
			log.Fatalf("applying config %s: %v", *configPath, err)
		}
		log.Printf("Loaded configuration from %s", *configPath)
	}

	hub := ws.NewHub()
	bridge := ws.NewBridge(hub)
	mgr.AddObserver(bridge.OnUpdate)

	wsHandler := ws.NewHandler(hub, mgr)
	router := api.NewRouter(mgr)
	router.GET("/ws/simulation", gin.WrapH(wsHandler))

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler(router)

	log.Printf("Starting server on %s", *addr)
	if err := http.ListenAndServe(*addr, handler); err != nil {
		log.Fatal(err)
	}
}
