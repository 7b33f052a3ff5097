package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	clientDir := flag.String("client", "../client", "Path to viewer client directory")
	dbPath := flag.String("db", "bubbles.db", "Path to the SQLite ledger database")
	adminKey := flag.String("admin-key", "", "Key for the holder feed and claim-code endpoints (empty disables them)")
	publicURL := flag.String("public-url", "http://localhost:8080", "Public base URL used in claim QR codes")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Simulation RNG seed")
	flag.Parse()

	db, err := OpenDB(*dbPath)
	if err != nil {
		log.Fatalf("open ledger db: %v", err)
	}
	defer db.Close()

	ledger := NewLedger(db)
	sim := NewSim(*seed, ledger)
	claims := NewClaims(db)

	hub := NewHub(sim, claims, db)
	sim.SetPublisher(hub)

	go hub.Run()
	go sim.Run()

	mux := SetupRoutes(hub, *clientDir, *adminKey, *publicURL)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s", *addr)
		log.Printf("Serving viewer client from %s", *clientDir)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	server.Close()
	sim.Stop()
	ledger.Stop()
}
