package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/WardWatch/WW-Backend/internal/boundary"
	"github.com/WardWatch/WW-Backend/internal/command"
	"github.com/WardWatch/WW-Backend/internal/config"
	"github.com/WardWatch/WW-Backend/internal/consensus"
	"github.com/WardWatch/WW-Backend/internal/db"
	"github.com/WardWatch/WW-Backend/internal/dedup"
	"github.com/WardWatch/WW-Backend/internal/geo"
	"github.com/WardWatch/WW-Backend/internal/geo/geocoding"
	"github.com/WardWatch/WW-Backend/internal/leaderboard"
	"github.com/WardWatch/WW-Backend/internal/middleware"
	"github.com/WardWatch/WW-Backend/internal/notify"
	"github.com/WardWatch/WW-Backend/internal/problem"
	"github.com/WardWatch/WW-Backend/internal/resolution"
	"github.com/WardWatch/WW-Backend/internal/storage"
	"github.com/WardWatch/WW-Backend/internal/webhooks"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	cfg := config.Load()

	problem.Init()
	layers := boundary.LoadFromEnv()

	geocoder, err := geocoding.NewClient()
	if err != nil {
		log.Fatal("geocoding client: ", err)
	}
	if geocoder == nil {
		log.Println("[main] GEOCODER_URL not set, locations will not be geocoded")
	}

	sender, err := notify.NewGatewayClient()
	if err != nil {
		log.Fatal("messaging gateway: ", err)
	}
	if sender == nil {
		log.Println("[main] WHATSAPP_GATEWAY_URL not set, notifications run in dry-run mode")
	}

	images, err := storage.NewMinioStore()
	if err != nil {
		log.Fatal("image store: ", err)
	}
	var imageStore storage.ImageStore
	if images != nil {
		if err := images.EnsureBucket(context.Background()); err != nil {
			log.Fatal("image store bucket: ", err)
		}
		imageStore = images
	} else {
		log.Println("[main] MINIO_ENDPOINT not set, proof images kept by source URL")
	}

	guard := dedup.NewGuard(newDedupStore(cfg), cfg.DedupWindow())

	registry := problem.NewRegistry(db.DB, layers)
	fanout := resolution.NewFanout(db.DB, senderOrNil(sender), cfg.FanoutDelay(), cfg.FanoutQueueSize)
	defer fanout.Close()

	engine := &command.Engine{
		Guard:       guard,
		Resolver:    geo.NewResolver(geocoderOrNil(geocoder)),
		Registry:    registry,
		Consensus:   consensus.NewEngine(registry, cfg.VerificationThreshold, cfg.AccuracyRadiusM),
		Workflow:    resolution.NewWorkflow(registry, imageStore, fanout),
		Layers:      layers,
		Leaderboard: leaderboard.NewAggregator(db.DB),
	}

	api := &command.API{Engine: engine}
	hooks := &webhooks.Handler{Engine: engine}

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Mount("/api", api.SetupRoutes())
	r.Mount("/webhooks", hooks.SetupRoutes())

	fmt.Println("Server listening on port :" + port + "...")

	http.ListenAndServe("0.0.0.0:"+port, r)
}

// newDedupStore picks the shared Redis store when REDIS_ADDRESS is set and
// falls back to the process-local map otherwise.
func newDedupStore(cfg config.Engine) dedup.Store {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		return dedup.NewMemoryStore(cfg.DedupSweep())
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	log.Printf("[main] using shared dedup cache at %s", addr)
	return dedup.NewRedisStore(client)
}

// geocoderOrNil keeps the typed-nil pitfall out of the resolver: a nil
// *Client must become a nil interface.
func geocoderOrNil(c *geocoding.Client) geo.Geocoder {
	if c == nil {
		return nil
	}
	return c
}

// senderOrNil does the same for the messaging gateway; the fanout's dry-run
// path keys off a nil interface.
func senderOrNil(c *notify.GatewayClient) notify.Sender {
	if c == nil {
		return nil
	}
	return c
}
