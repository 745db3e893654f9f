package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/camden-git/pressdesk/config"
	"github.com/camden-git/pressdesk/database"
	"github.com/camden-git/pressdesk/handlers"
	"github.com/camden-git/pressdesk/media"
	"github.com/camden-git/pressdesk/realtime"
	"github.com/camden-git/pressdesk/remote"
	"github.com/camden-git/pressdesk/repository"
	"github.com/camden-git/pressdesk/services"
	"github.com/camden-git/pressdesk/workers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.ThumbnailsPath, cfg.ExportsPath, cfg.DownloadsPath, filepath.Dir(cfg.DatabasePath)}
	for _, p := range storagePaths {
		log.Printf("Ensuring storage directory exists: %s", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	gormDB, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(gormDB); err != nil {
		log.Fatalf("FATAL: Failed to migrate database: %v", err)
	}
	db, err := gormDB.DB()
	if err != nil {
		log.Fatalf("FATAL: Failed to get database handle: %v", err)
	}
	defer db.Close()

	mediaSubDirs := map[media.AssetType]string{
		media.AssetTypeThumbnail: filepath.Base(cfg.ThumbnailsPath),
		media.AssetTypeExport:    filepath.Base(cfg.ExportsPath),
		media.AssetTypeDownload:  filepath.Base(cfg.DownloadsPath),
	}
	mediaStore, err := media.NewLocalStorage(cfg.MediaStoragePath, mediaSubDirs)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize media store: %v", err)
	}
	mediaProcessor := media.NewProcessor(mediaStore, cfg.ThumbnailMaxSize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub()
	go hub.Run(ctx)

	log.Printf("Initializing asset exporter (Queue Size: %d)...", cfg.ExportQueueSize)
	exporter := workers.NewAssetExporter(mediaProcessor, hub, cfg.ExportQueueSize)

	apiClient := remote.New(cfg.APIBaseURL, cfg.APIToken)
	downloader := remote.NewImageDownloader(cfg.DownloadTimeout)

	personRepo := repository.NewPersonRepository(gormDB)
	blogRepo := repository.NewBlogRepository(gormDB)
	postRepo := repository.NewPostRepository(gormDB)
	mediaRepo := repository.NewMediaRepository(gormDB)
	blogDirectory := services.NewBlogDirectory(blogRepo)

	if cfg.SitesFile != "" {
		sites, err := config.LoadSites(cfg.SitesFile)
		if err != nil {
			log.Fatalf("FATAL: Failed to load sites file %s: %v", cfg.SitesFile, err)
		}
		if _, err := blogDirectory.ImportSites(sites); err != nil {
			log.Fatalf("FATAL: Failed to import sites: %v", err)
		}
	}

	log.Printf("Exporting from library root: %s", cfg.LibraryRoot)
	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Using API: %s", cfg.APIBaseURL)
	log.Printf("Thumbnail max size (longest side): %dpx", cfg.ThumbnailMaxSize)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsHandler.Handler)

	peopleHandler := &handlers.PeopleHandler{
		DB:      db,
		Service: services.NewPeopleService(personRepo, apiClient),
		Events:  hub,
	}
	exportHandler := &handlers.ExportHandler{
		LibraryRoot: cfg.LibraryRoot,
		Queue:       exporter,
		Assets:      mediaProcessor,
	}
	reblogHandler := &handlers.ReblogHandler{
		Source: apiClient,
		Lookup: blogRepo,
		Blogs:  blogDirectory,
		Posts:  services.NewDraftService(postRepo),
		Media:  services.NewMediaLibrary(mediaRepo, mediaProcessor),
		Images: downloader,
		Drafts: services.NewDraftReader(postRepo, mediaRepo),
		Events: hub,
	}

	r.Get("/api/ws", hub.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/roles", peopleHandler.ListRoles)

		r.Route("/sites/{site_id}/people", func(r chi.Router) {
			r.Get("/", peopleHandler.ListPeople)
			r.Delete("/", peopleHandler.InvalidatePeople)
			r.Post("/sync", peopleHandler.SyncPeople)
			r.Get("/summary", peopleHandler.PeopleSummary)
		})

		r.Post("/exports", exportHandler.CreateExport)

		r.Route("/reblog", func(r chi.Router) {
			r.Post("/", reblogHandler.StartReblog)
			r.Post("/select", reblogHandler.SelectBlog)
			r.Get("/drafts/{post_id}", reblogHandler.GetDraft)
		})

		for _, subDir := range []string{filepath.Base(cfg.ExportsPath), filepath.Base(cfg.ThumbnailsPath)} {
			r.Get(fmt.Sprintf("/%s/*", subDir), handlers.AssetServer(mediaStore, subDir))
			log.Printf("Registered asset server at /api/%s/*", subDir)
		}
	})

	serverAddr := ":" + cfg.Port
	fmt.Printf("Server starting on http://localhost:%s\n", cfg.Port)
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error during server shutdown: %v", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("FATAL: Server error: %v", err)
	}
	exporter.Stop()
	log.Println("Waiting for reblog drafts to finish...")
	reblogHandler.Wait()
	log.Println("Server stopped")
}
