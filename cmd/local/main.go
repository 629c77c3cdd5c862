package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"thinkink-backend/cmd"
	"thinkink-backend/internal/ai"
	"thinkink-backend/internal/auth"
	"thinkink-backend/internal/database"
	"thinkink-backend/internal/export"
	"thinkink-backend/internal/messaging"
	"thinkink-backend/internal/ocr"
	"thinkink-backend/internal/research"
	"thinkink-backend/internal/speech"
	"thinkink-backend/internal/storage"
	"thinkink-backend/pkg/models"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"
)

// Single process mode: sqlite on disk, filesystem object storage, and an in
// memory queue feeding a transcription worker in the same process.
type Config struct {
	Root string `env:"ROOT" envDefault:"./thinkink"`
	Port int    `env:"PORT" envDefault:"3001"`

	FirebaseAPIKey string `env:"FIREBASE_API_KEY,notEmpty,required"`

	AIProvider      string `env:"AI_PROVIDER" envDefault:"ollama"`
	OllamaURL       string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AIModel         string `env:"OLLAMA_MODEL" envDefault:"mistral"`
	ModelParamsPath string `env:"MODEL_PARAMS_PATH"`

	SpeechAPIKey  string `env:"SPEECH_API_KEY"`
	SpeechBaseURL string `env:"SPEECH_BASE_URL"`
	WhisperModel  string `env:"WHISPER_MODEL"`
	TTSModel      string `env:"TTS_MODEL"`

	TesseractURL string `env:"TESSERACT_URL" envDefault:"http://localhost:8884"`

	CrossrefMailto string `env:"CROSSREF_MAILTO"`
}

const (
	speechBucket = "speech"
	audioBucket  = "audio"
)

func createDatabase(root string) *gorm.DB {
	path := filepath.Join(root, "db", "thinkink.db")
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := database.NewDatabase(path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.GetMigrator(db).Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

// createQueue re-publishes recordings that were still queued when the process
// last exited. The stored input carries the bucket and key of the uploaded
// audio, so nothing has to be re-uploaded.
func createQueue(db *gorm.DB) *messaging.InMemoryQueue {
	var queued []database.HistoryItem
	if err := db.Where("feature_type = ? AND status = ?", database.FeatureVoiceSummary, database.ItemQueued).Find(&queued).Error; err != nil {
		log.Fatalf("Failed to fetch tasks from database: %v", err)
	}

	queue := messaging.NewInMemoryQueue()

	for _, item := range queued {
		var input struct {
			Filename  string `json:"filename"`
			Bucket    string `json:"bucket"`
			Key       string `json:"key"`
			Summarize bool   `json:"summarize"`
		}
		if err := json.Unmarshal(item.InputData, &input); err != nil {
			slog.Error("skipping queued item with unreadable input", "item_id", item.Id, "error", err)
			continue
		}

		if err := queue.PublishTranscriptionTask(context.Background(), models.TranscriptionTaskPayload{
			ItemId:    item.Id,
			UserId:    item.UserId,
			Bucket:    input.Bucket,
			Key:       input.Key,
			Filename:  input.Filename,
			Summarize: input.Summarize,
		}); err != nil {
			log.Fatalf("Failed to publish transcription task: %v", err)
		}
	}

	return queue
}

func createServer(cfg Config, db *gorm.DB, store storage.Provider, queue messaging.Publisher, llm ai.LLM, params *ai.ParamSet, transcriber speech.Transcriber, synthesizer speech.Synthesizer) *http.Server {
	r := chi.NewRouter()

	// Middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},                                       // Allow all origins (TODO: make this an env var)
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}, // Allow all HTTP methods
		AllowedHeaders:   []string{"*"},                                       // Allow all headers
		ExposedHeaders:   []string{"*"},                                       // Expose all headers
		AllowCredentials: true,                                                // Allow cookies/auth headers
		MaxAge:           300,                                                 // Cache preflight response for 5 minutes
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)                    // Log requests
	r.Use(middleware.Recoverer)                 // Recover from panics
	r.Use(middleware.Timeout(60 * time.Second)) // Set request timeout

	cmd.RegisterRoutes(r, cmd.RouterDeps{
		DB:           db,
		Verifier:     auth.NewIdentityToolkitVerifier(cfg.FirebaseAPIKey),
		LLM:          llm,
		Params:       params,
		Ocr:          ocr.NewTesseractClient(cfg.TesseractURL),
		Transcriber:  transcriber,
		Synthesizer:  synthesizer,
		Searcher:     research.NewCrossrefClient(cfg.CrossrefMailto),
		Storage:      store,
		Publisher:    queue,
		Renderer:     export.NewPdfRenderer(),
		SpeechBucket: speechBucket,
		AudioBucket:  audioBucket,
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}
}

func main() {
	cmd.LoadEnvFile()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := os.MkdirAll(cfg.Root, os.ModePerm); err != nil {
		log.Fatalf("error creating directory for log file: %v", err)
	}

	f, err := os.OpenFile(filepath.Join(cfg.Root, "backend.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	log.SetOutput(io.MultiWriter(f, os.Stderr))

	slog.Info("starting backend", "root", cfg.Root, "port", cfg.Port)

	db := createDatabase(cfg.Root)

	store := storage.NewLocalProvider(filepath.Join(cfg.Root, "storage"))
	for _, bucket := range []string{speechBucket, audioBucket} {
		if err := store.CreateBucket(context.Background(), bucket); err != nil {
			log.Fatalf("Failed to create bucket %s: %v", bucket, err)
		}
	}

	queue := createQueue(db)

	llm, err := ai.NewLLM(cfg.AIProvider, cfg.OllamaURL, cfg.OpenAIAPIKey, cfg.AIModel)
	if err != nil {
		log.Fatalf("Failed to create AI client: %v", err)
	}

	params, err := ai.LoadParams(cfg.ModelParamsPath)
	if err != nil {
		log.Fatalf("Failed to load model params: %v", err)
	}

	transcriber := speech.NewOpenAITranscriber(cfg.SpeechAPIKey, cfg.SpeechBaseURL, cfg.WhisperModel)
	synthesizer := speech.NewOpenAISynthesizer(cfg.SpeechAPIKey, cfg.SpeechBaseURL, cfg.TTSModel)

	worker := speech.NewTaskProcessor(db, store, queue, transcriber, llm, params, speechBucket, audioBucket)

	server := createServer(cfg, db, store, queue, llm, params, transcriber, synthesizer)

	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())

	slog.Info("starting worker")
	go worker.Start()
	go worker.CleanupLoop(cleanupCtx)

	// Goroutine for graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}

		slog.Info("shutting down worker")
		cancelCleanup()
		worker.Stop()
	}()

	slog.Info("server started", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", cfg.Port, err)
	}

	slog.Info("server stopped")
}
