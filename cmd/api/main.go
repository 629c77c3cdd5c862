package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
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
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type APIConfig struct {
	DatabaseURL       string `env:"DATABASE_URL,notEmpty,required"`
	RabbitMQURL       string `env:"RABBITMQ_URL,notEmpty,required"`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID,notEmpty,required"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY,notEmpty,required"`
	S3Region          string `env:"AWS_REGION,notEmpty,required"`
	SpeechBucketName  string `env:"SPEECH_BUCKET_NAME" envDefault:"speech"`
	AudioBucketName   string `env:"AUDIO_BUCKET_NAME" envDefault:"audio"`
	APIPort           string `env:"API_PORT" envDefault:"8000"`
	AllowedOrigins    string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

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
	OcrLanguages string `env:"OCR_LANGUAGES" envDefault:"eng"`

	CrossrefMailto string `env:"CROSSREF_MAILTO"`
}

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// The API owns the schema; the worker connects to whatever migration
	// level it finds.
	if err := database.GetMigrator(db).Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	store, err := storage.NewS3Provider(&storage.S3ProviderConfig{
		S3EndpointURL:     cfg.S3EndpointURL,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		S3Region:          cfg.S3Region,
	})
	if err != nil {
		log.Fatalf("Failed to create S3 client: %v", err)
	}

	for _, bucket := range []string{cfg.SpeechBucketName, cfg.AudioBucketName} {
		if err := store.CreateBucket(context.Background(), bucket); err != nil {
			log.Fatalf("Failed to create bucket %s: %v", bucket, err)
		}
	}

	// Initialize RabbitMQ Publisher
	publisher, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	llm, err := ai.NewLLM(cfg.AIProvider, cfg.OllamaURL, cfg.OpenAIAPIKey, cfg.AIModel)
	if err != nil {
		log.Fatalf("Failed to create AI client: %v", err)
	}

	params, err := ai.LoadParams(cfg.ModelParamsPath)
	if err != nil {
		log.Fatalf("Failed to load model params: %v", err)
	}

	// --- Chi Router Setup ---
	r := chi.NewRouter()

	// Middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(cfg.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300, // Cache preflight response for 5 minutes
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)                    // Log requests
	r.Use(middleware.Recoverer)                 // Recover from panics
	r.Use(middleware.Timeout(60 * time.Second)) // Set request timeout

	cmd.RegisterRoutes(r, cmd.RouterDeps{
		DB:           db,
		Verifier:     auth.NewIdentityToolkitVerifier(cfg.FirebaseAPIKey),
		LLM:          llm,
		Params:       params,
		Ocr:          ocr.NewTesseractClient(cfg.TesseractURL, strings.Split(cfg.OcrLanguages, ",")...),
		Transcriber:  speech.NewOpenAITranscriber(cfg.SpeechAPIKey, cfg.SpeechBaseURL, cfg.WhisperModel),
		Synthesizer:  speech.NewOpenAISynthesizer(cfg.SpeechAPIKey, cfg.SpeechBaseURL, cfg.TTSModel),
		Searcher:     research.NewCrossrefClient(cfg.CrossrefMailto),
		Storage:      store,
		Publisher:    publisher,
		Renderer:     export.NewPdfRenderer(),
		SpeechBucket: cfg.SpeechBucketName,
		AudioBucket:  cfg.AudioBucketName,
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

	// Goroutine for graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("API server listening on port %s", cfg.APIPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
	}

	log.Println("Server stopped.")
}
