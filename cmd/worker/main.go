package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"thinkink-backend/cmd"
	"thinkink-backend/internal/ai"
	"thinkink-backend/internal/database"
	"thinkink-backend/internal/messaging"
	"thinkink-backend/internal/speech"
	"thinkink-backend/internal/storage"

	"github.com/caarlos0/env/v11"
)

type WorkerConfig struct {
	DatabaseURL       string `env:"DATABASE_URL,notEmpty,required"`
	RabbitMQURL       string `env:"RABBITMQ_URL,notEmpty,required"`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID,notEmpty,required"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY,notEmpty,required"`
	S3Region          string `env:"AWS_REGION,notEmpty,required"`
	SpeechBucketName  string `env:"SPEECH_BUCKET_NAME" envDefault:"speech"`
	AudioBucketName   string `env:"AUDIO_BUCKET_NAME" envDefault:"audio"`

	AIProvider      string `env:"AI_PROVIDER" envDefault:"ollama"`
	OllamaURL       string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AIModel         string `env:"OLLAMA_MODEL" envDefault:"mistral"`
	ModelParamsPath string `env:"MODEL_PARAMS_PATH"`

	SpeechAPIKey  string `env:"SPEECH_API_KEY"`
	SpeechBaseURL string `env:"SPEECH_BASE_URL"`
	WhisperModel  string `env:"WHISPER_MODEL"`
}

func main() {
	log.Println("Starting Worker Process...")

	cmd.LoadEnvFile()

	var cfg WorkerConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	store, err := storage.NewS3Provider(&storage.S3ProviderConfig{
		S3EndpointURL:     cfg.S3EndpointURL,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		S3Region:          cfg.S3Region,
	})
	if err != nil {
		log.Fatalf("Worker: Failed to create S3 client: %v", err)
	}

	reciever, err := messaging.NewRabbitMQReceiver(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}

	llm, err := ai.NewLLM(cfg.AIProvider, cfg.OllamaURL, cfg.OpenAIAPIKey, cfg.AIModel)
	if err != nil {
		log.Fatalf("Failed to create AI client: %v", err)
	}

	params, err := ai.LoadParams(cfg.ModelParamsPath)
	if err != nil {
		log.Fatalf("Failed to load model params: %v", err)
	}

	transcriber := speech.NewOpenAITranscriber(cfg.SpeechAPIKey, cfg.SpeechBaseURL, cfg.WhisperModel)

	proc := speech.NewTaskProcessor(db, store, reciever, transcriber, llm, params, cfg.SpeechBucketName, cfg.AudioBucketName)

	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	go proc.CleanupLoop(cleanupCtx)

	// Stopping the processor closes the receiver, which drains Start below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("Shutdown signal received, stopping worker...")
		cancelCleanup()
		proc.Stop()
	}()

	log.Println("Worker started. Waiting for tasks. Press Ctrl+C to exit.")
	proc.Start()

	log.Println("Worker process stopped.")
}
