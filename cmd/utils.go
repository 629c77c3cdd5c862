package cmd

import (
	"flag"
	"log"

	"thinkink-backend/internal/ai"
	"thinkink-backend/internal/api"
	"thinkink-backend/internal/auth"
	"thinkink-backend/internal/export"
	"thinkink-backend/internal/messaging"
	"thinkink-backend/internal/ocr"
	"thinkink-backend/internal/research"
	"thinkink-backend/internal/speech"
	"thinkink-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

// RouterDeps carries everything the HTTP surface needs. The api and local
// binaries build the same route tree from it.
type RouterDeps struct {
	DB          *gorm.DB
	Verifier    auth.TokenVerifier
	LLM         ai.LLM
	Params      *ai.ParamSet
	Ocr         ocr.Client
	Transcriber speech.Transcriber
	Synthesizer speech.Synthesizer
	Searcher    research.Searcher
	Storage     storage.Provider
	Publisher   messaging.Publisher
	Renderer    *export.PdfRenderer

	SpeechBucket string
	AudioBucket  string
}

// RegisterRoutes mounts the public endpoints at the root and the feature
// services under /api behind the auth middleware.
func RegisterRoutes(r chi.Router, deps RouterDeps) {
	voiceService := api.NewVoiceService(deps.DB, deps.LLM, deps.Params, deps.Transcriber, deps.Synthesizer, deps.Storage, deps.Publisher, deps.SpeechBucket, deps.AudioBucket)
	pdfService := api.NewPdfService(deps.DB, deps.LLM, deps.Params)
	eli5Service := api.NewEli5Service(deps.DB, deps.LLM, deps.Params)

	api.NewStatusService(deps.DB).AddRoutes(r)
	voiceService.AddPublicRoutes(r)

	r.Route("/api", func(r chi.Router) {
		api.NewAuthService(deps.DB, deps.Verifier).AddRoutes(r)

		// Static listings carry no per-user data and are served without
		// auth, so clients can render upload forms before sign-in.
		r.Get("/eli5/complexity-levels", api.RestHandler(eli5Service.ComplexityLevels))
		r.Get("/pdf/formats", api.RestHandler(pdfService.Formats))
		r.Get("/voice/formats", api.RestHandler(voiceService.Formats))

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(deps.Verifier, deps.DB))

			api.NewNotesService(deps.DB, deps.LLM, deps.Params).AddRoutes(r)
			api.NewQuizService(deps.DB, deps.LLM, deps.Params).AddRoutes(r)
			api.NewMindmapService(deps.DB, deps.LLM, deps.Params).AddRoutes(r)
			eli5Service.AddRoutes(r)
			pdfService.AddRoutes(r)
			api.NewImageService(deps.DB, deps.Ocr, deps.LLM, deps.Params).AddRoutes(r)
			voiceService.AddRoutes(r)
			api.NewHistoryService(deps.DB).AddRoutes(r)
			api.NewResearchService(deps.DB, deps.LLM, deps.Params, deps.Searcher).AddRoutes(r)
			api.NewExportService(deps.Renderer).AddRoutes(r)
		})
	})
}
