package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/zeidlermicha/decisionForest"
	"github.com/zeidlermicha/decisionForest/store"
)

type serveCmdConfig struct {
	*rootCmdConfig
	name string
	port string
}

func serveCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &serveCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve predictions of a stored model over HTTP",
		Run: func(cmd *cobra.Command, args []string) {
			if config.name == "" {
				fmt.Fprintln(os.Stderr, "required name flag was not set")
				os.Exit(1)
			}
			doc, err := loadDocument(context.Background(), config.storeURL, config.name, config.logger)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			learner, err := doc.Learner()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}

			srv := &http.Server{Addr: ":" + config.port, Handler: newRouter(doc, learner)}
			go func() {
				log.Printf("serving %s %s on :%s", doc.Kind, doc.Name, config.port)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("server error: %v", err)
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
			log.Println("server shut down")
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.name), "name", "n", "", "name of the model to serve (required)")
	cmd.PersistentFlags().StringVar(&(config.port), "port", getEnv("PORT", "8080"), "port to listen on (defaults to $PORT)")
	return cmd
}

type modelResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Kind         string    `json:"kind"`
	CreatedAt    time.Time `json:"created_at"`
	FeatureNames []string  `json:"feature_names"`
	Size         int       `json:"size"`
	Importance   []float64 `json:"importance"`
}

type predictRequest struct {
	Instances [][]float64 `json:"instances"`
	Weighted  bool        `json:"weighted"`
}

type predictResponse struct {
	Predictions []float64 `json:"predictions"`
}

func newRouter(doc *store.Document, learner decisionForest.Learner) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/model", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, describeModel(doc, learner))
	})
	r.Post("/predict", func(w http.ResponseWriter, r *http.Request) {
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(req.Instances) == 0 {
			writeError(w, http.StatusBadRequest, "no instances")
			return
		}
		var predictions []float64
		var err error
		if forest, ok := learner.(*decisionForest.RandomForest); ok && req.Weighted {
			predictions, err = forest.WeightedPredict(req.Instances)
		} else {
			predictions, err = learner.Predict(req.Instances)
		}
		switch {
		case errors.Is(err, decisionForest.ErrUnseenCategory), errors.Is(err, decisionForest.ErrRaggedInstances):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, predictResponse{Predictions: predictions})
	})
	return r
}

func describeModel(doc *store.Document, learner decisionForest.Learner) modelResponse {
	resp := modelResponse{ID: doc.ID, Name: doc.Name, Kind: string(doc.Kind), CreatedAt: doc.CreatedAt}
	switch m := learner.(type) {
	case *decisionForest.ClassificationTree:
		resp.FeatureNames = m.FeatureNames
		resp.Size = m.Size()
		resp.Importance = m.Importance()
	case *decisionForest.RandomForest:
		if len(m.Trees) > 0 {
			resp.FeatureNames = m.Trees[0].FeatureNames
		}
		resp.Size = len(m.Trees)
		resp.Importance = m.Importance()
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
