package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spegfinder/clearview/internal/model"
	"github.com/spegfinder/clearview/internal/statement"
	"github.com/spegfinder/clearview/internal/store"
)

var servePort int

// maxParseBody caps uploaded documents at 32 MB. Filed accounts are rarely
// over a few hundred KB.
const maxParseBody = 32 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the financials HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		tax, err := loadTaxonomy()
		if err != nil {
			return err
		}

		router := newRouter(st, tax)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(st store.Store, tax *model.Taxonomy) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/companies", func(w http.ResponseWriter, req *http.Request) {
		companies, err := st.ListCompanies(req.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"companies": companies})
	})

	r.Get("/companies/{number}/financials", func(w http.ResponseWriter, req *http.Request) {
		number := chi.URLParam(req, "number")
		records, err := st.ListRecords(req.Context(), number)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		series := statement.Reduce(records)
		if len(series) == 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "company not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"company_number": number,
			"series":         series,
			"trajectory":     statement.ComputeTrajectory(series),
		})
	})

	r.Post("/parse", func(w http.ResponseWriter, req *http.Request) {
		content, err := io.ReadAll(io.LimitReader(req.Body, maxParseBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		records, err := statement.ExtractDocument(content, req.Header.Get("Content-Type"), tax)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}

		series := statement.Reduce(records)
		writeJSON(w, http.StatusOK, map[string]any{
			"records":    records,
			"series":     series,
			"trajectory": statement.ComputeTrajectory(series),
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
