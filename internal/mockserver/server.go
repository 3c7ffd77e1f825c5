// Package mockserver serves a development stand-in for the analysis endpoint. Its
// results are synthetic and deterministic per image; nothing here classifies anything.
package mockserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/csheth/tumorscope/internal/inference"
)

const (
	// Banner is the message served on the root route.
	Banner = "Tumor-Detection Model API is running!"

	defaultImageSize       = 299
	defaultCounterfactuals = 4
	maxUploadBytes         = 20 << 20
)

// Options tunes the synthetic endpoint.
type Options struct {
	// ForceStatus answers every analysis with this status when non-zero.
	ForceStatus int
	// ForceClass overrides the digest-derived class when it names a known class.
	ForceClass string
	// Latency delays each analysis response.
	Latency time.Duration
	// ImageSize is the edge length of generated images.
	ImageSize int
	// Counterfactuals is the number of counterfactual images returned.
	Counterfactuals int
	// Quiet disables request logging.
	Quiet bool
}

func (o Options) withDefaults() Options {
	if o.ImageSize <= 0 {
		o.ImageSize = defaultImageSize
	}
	if o.Counterfactuals <= 0 {
		o.Counterfactuals = defaultCounterfactuals
	}
	o.ForceClass = strings.TrimSpace(o.ForceClass)
	return o
}

// Validate reports option combinations that cannot be served.
func (o Options) Validate() error {
	if o.ForceStatus != 0 && (o.ForceStatus < 100 || o.ForceStatus > 599) {
		return fmt.Errorf("invalid forced status %d", o.ForceStatus)
	}
	if o.ForceClass != "" && classIndex(o.ForceClass) < 0 {
		return fmt.Errorf("unknown class %q (want one of %s)", o.ForceClass, strings.Join(inference.Classes, ", "))
	}
	if o.Latency < 0 {
		return errors.New("latency must not be negative")
	}
	return nil
}

type handler struct {
	opts Options
}

// NewRouter returns the endpoint's routes.
func NewRouter(opts Options) http.Handler {
	h := &handler{opts: opts.withDefaults()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if !opts.Quiet {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Get("/", h.root)
	r.Post(inference.DefaultPath, h.explain)
	return r
}

// Serve listens on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      NewRouter(opts),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[mock] serving on %s", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Printf("[mock] shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (h *handler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": Banner})
}

func (h *handler) explain(w http.ResponseWriter, r *http.Request) {
	if h.opts.Latency > 0 {
		select {
		case <-time.After(h.opts.Latency):
		case <-r.Context().Done():
			return
		}
	}
	if h.opts.ForceStatus != 0 {
		writeDetail(w, h.opts.ForceStatus, "forced failure")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeDetail(w, http.StatusBadRequest, "expected multipart form upload")
		return
	}
	file, header, err := r.FormFile(inference.FileField)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	src, format, err := image.Decode(file)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "could not decode image")
		return
	}

	result, err := synthesize(src, h.opts)
	if err != nil {
		log.Printf("[mock] synthesize %s: %v", header.Filename, err)
		writeDetail(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	log.Printf("[mock] %s (%s, %s) -> %s %.3f", header.Filename, format, header.Header.Get("Content-Type"), result.PredictedClass, result.Confidence)
	writeJSON(w, http.StatusOK, result)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[mock] encode response: %v", err)
	}
}
