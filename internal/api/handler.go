// Package api exposes the tutor chat over HTTP and MCP.
package api

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/learnzverse/tutord/internal/persona"
	"github.com/learnzverse/tutord/internal/proxy"
	"github.com/learnzverse/tutord/internal/tutor"
)

const maxRequestBodySize = 1 << 20 // 1MB

// User-facing response strings. The service error text is deliberately
// generic; the diagnostic detail travels in a separate field.
const (
	msgInvalidTutor = "Invalid tutor selected"
	msgEmptyMessage = "Message cannot be empty"
	msgInvalidBody  = "Invalid request body"
	msgBodyTooBig   = "Request body too large"
	msgServiceError = "Sorry, I'm having trouble connecting to the tutor service. Please try again later."
)

//go:embed static
var staticFS embed.FS

// ModelLister abstracts the upstream model listing for the /models endpoint.
type ModelLister interface {
	ListModels(ctx context.Context) ([]proxy.Model, error)
}

// NewHandler returns the HTTP handler serving the landing page, the chat
// endpoint, and the listing endpoints.
func NewHandler(d *tutor.Dispatcher, registry *persona.Registry, models ModelLister) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)

	r.Get("/", handleIndex)
	r.Get("/health", handleHealth)
	r.Post("/chat", handleChat(d))
	r.Get("/tutors", handleTutors(registry))
	r.Get("/models", handleModels(models))

	return r
}

// requestID tags every request with a UUID for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(withRequestID(r.Context(), id)))
	})
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "landing page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// chatRequest is the inbound POST /chat body.
type chatRequest struct {
	Tutor   string          `json:"tutor"`
	Message string          `json:"message"`
	History []proxy.Message `json:"history"`
}

// chatResponse is the outbound envelope for POST /chat.
type chatResponse struct {
	Response string `json:"response"`
	Status   string `json:"status"`
	Model    string `json:"model,omitempty"`
	Error    string `json:"error,omitempty"`
}

func handleChat(d *tutor.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeChatError(w, http.StatusRequestEntityTooLarge, msgBodyTooBig, "")
				return
			}
			writeChatError(w, http.StatusBadRequest, msgInvalidBody, "")
			return
		}

		reply, err := d.HandleChat(r.Context(), req.Tutor, req.Message, req.History)
		if err != nil {
			switch {
			case errors.Is(err, tutor.ErrUnknownTutor):
				writeChatError(w, http.StatusBadRequest, msgInvalidTutor, "")
			case errors.Is(err, tutor.ErrEmptyMessage):
				writeChatError(w, http.StatusBadRequest, msgEmptyMessage, "")
			default:
				slog.Error("chat dispatch failed",
					"request_id", requestIDFrom(r.Context()),
					"tutor", req.Tutor,
					"error", err,
				)
				writeChatError(w, http.StatusInternalServerError, msgServiceError, err.Error())
			}
			return
		}

		slog.Info("chat completed",
			"request_id", requestIDFrom(r.Context()),
			"tutor", req.Tutor,
			"model", reply.Model,
		)
		writeJSON(w, http.StatusOK, chatResponse{
			Response: reply.Text,
			Status:   "success",
			Model:    reply.Model,
		})
	}
}

func handleTutors(registry *persona.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"tutors": registry.All(),
		})
	}
}

func handleModels(models ModelLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := models.ListModels(r.Context())
		if err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"status": "error",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, proxy.ModelList{Object: "list", Data: list})
	}
}

func writeChatError(w http.ResponseWriter, code int, response, diagnostic string) {
	writeJSON(w, code, chatResponse{
		Response: response,
		Status:   "error",
		Error:    diagnostic,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
