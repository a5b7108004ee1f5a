package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/learnzverse/tutord/internal/persona"
	"github.com/learnzverse/tutord/internal/proxy"
	"github.com/learnzverse/tutord/internal/tutor"
)

var testModels = []string{"alpha/one", "beta/two"}

// newTestHandler wires a handler to an httptest upstream that mimics the
// OpenRouter API.
func newTestHandler(t *testing.T, upstream http.HandlerFunc) http.Handler {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)
	client := proxy.NewClientWithBaseURL("test-key", srv.URL)
	d := tutor.NewDispatcher(persona.Default(), client, testModels)
	return NewHandler(d, persona.Default(), client)
}

func completionJSON(content string) string {
	b, _ := json.Marshal(content)
	return fmt.Sprintf(`{"id":"gen-1","choices":[{"message":{"role":"assistant","content":%s}}]}`, b)
}

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rr, req)
	return rr
}

func decodeChat(t *testing.T, rr *httptest.ResponseRecorder) chatResponse {
	t.Helper()
	var resp chatResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Errorf("body = %q, want status ok", rr.Body.String())
	}
}

func TestIndex(t *testing.T) {
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(rr.Body.String(), "<html") {
		t.Error("body does not look like the landing page")
	}
}

func TestChat_Success(t *testing.T) {
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionJSON("Inertia is the tendency of objects to resist changes in motion."))
	})

	rr := postChat(t, h, `{"tutor":"physics","message":"What is inertia?","history":[]}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeChat(t, rr)
	if resp.Status != "success" {
		t.Errorf("status = %q, want success", resp.Status)
	}
	if resp.Response == "" {
		t.Error("response text is empty")
	}
	if resp.Model != "alpha/one" {
		t.Errorf("model = %q, want %q", resp.Model, "alpha/one")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestChat_FallbackReportsWinningModel(t *testing.T) {
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		var req proxy.ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model == "alpha/one" {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error":{"message":"model overloaded"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionJSON("answer from the backup model"))
	})

	rr := postChat(t, h, `{"tutor":"math","message":"What is 2+2?"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeChat(t, rr)
	if resp.Model != "beta/two" {
		t.Errorf("model = %q, want %q", resp.Model, "beta/two")
	}
	if resp.Response != "answer from the backup model" {
		t.Errorf("response = %q", resp.Response)
	}
}

func TestChat_InvalidTutor(t *testing.T) {
	var calls atomic.Int32
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	for _, body := range []string{
		`{"tutor":"art","message":"paint me"}`,
		`{"message":"no tutor"}`,
	} {
		rr := postChat(t, h, body)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
		}
		resp := decodeChat(t, rr)
		if resp.Status != "error" || resp.Response != "Invalid tutor selected" {
			t.Errorf("body = %+v, want invalid tutor error", resp)
		}
	}

	if calls.Load() != 0 {
		t.Errorf("made %d upstream calls, want 0", calls.Load())
	}
}

func TestChat_EmptyMessage(t *testing.T) {
	var calls atomic.Int32
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	rr := postChat(t, h, `{"tutor":"physics","message":""}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	resp := decodeChat(t, rr)
	if resp.Status != "error" || resp.Response != "Message cannot be empty" {
		t.Errorf("body = %+v, want empty message error", resp)
	}
	if calls.Load() != 0 {
		t.Errorf("made %d upstream calls, want 0", calls.Load())
	}
}

func TestChat_AllModelsFail(t *testing.T) {
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"backend exploded"}}`)
	})

	rr := postChat(t, h, `{"tutor":"biology","message":"What is DNA?"}`)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}

	resp := decodeChat(t, rr)
	if resp.Status != "error" {
		t.Errorf("status = %q, want error", resp.Status)
	}
	if resp.Response != "Sorry, I'm having trouble connecting to the tutor service. Please try again later." {
		t.Errorf("response = %q, want the generic apology", resp.Response)
	}
	if resp.Error == "" {
		t.Error("diagnostic error field is empty")
	}
	if !strings.Contains(resp.Error, "backend exploded") {
		t.Errorf("diagnostic = %q, want the last model's failure detail", resp.Error)
	}
	if resp.Model != "" {
		t.Errorf("model = %q, want empty on failure", resp.Model)
	}
}

func TestChat_InvalidBody(t *testing.T) {
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {})

	rr := postChat(t, h, "{invalid")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	resp := decodeChat(t, rr)
	if resp.Status != "error" || resp.Response != "Invalid request body" {
		t.Errorf("body = %+v, want invalid body error", resp)
	}
}

func TestChat_BodyTooLarge(t *testing.T) {
	upstreamCalls := 0
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls++
	})

	// Valid JSON, but past the 1MB request cap.
	body := `{"tutor":"physics","message":"` + strings.Repeat("a", 1<<20) + `"}`
	rr := postChat(t, h, body)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusRequestEntityTooLarge)
	}
	resp := decodeChat(t, rr)
	if resp.Status != "error" || resp.Response != "Request body too large" {
		t.Errorf("body = %+v, want too-large error", resp)
	}
	if upstreamCalls != 0 {
		t.Errorf("upstream calls = %d, want 0", upstreamCalls)
	}
}

func TestChat_HistoryForwardedInOrder(t *testing.T) {
	var gotMessages []proxy.Message
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		var req proxy.ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotMessages = req.Messages
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionJSON("ok"))
	})

	body := `{"tutor":"chemistry","message":"And the products?","history":[
		{"role":"user","content":"Balance H2 + O2"},
		{"role":"assistant","content":"2H2 + O2 -> 2H2O"}
	]}`
	rr := postChat(t, h, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d (body: %s)", rr.Code, rr.Body.String())
	}

	if len(gotMessages) != 4 {
		t.Fatalf("upstream got %d messages, want 4", len(gotMessages))
	}
	if gotMessages[0].Role != "system" {
		t.Errorf("first message role = %q, want system", gotMessages[0].Role)
	}
	if gotMessages[1].Content != "Balance H2 + O2" || gotMessages[2].Content != "2H2 + O2 -> 2H2O" {
		t.Errorf("history not preserved: %+v", gotMessages[1:3])
	}
	if gotMessages[3].Role != "user" || gotMessages[3].Content != "And the products?" {
		t.Errorf("last message = %+v, want the new user message", gotMessages[3])
	}
}

func TestTutors(t *testing.T) {
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tutors", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	raw := rr.Body.String()

	var body struct {
		Tutors []persona.Persona `json:"tutors"`
	}
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(body.Tutors) != 4 {
		t.Fatalf("got %d tutors, want 4", len(body.Tutors))
	}

	// System prompts must not leak through the listing.
	if strings.Contains(raw, "You are") {
		t.Error("tutor listing leaks persona prompts")
	}
}

func TestModels(t *testing.T) {
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(proxy.ModelList{
			Data: []proxy.Model{{ID: "anthropic/claude-3-haiku"}},
		})
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/models", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var list proxy.ModelList
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(list.Data) != 1 || list.Data[0].ID != "anthropic/claude-3-haiku" {
		t.Errorf("models = %+v", list.Data)
	}
}
