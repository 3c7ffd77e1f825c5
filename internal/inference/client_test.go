package inference

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClientAnalyzePostsMultipartFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/explain" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file field: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "pixels" {
			t.Fatalf("unexpected payload %q", data)
		}
		if header.Filename != "scan.png" {
			t.Fatalf("unexpected filename %q", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "image/png" {
			t.Fatalf("unexpected part content type %q", ct)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"predicted_class":"glioma","predicted_class_ensemble":"glioma","confidence":0.873,"entropy":0.41,"variance":0.002,"num_counterfactuals":2,"lime_explanation":"aGk=","counterfactuals":["YQ==","Yg=="]}`))
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL + "/", HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := client.Analyze(context.Background(), "scan.png", "image/png", strings.NewReader("pixels"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.PredictedClass != "glioma" || result.Confidence != 0.873 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Counterfactuals) != 2 || result.Counterfactuals[0] != "YQ==" {
		t.Fatalf("counterfactual order lost: %#v", result.Counterfactuals)
	}
	if result.LimeExplanation != "aGk=" || result.NumCounterfactuals != 2 {
		t.Fatalf("optional fields not decoded: %+v", result)
	}
}

func TestClientAnalyzeStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.Analyze(context.Background(), "scan.jpg", "image/jpeg", strings.NewReader("x"))
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if err.Error() != "Server error: 500" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !strings.Contains(statusErr.Body, "model crashed") {
		t.Fatalf("body snippet not kept: %q", statusErr.Body)
	}
}

func TestClientAnalyzeRejectsMalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>"},
		{"missing class", `{"confidence":0.5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := New(Config{BaseURL: server.URL, HTTPClient: server.Client()})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if _, err := client.Analyze(context.Background(), "a.png", "image/png", strings.NewReader("x")); err == nil {
				t.Fatal("expected decode error")
			}
		})
	}
}

func TestClientAnalyzeHonorsContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client, err := New(Config{BaseURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.Analyze(ctx, "a.png", "image/png", strings.NewReader("x")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestClientPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"message":"Tumor-Detection Model API is running!"}`))
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	msg, err := client.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if msg != "Tumor-Detection Model API is running!" {
		t.Fatalf("unexpected banner %q", msg)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty URL")
	}
	if _, err := New(Config{BaseURL: "ftp://example.com"}); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
	client, err := New(Config{BaseURL: "http://localhost:8000/", Path: "predict"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := client.Endpoint(); got != "http://localhost:8000/predict" {
		t.Fatalf("Endpoint() = %q", got)
	}
}

func TestPickHTTPClientHonorsCustomClient(t *testing.T) {
	custom := &http.Client{Timeout: 42 * time.Second}
	if got := pickHTTPClient(custom); got != custom {
		t.Fatal("expected custom client to be returned")
	}
	if got := pickHTTPClient(nil); got.Timeout != defaultHTTPTimeout {
		t.Fatalf("expected default timeout %s, got %s", defaultHTTPTimeout, got.Timeout)
	}
}

func TestResultNoTumor(t *testing.T) {
	t.Parallel()

	var missing *Result
	if missing.NoTumor() {
		t.Fatal("nil result is not the sentinel")
	}
	if !(&Result{PredictedClass: NoTumorClass}).NoTumor() {
		t.Fatal("notumor should be the sentinel")
	}
	if (&Result{PredictedClass: "pituitary"}).NoTumor() {
		t.Fatal("pituitary is not the sentinel")
	}
}
