package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// noopValidator allows all URLs (for tests that don't test SSRF).
func noopValidator(_ string) error { return nil }

func TestFetch_Success(t *testing.T) {
	// WHAT: Basic HTTP GET returns body, final URL and media type.
	// WHY: Core fetcher functionality.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("user agent should be set")
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	f := New(Config{URLValidator: noopValidator})
	page, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.StatusCode != 200 {
		t.Errorf("status: got %d", page.StatusCode)
	}
	if page.ContentType != "text/html" {
		t.Errorf("content type: got %q", page.ContentType)
	}
	if err := page.RequireHTML(); err != nil {
		t.Errorf("RequireHTML: %v", err)
	}
	if !strings.Contains(string(page.Body), "hello") {
		t.Errorf("body: got %q", page.Body)
	}
}

func TestFetch_NotHTML(t *testing.T) {
	// WHAT: PDF responses are downloaded but fail RequireHTML.
	// WHY: Non-HTML sources are recorded as failed, not parsed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	page, err := New(Config{URLValidator: noopValidator}).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if err := page.RequireHTML(); !errors.Is(err, ErrNotHTML) {
		t.Errorf("RequireHTML: got %v, want ErrNotHTML", err)
	}
}

func TestFetch_SniffsMissingContentType(t *testing.T) {
	// WHAT: A missing Content-Type header is sniffed from the body.
	// WHY: Some servers omit the header on HTML pages.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		w.Write([]byte("<!DOCTYPE html><html><body>x</body></html>"))
	}))
	defer srv.Close()

	page, err := New(Config{URLValidator: noopValidator}).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.ContentType != "text/html" {
		t.Errorf("content type: got %q", page.ContentType)
	}
}

func TestFetch_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(Config{URLValidator: noopValidator}).Fetch(context.Background(), srv.URL)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != 503 {
		t.Fatalf("err: got %v, want StatusError 503", err)
	}
}

func TestFetch_Timeout(t *testing.T) {
	// WHAT: Fetch respects its timeout.
	// WHY: Sources must not block the pipeline indefinitely.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.Write([]byte("late"))
	}))
	defer srv.Close()

	f := New(Config{Timeout: 100 * time.Millisecond, URLValidator: noopValidator})
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestFetch_MaxBody(t *testing.T) {
	// WHAT: Body is truncated to MaxBytes.
	// WHY: Prevents memory exhaustion from large responses.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer srv.Close()

	f := New(Config{MaxBytes: 100, URLValidator: noopValidator})
	page, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(page.Body) != 100 {
		t.Errorf("body: got %d bytes, want 100", len(page.Body))
	}
}

// --- SSRF protection tests ---

func TestFetch_ValidateURL_PrivateIP(t *testing.T) {
	// WHAT: Private IP URLs are blocked before request.
	// WHY: Search results must not reach the internal network.
	_, err := New(Config{}).Fetch(context.Background(), "http://192.168.1.1/data")
	if err == nil || !strings.Contains(err.Error(), "SSRF") {
		t.Fatalf("expected SSRF error, got: %v", err)
	}
}

func TestFetch_ValidateURL_Metadata(t *testing.T) {
	// WHAT: Cloud metadata endpoint URLs are blocked.
	// WHY: 169.254.169.254 is the AWS/GCP/Azure metadata service.
	_, err := New(Config{}).Fetch(context.Background(), "http://169.254.169.254/latest/")
	if err == nil || !strings.Contains(err.Error(), "SSRF") {
		t.Fatalf("expected SSRF error, got: %v", err)
	}
}

func TestFetch_AllowPrivate(t *testing.T) {
	// WHAT: AllowPrivate lets loopback test servers through.
	// WHY: Local deployments research intranet pages.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<p>ok</p>"))
	}))
	defer srv.Close()

	if _, err := New(Config{AllowPrivate: true}).Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("fetch: %v", err)
	}
}

func TestFetch_RedirectFollowed(t *testing.T) {
	// WHAT: A short redirect chain is followed and FinalURL updated.
	// WHY: Search results often point at tracking redirects.
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) { http.Redirect(w, r, "/b", http.StatusFound) })
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) { http.Redirect(w, r, "/c", http.StatusMovedPermanently) })
	mux.HandleFunc("/c", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("<p>end</p>")) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	page, err := New(Config{URLValidator: noopValidator}).Fetch(context.Background(), srv.URL+"/a")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.FinalURL != srv.URL+"/c" {
		t.Errorf("final url: got %q", page.FinalURL)
	}
}

func TestFetch_RedirectToPrivate(t *testing.T) {
	// WHAT: Redirect to private IP is blocked by CheckRedirect.
	// WHY: Open redirect → SSRF is a common attack chain.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://10.255.255.1/admin", http.StatusFound)
	}))
	defer srv.Close()

	first := true
	allowFirst := func(u string) error {
		if first {
			first = false
			return nil
		}
		return fmt.Errorf("SSRF: private IP blocked")
	}

	_, err := New(Config{URLValidator: allowFirst}).Fetch(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "SSRF") {
		t.Fatalf("expected SSRF error, got: %v", err)
	}
}

func TestFetch_TooManyRedirects(t *testing.T) {
	// WHAT: Redirect loops stop at the hop limit.
	// WHY: Redirect loop protection.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.String()+"x", http.StatusFound)
	}))
	defer srv.Close()

	_, err := New(Config{URLValidator: noopValidator, MaxRedirects: 3}).Fetch(context.Background(), srv.URL+"/start")
	if !errors.Is(err, ErrTooManyRedirects) {
		t.Fatalf("err: got %v, want ErrTooManyRedirects", err)
	}
}
