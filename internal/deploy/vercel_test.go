package deploy

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tradiesite/tradiesite/internal/config"
	"github.com/tradiesite/tradiesite/internal/domain"
)

func testSite() *domain.GeneratedSite {
	return &domain.GeneratedSite{
		ID:   "site-abc-123",
		HTML: "<!DOCTYPE html><html><body>Smith Plumbing</body></html>",
		BusinessInfo: domain.BusinessInfo{
			BusinessName: "Smith Plumbing",
		},
		Status: domain.StatusPaid,
	}
}

func newDeployer(token, apiBase string) *Deployer {
	return New(config.DeployConfig{
		Token:   token,
		APIBase: apiBase,
		Timeout: 5 * time.Second,
	}, zap.NewNop())
}

func TestDeployWithoutTokenReturnsPlaceholder(t *testing.T) {
	d := newDeployer("", "https://api.vercel.com")

	url, err := d.Deploy(context.Background(), testSite())
	if err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}
	if !strings.HasPrefix(url, "https://smith-plumbing.vercel.app") {
		t.Errorf("url = %q", url)
	}
	if !strings.Contains(url, "pending") {
		t.Errorf("placeholder should be marked pending: %q", url)
	}
}

func TestDeployCreatesProjectAndDeployment(t *testing.T) {
	var gotFile deploymentFile
	mux := http.NewServeMux()
	mux.HandleFunc("/v10/projects", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Error("missing bearer token")
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v13/deployments", func(w http.ResponseWriter, r *http.Request) {
		var req createDeploymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding: %v", err)
		}
		if req.Target != "production" {
			t.Errorf("target = %q", req.Target)
		}
		if len(req.Files) != 1 {
			t.Fatalf("files = %d, want 1", len(req.Files))
		}
		gotFile = req.Files[0]
		json.NewEncoder(w).Encode(createDeploymentResponse{URL: "smith-plumbing.vercel.app"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	d := newDeployer("tok", server.URL)
	url, err := d.Deploy(context.Background(), testSite())
	if err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}
	if url != "https://smith-plumbing.vercel.app" {
		t.Errorf("url = %q", url)
	}

	if gotFile.File != "index.html" || gotFile.Encoding != "base64" {
		t.Errorf("file = %+v", gotFile)
	}
	decoded, err := base64.StdEncoding.DecodeString(gotFile.Data)
	if err != nil || !strings.Contains(string(decoded), "Smith Plumbing") {
		t.Errorf("decoded file = %q, err = %v", decoded, err)
	}
}

func TestDeployToleratesExistingProject(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v10/projects", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":{"code":"project_already_exists","message":"exists"}}`))
	})
	mux.HandleFunc("/v13/deployments", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(createDeploymentResponse{URL: "smith-plumbing.vercel.app"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	d := newDeployer("tok", server.URL)
	if _, err := d.Deploy(context.Background(), testSite()); err != nil {
		t.Fatalf("existing project should not fail deploy, error = %v", err)
	}
}

func TestDeployOtherProjectErrorIsFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v10/projects", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":"forbidden","message":"bad token"}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	d := newDeployer("tok", server.URL)
	_, err := d.Deploy(context.Background(), testSite())
	if err == nil {
		t.Fatal("expected error")
	}
	var appErr *domain.AppError
	if !errors.As(err, &appErr) || appErr.Code != domain.ErrCodeDeployment {
		t.Errorf("error = %v, want deployment AppError", err)
	}
}

func TestDeployDeploymentErrorIsFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v10/projects", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v13/deployments", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"bad_request","message":"too large"}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	d := newDeployer("tok", server.URL)
	if _, err := d.Deploy(context.Background(), testSite()); err == nil {
		t.Fatal("expected error")
	}
}
