// Package deploy publishes a generated site's HTML through the Vercel API.
package deploy

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/tradiesite/tradiesite/internal/config"
	"github.com/tradiesite/tradiesite/internal/domain"
	"github.com/tradiesite/tradiesite/internal/observability"
)

// Deployer publishes HTML to Vercel. Without a token it degrades to a
// deterministic placeholder URL marked pending, a documented stub rather
// than a production path.
type Deployer struct {
	token      string
	apiBase    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a deployer from configuration.
func New(cfg config.DeployConfig, logger *zap.Logger) *Deployer {
	return &Deployer{
		token:      cfg.Token,
		apiBase:    cfg.APIBase,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type vercelError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type createProjectRequest struct {
	Name      string  `json:"name"`
	Framework *string `json:"framework"`
}

type deploymentFile struct {
	File     string `json:"file"`
	Data     string `json:"data"`
	Encoding string `json:"encoding"`
}

type createDeploymentRequest struct {
	Name            string           `json:"name"`
	Target          string           `json:"target"`
	Files           []deploymentFile `json:"files"`
	ProjectSettings struct {
		Framework *string `json:"framework"`
	} `json:"projectSettings"`
}

type createDeploymentResponse struct {
	URL string `json:"url"`
}

// Deploy publishes the site and returns its public URL. Project-already-
// exists conflicts are treated as success; any other API error is fatal.
func (d *Deployer) Deploy(ctx context.Context, site *domain.GeneratedSite) (string, error) {
	slug := Slugify(site.BusinessInfo.BusinessName)

	if d.token == "" {
		url := fmt.Sprintf("https://%s.vercel.app (deployment pending — hosting token not configured)", slug)
		d.logger.Info("no hosting token, returning placeholder", zap.String("site_id", site.ID))
		observability.DeploymentsTotal.WithLabelValues("placeholder").Inc()
		return url, nil
	}

	if err := d.createProject(ctx, slug); err != nil {
		observability.DeploymentsTotal.WithLabelValues("error").Inc()
		return "", domain.DeploymentError(err)
	}

	url, err := d.createDeployment(ctx, slug, site.HTML)
	if err != nil {
		observability.DeploymentsTotal.WithLabelValues("error").Inc()
		return "", domain.DeploymentError(err)
	}

	observability.DeploymentsTotal.WithLabelValues("success").Inc()
	d.logger.Info("site deployed",
		zap.String("site_id", site.ID),
		zap.String("url", url),
	)
	return url, nil
}

func (d *Deployer) createProject(ctx context.Context, slug string) error {
	status, body, err := d.post(ctx, "/v10/projects", createProjectRequest{Name: slug})
	if err != nil {
		return err
	}
	if status >= 200 && status < 300 {
		return nil
	}

	var envelope vercelError
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Code == "project_already_exists" {
		return nil
	}
	if envelope.Error.Message != "" {
		return fmt.Errorf("creating project: %s", envelope.Error.Message)
	}
	return fmt.Errorf("creating project: status %d", status)
}

func (d *Deployer) createDeployment(ctx context.Context, slug, html string) (string, error) {
	req := createDeploymentRequest{
		Name:   slug,
		Target: "production",
		Files: []deploymentFile{{
			File:     "index.html",
			Data:     base64.StdEncoding.EncodeToString([]byte(html)),
			Encoding: "base64",
		}},
	}

	status, body, err := d.post(ctx, "/v13/deployments", req)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		var envelope vercelError
		if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
			return "", fmt.Errorf("creating deployment: %s", envelope.Error.Message)
		}
		return "", fmt.Errorf("creating deployment: status %d", status)
	}

	var resp createDeploymentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding deployment response: %w", err)
	}
	return "https://" + resp.URL, nil
}

func (d *Deployer) post(ctx context.Context, path string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.apiBase+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+d.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
