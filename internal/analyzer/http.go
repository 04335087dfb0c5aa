package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"AgriValue/internal/model"
)

const (
	// DefaultAnalyzePath is the image analysis endpoint. Older deployments
	// serve it at LegacyAnalyzePath.
	DefaultAnalyzePath = "/api/analyze-image"
	LegacyAnalyzePath  = "/analyze"
	searchPricesPath   = "/api/search-prices"

	DefaultTimeout = 30 * time.Second
)

var imageContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".heic": "image/heic",
}

// HTTPAnalyzer implements Analyzer against the appraisal REST API.
type HTTPAnalyzer struct {
	BaseURL     string
	AnalyzePath string
	UserAgent   string
	Client      *http.Client
}

// NewHTTPAnalyzer creates a client with optional proxy support.
// A zero timeout means DefaultTimeout.
func NewHTTPAnalyzer(baseURL, analyzePath, proxyURL string, timeout time.Duration) *HTTPAnalyzer {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if analyzePath == "" {
		analyzePath = DefaultAnalyzePath
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPAnalyzer{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		AnalyzePath: analyzePath,
		UserAgent:   "AgriValue/1.0",
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (a *HTTPAnalyzer) Name() string { return "http" }

// AnalyzeImage uploads the image as multipart field "file".
func (a *HTTPAnalyzer) AnalyzeImage(ctx context.Context, imagePath string) (*model.AnalysisResult, error) {
	body, contentType, err := imageForm(imagePath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+a.AnalyzePath, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	result, err := a.do(req)
	if err != nil {
		return nil, fmt.Errorf("analyze image: %w", err)
	}
	if result.Error != "" {
		return result, fmt.Errorf("analyze image: %w: %s", ErrNotIdentified, result.Error)
	}
	result.Source = model.SourceAI
	return result, nil
}

// SearchPrices looks up market data for manually entered details.
func (a *HTTPAnalyzer) SearchPrices(ctx context.Context, q Query) (*model.AnalysisResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("make", q.Make)
	params.Set("model", q.Model)
	params.Set("type", q.Type)
	params.Set("year", q.Year)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+searchPricesPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	result, err := a.do(req)
	if err != nil {
		return nil, fmt.Errorf("search prices: %w", err)
	}
	result.Source = model.SourceManual
	return result, nil
}

func (a *HTTPAnalyzer) do(req *http.Request) (*model.AnalysisResult, error) {
	req.Header.Set("Accept", "application/json")
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, statusError(resp.StatusCode, body)
	}

	var result model.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &result, nil
}

func imageForm(imagePath string) (io.Reader, string, error) {
	f, err := os.Open(strings.TrimPrefix(imagePath, "file://"))
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	name := filepath.Base(f.Name())
	ctype, ok := imageContentTypes[strings.ToLower(filepath.Ext(name))]
	if !ok {
		ctype = "image/jpeg"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(name)))
	h.Set("Content-Type", ctype)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
