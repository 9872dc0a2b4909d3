// Package gateway turns remote API requests into normalized records. It does
// not retry and it never mutates cache state on failure; the caller decides
// what a failed fetch means.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Lokankara/giftstore/internal/models"
)

// StatusError is a non-2xx response surfaced with its status code so it can
// be mapped to a user-facing message.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// LocalState is the slice of the persistent store the gateway needs: the
// active user for bearer auth, and the last-viewed-product key written when a
// certificate is created.
type LocalState interface {
	ReadUser() models.User
	WriteProduct(cert models.Certificate) error
}

type Gateway struct {
	BaseURL string
	SrcURL  string
	State   LocalState
	HTTP    *http.Client
	Log     *slog.Logger
}

func New(baseURL, srcURL string, state LocalState, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		BaseURL: strings.TrimRight(baseURL, "/"),
		SrcURL:  strings.TrimRight(srcURL, "/"),
		State:   state,
		Log:     log,
		HTTP: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (g *Gateway) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, g.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := g.State.ReadUser().AccessToken; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode}
	}
	return resp, nil
}

// FetchPage loads one listing page and unwraps it into certificate records.
func (g *Gateway) FetchPage(ctx context.Context, page int) ([]models.Certificate, error) {
	resp, err := g.do(ctx, http.MethodGet, "/certificates?page="+strconv.Itoa(page), nil, "")
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", page, err)
	}
	defer resp.Body.Close()
	return decodeCertificates(resp.Body)
}

// FetchByTag loads up to size certificates carrying the tag.
func (g *Gateway) FetchByTag(ctx context.Context, size int, name string) ([]models.Certificate, error) {
	path := fmt.Sprintf("/certificates/search?tagNames=%s&size=%d", url.QueryEscape(name), size)
	resp, err := g.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, fmt.Errorf("fetch by tag %q: %w", name, err)
	}
	defer resp.Body.Close()
	return decodeCertificates(resp.Body)
}

// FetchTags loads up to size tags as browse categories.
func (g *Gateway) FetchTags(ctx context.Context, size int) ([]models.Category, error) {
	resp, err := g.do(ctx, http.MethodGet, "/tags?size="+strconv.Itoa(size), nil, "")
	if err != nil {
		return nil, fmt.Errorf("fetch tags: %w", err)
	}
	defer resp.Body.Close()
	return decodeCategories(resp.Body, g.SrcURL)
}

// Login submits credentials and returns the user with fresh session
// credentials and a cleared order-composition list. State transitions are the
// session manager's business, not the gateway's.
func (g *Gateway) Login(ctx context.Context, user models.User) (models.User, error) {
	body, err := json.Marshal(user)
	if err != nil {
		return models.User{}, fmt.Errorf("encode login: %w", err)
	}
	resp, err := g.do(ctx, http.MethodPost, "/login", bytes.NewReader(body), "application/json")
	if err != nil {
		return models.User{}, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	var payload loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.User{}, fmt.Errorf("%w: login: %v", ErrDecode, err)
	}

	user.ID = payload.ID
	user.AccessToken = payload.AccessToken
	user.RefreshToken = payload.RefreshToken
	user.ExpiredAt = payload.ExpiredAt
	user.Certificates = []models.Certificate{}
	return user, nil
}

// SignupForm is the registration submission.
type SignupForm struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Signup registers a new account and returns the created username.
func (g *Gateway) Signup(ctx context.Context, form SignupForm) (string, error) {
	body, err := json.Marshal(form)
	if err != nil {
		return "", fmt.Errorf("encode signup: %w", err)
	}
	resp, err := g.do(ctx, http.MethodPost, "/signup", bytes.NewReader(body), "application/json")
	if err != nil {
		return "", fmt.Errorf("signup: %w", err)
	}
	defer resp.Body.Close()

	var payload signupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: signup: %v", ErrDecode, err)
	}
	return payload.Username, nil
}

// CreateCertificate submits a draft and records the created certificate as
// the last-viewed product.
func (g *Gateway) CreateCertificate(ctx context.Context, draft models.CertificateDraft) (models.Certificate, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return models.Certificate{}, fmt.Errorf("encode certificate: %w", err)
	}
	resp, err := g.do(ctx, http.MethodPost, "/certificates", bytes.NewReader(body), "application/json")
	if err != nil {
		return models.Certificate{}, fmt.Errorf("create certificate: %w", err)
	}
	defer resp.Body.Close()

	created, err := decodeCreated(resp.Body)
	if err != nil {
		return models.Certificate{}, err
	}
	if err := g.State.WriteProduct(created); err != nil {
		g.Log.Warn("created certificate not recorded locally", "id", created.ID, "error", err)
	}
	return created, nil
}

// Upload posts one file as multipart form data and returns the stored asset
// reference.
func (g *Gateway) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("upload copy: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("upload form: %w", err)
	}

	resp, err := g.do(ctx, http.MethodPost, "/upload", &buf, writer.FormDataContentType())
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	var payload uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: upload: %v", ErrDecode, err)
	}
	return payload.Path, nil
}

// PlaceOrder submits the checked-out certificates for the user and returns
// the response status code; 201 means the order was created.
func (g *Gateway) PlaceOrder(ctx context.Context, user models.User, ids []string, counters []int) (int, error) {
	counterStrs := make([]string, len(counters))
	for i, n := range counters {
		counterStrs[i] = strconv.Itoa(n)
	}
	path := fmt.Sprintf(
		"/orders/%s?certificateIds=%s&counters=%s",
		url.PathEscape(user.Username),
		url.QueryEscape(strings.Join(ids, ",")),
		url.QueryEscape(strings.Join(counterStrs, ",")),
	)

	resp, err := g.do(ctx, http.MethodPost, path, nil, "application/json")
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return statusErr.Code, err
		}
		return 0, fmt.Errorf("place order: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
