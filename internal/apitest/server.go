// Package apitest is an in-process double of the gift-certificate API, used
// by gateway and end-to-end tests. It serves the same envelope shapes the real
// backend does.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const pageSize = 25

type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Certificate struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	ShortDescription string  `json:"shortDescription"`
	Company          string  `json:"company"`
	Price            float64 `json:"price"`
	Duration         int     `json:"duration"`
	CreateDate       string  `json:"createDate"`
	LastUpdateDate   string  `json:"lastUpdateDate"`
	Path             string  `json:"path"`
	Tags             []Tag   `json:"tags"`
}

type Order struct {
	Username       string
	CertificateIDs []string
	Counters       []string
	Authorization  string
}

type Server struct {
	E            *echo.Echo
	HTTP         *httptest.Server
	Certificates []Certificate
	Tags         []Tag
	Orders       []Order

	// Accounts maps username to password for /login; empty means any pair
	// is accepted.
	Accounts map[string]string

	// OrderStatus overrides the status code /orders responds with.
	OrderStatus int
}

func NewServer() *Server {
	s := &Server{
		Accounts:    map[string]string{},
		OrderStatus: http.StatusCreated,
	}

	e := echo.New()
	e.HideBanner = true
	e.GET("/certificates", s.listCertificates)
	e.GET("/certificates/search", s.searchCertificates)
	e.GET("/tags", s.listTags)
	e.POST("/certificates", s.createCertificate)
	e.POST("/upload", s.upload)
	e.POST("/login", s.login)
	e.POST("/signup", s.signup)
	e.POST("/orders/:username", s.createOrder)

	s.E = e
	s.HTTP = httptest.NewServer(e)
	return s
}

func (s *Server) Close() {
	s.HTTP.Close()
}

// URL is the base URL tests hand to the gateway.
func (s *Server) URL() string {
	return s.HTTP.URL
}

// Seed fills the catalog with n certificates, oldest first, each tagged with
// one of the given tag names round-robin.
func (s *Server) Seed(n int, tagNames ...string) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		var tags []Tag
		if len(tagNames) > 0 {
			name := tagNames[i%len(tagNames)]
			tags = []Tag{{ID: i%len(tagNames) + 1, Name: name}}
		}
		s.Certificates = append(s.Certificates, Certificate{
			ID:             i + 1,
			Name:           fmt.Sprintf("certificate %d", i+1),
			Description:    fmt.Sprintf("description %d", i+1),
			Company:        "GiftStore",
			Price:          float64(10 + i),
			Duration:       30,
			CreateDate:     base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
			LastUpdateDate: base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
			Tags:           tags,
		})
	}
	for i, name := range tagNames {
		s.Tags = append(s.Tags, Tag{ID: i + 1, Name: name})
	}
}

func envelope(field string, payload any) map[string]any {
	return map[string]any{"_embedded": map[string]any{field: payload}}
}

func (s *Server) listCertificates(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	from := page * pageSize
	to := from + pageSize
	if from > len(s.Certificates) {
		from = len(s.Certificates)
	}
	if to > len(s.Certificates) {
		to = len(s.Certificates)
	}
	return c.JSON(http.StatusOK, envelope("certificateDtoList", s.Certificates[from:to]))
}

func (s *Server) searchCertificates(c echo.Context) error {
	name := c.QueryParam("tagNames")
	size, _ := strconv.Atoi(c.QueryParam("size"))
	if size <= 0 {
		size = pageSize
	}

	matched := make([]Certificate, 0)
	for _, cert := range s.Certificates {
		for _, tag := range cert.Tags {
			if tag.Name == name {
				matched = append(matched, cert)
				break
			}
		}
		if len(matched) == size {
			break
		}
	}
	return c.JSON(http.StatusOK, envelope("certificateDtoList", matched))
}

func (s *Server) listTags(c echo.Context) error {
	size, _ := strconv.Atoi(c.QueryParam("size"))
	tags := s.Tags
	if size > 0 && size < len(tags) {
		tags = tags[:size]
	}
	return c.JSON(http.StatusOK, envelope("tagDtoList", tags))
}

func (s *Server) createCertificate(c echo.Context) error {
	var draft Certificate
	if err := c.Bind(&draft); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad draft"})
	}
	draft.ID = len(s.Certificates) + 1
	now := time.Now().UTC().Format(time.RFC3339)
	draft.CreateDate = now
	draft.LastUpdateDate = now
	s.Certificates = append(s.Certificates, draft)
	return c.JSON(http.StatusCreated, draft)
}

func (s *Server) upload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing file"})
	}
	return c.JSON(http.StatusCreated, map[string]string{"path": "/upload/" + file.Filename})
}

func (s *Server) login(c echo.Context) error {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&creds); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad credentials"})
	}
	if len(s.Accounts) > 0 {
		if password, ok := s.Accounts[creds.Username]; !ok || password != creds.Password {
			return c.JSON(http.StatusMethodNotAllowed, map[string]string{"error": "unknown user"})
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"id":            1,
		"access_token":  "access-" + creds.Username,
		"refresh_token": "refresh-" + creds.Username,
		"expired_at":    time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
}

func (s *Server) signup(c echo.Context) error {
	var form struct {
		Username string `json:"username"`
	}
	if err := c.Bind(&form); err != nil || form.Username == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad form"})
	}
	return c.JSON(http.StatusCreated, map[string]any{"id": 1, "username": form.Username})
}

func (s *Server) createOrder(c echo.Context) error {
	order := Order{
		Username:      c.Param("username"),
		Authorization: c.Request().Header.Get("Authorization"),
	}
	if raw := c.QueryParam("certificateIds"); raw != "" {
		order.CertificateIDs = strings.Split(raw, ",")
	}
	if raw := c.QueryParam("counters"); raw != "" {
		order.Counters = strings.Split(raw, ",")
	}
	s.Orders = append(s.Orders, order)
	if s.OrderStatus != http.StatusCreated {
		return c.JSON(s.OrderStatus, map[string]string{"error": "order rejected"})
	}
	return c.JSON(http.StatusCreated, map[string]string{"status": "created"})
}
