package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Lokankara/giftstore/internal/models"
)

// ErrDecode marks a response body that did not match the endpoint's shape.
var ErrDecode = errors.New("malformed response")

// The API wraps list payloads in a HAL-style envelope with a nested field
// holding the actual array.
type certificateEnvelope struct {
	Embedded struct {
		Certificates []certificateDTO `json:"certificateDtoList"`
	} `json:"_embedded"`
}

type tagEnvelope struct {
	Embedded struct {
		Tags []tagDTO `json:"tagDtoList"`
	} `json:"_embedded"`
}

type certificateDTO struct {
	ID               json.Number `json:"id"`
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	ShortDescription string      `json:"shortDescription"`
	Company          string      `json:"company"`
	Price            float64     `json:"price"`
	Duration         int         `json:"duration"`
	CreateDate       string      `json:"createDate"`
	LastUpdateDate   string      `json:"lastUpdateDate"`
	Path             string      `json:"path"`
	Tags             []tagDTO    `json:"tags"`
}

type tagDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// The backend emits LocalDateTime without a zone; newer endpoints emit RFC3339.
var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// decodeCertificates narrows the envelope into normalized records. Fetched
// certificates are never pre-marked as owned: favorite and checkout start
// false and count starts at one, and local flags are re-applied by the merge.
func decodeCertificates(r io.Reader) ([]models.Certificate, error) {
	var envelope certificateEnvelope
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: certificate list: %v", ErrDecode, err)
	}

	certs := make([]models.Certificate, 0, len(envelope.Embedded.Certificates))
	for _, dto := range envelope.Embedded.Certificates {
		tags := make([]models.Tag, 0, len(dto.Tags))
		for _, tag := range dto.Tags {
			tags = append(tags, models.Tag{ID: tag.ID, Name: tag.Name})
		}
		certs = append(certs, models.Certificate{
			ID:               dto.ID.String(),
			Name:             dto.Name,
			Description:      dto.Description,
			ShortDescription: dto.ShortDescription,
			Company:          dto.Company,
			Price:            dto.Price,
			Duration:         dto.Duration,
			CreateDate:       parseDate(dto.CreateDate),
			LastUpdate:       parseDate(dto.LastUpdateDate),
			Favorite:         false,
			Checkout:         false,
			Path:             dto.Path,
			Tags:             tags,
			Count:            1,
		})
	}
	return certs, nil
}

// decodeCategories maps raw tags into browse categories, synthesizing the
// preview image from the image-service base URL and the tag name.
func decodeCategories(r io.Reader, srcURL string) ([]models.Category, error) {
	var envelope tagEnvelope
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: tag list: %v", ErrDecode, err)
	}

	categories := make([]models.Category, 0, len(envelope.Embedded.Tags))
	for _, tag := range envelope.Embedded.Tags {
		categories = append(categories, models.Category{
			Name: tag.Name,
			Tag:  tag.Name,
			URL:  fmt.Sprintf("%s/200x150/?%s", srcURL, tag.Name),
		})
	}
	return categories, nil
}

type loginResponse struct {
	ID           int    `json:"id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiredAt    string `json:"expired_at"`
}

type signupResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

type uploadResponse struct {
	Path string `json:"path"`
}

type createdCertificate struct {
	certificateDTO
}

func decodeCreated(r io.Reader) (models.Certificate, error) {
	var dto createdCertificate
	if err := json.NewDecoder(r).Decode(&dto); err != nil {
		return models.Certificate{}, fmt.Errorf("%w: created certificate: %v", ErrDecode, err)
	}
	tags := make([]models.Tag, 0, len(dto.Tags))
	for _, tag := range dto.Tags {
		tags = append(tags, models.Tag{ID: tag.ID, Name: tag.Name})
	}
	cert := models.NewCertificate()
	cert.ID = dto.ID.String()
	cert.Name = dto.Name
	cert.Description = dto.Description
	cert.ShortDescription = dto.ShortDescription
	cert.Company = dto.Company
	cert.Price = dto.Price
	cert.Duration = dto.Duration
	cert.CreateDate = parseDate(dto.CreateDate)
	cert.LastUpdate = parseDate(dto.LastUpdateDate)
	cert.Path = dto.Path
	cert.Tags = tags
	return cert, nil
}
