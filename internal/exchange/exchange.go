// Package exchange feeds the currency board: it pulls the national bank's
// daily rates and projects them onto the three currencies the shop displays.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Lokankara/giftstore/internal/pubsub"
)

// Rate is one displayed exchange rate with its flag asset.
type Rate struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
	Src      string  `json:"src"`
}

type nbuRate struct {
	Code string  `json:"cc"`
	Rate float64 `json:"rate"`
}

type Service struct {
	NbuURL string
	HTTP   *http.Client

	// Rates replays the latest board to late subscribers; Index tracks
	// which currency the carousel currently shows.
	Rates *pubsub.Broadcaster[[]Rate]
	Index *pubsub.Broadcaster[int]
}

func NewService(nbuURL string) *Service {
	return &Service{
		NbuURL: nbuURL,
		HTTP:   &http.Client{Timeout: 5 * time.Second},
		Rates:  pubsub.NewWith([]Rate{}),
		Index:  pubsub.NewWith(0),
	}
}

// UpdateIndex moves the carousel selection.
func (s *Service) UpdateIndex(i int) {
	s.Index.Publish(i)
}

// Fetch pulls the current rates, projects USD, UAH and EUR, publishes the
// board and returns it. On failure the previous board stays current.
func (s *Service) Fetch(ctx context.Context) ([]Rate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.NbuURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create rates request: %w", err)
	}
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}

	var raw []nbuRate
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}

	rates := Project(raw)
	s.Rates.Publish(rates)
	return rates, nil
}

// Project reduces the bank's full table to the displayed board: USD as the
// unit, the hryvnia price of a dollar, and the dollar price of a euro.
func Project(raw []nbuRate) []Rate {
	var usdRate, eurRate float64
	for _, r := range raw {
		switch r.Code {
		case "USD":
			usdRate = r.Rate
		case "EUR":
			eurRate = r.Rate
		}
	}

	board := []Rate{
		{Value: 1.00, Currency: "USD", Src: "../assets/images/us-flag.png"},
		{Value: usdRate, Currency: "UAH", Src: "../assets/images/ua-flag.png"},
	}
	eur := 0.0
	if eurRate != 0 {
		eur = usdRate / eurRate
	}
	board = append(board, Rate{Value: eur, Currency: "EUR", Src: "../assets/images/eu-flag.png"})
	return board
}
