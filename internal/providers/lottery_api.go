// Package providers holds clients for upstream draw-result APIs.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
	"gorm.io/datatypes"

	"github.com/jstittsworth/lotto-engine/internal/models"
)

// ErrDrawNotPublished is returned when the upstream has no result for
// the requested round yet.
var ErrDrawNotPublished = fmt.Errorf("draw result not published")

// LotteryAPIClient fetches official draw results. The upstream is a
// simple per-round JSON endpoint; calls are rate limited and wrapped in
// a circuit breaker so a flapping upstream cannot stall sync.
type LotteryAPIClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

// NewLotteryAPIClient creates a client. requestsPerSecond bounds the
// polling rate; breakerThreshold is the consecutive-failure count that
// opens the circuit.
func NewLotteryAPIClient(baseURL string, requestsPerSecond float64, breakerThreshold uint32, logger *logrus.Logger) *LotteryAPIClient {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	if breakerThreshold == 0 {
		breakerThreshold = 5
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "lottery-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return &LotteryAPIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		breaker: breaker,
		logger:  logger,
	}
}

// drawResultResponse mirrors the upstream payload for one round.
type drawResultResponse struct {
	ReturnValue       string `json:"returnValue"`
	Round             int    `json:"drwNo"`
	DrawDate          string `json:"drwNoDate"`
	Num1              int    `json:"drwtNo1"`
	Num2              int    `json:"drwtNo2"`
	Num3              int    `json:"drwtNo3"`
	Num4              int    `json:"drwtNo4"`
	Num5              int    `json:"drwtNo5"`
	Num6              int    `json:"drwtNo6"`
	BonusNumber       int    `json:"bnusNo"`
	FirstPrizeAmount  int64  `json:"firstWinamnt"`
	FirstPrizeWinners int    `json:"firstPrzwnerCo"`
	TotalSales        int64  `json:"totSellamnt"`
}

// FetchDraw retrieves one round's result. ErrDrawNotPublished signals a
// round the upstream has not drawn yet; other errors are transport or
// payload failures.
func (c *LotteryAPIClient) FetchDraw(ctx context.Context, round int) (*models.DrawRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter interrupted: %w", err)
	}

	body, err := c.breaker.Execute(func() (interface{}, error) {
		url := fmt.Sprintf("%s?method=getLottoNumber&drwNo=%d", c.baseURL, round)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
		}

		var payload drawResultResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("failed to decode draw payload: %w", err)
		}
		return &payload, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch round %d: %w", round, err)
	}

	payload := body.(*drawResultResponse)
	if payload.ReturnValue != "success" {
		return nil, ErrDrawNotPublished
	}

	drawDate, err := time.Parse("2006-01-02", payload.DrawDate)
	if err != nil {
		return nil, fmt.Errorf("round %d has malformed draw date %q: %w", payload.Round, payload.DrawDate, err)
	}

	record := &models.DrawRecord{
		Round:    payload.Round,
		DrawDate: drawDate,
		MainNumbers: datatypes.JSONSlice[int]{
			payload.Num1, payload.Num2, payload.Num3,
			payload.Num4, payload.Num5, payload.Num6,
		},
		BonusNumber:       payload.BonusNumber,
		FirstPrizeAmount:  payload.FirstPrizeAmount,
		FirstPrizeWinners: payload.FirstPrizeWinners,
		TotalSales:        payload.TotalSales,
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("upstream returned invalid draw: %w", err)
	}
	return record, nil
}

// FetchRange pulls rounds [from,to] inclusive, stopping early at the
// first unpublished round.
func (c *LotteryAPIClient) FetchRange(ctx context.Context, from, to int) ([]models.DrawRecord, error) {
	var draws []models.DrawRecord
	for round := from; round <= to; round++ {
		record, err := c.FetchDraw(ctx, round)
		if err != nil {
			if err == ErrDrawNotPublished {
				break
			}
			return draws, err
		}
		draws = append(draws, *record)
	}
	return draws, nil
}
