package vpic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://vpic.nhtsa.dot.gov/api"

// ErrNoResult indica que vPIC respondio sin datos utilizables para el VIN.
var ErrNoResult = errors.New("vpic: no decode result")

// Result son los campos de DecodeVinValues que usamos.
type Result struct {
	Make              string `json:"Make"`
	Manufacturer      string `json:"Manufacturer"`
	Model             string `json:"Model"`
	ModelYear         string `json:"ModelYear"`
	Trim              string `json:"Trim"`
	BodyClass         string `json:"BodyClass"`
	FuelTypePrimary   string `json:"FuelTypePrimary"`
	TransmissionStyle string `json:"TransmissionStyle"`
	ErrorCode         string `json:"ErrorCode"`
	ErrorText         string `json:"ErrorText"`
}

// Year devuelve ModelYear como entero (0 si no es numerico).
func (r Result) Year() int {
	y, err := strconv.Atoi(strings.TrimSpace(r.ModelYear))
	if err != nil {
		return 0
	}
	return y
}

type decodeResponse struct {
	Count   int      `json:"Count"`
	Message string   `json:"Message"`
	Results []Result `json:"Results"`
}

// Client consulta la API publica vPIC de NHTSA.
type Client struct {
	baseURL     string
	http        *http.Client
	logger      *zap.Logger
	maxTries    uint
	initialWait time.Duration
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{Timeout: timeout},
		logger:      logger,
		maxTries:    3,
		initialWait: 200 * time.Millisecond,
	}
}

// DecodeVIN llama DecodeVinValues con reintentos exponenciales ante
// errores de transporte, 5xx y 429. El resto de los 4xx no se reintenta.
func (c *Client) DecodeVIN(ctx context.Context, vin string) (Result, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialWait
	b.MaxInterval = 2 * time.Second

	attempt := 0
	op := func() (Result, error) {
		attempt++
		res, err := c.decodeOnce(ctx, vin)
		if err != nil {
			c.logger.Debug("vpic decode attempt failed",
				zap.String("vin", vin),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return res, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxTries),
	)
}

func (c *Client) decodeOnce(ctx context.Context, vin string) (Result, error) {
	url := fmt.Sprintf("%s/vehicles/DecodeVinValues/%s?format=json", c.baseURL, vin)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return Result{}, fmt.Errorf("vpic http error: status=%d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return Result{}, backoff.Permanent(fmt.Errorf("vpic http error: status=%d", resp.StatusCode))
	}

	var dr decodeResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return Result{}, backoff.Permanent(fmt.Errorf("unmarshal response: %w", err))
	}
	if len(dr.Results) == 0 {
		return Result{}, backoff.Permanent(ErrNoResult)
	}
	res := dr.Results[0]
	if strings.TrimSpace(res.Make) == "" || strings.TrimSpace(res.Model) == "" || res.Year() == 0 {
		return Result{}, backoff.Permanent(fmt.Errorf("%w: error_code=%s", ErrNoResult, res.ErrorCode))
	}
	return res, nil
}
