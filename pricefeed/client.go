package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dbkchain/bridge-service/config"
)

// GasLevelNormal is the gas price level used for fee estimates.
const GasLevelNormal = "normal"

// GasPriceLevel is one entry of the backend gas price ladder, price in wei.
type GasPriceLevel struct {
	Level string  `json:"level"`
	Price float64 `json:"price"`
}

type TokenPrice struct {
	PriceUSD float64 `json:"priceUsd"`
}

// Client queries the backend price API. All prices are advisory, display
// data only.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(cfg *config.PriceFeedConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) GetGasPriceLevels(ctx context.Context, chainID string) ([]GasPriceLevel, error) {
	var levels []GasPriceLevel
	query := url.Values{"chainId": {chainID}}
	if err := c.getJSON(ctx, "/gas-price?"+query.Encode(), &levels); err != nil {
		return nil, err
	}
	return levels, nil
}

func (c *Client) GetTokenPrice(ctx context.Context, token common.Address, chainID string) (*TokenPrice, error) {
	price := new(TokenPrice)
	query := url.Values{"address": {strings.ToLower(token.Hex())}, "chainId": {chainID}}
	if err := c.getJSON(ctx, "/token-price?"+query.Encode(), price); err != nil {
		return nil, err
	}
	return price, nil
}

func (c *Client) getJSON(ctx context.Context, path string, res interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("can't query price feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("price feed returned status %d for %s", resp.StatusCode, path)
	}
	if err = json.NewDecoder(resp.Body).Decode(res); err != nil {
		return fmt.Errorf("can't decode price feed response: %w", err)
	}
	return nil
}
