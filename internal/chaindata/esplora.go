package chaindata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"

	"github.com/bitstark/bitstark-wallet/pkg/tx"
	"github.com/bitstark/bitstark-wallet/pkg/types"
)

// Breaker trip thresholds.
var (
	MaxNumOfFailingRequests = 10
	FailingRatio            = 0.6
)

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 4 << 20

// Options configures an Esplora client.
type Options struct {
	Network types.Network
	// Timeout bounds each HTTP request. Defaults to 10s.
	Timeout time.Duration
	// RatePerSecond paces requests. Zero or less disables pacing.
	RatePerSecond int
	// FeeTarget picks the recommended fee tier. Defaults to FeeHalfHour.
	FeeTarget FeeTarget
	// IncludeUnconfirmed makes GetUTXOs return mempool outputs too.
	IncludeUnconfirmed bool
	Logger             zerolog.Logger
}

// Esplora is a client for the mempool.space / Esplora REST API.
type Esplora struct {
	base    string
	opts    Options
	http    *http.Client
	limiter ratelimit.Limiter
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

var _ Provider = (*Esplora)(nil)

// NewEsplora creates a client for the API rooted at baseURL, e.g.
// "https://mempool.space/api".
func NewEsplora(baseURL string, opts Options) (*Esplora, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid chain API URL %q", baseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.FeeTarget == "" {
		opts.FeeTarget = FeeHalfHour
	}
	limiter := ratelimit.NewUnlimited()
	if opts.RatePerSecond > 0 {
		limiter = ratelimit.New(opts.RatePerSecond)
	}
	return &Esplora{
		base:    strings.TrimRight(baseURL, "/"),
		opts:    opts,
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: limiter,
		breaker: newCircuitBreaker(u.Host),
		log:     opts.Logger,
	}, nil
}

// newCircuitBreaker opens once more than MaxNumOfFailingRequests requests
// were seen and at least FailingRatio of them failed.
func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > MaxNumOfFailingRequests && ratio >= FailingRatio
		},
	})
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// clientFault reports whether code is the caller's fault rather than the
// server's. Such responses do not count against the breaker.
func clientFault(code int) bool {
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}

// response carries a result through the breaker. err is set for failures
// that are not the server's fault.
type response struct {
	data []byte
	err  error
}

// get fetches path and decodes the JSON body into out.
func (c *Esplora) get(ctx context.Context, path string, out any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrUnavailable, path, err)
	}
	c.limiter.Take()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrUnavailable, path, err)
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
		if err != nil {
			return response{err: err}, nil
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return response{err: ctx.Err()}, nil
			}
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			statusErr := &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
			if clientFault(resp.StatusCode) {
				return response{err: statusErr}, nil
			}
			return nil, statusErr
		}
		return response{data: data}, nil
	})
	if err == nil {
		err = res.(response).err
	}
	if err != nil {
		c.log.Debug().Err(err).Str("path", path).Msg("Chain API request failed")
		return fmt.Errorf("%w: GET %s: %w", ErrUnavailable, path, err)
	}
	if err := json.Unmarshal(res.(response).data, out); err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrBadResponse, path, err)
	}
	return nil
}

type esploraUTXO struct {
	TxID   string `json:"txid"`
	Vout   uint32 `json:"vout"`
	Value  uint64 `json:"value"`
	Status struct {
		Confirmed bool `json:"confirmed"`
	} `json:"status"`
}

// GetUTXOs returns the spendable outputs of address. Unconfirmed outputs are
// skipped unless Options.IncludeUnconfirmed is set.
func (c *Esplora) GetUTXOs(ctx context.Context, address string) ([]tx.UTXO, error) {
	script, err := tx.PayToAddrScript(address, c.opts.Network.Params())
	if err != nil {
		return nil, err
	}

	var raw []esploraUTXO
	if err := c.get(ctx, "/address/"+url.PathEscape(address)+"/utxo", &raw); err != nil {
		return nil, err
	}

	utxos := make([]tx.UTXO, 0, len(raw))
	for _, r := range raw {
		if !r.Status.Confirmed && !c.opts.IncludeUnconfirmed {
			continue
		}
		op, err := types.ParseOutpoint(r.TxID, r.Vout)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
		utxos = append(utxos, tx.UTXO{
			Outpoint: op,
			Value:    r.Value,
			Address:  address,
			Script:   script,
		})
	}
	c.log.Debug().
		Str("address", address).
		Int("utxos", len(utxos)).
		Int("skipped", len(raw)-len(utxos)).
		Msg("Fetched UTXOs")
	return utxos, nil
}

type recommendedFees struct {
	Fastest  uint64 `json:"fastestFee"`
	HalfHour uint64 `json:"halfHourFee"`
	Hour     uint64 `json:"hourFee"`
	Economy  uint64 `json:"economyFee"`
	Minimum  uint64 `json:"minimumFee"`
}

// GetFeeRate returns the recommended fee rate for the configured target.
func (c *Esplora) GetFeeRate(ctx context.Context) (uint64, error) {
	var fees recommendedFees
	if err := c.get(ctx, "/v1/fees/recommended", &fees); err != nil {
		return 0, err
	}
	var rate uint64
	switch c.opts.FeeTarget {
	case FeeFastest:
		rate = fees.Fastest
	case FeeHour:
		rate = fees.Hour
	case FeeEconomy:
		rate = fees.Economy
	case FeeMinimum:
		rate = fees.Minimum
	default:
		rate = fees.HalfHour
	}
	if rate == 0 {
		return 0, fmt.Errorf("%w: zero %s fee rate", ErrBadResponse, c.opts.FeeTarget)
	}
	return rate, nil
}

type txoStats struct {
	Funded uint64 `json:"funded_txo_sum"`
	Spent  uint64 `json:"spent_txo_sum"`
}

type addressStats struct {
	Chain   txoStats `json:"chain_stats"`
	Mempool txoStats `json:"mempool_stats"`
}

// GetBalance returns the balance of address.
func (c *Esplora) GetBalance(ctx context.Context, address string) (Balance, error) {
	if !types.ValidateBitcoinAddress(address) {
		return Balance{}, fmt.Errorf("%w: %s", tx.ErrInvalidAddress, address)
	}
	var stats addressStats
	if err := c.get(ctx, "/address/"+url.PathEscape(address), &stats); err != nil {
		return Balance{}, err
	}
	if stats.Chain.Spent > stats.Chain.Funded {
		return Balance{}, fmt.Errorf("%w: spent exceeds funded", ErrBadResponse)
	}
	return Balance{
		Confirmed:   stats.Chain.Funded - stats.Chain.Spent,
		Unconfirmed: int64(stats.Mempool.Funded) - int64(stats.Mempool.Spent),
	}, nil
}
