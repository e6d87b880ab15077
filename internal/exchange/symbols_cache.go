package exchange

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type xtSymbolInfo struct {
	Symbol       string `json:"symbol"`
	ContractSize string `json:"contractSize"`
	IsOpenAPI    bool   `json:"isOpenApi"`
}

// SymbolsCache — кеш активов XT: какие символы доступны через API
// и какой у них размер контракта. Загружается один раз на старте,
// дальше только чтения.
type SymbolsCache struct {
	log  *zap.Logger
	http *http.Client
	host string

	mu           sync.RWMutex
	contractSize map[string]decimal.Decimal // нормализованный символ -> contractSize
}

func NewSymbolsCache(log *zap.Logger) *SymbolsCache {
	return &SymbolsCache{
		log:          log,
		http:         newHTTPClient(),
		host:         xtHost,
		contractSize: make(map[string]decimal.Decimal),
	}
}

// Load тянет список активов с XT и кеширует торгуемые через API.
func (s *SymbolsCache) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.host+"/future/market/v1/public/symbol/list", nil)
	if err != nil {
		return errors.Wrap(err, "symbol list request")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "symbol list do")
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("symbol list http %d: %s", resp.StatusCode, string(data))
	}

	var r struct {
		ReturnCode int            `json:"returnCode"`
		Result     []xtSymbolInfo `json:"result"`
	}
	if err := sonic.Unmarshal(data, &r); err != nil {
		return errors.Wrap(err, "symbol list decode")
	}
	if r.ReturnCode != 0 || r.Result == nil {
		return fmt.Errorf("xt symbol list: returnCode=%d", r.ReturnCode)
	}

	open := lo.Filter(r.Result, func(sym xtSymbolInfo, _ int) bool {
		return sym.IsOpenAPI
	})

	s.mu.Lock()
	for _, sym := range open {
		ct, err := decimal.NewFromString(sym.ContractSize)
		if err != nil || ct.Sign() <= 0 {
			s.log.Warn("некорректный contractSize",
				zap.String("symbol", sym.Symbol),
				zap.String("contractSize", sym.ContractSize),
			)
			continue
		}
		s.contractSize[strings.ToLower(sym.Symbol)] = ct
	}
	cached := len(s.contractSize)
	s.mu.Unlock()

	s.log.Info("кеш активов загружен",
		zap.Int("cached", cached),
		zap.Int("total", len(r.Result)),
	)
	return nil
}

func (s *SymbolsCache) IsTradeable(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.contractSize[symbol]
	return ok
}

func (s *SymbolsCache) ContractSize(symbol string) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ct, ok := s.contractSize[symbol]
	return ct, ok
}

// normalizeXTSymbol: BTC/USDT -> btc_usdt.
func normalizeXTSymbol(asset string) string {
	s := strings.NewReplacer("/", "_", "-", "_").Replace(asset)
	s = strings.ToLower(s)
	if !strings.Contains(s, "_") && strings.HasSuffix(s, "usdt") {
		s = strings.TrimSuffix(s, "usdt") + "_usdt"
	}
	return s
}
