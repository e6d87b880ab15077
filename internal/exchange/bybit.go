package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"signal_bot/internal/models"
)

const (
	bybitHost       = "https://api.bybit.com"
	bybitRecvWindow = "5000"

	// retCode'ы идемпотентных no-op ответов
	bybitLeverageNotModified = 110043
	bybitModeNotModified     = 110025
)

// Bybit — клиент USDT-перпетуалов Bybit v5. Объём выражается
// в дробном количестве монет, шаг — minOrderQty инструмента.
type Bybit struct {
	log       *zap.Logger
	http      *http.Client
	host      string
	apiKey    string
	apiSecret string

	mu        sync.Mutex
	hedgeMode bool // hedge mode включается лениво перед первым ордером
}

func NewBybit(creds Creds, log *zap.Logger) *Bybit {
	return &Bybit{
		log:       log,
		http:      newHTTPClient(),
		host:      bybitHost,
		apiKey:    creds.APIKey,
		apiSecret: creds.APISecret,
	}
}

// ResolveInstrument: BTC/USDT -> BTCUSDT + minOrderQty из lotSizeFilter.
// Символ, которого нет в category=linear или который не в статусе
// Trading, считается неторгуемым.
func (c *Bybit) ResolveInstrument(ctx context.Context, asset string) (models.Instrument, error) {
	symbol := strings.ReplaceAll(asset, "/", "")

	q := url.Values{}
	q.Set("category", "linear")
	q.Set("symbol", symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.host+"/v5/market/instruments-info?"+q.Encode(), nil)
	if err != nil {
		return models.Instrument{}, errors.Wrap(err, "instruments-info request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return models.Instrument{}, errors.Wrap(err, "instruments-info do")
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return models.Instrument{}, fmt.Errorf("instruments-info http %d: %s", resp.StatusCode, string(data))
	}

	var r struct {
		RetCode int    `json:"retCode"`
		RetMsg  string `json:"retMsg"`
		Result  struct {
			List []struct {
				Symbol        string `json:"symbol"`
				Status        string `json:"status"`
				LotSizeFilter struct {
					MinOrderQty string `json:"minOrderQty"`
				} `json:"lotSizeFilter"`
			} `json:"list"`
		} `json:"result"`
	}
	if err := sonic.Unmarshal(data, &r); err != nil {
		return models.Instrument{}, errors.Wrap(err, "instruments-info decode")
	}
	if r.RetCode != 0 {
		return models.Instrument{}, fmt.Errorf("bybit instruments-info: code=%d msg=%s", r.RetCode, r.RetMsg)
	}
	if len(r.Result.List) == 0 {
		return models.Instrument{}, errors.Wrapf(ErrNotTradeable, "%s не найден на Bybit", symbol)
	}

	inst := r.Result.List[0]
	if inst.Status != "Trading" {
		return models.Instrument{}, errors.Wrapf(ErrNotTradeable, "%s в статусе %s", symbol, inst.Status)
	}

	step, err := decimal.NewFromString(inst.LotSizeFilter.MinOrderQty)
	if err != nil || step.Sign() <= 0 {
		return models.Instrument{}, fmt.Errorf("некорректный minOrderQty для %s: %q", symbol, inst.LotSizeFilter.MinOrderQty)
	}

	return models.Instrument{Symbol: inst.Symbol, Step: step}, nil
}

// EnsureLeverage выставляет одинаковое плечо на обе стороны.
// Перед первым вызовом лениво включает hedge mode для USDT-перпетуалов.
func (c *Bybit) EnsureLeverage(ctx context.Context, symbol string, leverage int) error {
	if err := c.enableHedgeMode(ctx); err != nil {
		return err
	}

	code, msg, err := c.signedPost(ctx, "/v5/position/set-leverage", map[string]string{
		"category":     "linear",
		"symbol":       symbol,
		"buyLeverage":  strconv.Itoa(leverage),
		"sellLeverage": strconv.Itoa(leverage),
	}, nil)
	if err != nil {
		return err
	}

	switch code {
	case 0:
		c.log.Info("плечо установлено", zap.String("symbol", symbol), zap.Int("leverage", leverage))
	case bybitLeverageNotModified:
		// плечо уже такое — успех
		c.log.Info("плечо уже установлено", zap.String("symbol", symbol), zap.Int("leverage", leverage))
	default:
		return fmt.Errorf("bybit set-leverage: code=%d msg=%s", code, msg)
	}
	return nil
}

func (c *Bybit) enableHedgeMode(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hedgeMode {
		return nil
	}

	code, msg, err := c.signedPost(ctx, "/v5/position/switch-mode", map[string]string{
		"category": "linear",
		"coin":     "USDT",
		"mode":     "3",
	}, nil)
	if err != nil {
		return err
	}
	if code != 0 && code != bybitModeNotModified {
		return fmt.Errorf("bybit switch-mode: code=%d msg=%s", code, msg)
	}

	c.hedgeMode = true
	c.log.Info("hedge mode включен")
	return nil
}

func (c *Bybit) PlaceMarketWithStopLoss(ctx context.Context, symbol string, side models.Side,
	qty decimal.Decimal, stopLoss decimal.Decimal, posSide models.Direction) (string, error) {

	var result struct {
		OrderID string `json:"orderId"`
	}
	code, msg, err := c.signedPost(ctx, "/v5/order/create", map[string]string{
		"category":    "linear",
		"symbol":      symbol,
		"side":        bybitSide(side),
		"orderType":   "Market",
		"qty":         qty.String(),
		"stopLoss":    stopLoss.String(),
		"slTriggerBy": "MarkPrice",
		"tpslMode":    "Full",
		"slOrderType": "Market",
		"positionIdx": bybitPositionIdx(posSide),
	}, &result)
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", fmt.Errorf("bybit order create: code=%d msg=%s", code, msg)
	}

	c.log.Info("позиция открыта",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.String("qty", qty.String()),
		zap.String("sl", stopLoss.String()),
		zap.String("orderId", result.OrderID),
	)
	return result.OrderID, nil
}

func (c *Bybit) PlaceReduceOnlyLimits(ctx context.Context, symbol string, side models.Side,
	levels []models.OrderLevel, posSide models.Direction) ([]string, error) {

	orderIDs := make([]string, 0, len(levels))
	for i, lvl := range levels {
		var result struct {
			OrderID string `json:"orderId"`
		}
		code, msg, err := c.signedPost(ctx, "/v5/order/create", map[string]string{
			"category":    "linear",
			"symbol":      symbol,
			"side":        bybitSide(side),
			"orderType":   "Limit",
			"price":       lvl.Price.String(),
			"qty":         lvl.Qty.String(),
			"timeInForce": "GTC",
			"reduceOnly":  "true",
			"positionIdx": bybitPositionIdx(posSide),
		}, &result)
		if err != nil || code != 0 {
			// частичный успех допустим: пропускаем и ставим остальные
			c.log.Error("TP-ордер не выставлен",
				zap.Int("index", i+1),
				zap.String("symbol", symbol),
				zap.String("price", lvl.Price.String()),
				zap.Int("code", code),
				zap.String("msg", msg),
				zap.Error(err),
			)
			continue
		}
		orderIDs = append(orderIDs, result.OrderID)
		c.log.Info("TP-ордер выставлен",
			zap.Int("index", i+1),
			zap.Int("total", len(levels)),
			zap.String("price", lvl.Price.String()),
			zap.String("qty", lvl.Qty.String()),
			zap.String("orderId", result.OrderID),
		)
	}
	return orderIDs, nil
}

// signedPost подписывает и шлёт приватный POST; декодирует конверт v5
// и, если передан result, — поле result.
func (c *Bybit) signedPost(ctx context.Context, requestPath string, body map[string]string, result any) (int, string, error) {
	payload, err := sonic.Marshal(body)
	if err != nil {
		return 0, "", errors.Wrap(err, "marshal body")
	}

	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(ts + c.apiKey + bybitRecvWindow + string(payload)))
	sign := hex.EncodeToString(h.Sum(nil))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+requestPath, bytes.NewReader(payload))
	if err != nil {
		return 0, "", errors.Wrap(err, "new request")
	}
	req.Header.Set("X-BAPI-API-KEY", c.apiKey)
	req.Header.Set("X-BAPI-TIMESTAMP", ts)
	req.Header.Set("X-BAPI-RECV-WINDOW", bybitRecvWindow)
	req.Header.Set("X-BAPI-SIGN", sign)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", errors.Wrapf(err, "do %s", requestPath)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return 0, "", fmt.Errorf("http %d %s: %s", resp.StatusCode, requestPath, string(data))
	}

	var envelope struct {
		RetCode int             `json:"retCode"`
		RetMsg  string          `json:"retMsg"`
		Result  json.RawMessage `json:"result"`
	}
	if err := sonic.Unmarshal(data, &envelope); err != nil {
		return 0, "", errors.Wrapf(err, "decode %s", requestPath)
	}
	if envelope.RetCode == 0 && result != nil {
		if err := sonic.Unmarshal(envelope.Result, result); err != nil {
			return 0, "", errors.Wrapf(err, "decode result %s", requestPath)
		}
	}
	return envelope.RetCode, envelope.RetMsg, nil
}

func bybitSide(side models.Side) string {
	if side == models.SideSell {
		return "Sell"
	}
	return "Buy"
}

// bybitPositionIdx: hedge mode, 1 — long, 2 — short.
func bybitPositionIdx(posSide models.Direction) string {
	if posSide == models.DirectionShort {
		return "2"
	}
	return "1"
}
