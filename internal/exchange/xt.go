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
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"signal_bot/internal/models"
)

const xtHost = "https://fapi.xt.com"

// XT — клиент перпетуалов XT. Объём ордера — целое число контрактов,
// поэтому шагом квантования служит размер контракта (coin на контракт):
// откантованный вниз объём в монетах всегда делится на него нацело.
type XT struct {
	log       *zap.Logger
	http      *http.Client
	host      string
	apiKey    string
	apiSecret string
	symbols   *SymbolsCache
}

func NewXT(creds Creds, log *zap.Logger) *XT {
	return &XT{
		log:       log,
		http:      newHTTPClient(),
		host:      xtHost,
		apiKey:    creds.APIKey,
		apiSecret: creds.APISecret,
		symbols:   NewSymbolsCache(log),
	}
}

// ResolveInstrument: BTC/USDT -> btc_usdt; торгуемость и размер контракта
// берутся из кеша активов, без похода в сеть.
func (c *XT) ResolveInstrument(_ context.Context, asset string) (models.Instrument, error) {
	symbol := normalizeXTSymbol(asset)

	ct, ok := c.symbols.ContractSize(symbol)
	if !ok {
		return models.Instrument{}, errors.Wrapf(ErrNotTradeable, "%s нет в кеше активов XT", symbol)
	}

	return models.Instrument{Symbol: symbol, Step: ct, Contracts: true}, nil
}

// EnsureLeverage выставляет плечо сразу на обе стороны позиции.
func (c *XT) EnsureLeverage(ctx context.Context, symbol string, leverage int) error {
	rc, msg, err := c.signedPost(ctx, "/future/user/v1/position/adjust-leverage", map[string]any{
		"symbol":       symbol,
		"positionSide": "BOTH",
		"leverage":     leverage,
	}, nil)
	if err != nil {
		return err
	}
	if rc != 0 {
		if strings.Contains(strings.ToLower(msg), "leverage not modified") {
			// плечо уже такое — успех
			c.log.Info("плечо уже установлено", zap.String("symbol", symbol), zap.Int("leverage", leverage))
			return nil
		}
		return fmt.Errorf("xt adjust-leverage: rc=%d msg=%s", rc, msg)
	}

	c.log.Info("плечо установлено", zap.String("symbol", symbol), zap.Int("leverage", leverage))
	return nil
}

func (c *XT) PlaceMarketWithStopLoss(ctx context.Context, symbol string, side models.Side,
	qty decimal.Decimal, stopLoss decimal.Decimal, posSide models.Direction) (string, error) {

	amount, err := c.contracts(symbol, qty)
	if err != nil {
		return "", err
	}

	var result struct {
		OrderID any `json:"orderId"`
	}
	rc, msg, err := c.signedPost(ctx, "/future/trade/v1/order/create", map[string]any{
		"symbol":           symbol,
		"origQty":          amount,
		"orderSide":        xtSide(side),
		"orderType":        "MARKET",
		"positionSide":     xtPositionSide(posSide),
		"triggerStopPrice": stopLoss.String(),
	}, &result)
	if err != nil {
		return "", err
	}
	if rc != 0 {
		return "", fmt.Errorf("xt order create: rc=%d msg=%s", rc, msg)
	}

	orderID := fmt.Sprint(result.OrderID)
	c.log.Info("позиция открыта",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Int64("contracts", amount),
		zap.String("sl", stopLoss.String()),
		zap.String("orderId", orderID),
	)
	return orderID, nil
}

func (c *XT) PlaceReduceOnlyLimits(ctx context.Context, symbol string, side models.Side,
	levels []models.OrderLevel, posSide models.Direction) ([]string, error) {

	orderIDs := make([]string, 0, len(levels))
	for i, lvl := range levels {
		amount, err := c.contracts(symbol, lvl.Qty)
		if err != nil {
			c.log.Error("TP-ордер не выставлен", zap.Int("index", i+1), zap.Error(err))
			continue
		}

		var result struct {
			OrderID any `json:"orderId"`
		}
		rc, msg, err := c.signedPost(ctx, "/future/trade/v1/order/create", map[string]any{
			"symbol":       symbol,
			"origQty":      amount,
			"orderSide":    xtSide(side),
			"orderType":    "LIMIT",
			"positionSide": xtPositionSide(posSide),
			"price":        lvl.Price.String(),
			"timeInForce":  "GTC",
		}, &result)
		if err != nil || rc != 0 {
			// частичный успех допустим
			c.log.Error("TP-ордер не выставлен",
				zap.Int("index", i+1),
				zap.String("symbol", symbol),
				zap.String("price", lvl.Price.String()),
				zap.Int("rc", rc),
				zap.String("msg", msg),
				zap.Error(err),
			)
			continue
		}

		orderID := fmt.Sprint(result.OrderID)
		orderIDs = append(orderIDs, orderID)
		c.log.Info("TP-ордер выставлен",
			zap.Int("index", i+1),
			zap.Int("total", len(levels)),
			zap.String("price", lvl.Price.String()),
			zap.Int64("contracts", amount),
			zap.String("orderId", orderID),
		)
	}
	return orderIDs, nil
}

// contracts переводит объём в монетах в целое число контрактов.
func (c *XT) contracts(symbol string, qty decimal.Decimal) (int64, error) {
	ct, ok := c.symbols.ContractSize(symbol)
	if !ok {
		return 0, errors.Wrapf(ErrNotTradeable, "%s нет в кеше активов XT", symbol)
	}
	amount := qty.DivRound(ct, 0).IntPart()
	if amount <= 0 {
		return 0, fmt.Errorf("объём %s меньше одного контракта (%s)", qty, ct)
	}
	return amount, nil
}

// signedPost подписывает и шлёт приватный POST; декодирует конверт XT.
// Код и текст ошибки в ответах XT гуляют между rc/returnCode и
// mc/msgInfo/msg — разбираем все варианты.
func (c *XT) signedPost(ctx context.Context, requestPath string, body map[string]any, result any) (int, string, error) {
	payload, err := sonic.Marshal(body)
	if err != nil {
		return 0, "", errors.Wrap(err, "marshal body")
	}

	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	headerPart := "xt-validate-appkey=" + c.apiKey + "&xt-validate-timestamp=" + ts
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(headerPart + "#" + requestPath + "#" + string(payload)))
	sign := hex.EncodeToString(h.Sum(nil))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+requestPath, bytes.NewReader(payload))
	if err != nil {
		return 0, "", errors.Wrap(err, "new request")
	}
	req.Header.Set("xt-validate-appkey", c.apiKey)
	req.Header.Set("xt-validate-timestamp", ts)
	req.Header.Set("xt-validate-signature", sign)
	req.Header.Set("xt-validate-algorithms", "HmacSHA256")
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
		RC         *int            `json:"rc"`
		ReturnCode *int            `json:"returnCode"`
		Mc         string          `json:"mc"`
		MsgInfo    string          `json:"msgInfo"`
		Msg        string          `json:"msg"`
		Result     json.RawMessage `json:"result"`
	}
	if err := sonic.Unmarshal(data, &envelope); err != nil {
		return 0, "", errors.Wrapf(err, "decode %s", requestPath)
	}

	rc := 0
	switch {
	case envelope.RC != nil:
		rc = *envelope.RC
	case envelope.ReturnCode != nil:
		rc = *envelope.ReturnCode
	}

	msg := envelope.Mc
	if msg == "" {
		msg = envelope.MsgInfo
	}
	if msg == "" {
		msg = envelope.Msg
	}

	if rc == 0 && result != nil && len(envelope.Result) > 0 {
		if err := sonic.Unmarshal(envelope.Result, result); err != nil {
			return 0, "", errors.Wrapf(err, "decode result %s", requestPath)
		}
	}
	return rc, msg, nil
}

func xtSide(side models.Side) string {
	if side == models.SideSell {
		return "SELL"
	}
	return "BUY"
}

func xtPositionSide(posSide models.Direction) string {
	if posSide == models.DirectionShort {
		return "SHORT"
	}
	return "LONG"
}
