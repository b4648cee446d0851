package broker

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog"

	"noren-desk/internal/config"
	apperrors "noren-desk/internal/errors"
	"noren-desk/internal/logging"
	"noren-desk/internal/models"
	"noren-desk/internal/session"
)

// Wire format for timestamps on the historical endpoint.
const wireTimeFormat = "020120061504" // DDMMYYYYHHmm

// NorenClient implements Broker against a Noren-style REST gateway.
// The session is passed in explicitly; the client never reads ambient
// global state.
type NorenClient struct {
	baseURL     string
	httpClient  *http.Client
	credentials config.Credentials
	sess        *session.Session
	logger      zerolog.Logger
}

// NewNorenClient creates a gateway client. sess may be nil for a client
// that has not logged in yet.
func NewNorenClient(cfg config.BrokerConfig, creds config.Credentials, sess *session.Session, logger zerolog.Logger) *NorenClient {
	return &NorenClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		credentials: creds,
		sess:        sess,
		logger:      logger,
	}
}

// Session returns the active session, or nil.
func (c *NorenClient) Session() *session.Session {
	return c.sess
}

// envelope is the common response wrapper. The gateway signals failure
// with status "ERROR" and an accompanying message.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (e envelope) failed() bool {
	return strings.EqualFold(e.Status, "ERROR")
}

// post sends a JSON body and decodes the response into out. Numeric
// fields travel as strings in both directions, per the gateway contract.
func (c *NorenClient) post(ctx context.Context, endpoint string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.Wrap(err, "encoding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return apperrors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.sess != nil {
		req.Header.Set("Authorization", c.sess.APISessionKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	logging.LogAPICall(c.logger, http.MethodPost, endpoint, time.Since(start), err)
	if err != nil {
		return apperrors.NewUpstreamError(endpoint, 0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewUpstreamError(endpoint, resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewUpstreamError(endpoint, resp.StatusCode, nil)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.failed() {
		return apperrors.NewBrokerError(endpoint, env.Message)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return apperrors.Wrap(err, "decoding response")
		}
	}

	return nil
}

func (c *NorenClient) requireSession() error {
	if c.sess == nil || !c.sess.Valid() {
		return apperrors.ErrNotAuthenticated
	}
	return nil
}

// hash returns the hex SHA-256 of s, the gateway's password encoding.
func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Login authenticates with password plus a TOTP second factor generated
// from the configured secret.
func (c *NorenClient) Login(ctx context.Context) (*session.Session, error) {
	if c.credentials.UID == "" || c.credentials.Password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	factor2 := ""
	if c.credentials.TOTPSecret != "" {
		code, err := totp.GenerateCode(c.credentials.TOTPSecret, time.Now())
		if err != nil {
			return nil, apperrors.Wrap(err, "generating TOTP")
		}
		factor2 = code
	}

	body := map[string]string{
		"uid":        c.credentials.UID,
		"pwd":        hash(c.credentials.Password),
		"factor2":    factor2,
		"appkey":     hash(c.credentials.UID + "|" + c.credentials.APIKey),
		"vc":         c.credentials.VendorCode,
		"imei":       c.credentials.IMEI,
		"apkversion": "1.0.0",
		"source":     "API",
	}

	var loginResp struct {
		SessionKey   string `json:"susertoken"`
		WSSessionKey string `json:"wstoken"`
		AccountID    string `json:"actid"`
	}

	if err := c.post(ctx, "/login", body, &loginResp); err != nil {
		return nil, err
	}

	if loginResp.SessionKey == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	c.sess = &session.Session{
		UID:           c.credentials.UID,
		AccountID:     loginResp.AccountID,
		APISessionKey: loginResp.SessionKey,
		WSSessionKey:  loginResp.WSSessionKey,
		CreatedAt:     time.Now(),
	}

	c.logger.Info().Str("uid", c.credentials.UID).Msg("Logged in")
	return c.sess, nil
}

// Logout invalidates the session on the gateway and locally.
func (c *NorenClient) Logout(ctx context.Context) error {
	if err := c.requireSession(); err != nil {
		return err
	}

	body := map[string]string{"uid": c.sess.UID}
	if err := c.post(ctx, "/logout", body, nil); err != nil {
		return err
	}

	c.sess = nil
	return nil
}

// holdingRow mirrors the gateway's holdings payload. The trading symbol
// may arrive nested as a list of per-exchange entries.
type holdingRow struct {
	DPQty       string `json:"dp_qty"`
	T1Qty       string `json:"t1_qty"`
	AvgBuyPrice string `json:"avg_buy_price"`
	Product     string `json:"prd"`
	LTP         string `json:"upldprc"`
	Symbol      string `json:"tradingsymbol"`
	ExchSymbols []struct {
		Exchange string `json:"exch"`
		Symbol   string `json:"tsym"`
	} `json:"exch_tsym"`
}

// Holdings fetches delivery holdings.
func (c *NorenClient) Holdings(ctx context.Context) ([]models.Holding, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	body := map[string]string{"uid": c.sess.UID, "actid": c.sess.AccountID}
	var rows []holdingRow
	if err := c.post(ctx, "/holdings", body, &rows); err != nil {
		return nil, err
	}

	result := make([]models.Holding, 0, len(rows))
	for _, r := range rows {
		symbol := r.Symbol
		segment := models.NSE
		if symbol == "" && len(r.ExchSymbols) > 0 {
			// Prefer the NSE listing when the holding is multi-listed.
			symbol = r.ExchSymbols[0].Symbol
			if seg, ok := models.ParseSegment(r.ExchSymbols[0].Exchange); ok {
				segment = seg
			}
			for _, es := range r.ExchSymbols {
				if strings.EqualFold(es.Exchange, string(models.NSE)) {
					symbol = es.Symbol
					segment = models.NSE
					break
				}
			}
		}

		result = append(result, models.Holding{
			Symbol:      symbol,
			Segment:     segment,
			DPQty:       atoiOrZero(r.DPQty),
			T1Qty:       atoiOrZero(r.T1Qty),
			AvgBuyPrice: parseFloatOrZero(r.AvgBuyPrice),
			LTP:         parseFloatOrZero(r.LTP),
			Product:     r.Product,
		})
	}

	return result, nil
}

// Positions fetches net positions.
func (c *NorenClient) Positions(ctx context.Context) ([]models.Position, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	body := map[string]string{"uid": c.sess.UID, "actid": c.sess.AccountID}
	var rows []struct {
		Symbol   string `json:"tsym"`
		Exchange string `json:"exch"`
		Product  string `json:"prd"`
		NetQty   string `json:"netqty"`
		AvgPrice string `json:"netavgprc"`
		LTP      string `json:"lp"`
		PnL      string `json:"rpnl"`
	}
	if err := c.post(ctx, "/positions", body, &rows); err != nil {
		return nil, err
	}

	result := make([]models.Position, 0, len(rows))
	for _, r := range rows {
		segment, _ := models.ParseSegment(r.Exchange)
		result = append(result, models.Position{
			Symbol:   r.Symbol,
			Segment:  segment,
			Product:  r.Product,
			NetQty:   atoiOrZero(r.NetQty),
			AvgPrice: parseFloatOrZero(r.AvgPrice),
			LTP:      parseFloatOrZero(r.LTP),
			PnL:      parseFloatOrZero(r.PnL),
		})
	}

	return result, nil
}

// OrderBook fetches the day's orders with normalized statuses.
func (c *NorenClient) OrderBook(ctx context.Context) ([]models.WorkingOrder, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	body := map[string]string{"uid": c.sess.UID}
	var rows []struct {
		OrderID   string `json:"norenordno"`
		Symbol    string `json:"tsym"`
		Exchange  string `json:"exch"`
		Side      string `json:"trantype"`
		PriceType string `json:"prctyp"`
		Product   string `json:"prd"`
		Quantity  string `json:"qty"`
		Price     string `json:"prc"`
		Trigger   string `json:"trgprc"`
		Status    string `json:"status"`
		Time      string `json:"norentm"`
	}
	if err := c.post(ctx, "/orderbook", body, &rows); err != nil {
		return nil, err
	}

	result := make([]models.WorkingOrder, 0, len(rows))
	for _, r := range rows {
		segment, _ := models.ParseSegment(r.Exchange)
		placedAt, _ := time.Parse("15:04:05 02-01-2006", r.Time)
		result = append(result, models.WorkingOrder{
			OrderID:   r.OrderID,
			Symbol:    r.Symbol,
			Segment:   segment,
			Side:      wireSide(r.Side),
			PriceType: wirePriceTypeToModel(r.PriceType),
			Product:   models.ProductType(r.Product),
			Quantity:  atoiOrZero(r.Quantity),
			Price:     parseFloatOrZero(r.Price),
			Trigger:   parseFloatOrZero(r.Trigger),
			Status:    models.NormalizeOrderStatus(r.Status),
			PlacedAt:  placedAt,
		})
	}

	return result, nil
}

// TradeBook fetches executed trades.
func (c *NorenClient) TradeBook(ctx context.Context) ([]models.Trade, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	body := map[string]string{"uid": c.sess.UID, "actid": c.sess.AccountID}
	var rows []struct {
		OrderID  string `json:"norenordno"`
		Symbol   string `json:"tsym"`
		Exchange string `json:"exch"`
		Side     string `json:"trantype"`
		Quantity string `json:"flqty"`
		Price    string `json:"flprc"`
		Product  string `json:"prd"`
		Time     string `json:"fltm"`
	}
	if err := c.post(ctx, "/tradebook", body, &rows); err != nil {
		return nil, err
	}

	result := make([]models.Trade, 0, len(rows))
	for _, r := range rows {
		segment, _ := models.ParseSegment(r.Exchange)
		tradedAt, _ := time.Parse("15:04:05 02-01-2006", r.Time)
		result = append(result, models.Trade{
			OrderID:  r.OrderID,
			Symbol:   r.Symbol,
			Segment:  segment,
			Side:     wireSide(r.Side),
			Quantity: atoiOrZero(r.Quantity),
			Price:    parseFloatOrZero(r.Price),
			Product:  r.Product,
			TradedAt: tradedAt,
		})
	}

	return result, nil
}

// Limits fetches cash and margin limits.
func (c *NorenClient) Limits(ctx context.Context) (*models.Limits, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	body := map[string]string{"uid": c.sess.UID, "actid": c.sess.AccountID}
	var row struct {
		Cash       string `json:"cash"`
		Payin      string `json:"payin"`
		MarginUsed string `json:"marginused"`
		Collateral string `json:"collateral"`
	}
	if err := c.post(ctx, "/limits", body, &row); err != nil {
		return nil, err
	}

	return &models.Limits{
		Cash:       parseFloatOrZero(row.Cash),
		Payin:      parseFloatOrZero(row.Payin),
		MarginUsed: parseFloatOrZero(row.MarginUsed),
		Collateral: parseFloatOrZero(row.Collateral),
	}, nil
}

// Quote fetches a quote for a token.
func (c *NorenClient) Quote(ctx context.Context, segment models.Segment, token string) (*models.Quote, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	body := map[string]string{"uid": c.sess.UID, "exch": string(segment), "token": token}
	var row struct {
		Symbol string `json:"tsym"`
		LTP    string `json:"lp"`
		Open   string `json:"o"`
		High   string `json:"h"`
		Low    string `json:"l"`
		Close  string `json:"c"`
		Volume string `json:"v"`
	}
	if err := c.post(ctx, "/quote", body, &row); err != nil {
		return nil, err
	}

	q := &models.Quote{
		Symbol:    row.Symbol,
		Segment:   segment,
		LTP:       parseFloatOrZero(row.LTP),
		Open:      parseFloatOrZero(row.Open),
		High:      parseFloatOrZero(row.High),
		Low:       parseFloatOrZero(row.Low),
		Close:     parseFloatOrZero(row.Close),
		Volume:    int64(atoiOrZero(row.Volume)),
		Timestamp: time.Now(),
	}
	if q.Close > 0 {
		q.ChangePercent = (q.LTP - q.Close) / q.Close * 100
	}
	return q, nil
}

// Historical fetches raw OHLCV rows from the CSV feed. The endpoint
// takes path parameters and returns headerless CSV
// [Dateandtime, Open, High, Low, Close, Volume, OpenInterest].
func (c *NorenClient) Historical(ctx context.Context, segment models.Segment, token, timeframe string, from, to time.Time) ([]RawBar, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("/history/%s/%s/%s/%s/%s",
		segment, token, timeframe,
		from.Format(wireTimeFormat), to.Format(wireTimeFormat))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "building request")
	}
	req.Header.Set("Authorization", c.sess.APISessionKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	logging.LogAPICall(c.logger, http.MethodGet, endpoint, time.Since(start), err)
	if err != nil {
		return nil, apperrors.NewUpstreamError(endpoint, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewUpstreamError(endpoint, resp.StatusCode, nil)
	}

	return parseHistoricalCSV(resp.Body)
}

func parseHistoricalCSV(r io.Reader) ([]RawBar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var bars []RawBar
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(err, "reading historical CSV")
		}
		if len(record) < 6 {
			continue
		}
		bar := RawBar{
			Timestamp: strings.TrimSpace(record[0]),
			Open:      strings.TrimSpace(record[1]),
			High:      strings.TrimSpace(record[2]),
			Low:       strings.TrimSpace(record[3]),
			Close:     strings.TrimSpace(record[4]),
			Volume:    strings.TrimSpace(record[5]),
		}
		if len(record) > 6 {
			bar.OpenInterest = strings.TrimSpace(record[6])
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

func atoiOrZero(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		f, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return v
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func wireSide(s string) models.OrderSide {
	if strings.EqualFold(s, "S") || strings.EqualFold(s, "SELL") {
		return models.OrderSideSell
	}
	return models.OrderSideBuy
}

// Ensure NorenClient implements Broker.
var _ Broker = (*NorenClient)(nil)
