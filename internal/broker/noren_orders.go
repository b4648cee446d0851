package broker

import (
	"context"
	"strconv"

	apperrors "noren-desk/internal/errors"
	"noren-desk/internal/logging"
	"noren-desk/internal/models"
)

// Wire encodings for price types and sides. Quantities and prices are
// sent as strings.
func wirePriceType(pt models.PriceType) string {
	switch pt {
	case models.PriceTypeMarket:
		return "MKT"
	case models.PriceTypeLimit:
		return "LMT"
	case models.PriceTypeSLLimit:
		return "SL-LMT"
	case models.PriceTypeSLMarket:
		return "SL-MKT"
	}
	return "LMT"
}

func wirePriceTypeToModel(s string) models.PriceType {
	switch s {
	case "MKT":
		return models.PriceTypeMarket
	case "LMT":
		return models.PriceTypeLimit
	case "SL-LMT":
		return models.PriceTypeSLLimit
	case "SL-MKT":
		return models.PriceTypeSLMarket
	}
	return models.PriceTypeLimit
}

func wireTranType(side models.OrderSide) string {
	if side == models.OrderSideSell {
		return "S"
	}
	return "B"
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}

func (c *NorenClient) orderBody(intent *models.OrderIntent) map[string]string {
	body := map[string]string{
		"uid":      c.sess.UID,
		"actid":    c.sess.AccountID,
		"exch":     string(intent.Segment),
		"tsym":     intent.Symbol,
		"qty":      strconv.Itoa(intent.Quantity),
		"prc":      formatPrice(intent.Price),
		"prd":      string(intent.Product),
		"trantype": wireTranType(intent.Side),
		"prctyp":   wirePriceType(intent.PriceType),
		"ret":      "DAY",
		"remarks":  intent.Remarks,
	}
	if intent.TriggerPrice > 0 {
		body["trgprc"] = formatPrice(intent.TriggerPrice)
	}
	if intent.AMO {
		body["amo"] = "Yes"
	}
	return body
}

// PlaceOrder submits a fresh order intent.
func (c *NorenClient) PlaceOrder(ctx context.Context, intent *models.OrderIntent) (*OrderResult, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	if intent.Quantity <= 0 {
		return nil, apperrors.NewValidationError("quantity", intent.Quantity, "must be positive")
	}

	var resp struct {
		OrderID string `json:"norenordno"`
	}
	if err := c.post(ctx, "/placeorder", c.orderBody(intent), &resp); err != nil {
		return nil, err
	}

	logging.LogOrder(c.logger, resp.OrderID, intent.Symbol, string(intent.Side), "PLACED")
	return &OrderResult{OrderID: resp.OrderID, Status: "PLACED"}, nil
}

// ModifyOrder modifies a working order in place.
func (c *NorenClient) ModifyOrder(ctx context.Context, orderID string, intent *models.OrderIntent) error {
	if err := c.requireSession(); err != nil {
		return err
	}

	body := c.orderBody(intent)
	body["norenordno"] = orderID
	return c.post(ctx, "/modifyorder", body, nil)
}

// CancelOrder cancels a working order.
func (c *NorenClient) CancelOrder(ctx context.Context, orderID string) error {
	if err := c.requireSession(); err != nil {
		return err
	}

	body := map[string]string{"uid": c.sess.UID, "norenordno": orderID}
	return c.post(ctx, "/cancelorder", body, nil)
}

// SquareOff closes a position with an offsetting market order.
func (c *NorenClient) SquareOff(ctx context.Context, pos models.Position) (*OrderResult, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	if pos.NetQty == 0 {
		return nil, apperrors.NewValidationError("net_qty", pos.NetQty, "nothing to square off")
	}

	body := map[string]string{
		"uid":   c.sess.UID,
		"actid": c.sess.AccountID,
		"exch":  string(pos.Segment),
		"tsym":  pos.Symbol,
		"prd":   pos.Product,
		"qty":   strconv.Itoa(abs(pos.NetQty)),
	}

	var resp struct {
		OrderID string `json:"norenordno"`
	}
	if err := c.post(ctx, "/squareoff", body, &resp); err != nil {
		return nil, err
	}

	return &OrderResult{OrderID: resp.OrderID, Status: "PLACED"}, nil
}

func (c *NorenClient) gttBody(gtt *models.GTTOrder) map[string]string {
	return map[string]string{
		"uid":      c.sess.UID,
		"actid":    c.sess.AccountID,
		"exch":     string(gtt.Segment),
		"tsym":     gtt.Symbol,
		"ai_t":     gtt.Condition,
		"validity": "GTT",
		"d":        formatPrice(gtt.AlertPrice),
		"trantype": wireTranType(gtt.Side),
		"prctyp":   wirePriceType(gtt.PriceType),
		"prd":      string(gtt.Product),
		"qty":      strconv.Itoa(gtt.Quantity),
		"prc":      formatPrice(gtt.Price),
		"remarks":  gtt.Remarks,
	}
}

// PlaceGTT places a good-till-triggered conditional order.
func (c *NorenClient) PlaceGTT(ctx context.Context, gtt *models.GTTOrder) (*GTTResult, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	var resp struct {
		AlertID string `json:"al_id"`
	}
	if err := c.post(ctx, "/gtt/place", c.gttBody(gtt), &resp); err != nil {
		return nil, err
	}

	return &GTTResult{AlertID: resp.AlertID, Status: "ACTIVE"}, nil
}

// ModifyGTT modifies an existing conditional order.
func (c *NorenClient) ModifyGTT(ctx context.Context, alertID string, gtt *models.GTTOrder) error {
	if err := c.requireSession(); err != nil {
		return err
	}

	body := c.gttBody(gtt)
	body["al_id"] = alertID
	return c.post(ctx, "/gtt/modify", body, nil)
}

// CancelGTT cancels a conditional order.
func (c *NorenClient) CancelGTT(ctx context.Context, alertID string) error {
	if err := c.requireSession(); err != nil {
		return err
	}

	body := map[string]string{"uid": c.sess.UID, "al_id": alertID}
	return c.post(ctx, "/gtt/cancel", body, nil)
}

// ListGTT fetches pending conditional orders.
func (c *NorenClient) ListGTT(ctx context.Context) ([]models.GTTOrder, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	body := map[string]string{"uid": c.sess.UID}
	var rows []struct {
		AlertID    string `json:"al_id"`
		Symbol     string `json:"tsym"`
		Exchange   string `json:"exch"`
		Condition  string `json:"ai_t"`
		AlertPrice string `json:"d"`
		Side       string `json:"trantype"`
		Quantity   string `json:"qty"`
		Price      string `json:"prc"`
		PriceType  string `json:"prctyp"`
		Product    string `json:"prd"`
		Remarks    string `json:"remarks"`
	}
	if err := c.post(ctx, "/gtt/list", body, &rows); err != nil {
		return nil, err
	}

	result := make([]models.GTTOrder, 0, len(rows))
	for _, r := range rows {
		segment, _ := models.ParseSegment(r.Exchange)
		result = append(result, models.GTTOrder{
			AlertID:    r.AlertID,
			Symbol:     r.Symbol,
			Segment:    segment,
			Side:       wireSide(r.Side),
			Condition:  r.Condition,
			AlertPrice: parseFloatOrZero(r.AlertPrice),
			Quantity:   atoiOrZero(r.Quantity),
			Price:      parseFloatOrZero(r.Price),
			PriceType:  wirePriceTypeToModel(r.PriceType),
			Product:    models.ProductType(r.Product),
			Remarks:    r.Remarks,
		})
	}

	return result, nil
}

// PlaceOCO places a one-cancels-other pair: target plus stoploss around
// an existing position.
func (c *NorenClient) PlaceOCO(ctx context.Context, oco *models.OCOOrder) (*GTTResult, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	if oco.TargetPrice <= 0 || oco.StoplossPrice <= 0 {
		return nil, apperrors.NewValidationError("prices", oco, "target and stoploss must both be positive")
	}

	body := map[string]string{
		"uid":      c.sess.UID,
		"actid":    c.sess.AccountID,
		"exch":     string(oco.Segment),
		"tsym":     oco.Symbol,
		"trantype": wireTranType(oco.Side),
		"prd":      string(oco.Product),
		"qty":      strconv.Itoa(oco.Quantity),
		"validity": "GTT",
		"ai_t":     "LMT_BOS_O", // two-leg bracket alert type
		"d":        formatPrice(oco.TargetPrice),
		"ulprc":    formatPrice(oco.StoplossPrice),
		"remarks":  oco.Remarks,
	}

	var resp struct {
		AlertID string `json:"al_id"`
	}
	if err := c.post(ctx, "/gtt/oco", body, &resp); err != nil {
		return nil, err
	}

	return &GTTResult{AlertID: resp.AlertID, Status: "ACTIVE"}, nil
}

// MarginCalc asks the gateway for the margin required by an order.
func (c *NorenClient) MarginCalc(ctx context.Context, intent *models.OrderIntent) (*MarginEstimate, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	var resp struct {
		Required  string `json:"ordermargin"`
		Available string `json:"availablemargin"`
	}
	if err := c.post(ctx, "/margin", c.orderBody(intent), &resp); err != nil {
		return nil, err
	}

	est := &MarginEstimate{
		Required:  parseFloatOrZero(resp.Required),
		Available: parseFloatOrZero(resp.Available),
	}
	if est.Required > est.Available {
		est.Shortfall = est.Required - est.Available
	}
	return est, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
