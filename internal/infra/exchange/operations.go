package exchange

import "net/http"

type apiFamily int

const (
	spotV1 apiFamily = iota
	perpetualV1
)

type endpoint struct {
	family   apiFamily
	method   string
	path     string
	auth     bool
	defaults map[string]any // merged under caller arguments
}

func v1(method, path string, auth bool) endpoint {
	return endpoint{family: spotV1, method: method, path: path, auth: auth}
}

func perp(method, path string, auth bool) endpoint {
	return endpoint{family: perpetualV1, method: method, path: path, auth: auth}
}

func (e endpoint) with(defaults map[string]any) endpoint {
	e.defaults = defaults
	return e
}

const (
	get  = http.MethodGet
	post = http.MethodPost
	del  = http.MethodDelete
)

var page = map[string]any{"page": 1, "limit": 100}

// operations maps operation names to exchange endpoints.
var operations = map[string]endpoint{
	// market
	"market_list":       v1(get, "market/list", false),
	"market_ticker":     v1(get, "market/ticker", false),
	"market_ticker_all": v1(get, "market/ticker/all", false),
	"market_depth":      v1(get, "market/depth", false).with(map[string]any{"merge": "0.00000001"}),
	"market_deals":      v1(get, "market/deals", false),
	"market_kline":      v1(get, "market/kline", false).with(map[string]any{"type": "1hour"}),
	"market_info":       v1(get, "market/info", false),
	"market_detail":     v1(get, "market/detail", false),
	"amm_market":        v1(get, "amm/market", false),

	// orders
	"order_limit":                v1(post, "order/limit", true),
	"order_stop_limit":           v1(post, "order/stop/limit", true),
	"order_limit_batch":          v1(post, "order/limit/batch", true),
	"order_market":               v1(post, "order/market", true),
	"order_ioc":                  v1(post, "order/ioc", true),
	"order_pending":              v1(get, "order/pending", true).with(page),
	"order_finished":             v1(get, "order/finished", true).with(page),
	"order_status":               v1(get, "order/status", true),
	"order_status_batch":         v1(get, "order/status/batch", true),
	"order_deals":                v1(get, "order/deals", true).with(page),
	"order_user_deals":           v1(get, "order/user/deals", true).with(page),
	"order_pending_cancel":       v1(del, "order/pending", true),
	"order_pending_cancel_batch": v1(del, "order/pending/batch", true),
	"order_pending_cancel_all":   v1(del, "order/pending", true),
	"order_mining_difficulty":    v1(get, "order/mining/difficulty", true),

	// account
	"credit_account_info":          v1(get, "credit/info", true),
	"balance_info":                 v1(get, "balance/info", true),
	"balance_coin_withdraw_list":   v1(get, "balance/coin/withdraw", true),
	"balance_coin_withdraw":        v1(post, "balance/coin/withdraw", true),
	"balance_coin_withdraw_cancel": v1(del, "balance/coin/withdraw", true),
	"balance_coin_deposit_list":    v1(get, "balance/coin/deposit", true),
	"balance_deposit_address":      v1(get, "balance/deposit/address/{coin_type}", true),
	"balance_deposit_address_new":  v1(post, "balance/deposit/address/{coin_type}", true),
	"sub_account_transfer":         v1(post, "sub_account/transfer", true),
	"sub_account_balance":          v1(get, "sub_account/balance", true),

	// margin
	"margin_transfer":     v1(post, "margin/transfer", true),
	"margin_account":      v1(get, "margin/account", true),
	"margin_config":       v1(get, "margin/config", true),
	"margin_loan_history": v1(get, "margin/loan/history", true),
	"margin_loan":         v1(post, "margin/loan", true),
	"margin_flat":         v1(post, "margin/flat", true),

	// common and contract
	"currency_rate":             v1(get, "common/currency/rate", false),
	"asset_config":              v1(get, "common/asset/config", false),
	"contract_balance_transfer": v1(post, "contract/balance/transfer", true),

	// perpetual
	"ping":                      perp(get, "ping", false),
	"time":                      perp(get, "time", false),
	"p_market_list":             perp(get, "market/list", false),
	"market_limit_config":       perp(get, "market/limit_config", false),
	"p_market_ticker":           perp(get, "market/ticker", false),
	"p_market_depth":            perp(get, "market/depth", false),
	"p_market_deals":            perp(get, "market/deals", false),
	"market_funding_history":    perp(get, "market/funding_history", false),
	"market_user_deals":         perp(get, "market/user_deals", false),
	"p_market_kline":            perp(get, "market/kline", false),
	"adjust_leverage":           perp(post, "market/adjust_leverage", true),
	"get_position_amount":       perp(post, "market/position_expect", true),
	"asset_query":               perp(get, "asset/query", true),
	"put_limit_order":           perp(post, "order/put_limit", true),
	"put_market_order":          perp(post, "order/put_market", true),
	"put_stop_limit_order":      perp(post, "order/put_stop_limit", true),
	"put_stop_market_order":     perp(post, "order/put_stop_market", true),
	"put_limit_close_order":     perp(post, "order/close_limit", true),
	"put_market_close_order":    perp(post, "order/close_market", true),
	"cancel_pending_order":      perp(post, "order/cancel", true),
	"cancel_pending_order_all":  perp(post, "order/cancel_all", true),
	"cancel_pending_stop_order": perp(post, "order/cancel_stop", true),
	"query_pending_order":       perp(get, "order/pending", true),
	"query_finished_order":      perp(get, "order/finished", true),
}

// Known reports whether operation is in the registry.
func Known(operation string) bool {
	_, ok := operations[operation]
	return ok
}
