package priority

import (
	"corequeue/internal/ports"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

var _ ports.Classifier = (*Classifier)(nil)

// DefaultClasses ranks exchange operations: order placement and cancellation
// first, account reads next, live market data after that, reference data last.
var DefaultClasses = map[string]int{
	"order_limit":                1,
	"order_stop_limit":           1,
	"order_limit_batch":          1,
	"order_market":               1,
	"order_ioc":                  1,
	"order_pending_cancel":       1,
	"order_pending_cancel_batch": 1,
	"order_pending_cancel_all":   1,
	"put_limit_order":            1,
	"put_market_order":           1,
	"put_stop_limit_order":       1,
	"put_stop_market_order":      1,
	"put_limit_close_order":      1,
	"put_market_close_order":     1,
	"cancel_pending_order":       1,
	"cancel_pending_order_all":   1,
	"cancel_pending_stop_order":  1,

	"order_pending":              2,
	"order_finished":             2,
	"order_status":               2,
	"order_status_batch":         2,
	"order_deals":                2,
	"order_user_deals":           2,
	"balance_info":               2,
	"balance_coin_withdraw":      2,
	"balance_coin_withdraw_list": 2,
	"balance_coin_deposit_list":  2,
	"balance_deposit_address":    2,
	"margin_account":             2,
	"margin_transfer":            2,
	"margin_loan":                2,
	"margin_flat":                2,
	"contract_balance_transfer":  2,
	"credit_account_info":        2,
	"sub_account_balance":        2,
	"asset_query":                2,
	"adjust_leverage":            2,
	"query_pending_order":        2,
	"query_finished_order":       2,

	"market_ticker":   3,
	"market_depth":    3,
	"market_deals":    3,
	"p_market_ticker": 3,
	"p_market_depth":  3,
	"p_market_deals":  3,

	"market_list":         4,
	"market_ticker_all":   4,
	"market_info":         4,
	"market_detail":       4,
	"market_kline":        4,
	"p_market_list":       4,
	"p_market_kline":      4,
	"market_limit_config": 4,
	"currency_rate":       4,
	"asset_config":        4,
	"ping":                4,
	"time":                4,
}

// Classifier maps an operation to its priority class. Unknown operations
// get the default class.
type Classifier struct {
	classes map[string]int
	def     int
}

func NewClassifier(classes map[string]int, def int) *Classifier {
	c := &Classifier{classes: make(map[string]int, len(classes)), def: def}
	for op, class := range classes {
		c.classes[op] = class
	}
	return c
}

func (c *Classifier) Classify(operation string) int {
	if class, ok := c.classes[operation]; ok {
		return class
	}
	log.Debug().Str("component", "classifier").Str("operation", operation).
		Int("class", c.def).Msg("unclassified operation, using default class")
	return c.def
}

func (c *Classifier) Default() int { return c.def }

type classFile struct {
	Default    *int           `yaml:"default"`
	Operations map[string]int `yaml:"operations"`
}

// LoadClassifier builds a classifier from DefaultClasses overlaid with the
// YAML file at path. An empty path skips the file.
func LoadClassifier(path string, def int) (*Classifier, error) {
	c := NewClassifier(DefaultClasses, def)
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read priorities file: %w", err)
	}
	var f classFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse priorities file %s: %w", path, err)
	}
	if f.Default != nil {
		c.def = *f.Default
	}
	for op, class := range f.Operations {
		if class < 0 {
			return nil, fmt.Errorf("priorities file %s: negative class %d for %q", path, class, op)
		}
		c.classes[op] = class
	}
	return c, nil
}
