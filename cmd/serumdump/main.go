// Command serumdump decodes account snapshots saved to disk and prints them as
// JSON.
//
//	serumdump --kind orderbook --file bids.bin --base-lot-size 100000 --quote-lot-size 10
//	serumdump --config market.yaml --kind fills --file events.bin --since 1200
//
// Settings are read from flags, SERUMDUMP_* environment variables and an
// optional YAML file, in that order of precedence.
package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	serum "github.com/0x5487/serum-book"
	"github.com/0x5487/serum-book/structure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type config struct {
	Kind     string                `mapstructure:"kind"`
	File     string                `mapstructure:"file"`
	Asks     string                `mapstructure:"asks"`
	History  int                   `mapstructure:"history"`
	Since    int64                 `mapstructure:"since"`
	Depth    int                   `mapstructure:"depth"`
	ItemSpan int                   `mapstructure:"item_span"`
	LogLevel string                `mapstructure:"log_level"`
	Market   serum.MarketConstants `mapstructure:"market"`
}

// flag name for every config key
var flagKeys = map[string]string{
	"kind":                  "kind",
	"file":                  "file",
	"asks":                  "asks",
	"history":               "history",
	"since":                 "since",
	"depth":                 "depth",
	"item_span":             "item-span",
	"log_level":             "log-level",
	"market.base_lot_size":  "base-lot-size",
	"market.quote_lot_size": "quote-lot-size",
	"market.base_decimals":  "base-decimals",
	"market.quote_decimals": "quote-decimals",
}

var errUsage = errors.New("usage")

func loadConfig(args []string) (*config, error) {
	fs := pflag.NewFlagSet("serumdump", pflag.ContinueOnError)
	fs.String("config", "", "YAML config file")
	fs.String("kind", "orderbook", "account kind: orderbook, levels, book, market, requests, events, fills, ring")
	fs.String("file", "", "account data file (the bids file for kind=book)")
	fs.String("asks", "", "asks account file for kind=book")
	fs.Int("history", 0, "only the newest n events, newest first")
	fs.Int64("since", -1, "only events pushed after this sequence number")
	fs.Int("depth", 0, "number of price levels, 0 for all")
	fs.Int("item-span", 0, "item width in bytes for kind=ring")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.Uint64("base-lot-size", 0, "market base lot size")
	fs.Uint64("quote-lot-size", 0, "market quote lot size")
	fs.Uint8("base-decimals", 0, "base mint decimals")
	fs.Uint8("quote-decimals", 0, "quote mint decimals")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SERUMDUMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, name := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.File == "" {
		return nil, fmt.Errorf("%w: --file is required", errUsage)
	}
	if cfg.Since > math.MaxUint32 {
		return nil, fmt.Errorf("%w: --since %d exceeds the 32-bit sequence range", errUsage, cfg.Since)
	}
	return &cfg, nil
}

func newLogger(level string) (*slog.Logger, error) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lv})), nil
}

func decode(cfg *config) (any, error) {
	data, err := os.ReadFile(cfg.File)
	if err != nil {
		return nil, err
	}

	switch cfg.Kind {
	case "orderbook":
		book, err := serum.DecodeOrderBook(cfg.Market, data)
		if err != nil {
			return nil, err
		}
		return book.PriorityOrders()
	case "levels":
		book, err := serum.DecodeOrderBook(cfg.Market, data)
		if err != nil {
			return nil, err
		}
		return book.Levels(cfg.Depth)
	case "book":
		asks, err := os.ReadFile(cfg.Asks)
		if err != nil {
			return nil, err
		}
		return serum.NewBookSnapshot(cfg.Market, data, asks)
	case "market":
		return serum.DecodeMarketState(data)
	case "requests":
		return serum.DecodeRequestQueue(data)
	case "events":
		return decodeEvents(cfg, data)
	case "fills":
		if cfg.Since >= 0 {
			tracker, err := serum.NewFillTracker(cfg.Market, uint32(cfg.Since), nil)
			if err != nil {
				return nil, err
			}
			return tracker.Poll(data)
		}
		if err := cfg.Market.Validate(); err != nil {
			return nil, err
		}
		events, err := decodeEvents(cfg, data)
		if err != nil {
			return nil, err
		}
		return cfg.Market.ParseFills(events), nil
	case "ring":
		ring, err := structure.DecodeRing(data, structure.DefaultRingLayout(cfg.ItemSpan))
		if err != nil {
			return nil, err
		}
		items := make([]string, 0)
		for _, item := range ring.All() {
			items = append(items, hex.EncodeToString(item))
		}
		return items, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q", errUsage, cfg.Kind)
}

func decodeEvents(cfg *config, data []byte) ([]serum.Event, error) {
	if cfg.Since >= 0 {
		return serum.DecodeEventsSince(data, uint32(cfg.Since))
	}
	return serum.DecodeEventQueue(data, cfg.History)
}

func run(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	serum.SetLogger(logger)
	logger.Debug("decoding account", "kind", cfg.Kind, "file", cfg.File, "decoder_version", serum.DecoderVersion)

	out, err := decode(cfg)
	if err != nil {
		return fmt.Errorf("decode %s %s: %w", cfg.Kind, cfg.File, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		slog.Error("serumdump failed", "error", err)
		os.Exit(1)
	}
}
