package notifier

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"CryptoRadar/internal/collector"
	"CryptoRadar/internal/model"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{2,20}$`)

// Scanner produces the market-wide rankings.
type Scanner interface {
	Explosions(ctx context.Context) ([]model.ExplosionScore, error)
	NewListings(ctx context.Context) ([]model.NewListingCandidate, error)
}

// Analyzer produces per-symbol readouts.
type Analyzer interface {
	Analyze(ctx context.Context, symbol string) (model.Analysis, error)
	Recommend(ctx context.Context, symbol string) (model.TradePlan, error)
}

// Commands answers bot commands from the scanner and analyzer.
type Commands struct {
	scanner  Scanner
	analyzer Analyzer
	logger   *zap.Logger
}

func NewCommands(scanner Scanner, analyzer Analyzer, logger *zap.Logger) *Commands {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Commands{scanner: scanner, analyzer: analyzer, logger: logger}
}

// Handle implements CommandHandler.
func (c *Commands) Handle(ctx context.Context, command, args string) string {
	switch command {
	case "explosions":
		scores, err := c.scanner.Explosions(ctx)
		if err != nil {
			return c.failure("explosions", err)
		}
		return FormatExplosions(scores)
	case "listings":
		listings, err := c.scanner.NewListings(ctx)
		if err != nil {
			return c.failure("listings", err)
		}
		return FormatListings(listings)
	case "analysis":
		symbol, ok := parseSymbol(args)
		if !ok {
			return "Usage: /analysis SYMBOL (e.g. /analysis BTCUSDT)"
		}
		a, err := c.analyzer.Analyze(ctx, symbol)
		if err != nil {
			return c.failure("analysis", err)
		}
		return FormatAnalysis(a)
	case "recommend":
		symbol, ok := parseSymbol(args)
		if !ok {
			return "Usage: /recommend SYMBOL (e.g. /recommend BTCUSDT)"
		}
		p, err := c.analyzer.Recommend(ctx, symbol)
		if err != nil {
			return c.failure("recommend", err)
		}
		return FormatTradePlan(p)
	case "help", "start":
		return FormatHelp()
	default:
		return ""
	}
}

func (c *Commands) failure(command string, err error) string {
	c.logger.Warn("command failed", zap.String("command", command), zap.Error(err))
	var ue *collector.UpstreamError
	if errors.As(err, &ue) && ue.Status == 400 {
		return "❌ Unknown symbol."
	}
	return fmt.Sprintf("❌ %s failed: %s", command, html.EscapeString(collector.Outcome(err)))
}

func parseSymbol(args string) (string, bool) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", false
	}
	s := strings.ToUpper(fields[0])
	return s, symbolPattern.MatchString(s)
}
