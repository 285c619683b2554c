// Package mangle deterministically corrupts generated chat commands so
// load runs exercise the gateway's rejection paths as well as the happy
// path: oversize padding, unicode look-alikes, verb case flips, dropped
// or negated sizes, out-of-range leverage.
package mangle

import (
	"math/rand"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Mode names, in the order they are cycled through.
const (
	ModeUpcaseVerb     = "upcase_verb"
	ModeUnicodePercent = "unicode_percent"
	ModeOversize       = "oversize"
	ModeDropSize       = "drop_size"
	ModeNegateSize     = "negate_size"
	ModeBadLeverage    = "bad_leverage"
)

var allModes = []string{
	ModeUpcaseVerb,
	ModeUnicodePercent,
	ModeOversize,
	ModeDropSize,
	ModeNegateSize,
	ModeBadLeverage,
}

// Mangler applies seeded, percentage-gated corruption to chat text
type Mangler struct {
	cfg    *Config
	logger *zap.Logger
	modes  []string
	mu     sync.Mutex
	rng    *rand.Rand
	next   int
}

// New creates a new Mangler
func New(cfg *Config, logger *zap.Logger) *Mangler {
	modes := cfg.Modes
	if len(modes) == 0 {
		modes = allModes
	}
	return &Mangler{
		cfg:    cfg,
		logger: logger,
		modes:  modes,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

// MaybeMangle corrupts the text with probability Pct, cycling through the
// configured modes so a long run covers all of them. It returns the
// (possibly corrupted) text and the mode applied, empty when untouched.
func (m *Mangler) MaybeMangle(text string) (string, string) {
	if !m.cfg.Enabled || m.cfg.Pct <= 0 {
		return text, ""
	}

	m.mu.Lock()
	hit := m.rng.Intn(100) < m.cfg.Pct
	var mode string
	if hit {
		mode = m.modes[m.next%len(m.modes)]
		m.next++
	}
	m.mu.Unlock()

	if !hit {
		return text, ""
	}

	mangled := Apply(mode, text)
	m.logger.Debug("mangled message",
		zap.String("mode", mode),
		zap.String("text", mangled),
	)
	return mangled, mode
}

var (
	sizeTokenRe = regexp.MustCompile(`\b\d+(?:\.\d+)?(?:u|usdt)?\b`)
	levTokenRe  = regexp.MustCompile(`\bx\d+\b`)
)

// Apply performs one named corruption on the text.
func Apply(mode, text string) string {
	switch mode {
	case ModeUpcaseVerb:
		if rest, ok := strings.CutPrefix(text, "/buy"); ok {
			return "/BUY" + rest
		}
		if rest, ok := strings.CutPrefix(text, "/sell"); ok {
			return "/SELL" + rest
		}
		return strings.ToUpper(text)
	case ModeUnicodePercent:
		if strings.Contains(text, "%") {
			return strings.Replace(text, "%", "％", 1)
		}
		return text + " sl1％"
	case ModeOversize:
		return text + " " + strings.Repeat("z", 300)
	case ModeDropSize:
		return sizeTokenRe.ReplaceAllString(text, "")
	case ModeNegateSize:
		return sizeTokenRe.ReplaceAllString(text, "-$0")
	case ModeBadLeverage:
		if levTokenRe.MatchString(text) {
			return levTokenRe.ReplaceAllString(text, "x9999")
		}
		return text + " x9999"
	}
	return text
}
