package services

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nurlanv/cbar-rates/internal/logger"
	"github.com/nurlanv/cbar-rates/internal/models"
	"github.com/nurlanv/cbar-rates/internal/textfix"
)

// UnknownCode marks records whose currency code could not be resolved.
const UnknownCode = "UNKNOWN"

// rateScale is the fixed fractional precision of a per-unit rate.
const rateScale = 6

// codeSignature infers a currency code from keywords in the feed name.
// Every keyword must occur in the uppercased name for the signature to match.
type codeSignature struct {
	keywords []string
	code     string
}

// codeSignatures is scanned top to bottom, first match wins. Multi-keyword
// signatures precede the single-keyword ones they would otherwise be shadowed
// by (e.g. the Serbian dinar must be checked before the bare dinar rule).
// Keywords are spelled as strings.ToUpper produces them from feed names.
var codeSignatures = []codeSignature{
	{[]string{"DOLLAR", "ABŞ"}, "USD"},
	{[]string{"KRONU", "İSVEÇ"}, "SEK"},
	{[]string{"KRONU", "NORVEÇ"}, "NOK"},
	{[]string{"KRONU", "DANIMARKA"}, "DKK"},
	{[]string{"KRONU", "ÇEX"}, "CZK"},
	{[]string{"SOMU", "QIRĞIZ"}, "KGS"},
	{[]string{"SOMU", "ÖZBƏK"}, "UZS"},
	{[]string{"MANATI", "TÜRKMƏNISTAN"}, "TMT"},
	{[]string{"RUPISI", "PAKISTAN"}, "PKR"},
	{[]string{"DINAR", "SERBIYA"}, "RSD"},
	{[]string{"DINAR", "KÜVEYT"}, "KWD"},
	{[]string{"DINAR", "BELARUS"}, "BYN"},
	{[]string{"RIALI", "QƏTƏR"}, "QAR"},
	{[]string{"RIALI", "SƏUDIYYƏ"}, "SAR"},
	{[]string{"DIRHƏMI", "BƏƏ"}, "AED"},
	{[]string{"LEVI", "BOLQARISTAN"}, "BGN"},
	{[]string{"YENI", "YAPON"}, "JPY"},
	{[]string{"DOLLAR", "ZELANDIYA"}, "NZD"},
	{[]string{"AVRO"}, "EUR"},
	{[]string{"EURO"}, "EUR"},
	{[]string{"FUNT"}, "GBP"},
	{[]string{"STERLIN"}, "GBP"},
	{[]string{"RUBLU"}, "RUB"},
	{[]string{"RUSIYA"}, "RUB"},
	{[]string{"FRANK"}, "CHF"},
	{[]string{"YUAN"}, "CNY"},
	{[]string{"DIRHƏMI"}, "AED"},
	{[]string{"DINAR"}, "KWD"},
	{[]string{"RIALI"}, "QAR"},
	{[]string{"LARI"}, "GEL"},
	{[]string{"LEVI"}, "BGN"},
	{[]string{"ZLOT"}, "PLN"},
	{[]string{"POLŞA"}, "PLN"},
	{[]string{"FORINT"}, "HUF"},
	{[]string{"TENGƏSI"}, "KZT"},
	{[]string{"QRIVNASI"}, "UAH"},
	{[]string{"LIRƏSI"}, "TRY"},
	{[]string{"RUPISI"}, "INR"},
	{[]string{"VONU"}, "KRW"},
	{[]string{"ŞEKEL"}, "ILS"},
}

// Normalize turns one raw feed entry into a canonical currency record.
// It never fails: an entry whose value or nominal cannot be parsed degrades
// to a zero-rate record with best-effort code and name, so one malformed
// entry cannot void a whole day's set.
func Normalize(entry models.RawFeedEntry) models.Currency {
	code := resolveCode(entry)
	rate, ok := computeRate(entry.Value, entry.Nominal)
	if !ok {
		logger.Log.Warnw("degraded feed entry, rate defaulted to zero",
			"code", code,
			"name", entry.Name,
			"nominal", entry.Nominal,
			"value", entry.Value,
		)
	}

	return models.Currency{
		Code:     code,
		Name:     textfix.Repair(entry.Name),
		Rate:     rate,
		Degraded: !ok,
	}
}

// resolveCode prefers the feed's own code and falls back to name heuristics:
// the signature table first, then a parenthesized code embedded in the name.
func resolveCode(entry models.RawFeedEntry) string {
	if code := strings.TrimSpace(entry.Code); code != "" {
		return strings.ToUpper(code)
	}

	upper := strings.ToUpper(entry.Name)
	for _, sig := range codeSignatures {
		if matchesAll(upper, sig.keywords) {
			return sig.code
		}
	}

	if code := parenthesizedCode(entry.Name); code != "" {
		return code
	}

	return UnknownCode
}

func matchesAll(name string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(name, kw) {
			return false
		}
	}
	return true
}

// parenthesizedCode extracts "EUR" from names like "1 Avro (EUR)".
func parenthesizedCode(name string) string {
	open := strings.Index(name, "(")
	if open < 0 {
		return ""
	}
	closing := strings.Index(name[open:], ")")
	if closing < 0 {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(name[open+1 : open+closing]))
}

// parseNominal resolves the unit quantity a quoted value applies to.
// The separator is normalized and the first whitespace-delimited token that
// parses as a number wins ("1 t.u." resolves to 1); with no numeric token the
// nominal defaults to 1.
func parseNominal(raw string) decimal.Decimal {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	for _, token := range strings.Fields(cleaned) {
		if d, err := decimal.NewFromString(token); err == nil {
			return d
		}
	}
	return decimal.NewFromInt(1)
}

// computeRate divides value by nominal, rounded half-up to 6 places.
// A non-numeric value or a zero nominal reports false instead of an error.
func computeRate(value, nominal string) (decimal.Decimal, bool) {
	v, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(value), ",", "."))
	if err != nil {
		return decimal.Zero, false
	}

	n := parseNominal(nominal)
	if n.IsZero() {
		return decimal.Zero, false
	}

	return v.DivRound(n, rateScale), true
}
