// Package textfix repairs currency names that arrive from the CBAR feed with
// broken multi-byte sequences (UTF-8 read as Latin-1, sometimes twice).
//
// The cleanup is a heuristic, not a transcoding: known whole strings are
// mapped exactly, everything else goes through an ordered list of substring
// replacements. It is best-effort and makes no guarantee for artifacts that
// have not been seen in the feed.
package textfix

import "strings"

// exactNames maps whole mis-encoded names to their correct Azerbaijani form.
// These cover the worst cases, where artifacts were mangled twice and no
// generic substring rule can recover them.
var exactNames = map[string]string{
	"QÄ±zÄ±l":  "Qızıl",
	"GÃ¼mÃ¼Å": "Gümüş",
	"Palladium": "Palladium",
	"Platin":    "Platin",

	"1 Serbiya dinarA+ (RSD)":                            "1 Serbiya dinarı (RSD)",
	"1 Serbiya dinarÄ± (RSD)":                            "1 Serbiya dinarı (RSD)",
	"1 Sinqapur dollarÄ± (SGD)":                          "1 Sinqapur dolları (SGD)",
	"1 SÉQudiyyÉO ÆrÉ bistanÄ± rialÄ± (SAR)":          "1 Səudiyyə Ərəbistanı rialı (SAR)",
	"1 SÉudiyyÉ ÆrÉbistanÄ± rialÄ± (SAR)":             "1 Səudiyyə Ərəbistanı rialı (SAR)",
	"1 TÃ¼rk lirÉOsi (TRY)":                             "1 Türk lirəsi (TRY)",
	"1 TÃ¼rkmÉOnistan manatÄ± (TMT)":                    "1 Türkmənistan manatı (TMT)",
	"1 Ukrayna qrivnasÄ± (UAH)":                          "1 Ukrayna qrivnası (UAH)",
	"1 Yeni Zelandiya dollarÄ± (NZD)":                    "1 Yeni Zelandiya dolları (NZD)",
	"1 BÆÆ dirhÉmi (AED)":                              "1 BƏƏ dirhəmi (AED)",
	"100 QazaxÄ±stan tengÉsi (KZT)":                     "100 Qazaxıstan tengəsi (KZT)",
	"1 QÉtÉr rialÄ± (QAR)":                             "1 Qətər rialı (QAR)",
	"1 QÄ±rÄÄ±z somu (KGS)":                            "1 Qırğız somu (KGS)",
	"100 MacarÄ±stan forinti (HUF)":                      "100 Macarıstan forinti (HUF)",
	"1 Moldova leyi (MDL)":                               "1 Moldova leyi (MDL)",
	"1 NorveÃ§ kronu (NOK)":                              "1 Norveç kronu (NOK)",
	"100 ÃzbÉk somu (UZS)":                              "100 Özbək somu (UZS)",
	"100 Pakistan rupisi (PKR)":                           "100 Pakistan rupisi (PKR)",
	"1 PolÅa zlotÄ±sÄ± (PLN)":                          "1 Polşa zlotısı (PLN)",
	"1 RumÄ±niya leyi (RON)":                             "1 Rumıniya leyi (RON)",
	"100 Rusiya rublu (RUB)":                              "100 Rusiya rublu (RUB)",
	"1 SDR (BVF-nin xÃ¼susi borcalma hÃ¼quqlarÄ±) (SDR)": "1 SDR (BVF-nin xüsusi borcalma hüquqları) (SDR)",
	"1 Ä°ngilis funt sterlinqi (GBP)":                     "1 İngilis funt sterlinqi (GBP)",
	"1 Ä°sveÃ§ kronu (SEK)":                              "1 İsveç kronu (SEK)",
	"1 Ä°sveÃ§rÉ frankÄ± (CHF)":                         "1 İsveçrə frankı (CHF)",
	"1 Ä°srail Åekeli (ILS)":                             "1 İsrail Şekeli (ILS)",
	"1 KÃ¼veyt dinarÄ± (KWD)":                            "1 Küveyt dinarı (KWD)",
	"100 Yapon yeni (JPY)":                                 "100 Yapon yeni (JPY)",
}

// replacement rewrites one mis-encoding artifact to its native form.
type replacement struct {
	old string
	new string
}

// artifacts is applied in order, each rule on the output of the previous one.
// Phrase-level rules come first: once a generic single-character rule has
// rewritten part of a phrase, the longer pattern no longer matches.
var artifacts = []replacement{
	// phrase-level remnants seen in full names
	{"SÉQudiyyÉO ÆrÉ bistanÄ±", "Səudiyyə Ərəbistanı"},
	{"SÉudiyyÉ ÆrÉbistanÄ±", "Səudiyyə Ərəbistanı"},
	{"TÃ¼rkmÉOnistan manatÄ±", "Türkmənistan manatı"},
	{"borcalma hÃ¼quqlarÄ±", "borcalma hüquqları"},
	{"Serbiya dinarA+", "Serbiya dinarı"},
	{"TÃ¼rk lirÉOsi", "Türk lirəsi"},

	// word-level remnants
	{"dollarÄ±", "dolları"},
	{"dinarÄ±", "dinarı"},
	{"rialÄ±", "rialı"},
	{"manatÄ±", "manatı"},
	{"qrivnasÄ±", "qrivnası"},
	{"tengÉsi", "tengəsi"},
	{"dirhÉmi", "dirhəmi"},
	{"lirÉOsi", "lirəsi"},
	{"zlotÄ±sÄ±", "zlotısı"},
	{"xÃ¼susi", "xüsusi"},
	{"Åekeli", "Şekeli"},
	{"larÄ±", "ları"},

	// character-level remnants; multi-byte patterns before their prefixes
	{"Ä°", "İ"},
	{"Ä±", "ı"},
	{"Ã¼", "ü"},
	{"Ã§", "ç"},
	{"ÉO", "ə"},
	{"É", "ə"},
	{"Æ", "Ə"},
	{"Å", "ş"},
	{"A+", "ı"},
}

// Repair maps a mis-encoded currency name to its correct Azerbaijani form.
// Unrecognized input passes through unchanged; the function never fails and
// is idempotent, repaired text contains no artifact patterns.
func Repair(text string) string {
	if text == "" {
		return text
	}

	if fixed, ok := exactNames[strings.TrimSpace(text)]; ok {
		return fixed
	}

	for _, r := range artifacts {
		text = strings.ReplaceAll(text, r.old, r.new)
	}
	return text
}
