package funding

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// FormatEthAmount renders an ether amount with at most four decimals.
func FormatEthAmount(amount string) string {
	v, err := ParseAmount(amount)
	if err != nil {
		return "0 ETH"
	}
	s := v.Round(4).StringFixed(4)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s + " ETH"
}

// TruncateAddress shortens a wallet address to 0x1234...abcd.
func TruncateAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

type remainingPhrases struct {
	ended    string
	day      func(n int) string
	hour     func(n int) string
	minute   func(n int) string
	underMin string
}

var phrasesByLang = map[string]remainingPhrases{
	"en": {
		ended:    "Campaign ended",
		day:      func(n int) string { return fmt.Sprintf("%d day%s remaining", n, plural(n)) },
		hour:     func(n int) string { return fmt.Sprintf("%d hour%s remaining", n, plural(n)) },
		minute:   func(n int) string { return fmt.Sprintf("%d minute%s remaining", n, plural(n)) },
		underMin: "Less than a minute remaining",
	},
	"hi": {
		ended:    "अभियान समाप्त",
		day:      func(n int) string { return fmt.Sprintf("%d दिन शेष", n) },
		hour:     func(n int) string { return fmt.Sprintf("%d घंटे शेष", n) },
		minute:   func(n int) string { return fmt.Sprintf("%d मिनट शेष", n) },
		underMin: "एक मिनट से कम शेष",
	},
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}

// TimeRemaining describes the time left until deadline in the largest whole
// unit. Unknown locales fall back to English.
func TimeRemaining(deadline, now time.Time, locale string) string {
	phrases := phrasesFor(locale)
	if !deadline.After(now) {
		return phrases.ended
	}
	remaining := int64(deadline.Sub(now) / time.Second)
	days := int(remaining / 86400)
	hours := int((remaining % 86400) / 3600)
	minutes := int((remaining % 3600) / 60)
	switch {
	case days > 0:
		return phrases.day(days)
	case hours > 0:
		return phrases.hour(hours)
	case minutes > 0:
		return phrases.minute(minutes)
	default:
		return phrases.underMin
	}
}

func phrasesFor(locale string) remainingPhrases {
	tag, err := language.Parse(locale)
	if err != nil {
		return phrasesByLang["en"]
	}
	base, _ := tag.Base()
	if p, ok := phrasesByLang[base.String()]; ok {
		return p
	}
	return phrasesByLang["en"]
}
