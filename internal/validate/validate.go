package validate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"encore/internal/domain"
)

const MaxLyricsBytes = 16 << 10

var (
	reCountry = regexp.MustCompile(`^[A-Z]{2}$`)
	reEmail   = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ       = regexp.MustCompile(`^[A-Za-z0-9 _'\\-]{1,50}$`)
	reID      = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reVariant = regexp.MustCompile(`^(XS|S|M|L|XL|XXL|ONE)$`)
	reKind    = regexp.MustCompile(`^(APPAREL|VINYL|CASSETTE|CD|ACCESSORY)$`)
)

// Country accepts an ISO 3166 alpha-2 code in either case.
func Country(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reCountry.MatchString(s)
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 50 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > 50 {
		return 50
	} // clamp to avoid abuse
	return n
}

// ID validates a simple resource identifier (product/category/track ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Variant validates a size label; merch without sizes uses ONE.
func Variant(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		s = "ONE"
	}
	return s, reVariant.MatchString(s)
}

// Kind validates product kind filters.
func Kind(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, s != "" && reKind.MatchString(s)
}

func Fulfillment(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "ship":
		return "ship", true
	case "venue_pickup":
		return s, true
	}
	return "", false
}

func Tier(s string) (domain.Tier, bool) { return domain.ParseTier(s) }

// Status validates an order status name.
func Status(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case domain.OrderPendingPayment, domain.OrderPaid, domain.OrderFulfilled, domain.OrderCanceled, domain.OrderRefunded:
		return s, true
	}
	return "", false
}

// Lyrics bounds pasted lyric text.
func Lyrics(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > MaxLyricsBytes || !utf8.ValidString(s) {
		return "", false
	}
	return s, true
}

// AtMs parses a playback position in milliseconds.
func AtMs(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 || n > 24*60*60*1000 {
		return 0, false
	}
	return n, true
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 40 {
		return "", false
	}
	return s, true
}

// Password enforces a simple length window for login checks.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 20 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
