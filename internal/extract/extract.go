package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParsedReceipt contains the fields recognized in raw OCR output. Every
// field is best effort: a nil pointer means no pattern matched, and callers
// must treat it as "not found" rather than an error.
type ParsedReceipt struct {
	MerchantName string   `json:"merchant_name"`
	Address      *string  `json:"address"`
	Items        []string `json:"items"`
	Subtotal     *float64 `json:"subtotal"`
	Tax          *float64 `json:"tax"`
	Total        *float64 `json:"total"`
	Date         *string  `json:"date"` // YYYY-MM-DD
	Time         *string  `json:"time"` // HH:MM:SS
}

// UnknownMerchant is the merchant name used when no header line looks like
// a business name.
const UnknownMerchant = "Unknown"

// headerScanLines is how far down the header scan looks for a merchant name.
const headerScanLines = 5

var (
	moneyPattern    = regexp.MustCompile(`\d{1,3}[.,]\d{2}`)
	businessPattern = regexp.MustCompile(`^[A-Z\s&\-.]+$`)
	itemPattern     = regexp.MustCompile(`^[A-Z0-9\s\-%]+$`)
	longDigitRun    = regexp.MustCompile(`\d{11}`)
	datePattern     = regexp.MustCompile(`(\d{2})[/-](\d{2})[/-](\d{2,4})`)
	timePattern     = regexp.MustCompile(`\d{2}:\d{2}:\d{2}`)
)

// Extract classifies OCR text lines into receipt fields. It never fails:
// malformed, empty or noisy input degrades to absent fields. The input is
// not mutated.
func Extract(lines []string) ParsedReceipt {
	data := ParsedReceipt{
		MerchantName: UnknownMerchant,
		Items:        []string{},
	}

	trimmed := make([]string, len(lines))
	for i, line := range lines {
		trimmed[i] = strings.TrimSpace(line)
	}

	// Header: the first line near the top that looks like a business name
	// becomes the merchant; the line under it is taken as the address.
	start := 0
	limit := min(headerScanLines, len(trimmed))
	for i := 0; i < limit; i++ {
		if looksLikeBusinessName(trimmed[i]) {
			data.MerchantName = trimmed[i]
			if i+1 < len(trimmed) && trimmed[i+1] != "" {
				addr := trimmed[i+1]
				data.Address = &addr
			}
			start = i + 2
			break
		}
	}

	insideItems := true
	for i := start; i < len(trimmed); i++ {
		line := trimmed[i]
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		next := ""
		if i+1 < len(trimmed) {
			next = trimmed[i+1]
		}

		// The subtotal line marks the end of the item section.
		if strings.Contains(lower, "subtotal") {
			insideItems = false
			if v := money(line, next); v != nil {
				data.Subtotal = v
			}
		}

		if strings.Contains(lower, "hst") || strings.Contains(lower, "tax") {
			if v := money(line, next); v != nil {
				data.Tax = v
			}
		}

		// Bare "total" only; subtotal lines are handled above. Last match
		// wins when several total lines appear.
		if strings.Contains(lower, "total") && !strings.Contains(lower, "subtotal") {
			if v := money(line, next); v != nil {
				data.Total = v
			}
		}

		if strings.Contains(lower, "date/time") {
			if date, clock, ok := dateTime(next); ok {
				data.Date = &date
				data.Time = &clock
			}
		}

		if insideItems && isLikelyItem(line) {
			data.Items = append(data.Items, line)
		}
	}

	return data
}

// looksLikeBusinessName reports whether a line reads like a store header:
// all-uppercase letters plus a few punctuation characters, no digits, and
// long enough to not be OCR noise.
func looksLikeBusinessName(line string) bool {
	if len(line) < 4 {
		return false
	}
	if !businessPattern.MatchString(line) {
		return false
	}
	return strings.ContainsFunc(line, func(r rune) bool {
		return r >= 'A' && r <= 'Z'
	})
}

// money pulls a monetary value from the keyword line itself, falling back
// to the following line. Columnar receipt layouts are read line by line by
// the OCR engine, so the amount often lands one line below its label.
func money(line, next string) *float64 {
	if v, ok := parseMoney(line); ok {
		return &v
	}
	if v, ok := parseMoney(next); ok {
		return &v
	}
	return nil
}

// parseMoney matches one-to-three digits, a separator and exactly two
// digits. The comma is treated as a decimal separator, so grouped amounts
// like "1,234.56" misparse; kept as-is from the source heuristic.
func parseMoney(text string) (float64, bool) {
	m := moneyPattern.FindString(text)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// dateTime parses the line following a DATE/TIME label. Both a DD/MM/YY or
// DD/MM/YYYY token and an HH:MM:SS token must be present; two-digit years
// are assumed to be 20YY.
func dateTime(line string) (date, clock string, ok bool) {
	dm := datePattern.FindStringSubmatch(line)
	if dm == nil {
		return "", "", false
	}
	clock = timePattern.FindString(line)
	if clock == "" {
		return "", "", false
	}
	day, month, year := dm[1], dm[2], dm[3]
	if len(year) == 2 {
		year = "20" + year
	}
	return fmt.Sprintf("%s-%s-%s", year, month, day), clock, true
}

// isLikelyItem reports whether a line reads like a purchased product entry.
// Runs of 11+ digits are excluded so barcode lines never count as items.
func isLikelyItem(line string) bool {
	return len(line) > 3 &&
		itemPattern.MatchString(line) &&
		!longDigitRun.MatchString(line)
}
