package ocr

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"go-expensio/internal/expense"
)

var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)total[:\s]*\$?(\d+\.?\d*)`),
	regexp.MustCompile(`(?i)amount[:\s]*\$?(\d+\.?\d*)`),
	regexp.MustCompile(`\$(\d+\.?\d*)`),
	regexp.MustCompile(`(\d+\.\d{2})`),
}

var datePatterns = []struct {
	re      *regexp.Regexp
	layouts []string
}{
	{
		re:      regexp.MustCompile(`\d{4}[/-]\d{1,2}[/-]\d{1,2}`),
		layouts: []string{"2006-01-02", "2006/01/02", "2006-1-2", "2006/1/2"},
	},
	{
		re:      regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`),
		layouts: []string{"01/02/2006", "1/2/2006", "01-02-2006", "1-2-2006", "01/02/06", "1/2/06"},
	},
	{
		re:      regexp.MustCompile(`(?i)(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{1,2}[,\s]+\d{4}`),
		layouts: []string{"Jan 2, 2006", "Jan 2 2006", "January 2, 2006", "January 2 2006"},
	},
}

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{expense.CategoryMeals, []string{"restaurant", "cafe", "food", "dining"}},
	{expense.CategoryAccommodation, []string{"hotel", "inn", "resort", "lodging"}},
	{expense.CategoryTravel, []string{"uber", "lyft", "taxi", "airline", "flight"}},
	{expense.CategorySupplies, []string{"office", "supplies", "stationery"}},
}

// ExtractAmount pulls the first plausible monetary amount out of receipt
// text, preferring labeled totals over bare numbers.
func ExtractAmount(text string) (float64, bool) {
	for _, pattern := range amountPatterns {
		match := pattern.FindStringSubmatch(text)
		if len(match) < 2 {
			continue
		}
		amount, err := strconv.ParseFloat(match[1], 64)
		if err == nil && amount > 0 {
			return amount, true
		}
	}
	return 0, false
}

// ExtractDate finds the first parseable date and normalizes it to
// YYYY-MM-DD.
func ExtractDate(text string) (string, bool) {
	for _, p := range datePatterns {
		match := p.re.FindString(text)
		if match == "" {
			continue
		}
		normalized := normalizeMonthCase(match)
		for _, layout := range p.layouts {
			if t, err := time.Parse(layout, normalized); err == nil {
				return t.Format("2006-01-02"), true
			}
		}
	}
	return "", false
}

// DetectCategory maps keywords in the receipt text onto an expense
// category, falling back to other.
func DetectCategory(text string) string {
	lower := strings.ToLower(text)
	for _, ck := range categoryKeywords {
		for _, w := range ck.words {
			if strings.Contains(lower, w) {
				return ck.category
			}
		}
	}
	return expense.CategoryOther
}

// ExtractMerchantName takes the first non-empty line, the usual position
// of the merchant header on printed receipts.
func ExtractMerchantName(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line, true
		}
	}
	return "", false
}

// ParseReceiptText runs all extractors over raw receipt text and returns
// the typed result. Fields that could not be extracted stay nil.
func ParseReceiptText(rawText string) ScanResult {
	result := ScanResult{RawText: rawText}

	if amount, ok := ExtractAmount(rawText); ok {
		result.Amount = &amount
	}
	if date, ok := ExtractDate(rawText); ok {
		result.Date = &date
	}
	if merchant, ok := ExtractMerchantName(rawText); ok {
		result.MerchantName = &merchant
	}

	category := DetectCategory(rawText)
	result.Category = &category

	if result.MerchantName != nil {
		desc := "Receipt from " + *result.MerchantName
		result.Description = &desc
	}

	if result.Amount != nil {
		result.Lines = []expense.ExpenseLine{
			{
				Description: "Receipt total",
				Amount:      *result.Amount,
				Category:    category,
			},
		}
	}

	return result
}

func normalizeMonthCase(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
