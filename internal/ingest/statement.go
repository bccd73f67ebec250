// Package ingest parses uploaded bank statements into spending entries.
// Only the CSV export path is handled here; scanned-PDF extraction is a
// separate concern outside this service.
package ingest

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "finresolve/internal/errors"
	"finresolve/internal/models"
	"finresolve/internal/uuid"
)

// dateLayouts are tried in order when parsing statement dates.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02 Jan 2006",
	"Jan 2, 2006",
}

// ParseCSV reads a CSV statement and returns spending entries with
// source=upload. The first row must be a header containing at least
// "date", "description" and "amount" columns (any order, case
// insensitive); a "type" column is honored when present, otherwise the
// sign of the amount decides between expense and income.
func ParseCSV(r io.Reader) ([]models.SpendingEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrMalformedStatement, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	dateIdx, hasDate := cols["date"]
	descIdx, hasDesc := cols["description"]
	amountIdx, hasAmount := cols["amount"]
	typeIdx, hasType := cols["type"]
	if !hasDate || !hasDesc || !hasAmount {
		return nil, apperrors.WithMessage(apperrors.ErrMalformedStatement,
			"statement must have date, description and amount columns")
	}

	var entries []models.SpendingEntry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrMalformedStatement, err)
		}
		if len(record) <= amountIdx || len(record) <= descIdx || len(record) <= dateIdx {
			continue
		}

		amount, err := decimal.NewFromString(normalizeAmount(record[amountIdx]))
		if err != nil {
			continue
		}

		description := strings.TrimSpace(record[descIdx])
		entry := models.SpendingEntry{
			ID:          uuid.New(),
			Description: description,
			Amount:      amount,
			Source:      models.SpendingSourceUpload,
			Type:        entryType(record, typeIdx, hasType, amount),
		}
		entry.Category, entry.Confidence = Categorize(description)
		entry.MerchantName = merchantName(description)

		if date, ok := parseDate(record[dateIdx]); ok {
			entry.Date = &date
		}

		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, apperrors.ErrEmptyStatement
	}
	return entries, nil
}

func normalizeAmount(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	negative := false
	// Accounting notation for debits.
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.Trim(s, "()")
	}
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "$")
	if negative {
		s = "-" + s
	}
	return s
}

func entryType(record []string, typeIdx int, hasType bool, amount decimal.Decimal) models.EntryType {
	if hasType && len(record) > typeIdx {
		switch strings.ToLower(strings.TrimSpace(record[typeIdx])) {
		case "credit", "income":
			return models.EntryTypeIncome
		case "transfer":
			return models.EntryTypeTransfer
		case "debit", "expense":
			return models.EntryTypeExpense
		}
	}
	if amount.IsNegative() {
		return models.EntryTypeExpense
	}
	return models.EntryTypeIncome
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// merchantName strips common statement noise from a description.
func merchantName(description string) string {
	cleaned := description
	for _, prefix := range []string{"POS PAYMENT - ", "POS ", "TRF FROM ", "TRF TO ", "TRF ", "WEB PAYMENT - "} {
		cleaned = strings.TrimPrefix(cleaned, prefix)
	}
	return strings.TrimSpace(cleaned)
}

// categoryKeywords maps description substrings to categories. This is
// the deterministic fallback for the AI categorizer: a keyword hit is a
// high-confidence match, anything else lands in other/low exactly like
// the categorizer's error path.
var categoryKeywords = []struct {
	keyword  string
	category models.Category
}{
	{"uber", models.CategoryTransport},
	{"bolt", models.CategoryTransport},
	{"fuel", models.CategoryTransport},
	{"shell", models.CategoryTransport},
	{"netflix", models.CategorySubscriptions},
	{"spotify", models.CategorySubscriptions},
	{"apple.com", models.CategorySubscriptions},
	{"grocer", models.CategoryFood},
	{"restaurant", models.CategoryFood},
	{"cafe", models.CategoryFood},
	{"supermarket", models.CategoryFood},
	{"pharmacy", models.CategoryHealth},
	{"hospital", models.CategoryHealth},
	{"gym", models.CategoryHealth},
	{"rent", models.CategoryHousing},
	{"electric", models.CategoryUtilities},
	{"water", models.CategoryUtilities},
	{"internet", models.CategoryUtilities},
	{"airtime", models.CategoryDataAirtime},
	{"data bundle", models.CategoryDataAirtime},
	{"salary", models.CategorySalary},
	{"payroll", models.CategorySalary},
	{"insurance", models.CategoryInsurance},
	{"school", models.CategoryEducation},
	{"tuition", models.CategoryEducation},
	{"hotel", models.CategoryTravel},
	{"airbnb", models.CategoryTravel},
	{"flight", models.CategoryTravel},
	{"loan", models.CategoryDebt},
	{"donation", models.CategoryCharity},
	{"tithe", models.CategoryCharity},
}

// Categorize assigns a category to a transaction description. Keyword
// matches are high confidence; everything else is other/low.
func Categorize(description string) (models.Category, models.Confidence) {
	lower := strings.ToLower(description)
	for _, kw := range categoryKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.category, models.ConfidenceHigh
		}
	}
	return models.CategoryOther, models.ConfidenceLow
}
