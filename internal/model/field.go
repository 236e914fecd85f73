package model

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// CanonicalField is one of the fixed financial statement line items the
// extraction core recognizes. The set is closed: a concept that maps to no
// CanonicalField is dropped at the mapping layer.
type CanonicalField int

const (
	Turnover CanonicalField = iota
	CostOfSales
	GrossProfit
	EBIT
	NetProfit
	TotalAssets
	FixedAssets
	CurrentAssets
	TotalLiabilities
	CurrentLiabilities
	NonCurrentLiabilities
	NetAssets
	Cash
	RetainedEarnings
	Employees
	CreditorsDueWithinYear
	ShareCapital

	numFields
)

var fieldKeys = [numFields]string{
	Turnover:               "turnover",
	CostOfSales:            "cost_of_sales",
	GrossProfit:            "gross_profit",
	EBIT:                   "ebit",
	NetProfit:              "net_profit",
	TotalAssets:            "total_assets",
	FixedAssets:            "fixed_assets",
	CurrentAssets:          "current_assets",
	TotalLiabilities:       "total_liabilities",
	CurrentLiabilities:     "current_liabilities",
	NonCurrentLiabilities:  "non_current_liabilities",
	NetAssets:              "net_assets",
	Cash:                   "cash",
	RetainedEarnings:       "retained_earnings",
	Employees:              "employees",
	CreditorsDueWithinYear: "creditors_due_within_year",
	ShareCapital:           "share_capital",
}

// String returns the snake_case key used in serialized records and store columns.
func (f CanonicalField) String() string {
	if f < 0 || f >= numFields {
		return "unknown"
	}
	return fieldKeys[f]
}

// MarshalText implements encoding.TextMarshaler so fields serialize as their keys.
func (f CanonicalField) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *CanonicalField) UnmarshalText(text []byte) error {
	parsed, err := ParseField(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// UnmarshalYAML decodes a field key from taxonomy YAML.
func (f *CanonicalField) UnmarshalYAML(value *yaml.Node) error {
	var key string
	if err := value.Decode(&key); err != nil {
		return err
	}
	parsed, err := ParseField(key)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// MarshalYAML encodes a field as its key.
func (f CanonicalField) MarshalYAML() (interface{}, error) {
	return f.String(), nil
}

// ParseField converts a snake_case key into a CanonicalField.
func ParseField(key string) (CanonicalField, error) {
	for i, k := range fieldKeys {
		if k == key {
			return CanonicalField(i), nil
		}
	}
	return 0, eris.Errorf("model: unknown canonical field %q", key)
}

// AllFields returns every canonical field in declaration order.
func AllFields() []CanonicalField {
	fields := make([]CanonicalField, numFields)
	for i := range fields {
		fields[i] = CanonicalField(i)
	}
	return fields
}

// NumFields is the size of the canonical field set.
const NumFields = int(numFields)

// PrefersDuration reports whether the field is a flow item that should be
// sourced from duration contexts. Balance-sheet items prefer instant contexts.
func (f CanonicalField) PrefersDuration() bool {
	switch f {
	case Turnover, CostOfSales, GrossProfit, EBIT, NetProfit, Employees:
		return true
	default:
		return false
	}
}

// FieldSynonyms pairs a canonical field with the raw concept-name suffixes
// that map onto it. Suffix matching is case-insensitive.
type FieldSynonyms struct {
	Field    CanonicalField `yaml:"field"`
	Suffixes []string       `yaml:"suffixes"`
}

// Taxonomy is the ordered concept synonym table. Entry order is significant:
// the first field whose suffix list matches a concept name wins, so more
// specific suffixes must be declared before generic ones.
type Taxonomy struct {
	entries []FieldSynonyms
	lowered [][]string
}

// NewTaxonomy builds a Taxonomy from ordered synonym entries.
func NewTaxonomy(entries []FieldSynonyms) *Taxonomy {
	t := &Taxonomy{entries: entries, lowered: make([][]string, len(entries))}
	for i, e := range entries {
		low := make([]string, len(e.Suffixes))
		for j, s := range e.Suffixes {
			low[j] = strings.ToLower(s)
		}
		t.lowered[i] = low
	}
	return t
}

// Entries returns the ordered synonym entries.
func (t *Taxonomy) Entries() []FieldSynonyms {
	return t.entries
}

// Match maps a raw concept name to a canonical field. Only the local name
// after the final namespace separator is significant. A name matches an entry
// when it equals or ends with one of the entry's suffixes, case-insensitively.
func (t *Taxonomy) Match(name string) (CanonicalField, bool) {
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	ln := strings.ToLower(name)
	if ln == "" {
		return 0, false
	}
	for i, suffixes := range t.lowered {
		for _, s := range suffixes {
			if ln == s || strings.HasSuffix(ln, s) {
				return t.entries[i].Field, true
			}
		}
	}
	return 0, false
}

// LoadTaxonomy reads an ordered synonym table from a YAML file. The file is a
// list of {field, suffixes} entries so that declaration order survives parsing.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "model: read taxonomy %s", path)
	}
	var entries []FieldSynonyms
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, eris.Wrap(err, "model: parse taxonomy")
	}
	if len(entries) == 0 {
		return nil, eris.New("model: taxonomy is empty")
	}
	return NewTaxonomy(entries), nil
}

// DefaultTaxonomy returns the built-in UK GAAP / FRS synonym table.
func DefaultTaxonomy() *Taxonomy {
	return NewTaxonomy([]FieldSynonyms{
		{Field: Turnover, Suffixes: []string{
			"Turnover", "TurnoverRevenue", "Revenue",
			"TurnoverGrossIncome", "RevenueFromContractsWithCustomers",
		}},
		{Field: CostOfSales, Suffixes: []string{
			"CostSales", "CostOfSales",
		}},
		{Field: GrossProfit, Suffixes: []string{
			"GrossProfitLoss", "GrossProfit",
		}},
		{Field: EBIT, Suffixes: []string{
			"OperatingProfitLoss", "OperatingProfit",
			"ProfitLossOnOrdinaryActivitiesBeforeInterestAndTax",
			"ProfitLossBeforeInterestPayableSimilarCharges",
			// Not strictly EBIT, but the closest concept most small
			// companies tag.
			"ProfitLossBeforeTax",
		}},
		{Field: NetProfit, Suffixes: []string{
			"ProfitLossForPeriod", "ProfitLossForYear",
			"ProfitLossForFinancialYear",
			"RetainedProfitLossForFinancialYear",
			"ProfitLoss", "ProfitLossAttributableToOwnersOfParent",
		}},
		{Field: TotalAssets, Suffixes: []string{
			"TotalAssets", "TotalAssetsLessCurrentLiabilities",
		}},
		{Field: FixedAssets, Suffixes: []string{
			"FixedAssets", "NonCurrentAssets", "TangibleFixedAssets",
			"IntangibleFixedAssets",
		}},
		{Field: CurrentAssets, Suffixes: []string{
			"CurrentAssets", "TotalCurrentAssets",
		}},
		{Field: TotalLiabilities, Suffixes: []string{
			"TotalLiabilities",
		}},
		{Field: CurrentLiabilities, Suffixes: []string{
			"CreditorsDueWithinOneYear", "CurrentLiabilities",
			"CreditorAmountsFallingDueWithinOneYear",
		}},
		{Field: NonCurrentLiabilities, Suffixes: []string{
			"CreditorsDueAfterOneYear", "NonCurrentLiabilities",
			"CreditorsAmountsFallingDueAfterMoreThanOneYear",
			"CreditorAmountsFallingDueAfterOneYear",
		}},
		{Field: NetAssets, Suffixes: []string{
			"NetAssetsLiabilities", "NetAssets",
			"TotalNetAssets", "NetAssetsIncludingPensionAssetLiability",
		}},
		{Field: Cash, Suffixes: []string{
			"CashBankInHand", "CashCashEquivalents",
			"CashAtBankInHand", "CashBankOnHand",
		}},
		{Field: RetainedEarnings, Suffixes: []string{
			"RetainedEarningsAccumulatedLosses",
			"ProfitLossAccountReserve",
			"RetainedEarnings",
		}},
		{Field: Employees, Suffixes: []string{
			"AverageNumberEmployeesDuringPeriod",
			"EntityAverageNumberOfEmployees",
			"AverageNumberOfEmployees",
			"EmployeesTotal",
		}},
		{Field: CreditorsDueWithinYear, Suffixes: []string{
			"CreditorsDueWithinOneYear",
			"CreditorAmountsFallingDueWithinOneYear",
			"CurrentLiabilities",
		}},
		{Field: ShareCapital, Suffixes: []string{
			"CalledUpShareCapital", "ShareCapital",
			"CalledUpShareCapitalNotPaid",
		}},
	})
}
