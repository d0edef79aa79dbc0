package dataset

import (
	"io"
	"maps"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/matzehuels/paperfigs/pkg/errors"
)

// CountryCodeSchema is the layout of the country reference table.
var CountryCodeSchema = Schema{
	Name: "country-codes",
	Fields: []Field{
		{Name: "name", Kind: KindString},
		{Name: "iso3", Kind: KindString},
	},
}

// countryAliases are ad hoc spellings seen in CIVICUS, World Bank and NGO
// reports, keyed by folded name.
var countryAliases = map[string]string{
	"cote d ivoire":                    "CIV",
	"ivory coast":                      "CIV",
	"congo dem rep":                    "COD",
	"democratic republic of the congo": "COD",
	"democratic republic of congo":     "COD",
	"drc":                              "COD",
	"congo rep":                        "COG",
	"republic of the congo":            "COG",
	"republic of congo":                "COG",
	"kosovo":                           "XKX",
	"swaziland":                        "SWZ",
	"eswatini":                         "SWZ",
	"burma":                            "MMR",
	"myanmar":                          "MMR",
	"south korea":                      "KOR",
	"korea rep":                        "KOR",
	"republic of korea":                "KOR",
	"north korea":                      "PRK",
	"korea dem people s rep":           "PRK",
	"russia":                           "RUS",
	"russian federation":               "RUS",
	"iran":                             "IRN",
	"iran islamic rep":                 "IRN",
	"syria":                            "SYR",
	"syrian arab republic":             "SYR",
	"laos":                             "LAO",
	"lao pdr":                          "LAO",
	"vietnam":                          "VNM",
	"viet nam":                         "VNM",
	"czechia":                          "CZE",
	"czech republic":                   "CZE",
	"macedonia":                        "MKD",
	"north macedonia":                  "MKD",
	"palestine":                        "PSE",
	"west bank and gaza":               "PSE",
	"taiwan":                           "TWN",
	"united states":                    "USA",
	"united states of america":         "USA",
	"usa":                              "USA",
	"uk":                               "GBR",
	"united kingdom":                   "GBR",
	"gambia":                           "GMB",
	"bahamas":                          "BHS",
	"bolivia":                          "BOL",
	"venezuela":                        "VEN",
	"venezuela rb":                     "VEN",
	"egypt arab rep":                   "EGY",
	"yemen rep":                        "YEM",
	"cabo verde":                       "CPV",
	"cape verde":                       "CPV",
	"timor leste":                      "TLS",
	"east timor":                       "TLS",
	"hong kong sar china":              "HKG",
	"kyrgyz republic":                  "KGZ",
	"slovak republic":                  "SVK",
}

// CountryCodes maps country names to ISO 3166-1 alpha-3 codes.
type CountryCodes struct {
	byName map[string]string
}

// NewCountryCodes builds a lookup from name→code pairs layered over the
// built-in alias table. Given names win over aliases.
func NewCountryCodes(names map[string]string) *CountryCodes {
	cc := &CountryCodes{byName: make(map[string]string, len(names)+len(countryAliases))}
	maps.Copy(cc.byName, countryAliases)
	for name, code := range names {
		cc.byName[FoldCountryName(name)] = strings.ToUpper(strings.TrimSpace(code))
	}
	return cc
}

// LoadCountryCodes reads a reference CSV with "name" and "iso3" columns.
func LoadCountryCodes(path string) (*CountryCodes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataNotFound, err, "%s: open %s", CountryCodeSchema.Name, path)
	}
	defer f.Close()
	return ReadCountryCodes(f)
}

// ReadCountryCodes reads the reference table from r.
func ReadCountryCodes(r io.Reader) (*CountryCodes, error) {
	d, err := ReadCSV(r, CountryCodeSchema)
	if err != nil {
		return nil, err
	}
	names, _ := d.Column("name")
	codes, _ := d.Column("iso3")
	pairs := make(map[string]string, d.Len())
	for i := range d.Len() {
		name, okN := names.Str(i)
		code, okC := codes.Str(i)
		if okN && okC {
			pairs[name] = code
		}
	}
	return NewCountryCodes(pairs), nil
}

// Lookup returns the ISO3 code for a country name.
func (cc *CountryCodes) Lookup(name string) (string, bool) {
	code, ok := cc.byName[FoldCountryName(name)]
	return code, ok
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldCountryName normalizes a country name for matching: diacritics,
// punctuation, case and leading or trailing articles are removed.
func FoldCountryName(name string) string {
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)
	folded = strings.ReplaceAll(folded, "&", " and ")

	var b strings.Builder
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	fields := strings.Fields(b.String())
	if len(fields) > 1 && fields[0] == "the" {
		fields = fields[1:]
	}
	if len(fields) > 1 && fields[len(fields)-1] == "the" {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

// MapCountries returns a copy of d with a string column outCol holding the
// ISO3 code for each name in nameCol. Unmatched names yield null codes and one
// UNMAPPED_CATEGORY warning per distinct name; the load does not fail.
func MapCountries(d *Dataset, nameCol, outCol string, cc *CountryCodes) (*Dataset, error) {
	names, err := d.Text(nameCol)
	if err != nil {
		return nil, err
	}
	codes := make([]string, d.Len())
	valid := make([]bool, d.Len())
	var warnings []error
	seen := make(map[string]bool)
	for i := range d.Len() {
		name, ok := names.Str(i)
		if !ok {
			continue
		}
		code, found := cc.Lookup(name)
		if !found {
			if !seen[name] {
				seen[name] = true
				warnings = append(warnings, errors.New(errors.ErrCodeUnmappedCategory,
					"%s: no country code for %q", d.Name(), name))
			}
			continue
		}
		codes[i], valid[i] = code, true
	}
	out, err := d.WithColumn(NewStringColumn(outCol, codes, valid))
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		out.addWarning(w)
	}
	return out, nil
}
