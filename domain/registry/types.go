package registry

// Record is one public-register entry as returned by the upstream API.
// The upstream schema is not contractual, so records stay open maps; only
// the fields the flattening and extraction rules depend on are interpreted,
// everything else passes through opaquely to the raw sheets.
type Record map[string]any

// Company type categories exposed by the register's list endpoint.
const (
	TypeAll          = "All"
	TypeFinancial    = "Financial - related"
	TypeWealthAsset  = "Wealth & Asset Management"
	TypeNonFinancial = "Non - financial"
)

// CompanyTypes lists the selectable categories in display order.
var CompanyTypes = []string{TypeAll, TypeFinancial, TypeWealthAsset, TypeNonFinancial}

// ValidCompanyType reports whether s is a known category selector.
func ValidCompanyType(s string) bool {
	for _, t := range CompanyTypes {
		if s == t {
			return true
		}
	}
	return false
}

// NormalizedColumns is the fixed column order of the normalized detail sheet.
var NormalizedColumns = []string{
	"ID",
	"Name",
	"RegisteredNumber",
	"Type",
	"Status",
	"Location",
	"Website",
	"Contact 1",
	"Contact 2",
	"Contact 3",
	"Contact 4",
	"URL",
}

// ContactSlots is the number of contact columns in a normalized detail row.
// Directors beyond this count are ignored; missing slots stay blank.
const ContactSlots = 4

// LocationFallback is emitted when a detail record carries no building
// coordinates.
const LocationFallback = "DIFC, Dubai"

const detailURLPrefix = "https://www.difc.com/business/public-register/public-register-details?companyId="

// DetailURL returns the public detail-page URL for a company identifier.
func DetailURL(id string) string {
	return detailURLPrefix + id
}

// ID returns the record's identifier, or "" when absent.
func (r Record) ID() string {
	id, _ := r["Id"].(string)
	return id
}

// CompanyType returns the record's category, or "" when absent.
func (r Record) CompanyType() string {
	t, _ := r["Company_Type__c"].(string)
	return t
}
