package registry

import "strings"

// Activities joins the names of a record's license activities with "; ",
// preserving the order of License_Activities__r.records. Activities with
// an empty name are skipped.
func Activities(rec Record) string {
	lic, _ := rec["License_Activities__r"].(map[string]any)
	items, _ := lic["records"].([]any)
	names := make([]string, 0, len(items))
	for _, it := range items {
		m, _ := it.(map[string]any)
		act, _ := m["Activity__r"].(map[string]any)
		if name, _ := act["Name"].(string); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, "; ")
}

// Flatten copies a summary record and adds the two derived fields
// License_Activities and DIFC_URL. The input record is not modified.
func Flatten(rec Record) Record {
	flat := make(Record, len(rec)+2)
	for k, v := range rec {
		flat[k] = v
	}
	flat["License_Activities"] = Activities(rec)
	flat["DIFC_URL"] = DetailURL(rec.ID())
	return flat
}

// FilterByType keeps records whose Company_Type__c equals companyType.
// TypeAll keeps everything. An empty result is valid, not an error.
func FilterByType(records []Record, companyType string) []Record {
	if companyType == TypeAll {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.CompanyType() == companyType {
			out = append(out, rec)
		}
	}
	return out
}
