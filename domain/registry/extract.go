package registry

import (
	"encoding/json"
	"fmt"
)

// ExtractNormalized builds the fixed-shape detail row for one located
// registry item. Fallback rules:
//   - Name: EntityName[0].Name, else TradingName[0].TradeName, else "".
//   - Location: JSON form of MarketingFields.BuildingCoordinates when
//     non-empty, else LocationFallback.
//   - Contact 1..4: the first four Director[].DirectorName values in array
//     order, blank-padded on the right.
func ExtractNormalized(item Record, recordID string) Record {
	name := ""
	if entities, _ := item["EntityName"].([]any); len(entities) > 0 {
		if m, _ := entities[0].(map[string]any); m != nil {
			name, _ = m["Name"].(string)
		}
	} else if trading, _ := item["TradingName"].([]any); len(trading) > 0 {
		if m, _ := trading[0].(map[string]any); m != nil {
			name, _ = m["TradeName"].(string)
		}
	}

	marketing, _ := item["MarketingFields"].(map[string]any)
	website, _ := marketing["Website"].(string)

	location := LocationFallback
	if coords := marketing["BuildingCoordinates"]; !emptyValue(coords) {
		if b, err := json.Marshal(coords); err == nil {
			location = string(b)
		}
	}

	contacts := make([]string, ContactSlots)
	directors, _ := item["Director"].([]any)
	for i := 0; i < len(directors) && i < ContactSlots; i++ {
		if m, _ := directors[i].(map[string]any); m != nil {
			contacts[i], _ = m["DirectorName"].(string)
		}
	}

	row := Record{
		"ID":               recordID,
		"Name":             name,
		"RegisteredNumber": stringField(item, "RegisteredNumber"),
		"Type":             stringField(item, "TypeOfEntity"),
		"Status":           stringField(item, "EntityStatus"),
		"Location":         location,
		"Website":          website,
		"URL":              DetailURL(recordID),
	}
	for i, c := range contacts {
		row[fmt.Sprintf("Contact %d", i+1)] = c
	}
	return row
}

// ExtractRaw builds the open-shape detail row: ID plus every top-level
// field of the item, with nested values JSON-stringified and scalars
// passed through unchanged.
func ExtractRaw(item Record, recordID string) Record {
	raw := make(Record, len(item)+1)
	raw["ID"] = recordID
	for k, v := range item {
		raw[k] = FlattenValue(v)
	}
	return raw
}

// FlattenValue JSON-stringifies nested objects and arrays; scalars are
// returned as-is.
func FlattenValue(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	default:
		return v
	}
}

func stringField(item Record, key string) string {
	s, _ := item[key].(string)
	return s
}

// emptyValue reports whether a decoded JSON value carries no content:
// nil, "", an empty array, or an empty object.
func emptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}
