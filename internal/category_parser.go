package internal

// categoryHeaders maps each category to its accepted normalized headers.
var categoryHeaders = map[CategoryKey][]string{
	CategoryLocation:          {"location"},
	CategoryFantasticalNature: {"fantastical nature"},
	CategoryCurrentState:      {"current state of location", "current state"},
	CategorySituation:         {"situation"},
	CategoryComplication:      {"complication"},
	CategoryNPC:               {"npc"},
	CategoryAdversaries:       {"adversaries"},
}

// ParseCategories parses the encounter input table into a CategoryTable.
// Every category header must be present; an empty cell only means that row
// contributes nothing to that category.
func ParseCategories(raw string) (*CategoryTable, error) {
	headers, rows, _, err := readTable(raw)
	if err != nil {
		return nil, err
	}

	lookup := headerIndex(headers)
	cols := make(map[CategoryKey]int, len(CategoryKeys))
	var missing []string
	for _, k := range CategoryKeys {
		col := resolveColumn(lookup, categoryHeaders[k])
		if col < 0 {
			missing = append(missing, k.Label())
			continue
		}
		cols[k] = col
	}
	if len(missing) > 0 {
		return nil, &ParseError{Kind: MissingColumn, Columns: headers, Missing: missing}
	}

	table := NewCategoryTable()
	for _, row := range rows {
		for _, k := range CategoryKeys {
			table.Add(k, cleanCell(cell(row.fields, cols[k])))
		}
	}

	if table.Total() == 0 {
		return nil, &ParseError{Kind: EmptyResult, Columns: headers}
	}

	for _, k := range CategoryKeys {
		LogDebug("Category %s: %d value(s)", k, table.Len(k))
	}
	return table, nil
}
