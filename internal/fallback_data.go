package internal

import (
	"bytes"
	"encoding/csv"
)

// FallbackTropes is the built-in pool used when no other source works.
var FallbackTropes = Pool{
	{ID: "1", Name: "The Chosen One", Detail: "A character destined to save the world, often marked by prophecy or special birth circumstances."},
	{ID: "2", Name: "Ancient Evil Awakens", Detail: "A long-dormant malevolent force stirs from its slumber, threatening to plunge the world into darkness."},
	{ID: "3", Name: "Lost Heir to the Throne", Detail: "The rightful ruler's bloodline was thought extinct, but a survivor emerges to reclaim their birthright."},
	{ID: "4", Name: "MacGuffin Quest", Detail: "Heroes must find a powerful artifact that is crucial to preventing disaster."},
	{ID: "5", Name: "Mentor's Sacrifice", Detail: "The wise teacher dies protecting their student, providing a crucial lesson in their final moments."},
	{ID: "6", Name: "Betrayal by Ally", Detail: "A trusted companion reveals their true allegiance, turning against the heroes at a crucial moment."},
	{ID: "7", Name: "Race Against Time", Detail: "Heroes have a limited timeframe to complete their mission before catastrophic consequences occur."},
	{ID: "8", Name: "Fish Out of Water", Detail: "A character is placed in an unfamiliar environment where their usual skills and knowledge don't apply."},
}

// FallbackCategories holds two built-in values per encounter category.
var FallbackCategories = map[CategoryKey][]string{
	CategoryLocation:          {"Abandoned watchtower", "Crossroads inn"},
	CategoryFantasticalNature: {"Shadows move on their own", "Gravity is weaker here"},
	CategoryCurrentState:      {"Recently looted", "Under quarantine"},
	CategorySituation:         {"A messenger arrives wounded", "Two rivals demand a duel"},
	CategoryComplication:      {"Reinforcements are coming", "An innocent is caught in the middle"},
	CategoryNPC:               {"A wandering bard", "A suspicious tax collector"},
	CategoryAdversaries:       {"Bandits", "Restless dead"},
}

// FallbackTropesCSV renders FallbackTropes as a record table.
func FallbackTropesCSV() string {
	rows := [][]string{{"#", "Trope name", "Trope detail"}}
	for _, r := range FallbackTropes {
		rows = append(rows, []string{r.ID, r.Name, r.Detail})
	}
	return writeCSV(rows)
}

// FallbackEncounterCSV renders FallbackCategories as an encounter table.
func FallbackEncounterCSV() string {
	header := make([]string, len(CategoryKeys))
	for i, k := range CategoryKeys {
		header[i] = categoryHeaders[k][0]
	}
	rows := [][]string{header}
	for i := 0; i < 2; i++ {
		row := make([]string, len(CategoryKeys))
		for j, k := range CategoryKeys {
			if vals := FallbackCategories[k]; i < len(vals) {
				row[j] = vals[i]
			}
		}
		rows = append(rows, row)
	}
	return writeCSV(rows)
}

// FallbackEncounterSize is the value count of the built-in encounter table.
func FallbackEncounterSize() int {
	n := 0
	for _, vals := range FallbackCategories {
		n += len(vals)
	}
	return n
}

func writeCSV(rows [][]string) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.WriteAll(rows)
	return buf.String()
}
