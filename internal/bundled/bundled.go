// Package bundled holds the copies of the default tables and the encounter
// prompt template shipped inside the binary, used when no remote source is
// reachable.
package bundled

import "embed"

//go:embed data/*.csv data/*.txt
var FS embed.FS

const (
	TropesFile          = "data/tropes.csv"
	EncounterFile       = "data/encounter_inputs.csv"
	EncounterTropesFile = "data/encounter_tropes.csv"
	PromptTemplateFile  = "data/encounter_prompt_template.txt"
)
