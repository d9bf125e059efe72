package mapserver

import (
	"encoding/json"
	"fmt"
)

// ServiceRef is one entry in a services index listing. Name may be folder
// qualified ("RDW_Wildfire/RMRS_WildfireHazardPotential_2023").
type ServiceRef struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Index is the directory listing returned by `rest/services?f=pjson` at the
// root or for a single folder.
type Index struct {
	CurrentVersion *float64     `json:"currentVersion,omitempty"`
	Folders        []string     `json:"folders,omitempty"`
	Services       []ServiceRef `json:"services,omitempty"`
}

// DecodeIndex parses a services index payload.
func DecodeIndex(data []byte) (*Index, error) {
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("decode services index: %w", err)
	}
	return &idx, nil
}
