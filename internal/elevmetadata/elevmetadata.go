package elevmetadata

import (
	"encoding/json"
	"fmt"

	"github.com/heislab/elevsim/internal/logger"
)

var Log = logger.GetLogger()

type ElevMetaData struct {
	SoftwareVersion string `json:"software_version"`
	Identifier      string `json:"identifier"`
	Floors          int    `json:"floors"`
	Capacity        int    `json:"capacity"`
}

func (elevMetaData *ElevMetaData) String() string {
	jsonData, err := json.Marshal(elevMetaData)

	if err != nil {
		Log.Error().Msg("Error Serialising ElevMetaData Object to JSON")
		return ""
	}
	return string(jsonData)
}

// Building describes the simulated shaft, e.g. "9 floors, 300 kg".
func (elevMetaData *ElevMetaData) Building() string {
	return fmt.Sprintf("%d floors, %d kg", elevMetaData.Floors, elevMetaData.Capacity)
}
