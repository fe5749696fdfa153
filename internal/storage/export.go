package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

type ExportData struct {
	Name          string             `json:"name"`
	Integrator    string             `json:"integrator"`
	Time          float64            `json:"time"`
	Samples       int                `json:"samples"`
	Concentration []float64          `json:"concentration"`
	States        [][]float64        `json:"states"`
	TotalLoss     float64            `json:"total_loss"`
	Metrics       map[string]float64 `json:"metrics"`
}

func ExportJSON(w io.Writer, meta *RunMetadata, conc []float64, states [][]float64) error {
	data := ExportData{
		Name:          meta.Name,
		Integrator:    meta.Integrator,
		Time:          meta.Time,
		Samples:       len(states),
		Concentration: conc,
		States:        states,
		TotalLoss:     meta.TotalLoss,
		Metrics:       meta.Metrics,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteCSV writes a header "C,Cf1,...,CfN" and one row per sample.
func WriteCSV(w io.Writer, conc []float64, states [][]float64) error {
	cw := csv.NewWriter(w)

	if len(states) > 0 {
		header := []string{"C"}
		for i := range states[0] {
			header = append(header, fmt.Sprintf("Cf%d", i+1))
		}
		if err := cw.Write(header); err != nil {
			return err
		}
	}

	for i, state := range states {
		row := make([]string, 0, len(state)+1)
		row = append(row, strconv.FormatFloat(conc[i], 'f', 6, 64))
		for _, val := range state {
			row = append(row, strconv.FormatFloat(val, 'f', 8, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
