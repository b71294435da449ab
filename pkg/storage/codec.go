package storage

import (
	"encoding/json"

	"github.com/jgwall/proj-livia/internal/types"
)

func EncodeRun(run types.RunRecord) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRun(data []byte) (types.RunRecord, error) {
	var run types.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return types.RunRecord{}, err
	}
	return run, nil
}

func EncodeFitnessHistory(history []float64) ([]byte, error) {
	if history == nil {
		history = []float64{}
	}
	return json.Marshal(history)
}

func DecodeFitnessHistory(data []byte) ([]float64, error) {
	var history []float64
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}
