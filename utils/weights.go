package utils

import (
	"encoding/json"
	"os"

	"levelgan/tensor"

	"github.com/pkg/errors"
)

// WeightData represents serializable weight data for a layer
type WeightData struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// ModelWeights represents all weights in a model
type ModelWeights struct {
	Version string                 `json:"version"`
	Layers  map[string]LayerWeight `json:"layers"`
}

// LayerWeight contains weights and bias for a layer
type LayerWeight struct {
	Weight *WeightData `json:"weight,omitempty"`
	Bias   *WeightData `json:"bias,omitempty"`
}

// SaveWeights saves model weights to a JSON file
func SaveWeights(filepath string, weights *ModelWeights) error {
	data, err := json.MarshalIndent(weights, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal weights")
	}
	return os.WriteFile(filepath, data, 0644)
}

// LoadWeights loads model weights from a JSON file
func LoadWeights(filepath string) (*ModelWeights, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrap(err, "read weights file")
	}
	var weights ModelWeights
	if err := json.Unmarshal(data, &weights); err != nil {
		return nil, errors.Wrap(err, "unmarshal weights")
	}
	return &weights, nil
}

// TensorToWeightData converts a tensor to serializable weight data
func TensorToWeightData(name string, t *tensor.Tensor) *WeightData {
	return &WeightData{
		Name:  name,
		Shape: append([]int{}, t.Shape...),
		Data:  append([]float64{}, t.Data...), // copy
	}
}

// WeightDataToTensor converts weight data back to a tensor
func WeightDataToTensor(wd *WeightData) *tensor.Tensor {
	t := tensor.New(wd.Shape...)
	copy(t.Data, wd.Data)
	return t
}

// SaveTensor persists a single tensor (e.g. an optimal noise map) as JSON.
func SaveTensor(filepath, name string, t *tensor.Tensor) error {
	data, err := json.MarshalIndent(TensorToWeightData(name, t), "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal tensor")
	}
	return os.WriteFile(filepath, data, 0644)
}

// LoadTensor reads a tensor persisted by SaveTensor.
func LoadTensor(filepath string) (*tensor.Tensor, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrap(err, "read tensor file")
	}
	var wd WeightData
	if err := json.Unmarshal(data, &wd); err != nil {
		return nil, errors.Wrap(err, "unmarshal tensor")
	}
	return WeightDataToTensor(&wd), nil
}
