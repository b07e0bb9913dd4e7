package models

import (
	"fmt"
	"os"
	"path/filepath"

	"levelgan/nn/layers"
	"levelgan/tensor"
	"levelgan/utils"

	"github.com/pkg/errors"
)

const (
	generatorFile     = "generator.json"
	discriminatorFile = "discriminator.json"
	zOptFile          = "z_opt.json"
)

// SaveNetworks persists the trained generator, discriminator and optimal
// noise map of one scale under outf.
func SaveNetworks(g *Generator, d *Discriminator, zOpt *tensor.Tensor, outf string) error {
	if err := os.MkdirAll(outf, 0755); err != nil {
		return errors.Wrap(err, "create output dir")
	}
	if err := utils.SaveWeights(filepath.Join(outf, generatorFile), convWeights(g.Convs())); err != nil {
		return errors.Wrap(err, "save generator")
	}
	if err := utils.SaveWeights(filepath.Join(outf, discriminatorFile), convWeights(d.Convs())); err != nil {
		return errors.Wrap(err, "save discriminator")
	}
	if err := utils.SaveTensor(filepath.Join(outf, zOptFile), "z_opt", zOpt); err != nil {
		return errors.Wrap(err, "save optimal noise")
	}
	return nil
}

// LoadNetworks restores generator and discriminator weights saved by
// SaveNetworks into models of the same architecture, and returns the optimal
// noise map.
func LoadNetworks(g *Generator, d *Discriminator, outf string) (*tensor.Tensor, error) {
	gw, err := utils.LoadWeights(filepath.Join(outf, generatorFile))
	if err != nil {
		return nil, errors.Wrap(err, "load generator")
	}
	if err := applyConvWeights(g.Convs(), gw); err != nil {
		return nil, errors.Wrap(err, "apply generator weights")
	}
	dw, err := utils.LoadWeights(filepath.Join(outf, discriminatorFile))
	if err != nil {
		return nil, errors.Wrap(err, "load discriminator")
	}
	if err := applyConvWeights(d.Convs(), dw); err != nil {
		return nil, errors.Wrap(err, "apply discriminator weights")
	}
	zOpt, err := utils.LoadTensor(filepath.Join(outf, zOptFile))
	if err != nil {
		return nil, errors.Wrap(err, "load optimal noise")
	}
	return zOpt, nil
}

func convWeights(convs []*layers.Conv2D) *utils.ModelWeights {
	w := &utils.ModelWeights{
		Version: "1.0",
		Layers:  make(map[string]utils.LayerWeight),
	}
	for i, c := range convs {
		w.Layers[layerKey(i)] = utils.LayerWeight{
			Weight: utils.TensorToWeightData("weight", c.W.Data),
			Bias:   utils.TensorToWeightData("bias", c.B.Data),
		}
	}
	return w
}

func applyConvWeights(convs []*layers.Conv2D, w *utils.ModelWeights) error {
	for i, c := range convs {
		lw, ok := w.Layers[layerKey(i)]
		if !ok {
			return fmt.Errorf("missing layer %q in checkpoint", layerKey(i))
		}
		if len(lw.Weight.Data) != len(c.W.Data.Data) || len(lw.Bias.Data) != len(c.B.Data.Data) {
			return fmt.Errorf("layer %q size mismatch", layerKey(i))
		}
		copy(c.W.Data.Data, lw.Weight.Data)
		copy(c.B.Data.Data, lw.Bias.Data)
	}
	return nil
}

func layerKey(i int) string {
	return fmt.Sprintf("conv_%d", i)
}
