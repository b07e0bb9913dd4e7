package train

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"levelgan/games"
	"levelgan/models"
	"levelgan/nn"
	"levelgan/tensor"
	"levelgan/utils"
)

// lrMilestones are the epochs at which both optimizers decay their learning
// rate by the configured gamma.
var lrMilestones = []int{1600, 2500}

// Generator is the differentiable generator contract. Forward takes the
// noise input, the image-space prior, and a temperature controlling the
// sharpness of the output token distribution (always 1 during training).
// Backward must directly follow the Forward call it differentiates.
type Generator interface {
	Forward(noise, prev *tensor.Tensor, temperature float64) (*tensor.Tensor, error)
	Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error)
	Params() []*nn.Param
	ZeroGrad()
}

// Discriminator is the differentiable critic contract. Its method set
// satisfies nn.Module, so the gradient penalty can drive it directly.
type Discriminator interface {
	Forward(x *tensor.Tensor) (*tensor.Tensor, error)
	Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error)
	Params() []*nn.Param
	ZeroGrad()
}

// ScaleResult is what a completed scale hands back to the multi-scale loop.
type ScaleResult struct {
	ZOpt               *tensor.Tensor // optimal noise map (padded)
	InputFromPrevScale *tensor.Tensor // seed input for the next scale
	G                  Generator      // trained generator
	NoiseAmp           float64        // frozen amplitude for this scale
}

// epochCtx carries the tensors computed during the discriminator phase into
// the generator phase of the same epoch.
type epochCtx struct {
	rawNoise *tensor.Tensor // padded fresh noise, drawn once per epoch
	noise    *tensor.Tensor // amp*rawNoise + prev: generator input
	prev     *tensor.Tensor // padded image-space prior (rand replay)
	zPrev    *tensor.Tensor // padded deterministic reconstruction prior
	fake     *tensor.Tensor // generator output for the fake branch
	zOptFull *tensor.Tensor // amp*zOpt + zPrev, for diagnostics
	recLoss  float64
}

// scaleTrainer bundles the per-scale training state.
type scaleTrainer struct {
	cfg          *Config
	d            Discriminator
	g            Generator
	real         *tensor.Tensor
	gens         []Generator
	noiseMaps    []*tensor.Tensor
	reals        []*tensor.Tensor
	amps         []float64
	inS          *tensor.Tensor
	currentScale int
	nzx, nzy     int
	padNoise     nn.Pad2D
	padImage     nn.Pad2D
	zOpt         *tensor.Tensor
	noiseAmp     float64
	optD, optG   *nn.Adam
}

// TrainSingleScale trains the discriminator/generator pair of one scale.
// gens/noiseMaps/amps are the chains of all completed coarser scales (empty
// at scale 0) and are never mutated. On success the scale's optimal noise
// map and model weights are persisted under cfg.Outf, and the state needed
// by the next scale is returned.
func TrainSingleScale(d Discriminator, g Generator, reals []*tensor.Tensor,
	gens []Generator, noiseMaps []*tensor.Tensor, inputFromPrevScale *tensor.Tensor,
	amps []float64, cfg *Config) (*ScaleResult, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	currentScale := len(gens)
	real := reals[currentScale]
	if real.Shape[2] < cfg.MinSize() || real.Shape[3] < cfg.MinSize() {
		return nil, fmt.Errorf("scale %d extent %dx%d smaller than the critic receptive field %d",
			currentScale, real.Shape[2], real.Shape[3], cfg.MinSize())
	}

	t := &scaleTrainer{
		cfg:          cfg,
		d:            d,
		g:            g,
		real:         real,
		gens:         gens,
		noiseMaps:    noiseMaps,
		reals:        reals,
		amps:         amps,
		inS:          inputFromPrevScale,
		currentScale: currentScale,
		nzx:          real.Shape[2],
		nzy:          real.Shape[3],
	}
	t.padNoise, t.padImage = cfg.PadFuncs()

	t.optD = nn.NewAdam(d.Params(), cfg.LRD, cfg.Beta1, 0.999)
	t.optG = nn.NewAdam(g.Params(), cfg.LRG, cfg.Beta1, 0.999)
	schedD := nn.NewMultiStepLR(t.optD, lrMilestones, cfg.Gamma)
	schedG := nn.NewMultiStepLR(t.optG, lrMilestones, cfg.Gamma)

	if currentScale == 0 {
		// Fresh random seed at the coarsest scale.
		t.zOpt = t.padNoise(cfg.Noise.Spatial(1, cfg.NcCurrent, t.nzx, t.nzy))
	} else {
		// Later scales reconstruct through the replayed chain, so the local
		// seed contributes nothing on its own.
		t.zOpt = t.padNoise(tensor.New(1, cfg.NcCurrent, t.nzx, t.nzy))
	}

	utils.Logf("Training at scale %d (%dx%d, %d channels)", currentScale, t.nzx, t.nzy, cfg.NcCurrent)

	ctx := &epochCtx{}
	for epoch := 0; epoch < cfg.Niter; epoch++ {
		step := currentScale*cfg.Niter + epoch
		ctx.rawNoise = t.padNoise(cfg.Noise.Spatial(1, cfg.NcCurrent, t.nzx, t.nzy))

		if err := t.discriminatorPhase(ctx, epoch, step); err != nil {
			return nil, err
		}
		if err := t.generatorPhase(ctx, step); err != nil {
			return nil, err
		}

		if step%10 == 0 {
			cfg.Tracker.LogScalars(map[string]float64{
				t.metric("noise_amplitude"): t.noiseAmp,
				t.metric("rec_loss"):        ctx.recLoss,
			}, step)
		}
		if epoch%500 == 0 || epoch == cfg.Niter-1 {
			if err := t.diagnostics(ctx, step); err != nil {
				return nil, err
			}
		}

		schedD.Step()
		schedG.Step()
	}

	if err := t.checkpoint(); err != nil {
		return nil, err
	}
	return &ScaleResult{
		ZOpt:               t.zOpt,
		InputFromPrevScale: t.inS,
		G:                  g,
		NoiseAmp:           t.noiseAmp,
	}, nil
}

// discriminatorPhase runs Dsteps critic iterations: maximize the score on
// the real level, minimize it on a replayed fake, and keep the input
// gradient norm near one via the gradient penalty.
func (t *scaleTrainer) discriminatorPhase(ctx *epochCtx, epoch, step int) error {
	cfg := t.cfg
	for j := 0; j < cfg.Dsteps; j++ {
		t.d.ZeroGrad()

		// Real branch.
		out, err := t.d.Forward(t.real)
		if err != nil {
			return err
		}
		errDReal := -tensor.Mean(out)
		if _, err := t.d.Backward(tensor.Full(-1/float64(out.NumElems()), out.Shape...)); err != nil {
			return err
		}

		// Fake-branch inputs are built once per epoch and reused across the
		// remaining D iterations; the amplitude is calibrated exactly once,
		// on the very first iteration of the very first epoch.
		if j == 0 {
			if epoch == 0 {
				if err := t.firstEpochSetup(ctx); err != nil {
					return err
				}
			} else {
				prev, err := t.randPrior()
				if err != nil {
					return err
				}
				ctx.prev = prev
			}
			ctx.noise, err = tensor.AddScaled(t.noiseAmp, ctx.rawNoise, ctx.prev)
			if err != nil {
				return fmt.Errorf("noise/prior mismatch: %w", err)
			}
			ctx.fake, err = t.g.Forward(ctx.noise, ctx.prev, 1)
			if err != nil {
				return err
			}
		}

		// Fake branch (detached: no gradient flows into the generator).
		out, err = t.d.Forward(ctx.fake)
		if err != nil {
			return err
		}
		errDFake := tensor.Mean(out)
		if _, err := t.d.Backward(tensor.Full(1/float64(out.NumElems()), out.Shape...)); err != nil {
			return err
		}

		gp, err := nn.GradientPenalty(t.d, t.real, ctx.fake, cfg.LambdaGrad, cfg.Rng)
		if err != nil {
			return err
		}

		if !finite(errDReal, errDFake, gp) {
			return fmt.Errorf("non-finite discriminator loss at scale %d epoch %d: real=%v fake=%v gp=%v",
				t.currentScale, epoch, errDReal, errDFake, gp)
		}
		if step%10 == 0 {
			cfg.Tracker.LogScalars(map[string]float64{
				t.metric("D(G(z))"):          errDFake,
				t.metric("D(x)"):             -errDReal,
				t.metric("gradient_penalty"): gp,
			}, step)
		}
		t.optD.Step()
	}
	return nil
}

// generatorPhase runs Gsteps generator iterations: raise the critic's score
// on the fake and, when alpha is nonzero, keep the fixed optimal noise able
// to reproduce the real level exactly.
func (t *scaleTrainer) generatorPhase(ctx *epochCtx, step int) error {
	cfg := t.cfg
	for j := 0; j < cfg.Gsteps; j++ {
		t.g.ZeroGrad()

		fake, err := t.g.Forward(ctx.noise, ctx.prev, 1)
		if err != nil {
			return err
		}
		out, err := t.d.Forward(fake)
		if err != nil {
			return err
		}
		errG := -tensor.Mean(out)
		// The critic's parameter gradients picked up here are discarded by
		// the ZeroGrad at the start of the next discriminator iteration.
		dFake, err := t.d.Backward(tensor.Full(-1/float64(out.NumElems()), out.Shape...))
		if err != nil {
			return err
		}
		if _, err := t.g.Backward(dFake); err != nil {
			return err
		}

		ctx.recLoss = 0
		ctx.zOptFull = t.zOpt
		if cfg.Alpha != 0 {
			zOptFull, err := tensor.AddScaled(t.noiseAmp, t.zOpt, ctx.zPrev)
			if err != nil {
				return fmt.Errorf("z_opt/z_prev mismatch: %w", err)
			}
			gRec, err := t.g.Forward(zOptFull, ctx.zPrev, 1)
			if err != nil {
				return err
			}
			mse, err := tensor.MSE(gRec, t.real)
			if err != nil {
				return fmt.Errorf("reconstruction/real mismatch: %w", err)
			}
			ctx.recLoss = cfg.Alpha * mse
			diff, err := tensor.Sub(gRec, t.real)
			if err != nil {
				return err
			}
			grad := tensor.Scale(cfg.Alpha*2/float64(gRec.NumElems()), diff)
			if _, err := t.g.Backward(grad); err != nil {
				return err
			}
			ctx.zOptFull = zOptFull
		}

		if !finite(errG, ctx.recLoss) {
			return fmt.Errorf("non-finite generator loss at scale %d step %d: adv=%v rec=%v",
				t.currentScale, step, errG, ctx.recLoss)
		}
		t.optG.Step()
	}
	return nil
}

// firstEpochSetup builds the fake-branch priors for epoch 0 and fixes the
// noise amplitude for the whole scale. At the coarsest scale there is
// nothing to replay and the amplitude is 1; at later scales both replay
// passes run, and the rec pass calibrates the amplitude from the
// reconstruction error.
func (t *scaleTrainer) firstEpochSetup(ctx *epochCtx) error {
	cfg := t.cfg
	if t.currentScale == 0 {
		prev := tensor.New(1, cfg.NcCurrent, t.nzx, t.nzy)
		t.inS = prev
		ctx.prev = t.padImage(prev)
		ctx.zPrev = t.padNoise(tensor.New(1, cfg.NcCurrent, t.nzx, t.nzy))
		t.noiseAmp = 1
		return nil
	}

	prev, err := t.randPrior()
	if err != nil {
		return err
	}
	ctx.prev = prev

	zPrev, err := DrawConcat(t.gens, t.noiseMaps, t.reals, t.amps, t.inS, ModeRec, t.padNoise, t.padImage, cfg)
	if err != nil {
		return err
	}
	zPrev = t.seedTransform(zPrev)
	zPrev = tensor.ResizeBilinear(zPrev, t.nzx, t.nzy)
	amp, err := UpdateNoiseAmplitude(zPrev, t.real, cfg.NoiseUpdate)
	if err != nil {
		return fmt.Errorf("amplitude calibration: %w", err)
	}
	t.noiseAmp = amp
	ctx.zPrev = t.padImage(zPrev)
	return nil
}

// randPrior replays the chain in rand mode and adapts the result to the
// current scale: seeding transform, resize, pad.
func (t *scaleTrainer) randPrior() (*tensor.Tensor, error) {
	prev, err := DrawConcat(t.gens, t.noiseMaps, t.reals, t.amps, t.inS, ModeRand, t.padNoise, t.padImage, t.cfg)
	if err != nil {
		return nil, err
	}
	prev = t.seedTransform(prev)
	prev = tensor.ResizeBilinear(prev, t.nzx, t.nzy)
	return t.padImage(prev), nil
}

// seedTransform converts a token-group encoding back to the full token
// encoding when this scale is the one right after the insertion scale.
func (t *scaleTrainer) seedTransform(x *tensor.Tensor) *tensor.Tensor {
	if t.currentScale == t.cfg.TokenInsert+1 {
		return games.GroupToToken(x, t.cfg.TokenList, t.cfg.TokenGroups)
	}
	return x
}

// diagnostics renders the current fake, the reconstruction and the real
// level as ASCII and pushes them to the tracker; the real level is also
// written next to the run artifacts.
func (t *scaleTrainer) diagnostics(ctx *epochCtx, step int) error {
	cfg := t.cfg
	tokenList := cfg.TokenList
	if cfg.TokenInsert >= 0 && cfg.NcCurrent == len(cfg.TokenGroups) {
		tokenList = games.GroupTokenList(cfg.TokenGroups)
	}

	cfg.Tracker.LogText(t.metric("G(z)"), games.OneHotToASCII(ctx.fake, tokenList), step)

	rec, err := t.g.Forward(ctx.zOptFull, ctx.zPrev, 1)
	if err != nil {
		return err
	}
	cfg.Tracker.LogText(t.metric("G(z_opt)"), games.OneHotToASCII(rec, tokenList), step)

	realLines := games.OneHotToASCII(t.real, tokenList)
	cfg.Tracker.LogText(t.metric("real"), realLines, step)

	if err := os.MkdirAll(cfg.Outf, 0755); err != nil {
		return err
	}
	path := filepath.Join(cfg.Outf, fmt.Sprintf("real@%d.txt", t.currentScale))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, line := range realLines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			return err
		}
	}
	return nil
}

// checkpoint persists the scale's networks and optimal noise map. Custom
// model implementations come back to the caller in ScaleResult and persist
// themselves.
func (t *scaleTrainer) checkpoint() error {
	g, gok := t.g.(*models.Generator)
	d, dok := t.d.(*models.Discriminator)
	if !gok || !dok {
		return nil
	}
	return models.SaveNetworks(g, d, t.zOpt, t.cfg.Outf)
}

func (t *scaleTrainer) metric(name string) string {
	return fmt.Sprintf("%s@%d", name, t.currentScale)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
