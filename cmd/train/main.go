// levelgan-train: multi-scale adversarial trainer for token-based game levels
//
// Usage:
//
//	levelgan-train --game=mario --level=lvl_1-1.txt --niter=4000 --out=output
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"levelgan/games"
	"levelgan/models"
	"levelgan/train"
	"levelgan/utils"
)

var (
	gameName    = flag.String("game", "mario", "Game: mario, sonic, sonic_commercial, mariokart")
	levelPath   = flag.String("level", "", "ASCII level file (one row per line); built-in sample if empty")
	niter       = flag.Int("niter", 4000, "Training epochs per scale")
	numScales   = flag.Int("scales", 3, "Number of scales in the pyramid")
	scaleFactor = flag.Float64("scale_factor", 0.75, "Downscale factor between scales")
	numLayer    = flag.Int("num_layer", 3, "Conv layers per network")
	nfc         = flag.Int("nfc", 64, "Hidden conv filters")
	lrD         = flag.Float64("lr_d", 0.0005, "Discriminator learning rate")
	lrG         = flag.Float64("lr_g", 0.0005, "Generator learning rate")
	alpha       = flag.Float64("alpha", 100, "Reconstruction loss weight (0 disables)")
	lambdaGrad  = flag.Float64("lambda_grad", 0.1, "Gradient penalty weight")
	dSteps      = flag.Int("dsteps", 3, "Discriminator iterations per epoch")
	gSteps      = flag.Int("gsteps", 3, "Generator iterations per epoch")
	tokenInsert = flag.Int("token_insert", -2, "Token-group insertion scale (-2 disables)")
	padNoise    = flag.Bool("pad_with_noise", false, "Use reflection padding instead of zero padding")
	outf        = flag.String("out", "output", "Output directory")
	trackFile   = flag.String("track", "", "JSONL metrics file (disabled if empty)")
	seed        = flag.Int64("seed", 42, "Random seed")
	verbose     = flag.Bool("verbose", true, "Verbose output")
)

// sampleLevel is a small Mario-style strip used when no level file is given.
var sampleLevel = []string{
	"--------------------",
	"--------------------",
	"----------o---------",
	"-----Q----------Q---",
	"--------------------",
	"---------tt---------",
	"----E----tt------E--",
	"XXXXXXXXXXXXXXXXXXXX",
	"XXXXXXXXXXXXXXXXXXXX",
}

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	game, err := games.ParseGame(*gameName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	lines := sampleLevel
	if *levelPath != "" {
		lines, err = readLevel(*levelPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading level: %v\n", err)
			os.Exit(1)
		}
	}
	level, err := games.ASCIIToOneHot(lines, game.Tokens())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding level: %v\n", err)
		os.Exit(1)
	}

	cfg := train.NewConfig(game, *outf, *seed)
	cfg.Niter = *niter
	cfg.NumScales = *numScales
	cfg.ScaleFactor = *scaleFactor
	cfg.NumLayer = *numLayer
	cfg.LRD = *lrD
	cfg.LRG = *lrG
	cfg.Alpha = *alpha
	cfg.LambdaGrad = *lambdaGrad
	cfg.Dsteps = *dSteps
	cfg.Gsteps = *gSteps
	cfg.TokenInsert = *tokenInsert
	cfg.PadWithNoise = *padNoise

	if *trackFile != "" {
		tracker, err := utils.NewJSONLTracker(*trackFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer tracker.Close()
		cfg.Tracker = tracker
	}

	fmt.Println("levelgan trainer")
	fmt.Printf("\nConfiguration:\n")
	fmt.Printf("  Game:         %s\n", game)
	fmt.Printf("  Level:        %dx%d, %d tokens\n", level.Shape[2], level.Shape[3], level.Shape[1])
	fmt.Printf("  Scales:       %d (factor %.2f)\n", cfg.NumScales, cfg.ScaleFactor)
	fmt.Printf("  Epochs/scale: %d (D=%d, G=%d per epoch)\n", cfg.Niter, cfg.Dsteps, cfg.Gsteps)
	fmt.Printf("  LR:           D=%.4g G=%.4g\n", cfg.LRD, cfg.LRG)
	fmt.Printf("  Alpha:        %.4g  Lambda: %.4g\n", cfg.Alpha, cfg.LambdaGrad)
	fmt.Println()

	reals := train.BuildPyramid(level, cfg.NumScales, cfg.ScaleFactor, cfg.MinSize())

	modelRng := rand.New(rand.NewSource(*seed))
	newD := func(scale, nc int) train.Discriminator {
		return models.NewDiscriminator(nc, *nfc, cfg.NumLayer, modelRng)
	}
	newG := func(scale, nc int) train.Generator {
		return models.NewGenerator(nc, *nfc, cfg.NumLayer, modelRng)
	}

	start := time.Now()
	result, err := train.Train(reals, newD, newG, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Training failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nTraining complete: %d scales in %.2fs\n", len(result.Generators), time.Since(start).Seconds())
	fmt.Printf("Artifacts written to %s\n", *outf)
}

func readLevel(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}
