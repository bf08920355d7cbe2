package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/cbegin/avsync-go"
	"github.com/cbegin/avsync-go/internal/config"
)

func main() {
	var (
		fps     = flag.Float64("fps", 30, "frames per second")
		from    = flag.Float64("from", 0, "start time in seconds")
		to      = flag.Float64("to", 0, "end time in seconds (0 = full duration)")
		bpm     = flag.Float64("bpm", 120, "synthetic metronome tempo; 0 renders silence")
		rate    = flag.Int("sample-rate", 0, "metronome sample rate (0 = configured rate)")
		seed    = flag.Uint64("seed", 1, "random seed")
		mobile  = flag.Bool("mobile", false, "use the reduced mobile profile")
		cfgPath = flag.String("config", "", "YAML config file layered over the defaults")
		spins   = flag.String("spins", "", "comma-separated times to request a manual spin")
		outPath = flag.String("out", "-", "output JSONL path, - for stdout")
		verbose = flag.Bool("v", false, "log lifecycle messages to stderr")
	)
	flag.Parse()

	opts := avsync.RenderOptions{
		FPS:        *fps,
		From:       *from,
		To:         *to,
		BPM:        *bpm,
		SampleRate: *rate,
		Seed:       *seed,
		Mobile:     *mobile,
	}
	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath, *mobile)
		if err != nil {
			log.Fatal(err)
		}
		opts.Config = &cfg
	}
	times, err := parseTimes(*spins)
	if err != nil {
		log.Fatal(err)
	}
	opts.Spins = times
	if *verbose {
		opts.Logger = log.New(os.Stderr, "avsync: ", log.LstdFlags)
	}

	var w io.Writer = os.Stdout
	if *outPath != "-" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)
	if err := avsync.RenderTimeline(opts, avsync.EncodeJSONL(bw)); err != nil {
		log.Fatal(err)
	}
	if err := bw.Flush(); err != nil {
		log.Fatal(err)
	}
}

func parseTimes(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []float64
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid -spins entry %q: %w", part, err)
		}
		if len(out) > 0 && v < out[len(out)-1] {
			return nil, fmt.Errorf("invalid -spins: %v after %v, times must ascend", v, out[len(out)-1])
		}
		out = append(out, v)
	}
	return out, nil
}
