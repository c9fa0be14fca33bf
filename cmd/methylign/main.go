// Command methylign maps bisulfite-converted sequencing reads against
// a pre-built genome index, writing SAM records and a stats summary.
// Its command structure mirrors the teacher's cobra root command with
// build/filter/version subcommands, adapted to map/version.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"github.com/masarunakajima/methylign/internal/fastq"
	"github.com/masarunakajima/methylign/internal/gindex"
	"github.com/masarunakajima/methylign/internal/mapper"
	"github.com/masarunakajima/methylign/internal/pipeline"
	"github.com/masarunakajima/methylign/internal/samout"
)

const version = "1.0.0"

func mapCommand() *cobra.Command {
	var (
		indexFile   string
		outFile     string
		statsFile   string
		reads1      string
		reads2      string
		threads     int
		batchSize   int
		maxCand     int
		sensitive   bool
		maxMates    int
		minFragment int
		maxFragment int
		maxEditFrac float64
		allowAmbig  bool
		pbat        bool
		randomPbat  bool
		aRich       bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Map bisulfite-converted reads against a genome index",
		Long: `map aligns single-end or paired-end bisulfite-converted FASTQ reads
against an index built ahead of time, writing SAM records and a
.mapstats summary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(mapOptions{
				indexFile, outFile, statsFile, reads1, reads2,
				threads, batchSize, maxCand, sensitive, maxMates,
				minFragment, maxFragment, maxEditFrac, allowAmbig,
				pbat, randomPbat, aRich, verbose,
			})
		},
	}

	cmd.Flags().StringVarP(&indexFile, "index", "i", "", "index file (required)")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "SAM output (stdout if omitted)")
	cmd.Flags().StringVarP(&statsFile, "stats", "m", "", "stats output (default <out>.mapstats)")
	cmd.Flags().StringVarP(&reads1, "reads1", "1", "", "FASTQ reads file, or mate 1 for paired-end")
	cmd.Flags().StringVarP(&reads2, "reads2", "2", "", "FASTQ mate 2 for paired-end")
	cmd.Flags().IntVarP(&threads, "threads", "t", 1, "worker threads")
	cmd.Flags().IntVarP(&batchSize, "batch", "b", 20000, "batch size")
	cmd.Flags().IntVarP(&maxCand, "max-candidates", "c", 0, "max candidates per seed (0: a quarter of the index's candidate cap; genome size is not used)")
	cmd.Flags().BoolVarP(&sensitive, "sensitive", "s", false, "sensitive mode (raises candidate cap)")
	cmd.Flags().IntVarP(&maxMates, "max-mates", "p", 20, "max paired-end mates")
	cmd.Flags().IntVarP(&minFragment, "min-fragment", "l", 32, "min fragment length")
	cmd.Flags().IntVarP(&maxFragment, "max-fragment", "L", 3000, "max fragment length")
	cmd.Flags().Float64VarP(&maxEditFrac, "max-edit-frac", "M", 0.1, "max fractional edit distance")
	cmd.Flags().BoolVarP(&allowAmbig, "allow-ambig", "a", false, "report ambiguous mappings (secondary)")
	cmd.Flags().BoolVarP(&pbat, "pbat", "P", false, "PBAT: single-end A-rich / PE conversion-flipped")
	cmd.Flags().BoolVarP(&randomPbat, "random-pbat", "R", false, "random-PBAT: four-combination search")
	cmd.Flags().BoolVarP(&aRich, "a-rich", "A", false, "single-end A-rich reads")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	cmd.MarkFlagRequired("index")
	cmd.MarkFlagRequired("reads1")
	return cmd
}

type mapOptions struct {
	indexFile, outFile, statsFile, reads1, reads2 string
	threads, batchSize, maxCand                   int
	sensitive                                      bool
	maxMates, minFragment, maxFragment             int
	maxEditFrac                                    float64
	allowAmbig, pbat, randomPbat, aRich, verbose   bool
}

func conversionMode(o mapOptions) mapper.ConversionMode {
	switch {
	case o.randomPbat:
		return mapper.ConvRandomPBAT
	case o.pbat:
		return mapper.ConvPBAT
	case o.aRich:
		return mapper.ConvARich
	default:
		return mapper.ConvDefault
	}
}

func runMap(o mapOptions) error {
	if o.verbose {
		log.Printf("loading index from %s", o.indexFile)
	}
	idx, err := gindex.Load(o.indexFile)
	if err != nil {
		return fmt.Errorf("methylign: %w", err)
	}

	maxCand := o.maxCand
	if maxCand == 0 {
		maxCand = idx.MaxMaxCandidates / 4
	}
	if o.sensitive {
		maxCand *= 4
	}

	cfg := pipeline.DefaultConfig()
	cfg.Workers = o.threads
	cfg.BatchSize = o.batchSize
	cfg.MaxCandidates = maxCand
	cfg.AllowAmbig = o.allowAmbig
	cfg.MaxEditFrac = o.maxEditFrac
	cfg.Mode = conversionMode(o)
	cfg.PE = mapper.PEConfig{
		MinDist:  uint32(o.minFragment),
		MaxDist:  uint32(o.maxFragment),
		MaxMates: o.maxMates,
	}

	out, closeOut, err := openOutput(o.outFile)
	if err != nil {
		return fmt.Errorf("methylign: %w", err)
	}
	defer closeOut()
	w := bufio.NewWriter(out)
	defer w.Flush()

	if err := samout.WriteHeader(w, idx.ChromLookup, "methylign", version, commandLine()); err != nil {
		return fmt.Errorf("methylign: writing SAM header: %w", err)
	}

	statsFile := o.statsFile
	if statsFile == "" {
		statsFile = o.outFile + ".mapstats"
		if o.outFile == "" {
			statsFile = "methylign.mapstats"
		}
	}

	if o.reads2 != "" {
		return runPaired(idx, o, cfg, w, statsFile)
	}
	return runSingle(idx, o, cfg, w, statsFile)
}

func runSingle(idx *gindex.Index, o mapOptions, cfg pipeline.Config, w *bufio.Writer, statsFile string) error {
	r, err := fastq.Open(o.reads1)
	if err != nil {
		return fmt.Errorf("methylign: %w", err)
	}
	defer r.Close()

	bar := progressBar(o.reads1, o.verbose)
	if bar != nil {
		defer bar.Finish()
	}

	st, err := pipeline.RunSingleEnd(idx, r, w, cfg)
	if err != nil {
		return fmt.Errorf("methylign: %w", err)
	}
	if bar != nil {
		bar.SetCurrent(st.Total)
	}

	f, err := os.Create(statsFile)
	if err != nil {
		return fmt.Errorf("methylign: writing stats: %w", err)
	}
	defer f.Close()
	st.WriteTo(f)
	if o.verbose {
		log.Printf("mapped %d reads (%d unique, %d ambiguous, %d unmapped, %d skipped)",
			st.Total, st.Unique, st.Ambiguous, st.Unmapped, st.Skipped)
	}
	return nil
}

func runPaired(idx *gindex.Index, o mapOptions, cfg pipeline.Config, w *bufio.Writer, statsFile string) error {
	r1, err := fastq.Open(o.reads1)
	if err != nil {
		return fmt.Errorf("methylign: %w", err)
	}
	defer r1.Close()
	r2, err := fastq.Open(o.reads2)
	if err != nil {
		return fmt.Errorf("methylign: %w", err)
	}
	defer r2.Close()

	bar := progressBar(o.reads1, o.verbose)
	if bar != nil {
		defer bar.Finish()
	}

	st, err := pipeline.RunPairedEnd(idx, r1, r2, w, cfg)
	if err != nil {
		return fmt.Errorf("methylign: %w", err)
	}
	if bar != nil {
		bar.SetCurrent(st.TotalPairs)
	}

	f, err := os.Create(statsFile)
	if err != nil {
		return fmt.Errorf("methylign: writing stats: %w", err)
	}
	defer f.Close()
	st.WriteTo(f)
	if o.verbose {
		log.Printf("mapped %d pairs (%d unique, %d ambiguous, %d unmapped)",
			st.TotalPairs, st.UniquePairs, st.AmbigPairs, st.UnmappedPairs)
	}
	return nil
}

// progressBar sizes a pb/v3 bar from the read count, mirroring the
// teacher's countReads-then-pb.Full.Start64 pattern. Returns nil when
// not verbose or the count can't be had cheaply.
func progressBar(filename string, verbose bool) *pb.ProgressBar {
	if !verbose {
		return nil
	}
	n, err := fastq.CountRecords(filename)
	if err != nil || n == 0 {
		return nil
	}
	bar := pb.Full.Start64(n)
	bar.Set(pb.Bytes, false)
	return bar
}

func openOutput(path string) (f *os.File, closeFn func(), err error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err = os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func commandLine() string {
	return strings.Join(os.Args, " ")
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("methylign version %s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "methylign",
		Short: "Bisulfite-aware short read mapper",
		Long: `methylign: seed-and-extend mapper for bisulfite-converted
sequencing reads.

Maps single-end or paired-end FASTQ reads against a pre-built genome
index, accounting for C->T (and G->A) bisulfite conversion on either
strand, and writes SAM records plus a mapping-rate summary.`,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(mapCommand())
	rootCmd.AddCommand(versionCommand())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
