package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-emoscan/pkg/camera/webcam"
	"github.com/teslashibe/go-emoscan/pkg/pipeline"
)

type probeOptions struct {
	Options
	Frames   int
	Interval time.Duration
}

var probeOpts probeOptions

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Run the pipeline headless for a number of frames and summarize",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProbe(cmd, probeOpts)
	},
}

func init() {
	addDetectionFlags(probeCmd, &probeOpts.Options)
	probeCmd.Flags().IntVarP(&probeOpts.Frames, "frames", "n", 100, "Number of frames to process")
	probeCmd.Flags().DurationVar(&probeOpts.Interval, "interval", 30*time.Millisecond, "Pause between frames")
	rootCmd.AddCommand(probeCmd)
}

// probeSummary tallies pipeline outcomes.
type probeSummary struct {
	states   map[pipeline.State]int
	accepted map[string]int
	last     pipeline.Result
}

func (s *probeSummary) add(res pipeline.Result) {
	s.states[res.State]++
	if res.State == pipeline.StateAccepted {
		s.accepted[string(res.Top)]++
	}
	s.last = res
}

func (s *probeSummary) print(frames int, elapsed time.Duration) {
	fmt.Printf("\n📊 %d frames in %v (%.1f fps)\n", frames, elapsed.Round(time.Millisecond),
		float64(frames)/elapsed.Seconds())

	states := make([]pipeline.State, 0, len(s.states))
	for st := range s.states {
		states = append(states, st)
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	for _, st := range states {
		fmt.Printf("   %-18s %d\n", st, s.states[st])
	}

	if len(s.accepted) > 0 {
		fmt.Println("\n🧠 Accepted readings")
		labels := make([]string, 0, len(s.accepted))
		for l := range s.accepted {
			labels = append(labels, l)
		}
		sort.Slice(labels, func(i, j int) bool {
			if s.accepted[labels[i]] != s.accepted[labels[j]] {
				return s.accepted[labels[i]] > s.accepted[labels[j]]
			}
			return labels[i] < labels[j]
		})
		for _, l := range labels {
			fmt.Printf("   %-10s %d\n", l, s.accepted[l])
		}
	}

	fmt.Printf("\n🎯 Final: %s\n", s.last.Text)
}

func runProbe(cmd *cobra.Command, opts probeOptions) error {
	ctx := cmd.Context()

	camCfg, err := opts.cameraConfig()
	if err != nil {
		return err
	}
	pipe, clf, err := opts.newPipeline()
	if err != nil {
		return err
	}
	defer clf.Close()

	if err := pipe.Start(webcam.Opener{}, camCfg); err != nil {
		return err
	}
	defer pipe.Stop()

	bar := progressbar.NewOptions(opts.Frames,
		progressbar.OptionSetDescription("🔍 Probing"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	summary := &probeSummary{
		states:   make(map[pipeline.State]int),
		accepted: make(map[string]int),
	}
	start := time.Now()
	processed := 0

	for i := 0; i < opts.Frames; i++ {
		if ctx.Err() != nil {
			break
		}
		res := pipe.Process(ctx)
		summary.add(res)
		processed++
		bar.Describe("🔍 " + res.Text)
		bar.Add(1)

		if opts.Interval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(opts.Interval):
			}
		}
	}
	bar.Finish()

	summary.print(processed, time.Since(start))
	return nil
}
