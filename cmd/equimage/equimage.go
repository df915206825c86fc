package main

import (
	"context"
	"flag"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/ymniquet/equimage/pkg/eclip"
	"github.com/ymniquet/equimage/pkg/ecolor"
	"github.com/ymniquet/equimage/pkg/ediff"
	"github.com/ymniquet/equimage/pkg/epix"
	"github.com/ymniquet/equimage/pkg/equiio"
	"github.com/ymniquet/equimage/pkg/estack"
)

var (
	fVerbosity int

	fSession        string
	fCompareSession string
	fCompareMode    string
	fCompareAlpha   float64

	fOutputFilename string
	fLogFilename    string

	fClipPlane     string
	fClipShadow    float64
	fClipHighlight float64
	fClipFilename  string

	fPreviewDim int
	fStats      bool
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")

	flag.StringVar(&fSession, "session", "", "session YAML describing the edit to replay")
	flag.StringVar(&fCompareSession, "compare", "", "second session YAML, for A/B comparison against -session")
	flag.StringVar(&fCompareMode, "comparemode", "difference", "A/B view: difference, blend, checkerboard")
	flag.Float64Var(&fCompareAlpha, "comparealpha", 0.5, "blend weight of the B render")

	flag.StringVar(&fOutputFilename, "o", "out.png", "name of output image file (.png or .tif)")
	flag.StringVar(&fLogFilename, "log", "", "write the edit log here (plain text, plus .yaml sidecar)")

	flag.StringVar(&fClipPlane, "clipplane", "L", "plane to survey for clipping: R, G, B, V or L")
	flag.Float64Var(&fClipShadow, "clipshadow", 0, "shadow clip threshold")
	flag.Float64Var(&fClipHighlight, "cliphighlight", 1, "highlight clip threshold")
	flag.StringVar(&fClipFilename, "clipout", "", "write the clipped-pixel overlay here")

	flag.IntVar(&fPreviewDim, "previewdim", 1600, "max dimension of overlay previews, 0 for full size")
	flag.BoolVar(&fStats, "stats", false, "log per-channel statistics of the final render")

	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if fVerbosity > 0 {
		log.SetLevel(log.DebugLevel)
	}
}

func main() {
	if flag.NArg() != 1 {
		log.Fatal("usage: equimage [flags] input-image")
	}

	base, _, err := equiio.Load(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	session := estack.Session{Clamp: string(estack.ClampFinal)}
	if fSession != "" {
		if session, err = estack.LoadSession(fSession); err != nil {
			log.Fatal(err)
		}
		if fVerbosity > 0 {
			log.Debugf("session configuration:\n%s", session.AsYaml())
		}
	}

	stack, err := session.BuildStack(base)
	if err != nil {
		log.Fatal(err)
	}

	final, err := stack.Render(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	if err := equiio.WriteBuffer(final, fOutputFilename); err != nil {
		log.Fatal(err)
	}
	log.WithFields(log.Fields{"file": fOutputFilename, "ops": stack.Cursor()}).Info("edit rendered")

	if fStats {
		for _, cs := range epix.Statistics(final, ecolor.RGBLuma()) {
			log.Info(cs.String())
		}
	}
	if fLogFilename != "" {
		writeLogs(stack)
	}
	if fClipFilename != "" {
		writeClipOverlay(stack)
	}
	if fCompareSession != "" {
		writeComparison(base, final)
	}
}

// writeComparison replays the B session over the same base and writes the
// A/B composite view next to the main output.
func writeComparison(base, finalA *epix.Buffer) {
	sessionB, err := estack.LoadSession(fCompareSession)
	if err != nil {
		log.Fatal(err)
	}
	stackB, err := sessionB.BuildStack(base)
	if err != nil {
		log.Fatal(err)
	}
	finalB, err := stackB.Render(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	opt := ediff.Options{Mode: ediff.Mode(fCompareMode), Alpha: fCompareAlpha}
	diff, err := ediff.Compare(finalA, finalB, opt)
	if err != nil {
		log.Fatal(err)
	}
	view, err := ediff.Render(diff, finalA, finalB, opt)
	if err != nil {
		log.Fatal(err)
	}
	if fPreviewDim > 0 {
		view = eclip.Preview(view, fPreviewDim)
	}

	filename := fOutputFilename + ".diff.png"
	if err := equiio.WritePNG(view, filename); err != nil {
		log.Fatal(err)
	}
	metric, _ := ediff.Metric(finalA, finalB)
	log.WithFields(log.Fields{"file": filename, "mode": fCompareMode, "metric": metric}).
		Info("comparison written")
}

func writeLogs(stack *estack.Stack) {
	if err := os.WriteFile(fLogFilename, []byte(stack.AsText()), 0644); err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(fLogFilename+".yaml", []byte(stack.AsYaml()), 0644); err != nil {
		log.Fatal(err)
	}
	log.WithFields(log.Fields{"file": fLogFilename}).Info("edit log exported")
}

func writeClipOverlay(stack *estack.Stack) {
	buf, err := stack.Current()
	if err != nil {
		log.Fatal(err)
	}
	th := eclip.Thresholds{Shadow: fClipShadow, Highlight: fClipHighlight}
	rep, err := eclip.Detect(buf, th, ecolor.RGBLuma())
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("clip survey:\n%s", rep.Summary())

	overlay, err := eclip.Overlay(buf, rep, fClipPlane)
	if err != nil {
		log.Fatal(err)
	}
	if fPreviewDim > 0 {
		overlay = eclip.Preview(overlay, fPreviewDim)
	}
	if err := equiio.WritePNG(overlay, fClipFilename); err != nil {
		log.Fatal(err)
	}
	log.WithFields(log.Fields{"file": fClipFilename, "plane": fClipPlane}).Info("clip overlay written")
}
