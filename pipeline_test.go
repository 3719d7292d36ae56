package gnssl1

import (
	"math"
	"reflect"
	"testing"
)

func sampleLines() []string {
	return []string{
		"# comment line, ignored",
		"",
		"<RTCM(1019, DF002=1019, DF009=1, DF076=60, DF081=0, DF082=0, DF083=0, " +
			"DF084=0, DF085=1, DF086=0, DF087=0, DF088=0.5, DF089=0, DF090=100, " +
			"DF091=0, DF092=5153.79, DF093=0, DF094=0, DF095=0.1, DF096=0, DF097=0.9, " +
			"DF098=0, DF099=0.3, DF100=0, DF101=0, DF102=0, DF071=1, DF079=0)>",
		"<RTCM(1002, DF002=1002, DF004=100, DF006=1, DF009_01=1, DF014_01=77, DF011_01=0.001)>",
		"<RTCM(1077, DF002=1077)>",
	}
}

func TestRunIsDeterministicAcrossRepeatedInvocations(t *testing.T) {
	lines := sampleLines()

	r1, err := Run(lines)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	r2, err := Run(lines)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(r1.Epochs, r2.Epochs) {
		t.Fatalf("epochs differ between runs:\n%v\n%v", r1.Epochs, r2.Epochs)
	}
	if r1.Summary != r2.Summary {
		t.Fatalf("summaries differ between runs: %v vs %v", r1.Summary, r2.Summary)
	}
}

func TestRunSkipsUnsupportedAndCommentLines(t *testing.T) {
	result, err := Run(sampleLines())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Summary.Malformed != 0 {
		t.Fatalf("Malformed = %d, want 0 (comment/unsupported lines are silent skips)", result.Summary.Malformed)
	}
	if len(result.History.EphHistory[1]) != 1 {
		t.Fatalf("expected exactly one ephemeris stored for PRN 1")
	}
}

func TestRunAbortsFatallyOnMixedObservationStream(t *testing.T) {
	lines := []string{
		"<RTCM(1002, DF002=1002, DF004=100, DF006=1, DF009_01=1, DF014_01=77, DF011_01=0.001)>",
		"<RTCM(1074, DF002=1074, DF004=200, NSat=1, NCell=1, DF397_01=77, DF398_01=0.0001, " +
			"CELLPRN_01=1, CELLSIG_01=1C, DF400_01=0)>",
	}
	_, err := Run(lines)
	if err == nil {
		t.Fatalf("expected a fatal error when 1002 and 1074 streams are mixed")
	}
}

func TestRunPropagatesMalformedLineAsNonFatalCount(t *testing.T) {
	lines := []string{
		"<RTCM(1019, DF002=1019)>", // missing DF009, InputMalformed
	}
	result, err := Run(lines)
	if err != nil {
		t.Fatalf("a malformed ephemeris line must not abort the run: %v", err)
	}
	if result.Summary.Malformed != 1 {
		t.Fatalf("Malformed = %d, want 1", result.Summary.Malformed)
	}
}

func TestRunCountsEphemerisMissingForUnmatchedObservations(t *testing.T) {
	lines := []string{
		// No ephemeris is ever stored for PRN 1, so the series builder
		// can't find a qualifying TOE and marks the sample EphValid=false.
		"<RTCM(1002, DF002=1002, DF004=100, DF006=1, DF009_01=1, DF014_01=77, DF011_01=0.001)>",
	}
	result, err := Run(lines)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Summary.EphemerisMissing != 1 {
		t.Fatalf("EphemerisMissing = %d, want 1", result.Summary.EphemerisMissing)
	}
	if result.Summary.NumericsSkipped != 0 {
		t.Fatalf("NumericsSkipped = %d, want 0 (this sample is EphemerisMissing, not Numerics)", result.Summary.NumericsSkipped)
	}
}

func TestRunProducesFiniteOrbitTraces(t *testing.T) {
	result, err := Run(sampleLines())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	trace, ok := result.OrbitTraces[1]
	if !ok || len(trace) == 0 {
		t.Fatalf("expected a non-empty orbit trace for PRN 1")
	}
	for _, p := range trace {
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("orbit trace point %v is not finite", p)
			}
		}
	}
}
