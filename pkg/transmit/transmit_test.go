package transmit

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/herlein/piflip/pkg/capture"
	"github.com/herlein/piflip/pkg/clock"
	"github.com/herlein/piflip/pkg/decoder"
	"github.com/herlein/piflip/pkg/encoder"
	"github.com/herlein/piflip/pkg/fault"
	"github.com/herlein/piflip/pkg/library"
	"github.com/herlein/piflip/pkg/radio"
	"github.com/herlein/piflip/pkg/timing"
)

var epoch = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

type testRig struct {
	sim    *radio.Sim
	handle *radio.Handle
	clock  *clock.Fake
	store  *library.FileStore
	engine *Engine
}

func setupRig(t *testing.T) *testRig {
	t.Helper()
	store, err := library.NewFileStore(filepath.Join(t.TempDir(), "rf_library"), nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	sim := radio.NewSim(nil, -55)
	h := radio.NewHandle(sim, nil)
	clk := clock.NewFake(epoch)
	e := &Engine{Radio: h, Clock: clk, Signals: store}
	e.SetRand(rand.New(rand.NewSource(7)))
	return &testRig{sim: sim, handle: h, clock: clk, store: store, engine: e}
}

func (r *testRig) saveSignal(t *testing.T, name string, freq float64, seq timing.Sequence) {
	t.Helper()
	err := r.store.Save(&library.Signal{
		Name:         name,
		FrequencyMHz: freq,
		Timings:      seq,
		Modulation:   library.ModulationOOK,
		CreatedAt:    epoch,
	})
	if err != nil {
		t.Fatalf("Save %s: %v", name, err)
	}
}

func pulseWidth(t *testing.T, bits string) timing.Sequence {
	t.Helper()
	seq, err := encoder.PulseWidth(bits, FuzzShortUS, FuzzLongUS)
	if err != nil {
		t.Fatal(err)
	}
	return seq
}

func hamming(a, b string) int {
	n := 0
	for i := range a {
		if a[i] != b[i] {
			n++
		}
	}
	return n
}

var garage = timing.Sequence{timing.High(350), timing.Low(1050), timing.High(1050), timing.Low(350)}

func TestTransmitBurstsAndIdle(t *testing.T) {
	r := setupRig(t)

	out, err := r.engine.Transmit(context.Background(), Request{
		FrequencyMHz: 433.92,
		Timings:      garage,
		Repeats:      3,
		Power:        "high",
	})
	if err != nil {
		t.Fatalf("Transmit: %v", err)
	}
	if out.Successful != 3 || out.Requested != 3 || out.TimingCount != 4 {
		t.Errorf("outcome = %+v", out)
	}
	if out.PowerFallback {
		t.Error("known power level reported as fallback")
	}

	bursts := r.sim.Bursts()
	if len(bursts) != 3 {
		t.Fatalf("bursts = %d, want 3", len(bursts))
	}
	want := []uint8{1, 1, 0, 1, 0, 0}
	for i, b := range bursts {
		if b.FrequencyMHz != 433.92 || b.Power != radio.PowerHigh {
			t.Errorf("burst %d tuned to %.2f/%s", i, b.FrequencyMHz, b.Power)
		}
		if len(b.States) != len(want) {
			t.Fatalf("burst %d states = %v", i, b.States)
		}
		for j := range want {
			if b.States[j] != want[j] {
				t.Errorf("burst %d states = %v, want %v", i, b.States, want)
				break
			}
		}
	}

	if r.sim.Mode() != radio.ModeIdle {
		t.Errorf("radio left in %s", r.sim.Mode())
	}

	perBurst := Preamble + garage.Total()
	if got, want := r.clock.Slept(), 3*perBurst+2*RepeatGap; got != want {
		t.Errorf("slept %v, want %v", got, want)
	}
}

func TestTransmitUnknownPowerFallsBackToMax(t *testing.T) {
	r := setupRig(t)
	out, err := r.engine.Transmit(context.Background(), Request{
		FrequencyMHz: 315.0,
		Timings:      garage,
		Repeats:      1,
		Power:        "turbo",
	})
	if err != nil {
		t.Fatalf("Transmit: %v", err)
	}
	if !out.PowerFallback || out.Power != radio.PowerMax {
		t.Errorf("outcome = %+v, want max with fallback", out)
	}
	if r.sim.Power() != radio.PowerMax {
		t.Errorf("radio power = %s", r.sim.Power())
	}

	out, _ = r.engine.Transmit(context.Background(), Request{FrequencyMHz: 315.0, Timings: garage, Repeats: 1})
	if out.PowerFallback || out.Power != radio.PowerMax {
		t.Errorf("empty power: %+v", out)
	}
}

func TestTransmitPartialFailureCounted(t *testing.T) {
	r := setupRig(t)
	r.sim.FailTX = func(burst int) error {
		if burst == 1 {
			return errors.New("fifo underflow")
		}
		return nil
	}

	out, err := r.engine.Transmit(context.Background(), Request{FrequencyMHz: 433.92, Timings: garage, Repeats: 3})
	if err != nil {
		t.Fatalf("Transmit: %v", err)
	}
	if out.Successful != 2 || len(out.Errors) != 1 {
		t.Errorf("outcome = %+v, want 2 successes and 1 error", out)
	}
	if r.sim.Mode() != radio.ModeIdle {
		t.Errorf("radio left in %s", r.sim.Mode())
	}
}

func TestTransmitValidatesBeforeHardware(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"empty timings", Request{FrequencyMHz: 433.92, Repeats: 1}},
		{"zero duration", Request{FrequencyMHz: 433.92, Timings: timing.Sequence{timing.High(0)}, Repeats: 1}},
		{"zero repeats", Request{FrequencyMHz: 433.92, Timings: garage}},
		{"out of band", Request{FrequencyMHz: 100, Timings: garage, Repeats: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRig(t)
			_, err := r.engine.Transmit(context.Background(), tt.req)
			if fault.KindOf(err) != fault.InvalidInput {
				t.Errorf("err = %v, want invalid input", err)
			}
			if len(r.sim.Modes()) != 0 {
				t.Errorf("radio touched: %v", r.sim.Modes())
			}
		})
	}
}

func TestTransmitBusy(t *testing.T) {
	r := setupRig(t)
	var inner error
	err := r.handle.Exclusive(context.Background(), "hold", func(radio.Transceiver) error {
		_, inner = r.engine.Transmit(context.Background(), Request{FrequencyMHz: 433.92, Timings: garage, Repeats: 1})
		return nil
	})
	if err != nil {
		t.Fatalf("Exclusive: %v", err)
	}
	if !errors.Is(inner, radio.ErrBusy) || fault.KindOf(inner) != fault.Busy {
		t.Errorf("concurrent transmit = %v, want busy", inner)
	}
	if len(r.sim.Bursts()) != 0 {
		t.Error("busy transmit reached the radio")
	}
}

func TestTransmitCancelled(t *testing.T) {
	r := setupRig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.engine.Transmit(ctx, Request{FrequencyMHz: 433.92, Timings: garage, Repeats: 1}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestTransmitSignal(t *testing.T) {
	r := setupRig(t)
	r.saveSignal(t, "garage", 433.92, garage)

	if _, err := r.engine.TransmitSignal(context.Background(), "garage", 2, "", 315.0); err != nil {
		t.Fatalf("TransmitSignal: %v", err)
	}
	bursts := r.sim.Bursts()
	if len(bursts) != 2 || bursts[0].FrequencyMHz != 315.0 {
		t.Errorf("bursts = %+v, want 2 at the override frequency", bursts)
	}

	if _, err := r.engine.TransmitSignal(context.Background(), "ghost", 1, "", 0); !errors.Is(err, library.ErrNotFound) || fault.KindOf(err) != fault.InsufficientData {
		t.Errorf("missing signal = %v", err)
	}
}

func TestLoadFailuresAreInsufficientData(t *testing.T) {
	r := setupRig(t)
	blank := []byte(`{"name": "blank", "frequency": 433.92, "timings": []}`)
	if err := os.WriteFile(filepath.Join(r.store.Dir(), "blank.json"), blank, 0644); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, name := range []string{"ghost", "blank"} {
		_, err := r.engine.TransmitSignal(ctx, name, 1, "", 0)
		if fault.KindOf(err) != fault.InsufficientData {
			t.Errorf("transmit %s = %v, want insufficient data", name, err)
		}
		_, err = r.engine.Fuzz(ctx, FuzzRequest{Signal: name, Mode: FuzzBitFlip})
		if fault.KindOf(err) != fault.InsufficientData {
			t.Errorf("fuzz %s = %v, want insufficient data", name, err)
		}
	}
	_, err := r.engine.TransmitSignal(ctx, "blank", 1, "", 0)
	if !errors.Is(err, library.ErrNoTimings) {
		t.Errorf("blank signal = %v, want ErrNoTimings", err)
	}
	if len(r.sim.Bursts()) != 0 {
		t.Error("unloadable signal transmitted")
	}
}

func TestReplayVariations(t *testing.T) {
	r := setupRig(t)
	r.saveSignal(t, "garage", 433.92, garage)

	results, err := r.engine.ReplayVariations(context.Background(), "garage", nil, nil)
	if err != nil {
		t.Fatalf("ReplayVariations: %v", err)
	}
	if len(results) != 15 {
		t.Fatalf("variations = %d, want 15", len(results))
	}
	if len(r.sim.Bursts()) != 15*VariationRepeats {
		t.Errorf("bursts = %d", len(r.sim.Bursts()))
	}
	first := results[0]
	if first.OffsetMHz != -0.5 || first.Multiplier != 0.95 || first.Successful != VariationRepeats {
		t.Errorf("first variation = %+v", first)
	}
}

func TestFuzzBitFlip(t *testing.T) {
	r := setupRig(t)
	r.saveSignal(t, "remote", 433.92, pulseWidth(t, "01101001"))

	res, err := r.engine.Fuzz(context.Background(), FuzzRequest{Signal: "remote", Mode: FuzzBitFlip})
	if err != nil {
		t.Fatalf("Fuzz: %v", err)
	}
	if res.BaseBits != "01101001" {
		t.Fatalf("base bits = %q", res.BaseBits)
	}
	if len(res.Attempts) != 8 {
		t.Fatalf("attempts = %d, want one per bit", len(res.Attempts))
	}
	for i, a := range res.Attempts {
		if hamming(a.Bits, res.BaseBits) != 1 || a.Bits[i] == res.BaseBits[i] {
			t.Errorf("attempt %d bits %q do not flip position %d", a.Attempt, a.Bits, i)
		}
	}
	if got := len(r.sim.Bursts()); got != 8*FuzzRepeats {
		t.Errorf("bursts = %d, want %d", got, 8*FuzzRepeats)
	}

	r2 := setupRig(t)
	r2.saveSignal(t, "remote", 433.92, pulseWidth(t, "01101001"))
	res, _ = r2.engine.Fuzz(context.Background(), FuzzRequest{Signal: "remote", Mode: FuzzBitFlip, MaxAttempts: 3})
	if len(res.Attempts) != 3 {
		t.Errorf("capped attempts = %d, want 3", len(res.Attempts))
	}
}

func TestFuzzRandomDistinctPositions(t *testing.T) {
	r := setupRig(t)
	r.saveSignal(t, "remote", 433.92, pulseWidth(t, "0110100101101001"))

	res, err := r.engine.Fuzz(context.Background(), FuzzRequest{Signal: "remote", Mode: FuzzRandom, MaxAttempts: 20})
	if err != nil {
		t.Fatalf("Fuzz: %v", err)
	}
	if len(res.Attempts) != 20 {
		t.Fatalf("attempts = %d", len(res.Attempts))
	}
	for _, a := range res.Attempts {
		if d := hamming(a.Bits, res.BaseBits); d < 1 || d > 5 {
			t.Errorf("attempt %d flipped %d bits", a.Attempt, d)
		}
	}
}

func TestFuzzIncrementWraps(t *testing.T) {
	r := setupRig(t)
	r.saveSignal(t, "remote", 433.92, pulseWidth(t, "11111110"))

	res, err := r.engine.Fuzz(context.Background(), FuzzRequest{Signal: "remote", Mode: FuzzIncrement, MaxAttempts: 3})
	if err != nil {
		t.Fatalf("Fuzz: %v", err)
	}
	want := []string{"11111111", "00000000", "00000001"}
	for i, a := range res.Attempts {
		if a.Bits != want[i] {
			t.Errorf("attempt %d = %s, want %s", a.Attempt, a.Bits, want[i])
		}
	}
}

type fixedAnalyzer struct{ pulses string }

func (f fixedAnalyzer) Analyze(timing.Sequence) (*decoder.Analysis, error) {
	return &decoder.Analysis{Decoded: &decoder.Decoded{Pulses: f.pulses}}, nil
}

func TestFuzzUsesEngineAnalyzer(t *testing.T) {
	r := setupRig(t)
	r.saveSignal(t, "flat", 433.92, timing.Sequence{timing.High(500), timing.Low(500), timing.High(500), timing.Low(500)})
	r.engine.Analyzer = fixedAnalyzer{pulses: "1010"}

	res, err := r.engine.Fuzz(context.Background(), FuzzRequest{Signal: "flat", Mode: FuzzBitFlip})
	if err != nil {
		t.Fatalf("Fuzz: %v", err)
	}
	if len(res.Attempts) != 4 {
		t.Fatalf("attempts = %d, want one per analyzer bit", len(res.Attempts))
	}
	for _, a := range res.Attempts {
		if hamming(a.Bits, "1010") != 1 {
			t.Errorf("attempt %d bits %s not one flip from 1010", a.Attempt, a.Bits)
		}
	}
}

func TestFuzzRejects(t *testing.T) {
	r := setupRig(t)
	r.saveSignal(t, "flat", 433.92, timing.Sequence{timing.High(500), timing.Low(500), timing.High(500), timing.Low(500)})

	if _, err := r.engine.Fuzz(context.Background(), FuzzRequest{Signal: "flat", Mode: "scramble"}); fault.KindOf(err) != fault.InvalidInput {
		t.Errorf("bad mode = %v", err)
	}
	if _, err := r.engine.Fuzz(context.Background(), FuzzRequest{Signal: "flat", Mode: FuzzBitFlip}); fault.KindOf(err) != fault.InsufficientData {
		t.Errorf("single-width signal = %v, want insufficient data", err)
	}
	if len(r.sim.Bursts()) != 0 {
		t.Error("rejected fuzz transmitted")
	}
}

func TestTimingFuzz(t *testing.T) {
	r := setupRig(t)
	r.saveSignal(t, "garage", 433.92, garage)

	res, err := r.engine.TimingFuzz(context.Background(), "garage", 0, 5)
	if err != nil {
		t.Fatalf("TimingFuzz: %v", err)
	}
	if res.Percent != DefaultTimingPercent || res.Successful != 5 {
		t.Errorf("result = %+v", res)
	}

	jittered := r.engine.jitter(garage, 0.1)
	for i, s := range jittered {
		lo := float64(garage[i].DurationUS) * 0.9
		hi := float64(garage[i].DurationUS) * 1.1
		if float64(s.DurationUS) < lo-1 || float64(s.DurationUS) > hi || s.State != garage[i].State {
			t.Errorf("sample %d = %v, outside ±10%% of %v", i, s, garage[i])
		}
	}

	if _, err := r.engine.TimingFuzz(context.Background(), "garage", 150, 1); fault.KindOf(err) != fault.InvalidInput {
		t.Errorf("percent 150 = %v", err)
	}
}

func TestTimingFuzzNoPauseAfterLast(t *testing.T) {
	r := setupRig(t)
	r.saveSignal(t, "garage", 433.92, garage)

	if _, err := r.engine.TimingFuzz(context.Background(), "garage", 10, 5); err != nil {
		t.Fatalf("TimingFuzz: %v", err)
	}
	// bursts take a few ms each, well under one pause
	slept := r.clock.Slept()
	if slept < 4*TimingFuzzPause || slept >= 5*TimingFuzzPause {
		t.Errorf("slept %v, want 4 pauses plus burst time", slept)
	}
}

func TestFrequencySweep(t *testing.T) {
	r := setupRig(t)
	r.saveSignal(t, "garage", 433.92, garage)

	points, err := r.engine.FrequencySweep(context.Background(), SweepRequest{
		Signal:   "garage",
		StartMHz: 433.0,
		EndMHz:   433.2,
		Repeats:  1,
	})
	if err != nil {
		t.Fatalf("FrequencySweep: %v", err)
	}
	want := []float64{433.0, 433.05, 433.1, 433.15, 433.2}
	if len(points) != len(want) {
		t.Fatalf("points = %+v", points)
	}
	bursts := r.sim.Bursts()
	for i, f := range want {
		if points[i].FrequencyMHz != f || bursts[i].FrequencyMHz != f {
			t.Errorf("point %d at %.3f, burst at %.3f, want %.3f", i, points[i].FrequencyMHz, bursts[i].FrequencyMHz, f)
		}
	}

	_, err = r.engine.FrequencySweep(context.Background(), SweepRequest{Signal: "garage", StartMHz: 434, EndMHz: 433})
	if fault.KindOf(err) != fault.InvalidInput {
		t.Errorf("reversed range = %v", err)
	}
	_, err = r.engine.FrequencySweep(context.Background(), SweepRequest{Signal: "garage", StartMHz: 433, EndMHz: 500})
	if fault.KindOf(err) != fault.InvalidInput {
		t.Errorf("out of band end = %v", err)
	}
}

func TestFrequencySweepStepBelowResolution(t *testing.T) {
	r := setupRig(t)
	r.saveSignal(t, "garage", 433.92, garage)

	_, err := r.engine.FrequencySweep(context.Background(), SweepRequest{
		Signal:   "garage",
		StartMHz: 433.0,
		EndMHz:   433.002,
		StepMHz:  0.0004,
		Repeats:  1,
	})
	if fault.KindOf(err) != fault.InvalidInput || !errors.Is(err, ErrInvalidSweep) {
		t.Errorf("sub-kHz step = %v, want invalid sweep", err)
	}
	if len(r.sim.Bursts()) != 0 {
		t.Error("rejected sweep transmitted")
	}

	points, err := r.engine.FrequencySweep(context.Background(), SweepRequest{
		Signal:   "garage",
		StartMHz: 433.0,
		EndMHz:   433.002,
		StepMHz:  MinSweepStep,
		Repeats:  1,
	})
	if err != nil {
		t.Fatalf("1 kHz step: %v", err)
	}
	seen := map[float64]bool{}
	for _, p := range points {
		if seen[p.FrequencyMHz] {
			t.Errorf("duplicate point %.3f in %+v", p.FrequencyMHz, points)
		}
		seen[p.FrequencyMHz] = true
	}
	if len(points) != 3 {
		t.Errorf("points = %+v, want 3", points)
	}
}

func TestJam(t *testing.T) {
	for _, mode := range []JamMode{JamNoise, JamTone, JamSweep, JamPulse} {
		t.Run(string(mode), func(t *testing.T) {
			r := setupRig(t)
			res, err := r.engine.Jam(context.Background(), JamRequest{
				FrequencyMHz: 433.92,
				Duration:     500 * time.Millisecond,
				Mode:         mode,
			})
			if err != nil {
				t.Fatalf("Jam: %v", err)
			}
			if res.Bursts == 0 || res.Bursts != len(r.sim.Bursts()) {
				t.Errorf("bursts = %d, sim saw %d", res.Bursts, len(r.sim.Bursts()))
			}
			if res.Elapsed < 500*time.Millisecond {
				t.Errorf("stopped early after %v", res.Elapsed)
			}
			if r.sim.Mode() != radio.ModeIdle {
				t.Errorf("radio left in %s", r.sim.Mode())
			}
		})
	}

	r := setupRig(t)
	if _, err := r.engine.Jam(context.Background(), JamRequest{FrequencyMHz: 433.92, Duration: time.Second, Mode: "chirp"}); fault.KindOf(err) != fault.InvalidInput {
		t.Errorf("bad mode = %v", err)
	}
}

func TestJamSweepSteps(t *testing.T) {
	r := setupRig(t)
	if _, err := r.engine.Jam(context.Background(), JamRequest{FrequencyMHz: 433.0, Duration: 50 * time.Millisecond, Mode: JamSweep}); err != nil {
		t.Fatalf("Jam: %v", err)
	}
	bursts := r.sim.Bursts()
	if len(bursts) < 2 {
		t.Fatalf("bursts = %d", len(bursts))
	}
	if bursts[0].FrequencyMHz != 433.0 || bursts[1].FrequencyMHz != 433.05 {
		t.Errorf("sweep steps %.3f, %.3f", bursts[0].FrequencyMHz, bursts[1].FrequencyMHz)
	}
}

func TestJamSweepBandEdge(t *testing.T) {
	r := setupRig(t)
	_, err := r.engine.Jam(context.Background(), JamRequest{FrequencyMHz: 463.5, Duration: time.Second, Mode: JamSweep})
	if fault.KindOf(err) != fault.InvalidInput || !errors.Is(err, radio.ErrFrequencyOutOfRange) {
		t.Errorf("err = %v, want out of range input", err)
	}
	if len(r.sim.Bursts()) != 0 {
		t.Errorf("transmitted %d bursts before rejecting", len(r.sim.Bursts()))
	}

	// other modes stay on the base frequency
	if _, err := r.engine.Jam(context.Background(), JamRequest{FrequencyMHz: 463.5, Duration: 10 * time.Millisecond, Mode: JamPulse}); err != nil {
		t.Errorf("pulse at 463.5 MHz: %v", err)
	}
}

func TestBruteForce(t *testing.T) {
	r := setupRig(t)
	res, err := r.engine.BruteForce(context.Background(), BruteForceRequest{FrequencyMHz: 433.92, Bits: 2})
	if err != nil {
		t.Fatalf("BruteForce: %v", err)
	}
	if res.Sent != 4 || res.Total != 4 {
		t.Errorf("result = %+v", res)
	}
	bursts := r.sim.Bursts()
	if len(bursts) != 4 {
		t.Fatalf("bursts = %d", len(bursts))
	}
	// preamble, code 00 as low-high low-high, trailing low
	want := []uint8{1, 0, 1, 0, 1, 0}
	for i, s := range want {
		if bursts[0].States[i] != s {
			t.Fatalf("code 00 states = %v, want %v", bursts[0].States, want)
		}
	}

	r = setupRig(t)
	if _, err := r.engine.BruteForce(context.Background(), BruteForceRequest{FrequencyMHz: 433.92, Bits: 17}); fault.KindOf(err) != fault.InvalidInput {
		t.Errorf("17 bits = %v, want invalid input", err)
	}
	if len(r.sim.Bursts()) != 0 {
		t.Error("rejected brute force transmitted")
	}
}

func TestBruteForceNoGapAfterLast(t *testing.T) {
	r := setupRig(t)
	if _, err := r.engine.BruteForce(context.Background(), BruteForceRequest{FrequencyMHz: 433.92, Bits: 2}); err != nil {
		t.Fatalf("BruteForce: %v", err)
	}
	var want time.Duration
	for _, code := range []string{"00", "01", "10", "11"} {
		seq, err := encoder.Biphase(code, BruteForceHalfUS)
		if err != nil {
			t.Fatal(err)
		}
		want += Preamble + seq.Total()
	}
	want += 3 * DefaultBruteForceGap
	if got := r.clock.Slept(); got != want {
		t.Errorf("slept %v, want %v", got, want)
	}
}

func TestRunPlaylistMissingSignal(t *testing.T) {
	r := setupRig(t)
	res, err := r.engine.RunPlaylist(context.Background(), []library.Step{{Signal: "ghost"}})
	if err != nil {
		t.Fatalf("RunPlaylist: %v", err)
	}
	if res.Status != StatusComplete || res.TotalSteps != 1 || res.Executed != 0 {
		t.Errorf("result = %+v", res)
	}
	if len(res.Steps) != 1 || res.Steps[0].Status != StatusError || res.Steps[0].Message != "signal not found" {
		t.Errorf("steps = %+v", res.Steps)
	}
	if len(r.sim.Bursts()) != 0 {
		t.Error("missing signal transmitted")
	}
}

func TestRunPlaylistMixed(t *testing.T) {
	r := setupRig(t)
	r.saveSignal(t, "garage", 433.92, garage)

	steps := []library.Step{
		{Signal: "garage", Delay: 2},
		{Signal: "ghost", Delay: 5},
		{Signal: "garage", Repeats: 1, FrequencyMHz: 315.0, Delay: 7},
	}
	res, err := r.engine.RunPlaylist(context.Background(), steps)
	if err != nil {
		t.Fatalf("RunPlaylist: %v", err)
	}
	if res.Executed != 2 || len(res.Steps) != 3 {
		t.Fatalf("result = %+v", res)
	}
	if res.Steps[0].Repeats != library.DefaultStepRepeats || res.Steps[2].Repeats != 1 {
		t.Errorf("repeats = %d, %d", res.Steps[0].Repeats, res.Steps[2].Repeats)
	}

	bursts := r.sim.Bursts()
	if len(bursts) != library.DefaultStepRepeats+1 || bursts[len(bursts)-1].FrequencyMHz != 315.0 {
		t.Errorf("bursts = %+v", bursts)
	}

	// only the 2 s delay after the first step applies
	if slept := r.clock.Slept(); slept < 2*time.Second || slept >= 3*time.Second {
		t.Errorf("slept %v", slept)
	}
}

func TestCaptureReplay(t *testing.T) {
	r := setupRig(t)
	r.sim.Reads = []uint8{1, 1, 1, 0, 0, 1, 0, 0, 0, 1}
	r.engine.Capturer = &capture.Capturer{Radio: r.handle, Clock: r.clock, Interval: 100 * time.Microsecond}

	sent, err := r.engine.CaptureReplay(context.Background(), 433.92, 2*time.Millisecond)
	if err != nil {
		t.Fatalf("CaptureReplay: %v", err)
	}
	if sent != CaptureReplays || len(r.sim.Bursts()) != CaptureReplays {
		t.Errorf("sent %d, bursts %d", sent, len(r.sim.Bursts()))
	}
	// capture and bursts take milliseconds; only the gaps between replays count
	if slept := r.clock.Slept(); slept < (CaptureReplays-1)*CaptureReplayGap || slept >= CaptureReplays*CaptureReplayGap {
		t.Errorf("slept %v, want %d gaps", slept, CaptureReplays-1)
	}

	r.engine.Capturer = nil
	if _, err := r.engine.CaptureReplay(context.Background(), 433.92, time.Millisecond); !errors.Is(err, ErrNoCapturer) {
		t.Errorf("no capturer = %v", err)
	}
}

func TestSendPattern(t *testing.T) {
	r := setupRig(t)
	if _, err := r.engine.SendPattern(context.Background(), 433.92, "1011", 0); err != nil {
		t.Fatalf("SendPattern: %v", err)
	}
	bursts := r.sim.Bursts()
	if len(bursts) != PatternRepeats {
		t.Fatalf("bursts = %d", len(bursts))
	}
	want := []uint8{1, 1, 0, 1, 1, 0}
	for i, s := range want {
		if bursts[0].States[i] != s {
			t.Fatalf("states = %v, want %v", bursts[0].States, want)
		}
	}
	if _, err := r.engine.SendPattern(context.Background(), 433.92, "10x1", 0); fault.KindOf(err) != fault.InvalidInput {
		t.Errorf("bad pattern = %v", err)
	}
}
