package experiment

import (
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/experiment/checkpointer"
	"github.com/samuelfneumann/goddpg/experiment/tracker"
	ts "github.com/samuelfneumann/goddpg/timestep"
)

// cycleEnv is an environment whose episodes all last exactly length
// steps, ending with a timeout. Every step gives a reward of 1.
type cycleEnv struct {
	steps   int
	length  int
	current ts.TimeStep
}

func (c *cycleEnv) Reset() (ts.TimeStep, error) {
	c.steps = 0
	obs := mat.NewVecDense(2, []float64{0.0, 0.0})
	c.current = ts.New(ts.First, 0.0, 1.0, obs, 0)
	return c.current, nil
}

func (c *cycleEnv) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	c.steps++
	obs := mat.NewVecDense(2, []float64{float64(c.steps), a.AtVec(0)})
	t := ts.New(ts.Mid, 1.0, 1.0, obs, c.steps)
	if c.steps >= c.length {
		t.SetEnd(ts.Timeout)
	}
	c.current = t
	return t, t.Last(), nil
}

func (c *cycleEnv) CurrentTimeStep() ts.TimeStep { return c.current }

func (c *cycleEnv) Start() *mat.VecDense { return mat.NewVecDense(2, nil) }

func (c *cycleEnv) End(t *ts.TimeStep) bool { return t.Last() }

func (c *cycleEnv) GetReward(_, _, _ mat.Vector) float64 { return 1.0 }

func (c *cycleEnv) AtGoal(_ mat.Matrix) bool { return false }

func (c *cycleEnv) Min() float64 { return 1.0 }

func (c *cycleEnv) Max() float64 { return 1.0 }

func (c *cycleEnv) RewardSpec() env.Spec {
	bounds := mat.NewVecDense(1, []float64{1.0})
	return env.NewSpec(mat.NewVecDense(1, nil), env.Reward, bounds, bounds,
		env.Continuous)
}

func (c *cycleEnv) DiscountSpec() env.Spec {
	bounds := mat.NewVecDense(1, []float64{1.0})
	return env.NewSpec(mat.NewVecDense(1, nil), env.Discount, bounds, bounds,
		env.Continuous)
}

func (c *cycleEnv) ObservationSpec() env.Spec {
	low := mat.NewVecDense(2, []float64{0.0, -1.0})
	high := mat.NewVecDense(2, []float64{float64(c.length), 1.0})
	return env.NewSpec(mat.NewVecDense(2, nil), env.Observation, low, high,
		env.Continuous)
}

func (c *cycleEnv) ActionSpec() env.Spec {
	low := mat.NewVecDense(1, []float64{-1.0})
	high := mat.NewVecDense(1, []float64{1.0})
	return env.NewSpec(mat.NewVecDense(1, nil), env.Action, low, high,
		env.Continuous)
}

// countingAgent counts the calls made to it by an experiment
type countingAgent struct {
	observeFirsts int
	observes      int
	steps         int
	randoms       int
	selects       int
	endEpisodes   int
	eval          bool
}

func (c *countingAgent) SelectAction(_ ts.TimeStep) *mat.VecDense {
	c.selects++
	return mat.NewVecDense(1, []float64{0.5})
}

func (c *countingAgent) RandomAction() *mat.VecDense {
	c.randoms++
	return mat.NewVecDense(1, []float64{-0.5})
}

func (c *countingAgent) Step() error {
	c.steps++
	return nil
}

func (c *countingAgent) Observe(_ mat.Vector, _ ts.TimeStep) error {
	c.observes++
	return nil
}

func (c *countingAgent) ObserveFirst(_ ts.TimeStep) error {
	c.observeFirsts++
	return nil
}

func (c *countingAgent) EndEpisode() { c.endEpisodes++ }

func (c *countingAgent) Eval() { c.eval = true }

func (c *countingAgent) Train() { c.eval = false }

func (c *countingAgent) IsEval() bool { return c.eval }

// savedRecorder records the paths its Save method is called with
type savedRecorder struct {
	paths []string
}

func (s *savedRecorder) Save(path string) error {
	s.paths = append(s.paths, path)
	return nil
}

// TestOnlineWarmup checks that an online experiment selects random
// actions and performs no updates during the warm-up period, then
// switches to the agent's policy and updates on every step.
func TestOnlineWarmup(t *testing.T) {
	environment := &cycleEnv{length: 5}
	agent := &countingAgent{}

	e := NewOnline(environment, agent, 20, 10, nil, nil)
	e.Run()

	if agent.randoms != 10 {
		t.Errorf("expected 10 random actions \n\twant(10) \n\thave(%v)",
			agent.randoms)
	}
	if agent.selects != 10 {
		t.Errorf("expected 10 policy actions \n\twant(10) \n\thave(%v)",
			agent.selects)
	}
	if agent.steps != 10 {
		t.Errorf("expected 10 updates \n\twant(10) \n\thave(%v)", agent.steps)
	}
	if agent.observes != 20 {
		t.Errorf("expected every step observed \n\twant(20) \n\thave(%v)",
			agent.observes)
	}
	if agent.observeFirsts != 4 {
		t.Errorf("expected one first observation per episode \n\twant(4) "+
			"\n\thave(%v)", agent.observeFirsts)
	}
	if agent.endEpisodes != 4 {
		t.Errorf("expected cleanup after each episode \n\twant(4) "+
			"\n\thave(%v)", agent.endEpisodes)
	}
}

// TestOnlineTrackers checks that episodic returns and episode lengths
// tracked during an experiment can be saved and loaded back.
func TestOnlineTrackers(t *testing.T) {
	environment := &cycleEnv{length: 5}
	agent := &countingAgent{}

	dir := t.TempDir()
	returnFile := filepath.Join(dir, "returns.bin")
	lengthFile := filepath.Join(dir, "lengths.bin")
	trackers := []tracker.Tracker{
		tracker.NewReturn(returnFile),
		tracker.NewEpisodeLength(lengthFile),
	}

	e := NewOnline(environment, agent, 20, 0, trackers, nil)
	e.Run()
	e.Save()

	returns := tracker.LoadData(returnFile)
	if len(returns) != 4 {
		t.Fatalf("expected one return per episode \n\twant(4) \n\thave(%v)",
			len(returns))
	}
	for i, episodeReturn := range returns {
		if episodeReturn != 5.0 {
			t.Errorf("episode %v: incorrect return \n\twant(5.0) "+
				"\n\thave(%v)", i, episodeReturn)
		}
	}

	lengths := tracker.LoadIntData(lengthFile)
	if len(lengths) != 4 {
		t.Fatalf("expected one length per episode \n\twant(4) \n\thave(%v)",
			len(lengths))
	}
	for i, length := range lengths {
		if length != 5 {
			t.Errorf("episode %v: incorrect length \n\twant(5) \n\thave(%v)",
				i, length)
		}
	}
}

// TestOnlineCheckpoint checks that the agent is checkpointed on the
// configured cadence with enumerated filenames.
func TestOnlineCheckpoint(t *testing.T) {
	environment := &cycleEnv{length: 5}
	agent := &countingAgent{}

	recorder := &savedRecorder{}
	check := []checkpointer.Checkpointer{
		checkpointer.NewNStep(7, recorder,
			checkpointer.FilenameEnumerator(0, "weights", ".bin")),
	}

	e := NewOnline(environment, agent, 20, 0, nil, check)
	e.Run()

	want := []string{"weights1.bin", "weights2.bin"}
	if len(recorder.paths) != len(want) {
		t.Fatalf("incorrect number of checkpoints \n\twant(%v) \n\thave(%v)",
			len(want), len(recorder.paths))
	}
	for i := range want {
		if recorder.paths[i] != want[i] {
			t.Errorf("incorrect checkpoint filename \n\twant(%v) "+
				"\n\thave(%v)", want[i], recorder.paths[i])
		}
	}
}

// TestRegister checks that trackers registered after an experiment is
// created still receive timesteps.
func TestRegister(t *testing.T) {
	environment := &cycleEnv{length: 5}
	agent := &countingAgent{}

	dir := t.TempDir()
	returnFile := filepath.Join(dir, "returns.bin")

	e := NewOnline(environment, agent, 20, 0, nil, nil)
	e.Register(tracker.NewReturn(returnFile))
	e.Run()
	e.Save()

	returns := tracker.LoadData(returnFile)
	if len(returns) != 4 {
		t.Fatalf("expected one return per episode \n\twant(4) \n\thave(%v)",
			len(returns))
	}
}
