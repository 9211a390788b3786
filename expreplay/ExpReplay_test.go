package expreplay

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// fill adds n steps to the buffer. Step i records observation
// [i, i+0.5], action [i], reward i, and a terminal flag from
// terminals, or false if terminals is nil.
func fill(t *testing.T, buffer ExperienceReplayer, n int, terminals []bool) {
	t.Helper()

	for i := 0; i < n; i++ {
		obs := mat.NewVecDense(2, []float64{float64(i), float64(i) + 0.5})
		action := mat.NewVecDense(1, []float64{float64(i)})

		terminal := false
		if terminals != nil {
			terminal = terminals[i]
		}

		err := buffer.Add(obs, action, float64(i), terminal)
		if err != nil {
			t.Fatalf("add: step %v: %v", i, err)
		}
	}
}

// TestSequentialEviction checks that after adding limit + k steps, the
// buffer holds exactly the most recent limit steps
func TestSequentialEviction(t *testing.T) {
	const limit int = 10
	const extra int = 7

	buffer, err := NewSequential(2, limit, 1, 4, 2, 1, 42)
	if err != nil {
		t.Fatal(err)
	}

	fill(t, buffer, limit+extra, nil)

	if buffer.Capacity() != limit {
		t.Fatalf("expected %v steps after %v adds, got %v", limit,
			limit+extra, buffer.Capacity())
	}

	// The oldest surviving step is step number extra, so every sampled
	// reward must be in [extra, limit+extra-1)
	for i := 0; i < 100; i++ {
		_, _, rewards, _, _, err := buffer.Sample()
		if err != nil {
			t.Fatal(err)
		}
		for _, r := range rewards {
			if r < float64(extra) || r >= float64(limit+extra-1) {
				t.Fatalf("sampled reward %v from an evicted or "+
					"successorless step", r)
			}
		}
	}
}

// TestSequentialSample checks the shape and contents of sampled batches
func TestSequentialSample(t *testing.T) {
	const batchSize int = 8
	const steps int = 20

	buffer, err := NewSequential(2, 100, 1, batchSize, 2, 1, 17)
	if err != nil {
		t.Fatal(err)
	}

	terminals := make([]bool, steps)
	terminals[9] = true // step 10 then holds episode 1's final observation

	fill(t, buffer, steps, terminals)

	states, actions, rewards, nextStates, masks, err := buffer.Sample()
	if err != nil {
		t.Fatal(err)
	}

	if len(states) != batchSize*2 || len(nextStates) != batchSize*2 {
		t.Errorf("expected state batches of length %v, got %v and %v",
			batchSize*2, len(states), len(nextStates))
	}
	if len(actions) != batchSize {
		t.Errorf("expected action batch of length %v, got %v", batchSize,
			len(actions))
	}
	if len(rewards) != batchSize || len(masks) != batchSize {
		t.Errorf("expected reward and mask batches of length %v, got %v "+
			"and %v", batchSize, len(rewards), len(masks))
	}

	for i := 0; i < batchSize; i++ {
		step := int(rewards[i])

		// Each transition's pieces must come from the same step
		if states[2*i] != float64(step) || actions[i] != float64(step) {
			t.Errorf("transition %v mixes steps: state %v, action %v, "+
				"reward %v", i, states[2*i], actions[i], rewards[i])
		}

		// The next state must be the following step's observation
		if nextStates[2*i] != float64(step+1) {
			t.Errorf("transition %v: expected next state %v, got %v", i,
				step+1, nextStates[2*i])
		}

		// The mask must be the negation of the stored terminal flag
		expectedMask := 1.0
		if terminals[step] {
			expectedMask = 0.0
		}
		if masks[i] != expectedMask {
			t.Errorf("transition %v: expected mask %v for step %v, got %v",
				i, expectedMask, step, masks[i])
		}

		// Step 10 holds a final observation, so it must never be
		// sampled as a transition
		if step == 10 {
			t.Errorf("sampled the step holding episode 1's final " +
				"observation")
		}
	}
}

// TestSequentialSampleUnderfilled checks the guards against sampling
// before enough steps exist
func TestSequentialSampleUnderfilled(t *testing.T) {
	const minCapacity int = 5

	buffer, err := NewSequential(minCapacity, 100, 1, 2, 2, 1, 3)
	if err != nil {
		t.Fatal(err)
	}

	_, _, _, _, _, err = buffer.Sample()
	if !IsEmptyBuffer(err) {
		t.Errorf("expected an empty buffer error, got %v", err)
	}

	fill(t, buffer, minCapacity-1, nil)

	_, _, _, _, _, err = buffer.Sample()
	if !IsInsufficientSamples(err) {
		t.Errorf("expected an insufficient samples error, got %v", err)
	}

	// One more step reaches the minimum capacity
	fill(t, buffer, 1, nil)

	_, _, _, _, _, err = buffer.Sample()
	if err != nil {
		t.Errorf("expected sampling to succeed at min capacity, got %v", err)
	}
}

// TestSequentialWindow checks that observation windows are assembled
// from consecutive observations and zero-padded at episode boundaries
func TestSequentialWindow(t *testing.T) {
	const windowLength int = 3

	buffer, err := NewSequential(2, 100, windowLength, 1, 1, 1, 91)
	if err != nil {
		t.Fatal(err)
	}

	// Episode 1: observations 0, 1, 2; the transition at observation 2
	// is terminal and observation 3 is the episode's final observation.
	// Episode 2: observations 4, 5, 6.
	terminals := []bool{false, false, true, false, false, false, false}
	for i := 0; i < len(terminals); i++ {
		obs := mat.NewVecDense(1, []float64{float64(i + 1)})
		action := mat.NewVecDense(1, []float64{0.0})
		if err := buffer.Add(obs, action, float64(i), terminals[i]); err != nil {
			t.Fatal(err)
		}
	}

	seq := buffer.(*sequential)
	window := make([]float64, windowLength)

	// The window ending at the second step reaches the start of the
	// buffer and is zero-padded
	seq.window(window, 1)
	if window[0] != 0.0 || window[1] != 1.0 || window[2] != 2.0 {
		t.Errorf("expected window [0 1 2], got %v", window)
	}

	// The window ending at an episode's final observation spans only
	// that episode
	seq.window(window, 3)
	if window[0] != 2.0 || window[1] != 3.0 || window[2] != 4.0 {
		t.Errorf("expected window [2 3 4], got %v", window)
	}

	// A window in episode 2 must not straddle the boundary: the entry
	// before observation 5 holds episode 1's final observation
	seq.window(window, 4)
	if window[0] != 0.0 || window[1] != 0.0 || window[2] != 5.0 {
		t.Errorf("expected window [0 0 5], got %v", window)
	}

	seq.window(window, 6)
	if window[0] != 5.0 || window[1] != 6.0 || window[2] != 7.0 {
		t.Errorf("expected window [5 6 7], got %v", window)
	}
}

// TestSequentialAddInvalidSizes checks that steps with wrong vector
// sizes are rejected
func TestSequentialAddInvalidSizes(t *testing.T) {
	buffer, err := NewSequential(2, 10, 1, 1, 2, 1, 6)
	if err != nil {
		t.Fatal(err)
	}

	err = buffer.Add(mat.NewVecDense(3, nil), mat.NewVecDense(1, nil), 0,
		false)
	if err == nil {
		t.Error("expected an error for a mis-sized observation")
	}

	err = buffer.Add(mat.NewVecDense(2, nil), mat.NewVecDense(2, nil), 0,
		false)
	if err == nil {
		t.Error("expected an error for a mis-sized action")
	}
}
