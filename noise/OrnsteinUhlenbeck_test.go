package noise

import (
	"testing"
)

// TestOrnsteinUhlenbeckDeterminism checks that two processes
// constructed with the same seed produce identical sample sequences
func TestOrnsteinUhlenbeckDeterminism(t *testing.T) {
	const size int = 3
	const seed uint64 = 192382

	o1, err := NewOrnsteinUhlenbeck(size, 0.15, 0.0, 0.2, 1.0, seed)
	if err != nil {
		t.Fatal(err)
	}
	o2, err := NewOrnsteinUhlenbeck(size, 0.15, 0.0, 0.2, 1.0, seed)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 100; i++ {
		s1 := o1.Sample()
		s2 := o2.Sample()

		if s1.Len() != size || s2.Len() != size {
			t.Fatalf("sample %v: expected samples of length %v, got %v "+
				"and %v", i, size, s1.Len(), s2.Len())
		}

		for j := 0; j < size; j++ {
			if s1.AtVec(j) != s2.AtVec(j) {
				t.Errorf("sample %v: same seed produced different values "+
					"at index %v: %v != %v", i, j, s1.AtVec(j), s2.AtVec(j))
			}
		}
	}
}

// TestOrnsteinUhlenbeckReset checks that resetting a process produces
// the same sample sequence as a freshly constructed process with the
// same source of randomness
func TestOrnsteinUhlenbeckReset(t *testing.T) {
	const size int = 2
	const seed uint64 = 813

	drifted, err := NewOrnsteinUhlenbeck(size, 0.15, 0.0, 0.2, 1.0, seed)
	if err != nil {
		t.Fatal(err)
	}
	fresh, err := NewOrnsteinUhlenbeck(size, 0.15, 0.0, 0.2, 1.0, seed)
	if err != nil {
		t.Fatal(err)
	}

	// Drift one process away from its mean, then reset it. Drawing the
	// same number of samples from the fresh process keeps the two
	// processes' random sources in lockstep.
	for i := 0; i < 25; i++ {
		drifted.Sample()
		fresh.Sample()
	}
	drifted.Reset()
	fresh.Reset()

	for i := 0; i < 25; i++ {
		s1 := drifted.Sample()
		s2 := fresh.Sample()

		for j := 0; j < size; j++ {
			if s1.AtVec(j) != s2.AtVec(j) {
				t.Errorf("sample %v: reset processes diverged at index "+
					"%v: %v != %v", i, j, s1.AtVec(j), s2.AtVec(j))
			}
		}
	}
}

// TestOrnsteinUhlenbeckMeanReversion checks that with no noise the
// process decays geometrically toward its mean
func TestOrnsteinUhlenbeckMeanReversion(t *testing.T) {
	const theta float64 = 0.15
	const mu float64 = 1.5

	o, err := NewOrnsteinUhlenbeck(1, theta, mu, 0.0, 1.0, 14)
	if err != nil {
		t.Fatal(err)
	}

	// Push the process away from its mean
	o.state[0] = 0.0

	expected := 0.0
	for i := 0; i < 50; i++ {
		expected += theta * (mu - expected)
		sample := o.Sample()

		if diff := sample.AtVec(0) - expected; diff > 1e-10 || diff < -1e-10 {
			t.Fatalf("sample %v: expected %v, got %v", i, expected,
				sample.AtVec(0))
		}
	}
}

func TestNewOrnsteinUhlenbeckInvalidArgs(t *testing.T) {
	if _, err := NewOrnsteinUhlenbeck(0, 0.15, 0.0, 0.2, 1.0, 1); err == nil {
		t.Error("expected an error for a size of 0")
	}

	if _, err := NewOrnsteinUhlenbeck(1, 0.15, 0.0, 0.2, 0.0, 1); err == nil {
		t.Error("expected an error for a dt of 0")
	}
}
