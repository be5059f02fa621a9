package fetch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"restate_api/internal/fetch"
)

func TestSkip_StaysIdleUntilRefetch(t *testing.T) {
	calls := 0
	c := fetch.New(context.Background(), fetch.Options[string, string]{
		Fn: func(ctx context.Context, p string) (string, error) {
			calls++
			return "result:" + p, nil
		},
		Params: "initial",
		Skip:   true,
	})

	st := c.Snapshot()
	if st.Loading || st.Data != nil || st.Err != "" {
		t.Fatalf("expected idle state, got %+v", st)
	}
	if calls != 0 {
		t.Fatalf("fn invoked despite skip")
	}

	c.Refetch(context.Background())
	st = c.Snapshot()
	if st.Data == nil || *st.Data != "result:initial" {
		t.Fatalf("refetch with no params must reuse initial params, got %+v", st)
	}
}

func TestAutoInvocation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	c := fetch.New(context.Background(), fetch.Options[int, []int]{
		Fn: func(ctx context.Context, n int) ([]int, error) {
			close(started)
			<-release
			return []int{n, n + 1}, nil
		},
		Params: 7,
	})

	if st := c.Snapshot(); !st.Loading {
		t.Fatalf("expected loading immediately after construction, got %+v", st)
	}
	<-started
	close(release)
	c.Wait()

	st := c.Snapshot()
	if st.Loading || st.Err != "" || st.Data == nil || len(*st.Data) != 2 || (*st.Data)[0] != 7 {
		t.Fatalf("unexpected final state: %+v", st)
	}
}

func TestFailure_KeepsPreviousData(t *testing.T) {
	fail := false
	c := fetch.New(context.Background(), fetch.Options[string, string]{
		Fn: func(ctx context.Context, p string) (string, error) {
			if fail {
				return "", errors.New("backend unavailable")
			}
			return "good:" + p, nil
		},
		Params: "a",
		Skip:   true,
	})

	c.Refetch(context.Background(), "a")
	if st := c.Snapshot(); st.Data == nil || *st.Data != "good:a" {
		t.Fatalf("seed fetch failed: %+v", st)
	}

	fail = true
	c.Refetch(context.Background(), "b")
	st := c.Snapshot()
	if st.Loading {
		t.Fatalf("loading must clear after failure")
	}
	if st.Err == "" {
		t.Fatalf("expected error message")
	}
	if st.Data == nil || *st.Data != "good:a" {
		t.Fatalf("failed refetch must not blank existing data, got %+v", st)
	}
}

func TestPanicBecomesErrorState(t *testing.T) {
	c := fetch.New(context.Background(), fetch.Options[struct{}, int]{
		Fn:   func(ctx context.Context, _ struct{}) (int, error) { panic("boom") },
		Skip: true,
	})
	c.Refetch(context.Background())
	st := c.Snapshot()
	if st.Err == "" || st.Loading {
		t.Fatalf("panic must surface as error state, got %+v", st)
	}
}

// A slow early call completing after a fast later call must not clobber
// the later call's result.
func TestStaleCompletionDiscarded(t *testing.T) {
	type gate struct {
		entered chan struct{}
		release chan struct{}
	}
	gates := map[string]*gate{
		"Villa": {entered: make(chan struct{}), release: make(chan struct{})},
		"All":   {entered: make(chan struct{}), release: make(chan struct{})},
	}

	c := fetch.New(context.Background(), fetch.Options[string, string]{
		Fn: func(ctx context.Context, p string) (string, error) {
			g := gates[p]
			close(g.entered)
			<-g.release
			return "data:" + p, nil
		},
		Skip: true,
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); c.Refetch(context.Background(), "Villa") }()
	<-gates["Villa"].entered // first call registered before the second starts
	go func() { defer wg.Done(); c.Refetch(context.Background(), "All") }()
	<-gates["All"].entered

	close(gates["All"].release) // later call completes first
	waitFor(t, func() bool {
		st := c.Snapshot()
		return st.Data != nil && *st.Data == "data:All"
	})
	close(gates["Villa"].release) // earlier call completes late
	wg.Wait()

	st := c.Snapshot()
	if st.Data == nil || *st.Data != "data:All" {
		t.Fatalf("stale completion overwrote newer result: %+v", st)
	}
	if st.Loading {
		t.Fatalf("loading must clear once all calls settle")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}
