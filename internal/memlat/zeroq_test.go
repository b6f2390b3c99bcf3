package memlat

import (
	"math"
	"testing"

	"github.com/perfkit/benchreport/internal/config"
)

func TestBuildZeroQ(t *testing.T) {
	machine := config.Default()
	machine.ClockMHz = 1000 // ns == cycles at 1 GHz

	path := writeFixture(t, "zeroq.csv",
		"level,rw,cycles_per_access\n"+
			"L1,read,4\n"+
			"L1,read,6\n"+
			"L1,write,8\n"+
			"DRAM,read,300\n")

	rep, err := BuildZeroQ(path, machine)
	if err != nil {
		t.Fatalf("BuildZeroQ: %v", err)
	}

	if !rep.Samples.Has("ns_per_access") {
		t.Fatal("derived ns_per_access column missing")
	}
	if got := rep.Samples.Float("ns_per_access", 0); got != 4 {
		t.Errorf("ns_per_access = %v, want 4 at 1 GHz", got)
	}

	if got := rep.mean("L1", "read"); got != 5 {
		t.Errorf("L1 read mean = %v, want 5", got)
	}
	if got := rep.mean("L1", "write"); got != 8 {
		t.Errorf("L1 write mean = %v, want 8", got)
	}
	if got := rep.mean("L2", "read"); !math.IsNaN(got) {
		t.Errorf("absent level must report missing, got %v", got)
	}
}

func TestBuildZeroQClockScaling(t *testing.T) {
	machine := config.Default()
	machine.ClockMHz = 3000

	path := writeFixture(t, "zeroq.csv", "level,rw,cycles_per_access\nL1,read,6\n")
	rep, err := BuildZeroQ(path, machine)
	if err != nil {
		t.Fatalf("BuildZeroQ: %v", err)
	}
	if got := rep.mean("L1", "read"); got != 2 {
		t.Errorf("6 cycles at 3 GHz = %v ns, want 2", got)
	}
}
