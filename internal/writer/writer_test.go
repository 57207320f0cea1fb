// internal/writer/writer_test.go
package writer

import (
	"errors"
	"testing"

	"github.com/tamzrod/ups-replicator/internal/config"
	"github.com/tamzrod/ups-replicator/internal/megatec"
	"github.com/tamzrod/ups-replicator/internal/poller"
	"github.com/tamzrod/ups-replicator/internal/status"
)

// ---- fake endpoint client ----

type fakeEndpointClient struct {
	writes []writeCall
	fail   error

	lastRegs     []uint16
	lastRegsAddr uint16
}

type writeCall struct {
	unitID uint8
	addr   uint16
	regs   []uint16
}

func (f *fakeEndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	if f.fail != nil {
		return f.fail
	}
	cp := append([]uint16(nil), regs...)
	f.writes = append(f.writes, writeCall{unitID: unitID, addr: addr, regs: cp})
	f.lastRegs = cp
	f.lastRegsAddr = addr
	return nil
}

func onePlan() Plan {
	return Plan{
		UnitID: "ups1",
		Targets: []TargetEndpoint{
			{TargetID: 1, Endpoint: "ep1", UnitID: 7, Address: 100},
		},
	}
}

// ---- tests ----

func TestWriter_SuccessWritesFullBlock(t *testing.T) {
	fake := &fakeEndpointClient{}
	w := New(onePlan(), map[string]endpointClient{"ep1": fake})

	r := &megatec.Reading{InputVoltage: 220, BatteryLevel: 83.33}
	if err := w.Write(poller.Outcome{UnitID: "ups1", Reading: r}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fake.writes) != 1 {
		t.Fatalf("expected 1 write, got %d", len(fake.writes))
	}
	wc := fake.writes[0]
	if wc.unitID != 7 || wc.addr != 100 {
		t.Fatalf("unexpected destination: unit=%d addr=%d", wc.unitID, wc.addr)
	}
	if len(wc.regs) != status.ReadingRegisterCount {
		t.Fatalf("expected %d regs, got %d", status.ReadingRegisterCount, len(wc.regs))
	}
	if wc.regs[status.RegInputVoltage] != 2200 || wc.regs[status.RegBatteryLevel] != 8333 || wc.regs[status.RegValid] != 1 {
		t.Fatalf("unexpected regs: %v", wc.regs)
	}
}

func TestWriter_FailureClearsValidOnly(t *testing.T) {
	fake := &fakeEndpointClient{}
	w := New(onePlan(), map[string]endpointClient{"ep1": fake})

	o := poller.Outcome{UnitID: "ups1", Err: &megatec.ConnectionError{Op: "dial"}}
	if err := w.Write(o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fake.lastRegsAddr != 100+status.RegValid {
		t.Fatalf("expected valid flag addr %d, got %d", 100+status.RegValid, fake.lastRegsAddr)
	}
	if len(fake.lastRegs) != 1 || fake.lastRegs[0] != 0 {
		t.Fatalf("expected single zero register, got %v", fake.lastRegs)
	}
}

func TestWriter_MissingClientAndWriteError(t *testing.T) {
	plan := onePlan()
	plan.Targets = append(plan.Targets, TargetEndpoint{TargetID: 2, Endpoint: "ep2", Address: 0})

	broken := &fakeEndpointClient{fail: errors.New("refused")}
	w := New(plan, map[string]endpointClient{"ep1": broken})

	err := w.Write(poller.Outcome{Reading: &megatec.Reading{}})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestBuildPlan_StatusPerTarget(t *testing.T) {
	slot := uint16(2)
	sid := uint8(9)

	u := config.UnitConfig{
		ID: "ups1",
		Source: config.SourceConfig{
			Host:       "10.0.0.5",
			StatusSlot: &slot,
			DeviceName: "RACK-A",
		},
		Targets: []config.TargetConfig{
			{ID: 1, Endpoint: "a:502", UnitID: 1, Address: 10, StatusUnitID: &sid},
			{ID: 2, Endpoint: "b:502", UnitID: 2, Address: 20},
		},
	}

	plan, err := BuildPlan(u)
	if err != nil {
		t.Fatalf("BuildPlan err=%v", err)
	}
	if len(plan.Targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(plan.Targets))
	}
	if plan.Targets[1].Address != 20 || plan.Targets[1].UnitID != 2 {
		t.Fatalf("target not mapped: %+v", plan.Targets[1])
	}
	if len(plan.Status) != 1 {
		t.Fatalf("expected 1 status plan, got %d", len(plan.Status))
	}
	sp := plan.Status[0]
	if sp.Endpoint != "a:502" || sp.UnitID != 9 || sp.BaseSlot != 2 || sp.DeviceName != "RACK-A" {
		t.Fatalf("unexpected status plan: %+v", sp)
	}

	if _, err := BuildPlan(config.UnitConfig{}); err == nil {
		t.Fatalf("expected error for empty unit id")
	}
}

func TestBuild_NoDialAtStartup(t *testing.T) {
	u := config.UnitConfig{
		ID:     "ups1",
		Source: config.SourceConfig{TimeoutMs: 100},
		Targets: []config.TargetConfig{
			{Endpoint: "127.0.0.1:1"},
			{Endpoint: "127.0.0.1:1", Address: 50},
		},
	}

	set, err := Build(u)
	if err != nil {
		t.Fatalf("Build err=%v", err)
	}
	defer set.Close()

	if set.Data == nil || len(set.Status) != 0 {
		t.Fatalf("unexpected set: %+v", set)
	}
}
