package shaderset

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gogpu/naga/spirv"
)

// countingDevice is a fake Device that tracks live modules so tests can
// catch leaks and double frees.
type countingDevice struct {
	t *testing.T

	next      ShaderModuleID
	live      map[ShaderModuleID][]uint32
	labels    map[ShaderModuleID]string
	created   int
	destroyed int

	// failAt makes the n-th CreateShaderModule call fail (1-based).
	failAt int
	calls  int

	// invalidIDs makes every call return InvalidModule without an error.
	invalidIDs bool
}

var errRejected = errors.New("device rejected module")

func newCountingDevice(t *testing.T) *countingDevice {
	return &countingDevice{
		t:      t,
		live:   make(map[ShaderModuleID][]uint32),
		labels: make(map[ShaderModuleID]string),
	}
}

func (d *countingDevice) CreateShaderModule(code []uint32, label string) (ShaderModuleID, error) {
	d.calls++
	if d.failAt != 0 && d.calls == d.failAt {
		return InvalidModule, errRejected
	}
	if d.invalidIDs {
		return InvalidModule, nil
	}
	d.next++
	d.live[d.next] = code
	d.labels[d.next] = label
	d.created++
	return d.next, nil
}

func (d *countingDevice) DestroyShaderModule(id ShaderModuleID) {
	if _, ok := d.live[id]; !ok {
		d.t.Errorf("DestroyShaderModule(%d): module not live (double free?)", id)
		return
	}
	delete(d.live, id)
	d.destroyed++
}

func (d *countingDevice) assertNoLeaks(t *testing.T) {
	t.Helper()
	if len(d.live) != 0 {
		t.Errorf("%d modules leaked (created %d, destroyed %d)", len(d.live), d.created, d.destroyed)
	}
}

// errShader is a Shader whose bytecode extraction always fails.
type errShader struct {
	stage Stage
	err   error
}

func (s errShader) Bytecode() (Bytecode, error) { return Bytecode{}, s.err }
func (s errShader) EntryPoint() string          { return "main" }
func (s errShader) Stage() Stage                { return s.stage }

func mustShader(t *testing.T, stage Stage, words ...uint32) StageShader {
	t.Helper()
	code, err := FromWords(words)
	if err != nil {
		t.Fatal(err)
	}
	sh, err := NewStageShader(code, stage, "main")
	if err != nil {
		t.Fatal(err)
	}
	return sh
}

// resourceKind selects the resource spirvShader declares at set 0 binding 1.
type resourceKind int

const (
	noResource resourceKind = iota
	uniformResource
	storageResource
)

// spirvShader assembles a minimal SPIR-V module for stage with an optional
// buffer at set 0, binding 1.
func spirvShader(t *testing.T, stage Stage, res resourceKind) StageShader {
	t.Helper()
	b := spirv.NewModuleBuilder(spirv.Version1_3)
	b.AddCapability(spirv.CapabilityShader)
	b.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)

	void := b.AddTypeVoid()
	f32 := b.AddTypeFloat(32)
	vec4 := b.AddTypeVector(f32, 4)

	// Each global is loaded by the entry point so reflection counts it as used.
	type load struct{ typeID, v uint32 }
	var interfaces []uint32
	var loads []load
	if stage == StageVertex {
		ptr := b.AddTypePointer(spirv.StorageClassInput, vec4)
		v := b.AddVariable(ptr, spirv.StorageClassInput)
		b.AddName(v, "position")
		b.AddDecorate(v, spirv.DecorationLocation, 0)
		interfaces = append(interfaces, v)
		loads = append(loads, load{vec4, v})
	}

	if res != noResource {
		st := b.AddTypeStruct(vec4)
		b.AddDecorate(st, spirv.DecorationBlock)
		b.AddMemberDecorate(st, 0, spirv.DecorationOffset, 0)
		storage := spirv.StorageClassUniform
		if res == storageResource {
			storage = spirv.StorageClassStorageBuffer
		}
		ptr := b.AddTypePointer(storage, st)
		v := b.AddVariable(ptr, storage)
		b.AddName(v, "globals")
		b.AddDecorate(v, spirv.DecorationDescriptorSet, 0)
		b.AddDecorate(v, spirv.DecorationBinding, 1)
		loads = append(loads, load{st, v})
	}

	model := spirv.ExecutionModelVertex
	switch stage {
	case StageFragment:
		model = spirv.ExecutionModelFragment
	case StageCompute:
		model = spirv.ExecutionModelGLCompute
	}

	fn := b.AddFunction(b.AddTypeFunction(void), void, spirv.FunctionControlNone)
	b.AddLabel()
	for _, l := range loads {
		b.AddLoad(l.typeID, l.v)
	}
	b.AddReturn()
	b.AddFunctionEnd()
	b.AddEntryPoint(model, fn, "main", interfaces)
	if model == spirv.ExecutionModelFragment {
		b.AddExecutionMode(fn, spirv.ExecutionModeOriginUpperLeft)
	}

	raw := b.Build()
	words := make([]uint32, len(raw)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	return mustShader(t, stage, words...)
}
