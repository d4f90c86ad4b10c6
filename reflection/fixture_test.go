// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package reflection

import (
	"encoding/binary"
	"slices"
	"testing"

	"github.com/gogpu/naga/spirv"
)

// fixture assembles small SPIR-V modules for reflection tests.
type fixture struct {
	b       *spirv.ModuleBuilder
	version spirv.Version

	void uint32
	f32  uint32
	u32  uint32
	vec2 uint32
	vec3 uint32
	vec4 uint32
	mat4 uint32

	// globals lists the declared global variables in order; pointee and
	// storage describe each of them.
	globals []uint32
	pointee map[uint32]uint32
	storage map[uint32]spirv.StorageClass

	// extra holds declarations the builder has no API for (opaque and
	// specialization-constant types, and variables of opaque type). They
	// are spliced in after the builder's type declarations.
	extra []uint32

	// tail holds hand-assembled functions appended after the builder's.
	tail []uint32
}

func newFixture() *fixture {
	return newFixtureVersion(spirv.Version1_3)
}

func newFixtureVersion(version spirv.Version) *fixture {
	b := spirv.NewModuleBuilder(version)
	b.AddCapability(spirv.CapabilityShader)
	b.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)

	f := &fixture{
		b:       b,
		version: version,
		pointee: make(map[uint32]uint32),
		storage: make(map[uint32]spirv.StorageClass),
	}
	f.void = b.AddTypeVoid()
	f.f32 = b.AddTypeFloat(32)
	f.u32 = b.AddTypeInt(32, false)
	f.vec2 = b.AddTypeVector(f.f32, 2)
	f.vec3 = b.AddTypeVector(f.f32, 3)
	f.vec4 = b.AddTypeVector(f.f32, 4)
	f.mat4 = b.AddTypeMatrix(f.vec4, 4)
	return f
}

func (f *fixture) global(storage spirv.StorageClass, typeID uint32) uint32 {
	ptr := f.b.AddTypePointer(storage, typeID)
	v := f.b.AddVariable(ptr, storage)
	f.track(v, storage, typeID)
	return v
}

func (f *fixture) track(v uint32, storage spirv.StorageClass, typeID uint32) {
	f.globals = append(f.globals, v)
	f.pointee[v] = typeID
	f.storage[v] = storage
}

func (f *fixture) input(name string, typeID, location uint32) uint32 {
	v := f.global(spirv.StorageClassInput, typeID)
	f.b.AddName(v, name)
	f.b.AddDecorate(v, spirv.DecorationLocation, location)
	return v
}

func (f *fixture) output(name string, typeID, location uint32) uint32 {
	v := f.global(spirv.StorageClassOutput, typeID)
	f.b.AddName(v, name)
	f.b.AddDecorate(v, spirv.DecorationLocation, location)
	return v
}

// position adds a gl_Position-style built-in output.
func (f *fixture) position() uint32 {
	v := f.global(spirv.StorageClassOutput, f.vec4)
	f.b.AddName(v, "gl_Position")
	f.b.AddDecorate(v, spirv.DecorationBuiltIn, 0)
	return v
}

// block declares a struct whose members are laid out at the given offsets.
// Matrix members get a 16-byte matrix stride.
func (f *fixture) block(name string, members []uint32, offsets []uint32) uint32 {
	st := f.b.AddTypeStruct(members...)
	f.b.AddName(st, name)
	f.b.AddDecorate(st, spirv.DecorationBlock)
	for i, off := range offsets {
		f.b.AddMemberDecorate(st, uint32(i), spirv.DecorationOffset, off)
		if members[i] == f.mat4 {
			f.b.AddMemberDecorate(st, uint32(i), spirv.DecorationColMajor)
			f.b.AddMemberDecorate(st, uint32(i), spirv.DecorationMatrixStride, 16)
		}
	}
	return st
}

func (f *fixture) bind(v uint32, name string, set, binding uint32) uint32 {
	f.b.AddName(v, name)
	f.b.AddDecorate(v, spirv.DecorationDescriptorSet, set)
	f.b.AddDecorate(v, spirv.DecorationBinding, binding)
	return v
}

func (f *fixture) uniform(name string, set, binding uint32) uint32 {
	st := f.block(name+"_t", []uint32{f.mat4, f.vec4}, []uint32{0, 64})
	return f.bind(f.global(spirv.StorageClassUniform, st), name, set, binding)
}

func (f *fixture) storageBuffer(name string, set, binding uint32, readOnly bool) uint32 {
	st := f.block(name+"_t", []uint32{f.vec4, f.vec4}, []uint32{0, 16})
	if readOnly {
		f.b.AddMemberDecorate(st, 0, decorationNonWritable)
		f.b.AddMemberDecorate(st, 1, decorationNonWritable)
	}
	return f.bind(f.global(spirv.StorageClassStorageBuffer, st), name, set, binding)
}

func (f *fixture) pushConstants(members []uint32, offsets []uint32) uint32 {
	st := f.block("PushConstants", members, offsets)
	v := f.global(spirv.StorageClassPushConstant, st)
	f.b.AddName(v, "pc")
	return v
}

func (f *fixture) raw(op spirv.OpCode, operands ...uint32) {
	f.extra = append(f.extra, spirv.Instruction{Opcode: op, Words: operands}.Encode()...)
}

// opaque declares a UniformConstant variable of the opaque type typeID.
func (f *fixture) opaque(typeID uint32) uint32 {
	ptr := f.b.AllocID()
	v := f.b.AllocID()
	f.raw(spirv.OpTypePointer, ptr, uint32(spirv.StorageClassUniformConstant), typeID)
	f.raw(spirv.OpVariable, ptr, v, uint32(spirv.StorageClassUniformConstant))
	f.track(v, spirv.StorageClassUniformConstant, typeID)
	return v
}

// sampler declares a sampler binding.
func (f *fixture) sampler(name string, set, binding uint32) uint32 {
	id := f.b.AllocID()
	f.raw(opTypeSampler, id)
	return f.bind(f.opaque(id), name, set, binding)
}

// image declares a 2D image binding; sampled is 1 for a sampled texture and
// 2 for a storage image.
func (f *fixture) image(name string, set, binding, sampled uint32) uint32 {
	id := f.b.AllocID()
	f.raw(opTypeImage, id, f.f32, 1, 0, 0, 0, sampled, 0)
	return f.bind(f.opaque(id), name, set, binding)
}

// specConstant declares a u32 specialization constant with the given SpecId.
func (f *fixture) specConstant(name string, specID, value uint32) uint32 {
	id := f.b.AllocID()
	f.raw(opSpecConstant, f.u32, id, value)
	f.b.AddName(id, name)
	f.b.AddDecorate(id, decorationSpecID, specID)
	return id
}

// interfaceOf returns the variables of vars an entry point must list: inputs
// and outputs, and from SPIR-V 1.4 on every global.
func (f *fixture) interfaceOf(vars []uint32) []uint32 {
	var out []uint32
	for _, v := range vars {
		s := f.storage[v]
		if f.version.Minor >= 4 || s == spirv.StorageClassInput || s == spirv.StorageClassOutput {
			out = append(out, v)
		}
	}
	return out
}

// entryPoint adds an entry point whose body loads every variable in uses
// and whose interface lists exactly interfaces.
func (f *fixture) entryPoint(model spirv.ExecutionModel, name string, interfaces, uses []uint32) {
	fn := f.b.AddFunction(f.b.AddTypeFunction(f.void), f.void, spirv.FunctionControlNone)
	f.b.AddName(fn, name)
	f.b.AddLabel()
	for _, v := range uses {
		f.b.AddLoad(f.pointee[v], v)
	}
	f.b.AddReturn()
	f.b.AddFunctionEnd()
	f.b.AddEntryPoint(model, fn, name, interfaces)
	if model == spirv.ExecutionModelFragment {
		f.b.AddExecutionMode(fn, spirv.ExecutionModeOriginUpperLeft)
	}
}

// callingEntryPoint adds an entry point whose body only calls a helper
// function, and the helper loads every variable in uses.
func (f *fixture) callingEntryPoint(model spirv.ExecutionModel, name string, uses []uint32) {
	fnType := f.b.AddTypeFunction(f.void)
	helper, entry := f.b.AllocID(), f.b.AllocID()

	emit := func(op spirv.OpCode, operands ...uint32) {
		f.tail = append(f.tail, spirv.Instruction{Opcode: op, Words: operands}.Encode()...)
	}
	emit(spirv.OpFunction, f.void, helper, uint32(spirv.FunctionControlNone), fnType)
	emit(spirv.OpLabel, f.b.AllocID())
	for _, v := range uses {
		emit(spirv.OpLoad, f.pointee[v], f.b.AllocID(), v)
	}
	emit(spirv.OpReturn)
	emit(spirv.OpFunctionEnd)

	emit(spirv.OpFunction, f.void, entry, uint32(spirv.FunctionControlNone), fnType)
	emit(spirv.OpLabel, f.b.AllocID())
	emit(opFunctionCall, f.void, f.b.AllocID(), helper)
	emit(spirv.OpReturn)
	emit(spirv.OpFunctionEnd)

	f.b.AddName(entry, name)
	f.b.AddEntryPoint(model, entry, name, f.interfaceOf(uses))
}

// build adds one entry point that uses every declared global and returns
// the module.
func (f *fixture) build(t *testing.T, model spirv.ExecutionModel, entry string) []uint32 {
	t.Helper()
	f.entryPoint(model, entry, f.interfaceOf(f.globals), f.globals)
	return f.words(t)
}

// words assembles the module.
func (f *fixture) words(t *testing.T) []uint32 {
	t.Helper()
	words := toWords(t, f.b.Build())
	at := len(words)
	for i := headerWords; i < len(words); i += int(words[i] >> 16) {
		if op := spirv.OpCode(words[i] & 0xFFFF); op == spirv.OpVariable || op == spirv.OpFunction {
			at = i
			break
		}
	}
	return slices.Concat(words[:at], f.extra, words[at:], f.tail)
}

func toWords(t *testing.T, b []byte) []uint32 {
	t.Helper()
	if len(b)%4 != 0 {
		t.Fatalf("SPIR-V binary length %d is not word aligned", len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words
}

func mustParse(t *testing.T, words []uint32) *Module {
	t.Helper()
	m, err := Parse(words)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return m
}
