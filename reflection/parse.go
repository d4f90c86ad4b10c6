// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package reflection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga/spirv"

	"github.com/gogpu/shaderset/gpucore"
)

// Enumerants the naga writer does not export.
const (
	opTypeImage         spirv.OpCode = 25
	opTypeSampler       spirv.OpCode = 26
	opTypeSampledImage  spirv.OpCode = 27
	opTypeRuntimeArray  spirv.OpCode = 29
	opSpecConstantTrue  spirv.OpCode = 48
	opSpecConstantFalse spirv.OpCode = 49
	opSpecConstant      spirv.OpCode = 50
	opFunctionCall      spirv.OpCode = 57

	decorationSpecID      spirv.Decoration = 1
	decorationBufferBlock spirv.Decoration = 3
	decorationNonWritable spirv.Decoration = 24

	execModelTessControl spirv.ExecutionModel = 1
	execModelTessEval    spirv.ExecutionModel = 2
	execModelGeometry    spirv.ExecutionModel = 3

	headerWords = 5

	// From SPIR-V 1.4 on, an entry point's interface lists every global
	// variable its call tree uses, not only inputs and outputs.
	version1_4 = 0x00010400

	// maxTypeDepth bounds recursion through nested types.
	maxTypeDepth = 32
)

type typeKind uint8

const (
	typeUnknown typeKind = iota
	typeVoid
	typeBool
	typeInt
	typeFloat
	typeVector
	typeMatrix
	typeArray
	typeRuntimeArray
	typeStruct
	typePointer
	typeImage
	typeSampler
	typeSampledImage
)

type typeInfo struct {
	kind    typeKind
	width   uint32
	signed  bool
	elem    uint32 // component, column, element, pointee or image type
	count   uint32 // vector components or matrix columns
	length  uint32 // array length constant ID
	members []uint32
	storage spirv.StorageClass

	dim, arrayed, sampled uint32
}

type variable struct {
	id      uint32
	typeID  uint32
	storage spirv.StorageClass
}

type decorations map[spirv.Decoration][]uint32

type idSet map[uint32]struct{}

func (s idSet) has(id uint32) bool {
	_, ok := s[id]
	return ok
}

type entryRecord struct {
	EntryPoint
	function   uint32
	interfaces []uint32
}

type parser struct {
	names             map[uint32]string
	memberNames       map[uint32]map[uint32]string
	decorations       map[uint32]decorations
	memberDecorations map[uint32]map[uint32]decorations
	types             map[uint32]*typeInfo
	constants         map[uint32]uint32
	specConstants     []variable
	variables         []variable
	entryPoints       []entryRecord

	version uint32

	// function is the ID of the function body being read, 0 outside one.
	function uint32
	refs     map[uint32]idSet
	calls    map[uint32][]uint32
}

// Parse reflects a SPIR-V module given as 32-bit words.
func Parse(words []uint32) (*Module, error) {
	if len(words) < headerWords {
		return nil, malformedf("module has %d words, header needs %d", len(words), headerWords)
	}
	switch words[0] {
	case spirv.MagicNumber:
	case swap32(spirv.MagicNumber):
		return nil, malformedf("byte-swapped magic number (words decoded with the wrong byte order)")
	default:
		return nil, malformedf("bad magic number %#08x", words[0])
	}

	p := &parser{
		names:             make(map[uint32]string),
		memberNames:       make(map[uint32]map[uint32]string),
		decorations:       make(map[uint32]decorations),
		memberDecorations: make(map[uint32]map[uint32]decorations),
		types:             make(map[uint32]*typeInfo),
		constants:         make(map[uint32]uint32),
		version:           words[1],
		refs:              make(map[uint32]idSet),
		calls:             make(map[uint32][]uint32),
	}

	for i := headerWords; i < len(words); {
		count := int(words[i] >> 16)
		op := spirv.OpCode(words[i] & 0xFFFF)
		if count == 0 || i+count > len(words) {
			return nil, malformedf("instruction at word %d has invalid length %d", i, count)
		}
		p.track(op, words[i+1:i+count])
		if err := p.instruction(op, words[i+1:i+count]); err != nil {
			return nil, fmt.Errorf("word %d: %w", i, err)
		}
		i += count
	}
	return p.module()
}

func swap32(w uint32) uint32 {
	return w>>24 | (w>>8)&0xFF00 | (w<<8)&0xFF0000 | w<<24
}

// track records the IDs each function body mentions and the functions it
// calls, so that globals can be attributed to entry points.
func (p *parser) track(op spirv.OpCode, ops []uint32) {
	switch op {
	case spirv.OpFunction:
		if len(ops) >= 2 {
			p.function = ops[1]
		}
		return
	case spirv.OpFunctionEnd:
		p.function = 0
		return
	}
	if p.function == 0 {
		return
	}
	if op == opFunctionCall && len(ops) >= 3 {
		p.calls[p.function] = append(p.calls[p.function], ops[2])
	}
	refs := p.refs[p.function]
	if refs == nil {
		refs = make(idSet)
		p.refs[p.function] = refs
	}
	for _, id := range ops {
		refs[id] = struct{}{}
	}
}

func need(op spirv.OpCode, ops []uint32, n int) error {
	if len(ops) < n {
		return malformedf("opcode %d needs %d operands, has %d", op, n, len(ops))
	}
	return nil
}

//nolint:gocyclo // one case per opcode
func (p *parser) instruction(op spirv.OpCode, ops []uint32) error {
	switch op {
	case spirv.OpName:
		if err := need(op, ops, 1); err != nil {
			return err
		}
		p.names[ops[0]] = decodeString(ops[1:])

	case spirv.OpMemberName:
		if err := need(op, ops, 2); err != nil {
			return err
		}
		m := p.memberNames[ops[0]]
		if m == nil {
			m = make(map[uint32]string)
			p.memberNames[ops[0]] = m
		}
		m[ops[1]] = decodeString(ops[2:])

	case spirv.OpEntryPoint:
		if err := need(op, ops, 3); err != nil {
			return err
		}
		if stage, ok := stageOf(spirv.ExecutionModel(ops[0])); ok {
			n := stringWords(ops[2:])
			p.entryPoints = append(p.entryPoints, entryRecord{
				EntryPoint: EntryPoint{Name: decodeString(ops[2:]), Stage: stage},
				function:   ops[1],
				interfaces: append([]uint32(nil), ops[2+n:]...),
			})
		}

	case spirv.OpDecorate:
		if err := need(op, ops, 2); err != nil {
			return err
		}
		d := p.decorations[ops[0]]
		if d == nil {
			d = make(decorations)
			p.decorations[ops[0]] = d
		}
		d[spirv.Decoration(ops[1])] = ops[2:]

	case spirv.OpMemberDecorate:
		if err := need(op, ops, 3); err != nil {
			return err
		}
		byMember := p.memberDecorations[ops[0]]
		if byMember == nil {
			byMember = make(map[uint32]decorations)
			p.memberDecorations[ops[0]] = byMember
		}
		d := byMember[ops[1]]
		if d == nil {
			d = make(decorations)
			byMember[ops[1]] = d
		}
		d[spirv.Decoration(ops[2])] = ops[3:]

	case spirv.OpTypeVoid:
		return p.defineType(op, ops, 1, &typeInfo{kind: typeVoid})
	case spirv.OpTypeBool:
		return p.defineType(op, ops, 1, &typeInfo{kind: typeBool, width: 32})
	case spirv.OpTypeInt:
		if err := need(op, ops, 3); err != nil {
			return err
		}
		return p.defineType(op, ops, 3, &typeInfo{kind: typeInt, width: ops[1], signed: ops[2] != 0})
	case spirv.OpTypeFloat:
		if err := need(op, ops, 2); err != nil {
			return err
		}
		return p.defineType(op, ops, 2, &typeInfo{kind: typeFloat, width: ops[1]})
	case spirv.OpTypeVector:
		if err := need(op, ops, 3); err != nil {
			return err
		}
		return p.defineType(op, ops, 3, &typeInfo{kind: typeVector, elem: ops[1], count: ops[2]}, ops[1])
	case spirv.OpTypeMatrix:
		if err := need(op, ops, 3); err != nil {
			return err
		}
		return p.defineType(op, ops, 3, &typeInfo{kind: typeMatrix, elem: ops[1], count: ops[2]}, ops[1])
	case opTypeImage:
		if err := need(op, ops, 7); err != nil {
			return err
		}
		return p.defineType(op, ops, 7, &typeInfo{
			kind:    typeImage,
			elem:    ops[1],
			dim:     ops[2],
			arrayed: ops[4],
			sampled: ops[6],
		}, ops[1])
	case opTypeSampler:
		return p.defineType(op, ops, 1, &typeInfo{kind: typeSampler})
	case opTypeSampledImage:
		if err := need(op, ops, 2); err != nil {
			return err
		}
		return p.defineType(op, ops, 2, &typeInfo{kind: typeSampledImage, elem: ops[1]}, ops[1])
	case spirv.OpTypeArray:
		if err := need(op, ops, 3); err != nil {
			return err
		}
		return p.defineType(op, ops, 3, &typeInfo{kind: typeArray, elem: ops[1], length: ops[2]}, ops[1])
	case opTypeRuntimeArray:
		if err := need(op, ops, 2); err != nil {
			return err
		}
		return p.defineType(op, ops, 2, &typeInfo{kind: typeRuntimeArray, elem: ops[1]}, ops[1])
	case spirv.OpTypeStruct:
		if err := need(op, ops, 1); err != nil {
			return err
		}
		members := append([]uint32(nil), ops[1:]...)
		return p.defineType(op, ops, 1, &typeInfo{kind: typeStruct, members: members}, members...)
	case spirv.OpTypePointer:
		if err := need(op, ops, 3); err != nil {
			return err
		}
		return p.defineType(op, ops, 3, &typeInfo{kind: typePointer, storage: spirv.StorageClass(ops[1]), elem: ops[2]}, ops[2])

	case spirv.OpConstant:
		if err := need(op, ops, 3); err != nil {
			return err
		}
		p.constants[ops[1]] = ops[2]

	case opSpecConstantTrue, opSpecConstantFalse, opSpecConstant:
		if err := need(op, ops, 2); err != nil {
			return err
		}
		p.specConstants = append(p.specConstants, variable{id: ops[1], typeID: ops[0]})

	case spirv.OpVariable:
		if err := need(op, ops, 3); err != nil {
			return err
		}
		storage := spirv.StorageClass(ops[2])
		if storage != spirv.StorageClassFunction {
			p.variables = append(p.variables, variable{id: ops[1], typeID: ops[0], storage: storage})
		}
	}
	return nil
}

// defineType records t under the result ID in ops[0]. Every type in refs must
// already be defined: SPIR-V declares types before their use, which also
// rules out self-referential types.
func (p *parser) defineType(op spirv.OpCode, ops []uint32, n int, t *typeInfo, refs ...uint32) error {
	if err := need(op, ops, n); err != nil {
		return err
	}
	if _, dup := p.types[ops[0]]; dup {
		return malformedf("type ID %d defined twice", ops[0])
	}
	for _, ref := range refs {
		if _, ok := p.types[ref]; !ok {
			return malformedf("type %d refers to undefined type %d", ops[0], ref)
		}
	}
	p.types[ops[0]] = t
	return nil
}

func stageOf(model spirv.ExecutionModel) (gpucore.Stage, bool) {
	switch model {
	case spirv.ExecutionModelVertex:
		return gpucore.StageVertex, true
	case spirv.ExecutionModelFragment:
		return gpucore.StageFragment, true
	case spirv.ExecutionModelGLCompute:
		return gpucore.StageCompute, true
	case execModelGeometry:
		return gpucore.StageGeometry, true
	case execModelTessControl:
		return gpucore.StageTessControl, true
	case execModelTessEval:
		return gpucore.StageTessEval, true
	default:
		return 0, false
	}
}

// decodeString reads a nul-terminated UTF-8 literal packed little-endian
// into words.
func decodeString(words []uint32) string {
	var sb strings.Builder
	for _, w := range words {
		for shift := 0; shift < 32; shift += 8 {
			c := byte(w >> shift)
			if c == 0 {
				return sb.String()
			}
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// stringWords returns the number of words a nul-terminated literal string
// occupies at the start of words.
func stringWords(words []uint32) int {
	for i, w := range words {
		if w&0xFF == 0 || w&0xFF00 == 0 || w&0xFF0000 == 0 || w&0xFF000000 == 0 {
			return i + 1
		}
	}
	return len(words)
}

type boundBinding struct {
	Binding
	id uint32
}

func (p *parser) module() (*Module, error) {
	m := &Module{}
	var bindings []boundBinding

	for _, v := range p.variables {
		ptr := p.types[v.typeID]
		if ptr == nil || ptr.kind != typePointer {
			return nil, malformedf("variable %d has non-pointer type %d", v.id, v.typeID)
		}
		var err error
		switch v.storage {
		case spirv.StorageClassInput, spirv.StorageClassOutput:
			var iv Variable
			var ok bool
			iv, ok, err = p.interfaceVariable(v, ptr.elem)
			if ok {
				if v.storage == spirv.StorageClassInput {
					m.Inputs = append(m.Inputs, iv)
					m.inputIDs = append(m.inputIDs, v.id)
				} else {
					m.Outputs = append(m.Outputs, iv)
					m.outputIDs = append(m.outputIDs, v.id)
				}
			}
		case spirv.StorageClassUniformConstant, spirv.StorageClassUniform, spirv.StorageClassStorageBuffer:
			var b Binding
			var ok bool
			b, ok, err = p.binding(v, ptr.elem)
			if ok {
				bindings = append(bindings, boundBinding{Binding: b, id: v.id})
			}
		case spirv.StorageClassPushConstant:
			var r PushConstantRange
			r, err = p.pushConstant(ptr.elem)
			if err == nil && r.Size > 0 {
				m.PushConstants = append(m.PushConstants, r)
				m.pushIDs = append(m.pushIDs, v.id)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	for _, sc := range p.specConstants {
		id, ok := p.decoration(sc.id, decorationSpecID)
		if !ok {
			continue
		}
		size := uint32(4)
		if t := p.types[sc.typeID]; t != nil && t.kind != typeBool && t.width > 0 {
			size = t.width / 8
		}
		m.SpecConstants = append(m.SpecConstants, SpecConstant{Name: p.names[sc.id], ID: id, Size: size})
	}

	sort.SliceStable(bindings, func(i, j int) bool {
		if bindings[i].Set != bindings[j].Set {
			return bindings[i].Set < bindings[j].Set
		}
		return bindings[i].Binding.Binding < bindings[j].Binding.Binding
	})
	for _, b := range bindings {
		m.Bindings = append(m.Bindings, b.Binding)
		m.bindingIDs = append(m.bindingIDs, b.id)
	}
	sort.Slice(m.SpecConstants, func(i, j int) bool { return m.SpecConstants[i].ID < m.SpecConstants[j].ID })

	m.active = make(map[EntryPoint]idSet, len(p.entryPoints))
	for _, ep := range p.entryPoints {
		m.EntryPoints = append(m.EntryPoints, ep.EntryPoint)
		m.active[ep.EntryPoint] = p.activeGlobals(ep)
	}
	return m, nil
}

// activeGlobals returns the global variables used by the call tree of an
// entry point. Inputs and outputs, and from SPIR-V 1.4 on every global, must
// also appear in the entry point's interface.
func (p *parser) activeGlobals(ep entryRecord) idSet {
	used := make(idSet)
	visited := make(idSet)
	stack := []uint32{ep.function}
	for len(stack) > 0 {
		fn := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.has(fn) {
			continue
		}
		visited[fn] = struct{}{}
		for id := range p.refs[fn] {
			used[id] = struct{}{}
		}
		stack = append(stack, p.calls[fn]...)
	}

	listed := make(idSet, len(ep.interfaces))
	for _, id := range ep.interfaces {
		listed[id] = struct{}{}
	}
	active := make(idSet)
	for _, v := range p.variables {
		if !used.has(v.id) {
			continue
		}
		mustList := p.version >= version1_4 ||
			v.storage == spirv.StorageClassInput || v.storage == spirv.StorageClassOutput
		if mustList && !listed.has(v.id) {
			continue
		}
		active[v.id] = struct{}{}
	}
	return active
}

// decoration returns the first operand of a decoration on id.
func (p *parser) decoration(id uint32, d spirv.Decoration) (uint32, bool) {
	ops, ok := p.decorations[id][d]
	if !ok {
		return 0, false
	}
	if len(ops) == 0 {
		return 0, true
	}
	return ops[0], true
}

func (p *parser) hasDecoration(id uint32, d spirv.Decoration) bool {
	_, ok := p.decorations[id][d]
	return ok
}

func (p *parser) memberDecoration(structID, member uint32, d spirv.Decoration) (uint32, bool) {
	ops, ok := p.memberDecorations[structID][member][d]
	if !ok {
		return 0, false
	}
	if len(ops) == 0 {
		return 0, true
	}
	return ops[0], true
}

func (p *parser) interfaceVariable(v variable, typeID uint32) (Variable, bool, error) {
	if p.hasDecoration(v.id, spirv.DecorationBuiltIn) {
		return Variable{}, false, nil
	}
	loc, ok := p.decoration(v.id, spirv.DecorationLocation)
	if !ok {
		return Variable{}, false, nil
	}
	// Per-vertex arrays of geometry and tessellation stages.
	t := p.types[typeID]
	for depth := 0; t != nil && t.kind == typeArray; depth++ {
		if depth > maxTypeDepth {
			return Variable{}, false, malformedf("variable %d: array type %d nests too deeply", v.id, typeID)
		}
		typeID = t.elem
		t = p.types[typeID]
	}
	return Variable{
		Name:     p.names[v.id],
		Location: loc,
		Format:   p.format(typeID, 0),
	}, true, nil
}

func (p *parser) format(typeID uint32, depth int) Format {
	t := p.types[typeID]
	if t == nil || depth > maxTypeDepth {
		return Format{}
	}
	switch t.kind {
	case typeBool:
		return Format{Kind: ScalarBool, Width: 32, Components: 1}
	case typeInt:
		kind := ScalarUint
		if t.signed {
			kind = ScalarSint
		}
		return Format{Kind: kind, Width: t.width, Components: 1}
	case typeFloat:
		return Format{Kind: ScalarFloat, Width: t.width, Components: 1}
	case typeVector:
		f := p.format(t.elem, depth+1)
		f.Components = t.count
		return f
	case typeMatrix:
		return p.format(t.elem, depth+1)
	default:
		return Format{}
	}
}

func (p *parser) binding(v variable, typeID uint32) (Binding, bool, error) {
	count := uint32(1)
	t := p.types[typeID]
	switch {
	case t == nil:
		return Binding{}, false, malformedf("variable %d points to undefined type %d", v.id, typeID)
	case t.kind == typeArray:
		n, ok := p.constants[t.length]
		if !ok {
			return Binding{}, false, malformedf("array type %d has non-constant length %d", typeID, t.length)
		}
		count = n
		typeID = t.elem
	case t.kind == typeRuntimeArray:
		count = 0
		typeID = t.elem
	}
	t = p.types[typeID]
	if t == nil {
		return Binding{}, false, malformedf("variable %d has undefined element type %d", v.id, typeID)
	}

	set, _ := p.decoration(v.id, spirv.DecorationDescriptorSet)
	slot, hasBinding := p.decoration(v.id, spirv.DecorationBinding)
	if !hasBinding {
		return Binding{}, false, nil
	}

	b := Binding{
		Name:    p.names[v.id],
		Set:     set,
		Binding: slot,
		Count:   count,
	}

	switch t.kind {
	case typeStruct:
		if b.Name == "" {
			b.Name = p.names[typeID]
		}
		switch {
		case v.storage == spirv.StorageClassStorageBuffer, p.hasDecoration(typeID, decorationBufferBlock):
			b.Kind = gpucore.BindingKindStorageBuffer
			if p.allMembersNonWritable(v.id, typeID) {
				b.Kind = gpucore.BindingKindReadOnlyStorageBuffer
			}
		case v.storage == spirv.StorageClassUniform:
			b.Kind = gpucore.BindingKindUniformBuffer
		default:
			return Binding{}, false, nil
		}
		size, err := p.sizeOf(typeID, 0)
		if err != nil {
			return Binding{}, false, err
		}
		b.Size = uint64(size)
	case typeSampler:
		b.Kind = gpucore.BindingKindSampler
	case typeSampledImage:
		b.Kind = gpucore.BindingKindCombinedImageSampler
		if img := p.types[t.elem]; img != nil {
			b.ViewDimension = viewDimension(img)
		}
	case typeImage:
		b.Kind = gpucore.BindingKindSampledTexture
		if t.sampled == 2 {
			b.Kind = gpucore.BindingKindStorageTexture
		}
		b.ViewDimension = viewDimension(t)
	default:
		return Binding{}, false, nil
	}
	return b, true, nil
}

func (p *parser) allMembersNonWritable(varID, structID uint32) bool {
	if p.hasDecoration(varID, decorationNonWritable) {
		return true
	}
	t := p.types[structID]
	if len(t.members) == 0 {
		return false
	}
	for i := range t.members {
		if _, ok := p.memberDecoration(structID, uint32(i), decorationNonWritable); !ok {
			return false
		}
	}
	return true
}

func viewDimension(img *typeInfo) gputypes.TextureViewDimension {
	switch img.dim {
	case 0:
		return gputypes.TextureViewDimension1D
	case 2:
		return gputypes.TextureViewDimension3D
	case 3:
		if img.arrayed != 0 {
			return gputypes.TextureViewDimensionCubeArray
		}
		return gputypes.TextureViewDimensionCube
	default:
		if img.arrayed != 0 {
			return gputypes.TextureViewDimension2DArray
		}
		return gputypes.TextureViewDimension2D
	}
}

func (p *parser) pushConstant(typeID uint32) (PushConstantRange, error) {
	t := p.types[typeID]
	if t == nil || t.kind != typeStruct {
		return PushConstantRange{}, malformedf("push constant block type %d is not a struct", typeID)
	}
	var r PushConstantRange
	first := true
	var end uint32
	offset := uint32(0)
	for i, memberType := range t.members {
		idx := uint32(i)
		if off, ok := p.memberDecoration(typeID, idx, spirv.DecorationOffset); ok {
			offset = off
		}
		size, err := p.memberSize(typeID, idx, memberType)
		if err != nil {
			return PushConstantRange{}, err
		}
		typeName, err := p.typeName(memberType, 0)
		if err != nil {
			return PushConstantRange{}, err
		}
		r.Members = append(r.Members, Member{
			Name:   p.memberNames[typeID][idx],
			Offset: offset,
			Size:   size,
			Type:   typeName,
		})
		if first || offset < r.Offset {
			r.Offset = offset
			first = false
		}
		end = max(end, offset+size)
		offset += size
	}
	if end > r.Offset {
		r.Size = end - r.Offset
	}
	return r, nil
}

// memberSize returns the size of a struct member, honoring a MatrixStride
// decoration on the member.
func (p *parser) memberSize(structID, member, typeID uint32) (uint32, error) {
	t := p.types[typeID]
	if t != nil && t.kind == typeMatrix {
		if stride, ok := p.memberDecoration(structID, member, spirv.DecorationMatrixStride); ok {
			return stride * t.count, nil
		}
	}
	return p.sizeOf(typeID, 0)
}

func (p *parser) sizeOf(typeID uint32, depth int) (uint32, error) {
	if depth > maxTypeDepth {
		return 0, malformedf("type %d nests too deeply", typeID)
	}
	t := p.types[typeID]
	if t == nil {
		return 0, malformedf("undefined type %d", typeID)
	}
	switch t.kind {
	case typeBool:
		return 4, nil
	case typeInt, typeFloat:
		return t.width / 8, nil
	case typeVector, typeMatrix:
		elem, err := p.sizeOf(t.elem, depth+1)
		if err != nil {
			return 0, err
		}
		return elem * t.count, nil
	case typeArray:
		n, ok := p.constants[t.length]
		if !ok {
			return 0, malformedf("array type %d has non-constant length %d", typeID, t.length)
		}
		stride, ok := p.decoration(typeID, spirv.DecorationArrayStride)
		if !ok {
			var err error
			if stride, err = p.sizeOf(t.elem, depth+1); err != nil {
				return 0, err
			}
		}
		return stride * n, nil
	case typeRuntimeArray:
		return 0, nil
	case typeStruct:
		var end, offset uint32
		for i, memberType := range t.members {
			idx := uint32(i)
			if off, ok := p.memberDecoration(typeID, idx, spirv.DecorationOffset); ok {
				offset = off
			}
			size, err := p.memberSize(typeID, idx, memberType)
			if err != nil {
				return 0, err
			}
			end = max(end, offset+size)
			offset += size
		}
		return end, nil
	default:
		return 0, nil
	}
}

// typeName spells a type canonically so that members of different stages
// can be compared for identical content.
func (p *parser) typeName(typeID uint32, depth int) (string, error) {
	if depth > maxTypeDepth {
		return "", malformedf("type %d nests too deeply", typeID)
	}
	t := p.types[typeID]
	if t == nil {
		return "", malformedf("undefined type %d", typeID)
	}
	switch t.kind {
	case typeBool, typeInt, typeFloat, typeVector:
		return p.format(typeID, depth).String(), nil
	case typeMatrix:
		col := p.types[t.elem]
		if col == nil {
			return "", malformedf("undefined matrix column type %d", t.elem)
		}
		scalar := p.format(col.elem, depth+1)
		return fmt.Sprintf("mat%dx%d<%s>", t.count, col.count, scalar), nil
	case typeArray:
		elem, err := p.typeName(t.elem, depth+1)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("array<%s,%d>", elem, p.constants[t.length]), nil
	case typeRuntimeArray:
		elem, err := p.typeName(t.elem, depth+1)
		if err != nil {
			return "", err
		}
		return "array<" + elem + ">", nil
	case typeStruct:
		parts := make([]string, 0, len(t.members))
		offset := uint32(0)
		for i, memberType := range t.members {
			if off, ok := p.memberDecoration(typeID, uint32(i), spirv.DecorationOffset); ok {
				offset = off
			}
			name, err := p.typeName(memberType, depth+1)
			if err != nil {
				return "", err
			}
			parts = append(parts, fmt.Sprintf("%d:%s", offset, name))
			size, err := p.memberSize(typeID, uint32(i), memberType)
			if err != nil {
				return "", err
			}
			offset += size
		}
		return "struct{" + strings.Join(parts, ";") + "}", nil
	default:
		return "opaque", nil
	}
}
