// Package shaderset turns precompiled GPU bytecode for one or more pipeline
// stages into a validated, compiled and introspectable shader set.
//
// # Overview
//
// A shader set is assembled in three steps:
//
//	code, err := shaderset.FromBytes(vertexSPIRV)
//	vs, err := shaderset.NewStageShader(code, shaderset.StageVertex, "main")
//	// ... likewise for the fragment stage ...
//
//	b, err := shaderset.Builder{}.WithVertex(vs)
//	b, err = b.WithFragment(fs)
//	set, err := b.Build(nil)
//
// Build never touches the GPU. Modules are created by Load and released by
// Dispose, both against a [Device]:
//
//	if err := set.Load(dev); err != nil {
//	    set.Dispose(dev)
//	    return err
//	}
//	defer set.Dispose(dev)
//	stages, err := set.Raw() // entry points for pipeline creation
//
// # Reflection
//
// [Builder.Reflect] parses the bytecode of every stage and merges vertex
// attributes, descriptor bindings and push-constant ranges into one
// [reflection.Layout]. A [ReflectionCache] memoizes per-stage results by
// content hash.
//
// # Module sharing
//
// A [ModuleCache] wraps a Device and shares one backend module between all
// storages with identical bytecode, reference counted. Close it at shutdown
// to release whatever is still alive.
//
// # Backends
//
// Package backend/native implements [Device] over a wgpu HAL device.
//
// # Concurrency
//
// A Set and its storages are not safe for concurrent use; callers serialize
// Load and Dispose with the rest of their device work. Bytecode, StageShader
// and Builder values are immutable and may be shared freely. ModuleCache and
// ReflectionCache are safe for concurrent use.
package shaderset
