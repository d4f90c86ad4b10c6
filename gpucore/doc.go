// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpucore provides the leaf types shared by the shaderset packages.
//
// It defines pipeline [Stage] identifiers and their [StageFlags] visibility
// mask, opaque [ShaderModuleID] handles, and descriptor [BindingKind]s. The
// package has no knowledge of bytecode or backends, so both the reflection
// engine and the device adapters can depend on it without import cycles.
//
// # Resource Management
//
// Shader modules are referenced through opaque IDs. A Device implementation
// is responsible for tracking the mapping between IDs and actual GPU
// resources. [InvalidID] is never returned for a live module.
//
// # Stage Visibility
//
// [StageFlags] carries one bit per stage. The WebGPU subset (vertex,
// fragment, compute) converts to [gputypes.ShaderStage] via
// [StageFlags.GPUTypes]; geometry and tessellation bits are dropped on
// conversion because WebGPU has no such stages.
package gpucore
