// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package reflection recovers pipeline-layout metadata from SPIR-V bytecode
// and merges the contributions of several stages into one layout.
//
// # Per-Stage Reflection
//
// [Parse] walks a SPIR-V module once and records:
//   - entry points and their execution models
//   - stage input and output variables with their locations and formats
//   - descriptor bindings (set, binding, resource kind, array count)
//   - push-constant blocks with their member layout
//   - specialization constants and their SpecId
//
// Only what a pipeline layout needs is decoded. Function bodies are skipped.
//
// # Merging
//
// [Merge] reconciles the per-stage [Module]s of one shader set:
//
//  1. Vertex input attributes come only from the vertex stage, in
//     declaration order. Attributes named by [WithInstanceAttributes] or
//     selected by [WithInstanceRange] step per instance instead of per vertex.
//  2. Descriptor bindings that target the same (set, binding) pair must agree
//     on resource kind; they merge into one binding visible to the union of
//     the contributing stages.
//  3. Push-constant ranges are unioned by byte range. Overlapping ranges must
//     describe identical members in the overlap.
//
// Disagreements are reported as [*ConflictError], never resolved silently.
//
// The resulting [Layout] converts to gputypes bind-group and vertex-buffer
// layouts for pipeline creation.
package reflection
