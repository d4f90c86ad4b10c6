package shaderset

import (
	"errors"
	"testing"

	"github.com/gogpu/shaderset/gpucore"
	"github.com/gogpu/shaderset/reflection"
)

func TestBuildRequiresVertexOrCompute(t *testing.T) {
	b, err := Builder{}.WithFragment(mustShader(t, StageFragment, 1, 2))
	if err != nil {
		t.Fatalf("WithFragment failed: %v", err)
	}
	if _, err := b.Build(nil); !errors.Is(err, ErrMissingRequiredStage) {
		t.Errorf("Build error = %v, want ErrMissingRequiredStage", err)
	}
	if _, err := (Builder{}).Build(nil); !errors.Is(err, ErrMissingRequiredStage) {
		t.Errorf("empty Build error = %v, want ErrMissingRequiredStage", err)
	}
}

func TestBuilderIsValueType(t *testing.T) {
	base, err := Builder{}.WithVertex(mustShader(t, StageVertex, 1))
	if err != nil {
		t.Fatal(err)
	}
	withFS, err := base.WithFragment(mustShader(t, StageFragment, 2))
	if err != nil {
		t.Fatal(err)
	}
	if base.Has(StageFragment) {
		t.Error("WithFragment modified the receiver")
	}
	if !withFS.Has(StageVertex) || !withFS.Has(StageFragment) {
		t.Error("updated builder lost a stage")
	}
	if withFS.Without(StageFragment).Has(StageFragment) {
		t.Error("Without did not clear the stage")
	}
	if !withFS.Has(StageFragment) {
		t.Error("Without modified the receiver")
	}
}

func TestBuilderOverwritesSlot(t *testing.T) {
	b, _ := Builder{}.WithVertex(mustShader(t, StageVertex, 1))
	b, _ = b.WithVertex(mustShader(t, StageVertex, 2))

	set, err := b.Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := set.Storage(StageVertex).Bytecode().Words(); got[0] != 2 {
		t.Errorf("vertex words = %v, want the second shader", got)
	}
}

func TestBuilderStageSlots(t *testing.T) {
	tests := []struct {
		stage Stage
		with  func(Builder, Shader) (Builder, error)
	}{
		{StageVertex, Builder.WithVertex},
		{StageFragment, Builder.WithFragment},
		{StageGeometry, Builder.WithGeometry},
		{StageTessControl, Builder.WithHull},
		{StageTessEval, Builder.WithDomain},
		{StageCompute, Builder.WithCompute},
	}
	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			b, err := tt.with(Builder{}, mustShader(t, tt.stage, 7))
			if err != nil {
				t.Fatalf("With failed: %v", err)
			}
			if !b.Has(tt.stage) {
				t.Errorf("stage %v not populated", tt.stage)
			}

			// Every other stage is a mismatch for this slot.
			other := StageVertex
			if tt.stage == StageVertex {
				other = StageFragment
			}
			_, err = tt.with(Builder{}, mustShader(t, other, 7))
			if !errors.Is(err, ErrStageMismatch) {
				t.Errorf("mismatched With error = %v, want ErrStageMismatch", err)
			}
		})
	}
}

func TestBuilderWithDispatchesOnStage(t *testing.T) {
	b, err := Builder{}.With(mustShader(t, StageTessEval, 3))
	if err != nil {
		t.Fatal(err)
	}
	if !b.Has(StageTessEval) {
		t.Error("With did not fill the domain slot")
	}
	if _, err := (Builder{}).With(errShader{stage: 0}); !errors.Is(err, ErrInvalidStage) {
		t.Errorf("With(invalid stage) error = %v, want ErrInvalidStage", err)
	}
}

func TestBuilderPropagatesBytecodeError(t *testing.T) {
	cause := errors.New("compile exploded")
	b := Builder{}
	_, err := b.WithVertex(errShader{stage: StageVertex, err: cause})
	if !errors.Is(err, cause) {
		t.Fatalf("WithVertex error = %v, want %v", err, cause)
	}
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageVertex {
		t.Errorf("error %v is not a vertex *StageError", err)
	}
}

func TestBuildPairsSpecialization(t *testing.T) {
	b, _ := Builder{}.WithVertex(mustShader(t, StageVertex, 1))
	b, _ = b.WithFragment(mustShader(t, StageFragment, 2))

	spec := &SpecConstants{Fragment: &Specialization{}}
	spec.Fragment.SetUint32(4, 16)
	spec.Compute = &Specialization{}
	spec.Compute.SetBool(1, true)

	set, err := b.Build(spec)
	if err != nil {
		t.Fatal(err)
	}
	// Later changes by the caller do not reach the set.
	spec.Fragment.SetUint32(4, 99)

	if set.Storage(StageVertex).Specialization() != nil {
		t.Error("vertex got a specialization block")
	}
	got, ok := set.Storage(StageFragment).Specialization().Value(4)
	if !ok || got[0] != 16 {
		t.Errorf("fragment constant 4 = %v, %v; want 16", got, ok)
	}
	if set.Has(StageCompute) {
		t.Error("compute specialization created a compute stage")
	}
}

func TestBuildDoesNotTouchDevice(t *testing.T) {
	b, _ := Builder{}.WithVertex(mustShader(t, StageVertex, 1))
	set, err := b.Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, st := range set.Stages() {
		if s := set.Storage(st); s.State() != Unloaded || s.Module() != InvalidModule {
			t.Errorf("%v storage = %v/%d, want unloaded without module", st, s.State(), s.Module())
		}
	}
}

func TestReflectMergesVisibility(t *testing.T) {
	b, _ := Builder{}.WithVertex(spirvShader(t, StageVertex, uniformResource))
	b, _ = b.WithFragment(spirvShader(t, StageFragment, uniformResource))

	layout, err := b.Reflect()
	if err != nil {
		t.Fatalf("Reflect failed: %v", err)
	}
	if len(layout.Bindings) != 1 {
		t.Fatalf("got %d bindings, want 1", len(layout.Bindings))
	}
	bind := layout.Bindings[0]
	if bind.Set != 0 || bind.Binding != 1 || bind.Kind != gpucore.BindingKindUniformBuffer {
		t.Errorf("binding = %+v", bind)
	}
	want := StageVertex.Flag() | StageFragment.Flag()
	if bind.Visibility != want {
		t.Errorf("visibility = %v, want %v", bind.Visibility, want)
	}
	if len(layout.Attributes) != 1 || layout.Attributes[0].Name != "position" {
		t.Errorf("attributes = %+v, want [position]", layout.Attributes)
	}
}

func TestReflectKindConflict(t *testing.T) {
	b, _ := Builder{}.WithVertex(spirvShader(t, StageVertex, uniformResource))
	b, _ = b.WithFragment(spirvShader(t, StageFragment, storageResource))

	_, err := b.Reflect()
	if !errors.Is(err, ErrReflectionConflict) {
		t.Fatalf("Reflect error = %v, want ErrReflectionConflict", err)
	}
	var conflict *reflection.ConflictError
	if !errors.As(err, &conflict) {
		t.Errorf("error %T is not a *reflection.ConflictError", err)
	}
}

func TestReflectRequiresVertexOrCompute(t *testing.T) {
	b, _ := Builder{}.WithFragment(spirvShader(t, StageFragment, noResource))
	if _, err := b.Reflect(); !errors.Is(err, ErrNoVertexOrCompute) {
		t.Errorf("Reflect error = %v, want ErrNoVertexOrCompute", err)
	}
}

func TestReflectMalformedStage(t *testing.T) {
	b, _ := Builder{}.WithVertex(spirvShader(t, StageVertex, noResource))
	b, _ = b.WithFragment(mustShader(t, StageFragment, 1, 2, 3, 4, 5))

	_, err := b.Reflect()
	if !errors.Is(err, reflection.ErrMalformed) {
		t.Fatalf("Reflect error = %v, want reflection.ErrMalformed", err)
	}
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageFragment {
		t.Errorf("error %v not attributed to the fragment stage", err)
	}
}

func TestReflectInstanceAttributes(t *testing.T) {
	b, _ := Builder{}.WithVertex(spirvShader(t, StageVertex, noResource))

	layout, err := b.Reflect(reflection.WithInstanceAttributes("position"))
	if err != nil {
		t.Fatal(err)
	}
	if !layout.Attributes[0].Instance {
		t.Error("position not tagged as per-instance")
	}

	_, err = b.Reflect(reflection.WithInstanceAttributes("normal"))
	if !errors.Is(err, reflection.ErrUnknownAttribute) {
		t.Errorf("Reflect error = %v, want ErrUnknownAttribute", err)
	}
}

const sharedWGSL = `
struct Globals {
    mvp: mat4x4<f32>,
}

struct Material {
    tint: vec4<f32>,
}

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
}

@group(0) @binding(0) var<uniform> globals: Globals;
@group(0) @binding(1) var<uniform> material: Material;

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) color: vec4<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = globals.mvp * vec4<f32>(position, 1.0);
    out.color = color;
    return out;
}

@fragment
fn fs_main(input: VertexOutput) -> @location(0) vec4<f32> {
    return input.color * material.tint;
}
`

func TestReflectSharedWGSLModule(t *testing.T) {
	b, err := Builder{}.WithVertex(NewWGSLShader(sharedWGSL, StageVertex, "vs_main"))
	if err != nil {
		t.Fatal(err)
	}
	b, err = b.WithFragment(NewWGSLShader(sharedWGSL, StageFragment, "fs_main"))
	if err != nil {
		t.Fatal(err)
	}

	layout, err := b.Reflect()
	if err != nil {
		t.Fatalf("Reflect failed: %v", err)
	}
	if len(layout.Attributes) != 2 {
		t.Fatalf("got %d vertex attributes, want 2: %+v", len(layout.Attributes), layout.Attributes)
	}
	for i, a := range layout.Attributes {
		if a.Location != uint32(i) {
			t.Errorf("attribute %d at location %d", i, a.Location)
		}
	}

	tests := []struct {
		binding    uint32
		visibility gpucore.StageFlags
	}{
		{0, StageVertex.Flag()},
		{1, StageFragment.Flag()},
	}
	if len(layout.Bindings) != len(tests) {
		t.Fatalf("got %d bindings, want %d: %+v", len(layout.Bindings), len(tests), layout.Bindings)
	}
	for i, tt := range tests {
		got := layout.Bindings[i]
		if got.Binding != tt.binding || got.Visibility != tt.visibility {
			t.Errorf("binding %d = (%d, %v), want (%d, %v)",
				i, got.Binding, got.Visibility, tt.binding, tt.visibility)
		}
	}
}

func TestReflectUnknownEntryPoint(t *testing.T) {
	b, err := Builder{}.WithVertex(NewWGSLShader(sharedWGSL, StageVertex, "main"))
	if err != nil {
		t.Fatal(err)
	}

	_, err = b.Reflect()
	if !errors.Is(err, ErrEntryPointNotFound) {
		t.Fatalf("Reflect error = %v, want ErrEntryPointNotFound", err)
	}
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageVertex {
		t.Errorf("error %v not attributed to the vertex stage", err)
	}

	b, _ = Builder{}.WithVertex(NewWGSLShader(sharedWGSL, StageVertex, "fs_main"))
	if _, err := b.Reflect(); !errors.Is(err, ErrEntryPointNotFound) {
		t.Errorf("stage mismatch error = %v, want ErrEntryPointNotFound", err)
	}
}

func TestBuildRejectsInvalidSpecialization(t *testing.T) {
	b, _ := Builder{}.WithVertex(mustShader(t, StageVertex, 1))

	spec := &SpecConstants{Vertex: &Specialization{
		Entries: []SpecEntry{{ID: 1, Offset: 0, Size: 4}},
	}}

	_, err := b.Build(spec)
	if !errors.Is(err, ErrInvalidSpecialization) {
		t.Fatalf("Build error = %v, want ErrInvalidSpecialization", err)
	}
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageVertex {
		t.Errorf("error %v not attributed to the vertex stage", err)
	}
}
