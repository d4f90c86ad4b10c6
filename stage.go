package shaderset

import "github.com/gogpu/shaderset/gpucore"

// Stage identifies one pipeline stage. See gpucore.Stage.
type Stage = gpucore.Stage

// ShaderModuleID is the opaque handle a Device returns for a compiled module.
type ShaderModuleID = gpucore.ShaderModuleID

// InvalidModule is the zero ShaderModuleID.
const InvalidModule = gpucore.InvalidID

// Pipeline stages.
const (
	StageVertex      = gpucore.StageVertex
	StageFragment    = gpucore.StageFragment
	StageGeometry    = gpucore.StageGeometry
	StageTessControl = gpucore.StageTessControl
	StageTessEval    = gpucore.StageTessEval
	StageCompute     = gpucore.StageCompute
)

// ParseStage converts a stage name such as "vertex" or "frag" to a Stage.
func ParseStage(name string) (Stage, bool) {
	return gpucore.ParseStage(name)
}
