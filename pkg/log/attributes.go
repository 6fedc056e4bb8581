// Standard attribute keys for model-comparison runs.
//
// These keys follow a hierarchical naming convention (e.g., "model.name",
// "data.samples") to enable structured log analysis and filtering.

package log

import herrors "github.com/YuminosukeSato/hedonic/pkg/errors"

// Model and Operation Context
const (
	// ModelNameKey identifies the model family.
	// Examples: "OLS", "ElasticNet", "RandomForest"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score", "condition", "split"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the run.
	PhaseKey = "ml.phase"

	// TransformKey identifies the target transform of a model variant ("raw" or "log").
	TransformKey = "model.target_transform"

	// VariantKey identifies a single model variant (family + hyperparameters + transform).
	VariantKey = "model.variant"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// DroppedColumnsKey lists the columns removed to restore full column rank.
	DroppedColumnsKey = "data.dropped_columns"

	// RankKey records the numerical rank of a feature matrix.
	RankKey = "data.rank"

	// TrainSamplesKey and HoldoutSamplesKey record the split sizes.
	TrainSamplesKey   = "split.train_samples"
	HoldoutSamplesKey = "split.holdout_samples"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// R2ScoreKey records the hold-out R² of a model variant.
	// Range [-∞, 1.0], with 1.0 being perfect prediction.
	R2ScoreKey = "metrics.r2_score"

	// MSEKey records a mean squared error (CV folds, hold-out).
	MSEKey = "metrics.mse"

	// IterationKey records the current iteration number during iterative processes.
	IterationKey = "training.iteration"
)

// Grid search context
const (
	// CellKey identifies a grid cell.
	CellKey = "grid.cell"

	// CellsKey records the number of cells in a grid.
	CellsKey = "grid.cells"

	// WorkersKey records the number of workers used by a runner.
	WorkersKey = "grid.workers"
)

// Error and Warning Context
const (
	// ErrorCodeKey carries the Code of a typed error from pkg/errors.
	ErrorCodeKey = "error.code"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"
)

// Hyperparameters and Configuration
const (
	// AlphaKey records the elastic-net mixing parameter.
	AlphaKey = "hyperparams.alpha"

	// LambdaKey records the elastic-net penalty strength.
	LambdaKey = "hyperparams.lambda"

	// TreesKey and MinLeafKey record the forest grid coordinates.
	TreesKey   = "hyperparams.trees"
	MinLeafKey = "hyperparams.min_leaf"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"
	OperationCondition = "condition"
	OperationSplit     = "split"
	OperationSearch    = "search"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	ErrorNotFitted         = herrors.CodeNotFitted
	ErrorDimensionMismatch = herrors.CodeDimensionMismatch
	ErrorInvalidArgument   = herrors.CodeInvalidArgument
	ErrorDomain            = herrors.CodeDomain
	ErrorConvergence       = herrors.CodeConvergence
	ErrorModel             = herrors.CodeModel
)
