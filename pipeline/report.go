package pipeline

import (
	"encoding/json"
	"io"
	"math"
	"strconv"

	"github.com/YuminosukeSato/hedonic/compare"
	"github.com/YuminosukeSato/hedonic/dataset"
	"github.com/YuminosukeSato/hedonic/pkg/errors"
	"github.com/YuminosukeSato/hedonic/preprocessing"
	"github.com/YuminosukeSato/hedonic/search"
	"github.com/YuminosukeSato/hedonic/split"
)

// Score is a JSON-safe float: NaN and ±Inf encode as null.
type Score float64

// MarshalJSON implements json.Marshaler.
func (s Score) MarshalJSON() ([]byte, error) {
	f := float64(s)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// Row is one evaluated variant.
type Row struct {
	search.Variant
	VariantKey string           `json:"key"`
	R2         Score            `json:"r2"`
	Seed       uint64           `json:"seed"`
	Warning    string           `json:"warning,omitempty"`
	Error      string           `json:"error,omitempty"`
	Details    map[string]Score `json:"details,omitempty"`
	DurationMs int64            `json:"duration_ms"`
}

func newRow(r search.Result) Row {
	row := Row{
		Variant:    r.Variant,
		VariantKey: r.Variant.Key(),
		R2:         Score(r.R2),
		Seed:       r.Seed,
		DurationMs: r.Duration.Milliseconds(),
	}
	if r.Warning != nil {
		row.Warning = r.Warning.Error()
	}
	if r.Err != nil {
		row.Error = r.Err.Error()
	}
	if len(r.Details) > 0 {
		row.Details = make(map[string]Score, len(r.Details))
		for k, v := range r.Details {
			row.Details[k] = Score(v)
		}
	}
	return row
}

// AlphaTable maps α to hold-out R² for one target transform.
type AlphaTable struct {
	Transform preprocessing.Transform `json:"transform"`
	Alpha     []float64               `json:"alpha"`
	R2        []Score                 `json:"r2"`
	LambdaMin []Score                 `json:"lambda_min"`
	Best      *Row                    `json:"best,omitempty"`
}

// ForestTable is the R²[trees][min leaf] grid for one target transform.
type ForestTable struct {
	Transform preprocessing.Transform `json:"transform"`
	Trees     []int                   `json:"trees"`
	MinLeaf   []int                   `json:"min_leaf"`
	R2        [][]Score               `json:"r2"`
	Best      *Row                    `json:"best,omitempty"`
}

// SkippedBranch records a target transform that could not be evaluated.
type SkippedBranch struct {
	Transform preprocessing.Transform `json:"transform"`
	Reason    string                  `json:"reason"`
}

// Report is the outcome of a run.
type Report struct {
	Seed           uint64   `json:"seed"`
	Samples        int      `json:"samples"`
	Predictors     []string `json:"predictors"`
	Kept           []string `json:"kept_columns"`
	Dropped        []string `json:"dropped_columns"`
	NewDropped     []string `json:"new_dropped_columns,omitempty"`
	TrainRows      int      `json:"train_rows"`
	HoldoutRows    int      `json:"holdout_rows"`
	TrainIndices   []int    `json:"-"`
	HoldoutIndices []int    `json:"-"`

	Skipped      []SkippedBranch `json:"skipped,omitempty"`
	Ranking      []Row           `json:"ranking"`
	BestPerGroup []Row           `json:"best_per_group"`
	ElasticNet   []AlphaTable    `json:"elastic_net,omitempty"`
	Forest       []ForestTable   `json:"random_forest,omitempty"`
	Best         *Row            `json:"best,omitempty"`
	DurationMs   int64           `json:"duration_ms"`

	Predictions []compare.Prediction `json:"-"`
}

func newReport(cfg Config, sold *dataset.Frame, cond *preprocessing.Conditioned, sp split.Split) *Report {
	return &Report{
		Seed:           cfg.Seed,
		Samples:        sold.Rows(),
		Predictors:     sold.FeatureNames,
		Kept:           cond.SoldNames,
		Dropped:        cond.SoldDropped,
		NewDropped:     cond.NewDropped,
		TrainRows:      len(sp.Train),
		HoldoutRows:    len(sp.Holdout),
		TrainIndices:   sp.Train,
		HoldoutIndices: sp.Holdout,
	}
}

func (rep *Report) fill(cfg Config, results, ranked search.Results) {
	for _, r := range ranked {
		rep.Ranking = append(rep.Ranking, newRow(r))
	}
	for _, r := range compare.BestPerGroup(results) {
		rep.BestPerGroup = append(rep.BestPerGroup, newRow(r))
	}
	if best, err := compare.Select(results); err == nil {
		row := newRow(best)
		rep.Best = &row
	}

	for _, t := range cfg.Transforms {
		inBranch := func(f search.Family) func(search.Result) bool {
			return func(r search.Result) bool { return r.Variant.Family == f && r.Variant.Transform == t }
		}

		if en := results.Filter(inBranch(search.ElasticNet)); len(en) > 0 {
			table := AlphaTable{Transform: t}
			for _, r := range en {
				table.Alpha = append(table.Alpha, r.Variant.Alpha)
				table.R2 = append(table.R2, Score(r.R2))
				lambda := math.NaN()
				if v, ok := r.Details["lambda_min"]; ok {
					lambda = v
				}
				table.LambdaMin = append(table.LambdaMin, Score(lambda))
			}
			if best, ok := en.Best(); ok {
				row := newRow(best)
				table.Best = &row
			}
			rep.ElasticNet = append(rep.ElasticNet, table)
		}

		if rf := results.Filter(inBranch(search.RandomForest)); len(rf) > 0 {
			table := ForestTable{Transform: t, Trees: cfg.Trees, MinLeaf: cfg.MinLeaf}
			for _, line := range rf.Table2D(cfg.Trees, cfg.MinLeaf) {
				scores := make([]Score, len(line))
				for j, v := range line {
					scores[j] = Score(v)
				}
				table.R2 = append(table.R2, scores)
			}
			if best, ok := rf.Best(); ok {
				row := newRow(best)
				table.Best = &row
			}
			rep.Forest = append(rep.Forest, table)
		}
	}
}

// WriteJSON encodes the report as indented JSON.
func (rep *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return errors.Wrap(err, "encode report")
	}
	return nil
}

// PredictionRows formats the predictions as (identifier, price) CSV rows.
func (rep *Report) PredictionRows(idColumn string) ([]string, [][]string) {
	if idColumn == "" {
		idColumn = "id"
	}
	rows := make([][]string, len(rep.Predictions))
	for i, p := range rep.Predictions {
		rows[i] = []string{p.ID, formatPrice(p.Price)}
	}
	return []string{idColumn, "predicted_price"}, rows
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
