// Package hedonic compares house-price regressors by hold-out R².
//
// A sold-houses table is conditioned once: linearly dependent predictor
// columns are dropped so every regression sees a full-rank matrix, and both a
// raw-price and a log-price target are derived. The rows are split once into
// a training set and a hold-out set (65/35 with seed 42 by default) and that
// split is shared by every model variant, so R² values are comparable.
//
// # Model families
//
//   - OLS (package linear), with a 10-fold CV stability report.
//   - Elastic net (package linear), α swept over [0, 1], λ chosen by 10-fold
//     CV on the training rows only.
//   - Random forest (packages tree and ensemble), a grid of tree count and
//     minimum leaf size, half-size subsamples and round(sqrt(p)) candidate
//     predictors per split.
//
// Every variant is evaluated for both target transforms. Grid cells are
// independent tasks (package search) with seeds derived from the cell
// identity, so sequential and parallel runs agree exactly.
//
// # Selection
//
// Package compare ranks all cells by R², breaks ties in favour of fewer
// hyperparameters and then the raw target, retrains the winner on the
// training rows and predicts the new table, exponentiating log-space
// predictions.
//
// # Quick Start
//
//	cfg := pipeline.DefaultConfig()
//	sold, _ := tableio.ReadCSV("sold.csv")
//	fresh, _ := tableio.ReadCSV("new.csv")
//	report, err := pipeline.Run(ctx, cfg, sold, &fresh)
//	if err != nil {
//	    return err
//	}
//	header, rows := report.PredictionRows(cfg.Schema.Identifier)
//	_ = tableio.WriteCSV("prices.csv", header, rows)
//
// The hedonic command (cmd/hedonic) wraps the same flow:
//
//	hedonic -config cfg.yaml -sold sold.csv.gz -new new.csv -out prices.csv -report report.json
package hedonic
