package model

import "time"

// Metrics holds regression evaluation results on a test set.
type Metrics struct {
	MSE float64 `json:"mse"`
	MAE float64 `json:"mae"`
	R2  float64 `json:"r2"`
}

// DatasetVersion records a prepared dataset written by the processor job.
type DatasetVersion struct {
	CreatedAt    time.Time `json:"created_at"`
	SourceKey    string    `json:"source"`
	ProcessedKey string    `json:"processed"`
	RowsIn       int       `json:"rows_in"`
	RowsOut      int       `json:"rows_out"`
	ID           int64     `json:"id"`
}

// Dropped returns how many rows preparation eliminated.
func (v DatasetVersion) Dropped() int {
	return v.RowsIn - v.RowsOut
}

// TrainingRun records one fit/evaluate cycle and where its artifacts live.
type TrainingRun struct {
	CreatedAt  time.Time `json:"created_at"`
	ID         string    `json:"id"`
	DatasetKey string    `json:"dataset"`
	ModelKey   string    `json:"model"`
	Version    string    `json:"version"`
	Metrics    Metrics   `json:"metrics"`
	TrainRows  int       `json:"train_rows"`
	TestRows   int       `json:"test_rows"`
}
