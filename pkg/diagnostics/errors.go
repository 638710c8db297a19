// Package diagnostics holds the error taxonomy and the data quality report of a run.
package diagnostics

import (
	"errors"
	"fmt"
)

type Stage string

const (
	StageConfig     Stage = "config"
	StageLoader     Stage = "loader"
	StageResolver   Stage = "resolver"
	StageSpatial    Stage = "spatial"
	StageAggregator Stage = "aggregator"
	StageReducer    Stage = "reducer"
	StageExport     Stage = "export"
)

// StageError is a fatal error tagged with the pipeline stage that raised it
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %s", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func WrapStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}

	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return err
	}

	return &StageError{Stage: stage, Err: err}
}

// ConfigurationError is raised before any processing starts
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Setting, e.Reason)
}

func NewConfigurationError(setting string, format string, args ...any) error {
	return &ConfigurationError{Setting: setting, Reason: fmt.Sprintf(format, args...)}
}

func IsConfigurationError(err error) bool {
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}
