package monitor

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation error")
	// ErrBaselineNotWarm 基线样本不足, 不是错误, 只表示暂时无法判断放量/突破
	ErrBaselineNotWarm = errors.New("baseline not warm")
)

// ValidationError 配置/命令参数不合法, 状态保持不变
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DataSourceError 单个交易对拉取失败, 本 tick 跳过该交易对
type DataSourceError struct {
	Symbol string
	Err    error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// DispatchError 通知发送在重试后仍失败, 告警被丢弃
type DispatchError struct {
	EventID  string
	Attempts int
	Err      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s failed after %d attempts: %v", e.EventID, e.Attempts, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
