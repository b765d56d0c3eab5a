package domain

import "time"

// RecoveryResult is the outcome of one recovery attempt.
// Created once per attempt; immutable.
type RecoveryResult struct {
	Success      bool          `json:"success"`
	StrategyUsed Strategy      `json:"strategy_used"`
	Data         any           `json:"data,omitempty"`
	FallbackUsed bool          `json:"fallback_used"`
	DegradedMode bool          `json:"degraded_mode"`
	Warnings     []string      `json:"warnings,omitempty"`
	RecoveryTime time.Duration `json:"recovery_time"`
	Info         *ErrorInfo    `json:"error_info,omitempty"`
}
